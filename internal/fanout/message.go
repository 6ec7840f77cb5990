package fanout

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/abgdnv/menusync/internal/catalog"
)

// TypeProductsUpdated marks a message carrying the full catalog after a replacement.
const TypeProductsUpdated = "PRODUCTS_UPDATED"

// ErrMalformedMessage is returned by DecodeMessage for frames that are not a well-formed message.
var ErrMalformedMessage = errors.New("malformed push message")

// Message is the push-channel envelope sent from the catalog service to storefronts.
type Message struct {
	Type string            `json:"type"`
	Data []catalog.Product `json:"data"`
}

// EncodeProductsUpdated builds the PRODUCTS_UPDATED frame for products.
func EncodeProductsUpdated(products []catalog.Product) ([]byte, error) {
	return json.Marshal(Message{Type: TypeProductsUpdated, Data: catalog.Clone(products)})
}

// DecodeMessage parses a push frame. Data is decoded only for PRODUCTS_UPDATED,
// where it must be a JSON array; other types are returned with nil Data.
func DecodeMessage(frame []byte) (Message, error) {
	var envelope struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(frame, &envelope); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if envelope.Type == "" {
		return Message{}, fmt.Errorf("%w: missing type", ErrMalformedMessage)
	}
	msg := Message{Type: envelope.Type}
	if envelope.Type != TypeProductsUpdated {
		return msg, nil
	}
	var products []catalog.Product
	if err := json.Unmarshal(envelope.Data, &products); err != nil {
		return Message{}, fmt.Errorf("%w: data: %v", ErrMalformedMessage, err)
	}
	if products == nil {
		return Message{}, fmt.Errorf("%w: data is not an array", ErrMalformedMessage)
	}
	msg.Data = products
	return msg, nil
}
