// Package checkout turns a cart and the customer's details into an order message
// and hands it to the external message relay.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/abgdnv/menusync/internal/cart"
	"github.com/abgdnv/menusync/internal/catalog"
	"github.com/abgdnv/menusync/pkg/config"
	"github.com/abgdnv/menusync/pkg/web"
	"github.com/go-playground/validator/v10"
)

type Method string

const (
	MethodCredit Method = "credit"
	MethodDebit  Method = "debit"
	MethodPix    Method = "pix"
	MethodCash   Method = "cash"
)

// Label is the human readable payment method name used in order messages.
func (m Method) Label() string {
	switch m {
	case MethodCredit:
		return "Credit card"
	case MethodDebit:
		return "Debit card"
	case MethodPix:
		return "PIX"
	case MethodCash:
		return "Cash"
	default:
		return string(m)
	}
}

var (
	ErrEmptyCart    = errors.New("cart is empty")
	ErrInvalidOrder = errors.New("invalid order")
)

// ValidationError lists the fields of a Request that failed validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, field := range slices.Sorted(maps.Keys(e.Fields)) {
		parts = append(parts, field+": "+e.Fields[field])
	}
	return "invalid order: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidOrder
}

type Customer struct {
	Name         string `json:"name" validate:"required,max=100"`
	Address      string `json:"address" validate:"required,max=200"`
	Complement   string `json:"complement" validate:"max=200"`
	Phone        string `json:"phone" validate:"required,max=20"`
	Neighborhood string `json:"neighborhood" validate:"required"`
}

type Payment struct {
	Method    Method `json:"method" validate:"required,oneof=credit debit pix cash"`
	CardBrand string `json:"cardBrand,omitempty" validate:"omitempty,oneof=visa mastercard elo amex hipercard"`
	// ChangeFor is the cash amount the customer pays with; only for cash.
	ChangeFor catalog.Price `json:"changeFor,omitempty" validate:"gte=0"`
}

// Request is what the customer fills in at checkout.
type Request struct {
	Customer Customer `json:"customer"`
	Payment  Payment  `json:"payment"`
	Note     string   `json:"note" validate:"max=280"`
}

// Order is a priced request, ready to be sent.
type Order struct {
	Customer    Customer
	Payment     Payment
	Note        string
	Items       []cart.Item
	Subtotal    catalog.Price
	DeliveryFee catalog.Price
	Total       catalog.Price
	// Change is due back to a customer paying cash.
	Change catalog.Price
}

// Sink receives the relay URL of a submitted order. Nothing is read back.
type Sink interface {
	Send(ctx context.Context, relayURL string) error
}

type Checkout struct {
	fees       FeeTable
	relayPhone string
	pixKey     string
	sink       Sink
	validate   *validator.Validate
	logger     *slog.Logger
}

func New(cfg config.CheckoutConfig, sink Sink, logger *slog.Logger) (*Checkout, error) {
	fees, err := NewFeeTable(cfg.DeliveryFees)
	if err != nil {
		return nil, err
	}
	return &Checkout{
		fees:       fees,
		relayPhone: cfg.RelayPhone,
		pixKey:     cfg.PixKey,
		sink:       sink,
		validate:   catalog.NewValidator(),
		logger:     logger.With("component", "checkout"),
	}, nil
}

// Fees returns the delivery fee table in use.
func (c *Checkout) Fees() FeeTable {
	return c.fees
}

// Compose validates req and prices items for delivery.
func (c *Checkout) Compose(req Request, items []cart.Item) (Order, error) {
	if len(items) == 0 {
		return Order{}, ErrEmptyCart
	}

	fields := map[string]string{}
	if err := c.validate.Struct(req); err != nil {
		fieldErrors, ok := web.FieldErrors(err)
		if !ok {
			return Order{}, fmt.Errorf("failed to validate order: %w", err)
		}
		maps.Copy(fields, fieldErrors)
	}

	fee, err := c.fees.Lookup(req.Customer.Neighborhood)
	if err != nil && req.Customer.Neighborhood != "" {
		fields["customer.neighborhood"] = "no delivery to this neighborhood"
	}

	subtotal := cart.Subtotal(items)
	total := subtotal + fee

	switch req.Payment.Method {
	case MethodCredit, MethodDebit:
		if req.Payment.CardBrand == "" {
			fields["payment.cardBrand"] = "failed on rule: required"
		}
	case MethodCash:
		if req.Payment.ChangeFor < total {
			fields["payment.changeFor"] = "must be at least " + total.String()
		}
	}

	if len(fields) > 0 {
		return Order{}, &ValidationError{Fields: fields}
	}

	order := Order{
		Customer:    req.Customer,
		Payment:     req.Payment,
		Note:        req.Note,
		Items:       slices.Clone(items),
		Subtotal:    subtotal,
		DeliveryFee: fee,
		Total:       total,
	}
	if req.Payment.Method == MethodCash {
		order.Change = req.Payment.ChangeFor - total
	}
	return order, nil
}

// Submit formats the order, hands it to the sink and returns the relay URL.
func (c *Checkout) Submit(ctx context.Context, order Order) (string, error) {
	relayURL := RelayURL(c.relayPhone, FormatMessage(order, c.pixKey))
	if err := c.sink.Send(ctx, relayURL); err != nil {
		c.logger.ErrorContext(ctx, "Failed to hand order to relay", "error", err)
		return "", fmt.Errorf("failed to send order: %w", err)
	}
	c.logger.InfoContext(ctx, "Order handed to relay", "items", len(order.Items), "total", order.Total.String())
	return relayURL, nil
}
