package checkout

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
)

// FormatMessage renders the order as the plain text message sent to the business.
func FormatMessage(order Order, pixKey string) string {
	var b strings.Builder
	b.WriteString("*NEW ORDER*\n\n")
	fmt.Fprintf(&b, "*Customer:* %s\n", order.Customer.Name)
	fmt.Fprintf(&b, "*Address:* %s\n", order.Customer.Address)
	if order.Customer.Complement != "" {
		fmt.Fprintf(&b, "*Complement:* %s\n", order.Customer.Complement)
	}
	fmt.Fprintf(&b, "*Neighborhood:* %s\n", order.Customer.Neighborhood)
	fmt.Fprintf(&b, "*Phone:* %s\n\n", order.Customer.Phone)

	b.WriteString("*Items:*\n")
	for _, it := range order.Items {
		fmt.Fprintf(&b, "- %s (%dx) - R$ %s\n", it.Name, it.Quantity, it.Total())
	}

	fmt.Fprintf(&b, "\n*Subtotal:* R$ %s\n", order.Subtotal)
	fmt.Fprintf(&b, "*Delivery fee:* R$ %s\n", order.DeliveryFee)
	fmt.Fprintf(&b, "*Total:* R$ %s\n\n", order.Total)

	fmt.Fprintf(&b, "*Payment:* %s\n", order.Payment.Method.Label())
	switch order.Payment.Method {
	case MethodCredit, MethodDebit:
		fmt.Fprintf(&b, "*Card brand:* %s\n", order.Payment.CardBrand)
	case MethodCash:
		fmt.Fprintf(&b, "*Paying with:* R$ %s\n", order.Payment.ChangeFor)
		fmt.Fprintf(&b, "*Change:* R$ %s\n", order.Change)
	case MethodPix:
		if pixKey != "" {
			fmt.Fprintf(&b, "\n*PIX key:* %s\n", pixKey)
		}
		b.WriteString("Please send the payment receipt so we can confirm your order.\n")
	}

	if order.Note != "" {
		fmt.Fprintf(&b, "\n*Notes:* %s\n", order.Note)
	}
	b.WriteString("\nThank you for your order!")
	return b.String()
}

// RelayURL builds the message relay link for phone with msg percent-encoded.
// Spaces are encoded as %20, not '+'.
func RelayURL(phone, msg string) string {
	return "https://wa.me/" + phone + "?text=" + strings.ReplaceAll(url.QueryEscape(msg), "+", "%20")
}

// LogSink logs the relay URL instead of opening it.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Send(ctx context.Context, relayURL string) error {
	s.Logger.InfoContext(ctx, "Order ready for relay", "url", relayURL)
	return nil
}

// WriterSink prints the relay URL, one per line, for the customer to open.
type WriterSink struct {
	W io.Writer
}

func (s WriterSink) Send(_ context.Context, relayURL string) error {
	_, err := fmt.Fprintln(s.W, relayURL)
	return err
}
