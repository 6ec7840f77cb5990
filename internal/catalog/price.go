package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Price is a non-negative currency amount in cents.
// On the wire it is a JSON number with two decimals; numeric strings are accepted on input.
type Price int64

// MaxPrice bounds a single price, so that a price times any cart quantity still fits in a Price.
const MaxPrice Price = 100_000_000_00

var ErrPriceOutOfRange = errors.New("price out of range")

var maxPriceDecimal = MaxPrice.Decimal()

// ParsePrice parses a decimal amount such as "10", "10.5" or "10.499", rounding to cents.
func ParsePrice(s string) (Price, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", s, err)
	}
	return priceFromDecimal(d)
}

// priceFromDecimal rounds d to cents. Amounts beyond ±MaxPrice are rejected before conversion.
func priceFromDecimal(d decimal.Decimal) (Price, error) {
	if d.Abs().GreaterThan(maxPriceDecimal) {
		return 0, fmt.Errorf("%w: %s exceeds %s", ErrPriceOutOfRange, d, maxPriceDecimal.StringFixed(2))
	}
	return Price(d.Shift(2).Round(0).IntPart()), nil
}

// Decimal returns the amount in currency units.
func (p Price) Decimal() decimal.Decimal {
	return decimal.New(int64(p), -2)
}

// Mul returns the price of qty units.
func (p Price) Mul(qty int) Price {
	return p * Price(qty)
}

// String formats the amount with two decimals, e.g. "10.00".
func (p Price) String() string {
	return p.Decimal().StringFixed(2)
}

func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Price) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var d decimal.Decimal
	if err := json.Unmarshal(data, &d); err != nil {
		return fmt.Errorf("invalid price %s: %w", data, err)
	}
	price, err := priceFromDecimal(d)
	if err != nil {
		return err
	}
	*p = price
	return nil
}
