package config

import (
	"fmt"
	"strings"
)

// CheckoutConfig configures order hand-off to the message relay.
type CheckoutConfig struct {
	RelayPhone string `koanf:"relayphone"`
	PixKey     string `koanf:"pixkey"`
	// DeliveryFees overrides the built-in neighborhood fee table (neighborhood -> decimal amount).
	DeliveryFees map[string]string `koanf:"deliveryfees"`
}

// String returns a string representation of the checkout configuration.
func (c *CheckoutConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Checkout ---\n")
	b.WriteString(fmt.Sprintf("  relayPhone: %s\n", c.RelayPhone))
	b.WriteString(fmt.Sprintf("  pixKey: %s\n", c.PixKey))
	b.WriteString(fmt.Sprintf("  deliveryFees: %d entries\n", len(c.DeliveryFees)))
	return b.String()
}

func (c *CheckoutConfig) Validate() error {
	if c.RelayPhone == "" {
		return fmt.Errorf("checkout relayPhone is not configured")
	}
	for _, r := range c.RelayPhone {
		if r < '0' || r > '9' {
			return fmt.Errorf("checkout relayPhone must contain digits only: %s", c.RelayPhone)
		}
	}
	return nil
}
