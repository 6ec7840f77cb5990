package config

import (
	"fmt"
	"strings"

	"github.com/abgdnv/menusync/pkg/config"
	"github.com/abgdnv/menusync/pkg/config/configloader"
)

var _ configloader.Validator = (*StorefrontConfig)(nil)

type StorefrontConfig struct {
	CatalogAPI config.HTTPClientConfig `koanf:"catalogapi"`
	Resilience config.ResilienceConfig `koanf:"resilience"`
	Sync       config.SyncConfig       `koanf:"sync"`
	Cart       config.CartConfig       `koanf:"cart"`
	Checkout   config.CheckoutConfig   `koanf:"checkout"`
	Probes     config.ProbesConfig     `koanf:"probes"`
	Log        config.LogConfig        `koanf:"log"`
	// MirrorCache keeps the last known catalog next to the cart and shows it until the first fetch.
	MirrorCache bool `koanf:"mirrorcache"`
}

// StorefrontDefaults is the lowest priority configuration layer of the storefront.
func StorefrontDefaults() map[string]any {
	return map[string]any{
		"catalogapi.url":                                "http://localhost:3001",
		"catalogapi.timeout":                            "5s",
		"resilience.circuitbreaker.consecutivefailures": 5,
		"resilience.circuitbreaker.errorratepercent":    50,
		"resilience.circuitbreaker.opentimeout":         "5s",
		"resilience.circuitbreaker.halfopenrequests":    3,
		"sync.pushurl":                                  "ws://localhost:3002/ws",
		"sync.maxreconnectattempts":                     5,
		"sync.reconnectdelay":                           "3s",
		"sync.fetchretrydelay":                          "3s",
		"sync.readtimeout":                              "90s",
		"cart.storage":                                  config.CartStorageFile,
		"cart.key":                                      "deliveryAppCart",
		"cart.dir":                                      ".menusync",
		"checkout.relayphone":                           "5500000000000",
		"log.level":                                     "warn",
		"mirrorcache":                                   false,
	}
}

func (c *StorefrontConfig) String() string {
	var b strings.Builder
	b.WriteString(c.CatalogAPI.String())
	b.WriteString(c.Resilience.String())
	b.WriteString(c.Sync.String())
	b.WriteString(c.Cart.String())
	b.WriteString(c.Checkout.String())
	b.WriteString(c.Probes.String())
	b.WriteString("\n--- Storefront ---\n")
	b.WriteString(fmt.Sprintf("  log.level: %s\n", c.Log.Level))
	b.WriteString(fmt.Sprintf("  mirrorCache: %t\n", c.MirrorCache))
	return b.String()
}

func (c *StorefrontConfig) Validate() error {
	if err := c.CatalogAPI.Validate(); err != nil {
		return err
	}
	if err := c.Resilience.Validate(); err != nil {
		return err
	}
	if err := c.Sync.Validate(); err != nil {
		return err
	}
	if err := c.Cart.Validate(); err != nil {
		return err
	}
	if err := c.Checkout.Validate(); err != nil {
		return err
	}
	if err := c.Probes.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	return nil
}
