package config

import (
	"fmt"
	"strings"

	"github.com/abgdnv/menusync/pkg/config"
	"github.com/abgdnv/menusync/pkg/config/configloader"
)

var _ configloader.Validator = (*AdminConfig)(nil)

type AdminConfig struct {
	CatalogAPI config.HTTPClientConfig `koanf:"catalogapi"`
	Resilience config.ResilienceConfig `koanf:"resilience"`
	Log        config.LogConfig        `koanf:"log"`
	// ConditionalWrites sends If-Match with every replacement so concurrent edits conflict instead of overwriting.
	ConditionalWrites bool `koanf:"conditionalwrites"`
}

// AdminDefaults is the lowest priority configuration layer of catalogctl.
func AdminDefaults() map[string]any {
	return map[string]any{
		"catalogapi.url":                                "http://localhost:3001",
		"catalogapi.timeout":                            "5s",
		"resilience.circuitbreaker.consecutivefailures": 5,
		"resilience.circuitbreaker.errorratepercent":    50,
		"resilience.circuitbreaker.opentimeout":         "5s",
		"resilience.circuitbreaker.halfopenrequests":    3,
		"log.level":                                     "warn",
		"conditionalwrites":                             false,
	}
}

func (c *AdminConfig) String() string {
	var b strings.Builder
	b.WriteString(c.CatalogAPI.String())
	b.WriteString(c.Resilience.String())
	b.WriteString("\n--- Admin ---\n")
	b.WriteString(fmt.Sprintf("  log.level: %s\n", c.Log.Level))
	b.WriteString(fmt.Sprintf("  conditionalWrites: %t\n", c.ConditionalWrites))
	return b.String()
}

func (c *AdminConfig) Validate() error {
	if err := c.CatalogAPI.Validate(); err != nil {
		return err
	}
	if err := c.Resilience.Validate(); err != nil {
		return err
	}
	return c.Log.Validate()
}
