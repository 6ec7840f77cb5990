// Package config holds the configuration of each binary, assembled from the shared sections in pkg/config.
package config

import (
	"fmt"
	"strings"

	"github.com/abgdnv/menusync/pkg/config"
	"github.com/abgdnv/menusync/pkg/config/configloader"
)

var _ configloader.Validator = (*CatalogServiceConfig)(nil)

type CatalogServiceConfig struct {
	HTTPServer config.HTTPConfig      `koanf:"server"`
	Push       config.PushConfig      `koanf:"push"`
	Log        config.LogConfig       `koanf:"log"`
	PProf      config.PProfConfig     `koanf:"pprof"`
	Nats       config.NATSConfig      `koanf:"nats"`
	Shutdown   config.ShutdownConfig  `koanf:"shutdown"`
	Telemetry  config.TelemetryConfig `koanf:"telemetry"`
}

// CatalogServiceDefaults is the lowest priority configuration layer of the catalog service.
func CatalogServiceDefaults() map[string]any {
	return map[string]any{
		"server.port":               3001,
		"server.maxheaderbytes":     1 << 20,
		"server.timeout.read":       "10s",
		"server.timeout.write":      "10s",
		"server.timeout.idle":       "60s",
		"server.timeout.readheader": "5s",
		"push.port":                 3002,
		"push.path":                 "/ws",
		"push.sendqueue":            16,
		"push.writetimeout":         "10s",
		"push.pinginterval":         "30s",
		"log.level":                 "info",
		"pprof.enabled":             false,
		"pprof.addr":                "localhost:6060",
		"nats.enabled":              false,
		"nats.timeout":              "5s",
		"nats.stream":               "CATALOG",
		"nats.subject":              "catalog.replaced",
		"shutdown.timeout":          "5s",
		"telemetry.metrics.path":    "/metrics",
	}
}

func (c *CatalogServiceConfig) String() string {
	var b strings.Builder
	b.WriteString(c.HTTPServer.String())
	b.WriteString(c.Push.String())
	b.WriteString(c.Nats.String())
	b.WriteString(c.Telemetry.String())
	b.WriteString("\n--- Observability & Logging ---\n")
	b.WriteString(fmt.Sprintf("  log.level: %s\n", c.Log.Level))
	b.WriteString(fmt.Sprintf("  pprof.enabled: %t\n", c.PProf.Enabled))
	b.WriteString(fmt.Sprintf("  pprof.address: %s\n", c.PProf.Addr))
	b.WriteString("\n--- Application Behavior ---\n")
	b.WriteString(fmt.Sprintf("  shutdown.timeout: %s\n", c.Shutdown.Timeout))
	return b.String()
}

// Validate checks if the configuration values are valid
func (c *CatalogServiceConfig) Validate() error {
	if err := c.HTTPServer.Validate(); err != nil {
		return err
	}
	if err := c.Push.Validate(); err != nil {
		return err
	}
	if c.Push.Port == c.HTTPServer.Port {
		return fmt.Errorf("push port must differ from the HTTP server port: %d", c.Push.Port)
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if err := c.PProf.Validate(); err != nil {
		return err
	}
	if err := c.Nats.Validate(); err != nil {
		return err
	}
	if err := c.Shutdown.Validate(); err != nil {
		return err
	}
	if err := c.Telemetry.Validate(); err != nil {
		return err
	}
	return nil
}
