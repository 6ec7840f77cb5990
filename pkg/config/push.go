package config

import (
	"fmt"
	"strings"
	"time"
)

// PushConfig configures the push-channel listener of the catalog service.
type PushConfig struct {
	Port           int           `koanf:"port"`
	Path           string        `koanf:"path"`
	SendQueue      int           `koanf:"sendqueue"`
	WriteTimeout   time.Duration `koanf:"writetimeout"`
	PingInterval   time.Duration `koanf:"pinginterval"`
	AllowedOrigins []string      `koanf:"allowedorigins"`
}

const (
	defaultPushPath     = "/ws"
	defaultSendQueue    = 16
	defaultWriteTimeout = 10 * time.Second
	defaultPingInterval = 30 * time.Second
)

// String returns a string representation of the push configuration.
func (c *PushConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Push Channel ---\n")
	b.WriteString(fmt.Sprintf("  port: %d\n", c.Port))
	b.WriteString(fmt.Sprintf("  path: %s\n", c.Path))
	b.WriteString(fmt.Sprintf("  sendQueue: %d\n", c.SendQueue))
	b.WriteString(fmt.Sprintf("  writeTimeout: %s\n", c.WriteTimeout))
	b.WriteString(fmt.Sprintf("  pingInterval: %s\n", c.PingInterval))
	b.WriteString(fmt.Sprintf("  allowedOrigins: %v\n", c.AllowedOrigins))
	return b.String()
}

func (c *PushConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid push port: %d", c.Port)
	}
	if c.Path == "" {
		c.Path = defaultPushPath
	}
	if !strings.HasPrefix(c.Path, "/") {
		return fmt.Errorf("push path must start with '/': %s", c.Path)
	}
	if c.SendQueue <= 0 {
		c.SendQueue = defaultSendQueue
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = defaultWriteTimeout
	}
	if c.PingInterval <= 0 {
		c.PingInterval = defaultPingInterval
	}
	return nil
}
