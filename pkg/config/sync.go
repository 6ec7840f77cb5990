package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// SyncConfig configures the storefront catalog mirror.
type SyncConfig struct {
	PushURL              string        `koanf:"pushurl"`
	MaxReconnectAttempts int           `koanf:"maxreconnectattempts"`
	ReconnectDelay       time.Duration `koanf:"reconnectdelay"`
	FetchRetryDelay      time.Duration `koanf:"fetchretrydelay"`
	// ReadTimeout drops a push connection that stays silent (no frames, no pings) for this long. 0 disables it.
	ReadTimeout time.Duration `koanf:"readtimeout"`
}

// String returns a string representation of the sync configuration.
func (c *SyncConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Catalog Sync ---\n")
	b.WriteString(fmt.Sprintf("  pushUrl: %s\n", c.PushURL))
	b.WriteString(fmt.Sprintf("  maxReconnectAttempts: %d\n", c.MaxReconnectAttempts))
	b.WriteString(fmt.Sprintf("  reconnectDelay: %s\n", c.ReconnectDelay))
	b.WriteString(fmt.Sprintf("  fetchRetryDelay: %s\n", c.FetchRetryDelay))
	b.WriteString(fmt.Sprintf("  readTimeout: %s\n", c.ReadTimeout))
	return b.String()
}

func (c *SyncConfig) Validate() error {
	u, err := url.Parse(c.PushURL)
	if c.PushURL == "" || err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
		return fmt.Errorf("sync: pushUrl must be a ws(s) url: %q", c.PushURL)
	}
	if c.MaxReconnectAttempts < 0 {
		return fmt.Errorf("sync: maxReconnectAttempts must not be negative")
	}
	if c.ReconnectDelay <= 0 {
		return fmt.Errorf("sync: reconnectDelay must be greater than 0")
	}
	if c.FetchRetryDelay <= 0 {
		return fmt.Errorf("sync: fetchRetryDelay must be greater than 0")
	}
	if c.ReadTimeout < 0 {
		return fmt.Errorf("sync: readTimeout must not be negative")
	}
	return nil
}
