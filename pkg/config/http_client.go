package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// HTTPClientConfig points a client at the catalog REST surface.
type HTTPClientConfig struct {
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
}

// String returns a string representation of the HTTP client configuration.
func (c *HTTPClientConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Catalog API Client ---\n")
	b.WriteString(fmt.Sprintf("  url: %s\n", c.URL))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	return b.String()
}

func (c *HTTPClientConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("catalog API url is not configured")
	}
	u, err := url.Parse(c.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("catalog API url must be an http(s) url: %s", c.URL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("catalog API timeout is not configured")
	}
	return nil
}
