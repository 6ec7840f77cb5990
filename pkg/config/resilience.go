package config

import (
	"fmt"
	"strings"
	"time"
)

// ResilienceConfig guards the storefront and admin calls to the catalog REST surface.
type ResilienceConfig struct {
	CircuitBreaker CircuitBreakerConfig `koanf:"circuitbreaker"`
}

type CircuitBreakerConfig struct {
	ConsecutiveFailures uint32        `koanf:"consecutivefailures"`
	ErrorRatePercent    int           `koanf:"errorratepercent"`
	OpenTimeout         time.Duration `koanf:"opentimeout"`
	// HalfOpenRequests is the number of trial requests let through after OpenTimeout.
	HalfOpenRequests uint32 `koanf:"halfopenrequests"`
}

const defaultHalfOpenRequests = 3

// String returns a string representation of the ResilienceConfig.
func (c *ResilienceConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Circuit Breaker ---\n")
	b.WriteString(fmt.Sprintf("  consecutivefailures: %d\n", c.CircuitBreaker.ConsecutiveFailures))
	b.WriteString(fmt.Sprintf("  errorratepercent: %d\n", c.CircuitBreaker.ErrorRatePercent))
	b.WriteString(fmt.Sprintf("  opentimeout: %v\n", c.CircuitBreaker.OpenTimeout))
	b.WriteString(fmt.Sprintf("  halfopenrequests: %d\n", c.CircuitBreaker.HalfOpenRequests))
	return b.String()
}

func (c *ResilienceConfig) Validate() error {
	if c.CircuitBreaker.ConsecutiveFailures <= 0 {
		return fmt.Errorf("circuit_breaker.consecutive_failures must be greater than 0")
	}
	if c.CircuitBreaker.ErrorRatePercent < 0 || c.CircuitBreaker.ErrorRatePercent > 100 {
		return fmt.Errorf("circuit_breaker.error_rate_percent must be between 0 and 100")
	}
	if c.CircuitBreaker.OpenTimeout <= 0 {
		return fmt.Errorf("circuit_breaker.open_timeout must be greater than 0")
	}
	if c.CircuitBreaker.HalfOpenRequests == 0 {
		c.CircuitBreaker.HalfOpenRequests = defaultHalfOpenRequests
	}
	return nil
}
