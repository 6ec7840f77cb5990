package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type validatable interface {
	Validate() error
}

func Test_Validate(t *testing.T) {
	testCases := []struct {
		name        string
		cfg         validatable
		expectError bool
	}{
		{name: "Success - sync", cfg: &SyncConfig{PushURL: "ws://h/ws", ReconnectDelay: time.Second, FetchRetryDelay: time.Second}},
		{name: "Error - sync http url", cfg: &SyncConfig{PushURL: "http://h/ws", ReconnectDelay: time.Second, FetchRetryDelay: time.Second}, expectError: true},
		{name: "Error - sync negative attempts", cfg: &SyncConfig{PushURL: "ws://h/ws", MaxReconnectAttempts: -1, ReconnectDelay: time.Second, FetchRetryDelay: time.Second}, expectError: true},
		{name: "Error - sync zero delay", cfg: &SyncConfig{PushURL: "ws://h/ws", FetchRetryDelay: time.Second}, expectError: true},
		{name: "Success - file cart", cfg: &CartConfig{Storage: CartStorageFile, Key: "k", Dir: "d"}},
		{name: "Error - redis cart without addr", cfg: &CartConfig{Storage: CartStorageRedis, Key: "k"}, expectError: true},
		{name: "Error - unknown cart storage", cfg: &CartConfig{Storage: "cookie", Key: "k"}, expectError: true},
		{name: "Success - checkout", cfg: &CheckoutConfig{RelayPhone: "5511999999999"}},
		{name: "Error - checkout phone with symbols", cfg: &CheckoutConfig{RelayPhone: "+55 11"}, expectError: true},
		{name: "Success - push fills defaults", cfg: &PushConfig{Port: 3002}},
		{name: "Error - push path", cfg: &PushConfig{Port: 3002, Path: "ws"}, expectError: true},
		{name: "Error - client url", cfg: &HTTPClientConfig{URL: "localhost:3001", Timeout: time.Second}, expectError: true},
		{name: "Success - client", cfg: &HTTPClientConfig{URL: "http://localhost:3001", Timeout: time.Second}},
		{name: "Success - nats disabled", cfg: &NATSConfig{}},
		{name: "Error - nats without stream", cfg: &NATSConfig{Enabled: true, Url: "nats://h", Timeout: time.Second, Subject: "s"}, expectError: true},
		{name: "Error - breaker rate", cfg: &ResilienceConfig{CircuitBreaker: CircuitBreakerConfig{ConsecutiveFailures: 1, ErrorRatePercent: 101, OpenTimeout: time.Second}}, expectError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()

			if tc.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func Test_PushConfig_Defaults(t *testing.T) {
	cfg := &PushConfig{Port: 3002}

	assert.NoError(t, cfg.Validate())

	assert.Equal(t, "/ws", cfg.Path)
	assert.Equal(t, 16, cfg.SendQueue)
	assert.Equal(t, 10*time.Second, cfg.WriteTimeout)
	assert.Equal(t, 30*time.Second, cfg.PingInterval)
}
