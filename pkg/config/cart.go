package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	CartStorageFile  = "file"
	CartStorageRedis = "redis"
)

// CartConfig selects where the storefront cart is persisted.
type CartConfig struct {
	Storage string        `koanf:"storage"`
	Key     string        `koanf:"key"`
	Dir     string        `koanf:"dir"`
	Redis   RedisConfig   `koanf:"redis"`
	TTL     time.Duration `koanf:"ttl"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// String returns a string representation of the cart configuration.
func (c *CartConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Cart ---\n")
	b.WriteString(fmt.Sprintf("  storage: %s\n", c.Storage))
	b.WriteString(fmt.Sprintf("  key: %s\n", c.Key))
	b.WriteString(fmt.Sprintf("  dir: %s\n", c.Dir))
	b.WriteString(fmt.Sprintf("  redis.addr: %s\n", c.Redis.Addr))
	b.WriteString(fmt.Sprintf("  redis.db: %d\n", c.Redis.DB))
	b.WriteString(fmt.Sprintf("  ttl: %s\n", c.TTL))
	return b.String()
}

func (c *CartConfig) Validate() error {
	if c.Key == "" {
		return fmt.Errorf("cart key is not configured")
	}
	switch c.Storage {
	case CartStorageFile:
		if c.Dir == "" {
			return fmt.Errorf("cart dir is required for file storage")
		}
	case CartStorageRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("cart redis.addr is required for redis storage")
		}
	default:
		return fmt.Errorf("unsupported cart storage: %q", c.Storage)
	}
	if c.TTL < 0 {
		return fmt.Errorf("cart ttl must not be negative")
	}
	return nil
}
