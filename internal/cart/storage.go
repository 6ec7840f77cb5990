package cart

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Storage.Load when nothing is stored under the key.
var ErrNotFound = errors.New("cart storage: key not found")

// Storage is durable per-session key/value storage for serialized state.
type Storage interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}
