package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/abgdnv/menusync/internal/cart"
	"github.com/abgdnv/menusync/internal/catalog"
)

// MirrorKey is the storage key the last known catalog is kept under.
const MirrorKey = "products"

// MirrorCache keeps the last known catalog in the session's cart storage,
// so a restarted session can show a menu before the first fetch succeeds.
type MirrorCache struct {
	storage cart.Storage
	key     string
}

func NewMirrorCache(storage cart.Storage) *MirrorCache {
	return &MirrorCache{storage: storage, key: MirrorKey}
}

func (m *MirrorCache) LoadMirror(ctx context.Context) ([]catalog.Product, bool, error) {
	data, err := m.storage.Load(ctx, m.key)
	if errors.Is(err, cart.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var products []catalog.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached catalog: %w", err)
	}
	return products, true, nil
}

func (m *MirrorCache) SaveMirror(ctx context.Context, products []catalog.Product) error {
	data, err := json.Marshal(catalog.Clone(products))
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	return m.storage.Save(ctx, m.key, data)
}
