package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/abgdnv/menusync/internal/catalog"
)

// inMemory implements CatalogStore with a process-local list. Restart loses all data.
type inMemory struct {
	mu       sync.RWMutex
	products []catalog.Product
	version  uint64
	updated  time.Time
	now      func() time.Time
}

// NewInMemoryStore creates a new, empty CatalogStore.
func NewInMemoryStore() CatalogStore {
	return &inMemory{
		products: []catalog.Product{},
		now:      time.Now,
	}
}

// Snapshot returns a copy of the current catalog.
func (s *inMemory) Snapshot(_ context.Context) (catalog.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snapshotLocked(), nil
}

// Replace stores a copy of products as the new catalog.
func (s *inMemory) Replace(_ context.Context, products []catalog.Product) (catalog.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.replaceLocked(products), nil
}

// CompareAndReplace stores a copy of products if the current version is expectedVersion.
func (s *inMemory) CompareAndReplace(_ context.Context, expectedVersion uint64, products []catalog.Product) (catalog.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.version != expectedVersion {
		return catalog.Snapshot{}, fmt.Errorf("expected version %d, current %d: %w", expectedVersion, s.version, ErrVersionConflict)
	}
	return s.replaceLocked(products), nil
}

func (s *inMemory) replaceLocked(products []catalog.Product) catalog.Snapshot {
	s.products = catalog.Clone(products)
	s.version++
	s.updated = s.now().UTC()
	return s.snapshotLocked()
}

func (s *inMemory) snapshotLocked() catalog.Snapshot {
	return catalog.Snapshot{
		Version:   s.version,
		Products:  catalog.Clone(s.products),
		UpdatedAt: s.updated,
	}
}
