// Package store provides the catalog store: the single source of truth for the product list.
package store

import (
	"context"
	"errors"

	"github.com/abgdnv/menusync/internal/catalog"
)

// ErrVersionConflict is returned by CompareAndReplace when the stored version is not the expected one.
var ErrVersionConflict = errors.New("catalog version conflict")

// CatalogStore holds the authoritative product list. The only mutation is a whole-list replacement.
// It abstracts the underlying storage so the volatile in-memory store can be swapped for a durable one.
type CatalogStore interface {
	// Snapshot returns the current catalog. Products is empty, never nil, before the first replacement.
	Snapshot(ctx context.Context) (catalog.Snapshot, error)

	// Replace swaps in products as the whole catalog and returns the accepted snapshot.
	Replace(ctx context.Context, products []catalog.Product) (catalog.Snapshot, error)

	// CompareAndReplace is Replace guarded by the expected current version.
	// Returns ErrVersionConflict if the stored version differs.
	CompareAndReplace(ctx context.Context, expectedVersion uint64, products []catalog.Product) (catalog.Snapshot, error)
}
