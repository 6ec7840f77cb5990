// Package service implements catalog replacement: store, fan out, announce.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/abgdnv/menusync/internal/catalog"
	"github.com/abgdnv/menusync/internal/fanout"
	"github.com/abgdnv/menusync/internal/store"
	"github.com/abgdnv/menusync/pkg/messaging"
	"github.com/abgdnv/menusync/pkg/messaging/events"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
)

// CatalogService defines the catalog operations exposed to transports.
type CatalogService interface {
	// GetCatalog returns the current snapshot. Products is empty before the first replacement.
	GetCatalog(ctx context.Context) (catalog.Snapshot, error)

	// ReplaceCatalog makes products the whole catalog and pushes it to every connected storefront.
	ReplaceCatalog(ctx context.Context, products []catalog.Product) (catalog.Snapshot, error)

	// ReplaceCatalogIfVersion is ReplaceCatalog guarded by the expected current version.
	// Returns store.ErrVersionConflict if the catalog changed since expectedVersion.
	ReplaceCatalogIfVersion(ctx context.Context, expectedVersion uint64, products []catalog.Product) (catalog.Snapshot, error)
}

// Broadcaster pushes a catalog to connected storefronts.
type Broadcaster interface {
	Broadcast(ctx context.Context, products []catalog.Product) (fanout.Result, error)
}

// Service implements CatalogService.
type Service struct {
	store       store.CatalogStore
	broadcaster Broadcaster
	publisher   messaging.Publisher
	subject     string
	logger      *slog.Logger

	// mu serializes store+broadcast so every connection receives snapshots in store order.
	mu sync.Mutex

	replacements metric.Int64Counter
}

// NewService creates a new CatalogService. subject overrides the event subject when not empty.
func NewService(catalogStore store.CatalogStore, broadcaster Broadcaster, publisher messaging.Publisher, subject string, logger *slog.Logger) *Service {
	meter := otel.Meter("catalog-service")
	replacements, err := meter.Int64Counter("catalog_replacements", metric.WithDescription("Total number of accepted catalog replacements"))
	if err != nil {
		panic(fmt.Sprintf("failed to create catalog_replacements counter: %v", err))
	}
	return &Service{
		store:        catalogStore,
		broadcaster:  broadcaster,
		publisher:    publisher,
		subject:      subject,
		logger:       logger.With("component", "service"),
		replacements: replacements,
	}
}

// GetCatalog returns the current snapshot.
func (s *Service) GetCatalog(ctx context.Context) (catalog.Snapshot, error) {
	return s.store.Snapshot(ctx)
}

// ReplaceCatalog stores products as the new catalog, then broadcasts it synchronously.
func (s *Service) ReplaceCatalog(ctx context.Context, products []catalog.Product) (catalog.Snapshot, error) {
	return s.replace(ctx, func() (catalog.Snapshot, error) {
		return s.store.Replace(ctx, products)
	})
}

// ReplaceCatalogIfVersion stores products only if the catalog is still at expectedVersion.
func (s *Service) ReplaceCatalogIfVersion(ctx context.Context, expectedVersion uint64, products []catalog.Product) (catalog.Snapshot, error) {
	return s.replace(ctx, func() (catalog.Snapshot, error) {
		return s.store.CompareAndReplace(ctx, expectedVersion, products)
	})
}

func (s *Service) replace(ctx context.Context, storeFn func() (catalog.Snapshot, error)) (catalog.Snapshot, error) {
	snap, err := s.storeAndBroadcast(ctx, storeFn)
	if err != nil {
		return catalog.Snapshot{}, err
	}
	// published outside mu: events of concurrent replacements may arrive out of version order
	s.publish(ctx, snap)
	s.replacements.Add(ctx, 1)

	return snap, nil
}

func (s *Service) storeAndBroadcast(ctx context.Context, storeFn func() (catalog.Snapshot, error)) (catalog.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := storeFn()
	if err != nil {
		return catalog.Snapshot{}, err
	}
	s.logger.InfoContext(ctx, "Catalog replaced", "version", snap.Version, "products", len(snap.Products))

	// the replacement is accepted at this point; fanout and event failures only degrade freshness
	if _, err := s.broadcaster.Broadcast(ctx, snap.Products); err != nil {
		s.logger.ErrorContext(ctx, "Failed to broadcast catalog", "version", snap.Version, "error", err)
	}
	return snap, nil
}

func (s *Service) publish(ctx context.Context, snap catalog.Snapshot) {
	carrier := make(propagation.MapCarrier)
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	event := events.CatalogReplacedEvent{
		Carrier:      carrier,
		Version:      snap.Version,
		ProductCount: len(snap.Products),
		ReplacedAt:   snap.UpdatedAt,
	}
	if s.subject != "" {
		event = event.WithSubject(s.subject)
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish CatalogReplacedEvent", "version", snap.Version, "error", err)
	}
}
