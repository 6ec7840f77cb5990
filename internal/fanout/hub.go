// Package fanout broadcasts catalog replacements to every connected storefront.
package fanout

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/abgdnv/menusync/internal/catalog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Conn is one open push connection.
// Send must not block on a slow peer; a connection that cannot take the frame returns an error.
type Conn interface {
	ID() string
	Send(frame []byte) error
	Close() error
}

// Result counts the outcome of one broadcast.
type Result struct {
	Delivered int
	Failed    int
}

// Hub keeps the registry of open connections. Delivery is best-effort and isolated per connection:
// a connection whose send fails is dropped and closed, the others still get the frame.
// There is no history; a late joiner catches up by fetching the catalog.
type Hub struct {
	mu     sync.RWMutex
	conns  map[string]Conn
	logger *slog.Logger

	connections metric.Int64UpDownCounter
	failedSends metric.Int64Counter
}

func NewHub(logger *slog.Logger) *Hub {
	meter := otel.Meter("catalog-service")
	connections, err := meter.Int64UpDownCounter("push_connections", metric.WithDescription("Number of open push connections"))
	if err != nil {
		panic(fmt.Sprintf("failed to create push_connections gauge: %v", err))
	}
	failedSends, err := meter.Int64Counter("push_failed_sends", metric.WithDescription("Total number of failed push sends"))
	if err != nil {
		panic(fmt.Sprintf("failed to create push_failed_sends counter: %v", err))
	}
	return &Hub{
		conns:       make(map[string]Conn),
		logger:      logger.With("component", "fanout"),
		connections: connections,
		failedSends: failedSends,
	}
}

// Register adds c to the broadcast set. A connection with the same id is replaced and closed.
func (h *Hub) Register(ctx context.Context, c Conn) {
	h.mu.Lock()
	previous, existed := h.conns[c.ID()]
	h.conns[c.ID()] = c
	h.mu.Unlock()

	if existed {
		_ = previous.Close()
	} else {
		h.connections.Add(ctx, 1)
	}
	h.logger.DebugContext(ctx, "Connection registered", "conn_id", c.ID())
}

// Unregister removes c unless its id has since been taken by another connection.
// It reports whether c was registered. The connection itself is not closed.
func (h *Hub) Unregister(ctx context.Context, c Conn) bool {
	h.mu.Lock()
	current, ok := h.conns[c.ID()]
	ok = ok && current == c
	if ok {
		delete(h.conns, c.ID())
	}
	h.mu.Unlock()

	if ok {
		h.connections.Add(ctx, -1)
		h.logger.DebugContext(ctx, "Connection unregistered", "conn_id", c.ID())
	}
	return ok
}

// Len returns the number of registered connections.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Broadcast sends a PRODUCTS_UPDATED frame with products to every registered connection.
// The error is non-nil only when the frame cannot be encoded; per-connection failures are counted in Result.
func (h *Hub) Broadcast(ctx context.Context, products []catalog.Product) (Result, error) {
	frame, err := EncodeProductsUpdated(products)
	if err != nil {
		return Result{}, fmt.Errorf("failed to encode broadcast: %w", err)
	}

	h.mu.RLock()
	targets := make([]Conn, 0, len(h.conns))
	for _, c := range h.conns {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	var res Result
	for _, c := range targets {
		if err := c.Send(frame); err != nil {
			res.Failed++
			h.failedSends.Add(ctx, 1)
			h.logger.WarnContext(ctx, "Dropping connection after failed send", "conn_id", c.ID(), "error", err)
			if h.Unregister(ctx, c) {
				_ = c.Close()
			}
			continue
		}
		res.Delivered++
	}
	h.logger.InfoContext(ctx, "Catalog broadcast", "products", len(products), "delivered", res.Delivered, "failed", res.Failed)
	return res, nil
}

// CloseAll closes and unregisters every connection. Used on shutdown.
func (h *Hub) CloseAll(ctx context.Context) {
	h.mu.Lock()
	conns := h.conns
	h.conns = make(map[string]Conn)
	h.mu.Unlock()

	for _, c := range conns {
		_ = c.Close()
		h.connections.Add(ctx, -1)
	}
}
