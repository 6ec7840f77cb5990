// Package syncclient keeps a storefront's read-only mirror of the catalog current.
//
// The mirror is filled by a one-shot fetch that retries until it succeeds and is then kept
// current by the push channel, which reconnects a bounded number of times after a failure.
// Both sources replace the whole mirror; the last one to arrive wins.
package syncclient

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/abgdnv/menusync/internal/catalog"
	"github.com/abgdnv/menusync/internal/fanout"
	"github.com/abgdnv/menusync/pkg/config"
	"golang.org/x/sync/errgroup"
)

// Conn is an open push connection.
type Conn interface {
	// ReadMessage blocks until the next frame arrives, the connection fails or ctx is done.
	ReadMessage(ctx context.Context) ([]byte, error)
	Close() error
}

// Dialer opens push connections.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// Fetcher returns the full catalog.
type Fetcher interface {
	FetchCatalog(ctx context.Context) (catalog.Snapshot, error)
}

// MirrorCache persists the last known mirror so a restarted session has something to show
// before the first fetch completes.
type MirrorCache interface {
	LoadMirror(ctx context.Context) ([]catalog.Product, bool, error)
	SaveMirror(ctx context.Context, products []catalog.Product) error
}

// Source tells where a mirror update came from.
type Source string

const (
	SourceFetch Source = "fetch"
	SourcePush  Source = "push"
	SourceCache Source = "cache"
)

type Option func(c *Client)

// WithOnUpdate registers a callback invoked after every mirror replacement with a copy of the new mirror.
func WithOnUpdate(fn func(products []catalog.Product, source Source)) Option {
	return func(c *Client) { c.onUpdate = fn }
}

// WithOnStateChange registers a callback invoked on every push-channel state transition.
func WithOnStateChange(fn func(state State)) Option {
	return func(c *Client) { c.onState = fn }
}

// WithMirrorCache restores the mirror from cache on Run and saves every update to it.
func WithMirrorCache(cache MirrorCache) Option {
	return func(c *Client) { c.cache = cache }
}

// Client maintains the mirror. The mirror is only ever replaced as a whole.
type Client struct {
	cfg     config.SyncConfig
	dialer  Dialer
	fetcher Fetcher
	cache   MirrorCache
	logger  *slog.Logger

	onUpdate func([]catalog.Product, Source)
	onState  func(State)

	mu       sync.RWMutex
	products []catalog.Product
	loaded   bool

	state    atomic.Int32
	attempts atomic.Int32
}

func New(cfg config.SyncConfig, dialer Dialer, fetcher Fetcher, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		cfg:      cfg,
		dialer:   dialer,
		fetcher:  fetcher,
		logger:   logger.With("component", "syncclient"),
		products: []catalog.Product{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Products returns a copy of the current mirror.
func (c *Client) Products() []catalog.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return catalog.Clone(c.products)
}

// Loaded reports whether the mirror has been filled from any source.
func (c *Client) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Connected reports whether the push channel is open.
func (c *Client) Connected() bool {
	return c.State() == StateConnected
}

func (c *Client) State() State {
	return State(c.state.Load())
}

// ReconnectAttempts returns the number of redials since the last successful connection.
// The first dial of a session is not a reconnect.
func (c *Client) ReconnectAttempts() int {
	return int(c.attempts.Load())
}

// Run restores the cached mirror if any, then runs the push loop and the initial fetch side by side.
// It returns when both are done: the fetch after its first success, the push loop once
// the reconnect budget is exhausted. Cancelling ctx stops both and Run returns nil.
func (c *Client) Run(ctx context.Context) error {
	c.restoreCache(ctx)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.pushLoop(gCtx)
	})
	g.Go(func() error {
		if err := c.FetchInitial(gCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	return g.Wait()
}

// FetchInitial fetches the full catalog into the mirror, retrying after FetchRetryDelay until
// it succeeds or ctx is done. Unlike the push channel there is no attempt limit.
func (c *Client) FetchInitial(ctx context.Context) error {
	for {
		snap, err := c.fetcher.FetchCatalog(ctx)
		if err == nil {
			c.apply(ctx, snap.Products, SourceFetch)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.WarnContext(ctx, "Catalog fetch failed, retrying", "error", err, "delay", c.cfg.FetchRetryDelay)
		if err := sleep(ctx, c.cfg.FetchRetryDelay); err != nil {
			return err
		}
	}
}

// pushLoop is the reconnect state machine.
func (c *Client) pushLoop(ctx context.Context) error {
	for {
		c.setState(StateConnecting)
		conn, err := c.dialer.Dial(ctx, c.cfg.PushURL)
		if err == nil {
			c.attempts.Store(0)
			c.setState(StateConnected)
			c.logger.InfoContext(ctx, "Push channel connected", "url", c.cfg.PushURL)
			err = c.readLoop(ctx, conn)
			_ = conn.Close()
		}
		c.setState(StateDisconnected)
		if ctx.Err() != nil {
			return nil
		}

		attempts := int(c.attempts.Load())
		if attempts >= c.cfg.MaxReconnectAttempts {
			c.setState(StateExhausted)
			c.logger.WarnContext(ctx, "Push channel reconnect attempts exhausted; catalog will not update until restart",
				"attempts", attempts, "error", err)
			return nil
		}
		c.logger.WarnContext(ctx, "Push channel lost, reconnecting",
			"error", err, "attempt", attempts+1, "max_attempts", c.cfg.MaxReconnectAttempts, "delay", c.cfg.ReconnectDelay)
		if err := sleep(ctx, c.cfg.ReconnectDelay); err != nil {
			return nil
		}
		c.attempts.Add(1)
	}
}

// readLoop applies frames until the connection fails. Malformed frames are dropped and the connection is kept.
func (c *Client) readLoop(ctx context.Context, conn Conn) error {
	for {
		frame, err := conn.ReadMessage(ctx)
		if err != nil {
			return err
		}
		msg, err := fanout.DecodeMessage(frame)
		if err != nil {
			c.logger.WarnContext(ctx, "Discarding malformed push message", "error", err, "size", len(frame))
			continue
		}
		if msg.Type != fanout.TypeProductsUpdated {
			c.logger.DebugContext(ctx, "Ignoring push message", "type", msg.Type)
			continue
		}
		c.apply(ctx, msg.Data, SourcePush)
	}
}

func (c *Client) apply(ctx context.Context, products []catalog.Product, source Source) {
	mirror := catalog.Clone(products)
	c.mu.Lock()
	c.products = mirror
	c.loaded = true
	c.mu.Unlock()

	c.logger.InfoContext(ctx, "Catalog mirror replaced", "source", source, "products", len(mirror))
	if c.cache != nil && source != SourceCache {
		if err := c.cache.SaveMirror(ctx, mirror); err != nil {
			c.logger.WarnContext(ctx, "Failed to cache catalog mirror", "error", err)
		}
	}
	if c.onUpdate != nil {
		c.onUpdate(catalog.Clone(mirror), source)
	}
}

func (c *Client) restoreCache(ctx context.Context) {
	if c.cache == nil || c.Loaded() {
		return
	}
	products, ok, err := c.cache.LoadMirror(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "Failed to restore cached catalog mirror", "error", err)
		return
	}
	if ok {
		c.apply(ctx, products, SourceCache)
	}
}

func (c *Client) setState(s State) {
	if State(c.state.Swap(int32(s))) == s {
		return
	}
	if c.onState != nil {
		c.onState(s)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
