// Package main is the storefront: a customer session that mirrors the catalog, keeps a cart
// and checks out through the message relay.
//
// Usage:
//
//	storefront watch
//	storefront menu
//	storefront add|inc|dec|remove <product-id>
//	storefront cart
//	storefront clear
//	storefront checkout -name ... -address ... -phone ... -neighborhood ... -method pix
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/abgdnv/menusync/internal/cart"
	"github.com/abgdnv/menusync/internal/catalog"
	"github.com/abgdnv/menusync/internal/checkout"
	"github.com/abgdnv/menusync/internal/client/catalogapi"
	"github.com/abgdnv/menusync/internal/config"
	"github.com/abgdnv/menusync/internal/storefront"
	"github.com/abgdnv/menusync/internal/syncclient"
	"github.com/abgdnv/menusync/pkg/bootstrap"
	pkgconfig "github.com/abgdnv/menusync/pkg/config"
	"github.com/abgdnv/menusync/pkg/config/configloader"
	"github.com/abgdnv/menusync/pkg/probes"
)

const (
	serviceName    = "storefront"
	redisPrefix    = "menusync:"
	connectTimeout = 5 * time.Second
)

var errUsage = errors.New("usage: storefront <watch|menu|add|inc|dec|remove|cart|clear|checkout> [args]")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app is one storefront session and the pieces it is built from.
type app struct {
	cfg     *config.StorefrontConfig
	logger  *slog.Logger
	sync    *syncclient.Client
	session *storefront.Session
	probes  *probes.Probes
	// watching prints the menu on every mirror replacement.
	watching bool

	// printMu keeps each printed block whole; fetch and push updates arrive from different goroutines.
	printMu sync.Mutex
	out     io.Writer
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	cfg, cfgErr := configloader.Load[*config.StorefrontConfig](serviceName, config.StorefrontDefaults())
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	logger := bootstrap.NewStderrLogger(cfg.Log.Level)
	slog.SetDefault(logger)
	logger.Debug("Configuration loaded", "config", cfg.String())

	storage, closeStorage, err := newStorage(ctx, cfg.Cart)
	if err != nil {
		return err
	}
	defer closeStorage()

	a, err := newApp(ctx, cfg, storage, logger)
	if err != nil {
		return err
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "watch":
		return a.watch(ctx)
	case "menu":
		return a.menu(ctx)
	case "add", "inc", "dec", "remove":
		return a.changeCart(ctx, cmd, rest)
	case "cart":
		return a.showCart(ctx)
	case "clear":
		return a.session.Cart().Clear(ctx)
	case "checkout":
		return a.checkout(ctx, rest)
	default:
		return errUsage
	}
}

func newApp(ctx context.Context, cfg *config.StorefrontConfig, storage cart.Storage, logger *slog.Logger) (*app, error) {
	cartStore, err := cart.Open(ctx, storage, cfg.Cart.Key, logger)
	if err != nil {
		return nil, err
	}
	co, err := checkout.New(cfg.Checkout, checkout.WriterSink{W: os.Stdout}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to set up checkout: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, out: os.Stdout}
	opts := []syncclient.Option{
		syncclient.WithOnUpdate(a.onUpdate),
		syncclient.WithOnStateChange(a.onStateChange),
	}
	if cfg.MirrorCache {
		opts = append(opts, syncclient.WithMirrorCache(storefront.NewMirrorCache(storage)))
	}
	api := catalogapi.New(cfg.CatalogAPI, cfg.Resilience.CircuitBreaker, logger)
	a.sync = syncclient.New(cfg.Sync, syncclient.NewWebsocketDialer(cfg.Sync.ReadTimeout, nil), api, logger, opts...)
	a.session = storefront.NewSession(a.sync, cartStore, co, logger)
	return a, nil
}

// newStorage opens the configured cart storage. The returned func releases it.
func newStorage(ctx context.Context, cfg pkgconfig.CartConfig) (cart.Storage, func(), error) {
	switch cfg.Storage {
	case pkgconfig.CartStorageRedis:
		client, err := bootstrap.NewRedisClient(ctx, cfg.Redis, connectTimeout)
		if err != nil {
			return nil, nil, err
		}
		return cart.NewRedisStorage(client, redisPrefix, cfg.TTL), func() { _ = client.Close() }, nil
	default:
		fs, err := cart.NewFileStorage(cfg.Dir)
		if err != nil {
			return nil, nil, err
		}
		return fs, func() {}, nil
	}
}

// onUpdate reports cart items that no longer match the catalog after every mirror replacement.
// The cart itself is left alone.
func (a *app) onUpdate(products []catalog.Product, source syncclient.Source) {
	if a.session != nil {
		for _, d := range cart.Reconcile(a.session.Cart().Items(), products) {
			a.logger.Warn("Cart item out of date", "source", source, "kind", d.Kind, "product_id", d.ID, "detail", d.String())
		}
	}
	if a.watching {
		var buf bytes.Buffer
		fmt.Fprintf(&buf, "--- catalog updated (%s) ---\n", source)
		printMenu(&buf, catalog.GroupByCategory(products))
		a.print(buf.Bytes())
	}
}

// print writes one block to the output in a single call.
func (a *app) print(block []byte) {
	a.printMu.Lock()
	defer a.printMu.Unlock()
	_, _ = a.out.Write(block)
}
