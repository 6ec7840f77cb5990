// Package main runs the catalog service: the REST surface over the catalog store and
// the push channel that fans every replacement out to connected storefronts.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "net/http/pprof"

	"github.com/abgdnv/menusync/internal/app"
	"github.com/abgdnv/menusync/internal/config"
	"github.com/abgdnv/menusync/pkg/bootstrap"
	"github.com/abgdnv/menusync/pkg/config/configloader"
	"github.com/abgdnv/menusync/pkg/messaging"
	pkgnats "github.com/abgdnv/menusync/pkg/nats"
	"github.com/abgdnv/menusync/pkg/telemetry"
	"golang.org/x/sync/errgroup"
)

const serviceName = "catalog"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
	log.Println("application stopped gracefully")
}

// run loads the configuration, wires the catalog service and serves the REST, push and pprof
// listeners until ctx is cancelled.
func run(ctx context.Context) error {
	cfg, cfgErr := configloader.Load[*config.CatalogServiceConfig](serviceName, config.CatalogServiceDefaults())
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	log.Printf("Configuration loaded: %v", cfg)

	logger := bootstrap.NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Telemetry.Traces.Enabled {
		tracerProvider, err := telemetry.NewTracerProvider(ctx, serviceName, cfg.Telemetry)
		if err != nil {
			logger.Error("error creating tracer provider", slog.Any("error", err))
			return err
		}
		// gracefully shutdown tracer provider
		g.Go(func() error {
			<-gCtx.Done()
			logger.Info("Shutting down tracer provider")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("failed to shutdown tracer provider: %w", err)
			}
			return nil
		})
	}

	var metricsHandler http.Handler
	if cfg.Telemetry.Metrics.Enabled {
		meterProvider, err := telemetry.NewMeterProvider(serviceName)
		if err != nil {
			return err
		}
		metricsHandler = meterProvider.Handler()
		g.Go(func() error {
			<-gCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
			defer cancel()
			return meterProvider.Shutdown(shutdownCtx)
		})
	}

	publisher, closePublisher, err := newPublisher(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closePublisher()

	deps := app.SetupDependencies(publisher, cfg.Nats.Subject, metricsHandler, logger)
	httpServer := app.SetupHttpServer(deps, cfg)
	pushServer := app.SetupPushServer(deps, cfg)

	// Start the HTTP server
	g.Go(func() error {
		logger.Info("HTTP server listening", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	// gracefully shutdown HTTP server on context cancellation
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	// Start the push server
	g.Go(func() error {
		logger.Info("Push server listening", slog.String("addr", pushServer.Addr), slog.String("path", cfg.Push.Path))
		if err := pushServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("push server failed: %w", err)
		}
		return nil
	})
	// Shutdown does not wait for upgraded connections; they are closed through the hub.
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down push server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()
		err := pushServer.Shutdown(shutdownCtx)
		deps.Hub.CloseAll(shutdownCtx)
		return err
	})

	// Start the pprof server if enabled
	if cfg.PProf.Enabled {
		pprofServer := &http.Server{
			Addr: cfg.PProf.Addr,
		}
		g.Go(func() error {
			logger.Info("Pprof server listening", slog.String("addr", pprofServer.Addr))
			if err := pprofServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("pprof server failed: %w", err)
			}
			return nil
		})
		// gracefully shutdown pprof server on context cancellation
		g.Go(func() error {
			<-gCtx.Done()
			logger.Info("Shutting down pprof server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
			defer cancel()
			return pprofServer.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("errgroup encountered an error: %w", err)
	}
	return nil
}

// newPublisher connects to NATS and provisions the catalog stream when enabled.
// Without NATS, replacement events are dropped.
func newPublisher(ctx context.Context, cfg *config.CatalogServiceConfig, logger *slog.Logger) (messaging.Publisher, func(), error) {
	if !cfg.Nats.Enabled {
		logger.Info("NATS is disabled, catalog events will not be published")
		return messaging.NoopPublisher{}, func() {}, nil
	}

	natsConn, err := pkgnats.NewClient(cfg.Nats.Url, cfg.Nats.Timeout)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create NATS connection: %w", err)
	}
	js, err := pkgnats.NewJetStreamContext(natsConn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get JetStream context: %w", err)
	}
	streamCtx, cancel := context.WithTimeout(ctx, cfg.Nats.Timeout)
	defer cancel()
	if err := pkgnats.EnsureStream(streamCtx, js, cfg.Nats.Stream, cfg.Nats.Subject); err != nil {
		natsConn.Close()
		return nil, nil, err
	}
	logger.Info("NATS connected", slog.String("url", cfg.Nats.Url), slog.String("stream", cfg.Nats.Stream))
	return pkgnats.NewNatsPublisher(js), func() { _ = natsConn.Drain() }, nil
}
