// Package app contains the application setup for the catalog service.
package app

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/menusync/internal/config"
	"github.com/abgdnv/menusync/internal/fanout"
	"github.com/abgdnv/menusync/internal/service"
	"github.com/abgdnv/menusync/internal/store"
	"github.com/abgdnv/menusync/internal/transport/rest"
	"github.com/abgdnv/menusync/internal/transport/ws"
	"github.com/abgdnv/menusync/pkg/messaging"
	"github.com/abgdnv/menusync/pkg/server"
	"github.com/go-chi/chi/v5"
)

type Dependencies struct {
	CatalogService service.CatalogService
	Hub            *fanout.Hub
	// Metrics serves the Prometheus exposition; nil when metrics are disabled.
	Metrics http.Handler
	Logger  *slog.Logger
}

// SetupDependencies wires the in-memory catalog store, the fanout hub and the catalog service.
// publisher receives a CatalogReplaced event on subject after every accepted replacement.
func SetupDependencies(publisher messaging.Publisher, subject string, metrics http.Handler, logger *slog.Logger) *Dependencies {
	hub := fanout.NewHub(logger)
	cService := service.NewService(store.NewInMemoryStore(), hub, publisher, subject, logger)

	return &Dependencies{
		CatalogService: cService,
		Hub:            hub,
		Metrics:        metrics,
		Logger:         logger,
	}
}

// SetupHttpHandler builds the REST surface with its middleware.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies, cfg *config.CatalogServiceConfig) http.Handler {
	mux := server.NewChiRouter(deps.Logger,
		server.WithCORS(cfg.HTTPServer.AllowedOrigins),
		server.WithTracing("catalog-http"),
	)
	wireRoutes(mux, deps, cfg)
	return mux
}

func wireRoutes(mux *chi.Mux, deps *Dependencies, cfg *config.CatalogServiceConfig) {
	catalogHandler := rest.NewHandler(deps.CatalogService, deps.Logger)
	catalogHandler.RegisterRoutes(mux)

	if deps.Metrics != nil {
		mux.Handle(cfg.Telemetry.Metrics.Path, deps.Metrics)
	}
}

// SetupPushHandler builds the push-channel endpoint. Connections register with deps.Hub.
func SetupPushHandler(deps *Dependencies, cfg *config.CatalogServiceConfig) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	ws.NewHandler(deps.Hub, cfg.Push, deps.Logger).RegisterRoutes(mux)
	return mux
}

// SetupHttpServer creates and configures the REST server of the catalog service.
func SetupHttpServer(deps *Dependencies, cfg *config.CatalogServiceConfig) *http.Server {
	return server.NewHTTPServer(cfg.HTTPServer, SetupHttpHandler(deps, cfg))
}

// SetupPushServer creates the push-channel server. Only the handshake is bounded by
// timeouts; upgraded connections manage their own deadlines.
func SetupPushServer(deps *Dependencies, cfg *config.CatalogServiceConfig) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Push.Port),
		Handler:           SetupPushHandler(deps, cfg),
		ReadHeaderTimeout: cfg.HTTPServer.Timeout.ReadHeader,
		MaxHeaderBytes:    cfg.HTTPServer.MaxHeaderBytes,
	}
}
