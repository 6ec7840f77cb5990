package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/menusync/pkg/config"
	"github.com/abgdnv/menusync/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewHTTPServer creates and configures a new HTTP server instance.
func NewHTTPServer(cfg config.HTTPConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.Timeout.Read,
		WriteTimeout:      cfg.Timeout.Write,
		IdleTimeout:       cfg.Timeout.Idle,
		ReadHeaderTimeout: cfg.Timeout.ReadHeader,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}
}

// RouterOption customizes the router built by NewChiRouter.
type RouterOption func(mux *chi.Mux)

// WithCORS allows cross-origin calls from the given origins. No-op for an empty list.
func WithCORS(origins []string) RouterOption {
	return func(mux *chi.Mux) {
		if len(origins) == 0 {
			return
		}
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "If-Match", "X-Request-Id"},
			ExposedHeaders: []string{"ETag", "X-Request-Id"},
			MaxAge:         300,
		}))
	}
}

// WithTracing wraps every request in an otel server span named after the operation.
func WithTracing(operation string) RouterOption {
	return func(mux *chi.Mux) {
		mux.Use(otelhttp.NewMiddleware(operation))
	}
}

// NewChiRouter creates a new Chi router with a set of
// middleware for request ID injection, structured logging, and recovery.
func NewChiRouter(logger *slog.Logger, opts ...RouterOption) *chi.Mux {
	mux := chi.NewRouter()
	for _, opt := range opts {
		opt(mux)
	}
	mux.Use(web.RequestIDInjector)
	mux.Use(web.StructuredLogger(logger))
	mux.Use(web.Recoverer(logger))
	return mux
}
