// Package ws serves the catalog push channel over websocket.
package ws

import (
	"context"
	"log/slog"
	"net/http"
	"slices"

	"github.com/abgdnv/menusync/internal/fanout"
	"github.com/abgdnv/menusync/pkg/config"
	"github.com/abgdnv/menusync/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Registry tracks open connections for broadcasting.
type Registry interface {
	Register(ctx context.Context, c fanout.Conn)
	Unregister(ctx context.Context, c fanout.Conn) bool
}

type Handler struct {
	registry Registry
	upgrader websocket.Upgrader
	cfg      config.PushConfig
	logger   *slog.Logger
}

// NewHandler creates the push endpoint handler. cfg must be validated.
func NewHandler(registry Registry, cfg config.PushConfig, logger *slog.Logger) *Handler {
	h := &Handler{
		registry: registry,
		cfg:      cfg,
		logger:   logger.With("component", "ws"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// RegisterRoutes registers the push endpoint and a health check.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get(h.cfg.Path, h.ServeWS)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// ServeWS upgrades the request and keeps the connection registered until it closes.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already written the error response
		h.logger.WarnContext(r.Context(), "Websocket upgrade failed", "error", err, "origin", r.Header.Get("Origin"))
		return
	}

	// keeps request-scoped values for logging; the connection's lifetime is governed by the pumps
	id := uuid.NewString()
	ctx := logger.WithConnID(context.WithoutCancel(r.Context()), id)
	c := newConnection(id, wsConn, h.cfg.SendQueue, h.cfg.WriteTimeout, h.cfg.PingInterval, h.logger)
	h.registry.Register(ctx, c)
	h.logger.InfoContext(ctx, "Storefront connected", "remote_addr", r.RemoteAddr)

	go c.writePump()
	c.readPump()

	h.registry.Unregister(ctx, c)
	h.logger.InfoContext(ctx, "Storefront disconnected")
}

// checkOrigin accepts requests without Origin (non-browser storefronts) and, when an allow-list
// is configured, browser origins on it. No allow-list means any origin.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.cfg.AllowedOrigins) == 0 {
		return true
	}
	return slices.Contains(h.cfg.AllowedOrigins, "*") || slices.Contains(h.cfg.AllowedOrigins, origin)
}
