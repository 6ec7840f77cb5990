// Package rest provides the HTTP surface of the catalog service.
package rest

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/abgdnv/menusync/internal/catalog"
	"github.com/abgdnv/menusync/internal/service"
	"github.com/abgdnv/menusync/internal/store"
	"github.com/abgdnv/menusync/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

// maxBodyBytes bounds a replacement request body.
const maxBodyBytes = 1 << 20

// ReplaceResponse is the body of an accepted replacement.
type ReplaceResponse struct {
	Success  bool              `json:"success"`
	Products []catalog.Product `json:"products"`
	Version  uint64            `json:"version"`
}

type Handler struct {
	service  service.CatalogService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a new catalog Handler with the provided service.
func NewHandler(service service.CatalogService, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: catalog.NewValidator(),
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the catalog service.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.GetCatalog)
		r.Post("/", h.ReplaceCatalog)
	})

	r.Get("/healthz", h.HealthCheck)
}

// GetCatalog returns the current catalog as a JSON array, with its version as ETag.
func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	snap, err := h.service.GetCatalog(r.Context())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving catalog", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully retrieved catalog", "version", snap.Version, "count", len(snap.Products))
	w.Header().Set("ETag", catalog.FormatETag(snap.Version))
	web.RespondJSON(w, mLogger, http.StatusOK, catalog.Clone(snap.Products))
}

// ReplaceCatalog replaces the whole catalog with the JSON array in the body.
// With If-Match the replacement only happens if the catalog is still at that version.
func (h *Handler) ReplaceCatalog(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)

	var req catalog.ReplaceRequest
	if err := decodeProducts(w, r, &req.Products); err != nil {
		mLogger.WarnContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	mLogger.DebugContext(r.Context(), "Received request to replace catalog", "count", len(req.Products))

	if err := h.validate.Struct(req); err != nil {
		if fieldErrors, ok := web.FieldErrors(err); ok {
			mLogger.WarnContext(r.Context(), "Validation errors occurred", "errors", fieldErrors)
			web.RespondValidationErrors(w, mLogger, fieldErrors)
			return
		}
		mLogger.ErrorContext(r.Context(), "Error validating request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}

	var (
		snap catalog.Snapshot
		err  error
	)
	if ifMatch := r.Header.Get("If-Match"); ifMatch != "" {
		expected, ok := catalog.ParseETag(ifMatch)
		if !ok {
			web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid If-Match header")
			return
		}
		snap, err = h.service.ReplaceCatalogIfVersion(r.Context(), expected, req.Products)
	} else {
		snap, err = h.service.ReplaceCatalog(r.Context(), req.Products)
	}
	if err != nil {
		if errors.Is(err, store.ErrVersionConflict) {
			mLogger.WarnContext(r.Context(), "Catalog version conflict", "error", err)
			web.RespondError(w, mLogger, http.StatusConflict, "Catalog was modified concurrently; refresh and retry")
			return
		}
		mLogger.ErrorContext(r.Context(), "Error replacing catalog", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to replace products")
		return
	}

	mLogger.InfoContext(r.Context(), "Catalog replaced successfully", "version", snap.Version, "count", len(snap.Products))
	w.Header().Set("ETag", catalog.FormatETag(snap.Version))
	web.RespondJSON(w, mLogger, http.StatusOK, ReplaceResponse{Success: true, Products: snap.Products, Version: snap.Version})
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID := middleware.GetReqID(r.Context())
	return h.logger.With("request_id", reqID)
}

// decodeProducts strictly decodes a single JSON array of products from the body.
func decodeProducts(w http.ResponseWriter, r *http.Request, dst *[]catalog.Product) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field == "" {
			return errors.New("expected a JSON array of product objects")
		}
		return err
	}
	if *dst == nil {
		return errors.New("expected a JSON array of product objects")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after the products array")
	}
	return nil
}
