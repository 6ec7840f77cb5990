package catalogapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abgdnv/menusync/internal/catalog"
	"github.com/abgdnv/menusync/pkg/config"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testBreakerCfg = config.CircuitBreakerConfig{
	ConsecutiveFailures: 2,
	ErrorRatePercent:    100,
	OpenTimeout:         time.Minute,
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(config.HTTPClientConfig{URL: srv.URL + "/", Timeout: 2 * time.Second}, testBreakerCfg,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClient_FetchCatalog(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - products and version", func(t *testing.T) {
		// given
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/api/products", r.URL.Path)
			w.Header().Set("ETag", `"9"`)
			_, _ = w.Write([]byte(`[{"id":"x1","name":"Pastel","price":10.00,"available":true}]`))
		})

		// when
		snap, err := client.FetchCatalog(ctx)

		// then
		require.NoError(t, err)
		assert.Equal(t, uint64(9), snap.Version)
		assert.Equal(t, []catalog.Product{{ID: "x1", Name: "Pastel", Price: 1000, Available: true}}, snap.Products)
	})

	t.Run("Success - empty catalog without ETag", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[]`))
		})

		snap, err := client.FetchCatalog(ctx)

		require.NoError(t, err)
		assert.Equal(t, uint64(0), snap.Version)
		assert.Equal(t, []catalog.Product{}, snap.Products)
	})

	t.Run("Error - server error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"Failed to fetch products"}`))
		})

		_, err := client.FetchCatalog(ctx)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
		assert.Equal(t, "Failed to fetch products", apiErr.Message)
		assert.True(t, apiErr.Temporary())
	})

	t.Run("Error - body is not an array", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"products":[]}`))
		})

		_, err := client.FetchCatalog(ctx)

		assert.ErrorContains(t, err, "failed to decode catalog")
	})
}

func TestClient_ReplaceCatalog(t *testing.T) {
	ctx := context.Background()
	products := []catalog.Product{{ID: "x1", Name: "Pastel", Price: 1000}}

	t.Run("Success - accepted snapshot", func(t *testing.T) {
		// given
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.Empty(t, r.Header.Get("If-Match"))
			var got []catalog.Product
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			assert.Equal(t, products, got)
			_, _ = w.Write([]byte(`{"success":true,"products":[{"id":"x1","name":"Pastel","price":10}],"version":2}`))
		})

		// when
		snap, err := client.ReplaceCatalog(ctx, products)

		// then
		require.NoError(t, err)
		assert.Equal(t, uint64(2), snap.Version)
		assert.Equal(t, products, snap.Products)
	})

	t.Run("Success - nil list is sent as an empty array", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			assert.Equal(t, `[]`, string(body))
			_, _ = w.Write([]byte(`{"success":true,"products":[],"version":3}`))
		})

		snap, err := client.ReplaceCatalog(ctx, nil)

		require.NoError(t, err)
		assert.Equal(t, []catalog.Product{}, snap.Products)
	})

	t.Run("Error - version conflict", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, `"4"`, r.Header.Get("If-Match"))
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error":"Catalog was modified concurrently; refresh and retry"}`))
		})

		_, err := client.ReplaceCatalog(ctx, products, IfVersion(4))

		assert.ErrorIs(t, err, ErrVersionConflict)
		assert.NotErrorIs(t, err, ErrValidation)
	})

	t.Run("Error - validation errors", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"validation_errors":{"[0].name":"failed on rule: required"}}`))
		})

		_, err := client.ReplaceCatalog(ctx, products)

		require.ErrorIs(t, err, ErrValidation)
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, map[string]string{"[0].name": "failed on rule: required"}, apiErr.ValidationErrors)
		assert.Contains(t, err.Error(), "[0].name: failed on rule: required")
	})

	t.Run("Error - unconfirmed replacement", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"success":false}`))
		})

		_, err := client.ReplaceCatalog(ctx, products)

		assert.ErrorContains(t, err, "did not confirm")
	})
}

func TestClient_CircuitBreaker(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - client errors do not open the breaker", func(t *testing.T) {
		var calls atomic.Int32
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusConflict)
		})

		for i := 0; i < 5; i++ {
			_, err := client.ReplaceCatalog(ctx, nil, IfVersion(1))
			require.ErrorIs(t, err, ErrVersionConflict)
		}
		assert.Equal(t, int32(5), calls.Load())
		assert.Equal(t, gobreaker.StateClosed, client.breaker.State())
	})

	t.Run("Error - repeated server errors open the breaker", func(t *testing.T) {
		var calls atomic.Int32
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		for i := 0; i < 3; i++ {
			_, err := client.FetchCatalog(ctx)
			require.Error(t, err)
		}
		_, err := client.FetchCatalog(ctx)

		assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
		assert.Equal(t, int32(3), calls.Load())
	})
}
