// Package catalogapi is the HTTP client of the catalog service REST surface.
package catalogapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/abgdnv/menusync/internal/catalog"
	"github.com/abgdnv/menusync/pkg/config"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	productsPath    = "/api/products"
	maxResponseSize = 8 << 20
)

// Client calls the catalog service. Transport failures and 5xx responses count towards
// the circuit breaker; client errors such as validation failures or conflicts do not.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*response]
	logger  *slog.Logger
}

type response struct {
	status int
	etag   string
	body   []byte
}

// New creates a Client for the catalog service at cfg.URL.
func New(cfg config.HTTPClientConfig, cbCfg config.CircuitBreakerConfig, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: newCircuitBreaker(cbCfg),
		logger:  logger.With("component", "catalogapi"),
	}
}

func newCircuitBreaker(cfg config.CircuitBreakerConfig) *gobreaker.CircuitBreaker[*response] {
	st := gobreaker.Settings{
		Name:        "catalog-api-cb",
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > cfg.ConsecutiveFailures ||
				(counts.Requests > cfg.ConsecutiveFailures &&
					float64(counts.TotalFailures)/float64(counts.Requests)*100 > float64(cfg.ErrorRatePercent))
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return !apiErr.Temporary()
			}
			// transport failures and context cancellation trip the breaker
			return false
		},
	}
	return gobreaker.NewCircuitBreaker[*response](st)
}

// FetchCatalog returns the current catalog. Version comes from the ETag header and is 0 if absent.
func (c *Client) FetchCatalog(ctx context.Context) (catalog.Snapshot, error) {
	resp, err := c.do(ctx, http.MethodGet, nil, nil)
	if err != nil {
		return catalog.Snapshot{}, err
	}
	var products []catalog.Product
	if err := json.Unmarshal(resp.body, &products); err != nil {
		return catalog.Snapshot{}, fmt.Errorf("failed to decode catalog: %w", err)
	}
	if products == nil {
		return catalog.Snapshot{}, errors.New("failed to decode catalog: not an array")
	}
	version, _ := catalog.ParseETag(resp.etag)
	return catalog.Snapshot{Version: version, Products: products}, nil
}

// ReplaceOption customizes a replacement request.
type ReplaceOption func(h http.Header)

// IfVersion makes the replacement conditional on the catalog still being at version.
func IfVersion(version uint64) ReplaceOption {
	return func(h http.Header) {
		h.Set("If-Match", catalog.FormatETag(version))
	}
}

// replaceResponse mirrors the body of an accepted replacement.
type replaceResponse struct {
	Success  bool              `json:"success"`
	Products []catalog.Product `json:"products"`
	Version  uint64            `json:"version"`
}

// ReplaceCatalog sends products as the whole catalog and returns the accepted snapshot.
func (c *Client) ReplaceCatalog(ctx context.Context, products []catalog.Product, opts ...ReplaceOption) (catalog.Snapshot, error) {
	body, err := json.Marshal(catalog.Clone(products))
	if err != nil {
		return catalog.Snapshot{}, fmt.Errorf("failed to encode products: %w", err)
	}
	header := make(http.Header)
	for _, opt := range opts {
		opt(header)
	}
	resp, err := c.do(ctx, http.MethodPost, body, header)
	if err != nil {
		return catalog.Snapshot{}, err
	}
	var accepted replaceResponse
	if err := json.Unmarshal(resp.body, &accepted); err != nil {
		return catalog.Snapshot{}, fmt.Errorf("failed to decode replacement response: %w", err)
	}
	if !accepted.Success {
		return catalog.Snapshot{}, errors.New("catalog service did not confirm the replacement")
	}
	return catalog.Snapshot{Version: accepted.Version, Products: catalog.Clone(accepted.Products)}, nil
}

func (c *Client) do(ctx context.Context, method string, body []byte, header http.Header) (*response, error) {
	resp, err := c.breaker.Execute(func() (*response, error) {
		return c.roundTrip(ctx, method, body, header)
	})
	if err != nil {
		c.logger.DebugContext(ctx, "Catalog API call failed", "method", method, "error", err, "breaker", c.breaker.State().String())
		return nil, err
	}
	return resp, nil
}

func (c *Client) roundTrip(ctx context.Context, method string, body []byte, header http.Header) (*response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+productsPath, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, productsPath, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, toAPIError(httpResp.StatusCode, data)
	}
	return &response{status: httpResp.StatusCode, etag: httpResp.Header.Get("ETag"), body: data}, nil
}

func toAPIError(status int, body []byte) *APIError {
	var payload struct {
		Error            string            `json:"error"`
		ValidationErrors map[string]string `json:"validation_errors"`
	}
	apiErr := &APIError{StatusCode: status, Message: http.StatusText(status)}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			apiErr.Message = payload.Error
		}
		apiErr.ValidationErrors = payload.ValidationErrors
	}
	return apiErr
}
