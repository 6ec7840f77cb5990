// Package admin is the catalog editor used by the administrator. Every edit is applied
// to the last known catalog and sent to the catalog service as a whole-list replacement.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/abgdnv/menusync/internal/catalog"
	"github.com/abgdnv/menusync/internal/client/catalogapi"
	"github.com/abgdnv/menusync/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var (
	ErrInvalidDraft    = errors.New("invalid product draft")
	ErrProductNotFound = errors.New("product not found")
)

// DraftError lists the draft fields that failed validation.
type DraftError struct {
	Fields map[string]string
}

func (e *DraftError) Error() string {
	return fmt.Sprintf("%s: %v", ErrInvalidDraft, e.Fields)
}

func (e *DraftError) Is(target error) bool {
	return target == ErrInvalidDraft
}

// Draft is a new product before it has an id.
type Draft struct {
	Name        string        `json:"name" validate:"required,max=100"`
	Description string        `json:"description" validate:"required,max=1000"`
	Price       catalog.Price `json:"price" validate:"gt=0,lte=10000000000"`
	Category    string        `json:"category" validate:"required,max=100"`
	Image       string        `json:"image"`
	Available   bool          `json:"available"`
}

// Catalog is the catalog service as seen by the admin.
type Catalog interface {
	FetchCatalog(ctx context.Context) (catalog.Snapshot, error)
	ReplaceCatalog(ctx context.Context, products []catalog.Product, opts ...catalogapi.ReplaceOption) (catalog.Snapshot, error)
}

type Option func(c *Client)

// WithConditionalWrites sends the last known version with every replacement, so an edit
// made on a stale list fails with catalogapi.ErrVersionConflict instead of overwriting.
func WithConditionalWrites() Option {
	return func(c *Client) { c.conditional = true }
}

// WithIDGenerator replaces the UUIDv7 id generator.
func WithIDGenerator(fn func() (string, error)) Option {
	return func(c *Client) { c.newID = fn }
}

// Client keeps the admin's last known catalog. Without conditional writes two admins
// editing at the same time overwrite each other: the last replacement wins.
type Client struct {
	api         Catalog
	validate    *validator.Validate
	newID       func() (string, error)
	conditional bool
	logger      *slog.Logger

	mu       sync.Mutex
	products []catalog.Product
	version  uint64
}

func New(api Catalog, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		api:      api,
		validate: catalog.NewValidator(),
		newID:    newUUIDv7,
		logger:   logger.With("component", "admin"),
		products: []catalog.Product{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newUUIDv7() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Products returns a copy of the last known catalog.
func (c *Client) Products() []catalog.Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	return catalog.Clone(c.products)
}

// Version is the catalog version the last known list was read at.
func (c *Client) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// Refresh reloads the catalog from the service.
func (c *Client) Refresh(ctx context.Context) error {
	snap, err := c.api.FetchCatalog(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch catalog: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products = catalog.Clone(snap.Products)
	c.version = snap.Version
	return nil
}

// AddProduct validates d, gives it a fresh id and appends it to the catalog.
// An invalid draft is rejected before anything is sent.
func (c *Client) AddProduct(ctx context.Context, d Draft) (catalog.Product, error) {
	if err := c.validate.Struct(d); err != nil {
		if fields, ok := web.FieldErrors(err); ok {
			return catalog.Product{}, &DraftError{Fields: fields}
		}
		return catalog.Product{}, fmt.Errorf("failed to validate draft: %w", err)
	}
	id, err := c.newID()
	if err != nil {
		return catalog.Product{}, fmt.Errorf("failed to generate product id: %w", err)
	}
	product := catalog.Product{
		ID:          id,
		Name:        d.Name,
		Description: d.Description,
		Price:       d.Price,
		Category:    d.Category,
		Image:       d.Image,
		Available:   d.Available,
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.replace(ctx, append(catalog.Clone(c.products), product)); err != nil {
		return catalog.Product{}, err
	}
	c.logger.InfoContext(ctx, "Product added", "product_id", id)
	return product, nil
}

// UpdateProduct replaces the product with the same id, keeping its position.
func (c *Client) UpdateProduct(ctx context.Context, p catalog.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := slices.IndexFunc(c.products, func(q catalog.Product) bool { return q.ID == p.ID })
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrProductNotFound, p.ID)
	}
	next := catalog.Clone(c.products)
	next[i] = p
	if err := c.replace(ctx, next); err != nil {
		return err
	}
	c.logger.InfoContext(ctx, "Product updated", "product_id", p.ID)
	return nil
}

// ToggleAvailability stores p with its availability flipped and returns the stored value.
func (c *Client) ToggleAvailability(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	p.Available = !p.Available
	if err := c.UpdateProduct(ctx, p); err != nil {
		return catalog.Product{}, err
	}
	return p, nil
}

// DeleteProduct removes the product with id from the catalog.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := slices.DeleteFunc(catalog.Clone(c.products), func(q catalog.Product) bool { return q.ID == id })
	if len(next) == len(c.products) {
		return fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	if err := c.replace(ctx, next); err != nil {
		return err
	}
	c.logger.InfoContext(ctx, "Product deleted", "product_id", id)
	return nil
}

// replace sends next and adopts the accepted catalog. Callers hold mu.
func (c *Client) replace(ctx context.Context, next []catalog.Product) error {
	var opts []catalogapi.ReplaceOption
	if c.conditional {
		opts = append(opts, catalogapi.IfVersion(c.version))
	}
	snap, err := c.api.ReplaceCatalog(ctx, next, opts...)
	if err != nil {
		c.logger.WarnContext(ctx, "Catalog replacement failed", "error", err)
		return fmt.Errorf("failed to replace catalog: %w", err)
	}
	c.products = catalog.Clone(snap.Products)
	c.version = snap.Version
	return nil
}
