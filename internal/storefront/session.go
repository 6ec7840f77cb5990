// Package storefront ties a customer session together: the catalog mirror it reads,
// the cart it owns and the checkout that turns the cart into an order.
package storefront

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/abgdnv/menusync/internal/cart"
	"github.com/abgdnv/menusync/internal/catalog"
	"github.com/abgdnv/menusync/internal/checkout"
)

var (
	ErrProductNotFound = errors.New("product not in catalog")
	ErrCatalogNotReady = errors.New("catalog not loaded yet")
	ErrCartOutOfDate   = errors.New("cart does not match the catalog")
)

// OutOfDateError carries the discrepancies that block a checkout.
type OutOfDateError struct {
	Discrepancies []cart.Discrepancy
}

func (e *OutOfDateError) Error() string {
	parts := make([]string, 0, len(e.Discrepancies))
	for _, d := range e.Discrepancies {
		parts = append(parts, d.String())
	}
	return ErrCartOutOfDate.Error() + ": " + strings.Join(parts, "; ")
}

func (e *OutOfDateError) Is(target error) bool {
	return target == ErrCartOutOfDate
}

// Mirror is the session's read-only view of the catalog.
type Mirror interface {
	Products() []catalog.Product
	Loaded() bool
}

type Session struct {
	mirror   Mirror
	cart     *cart.Store
	checkout *checkout.Checkout
	logger   *slog.Logger
}

func NewSession(mirror Mirror, cartStore *cart.Store, co *checkout.Checkout, logger *slog.Logger) *Session {
	return &Session{
		mirror:   mirror,
		cart:     cartStore,
		checkout: co,
		logger:   logger.With("component", "storefront"),
	}
}

// Cart exposes the session's cart for quantity changes and display.
func (s *Session) Cart() *cart.Store {
	return s.cart
}

// Menu is the current mirror grouped by category.
func (s *Session) Menu() []catalog.Category {
	return catalog.GroupByCategory(s.mirror.Products())
}

// AddToCart adds the product with id as it currently appears in the mirror.
// Unavailable products are refused and the cart is left as it was.
func (s *Session) AddToCart(ctx context.Context, id string) error {
	if !s.mirror.Loaded() {
		return ErrCatalogNotReady
	}
	product, ok := catalog.Find(s.mirror.Products(), id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	if err := s.cart.Add(ctx, product); err != nil {
		s.logger.InfoContext(ctx, "Add to cart refused", "product_id", id, "error", err)
		return err
	}
	return nil
}

// Discrepancies compares the cart against the mirror. The cart is not changed.
func (s *Session) Discrepancies() []cart.Discrepancy {
	return cart.Reconcile(s.cart.Items(), s.mirror.Products())
}

// Checkout submits the cart as an order and clears it. A cart that no longer matches
// the mirror is refused with an *OutOfDateError so the customer can fix it first.
func (s *Session) Checkout(ctx context.Context, req checkout.Request) (checkout.Order, string, error) {
	if !s.mirror.Loaded() {
		return checkout.Order{}, "", ErrCatalogNotReady
	}
	if ds := s.Discrepancies(); len(ds) > 0 {
		return checkout.Order{}, "", &OutOfDateError{Discrepancies: ds}
	}

	order, err := s.checkout.Compose(req, s.cart.Items())
	if err != nil {
		return checkout.Order{}, "", err
	}
	relayURL, err := s.checkout.Submit(ctx, order)
	if err != nil {
		return checkout.Order{}, "", err
	}
	// the order is already out; a cart that fails to clear is reported but does not undo it
	if err := s.cart.Clear(ctx); err != nil {
		s.logger.ErrorContext(ctx, "Failed to clear cart after checkout", "error", err)
	}
	return order, relayURL, nil
}
