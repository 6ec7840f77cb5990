// Package cart holds a customer session's cart and keeps it in durable storage.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/abgdnv/menusync/internal/catalog"
	"github.com/go-playground/validator/v10"
)

// DefaultKey is the storage key the cart is persisted under.
const DefaultKey = "deliveryAppCart"

// MaxQuantity is the most units of one product a cart holds.
const MaxQuantity = 999

var (
	ErrProductUnavailable = errors.New("product is not available")
	ErrItemNotFound       = errors.New("item not in cart")
	ErrInvalidCart        = errors.New("invalid cart")
	ErrQuantityLimit      = errors.New("item quantity limit reached")
)

// Item is a product as it was when added to the cart, plus a quantity.
// It serializes as the flattened product fields plus "quantity".
type Item struct {
	catalog.Product
	Quantity int `json:"quantity" validate:"gt=0,lte=999"`
}

// Total is the item's price times its quantity.
func (i Item) Total() catalog.Price {
	return i.Price.Mul(i.Quantity)
}

type updateRequest struct {
	Items []Item `json:"items" validate:"unique=ID,dive"`
}

// Store is a cart owned by one session. Every mutation is persisted
// before it becomes visible; a failed save leaves the cart unchanged.
type Store struct {
	storage  Storage
	key      string
	logger   *slog.Logger
	validate *validator.Validate

	mu    sync.Mutex
	items []Item
}

// Open restores the cart persisted under key as is. Nothing is checked against
// the catalog; see Reconcile. Unreadable content is logged and the cart starts empty.
func Open(ctx context.Context, storage Storage, key string, logger *slog.Logger) (*Store, error) {
	s := &Store{
		storage:  storage,
		key:      key,
		logger:   logger.With("component", "cart", "key", key),
		validate: catalog.NewValidator(),
		items:    []Item{},
	}

	data, err := storage.Load(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		s.logger.WarnContext(ctx, "Discarding unreadable cart", "error", err)
		return s, nil
	}
	if items != nil {
		s.items = items
	}
	s.logger.DebugContext(ctx, "Cart restored", "items", len(s.items))
	return s, nil
}

// Items returns a copy of the cart contents in insertion order.
func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

// Count is the total quantity across all items.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

// Subtotal is the sum of item totals at the prices captured when they were added.
func (s *Store) Subtotal() catalog.Price {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Subtotal(s.items)
}

// Subtotal sums the totals of items.
func Subtotal(items []Item) catalog.Price {
	var total catalog.Price
	for _, it := range items {
		total += it.Total()
	}
	return total
}

// Add puts one more unit of product in the cart. A product already in the cart
// has its quantity increased; its captured fields are kept.
func (s *Store) Add(ctx context.Context, product catalog.Product) error {
	if !product.Available {
		return fmt.Errorf("%w: %s", ErrProductUnavailable, product.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := slices.Clone(s.items)
	if i := s.index(product.ID); i >= 0 {
		if next[i].Quantity >= MaxQuantity {
			return fmt.Errorf("%w: %s", ErrQuantityLimit, product.ID)
		}
		next[i].Quantity++
	} else {
		next = append(next, Item{Product: product, Quantity: 1})
	}
	return s.commit(ctx, next)
}

// Update replaces the whole cart. Quantities must be positive and ids unique.
func (s *Store) Update(ctx context.Context, items []Item) error {
	if err := s.validate.Struct(updateRequest{Items: items}); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCart, err)
	}

	next := slices.Clone(items)
	if next == nil {
		next = []Item{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(ctx, next)
}

// Increase adds one unit of the item with the given id, up to MaxQuantity.
func (s *Store) Increase(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	if s.items[i].Quantity >= MaxQuantity {
		return fmt.Errorf("%w: %s", ErrQuantityLimit, id)
	}
	next := slices.Clone(s.items)
	next[i].Quantity++
	return s.commit(ctx, next)
}

// Decrease removes one unit of the item with the given id. Quantity never drops below 1;
// use Remove to take the item out.
func (s *Store) Decrease(ctx context.Context, id string) error {
	return s.modify(ctx, id, func(items []Item, i int) []Item {
		if items[i].Quantity > 1 {
			items[i].Quantity--
		}
		return items
	})
}

// Remove takes the item with the given id out of the cart.
func (s *Store) Remove(ctx context.Context, id string) error {
	return s.modify(ctx, id, func(items []Item, i int) []Item {
		return slices.Delete(items, i, i+1)
	})
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(ctx, []Item{})
}

func (s *Store) modify(ctx context.Context, id string, fn func([]Item, int) []Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	return s.commit(ctx, fn(slices.Clone(s.items), i))
}

func (s *Store) index(id string) int {
	return slices.IndexFunc(s.items, func(it Item) bool { return it.ID == id })
}

// commit persists next and only then makes it the current cart. Callers hold mu.
func (s *Store) commit(ctx context.Context, next []Item) error {
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	if err := s.storage.Save(ctx, s.key, data); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist cart", "error", err)
		return fmt.Errorf("failed to persist cart: %w", err)
	}
	s.items = next
	return nil
}
