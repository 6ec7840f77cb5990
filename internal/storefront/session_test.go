package storefront

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/abgdnv/menusync/internal/cart"
	"github.com/abgdnv/menusync/internal/catalog"
	"github.com/abgdnv/menusync/internal/checkout"
	"github.com/abgdnv/menusync/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMirror is a catalog mirror the test replaces by hand.
type fakeMirror struct {
	mu       sync.Mutex
	products []catalog.Product
	loaded   bool
}

func (m *fakeMirror) Products() []catalog.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	return catalog.Clone(m.products)
}

func (m *fakeMirror) Loaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaded
}

func (m *fakeMirror) set(products ...catalog.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = products
	m.loaded = true
}

type memoryStorage struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memoryStorage) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[key]
	if !ok {
		return nil, cart.ErrNotFound
	}
	return data, nil
}

func (m *memoryStorage) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = data
	return nil
}

var (
	pastel  = catalog.Product{ID: "x1", Name: "Pastel", Price: 1000, Category: "Salgados", Available: true}
	coxinha = catalog.Product{ID: "x2", Name: "Coxinha", Price: 650, Category: "Salgados", Available: true}
	suco    = catalog.Product{ID: "x3", Name: "Suco", Price: 500, Category: "Bebidas", Available: true}
)

type fixture struct {
	mirror  *fakeMirror
	storage *memoryStorage
	relayed *bytes.Buffer
	session *Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &fixture{
		mirror:  &fakeMirror{},
		storage: &memoryStorage{data: make(map[string][]byte)},
		relayed: &bytes.Buffer{},
	}
	cartStore, err := cart.Open(context.Background(), f.storage, cart.DefaultKey, logger)
	require.NoError(t, err)
	co, err := checkout.New(config.CheckoutConfig{RelayPhone: "5511999999999"}, checkout.WriterSink{W: f.relayed}, logger)
	require.NoError(t, err)
	f.session = NewSession(f.mirror, cartStore, co, logger)
	return f
}

func pixRequest() checkout.Request {
	return checkout.Request{
		Customer: checkout.Customer{Name: "Ana", Address: "Rua A, 10", Phone: "79999990000", Neighborhood: "Olaria"},
		Payment:  checkout.Payment{Method: checkout.MethodPix},
	}
}

func Test_AddToCart(t *testing.T) {
	off := pastel
	off.Available = false

	testCases := []struct {
		name        string
		mirror      []catalog.Product
		notLoaded   bool
		id          string
		expectError error
		expectItems int
	}{
		{name: "Success - available product", mirror: []catalog.Product{pastel}, id: "x1", expectItems: 1},
		{name: "Error - unavailable product", mirror: []catalog.Product{off}, id: "x1", expectError: cart.ErrProductUnavailable},
		{name: "Error - unknown product", mirror: []catalog.Product{pastel}, id: "x9", expectError: ErrProductNotFound},
		{name: "Error - mirror not loaded", notLoaded: true, id: "x1", expectError: ErrCatalogNotReady},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			f := newFixture(t)
			if !tc.notLoaded {
				f.mirror.set(tc.mirror...)
			}

			// when
			err := f.session.AddToCart(context.Background(), tc.id)

			// then
			if tc.expectError != nil {
				require.ErrorIs(t, err, tc.expectError)
			} else {
				require.NoError(t, err)
			}
			assert.Len(t, f.session.Cart().Items(), tc.expectItems)
		})
	}
}

func Test_ToggleLeavesExistingCartItem(t *testing.T) {
	// given
	ctx := context.Background()
	f := newFixture(t)
	f.mirror.set(pastel, coxinha)
	require.NoError(t, f.session.AddToCart(ctx, "x1"))

	// when
	off := pastel
	off.Available = false
	f.mirror.set(off, coxinha)

	// then
	assert.ErrorIs(t, f.session.AddToCart(ctx, "x1"), cart.ErrProductUnavailable)
	assert.Equal(t, []cart.Item{{Product: pastel, Quantity: 1}}, f.session.Cart().Items())
}

func Test_Menu(t *testing.T) {
	f := newFixture(t)
	f.mirror.set(pastel, suco, coxinha)

	menu := f.session.Menu()

	require.Len(t, menu, 2)
	assert.Equal(t, "Salgados", menu[0].Name)
	assert.Equal(t, []catalog.Product{pastel, coxinha}, menu[0].Products)
	assert.Equal(t, "Bebidas", menu[1].Name)
}

func Test_Checkout(t *testing.T) {
	// given
	ctx := context.Background()
	f := newFixture(t)
	f.mirror.set(pastel, coxinha)
	require.NoError(t, f.session.AddToCart(ctx, "x1"))
	require.NoError(t, f.session.AddToCart(ctx, "x2"))

	// when
	order, relayURL, err := f.session.Checkout(ctx, pixRequest())

	// then
	require.NoError(t, err)
	assert.Equal(t, catalog.Price(1650), order.Subtotal)
	assert.Equal(t, catalog.Price(400), order.DeliveryFee)
	assert.Equal(t, catalog.Price(2050), order.Total)
	assert.Equal(t, relayURL+"\n", f.relayed.String())
	assert.Empty(t, f.session.Cart().Items())
}

func Test_Checkout_RefusesOutOfDateCart(t *testing.T) {
	// given
	ctx := context.Background()
	f := newFixture(t)
	f.mirror.set(pastel, coxinha)
	require.NoError(t, f.session.AddToCart(ctx, "x1"))
	repriced := pastel
	repriced.Price = 1100
	f.mirror.set(repriced)

	// when
	_, _, err := f.session.Checkout(ctx, pixRequest())

	// then
	require.ErrorIs(t, err, ErrCartOutOfDate)
	var outOfDate *OutOfDateError
	require.ErrorAs(t, err, &outOfDate)
	assert.Equal(t, []cart.Discrepancy{
		{Kind: cart.DiscrepancyPriceChanged, ID: "x1", Name: "Pastel", CartPrice: 1000, CatalogPrice: 1100},
	}, outOfDate.Discrepancies)
	assert.Contains(t, err.Error(), "price changed from 10.00 to 11.00")
	assert.Len(t, f.session.Cart().Items(), 1, "nothing is fixed behind the customer's back")
	assert.Zero(t, f.relayed.Len())
}

func Test_Checkout_InvalidRequestKeepsCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.mirror.set(pastel)
	require.NoError(t, f.session.AddToCart(ctx, "x1"))
	req := pixRequest()
	req.Customer.Address = ""

	_, _, err := f.session.Checkout(ctx, req)

	require.ErrorIs(t, err, checkout.ErrInvalidOrder)
	assert.Len(t, f.session.Cart().Items(), 1)
}
