package main

import (
	"bytes"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/abgdnv/menusync/internal/cart"
	"github.com/abgdnv/menusync/internal/catalog"
	"github.com/abgdnv/menusync/internal/checkout"
	"github.com/abgdnv/menusync/internal/syncclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_parseCheckoutRequest(t *testing.T) {
	testCases := []struct {
		name        string
		args        []string
		expected    checkout.Request
		expectError bool
	}{
		{
			name: "Success - cash with change",
			args: []string{"-name", "Ana", "-address", "Rua A, 1", "-phone", "11999", "-neighborhood", "Jardins", "-method", "CASH", "-changefor", "50"},
			expected: checkout.Request{
				Customer: checkout.Customer{Name: "Ana", Address: "Rua A, 1", Phone: "11999", Neighborhood: "Jardins"},
				Payment:  checkout.Payment{Method: checkout.MethodCash, ChangeFor: 5000},
			},
		},
		{
			name: "Success - card",
			args: []string{"-method", "credit", "-brand", "visa", "-note", "no onions"},
			expected: checkout.Request{
				Payment: checkout.Payment{Method: checkout.MethodCredit, CardBrand: "visa"},
				Note:    "no onions",
			},
		},
		{name: "Error - bad change amount", args: []string{"-method", "cash", "-changefor", "lots"}, expectError: true},
		{name: "Error - unknown flag", args: []string{"-coupon", "FREE"}, expectError: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			req, err := parseCheckoutRequest(tc.args)
			// then
			if tc.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, req)
		})
	}
}

func Test_printMenu(t *testing.T) {
	// given
	categories := catalog.GroupByCategory([]catalog.Product{
		{ID: "x1", Name: "Coxinha", Price: 650, Category: "Salgados", Available: true},
		{ID: "x2", Name: "Pastel", Price: 800, Category: "Salgados"},
	})
	var out bytes.Buffer
	// when
	printMenu(&out, categories)
	// then
	assert.Contains(t, out.String(), "[Salgados]")
	assert.Contains(t, out.String(), "R$ 6.50")
	assert.Contains(t, out.String(), "unavailable")
}

func Test_printCart(t *testing.T) {
	t.Run("Success - empty", func(t *testing.T) {
		var out bytes.Buffer
		printCart(&out, nil, nil)
		assert.Equal(t, "The cart is empty.\n", out.String())
	})

	t.Run("Success - with discrepancies", func(t *testing.T) {
		// given
		items := []cart.Item{{Product: catalog.Product{ID: "x1", Name: "Coxinha", Price: 650}, Quantity: 2}}
		discrepancies := cart.Reconcile(items, []catalog.Product{{ID: "x1", Name: "Coxinha", Price: 700, Available: true}})
		var out bytes.Buffer
		// when
		printCart(&out, items, discrepancies)
		// then
		assert.Contains(t, out.String(), "R$ 13.00")
		assert.Contains(t, out.String(), "price changed from 6.50 to 7.00")
	})
}

// overlapWriter collects output and counts writes that started while another was in progress.
type overlapWriter struct {
	active   atomic.Int32
	overlaps atomic.Int32
	mu       sync.Mutex
	buf      bytes.Buffer
}

func (w *overlapWriter) Write(p []byte) (int, error) {
	if w.active.Add(1) > 1 {
		w.overlaps.Add(1)
	}
	defer w.active.Add(-1)
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

func Test_onUpdate_PrintsWholeBlocks(t *testing.T) {
	// given
	products := []catalog.Product{
		{ID: "x1", Name: "Coxinha", Price: 650, Category: "Salgados", Available: true},
		{ID: "x2", Name: "Suco", Price: 700, Category: "Bebidas", Available: true},
	}
	var menu bytes.Buffer
	printMenu(&menu, catalog.GroupByCategory(products))
	out := &overlapWriter{}
	a := &app{watching: true, out: out}

	// when
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		source := syncclient.SourceFetch
		if i%2 == 1 {
			source = syncclient.SourcePush
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.onUpdate(products, source)
		}()
	}
	wg.Wait()

	// then
	assert.Zero(t, out.overlaps.Load())
	blocks := strings.SplitAfter(out.buf.String(), menu.String())
	require.Len(t, blocks, 17)
	assert.Empty(t, blocks[16])
	counts := map[string]int{}
	for _, block := range blocks[:16] {
		header, body, ok := strings.Cut(block, "\n")
		require.True(t, ok)
		assert.Equal(t, menu.String(), body)
		counts[header]++
	}
	assert.Equal(t, map[string]int{
		"--- catalog updated (fetch) ---": 8,
		"--- catalog updated (push) ---":  8,
	}, counts)
}
