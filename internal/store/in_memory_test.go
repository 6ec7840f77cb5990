package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/abgdnv/menusync/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *inMemory {
	s := NewInMemoryStore().(*inMemory)
	s.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	return s
}

func Test_InMemory_Snapshot_Empty(t *testing.T) {
	s := newTestStore()

	snap, err := s.Snapshot(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, snap.Products)
	assert.Empty(t, snap.Products)
	assert.Equal(t, uint64(0), snap.Version)
}

func Test_InMemory_Replace(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	list := []catalog.Product{
		{ID: "x1", Name: "Pastel", Price: 1000, Available: true},
		{ID: "x2", Name: "Coxinha", Price: 650, Category: "Salgados"},
	}

	accepted, err := s.Replace(ctx, list)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), accepted.Version)
	assert.Equal(t, list, accepted.Products)
	assert.Equal(t, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), accepted.UpdatedAt)

	// the caller's slice is not retained
	list[0].Name = "mutated"
	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Pastel", snap.Products[0].Name)

	// nor is the returned one
	snap.Products[1].Price = 1
	again, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, catalog.Price(650), again.Products[1].Price)

	// an empty replacement empties the catalog
	emptied, err := s.Replace(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), emptied.Version)
	assert.Equal(t, []catalog.Product{}, emptied.Products)
}

func Test_InMemory_CompareAndReplace(t *testing.T) {
	ctx := context.Background()
	testCases := []struct {
		name        string
		expected    uint64
		expectError error
	}{
		{name: "Success - version matches", expected: 1},
		{name: "Error - stale version", expected: 0, expectError: ErrVersionConflict},
		{name: "Error - future version", expected: 5, expectError: ErrVersionConflict},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			s := newTestStore()
			_, err := s.Replace(ctx, []catalog.Product{{ID: "a", Name: "A"}})
			require.NoError(t, err)

			// when
			snap, err := s.CompareAndReplace(ctx, tc.expected, []catalog.Product{{ID: "b", Name: "B"}})

			// then
			current, _ := s.Snapshot(ctx)
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Equal(t, uint64(1), current.Version)
				assert.Equal(t, "a", current.Products[0].ID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, uint64(2), snap.Version)
			assert.Equal(t, current, snap)
		})
	}
}

// Every reader observes one of the replaced lists in full, never a mix.
func Test_InMemory_ConcurrentReadersSeeWholeSnapshots(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	lists := make([][]catalog.Product, 10)
	for i := range lists {
		for j := 0; j < 20; j++ {
			lists[i] = append(lists[i], catalog.Product{ID: fmt.Sprintf("p%d", j), Name: fmt.Sprintf("gen%d", i)})
		}
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for _, l := range lists {
			_, _ = s.Replace(ctx, l)
		}
	}()
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				snap, err := s.Snapshot(ctx)
				assert.NoError(t, err)
				if len(snap.Products) == 0 {
					continue
				}
				assert.Len(t, snap.Products, 20)
				for _, p := range snap.Products {
					assert.Equal(t, snap.Products[0].Name, p.Name)
				}
			}
		}()
	}
	wg.Wait()
}
