package storefront

import (
	"context"
	"testing"

	"github.com/abgdnv/menusync/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_MirrorCache(t *testing.T) {
	// given
	ctx := context.Background()
	storage := &memoryStorage{data: make(map[string][]byte)}
	cache := NewMirrorCache(storage)

	// when
	_, ok, err := cache.LoadMirror(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, cache.SaveMirror(ctx, []catalog.Product{pastel, coxinha}))

	// then
	products, ok, err := cache.LoadMirror(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []catalog.Product{pastel, coxinha}, products)
	assert.Contains(t, storage.data, MirrorKey)
}

func Test_MirrorCache_Corrupt(t *testing.T) {
	storage := &memoryStorage{data: map[string][]byte{MirrorKey: []byte("{")}}

	_, ok, err := NewMirrorCache(storage).LoadMirror(context.Background())

	assert.Error(t, err)
	assert.False(t, ok)
}
