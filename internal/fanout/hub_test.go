package fanout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/abgdnv/menusync/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn records delivered frames; failing connections reject every send.
type fakeConn struct {
	id      string
	failing bool

	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing || c.closed {
		return errors.New("broken pipe")
	}
	c.frames = append(c.frames, frame)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) received() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames
}

func newTestHub() *Hub {
	return NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

var testProducts = []catalog.Product{
	{ID: "x1", Name: "Pastel", Price: 1000, Available: true},
	{ID: "x2", Name: "Suco", Price: 700, Category: "Bebidas"},
}

func TestHub_Broadcast_Completeness(t *testing.T) {
	ctx := context.Background()
	hub := newTestHub()
	conns := make([]*fakeConn, 5)
	for i := range conns {
		conns[i] = &fakeConn{id: fmt.Sprintf("c%d", i)}
		hub.Register(ctx, conns[i])
	}

	res, err := hub.Broadcast(ctx, testProducts)

	require.NoError(t, err)
	assert.Equal(t, Result{Delivered: 5}, res)
	for _, c := range conns {
		frames := c.received()
		require.Len(t, frames, 1)
		msg, err := DecodeMessage(frames[0])
		require.NoError(t, err)
		assert.Equal(t, TypeProductsUpdated, msg.Type)
		assert.Equal(t, testProducts, msg.Data)
	}
}

func TestHub_Broadcast_FaultIsolation(t *testing.T) {
	ctx := context.Background()
	hub := newTestHub()
	conns := make([]*fakeConn, 5)
	for i := range conns {
		conns[i] = &fakeConn{id: fmt.Sprintf("c%d", i), failing: i == 2}
		hub.Register(ctx, conns[i])
	}

	res, err := hub.Broadcast(ctx, testProducts)

	require.NoError(t, err)
	assert.Equal(t, Result{Delivered: 4, Failed: 1}, res)
	for i, c := range conns {
		if i == 2 {
			assert.Empty(t, c.received())
			assert.True(t, c.closed)
			continue
		}
		assert.Len(t, c.received(), 1)
	}
	assert.Equal(t, 4, hub.Len())

	// the broken connection is gone for the next broadcast
	res, err = hub.Broadcast(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, Result{Delivered: 4}, res)
}

func TestHub_RegisterUnregister(t *testing.T) {
	ctx := context.Background()
	hub := newTestHub()
	first := &fakeConn{id: "a"}
	hub.Register(ctx, first)
	hub.Register(ctx, &fakeConn{id: "b"})
	require.Equal(t, 2, hub.Len())

	// same id replaces and closes the previous connection
	second := &fakeConn{id: "a"}
	hub.Register(ctx, second)
	assert.Equal(t, 2, hub.Len())
	assert.True(t, first.closed)

	assert.True(t, hub.Unregister(ctx, second))
	assert.False(t, hub.Unregister(ctx, second))
	assert.False(t, second.closed, "Unregister does not close")
	assert.Equal(t, 1, hub.Len())

	hub.CloseAll(ctx)
	assert.Equal(t, 0, hub.Len())
}

func TestHub_Unregister_KeepsReplacement(t *testing.T) {
	// given
	ctx := context.Background()
	hub := newTestHub()
	evicted := &fakeConn{id: "a"}
	replacement := &fakeConn{id: "a"}
	hub.Register(ctx, evicted)
	hub.Register(ctx, replacement)

	// when
	removed := hub.Unregister(ctx, evicted)

	// then
	assert.False(t, removed)
	assert.Equal(t, 1, hub.Len())
	res, err := hub.Broadcast(ctx, testProducts)
	require.NoError(t, err)
	assert.Equal(t, Result{Delivered: 1}, res)
	assert.Len(t, replacement.received(), 1)
	assert.Empty(t, evicted.received())
}

func TestHub_Broadcast_NoConnections(t *testing.T) {
	res, err := newTestHub().Broadcast(context.Background(), testProducts)

	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
}
