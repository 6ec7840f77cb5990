package cart

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_FileStorage_RoundTrip(t *testing.T) {
	// given
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "state")
	fs, err := NewFileStorage(dir)
	require.NoError(t, err)

	// when
	_, err = fs.Load(ctx, DefaultKey)
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, fs.Save(ctx, DefaultKey, []byte(`[1]`)))
	require.NoError(t, fs.Save(ctx, DefaultKey, []byte(`[2]`)))

	// then
	data, err := fs.Load(ctx, DefaultKey)
	require.NoError(t, err)
	assert.Equal(t, []byte(`[2]`), data)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files are cleaned up")
	assert.Equal(t, DefaultKey+".json", entries[0].Name())
}

func Test_FileStorage_RejectsPathKeys(t *testing.T) {
	fs, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", ".", "..", "../escape", `a\b`} {
		assert.Error(t, fs.Save(context.Background(), key, []byte(`[]`)), key)
	}
}

func Test_FileStorage_CartSurvivesRestart(t *testing.T) {
	// given
	ctx := context.Background()
	dir := t.TempDir()
	fs, err := NewFileStorage(dir)
	require.NoError(t, err)
	s := openStore(t, fs)
	require.NoError(t, s.Add(ctx, pastel))
	require.NoError(t, s.Add(ctx, pastel))

	// when
	reopened, err := NewFileStorage(dir)
	require.NoError(t, err)
	restored := openStore(t, reopened)

	// then
	assert.Equal(t, s.Items(), restored.Items())
}
