package probes

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/abgdnv/menusync/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProbes(t *testing.T) (*Probes, config.ProbesConfig) {
	dir := t.TempDir()
	cfg := config.ProbesConfig{
		ReadinessFileName: filepath.Join(dir, "ready"),
		LivenessFileName:  filepath.Join(dir, "live"),
		LivenessInterval:  10 * time.Millisecond,
	}
	return New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil))), cfg
}

func TestProbes_SetReady(t *testing.T) {
	p, cfg := newTestProbes(t)

	require.NoError(t, p.SetReady(true))
	assert.FileExists(t, cfg.ReadinessFileName)

	require.NoError(t, p.SetReady(true))
	assert.FileExists(t, cfg.ReadinessFileName)

	require.NoError(t, p.SetReady(false))
	assert.NoFileExists(t, cfg.ReadinessFileName)
}

func TestProbes_RunLiveness(t *testing.T) {
	p, cfg := newTestProbes(t)
	require.NoError(t, p.SetReady(true))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.RunLiveness(ctx) }()

	require.Eventually(t, func() bool {
		_, err := os.Stat(cfg.LivenessFileName)
		return err == nil
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.NoFileExists(t, cfg.LivenessFileName)
	assert.NoFileExists(t, cfg.ReadinessFileName)
}
