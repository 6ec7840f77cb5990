// Package probes maintains file-based readiness and liveness markers for exec probes
// (e.g. `test -f /tmp/storefront-ready`).
package probes

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/abgdnv/menusync/pkg/config"
)

type Probes struct {
	cfg    config.ProbesConfig
	logger *slog.Logger

	mu    sync.Mutex
	ready bool
}

func New(cfg config.ProbesConfig, logger *slog.Logger) *Probes {
	return &Probes{cfg: cfg, logger: logger.With("component", "probes")}
}

// SetReady creates the readiness file when ready is true and removes it otherwise.
// Repeated calls with the same value do not touch the filesystem.
func (p *Probes) SetReady(ready bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ready == ready {
		return nil
	}
	var err error
	if ready {
		err = touch(p.cfg.ReadinessFileName)
	} else {
		err = remove(p.cfg.ReadinessFileName)
	}
	if err != nil {
		return fmt.Errorf("failed to update readiness file: %w", err)
	}
	p.ready = ready
	p.logger.Debug("Readiness changed", "ready", ready)
	return nil
}

// RunLiveness touches the liveness file every LivenessInterval until ctx is done,
// then removes both marker files.
func (p *Probes) RunLiveness(ctx context.Context) error {
	if err := touch(p.cfg.LivenessFileName); err != nil {
		return fmt.Errorf("failed to create liveness file: %w", err)
	}
	ticker := time.NewTicker(p.cfg.LivenessInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			p.cleanup()
			return nil
		case <-ticker.C:
			if err := touch(p.cfg.LivenessFileName); err != nil {
				p.logger.Error("Failed to touch liveness file", "error", err)
			}
		}
	}
}

func (p *Probes) cleanup() {
	if err := remove(p.cfg.LivenessFileName); err != nil {
		p.logger.Warn("Failed to remove liveness file", "error", err)
	}
	if err := p.SetReady(false); err != nil {
		p.logger.Warn("Failed to remove readiness file", "error", err)
	}
}

func touch(name string) error {
	now := time.Now()
	if err := os.Chtimes(name, now, now); err == nil {
		return nil
	}
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	return f.Close()
}

func remove(name string) error {
	if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
