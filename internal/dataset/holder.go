package dataset

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"bikedash/internal/core"
	applog "bikedash/internal/log"
)

// Holder serves the latest successfully loaded snapshot. Readers get a
// shared pointer they must treat as read-only; reloads swap it atomically.
type Holder struct {
	loader  Loader
	current atomic.Pointer[core.Snapshot]
	version atomic.Uint64

	mu      sync.Mutex // serializes reloads
	lastErr error
}

func NewHolder(loader Loader) *Holder {
	return &Holder{loader: loader}
}

// Current returns the served snapshot, or nil before the first load.
func (h *Holder) Current() *core.Snapshot {
	return h.current.Load()
}

// Ready reports whether a snapshot is being served.
func (h *Holder) Ready() bool {
	return h.current.Load() != nil
}

// Reload loads a new snapshot and publishes it. On failure the previous
// snapshot keeps being served and the error is returned.
func (h *Holder) Reload(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	snap, err := h.loader.Load(ctx)
	if err != nil {
		h.lastErr = err
		return fmt.Errorf("load snapshot: %w", err)
	}
	if snap == nil {
		h.lastErr = fmt.Errorf("loader returned no snapshot")
		return h.lastErr
	}

	snap.Version = h.version.Add(1)
	if snap.LoadedAt.IsZero() {
		snap.LoadedAt = time.Now()
	}
	h.current.Store(snap)
	h.lastErr = nil

	applog.NewStructuredLogger(applog.FromContext(ctx).WithComponent(applog.ComponentDataset)).
		LogSnapshotLoaded(ctx, snap.Source, snap.Version, len(snap.Daily), len(snap.Hourly))
	return nil
}

// LastError returns the error of the most recent reload, nil if it succeeded.
func (h *Holder) LastError() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastErr
}
