package dataset

import (
	"context"

	"bikedash/internal/core"
)

// Ports for dataset sources and consumers.
type (
	// Loader reads a complete snapshot of both tables from its source.
	Loader interface {
		Load(ctx context.Context) (*core.Snapshot, error)
	}

	// SnapshotReader exposes the snapshot currently served.
	SnapshotReader interface {
		// Current returns nil until a snapshot has been loaded.
		Current() *core.Snapshot
	}

	// Reloader replaces the served snapshot with a fresh load.
	Reloader interface {
		Reload(ctx context.Context) error
	}
)
