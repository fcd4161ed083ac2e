// Package snapshot provides ambient, best-effort persistence of a
// Scope's observed values — strictly for offline inspection and
// debugging, never consulted by the kernel's own state resolution
// path (C2 never reads through it).
package snapshot

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a scope has no persisted snapshot.
var ErrNotFound = errors.New("snapshot: not found")

// Snapshot is a point-in-time copy of a Scope's observed/serialized
// values (its idMap/sidMap pair).
type Snapshot struct {
	IDMap  map[string]any
	SIDMap map[string]any
}

// Store persists Snapshots keyed by scope identity and a monotonic
// per-scope sequence number. Implementations are written from a
// single drain goroutine but should not assume it: SaveSnapshot may
// be called concurrently by an inspector/fork combination the caller
// controls.
type Store interface {
	SaveSnapshot(ctx context.Context, scopeID string, seq int, snap Snapshot) error
	LoadLatest(ctx context.Context, scopeID string) (Snapshot, error)
}
