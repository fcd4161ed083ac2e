package kernel

import (
	"context"
	"fmt"

	"github.com/movpushmov/effector/kernel/snapshot"
)

// snapshotHook wires an optional ambient snapshot.Store into the
// drain loop (A4): every `every` completed activations under a given
// Scope, a copy of that scope's observed/serialized values is
// persisted — off the kernel's read/write path, purely for offline
// inspection.
type snapshotHook struct {
	store snapshot.Store
	every int
	seq   map[*Scope]int
}

func newSnapshotHook(store snapshot.Store, every int) *snapshotHook {
	if every <= 0 {
		every = 1
	}
	return &snapshotHook{store: store, every: every, seq: make(map[*Scope]int)}
}

// onActivation records one activation against scope, flushing a
// snapshot once every h.every calls. A nil receiver or nil scope is a
// no-op, so callers never need to guard the call site.
func (h *snapshotHook) onActivation(ctx context.Context, scope *Scope) {
	if h == nil || scope == nil {
		return
	}
	h.seq[scope]++
	if h.seq[scope]%h.every != 0 {
		return
	}

	snap := snapshot.Snapshot{
		IDMap:  copyValueMap(scope.Values.IDMap),
		SIDMap: copyValueMap(scope.Values.SIDMap),
	}
	_ = h.store.SaveSnapshot(ctx, scopeID(scope), h.seq[scope], snap)
}

func scopeID(scope *Scope) string {
	return fmt.Sprintf("scope-%p", scope)
}

func copyValueMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
