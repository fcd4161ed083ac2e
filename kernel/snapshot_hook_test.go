package kernel

import (
	"context"
	"testing"

	"github.com/movpushmov/effector/kernel/snapshot"
)

type recordingStore struct {
	saves []snapshot.Snapshot
	seqs  []int
}

func (s *recordingStore) SaveSnapshot(_ context.Context, _ string, seq int, snap snapshot.Snapshot) error {
	s.saves = append(s.saves, snap)
	s.seqs = append(s.seqs, seq)
	return nil
}

func (s *recordingStore) LoadLatest(context.Context, string) (snapshot.Snapshot, error) {
	if len(s.saves) == 0 {
		return snapshot.Snapshot{}, snapshot.ErrNotFound
	}
	return s.saves[len(s.saves)-1], nil
}

func TestSnapshotHook_NilReceiverAndNilScopeAreNoOps(t *testing.T) {
	var h *snapshotHook
	h.onActivation(context.Background(), nil)

	store := &recordingStore{}
	h2 := newSnapshotHook(store, 1)
	h2.onActivation(context.Background(), nil)

	if len(store.saves) != 0 {
		t.Fatal("expected a nil scope to never trigger a save")
	}
}

func TestSnapshotHook_SavesEveryNthActivation(t *testing.T) {
	store := &recordingStore{}
	h := newSnapshotHook(store, 3)
	scope := NewScope(ScopeValues{IDMap: map[string]any{"x": 1}}, false)

	for i := 0; i < 5; i++ {
		h.onActivation(context.Background(), scope)
	}

	if len(store.saves) != 1 {
		t.Fatalf("expected exactly 1 save after 5 activations at every=3, got %d", len(store.saves))
	}
	if store.seqs[0] != 3 {
		t.Fatalf("expected the save to fire on the 3rd activation, got seq %d", store.seqs[0])
	}
}

func TestSnapshotHook_NonPositiveEveryDefaultsToOne(t *testing.T) {
	store := &recordingStore{}
	h := newSnapshotHook(store, 0)
	scope := NewScope(ScopeValues{}, false)

	h.onActivation(context.Background(), scope)
	h.onActivation(context.Background(), scope)

	if len(store.saves) != 2 {
		t.Fatalf("expected a save on every activation when every<=0, got %d", len(store.saves))
	}
}

func TestSnapshotHook_CopiesValuesRatherThanAliasing(t *testing.T) {
	store := &recordingStore{}
	h := newSnapshotHook(store, 1)
	scope := NewScope(ScopeValues{IDMap: map[string]any{"x": 1}}, false)

	h.onActivation(context.Background(), scope)
	scope.Values.IDMap["x"] = 2

	if store.saves[0].IDMap["x"] != 1 {
		t.Fatalf("expected the snapshot to be an independent copy, got %v", store.saves[0].IDMap["x"])
	}
}

func TestScopeID_IsStableAndDistinctPerScope(t *testing.T) {
	a := NewScope(ScopeValues{}, false)
	b := NewScope(ScopeValues{}, false)

	if scopeID(a) != scopeID(a) {
		t.Fatal("expected scopeID to be stable across calls for the same scope")
	}
	if scopeID(a) == scopeID(b) {
		t.Fatal("expected distinct scopes to produce distinct identities")
	}
}
