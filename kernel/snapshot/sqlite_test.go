package snapshot

import (
	"context"
	"testing"
)

func TestSQLiteStore_SaveAndLoadLatest(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	if err := s.SaveSnapshot(ctx, "scope-1", 1, Snapshot{IDMap: map[string]any{"a": float64(1)}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.SaveSnapshot(ctx, "scope-1", 2, Snapshot{IDMap: map[string]any{"a": float64(2)}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := s.LoadLatest(ctx, "scope-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.IDMap["a"] != float64(2) {
		t.Fatalf("expected latest snapshot, got %+v", got)
	}
}

func TestSQLiteStore_LoadLatestNotFound(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Close()

	if _, err := s.LoadLatest(context.Background(), "missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteStore_ClosedRejectsWrites(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.SaveSnapshot(context.Background(), "scope-1", 1, Snapshot{}); err == nil {
		t.Fatal("expected error saving to a closed store")
	}
}
