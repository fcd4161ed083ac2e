package snapshot

import (
	"context"
	"fmt"
	"os"
	"testing"
)

// TestMySQLIntegration exercises a full SaveSnapshot/LoadLatest cycle
// across several scopes and sequence numbers against a real MySQL
// server. Run with:
//
//	export TEST_MYSQL_DSN="user:password@tcp(localhost:3306)/test_db?parseTime=true"
//	go test -run TestMySQLIntegration ./kernel/snapshot
func TestMySQLIntegration(t *testing.T) {
	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("skipping MySQL integration test: set TEST_MYSQL_DSN to run")
	}

	s, err := NewMySQLStore(dsn)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	for scope := 0; scope < 3; scope++ {
		scopeID := fmt.Sprintf("integration-scope-%d", scope)
		for seq := 1; seq <= 5; seq++ {
			snap := Snapshot{IDMap: map[string]any{"seq": float64(seq)}}
			if err := s.SaveSnapshot(ctx, scopeID, seq, snap); err != nil {
				t.Fatalf("save scope %s seq %d: %v", scopeID, seq, err)
			}
		}
	}

	for scope := 0; scope < 3; scope++ {
		scopeID := fmt.Sprintf("integration-scope-%d", scope)
		got, err := s.LoadLatest(ctx, scopeID)
		if err != nil {
			t.Fatalf("load scope %s: %v", scopeID, err)
		}
		if got.IDMap["seq"] != float64(5) {
			t.Fatalf("scope %s: expected latest seq 5, got %+v", scopeID, got)
		}
	}
}
