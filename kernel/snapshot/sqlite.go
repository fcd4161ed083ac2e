package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists Snapshots in a single table keyed by
// (scope_id, seq), using a JSON blob column for the Snapshot payload —
// zero-setup persistence for local inspection and debugging.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore opens (creating if necessary) a SQLite database at
// path and ensures its schema exists. path may be ":memory:" for a
// throwaway store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("snapshot: enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("snapshot: set busy timeout: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.createTable(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) createTable(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS kernel_snapshots (
			scope_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			snapshot TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (scope_id, seq)
		)
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("snapshot: create table: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SaveSnapshot(ctx context.Context, scopeID string, seq int, snap Snapshot) error {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return fmt.Errorf("snapshot: store is closed")
	}

	blob, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("snapshot: marshal: %w", err)
	}

	const query = `
		INSERT INTO kernel_snapshots (scope_id, seq, snapshot)
		VALUES (?, ?, ?)
		ON CONFLICT(scope_id, seq) DO UPDATE SET snapshot = excluded.snapshot
	`
	if _, err := s.db.ExecContext(ctx, query, scopeID, seq, string(blob)); err != nil {
		return fmt.Errorf("snapshot: save: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LoadLatest(ctx context.Context, scopeID string) (Snapshot, error) {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return Snapshot{}, fmt.Errorf("snapshot: store is closed")
	}

	const query = `
		SELECT snapshot FROM kernel_snapshots
		WHERE scope_id = ?
		ORDER BY seq DESC
		LIMIT 1
	`
	var blob string
	err := s.db.QueryRowContext(ctx, query, scopeID).Scan(&blob)
	if err == sql.ErrNoRows {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: load: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(blob), &snap); err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: unmarshal: %w", err)
	}
	return snap, nil
}

// Close releases the underlying database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
