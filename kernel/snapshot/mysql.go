package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore persists Snapshots in a single table keyed by
// (scope_id, seq), using a JSON column for the Snapshot payload — for
// sharing debug snapshots across processes/machines, not for anything
// the kernel's own drain path depends on.
type MySQLStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewMySQLStore opens a connection pool against dsn and ensures the
// snapshot table exists. dsn follows the go-sql-driver/mysql format,
// e.g. "user:pass@tcp(localhost:3306)/dbname?parseTime=true".
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open mysql: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("snapshot: ping mysql: %w", err)
	}

	s := &MySQLStore{db: db}
	if err := s.createTable(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (m *MySQLStore) createTable(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS kernel_snapshots (
			scope_id VARCHAR(255) NOT NULL,
			seq INT NOT NULL,
			snapshot JSON NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (scope_id, seq)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci
	`
	if _, err := m.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("snapshot: create table: %w", err)
	}
	return nil
}

func (m *MySQLStore) SaveSnapshot(ctx context.Context, scopeID string, seq int, snap Snapshot) error {
	m.mu.RLock()
	closed := m.closed
	m.mu.RUnlock()
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
		ON DUPLICATE KEY UPDATE snapshot = VALUES(snapshot)
	`
	if _, err := m.db.ExecContext(ctx, query, scopeID, seq, string(blob)); err != nil {
		return fmt.Errorf("snapshot: save: %w", err)
	}
	return nil
}

func (m *MySQLStore) LoadLatest(ctx context.Context, scopeID string) (Snapshot, error) {
	m.mu.RLock()
	closed := m.closed
	m.mu.RUnlock()
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
	err := m.db.QueryRowContext(ctx, query, scopeID).Scan(&blob)
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

// Close releases the underlying connection pool.
func (m *MySQLStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	return m.db.Close()
}
