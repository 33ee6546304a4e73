package systems

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLiteStore keeps flags in the system_flags table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore expects db to be migrated already.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Flags(ctx context.Context, owner string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT system_id, unlocked FROM system_flags WHERE owner = ?`, owner)
	if err != nil {
		return nil, fmt.Errorf("query flags: %w", err)
	}
	defer rows.Close()

	flags := make(map[string]bool)
	for rows.Next() {
		var id string
		var unlocked bool
		if err := rows.Scan(&id, &unlocked); err != nil {
			return nil, fmt.Errorf("scan flag: %w", err)
		}
		flags[id] = unlocked
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read flags: %w", err)
	}
	return flags, nil
}

func (s *SQLiteStore) SetFlag(ctx context.Context, owner, systemID string, unlocked bool) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO system_flags (owner, system_id, unlocked, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (owner, system_id) DO UPDATE SET
			unlocked = excluded.unlocked,
			updated_at = excluded.updated_at
	`, owner, systemID, unlocked, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save flag %s: %w", systemID, err)
	}
	return nil
}

// UnlockCounts returns, per system, how many visitors currently have it
// explicitly unlocked.
func (s *SQLiteStore) UnlockCounts(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT system_id, COUNT(*) FROM system_flags
		WHERE unlocked = 1
		GROUP BY system_id
	`)
	if err != nil {
		return nil, fmt.Errorf("query unlock counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var id string
		var n int64
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan unlock count: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}
