// Package storage opens the site's SQLite database and keeps its schema current.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	_ "modernc.org/sqlite"
)

// Open opens (creating if needed) the SQLite database at path and migrates it.
// ":memory:" gives a private in-memory database.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("storage: empty database path")
	}
	dsn := path
	if !strings.Contains(dsn, "?") {
		// Store times in SQLite's own format so date comparisons work in SQL.
		dsn += "?_time_format=sqlite"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if strings.HasPrefix(path, ":memory:") {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates missing tables and columns. It is safe to run repeatedly.
func Migrate(ctx context.Context, db *sql.DB) error {
	createVisitorTable := `
	CREATE TABLE IF NOT EXISTS visitors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		hashed_ip TEXT NOT NULL,  -- never the raw address
		user_agent TEXT,
		path TEXT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := db.ExecContext(ctx, createVisitorTable); err != nil {
		return fmt.Errorf("create visitors table: %w", err)
	}

	createFlagTable := `
	CREATE TABLE IF NOT EXISTS system_flags (
		owner TEXT NOT NULL,
		system_id TEXT NOT NULL,
		unlocked INTEGER NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (owner, system_id)
	)`
	if _, err := db.ExecContext(ctx, createFlagTable); err != nil {
		return fmt.Errorf("create system_flags table: %w", err)
	}

	// Columns added after the first release.
	if err := ensureColumn(ctx, db, "visitors", "country", "TEXT"); err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS visitors_timestamp ON visitors (timestamp)`); err != nil {
		return fmt.Errorf("create visitors index: %w", err)
	}
	return nil
}

func ensureColumn(ctx context.Context, db *sql.DB, table, column, decl string) error {
	var exists int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, table, column,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("inspect %s.%s: %w", table, column, err)
	}
	if exists > 0 {
		return nil
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, table, column, decl)); err != nil {
		return fmt.Errorf("add column %s.%s: %w", table, column, err)
	}
	log.Printf("Migrated %s: added column %s", table, column)
	return nil
}
