// Package store provides the SQLite-backed record store.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Supported database/sql driver names.
const (
	DriverCGO    = "sqlite3" // github.com/mattn/go-sqlite3
	DriverPureGo = "sqlite"  // modernc.org/sqlite
)

// schemaVersion is stored in PRAGMA user_version. A database carrying any
// other version has its records table dropped and recreated.
const schemaVersion = 2

const schemaSQL = `
CREATE TABLE IF NOT EXISTS records (
	id                    INTEGER PRIMARY KEY AUTOINCREMENT,
	title                 TEXT    NOT NULL,
	description           TEXT,
	count                 INTEGER NOT NULL DEFAULT 0,
	created_at            INTEGER NOT NULL,
	updated_at            INTEGER NOT NULL,
	timestamp             INTEGER NOT NULL,
	last_duration_seconds INTEGER,
	duration_source       TEXT
);

CREATE INDEX IF NOT EXISTS idx_records_timestamp ON records(timestamp);
CREATE INDEX IF NOT EXISTS idx_records_updated_at ON records(updated_at);
`

// DB wraps a sql.DB with record-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database at path using driver and applies the schema.
func Open(ctx context.Context, driver, path string, logger *slog.Logger) (*DB, error) {
	dsn, err := buildDSN(driver, path)
	if err != nil {
		return nil, err
	}
	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	// Single writer; SQLite serializes writes anyway.
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if err := migrate(ctx, conn, logger); err != nil {
		conn.Close()
		return nil, err
	}
	return &DB{conn: conn}, nil
}

func buildDSN(driver, path string) (string, error) {
	switch driver {
	case DriverCGO:
		return path + "?_journal_mode=WAL&_busy_timeout=5000", nil
	case DriverPureGo:
		return path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", nil
	default:
		return "", fmt.Errorf("store: unsupported driver %q", driver)
	}
}

// migrate applies the schema, recreating the records table when the stored
// version does not match. Local data is disposable.
func migrate(ctx context.Context, conn *sql.DB, logger *slog.Logger) error {
	var version int
	if err := conn.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("store: read schema version: %w", err)
	}
	if version != schemaVersion {
		var tables int
		if err := conn.QueryRowContext(ctx,
			`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'records'`).Scan(&tables); err != nil {
			return fmt.Errorf("store: inspect schema: %w", err)
		}
		if tables > 0 {
			logger.Warn("store: schema version mismatch, recreating records table",
				slog.Int("found", version), slog.Int("want", schemaVersion))
			if _, err := conn.ExecContext(ctx, `DROP TABLE records`); err != nil {
				return fmt.Errorf("store: drop records: %w", err)
			}
		}
	}
	if _, err := conn.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("store: apply schema: %w", err)
	}
	if _, err := conn.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d`, schemaVersion)); err != nil {
		return fmt.Errorf("store: write schema version: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks that the database is still reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}
