// Package sqlite stores the download history in SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

const memory = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS records (
	id           TEXT PRIMARY KEY,
	website      TEXT NOT NULL,
	series       TEXT NOT NULL DEFAULT '',
	chapter      TEXT NOT NULL,
	status       TEXT NOT NULL,
	reason       TEXT NOT NULL DEFAULT '',
	archive_path TEXT NOT NULL DEFAULT '',
	archive_hash TEXT NOT NULL DEFAULT '',
	created_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_records_series ON records(website, series);
CREATE INDEX IF NOT EXISTS idx_records_status ON records(status);
`

// DB is a history database file. The zero value is unusable; call NewDB
// and then Open.
type DB struct {
	db   *sql.DB
	path string
}

// NewDB returns a DB for path. ":memory:" keeps the history in memory.
func NewDB(path string) *DB {
	return &DB{path: path}
}

// Open connects to the database and migrates the schema.
func (db *DB) Open() error {
	conn, err := sql.Open("sqlite3", db.path)
	if err != nil {
		return fmt.Errorf("open history %s: %w", db.path, err)
	}
	// Chapter workers record concurrently; SQLite has a single writer.
	conn.SetMaxOpenConns(1)

	if err := db.init(conn); err != nil {
		conn.Close()
		return err
	}
	db.db = conn
	return nil
}

func (db *DB) init(conn *sql.DB) error {
	if err := conn.Ping(); err != nil {
		return fmt.Errorf("open history %s: %w", db.path, err)
	}

	// Two runs may share a history file.
	pragmas := []string{"PRAGMA busy_timeout = 5000"}
	if db.path != memory {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}

	if _, err := conn.Exec(schema); err != nil {
		return fmt.Errorf("migrate history: %w", err)
	}
	return nil
}

// Close closes the connection. It is safe to call on a DB that was never opened.
func (db *DB) Close() error {
	if db.db == nil {
		return nil
	}
	return db.db.Close()
}

func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.db.QueryRowContext(ctx, query, args...)
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.db.ExecContext(ctx, query, args...)
}
