// Package sqlite persists terminal state in a local SQLite file.
package sqlite

import (
	"context"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/xenking/brew-pos/db"
)

// Open opens (creating if needed) the database at path and applies the
// schema.
func Open(ctx context.Context, path string) (*sqlx.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, errors.Wrap(err, "create database directory")
		}
	}

	conn, err := sqlx.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "ping sqlite")
	}
	if _, err := conn.ExecContext(ctx, db.Schema); err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "apply schema")
	}
	return conn, nil
}
