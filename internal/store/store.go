// Package store persists API keys, their encrypted Google tokens, pending
// OAuth states and the per-key list of authorized Drive files in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a record does not exist or has expired.
var ErrNotFound = errors.New("not found")

// Cipher encrypts token material before it is written to disk.
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

const schema = `
CREATE TABLE IF NOT EXISTS api_keys (
	api_key              TEXT PRIMARY KEY,
	google_access_token  TEXT NOT NULL,
	google_refresh_token TEXT NOT NULL DEFAULT '',
	token_type           TEXT NOT NULL DEFAULT '',
	token_expiry         INTEGER,
	scopes               TEXT NOT NULL,
	expires_at           INTEGER,
	created_at           INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS oauth_states (
	state      TEXT PRIMARY KEY,
	scopes     TEXT NOT NULL,
	expiration TEXT NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS authorized_files (
	api_key   TEXT NOT NULL,
	file_id   TEXT NOT NULL,
	file_name TEXT NOT NULL DEFAULT '',
	mime_type TEXT NOT NULL DEFAULT '',
	added_at  INTEGER NOT NULL,
	PRIMARY KEY (api_key, file_id)
);

CREATE INDEX IF NOT EXISTS idx_authorized_files_mime ON authorized_files(api_key, mime_type);
`

// Store is a SQLite-backed credential store. It is safe for concurrent use.
type Store struct {
	db     *sql.DB
	cipher Cipher
	now    func() time.Time
}

// Open opens (creating if needed) the database at path and applies the schema.
// The parent directory is created with 0700 permissions.
func Open(ctx context.Context, path string, cipher Cipher) (*Store, error) {
	if cipher == nil {
		return nil, errors.New("store: cipher is required")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}
	// SQLite serializes writers; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &Store{db: db, cipher: cipher, now: time.Now}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func unixOrNull(t *time.Time) sql.NullInt64 {
	if t == nil || t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

func timeOrNil(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := time.Unix(n.Int64, 0).UTC()
	return &t
}
