package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS render_cache (
	key TEXT PRIMARY KEY,
	status INTEGER NOT NULL,
	content_type TEXT NOT NULL,
	header TEXT NOT NULL DEFAULT '',
	body BLOB NOT NULL,
	stored_at INTEGER NOT NULL
);
`

// SQLiteStore keeps entries in a SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	ttl time.Duration
}

// OpenSQLite opens (creating if needed) the database at path and prepares
// the cache table. Use ":memory:" for a throwaway database.
func OpenSQLite(path string, ttl time.Duration) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("cache: open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: ping database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, ttl: ttl}, nil
}

// Get reads the entry stored under key.
func (s *SQLiteStore) Get(ctx context.Context, key string) (*Entry, error) {
	query := `SELECT status, content_type, header, body, stored_at FROM render_cache WHERE key = ?`

	var e Entry
	var header string
	var storedAt int64
	err := s.db.QueryRowContext(ctx, query, key).Scan(&e.Status, &e.ContentType, &header, &e.Body, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cache: sqlite get: %w", err)
	}

	if header != "" {
		if err := json.Unmarshal([]byte(header), &e.Header); err != nil {
			return nil, fmt.Errorf("cache: sqlite header: %w", err)
		}
	}
	e.StoredAt = time.Unix(0, storedAt)
	if e.Expired(s.ttl, time.Now()) {
		return nil, ErrNotFound
	}
	return &e, nil
}

// Put writes e under key.
func (s *SQLiteStore) Put(ctx context.Context, key string, e *Entry) error {
	storedAt := e.StoredAt
	if storedAt.IsZero() {
		storedAt = time.Now()
	}

	var header string
	if len(e.Header) > 0 {
		h, err := json.Marshal(e.Header)
		if err != nil {
			return fmt.Errorf("cache: sqlite header: %w", err)
		}
		header = string(h)
	}

	query := `
		INSERT INTO render_cache (key, status, content_type, header, body, stored_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			status = excluded.status,
			content_type = excluded.content_type,
			header = excluded.header,
			body = excluded.body,
			stored_at = excluded.stored_at
	`
	if _, err := s.db.ExecContext(ctx, query, key, e.Status, e.ContentType, header, e.Body, storedAt.UnixNano()); err != nil {
		return fmt.Errorf("cache: sqlite put: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
