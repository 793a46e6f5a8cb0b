package cache

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// ErrNotFound is returned by Get when no entry is stored under a key.
var ErrNotFound = errors.New("cache: entry not found")

// Store is the interface for render cache backends.
type Store interface {
	// Get returns the entry stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) (*Entry, error)

	// Put stores e under key, replacing any previous entry.
	Put(ctx context.Context, key string, e *Entry) error
}

// Entry is a rendered response.
type Entry struct {
	// Status is the HTTP status the page set.
	Status int

	// ContentType is the response Content-Type header.
	ContentType string

	// Header holds the other response headers the page set.
	Header http.Header

	// Body is the serialized document.
	Body []byte

	// StoredAt is when the entry was written.
	StoredAt time.Time
}

// Expired reports whether e is older than ttl. A zero ttl never expires.
func (e *Entry) Expired(ttl time.Duration, now time.Time) bool {
	return ttl > 0 && now.Sub(e.StoredAt) > ttl
}

// Key derives the cache key for a request: the method plus the request URI.
func Key(r *http.Request) string {
	return r.Method + " " + r.URL.RequestURI()
}
