package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps entries in process memory.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewMemoryStore creates a MemoryStore. Entries older than ttl are treated
// as missing; a zero ttl keeps them forever.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*Entry),
	}
}

// Get returns a copy of the entry stored under key.
func (s *MemoryStore) Get(_ context.Context, key string) (*Entry, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	if e.Expired(s.ttl, s.now()) {
		s.mu.Lock()
		if s.entries[key] == e {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, ErrNotFound
	}

	out := *e
	out.Header = e.Header.Clone()
	return &out, nil
}

// Put stores a copy of e.
func (s *MemoryStore) Put(_ context.Context, key string, e *Entry) error {
	stored := *e
	stored.Header = e.Header.Clone()
	if stored.StoredAt.IsZero() {
		stored.StoredAt = s.now()
	}

	s.mu.Lock()
	s.entries[key] = &stored
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
