package history

import (
	"context"
	"sync"
	"time"
)

// Compile-time assertion that MemStore satisfies the Store interface.
var _ Store = (*MemStore)(nil)

// MemStore is a thread-safe, in-memory implementation of [Store].
// History lives only for the process lifetime; use [PostgresStore] when
// the embedding application wants persistence across restarts.
type MemStore struct {
	ttl time.Duration

	mu   sync.Mutex
	seen map[string]time.Time
}

// NewMemStore returns an initialised [MemStore] with the given TTL.
func NewMemStore(ttl time.Duration) *MemStore {
	return &MemStore{
		ttl:  ttl,
		seen: make(map[string]time.Time),
	}
}

// Seen implements [Store.Seen]. An entry exactly at the TTL boundary still
// counts as seen; it expires strictly after the TTL has passed.
func (s *MemStore) Seen(ctx context.Context, id string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	at, ok := s.seen[id]
	if !ok {
		return false, nil
	}
	if now.Sub(at) > s.ttl {
		delete(s.seen, id)
		return false, nil
	}
	return true, nil
}

// Record implements [Store.Record].
func (s *MemStore) Record(ctx context.Context, id string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen[id] = now
	return nil
}

// PurgeExpired implements [Store.PurgeExpired].
func (s *MemStore) PurgeExpired(ctx context.Context, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, at := range s.seen {
		if now.Sub(at) > s.ttl {
			delete(s.seen, id)
		}
	}
	return nil
}

// Len returns the number of live entries. Intended for tests and metrics.
func (s *MemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}
