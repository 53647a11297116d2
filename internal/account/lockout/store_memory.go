package lockout

import (
	"context"
	"sync"
	"time"

	"agegate/pkg/requestcontext"
)

type memoryEntry struct {
	record    Record
	expiresAt time.Time
}

// InMemoryStore keeps lockout records in process memory with TTL pruning on
// access. Expiry follows the request clock so it stays in the same time
// domain as the service. Suited to single-node deployments and tests.
type InMemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

// NewInMemoryStore constructs an empty in-memory lockout store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		entries: make(map[string]memoryEntry),
	}
}

func (s *InMemoryStore) Get(ctx context.Context, key string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	if requestcontext.Now(ctx).After(entry.expiresAt) {
		delete(s.entries, key)
		return nil, nil
	}
	record := entry.record
	return &record, nil
}

func (s *InMemoryStore) Put(ctx context.Context, key string, record *Record, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = memoryEntry{
		record:    *record,
		expiresAt: requestcontext.Now(ctx).Add(ttl),
	}
	return nil
}

func (s *InMemoryStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}
