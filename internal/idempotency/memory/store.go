package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dejobratic/foodorder/internal/orders/ports"
)

type entry struct {
	response ports.StoredResponse
	savedAt  time.Time
}

// Store retains checkout responses for replaying retried requests.
type Store struct {
	mu    sync.RWMutex
	ttl   time.Duration
	now   func() time.Time
	items map[string]entry
}

// NewStore creates an in-memory idempotency store. Entries older than ttl are
// ignored; a zero ttl keeps them forever.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]entry),
	}
}

// Get returns the stored response for a key, or nil when the key is unknown
// or expired.
func (s *Store) Get(_ context.Context, key string) (*ports.StoredResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.items[key]
	if !ok || s.expired(value) {
		return nil, nil
	}
	resp := value.response
	return &resp, nil
}

// Save keeps the first response recorded for a key until it expires.
func (s *Store) Save(_ context.Context, key string, response ports.StoredResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.items[key]; ok && !s.expired(existing) {
		return nil
	}
	s.items[key] = entry{response: response, savedAt: s.now()}
	return nil
}

func (s *Store) expired(e entry) bool {
	return s.ttl > 0 && s.now().Sub(e.savedAt) > s.ttl
}
