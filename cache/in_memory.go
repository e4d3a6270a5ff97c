package cache

import (
	"context"
	"sync"

	"github.com/hupe1980/modelgate/core"
)

// InMemoryStore is a trivial in-process Store implementation useful for tests,
// examples and single-process prototypes. It keeps all responses in a map
// guarded by an RWMutex. Responses are copied on save / retrieval to avoid
// accidental external mutation of cached entries.
//
// This implementation is intentionally minimal; it does not enforce retention
// limits, TTLs, or eviction. Production deployments typically use RedisStore
// or a custom Store backed by shared infrastructure.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[string]core.Response
}

// NewInMemoryStore returns an empty in-memory response store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[string]core.Response)}
}

// Get returns a copy of the cached response or ErrNotFound.
func (s *InMemoryStore) Get(_ context.Context, fingerprint, providerID string) (*core.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[storeKey(fingerprint, providerID)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := entry
	return &cp, nil
}

// Put stores (or overwrites) the response for the fingerprint / provider pair.
func (s *InMemoryStore) Put(_ context.Context, fingerprint, providerID string, resp *core.Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[storeKey(fingerprint, providerID)] = *resp
	return nil
}

// Len returns the number of cached entries.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

var _ Store = (*InMemoryStore)(nil)
