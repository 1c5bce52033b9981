package memory

import (
	"maps"
	"sync"
)

// InMemoryStore is the per-run MemoryStore: a plain map with last-writer-wins
// semantics. No expiry, no capacity bound and no persistence; it is discarded
// with its run.
//
// Concurrency: protected by RWMutex so a store may be inspected by tools while
// a run is in flight.
type InMemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{values: make(map[string]string)}
}

// Set stores value under key, overwriting any previous value.
func (m *InMemoryStore) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

// Get returns the value for key or def when absent.
func (m *InMemoryStore) Get(key, def string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.values[key]; ok {
		return v
	}
	return def
}

// Snapshot returns a copy of all pairs.
func (m *InMemoryStore) Snapshot() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.values))
	maps.Copy(out, m.values)
	return out
}

// Len returns the number of keys held.
func (m *InMemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}
