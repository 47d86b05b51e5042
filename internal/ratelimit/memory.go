package ratelimit

import "sync"

// MemoryStore implements Store with a mutex-guarded map.
//
// Writes are last-writer-wins: a newer snapshot replaces the previous one
// wholesale, fields are never merged across responses.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]Snapshot
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: make(map[string]Snapshot)}
}

// Get returns the latest snapshot recorded for endpoint.
func (m *MemoryStore) Get(endpoint string) (Snapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.snapshots[endpoint]
	return s, ok
}

// Set records s as the latest snapshot for endpoint.
func (m *MemoryStore) Set(endpoint string, s Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[endpoint] = s
}
