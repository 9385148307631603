// Package tokenstore keeps the bearer token material of the current session.
package tokenstore

import "sync"

// Storage is a flat string key/value store holding session material.
// Implementations must keep reads infallible; only writes may fail.
type Storage interface {
	// Get returns the value stored under key.
	Get(key string) (string, bool)

	// Set stores value under key.
	Set(key, value string) error

	// Remove deletes the given keys. Missing keys are ignored.
	Remove(keys ...string) error
}

// MemoryStorage is a process-scoped Storage. Its contents are lost on exit.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

// Get implements Storage.
func (m *MemoryStorage) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

// Set implements Storage.
func (m *MemoryStorage) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Remove implements Storage.
func (m *MemoryStorage) Remove(keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}
