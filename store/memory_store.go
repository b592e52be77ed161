package store

import (
	"fmt"
	"sync"
)

// MemoryStore is a process-local Store. It is lost on restart and is meant
// for tests and for running without a database file.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]string
	quota   int64
}

// NewMemoryStore creates an empty store. A quota of 0 disables the limit.
func NewMemoryStore(quotaBytes int64) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]string),
		quota:   quotaBytes,
	}
}

// Get returns the value stored under key
func (m *MemoryStore) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.entries[key]
	return value, ok, nil
}

// Set writes value under key within the quota
func (m *MemoryStore) Set(key, value string) error {
	if key == "" {
		return fmt.Errorf("key must not be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.quota > 0 {
		used := entrySize(key, value)
		for k, v := range m.entries {
			if k != key {
				used += entrySize(k, v)
			}
		}
		if used > m.quota {
			return fmt.Errorf("%w: writing %q needs %d of %d bytes", ErrStorageQuotaExceeded, key, used, m.quota)
		}
	}

	m.entries[key] = value
	return nil
}

// Remove deletes key
func (m *MemoryStore) Remove(key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Usage sums the size of every stored entry
func (m *MemoryStore) Usage() (Usage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	usage := Usage{Keys: len(m.entries), QuotaBytes: m.quota}
	for k, v := range m.entries {
		usage.TotalBytes += entrySize(k, v)
	}
	return usage, nil
}
