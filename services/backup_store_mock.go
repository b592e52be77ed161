package services

import (
	"context"
	"fmt"
	"sync"
)

// MockBackupStore is a mock implementation of BackupStore for testing
type MockBackupStore struct {
	objects map[string][]byte // map of object key to content
	mu      sync.RWMutex
}

// NewMockBackupStore creates an empty mock backup store
func NewMockBackupStore() *MockBackupStore {
	return &MockBackupStore{
		objects: make(map[string][]byte),
	}
}

// Upload stores data under key
func (m *MockBackupStore) Upload(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	m.objects[key] = append([]byte(nil), data...)
	m.mu.Unlock()
	return nil
}

// Download returns the data stored under key
func (m *MockBackupStore) Download(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, exists := m.objects[key]
	if !exists {
		return nil, fmt.Errorf("object not found in mock backup store: %s", key)
	}
	return append([]byte(nil), data...), nil
}

// GetPresignedURL returns a mock URL for an existing key
func (m *MockBackupStore) GetPresignedURL(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	_, exists := m.objects[key]
	m.mu.RUnlock()

	if !exists {
		return "", fmt.Errorf("object not found in mock backup store: %s", key)
	}
	return fmt.Sprintf("https://test-bucket.s3.us-east-1.amazonaws.com/%s?mock=true", key), nil
}

// Keys returns the stored object keys (for testing assertions)
func (m *MockBackupStore) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	return keys
}
