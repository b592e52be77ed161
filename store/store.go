// Package store provides the persistent string key-value namespace that holds
// the serialized order, staff and settings collections.
package store

import (
	"fmt"
)

// Keys of the three collections kept in the namespace
const (
	OrdersKey   = "maintenance_orders"
	StaffKey    = "staff_members"
	SettingsKey = "app_settings"
)

// DefaultQuotaBytes mirrors the usual per-origin browser storage limit
const DefaultQuotaBytes = 5 * 1024 * 1024

// probeKey is written and removed by Probe
const probeKey = "__storage_test__"

// StorageError represents an environment-level storage failure
type StorageError struct {
	Code    string
	Message string
}

func (e *StorageError) Error() string {
	return e.Message
}

var (
	// ErrStorageUnavailable is returned when the backing store cannot be reached
	ErrStorageUnavailable = &StorageError{Code: "STORAGE_UNAVAILABLE", Message: "storage is unavailable"}

	// ErrStorageQuotaExceeded is returned when a write would exceed the quota.
	// The previous value of the key is left intact.
	ErrStorageQuotaExceeded = &StorageError{Code: "STORAGE_QUOTA_EXCEEDED", Message: "storage quota exceeded"}
)

// Store is a synchronous string-keyed store. Set followed by Get on the same
// key returns the exact value written.
type Store interface {
	// Get returns the value for key; ok is false when the key is absent
	Get(key string) (value string, ok bool, err error)
	// Set writes value under key, replacing any previous value
	Set(key, value string) error
	// Remove deletes key; removing an absent key is not an error
	Remove(key string) error
	// Usage reports how much of the quota is in use
	Usage() (Usage, error)
}

// Usage describes the space taken by the namespace
type Usage struct {
	Keys       int   `json:"keys"`
	TotalBytes int64 `json:"totalBytes"`
	QuotaBytes int64 `json:"quotaBytes"` // 0 means unlimited
}

// TotalKB returns the used size in whole kilobytes
func (u Usage) TotalKB() int64 {
	return (u.TotalBytes + 512) / 1024
}

// entrySize is the space a key-value pair counts against the quota
func entrySize(key, value string) int64 {
	return int64(len(key) + len(value))
}

// Probe checks the store is usable by writing, reading back and deleting a
// sentinel key. Callers run it once at startup.
func Probe(s Store) error {
	if err := s.Set(probeKey, probeKey); err != nil {
		return fmt.Errorf("probe write failed: %w", err)
	}

	value, ok, err := s.Get(probeKey)
	if err != nil {
		return fmt.Errorf("probe read failed: %w", err)
	}
	if !ok || value != probeKey {
		return fmt.Errorf("%w: probe value did not round-trip", ErrStorageUnavailable)
	}

	if err := s.Remove(probeKey); err != nil {
		return fmt.Errorf("probe delete failed: %w", err)
	}
	return nil
}
