package store

import (
	"errors"
	"fmt"

	"github.com/kendall-kelly/maintenance-orders-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore keeps the namespace in the kv_entries table
type GormStore struct {
	db    *gorm.DB
	quota int64
}

// NewGormStore creates a store over db. A quota of 0 disables the limit.
// The kv_entries table must already be migrated.
func NewGormStore(db *gorm.DB, quotaBytes int64) *GormStore {
	return &GormStore{db: db, quota: quotaBytes}
}

// Get returns the value stored under key
func (s *GormStore) Get(key string) (string, bool, error) {
	if key == "" {
		return "", false, nil
	}

	var entry models.KVEntry
	err := s.db.Where(&models.KVEntry{Key: key}).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return entry.Value, true, nil
}

// Set writes value under key, failing with ErrStorageQuotaExceeded when the
// namespace would grow past the quota
func (s *GormStore) Set(key, value string) error {
	if key == "" {
		return fmt.Errorf("key must not be empty")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if s.quota > 0 {
			var entries []models.KVEntry
			if err := tx.Not(&models.KVEntry{Key: key}).Find(&entries).Error; err != nil {
				return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
			}

			used := entrySize(key, value)
			for _, e := range entries {
				used += entrySize(e.Key, e.Value)
			}
			if used > s.quota {
				return fmt.Errorf("%w: writing %q needs %d of %d bytes", ErrStorageQuotaExceeded, key, used, s.quota)
			}
		}

		entry := models.KVEntry{Key: key, Value: value}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&entry).Error
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		return nil
	})
}

// Remove deletes key
func (s *GormStore) Remove(key string) error {
	if key == "" {
		return nil
	}

	if err := s.db.Where(&models.KVEntry{Key: key}).Delete(&models.KVEntry{}).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// Usage sums the size of every stored entry
func (s *GormStore) Usage() (Usage, error) {
	var entries []models.KVEntry
	if err := s.db.Find(&entries).Error; err != nil {
		return Usage{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	usage := Usage{Keys: len(entries), QuotaBytes: s.quota}
	for _, e := range entries {
		usage.TotalBytes += entrySize(e.Key, e.Value)
	}
	return usage, nil
}
