package models

import "time"

// KVEntry is one key of the persistent key-value namespace
type KVEntry struct {
	Key       string    `gorm:"primaryKey;size:191" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the KVEntry model
func (KVEntry) TableName() string {
	return "kv_entries"
}
