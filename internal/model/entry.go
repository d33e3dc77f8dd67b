package model

import "time"

// Entry is a single row of the key-value table backing persisted state.
type Entry struct {
	Key       string `gorm:"primaryKey;column:storage_key"`
	Value     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
