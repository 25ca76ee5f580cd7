package persistence

import (
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// kvEntry is the single-table layout of the sqlite backend.
type kvEntry struct {
	Key   string `gorm:"primaryKey;column:key"`
	Value string `gorm:"column:value"`
}

func (kvEntry) TableName() string {
	return "kv_entries"
}

// SQLiteStore is a durable KVStore backed by a local sqlite file.
type SQLiteStore struct {
	db *gorm.DB
}

// Verify interface compliance
var _ KVStore = (*SQLiteStore)(nil)

// OpenSQLite opens (or creates) the store at the given path. Use ":memory:"
// for an ephemeral database in tests.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite store %s: %w", path, err)
	}
	if err := db.AutoMigrate(&kvEntry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate kv table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Get returns the value for a key and whether it was present.
func (s *SQLiteStore) Get(key string) (string, bool, error) {
	var entry kvEntry
	err := s.db.First(&entry, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return entry.Value, true, nil
}

// Set upserts a value.
func (s *SQLiteStore) Set(key, value string) error {
	return s.db.Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&kvEntry{Key: key, Value: value}).Error
}

// Delete removes a key; absent keys are not an error.
func (s *SQLiteStore) Delete(key string) error {
	return s.db.Delete(&kvEntry{}, "key = ?", key).Error
}

// Keys returns all keys in sorted order.
func (s *SQLiteStore) Keys() ([]string, error) {
	var keys []string
	err := s.db.Model(&kvEntry{}).Order("key").Pluck("key", &keys).Error
	return keys, err
}
