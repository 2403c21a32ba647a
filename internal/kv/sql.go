package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ Store = (*SQLStore)(nil)

// Entry is the row backing one key of a SQLStore.
type Entry struct {
	Key       string `gorm:"column:entry_key;primaryKey;size:255"`
	Value     string     `gorm:"type:text;not null"`
	ExpiresAt *time.Time `gorm:"index"`
	UpdatedAt time.Time
}

// TableName pins the table name regardless of naming strategy.
func (Entry) TableName() string {
	return "kv_entries"
}

// SQLStore stores keys in a single gorm-managed table. Works with any gorm
// dialector; sqlite and postgres are the ones wired by the database package.
type SQLStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewSQLStore migrates the backing table and returns the store.
func NewSQLStore(db *gorm.DB) (*SQLStore, error) {
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("kv: migrating %s: %w", Entry{}.TableName(), err)
	}
	return &SQLStore{db: db, now: utcNow}, nil
}

// Expiry times are compared in UTC so sqlite's text timestamps order correctly.
func utcNow() time.Time {
	return time.Now().UTC()
}

func (s *SQLStore) Get(ctx context.Context, key string) (string, error) {
	var e Entry
	err := s.db.WithContext(ctx).
		Where("entry_key = ?", key).
		Where("(expires_at IS NULL OR expires_at > ?)", s.now()).
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("kv: sql get %s: %w", key, err)
	}
	return e.Value, nil
}

func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	return s.SetWithTTL(ctx, key, value, 0)
}

// SetWithTTL stores the expiry in expires_at and deletes rows that have
// already expired, so keys that are never read again do not accumulate.
func (s *SQLStore) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	now := s.now()
	e := Entry{Key: key, Value: value, UpdatedAt: now}
	if ttl > 0 {
		expiresAt := now.Add(ttl)
		e.ExpiresAt = &expiresAt
	}

	db := s.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
	}).Create(&e).Error
	if err != nil {
		return fmt.Errorf("kv: sql set %s: %w", key, err)
	}

	if err := db.Where("expires_at IS NOT NULL AND expires_at <= ?", now).Delete(&Entry{}).Error; err != nil {
		return fmt.Errorf("kv: sql purging expired keys: %w", err)
	}
	return nil
}

func (s *SQLStore) Remove(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Delete(&Entry{}, "entry_key = ?", key).Error; err != nil {
		return fmt.Errorf("kv: sql remove %s: %w", key, err)
	}
	return nil
}
