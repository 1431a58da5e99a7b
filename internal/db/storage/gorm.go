package storage

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/imaginify/usersync/internal/db/models"
)

// ErrDBNil is returned when the storage has no database connection.
var ErrDBNil = errors.New("database connection is nil")

// Gorm is a fiber.Storage on top of models.StorageEntry.
type Gorm struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGorm returns a Gorm storage using db. The StorageEntry model must be migrated.
func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db, now: time.Now}
}

// Get returns the value for key, nil if it is missing or expired.
func (s *Gorm) Get(key string) ([]byte, error) {
	if s.db == nil {
		return nil, ErrDBNil
	}
	if key == "" {
		return nil, nil
	}

	var e models.StorageEntry
	result := s.db.Where(&models.StorageEntry{Key: key}).Limit(1).Find(&e)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}

	if e.ExpiresAt != 0 && e.ExpiresAt <= s.now().Unix() {
		return nil, nil
	}

	return e.Value, nil
}

// Set stores val under key. exp of 0 never expires.
func (s *Gorm) Set(key string, val []byte, exp time.Duration) error {
	if s.db == nil {
		return ErrDBNil
	}
	if key == "" || len(val) == 0 {
		return nil
	}

	var expiresAt int64
	if exp != 0 {
		expiresAt = s.now().Add(exp).Unix()
	}

	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at"}),
	}).Create(&models.StorageEntry{
		Key:       key,
		Value:     val,
		ExpiresAt: expiresAt,
	}).Error
}

// Delete removes key.
func (s *Gorm) Delete(key string) error {
	if s.db == nil {
		return ErrDBNil
	}
	if key == "" {
		return nil
	}

	return s.db.Where(&models.StorageEntry{Key: key}).Delete(&models.StorageEntry{}).Error
}

// Reset removes every entry.
func (s *Gorm) Reset() error {
	if s.db == nil {
		return ErrDBNil
	}

	return s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.StorageEntry{}).Error
}

// GC removes expired entries and returns how many were removed.
func (s *Gorm) GC() (int64, error) {
	if s.db == nil {
		return 0, ErrDBNil
	}

	result := s.db.Where("expires_at <> 0 AND expires_at <= ?", s.now().Unix()).Delete(&models.StorageEntry{})

	return result.RowsAffected, result.Error
}

// Close is a no-op, the gorm connection is owned by the caller.
func (s *Gorm) Close() error {
	return nil
}
