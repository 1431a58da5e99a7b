// Package user provides CRUD operations for the application's user records.
package user

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/imaginify/usersync/internal/db/models"
)

const (
	externalIDQueryPattern = "external_id = ?"
)

var (
	// ErrUserNotFound is returned when no user matches the external id.
	ErrUserNotFound = errors.New("user not found")
	// ErrExternalIDEmpty is returned when an operation is called without an external id.
	ErrExternalIDEmpty = errors.New("user external id cannot be empty")
	// ErrUserAlreadyExists is returned when a unique column (external id, email, username) is taken.
	ErrUserAlreadyExists = errors.New("user with external id, email or username already exists")
	// ErrUserNil is returned when Create is called without a user.
	ErrUserNil = errors.New("user cannot be nil")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Create inserts a new user.
func Create(ctx context.Context, db *gorm.DB, u *models.User) (*models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if u == nil {
		return nil, ErrUserNil
	}
	if u.ExternalID == "" {
		return nil, ErrExternalIDEmpty
	}

	result := db.WithContext(ctx).Create(u)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: %w", ErrUserAlreadyExists, result.Error)
		}
		return nil, result.Error
	}

	return u, nil
}

// GetByExternalID retrieves a user by the identity provider's id.
func GetByExternalID(ctx context.Context, db *gorm.DB, externalID string) (*models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if externalID == "" {
		return nil, ErrExternalIDEmpty
	}

	var u models.User
	result := db.WithContext(ctx).Where(externalIDQueryPattern, externalID).First(&u)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}

	return &u, nil
}

// UpdateProfile overwrites first name, last name, username and photo url of
// the user with the given external id. Empty values overwrite too.
// Email, external id and credit balance are never changed.
func UpdateProfile(ctx context.Context, db *gorm.DB, externalID string, p models.Profile) (*models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if externalID == "" {
		return nil, ErrExternalIDEmpty
	}

	var u models.User

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where(externalIDQueryPattern, externalID).First(&u)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return result.Error
		}

		result = tx.Model(&u).
			Select("FirstName", "LastName", "Username", "PhotoURL").
			Updates(&models.User{
				FirstName: p.FirstName,
				LastName:  p.LastName,
				Username:  p.Username,
				PhotoURL:  p.PhotoURL,
			})
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: %w", ErrUserAlreadyExists, result.Error)
			}
			return result.Error
		}

		return tx.First(&u, u.ID).Error
	})
	if err != nil {
		return nil, err
	}

	return &u, nil
}

// DeleteByExternalID removes the user with the given external id and returns it.
// A missing user is not an error: nil, nil is returned.
func DeleteByExternalID(ctx context.Context, db *gorm.DB, externalID string) (*models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if externalID == "" {
		return nil, ErrExternalIDEmpty
	}

	var u models.User
	result := db.WithContext(ctx).Where(externalIDQueryPattern, externalID).First(&u)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil //nolint:nilnil // idempotent delete
		}
		return nil, result.Error
	}

	result = db.WithContext(ctx).Delete(&u)
	if result.Error != nil {
		return nil, result.Error
	}

	return &u, nil
}

// Store binds the package functions to one database connection.
type Store struct {
	db *gorm.DB
}

// NewStore returns a Store using db.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Create inserts a new user.
func (s *Store) Create(ctx context.Context, u *models.User) (*models.User, error) {
	return Create(ctx, s.db, u)
}

// GetByExternalID retrieves a user by the identity provider's id.
func (s *Store) GetByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	return GetByExternalID(ctx, s.db, externalID)
}

// UpdateProfile overwrites the provider owned fields of a user.
func (s *Store) UpdateProfile(ctx context.Context, externalID string, p models.Profile) (*models.User, error) {
	return UpdateProfile(ctx, s.db, externalID, p)
}

// DeleteByExternalID removes a user, nil, nil if it did not exist.
func (s *Store) DeleteByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	return DeleteByExternalID(ctx, s.db, externalID)
}
