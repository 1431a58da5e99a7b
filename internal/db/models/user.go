package models

import (
	"time"
)

const (
	// UserModelName is the registry name of User.
	UserModelName = "User"

	// DefaultCreditBalance is the credit balance of a newly created user.
	DefaultCreditBalance = 10
)

// User is the application's copy of an identity provider account.
// ExternalID, Email and Username are unique. ExternalID is written once at creation.
type User struct {
	// ID is the internal identifier, propagated back to the identity provider as metadata.
	ID uint64 `gorm:"primaryKey" json:"id"`
	// ExternalID is the identifier assigned by the identity provider.
	ExternalID string `gorm:"<-:create;uniqueIndex;size:255;not null" json:"externalId" validate:"required"`
	// Email is the first email address of the provider account.
	Email string `gorm:"uniqueIndex;size:255;not null" json:"email" validate:"required,email"`
	// Username is empty when the provider account has none.
	Username string `gorm:"uniqueIndex;size:100;not null" json:"username"`
	// PhotoURL is empty when the provider account has no image.
	PhotoURL  string `gorm:"size:2048;not null" json:"photoUrl"`
	FirstName string `gorm:"size:100" json:"firstName"`
	LastName  string `gorm:"size:100" json:"lastName"`
	// CreditBalance is account metadata, never touched by the webhook synchronizer.
	CreditBalance int       `gorm:"not null;default:10" json:"creditBalance"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Profile holds the user fields the identity provider may overwrite after creation.
type Profile struct {
	FirstName string
	LastName  string
	Username  string
	PhotoURL  string
}

// NewUser returns a user ready to be inserted, with the default credit balance.
func NewUser(externalID, email string, p Profile) *User {
	return &User{
		ExternalID:    externalID,
		Email:         email,
		Username:      p.Username,
		PhotoURL:      p.PhotoURL,
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		CreditBalance: DefaultCreditBalance,
	}
}

// Profile returns the provider owned fields of the user.
func (u *User) Profile() Profile {
	return Profile{
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.Username,
		PhotoURL:  u.PhotoURL,
	}
}
