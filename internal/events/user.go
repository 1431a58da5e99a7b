// Package events publishes user lifecycle events for downstream services.
package events

import "time"

const (
	// TypeUserSynced is the event type of UserSynced.
	TypeUserSynced = "user.synced"
	// TypeUserDeleted is the event type of UserDeleted.
	TypeUserDeleted = "user.deleted"
)

// UserSynced describes the payload produced when an identity provider user is
// created or updated in the local store.
type UserSynced struct {
	Type        string    `json:"type"`
	UserID      uint64    `json:"userId"`
	ExternalID  string    `json:"externalId"`
	Email       string    `json:"email"`
	Username    string    `json:"username"`
	DisplayName string    `json:"displayName"`

	// Source is the webhook event type that triggered the sync.
	Source   string    `json:"source"`
	SyncedAt time.Time `json:"syncedAt"`
}

// UserDeleted is emitted when a user is removed from the local store.
type UserDeleted struct {
	Type       string    `json:"type"`
	UserID     uint64    `json:"userId"`
	ExternalID string    `json:"externalId"`
	DeletedAt  time.Time `json:"deletedAt"`
}
