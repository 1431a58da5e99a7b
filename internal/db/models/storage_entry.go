package models

// StorageEntryModelName is the registry name of StorageEntry.
const StorageEntryModelName = "StorageEntry"

// StorageEntry is a key/value row with an optional expiry.
// It backs the webhook delivery ledger when no dedicated storage driver exists for the database engine.
type StorageEntry struct {
	Key   string `gorm:"primaryKey;size:255"`
	Value []byte
	// ExpiresAt is a unix timestamp in seconds, 0 never expires.
	ExpiresAt int64 `gorm:"index"`
}
