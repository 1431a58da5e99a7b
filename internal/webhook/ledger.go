package webhook

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

const ledgerKeyPrefix = "svix:"

// Ledger remembers the message ids of processed deliveries.
type Ledger struct {
	storage fiber.Storage
	ttl     time.Duration
}

// NewLedger returns a ledger keeping ids for ttl in storage.
func NewLedger(storage fiber.Storage, ttl time.Duration) *Ledger {
	return &Ledger{storage: storage, ttl: ttl}
}

// Seen reports whether msgID was recorded and has not expired.
func (l *Ledger) Seen(msgID string) (bool, error) {
	val, err := l.storage.Get(ledgerKeyPrefix + msgID)
	if err != nil {
		return false, err
	}

	return len(val) > 0, nil
}

// Record stores msgID with the type of the event it carried.
func (l *Ledger) Record(msgID, eventType string) error {
	if eventType == "" {
		eventType = "unknown"
	}

	return l.storage.Set(ledgerKeyPrefix+msgID, []byte(eventType), l.ttl)
}
