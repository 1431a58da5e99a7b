package webhook

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	svix "github.com/svix/svix-webhooks/go"
	"gorm.io/gorm"

	"github.com/imaginify/usersync/internal/db/controller/user"
	"github.com/imaginify/usersync/internal/db/models"
)

const testSecret = "whsec_dGVzdC1zZWNyZXQ="

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "failed to create test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, models.Registry().Migrate(db))

	return db
}

func countUsers(t *testing.T, db *gorm.DB) int64 {
	t.Helper()

	var n int64
	require.NoError(t, db.Model(&models.User{}).Count(&n).Error)

	return n
}

// sign returns the headers of a delivery of body signed with testSecret.
func sign(t *testing.T, msgID string, body []byte) Headers {
	t.Helper()

	wh, err := svix.NewWebhook(testSecret)
	require.NoError(t, err)

	now := time.Now()
	sig, err := wh.Sign(msgID, now, body)
	require.NoError(t, err)

	return Headers{
		ID:        msgID,
		Timestamp: strconv.FormatInt(now.Unix(), 10),
		Signature: sig,
	}
}

func eventBody(t *testing.T, eventType string, data map[string]any) []byte {
	t.Helper()

	body, err := json.Marshal(map[string]any{
		"type":   eventType,
		"object": "event",
		"data":   data,
	})
	require.NoError(t, err)

	return body
}

func createdData() map[string]any {
	return map[string]any{
		"id":     "user_2abc",
		"object": "user",
		"email_addresses": []map[string]any{
			{"id": "idn_1", "email_address": "jane@example.com"},
			{"id": "idn_2", "email_address": "jane.doe@example.com"},
		},
		"first_name": "Jane",
		"last_name":  "Doe",
		"username":   "jane",
		"image_url":  "https://img.clerk.com/jane.png",
	}
}

type publishedID struct {
	externalID string
	userID     uint64
}

type fakeMetadata struct {
	mu    sync.Mutex
	calls []publishedID
	err   error
}

func (f *fakeMetadata) PublishUserID(_ context.Context, externalID string, userID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, publishedID{externalID: externalID, userID: userID})

	return f.err
}

type fakeEvents struct {
	mu      sync.Mutex
	synced  []string
	deleted []string
}

func (f *fakeEvents) UserSynced(_ context.Context, source string, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.synced = append(f.synced, source+":"+u.ExternalID)

	return nil
}

func (f *fakeEvents) UserDeleted(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deleted = append(f.deleted, u.ExternalID)

	return nil
}

func (f *fakeEvents) Close() error { return nil }

type fixture struct {
	db       *gorm.DB
	sync     *Synchronizer
	metadata *fakeMetadata
	events   *fakeEvents
}

func newFixture(t *testing.T, ledger bool) *fixture {
	t.Helper()

	db := setupTestDB(t)

	v, err := NewVerifier(testSecret)
	require.NoError(t, err)

	f := &fixture{
		db:       db,
		metadata: &fakeMetadata{},
		events:   &fakeEvents{},
	}

	opts := Options{
		Store:    user.NewStore(db),
		Verifier: v,
		Metadata: f.metadata,
		Events:   f.events,
	}

	if ledger {
		opts.Ledger = NewLedger(newMemoryStorage(), time.Hour)
	}

	f.sync = New(opts)

	return f
}

// deliver signs body and hands it to the synchronizer.
func (f *fixture) deliver(t *testing.T, msgID string, body []byte) (Outcome, error) {
	t.Helper()

	out, err := f.sync.Handle(context.Background(), body, sign(t, msgID, body))
	f.sync.Wait()

	return out, err
}

// memoryStorage is a minimal in-memory fiber.Storage for tests.
type memoryStorage struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{data: make(map[string][]byte)}
}

func (m *memoryStorage) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.data[key], nil
}

func (m *memoryStorage) Set(key string, val []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = val

	return nil
}

func (m *memoryStorage) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)

	return nil
}

func (m *memoryStorage) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = make(map[string][]byte)

	return nil
}

func (m *memoryStorage) Close() error { return nil }
