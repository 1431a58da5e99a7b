package clerk

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	svix "github.com/svix/svix-webhooks/go"
	"gorm.io/gorm"

	"github.com/imaginify/usersync/internal/config"
	"github.com/imaginify/usersync/internal/db/controller/user"
	"github.com/imaginify/usersync/internal/db/models"
	"github.com/imaginify/usersync/internal/webhook"
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

type testEnv struct {
	app  *fiber.App
	db   *gorm.DB
	sync *webhook.Synchronizer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := setupTestDB(t)

	v, err := webhook.NewVerifier(testSecret)
	require.NoError(t, err)

	sync := webhook.New(webhook.Options{Store: user.NewStore(db), Verifier: v})

	cfg := &config.Config{Webhook: config.Webhook{Path: config.DefaultWebhookPath, Secret: testSecret}}

	app := fiber.New()

	s := &Service{}
	require.NoError(t, s.Init(app, cfg, sync))

	return &testEnv{app: app, db: db, sync: sync}
}

func signedRequest(t *testing.T, msgID string, body []byte) *http.Request {
	t.Helper()

	wh, err := svix.NewWebhook(testSecret)
	require.NoError(t, err)

	now := time.Now()
	sig, err := wh.Sign(msgID, now, body)
	require.NoError(t, err)

	req := httptest.NewRequest(fiber.MethodPost, config.DefaultWebhookPath, bytes.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set(webhook.HeaderID, msgID)
	req.Header.Set(webhook.HeaderTimestamp, strconv.FormatInt(now.Unix(), 10))
	req.Header.Set(webhook.HeaderSignature, sig)

	return req
}

func (e *testEnv) do(t *testing.T, req *http.Request) (int, string) {
	t.Helper()

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	e.sync.Wait()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, string(body)
}

func (e *testEnv) userCount(t *testing.T) int64 {
	t.Helper()

	var n int64
	require.NoError(t, e.db.Model(&models.User{}).Count(&n).Error)

	return n
}

const createdBody = `{"type":"user.created","object":"event","data":{` +
	`"id":"user_2abc","email_addresses":[{"email_address":"jane@example.com"}],` +
	`"first_name":"Jane","last_name":null,"username":"jane","image_url":"https://img.clerk.com/jane.png"}}`

func TestPostUserCreated(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, signedRequest(t, "msg_1", []byte(createdBody)))
	require.Equal(t, fiber.StatusOK, status)

	var resp struct {
		Message string       `json:"message"`
		User    *models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &resp))

	assert.Equal(t, MessageOK, resp.Message)
	require.NotNil(t, resp.User)
	assert.Equal(t, "user_2abc", resp.User.ExternalID)
	assert.Equal(t, "jane@example.com", resp.User.Email)
	assert.Empty(t, resp.User.LastName)
	assert.Equal(t, models.DefaultCreditBalance, resp.User.CreditBalance)
	assert.NotZero(t, resp.User.ID)
}

func TestPostMissingHeaders(t *testing.T) {
	env := newTestEnv(t)

	for _, header := range []string{webhook.HeaderID, webhook.HeaderTimestamp, webhook.HeaderSignature} {
		t.Run(header, func(t *testing.T) {
			req := signedRequest(t, "msg_1", []byte(createdBody))
			req.Header.Del(header)

			status, body := env.do(t, req)
			assert.Equal(t, fiber.StatusBadRequest, status)
			assert.Contains(t, body, "no svix headers")
			assert.Zero(t, env.userCount(t))
		})
	}
}

func TestPostTamperedBody(t *testing.T) {
	env := newTestEnv(t)

	req := signedRequest(t, "msg_1", []byte(createdBody))
	tampered := bytes.Replace([]byte(createdBody), []byte("jane@"), []byte("evil@"), 1)
	req.Body = io.NopCloser(bytes.NewReader(tampered))
	req.ContentLength = int64(len(tampered))

	status, body := env.do(t, req)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, badRequestBody, body)
	assert.Zero(t, env.userCount(t))
}

func TestPostEmptyEmailList(t *testing.T) {
	env := newTestEnv(t)

	body := []byte(`{"type":"user.created","data":{"id":"user_2abc","email_addresses":[]}}`)

	status, _ := env.do(t, signedRequest(t, "msg_1", body))
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Zero(t, env.userCount(t))
}

func TestPostUnknownEventType(t *testing.T) {
	env := newTestEnv(t)

	body := []byte(`{"type":"organization.created","data":{"id":"org_1"}}`)

	status, respBody := env.do(t, signedRequest(t, "msg_1", body))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Empty(t, respBody)
	assert.Zero(t, env.userCount(t))
}

func TestPostUpdateUnknownUser(t *testing.T) {
	env := newTestEnv(t)

	body := []byte(`{"type":"user.updated","data":{"id":"user_missing","first_name":"Ghost"}}`)

	status, _ := env.do(t, signedRequest(t, "msg_1", body))
	assert.Equal(t, fiber.StatusInternalServerError, status)
}

func TestPostDeleteTwice(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do(t, signedRequest(t, "msg_1", []byte(createdBody)))
	require.Equal(t, fiber.StatusOK, status)

	deleted := []byte(`{"type":"user.deleted","data":{"id":"user_2abc","deleted":true}}`)

	status, body := env.do(t, signedRequest(t, "msg_2", deleted))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, `"externalId":"user_2abc"`)

	status, body = env.do(t, signedRequest(t, "msg_3", deleted))
	assert.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"message":"OK","user":null}`, body)
	assert.Zero(t, env.userCount(t))
}

func TestInitNil(t *testing.T) {
	s := &Service{}
	require.Error(t, s.Init(nil, nil, nil))
}
