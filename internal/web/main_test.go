package web

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/imaginify/usersync/internal/clerk"
	"github.com/imaginify/usersync/internal/config"
	"github.com/imaginify/usersync/internal/db/controller/user"
	"github.com/imaginify/usersync/internal/db/models"
	"github.com/imaginify/usersync/internal/webhook"
)

type staticVerifier struct{}

func (staticVerifier) Verify(_ context.Context, token string) (*clerk.Claims, error) {
	if token != "good" {
		return nil, clerk.ErrNoToken
	}

	return &clerk.Claims{UserID: "user_2abc"}, nil
}

func newTestService(t *testing.T) *Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, models.Registry().Migrate(db))
	require.NoError(t, db.Create(models.NewUser("user_2abc", "jane@example.com", models.Profile{Username: "jane"})).Error)

	v, err := webhook.NewVerifier("whsec_dGVzdC1zZWNyZXQ=")
	require.NoError(t, err)

	cfg := &config.Config{
		Title: "usersync",
		Webserver: config.Webserver{
			Port:          8080,
			URL:           "http://localhost:8080",
			CheckAliveURI: "/checkalive",
			PublicRoutes:  []string{"/sign-in(.*)", "/sign-up(.*)"},
		},
		Clerk: config.Clerk{
			SignInURL: "/sign-in",
			SignUpURL: "/sign-up",
		},
		Webhook: config.Webhook{Path: config.DefaultWebhookPath},
	}

	s, err := New(cfg, Deps{
		DB:           db,
		Synchronizer: webhook.New(webhook.Options{Store: user.NewStore(db), Verifier: v}),
		Verifier:     staticVerifier{},
	})
	require.NoError(t, err)

	s.fastShutDown = true

	return s
}

func TestRoutes(t *testing.T) {
	s := newTestService(t)

	testCases := []struct {
		name       string
		method     string
		target     string
		session    string
		wantStatus int
		wantBody   string
	}{
		{name: "check alive", method: fiber.MethodGet, target: "/checkalive", wantStatus: fiber.StatusOK, wantBody: "OK"},
		{name: "metrics", method: fiber.MethodGet, target: MetricsPath, wantStatus: fiber.StatusOK, wantBody: "go_goroutines"},
		{name: "static file", method: fiber.MethodGet, target: "/static/css/app.css", wantStatus: fiber.StatusOK},
		{name: "sign-in page", method: fiber.MethodGet, target: "/sign-in", wantStatus: fiber.StatusOK, wantBody: "mountSignIn"},
		{name: "home redirects", method: fiber.MethodGet, target: "/", wantStatus: fiber.StatusFound},
		{name: "api rejects", method: fiber.MethodGet, target: "/api/me", wantStatus: fiber.StatusUnauthorized},
		{name: "api with session", method: fiber.MethodGet, target: "/api/me", session: "good", wantStatus: fiber.StatusOK, wantBody: "jane@example.com"},
		{name: "unknown route with session", method: fiber.MethodGet, target: "/nope", session: "good", wantStatus: fiber.StatusNotFound},
		{name: "webhook is public", method: fiber.MethodPost, target: config.DefaultWebhookPath, wantStatus: fiber.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.target, nil)
			if tc.session != "" {
				req.Header.Set(fiber.HeaderAuthorization, "Bearer "+tc.session)
			}

			resp, err := s.App.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tc.wantStatus, resp.StatusCode)

			if tc.wantBody != "" {
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				assert.Contains(t, string(body), tc.wantBody)
			}
		})
	}
}

func TestCheckAliveWhileDraining(t *testing.T) {
	s := newTestService(t)

	// what Shutdown does before stopping the server
	s.alive.Store(false)

	resp, err := s.App.Test(httptest.NewRequest(fiber.MethodGet, "/checkalive", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestNewRequiresDeps(t *testing.T) {
	_, err := New(nil, Deps{})
	require.Error(t, err)

	_, err = New(&config.Config{}, Deps{})
	require.Error(t, err)
}
