package clerk

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imaginify/usersync/internal/config"
)

type capturedRequest struct {
	method string
	path   string
	auth   string
	body   map[string]json.RawMessage
}

func newBackend(t *testing.T, status int) (*httptest.Server, *capturedRequest) {
	t.Helper()

	captured := &capturedRequest{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.method = r.Method
		captured.path = r.URL.Path
		captured.auth = r.Header.Get("Authorization")

		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured.body)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)

		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"errors":[{"code":"resource_not_found","message":"not found"}]}`))
			return
		}

		_, _ = w.Write([]byte(`{"id":"user_2abc","object":"user","public_metadata":{"userId":"42"}}`))
	}))
	t.Cleanup(srv.Close)

	return srv, captured
}

func TestNewMetadataPublisher(t *testing.T) {
	_, err := NewMetadataPublisher(config.Clerk{}, nil)
	require.ErrorIs(t, err, ErrEmptySecretKey)

	p, err := NewMetadataPublisher(config.Clerk{SecretKey: "sk_test_123"}, nil)
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestPublishUserID(t *testing.T) {
	srv, captured := newBackend(t, http.StatusOK)

	p, err := NewMetadataPublisher(config.Clerk{
		SecretKey: "sk_test_123",
		APIURL:    srv.URL,
	}, srv.Client())
	require.NoError(t, err)

	require.NoError(t, p.PublishUserID(context.Background(), "user_2abc", 42))

	assert.Equal(t, http.MethodPatch, captured.method)
	assert.True(t, strings.HasSuffix(captured.path, "/users/user_2abc/metadata"), captured.path)
	assert.Equal(t, "Bearer sk_test_123", captured.auth)
	assert.JSONEq(t, `{"userId":"42"}`, string(captured.body["public_metadata"]))
	assert.NotContains(t, captured.body, "private_metadata")
}

func TestPublishUserIDError(t *testing.T) {
	srv, _ := newBackend(t, http.StatusNotFound)

	p, err := NewMetadataPublisher(config.Clerk{
		SecretKey: "sk_test_123",
		APIURL:    srv.URL,
	}, srv.Client())
	require.NoError(t, err)

	err = p.PublishUserID(context.Background(), "user_2abc", 42)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user_2abc")
}
