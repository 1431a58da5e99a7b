// Package clerk talks to the Clerk identity provider: it writes account
// metadata through the Backend API and verifies session tokens.
package clerk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	clerksdk "github.com/clerk/clerk-sdk-go/v2"
	"github.com/clerk/clerk-sdk-go/v2/user"

	"github.com/imaginify/usersync/internal/config"
)

// ErrEmptySecretKey is returned by NewMetadataPublisher without a backend API key.
var ErrEmptySecretKey = errors.New("clerk secret key cannot be empty")

// MetadataPublisher writes the internal user id into the public metadata of a Clerk user.
type MetadataPublisher struct {
	users *user.Client
}

// NewMetadataPublisher returns a publisher using the Backend API key of cfg.
// hc may be nil.
func NewMetadataPublisher(cfg config.Clerk, hc *http.Client) (*MetadataPublisher, error) {
	if cfg.SecretKey == "" {
		return nil, ErrEmptySecretKey
	}

	backend := clerksdk.BackendConfig{
		Key:        clerksdk.String(cfg.SecretKey),
		HTTPClient: hc,
	}

	if cfg.APIURL != "" {
		backend.URL = clerksdk.String(cfg.APIURL)
	}

	return &MetadataPublisher{
		users: user.NewClient(&clerksdk.ClientConfig{BackendConfig: backend}),
	}, nil
}

type publicMetadata struct {
	UserID string `json:"userId"`
}

// PublishUserID sets public_metadata.userId of the Clerk user externalID.
// Other metadata keys are left as they are.
func (p *MetadataPublisher) PublishUserID(ctx context.Context, externalID string, userID uint64) error {
	raw, err := json.Marshal(publicMetadata{UserID: strconv.FormatUint(userID, 10)})
	if err != nil {
		return err
	}

	msg := json.RawMessage(raw)

	_, err = p.users.UpdateMetadata(ctx, externalID, &user.UpdateMetadataParams{
		PublicMetadata: &msg,
	})
	if err != nil {
		return fmt.Errorf("failed to update metadata of clerk user %s: %w", externalID, err)
	}

	return nil
}
