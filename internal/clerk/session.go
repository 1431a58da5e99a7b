package clerk

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/imaginify/usersync/internal/config"
)

var (
	// ErrNoIssuer is returned by NewSessionVerifier without an issuer.
	ErrNoIssuer = errors.New("clerk issuer cannot be empty")
	// ErrNoToken is returned for an empty session token.
	ErrNoToken = errors.New("no session token")
	// ErrUnauthorizedParty is returned when the azp claim is not an authorized party.
	ErrUnauthorizedParty = errors.New("session token issued for an unauthorized party")
)

const jwksPath = "/.well-known/jwks.json"

// Claims of a verified Clerk session token.
type Claims struct {
	// UserID is the Clerk user id, the external id of the local user record.
	UserID    string `json:"sub"`
	SessionID string `json:"sid"`

	// AuthorizedParty is the origin the token was issued to.
	AuthorizedParty string `json:"azp"`
}

// SessionVerifier validates Clerk session tokens against the instance's JWKS.
type SessionVerifier struct {
	verifier          *oidc.IDTokenVerifier
	authorizedParties []string
}

// NewSessionVerifier returns a verifier for tokens issued by cfg.Issuer.
// Keys are fetched lazily from cfg.JWKSURL or the issuer's well-known JWKS.
func NewSessionVerifier(ctx context.Context, cfg config.Clerk) (*SessionVerifier, error) {
	if cfg.Issuer == "" {
		return nil, ErrNoIssuer
	}

	jwksURL := cfg.JWKSURL
	if jwksURL == "" {
		jwksURL = strings.TrimSuffix(cfg.Issuer, "/") + jwksPath
	}

	return newSessionVerifier(cfg, oidc.NewRemoteKeySet(ctx, jwksURL)), nil
}

func newSessionVerifier(cfg config.Clerk, keySet oidc.KeySet) *SessionVerifier {
	return &SessionVerifier{
		verifier: oidc.NewVerifier(cfg.Issuer, keySet, &oidc.Config{
			// session tokens carry no audience
			SkipClientIDCheck: true,
		}),
		authorizedParties: cfg.AuthorizedParties,
	}
}

// Verify checks signature, issuer and expiry of token and returns its claims.
func (v *SessionVerifier) Verify(ctx context.Context, token string) (*Claims, error) {
	if token == "" {
		return nil, ErrNoToken
	}

	idToken, err := v.verifier.Verify(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to verify session token: %w", err)
	}

	var claims Claims
	if err = idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to decode session claims: %w", err)
	}

	if len(v.authorizedParties) > 0 && claims.AuthorizedParty != "" &&
		!slices.Contains(v.authorizedParties, claims.AuthorizedParty) {
		return nil, fmt.Errorf("%w: %s", ErrUnauthorizedParty, claims.AuthorizedParty)
	}

	return &claims, nil
}
