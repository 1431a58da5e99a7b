package gate

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/imaginify/usersync/internal/clerk"
	"github.com/imaginify/usersync/internal/web/session"
)

// ErrNoPolicy is returned by New without a policy.
var ErrNoPolicy = errors.New("gate policy cannot be nil")

const bearerPrefix = "Bearer "

// SessionVerifier validates a session token.
type SessionVerifier interface {
	Verify(ctx context.Context, token string) (*clerk.Claims, error)
}

// Config of the gatekeeper middleware.
type Config struct {
	Policy   *Policy
	Verifier SessionVerifier

	// SignInURL receives unauthenticated page requests, "/sign-in" if empty.
	SignInURL string
}

// New returns the gatekeeper middleware.
func New(cfg Config) fiber.Handler {
	if cfg.Policy == nil {
		panic(ErrNoPolicy)
	}

	if cfg.SignInURL == "" {
		cfg.SignInURL = "/sign-in"
	}

	return func(c *fiber.Ctx) error {
		if cfg.Policy.Classify(c.Path()) == Public {
			return c.Next()
		}

		token := sessionToken(c)

		if token != "" && cfg.Verifier != nil {
			claims, err := cfg.Verifier.Verify(c.UserContext(), token)
			if err == nil {
				session.Set(c, claims)
				return c.Next()
			}

			log.Debug().Err(err).Str("path", c.Path()).Msg("rejected session token")
		}

		if isPageRequest(c) {
			return c.Redirect(signInRedirect(cfg.SignInURL, c.OriginalURL()))
		}

		return c.SendStatus(fiber.StatusUnauthorized)
	}
}

// sessionToken returns the token of the __session cookie or the bearer token.
func sessionToken(c *fiber.Ctx) string {
	if token := c.Cookies(session.CookieName); token != "" {
		return token
	}

	auth := c.Get(fiber.HeaderAuthorization)
	if len(auth) > len(bearerPrefix) && strings.EqualFold(auth[:len(bearerPrefix)], bearerPrefix) {
		return strings.TrimSpace(auth[len(bearerPrefix):])
	}

	return ""
}

func isPageRequest(c *fiber.Ctx) bool {
	if c.Method() != fiber.MethodGet && c.Method() != fiber.MethodHead {
		return false
	}

	return !isAPI(c.Path())
}

func signInRedirect(signInURL, original string) string {
	sep := "?"
	if strings.Contains(signInURL, "?") {
		sep = "&"
	}

	return signInURL + sep + "redirect_url=" + url.QueryEscape(original)
}
