// Package account serves the signed-in user's own record.
package account

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/imaginify/usersync/internal/config"
	"github.com/imaginify/usersync/internal/db/controller/user"
	"github.com/imaginify/usersync/internal/web/handler"
	"github.com/imaginify/usersync/internal/web/session"
)

const (
	// APIPath returns the user record as JSON.
	APIPath = handler.APIPath + "/me"

	// TemplateName is the name of the account template.
	TemplateName = "account"
)

// Service is the account handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
}

// Init registers the account page and API.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db

	app.Get(handler.RootPath, s.Get)
	app.Get(APIPath, s.GetJSON)

	return nil
}

// Get renders the account page.
// A session without a synced record yet shows a pending notice.
func (s *Service) Get(c *fiber.Ctx) error {
	externalID := session.UserID(c)
	if externalID == "" {
		return fiber.ErrUnauthorized
	}

	u, err := user.GetByExternalID(c.UserContext(), s.db, externalID)
	if err != nil && !errors.Is(err, user.ErrUserNotFound) {
		return err
	}

	if u == nil {
		log.Debug().Str("externalId", externalID).Msg("session user not synced yet")
	}

	return c.Render(TemplateName, fiber.Map{
		"Title":          s.cfg.Title,
		"User":           u,
		"PublishableKey": s.cfg.Clerk.PublishableKey,
		"FrontendAPI":    s.cfg.Clerk.Issuer,
		"SignInURL":      s.cfg.Clerk.SignInURL,
	}, handler.BaseLayout)
}

// GetJSON returns the user record of the session, 404 if it was not synced yet.
func (s *Service) GetJSON(c *fiber.Ctx) error {
	externalID := session.UserID(c)
	if externalID == "" {
		return fiber.ErrUnauthorized
	}

	u, err := user.GetByExternalID(c.UserContext(), s.db, externalID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return fiber.ErrNotFound
		}

		return err
	}

	return c.JSON(u)
}
