// Package signin serves the pages mounting Clerk's sign-in and sign-up components.
package signin

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/imaginify/usersync/internal/config"
	"github.com/imaginify/usersync/internal/web/handler"
)

const (
	// TemplateName is the template of both pages.
	TemplateName = "signin"

	modeSignIn = "sign-in"
	modeSignUp = "sign-up"

	defaultSignInURL = "/sign-in"
	defaultSignUpURL = "/sign-up"
)

// Service is the sign-in handler service.
type Service struct {
	handler.Service
	cfg *config.Config
}

// Init registers the sign-in and sign-up pages and their sub-paths.
func (s *Service) Init(app *fiber.App, cfg *config.Config, _ *gorm.DB) error {
	if app == nil || cfg == nil {
		return errors.New("app or cfg is nil")
	}

	s.cfg = cfg

	if s.cfg.Clerk.SignInURL == "" {
		s.cfg.Clerk.SignInURL = defaultSignInURL
	}

	if s.cfg.Clerk.SignUpURL == "" {
		s.cfg.Clerk.SignUpURL = defaultSignUpURL
	}

	// absolute urls point to a hosted account portal, nothing to serve
	for path, mode := range map[string]string{
		s.cfg.Clerk.SignInURL: modeSignIn,
		s.cfg.Clerk.SignUpURL: modeSignUp,
	} {
		if !strings.HasPrefix(path, "/") {
			continue
		}

		app.Get(path, s.page(mode))
		app.Get(strings.TrimSuffix(path, "/")+"/*", s.page(mode))
	}

	return nil
}

func (s *Service) page(mode string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		redirect := c.Query("redirect_url")
		// only same-site redirects after sign-in
		if !strings.HasPrefix(redirect, "/") || strings.HasPrefix(redirect, "//") {
			redirect = handler.RootPath
		}

		return c.Render(TemplateName, fiber.Map{
			"Title":          s.cfg.Title,
			"Mode":           mode,
			"PublishableKey": s.cfg.Clerk.PublishableKey,
			"FrontendAPI":    s.cfg.Clerk.Issuer,
			"SignInURL":      s.cfg.Clerk.SignInURL,
			"SignUpURL":      s.cfg.Clerk.SignUpURL,
			"RedirectURL":    redirect,
		}, handler.BaseLayout)
	}
}
