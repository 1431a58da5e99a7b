// Package clerk receives the Clerk user lifecycle webhook.
package clerk

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/imaginify/usersync/internal/config"
	"github.com/imaginify/usersync/internal/db/models"
	"github.com/imaginify/usersync/internal/webhook"
)

const (
	// MessageOK is the message of every successful response.
	MessageOK = "OK"

	badRequestBody = "Error occurred"
)

// Response is the body of a successful delivery.
type Response struct {
	Message string       `json:"message"`
	User    *models.User `json:"user"`
}

// Synchronizer handles verified deliveries.
type Synchronizer interface {
	Handle(ctx context.Context, body []byte, h webhook.Headers) (webhook.Outcome, error)
}

// Service is the webhook handler service.
type Service struct {
	sync Synchronizer
}

// Init registers the webhook route at cfg.Webhook.Path.
func (s *Service) Init(app *fiber.App, cfg *config.Config, sync Synchronizer) error {
	if app == nil || cfg == nil || sync == nil {
		return errors.New("app, cfg or synchronizer is nil")
	}

	s.sync = sync

	app.Post(cfg.Webhook.Path, s.Post)

	return nil
}

// Post handles one delivery.
//
// Missing headers, a bad signature and unmappable events are answered with 400.
// Store errors are returned to the fiber error handler, the provider retries on 5xx.
func (s *Service) Post(c *fiber.Ctx) error {
	h := webhook.Headers{
		ID:        c.Get(webhook.HeaderID),
		Timestamp: c.Get(webhook.HeaderTimestamp),
		Signature: c.Get(webhook.HeaderSignature),
	}

	out, err := s.sync.Handle(c.UserContext(), c.Body(), h)
	if err != nil {
		if webhook.IsBadRequest(err) {
			log.Warn().Err(err).Str(webhook.HeaderID, h.ID).Msg("rejected webhook delivery")

			if errors.Is(err, webhook.ErrMissingHeaders) {
				return c.Status(fiber.StatusBadRequest).SendString("Error occurred -- no svix headers")
			}

			return c.Status(fiber.StatusBadRequest).SendString(badRequestBody)
		}

		log.Error().Err(err).Str(webhook.HeaderID, h.ID).Str("type", out.Type).Msg("failed to apply webhook event")

		return err
	}

	// acknowledged with an empty body
	if out.Ignored {
		return c.Status(fiber.StatusOK).SendString("")
	}

	return c.JSON(Response{Message: MessageOK, User: out.User})
}
