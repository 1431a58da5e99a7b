package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("toml config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrEmptyWebhookSecret error if no webhook signing secret was provided.
	// Unverifiable webhook traffic is never accepted.
	ErrEmptyWebhookSecret = errors.New("webhook secret can not be empty, set WEBHOOK_SECRET")

	// ErrInvalidWebhookPath error if config webhook.path is not an absolute path.
	ErrInvalidWebhookPath = errors.New("toml config webhook.path must start with a slash")

	// ErrUnsupportedGormEngine error if config db.gormEngine names an unknown driver.
	ErrUnsupportedGormEngine = errors.New("toml config db.gormEngine must be one of mysql, postgres, sqlite")
)
