// Package config handles input from etc/main.toml and the environment.
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every config key read from the environment, e.g. USERSYNC_WEBSERVER_PORT.
	EnvPrefix = "USERSYNC"

	// EnvConfigJSON holds a JSON document merged over the file based config.
	EnvConfigJSON = "USERSYNC_CONFIG_JSON"

	// DefaultWebhookPath is the path the identity provider delivers events to.
	DefaultWebhookPath = "/api/webhooks/clerk"

	mainConfigFile = "main.toml"
	redacted       = "******"
)

// wellKnownEnv maps config keys to the unprefixed variables used by the hosting platform.
var wellKnownEnv = map[string]string{ //nolint:gochecknoglobals
	"webhook.secret":       "WEBHOOK_SECRET",
	"clerk.secretkey":      "CLERK_SECRET_KEY",
	"clerk.publishablekey": "CLERK_PUBLISHABLE_KEY",
	"db.url":               "DATABASE_URL",
}

// ReadConfig from config file.
func ReadConfig(path string) (Config, error) {
	var (
		c             Config
		JSONConfigEnv string
		err           error
	)

	// Read main configuration
	if path == "" {
		path = "./etc/"
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(path, mainConfigFile))
	v.SetConfigType("toml")
	setDefaults(v)

	// override it from env
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range wellKnownEnv {
		if err = v.BindEnv(key, env); err != nil {
			return Config{}, errors.Wrapf(err, "failed to bind env %s", env)
		}
	}

	if err = v.ReadInConfig(); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	if err = v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode main config file")
	}

	JSONConfigEnv = os.Getenv(EnvConfigJSON)

	if JSONConfigEnv != "" {
		c, err = decodeAndMergeConfig(c, JSONConfigEnv)
		if err != nil {
			return c, err
		}
	}

	return c, validate(&c)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("title", "usersync")
	v.SetDefault("devmode", false)

	v.SetDefault("db.url", "")
	v.SetDefault("db.gormengine", GormEngineSQLite)
	v.SetDefault("db.name", "usersync.db")

	v.SetDefault("webserver.port", 8080) //nolint:mnd
	v.SetDefault("webserver.shutdowntime", 5)
	v.SetDefault("webserver.checkaliveuri", "/checkalive")

	v.SetDefault("clerk.secretkey", "")
	v.SetDefault("clerk.publishablekey", "")
	v.SetDefault("clerk.signinurl", "/sign-in")
	v.SetDefault("clerk.signupurl", "/sign-up")
	v.SetDefault("clerk.metadatatimeout", 10*time.Second) //nolint:mnd

	v.SetDefault("webhook.path", DefaultWebhookPath)
	v.SetDefault("webhook.secret", "")
	v.SetDefault("webhook.deduplicate", false)
	v.SetDefault("webhook.deduplicatettl", 24*time.Hour) //nolint:mnd

	v.SetDefault("events.brokers", []string{})
	v.SetDefault("events.topic", "user.events")
	v.SetDefault("events.timeout", 5*time.Second) //nolint:mnd

	v.SetDefault("log.loglevel", "info")
	v.SetDefault("log.appname", "usersync")
	v.SetDefault("log.servicename", "usersync")
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	return c, nil
}

// Redacted returns a copy of the config with all secrets masked.
func (c *Config) Redacted() Config {
	out := *c

	mask := func(s *string) {
		if *s != "" {
			*s = redacted
		}
	}

	mask(&out.DB.Password)
	mask(&out.DB.URL)
	mask(&out.Clerk.SecretKey)
	mask(&out.Webhook.Secret)

	return out
}

// DumpConfig config as TOML String. Secrets are masked.
func DumpConfig(c *Config) (string, error) {
	var buffer bytes.Buffer
	t := toml.NewEncoder(&buffer)

	if err := t.Encode(c.Redacted()); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON config as JSON String. Secrets are masked.
func DumpConfigJSON(c *Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c.Redacted()); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// validate the settings the daemon can not start without.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	// validate webserver listening port
	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	// fail fast rather than accepting unverifiable webhook traffic
	if c.Webhook.Secret == "" {
		return errors.Wrap(ErrEmptyWebhookSecret, invalidErrMessage)
	}

	if c.Webhook.Path == "" {
		c.Webhook.Path = DefaultWebhookPath
	}

	if !strings.HasPrefix(c.Webhook.Path, "/") {
		return errors.Wrap(ErrInvalidWebhookPath, invalidErrMessage)
	}

	switch c.DB.GormEngine {
	case GormEngineMySQL, GormEnginePostgres, GormEngineSQLite:
	default:
		return errors.Wrap(ErrUnsupportedGormEngine, invalidErrMessage)
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = 5 // set default of 5 seconds
	}

	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, invalidErrMessage)
	}

	return nil
}
