package config

import (
	"time"

	"github.com/imaginify/usersync/internal/logger"
)

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Clerk     Clerk
	Webhook   Webhook
	Events    Events
}

// Webserver implement webserver settings.
type Webserver struct {
	DisableRecover bool     // disable recover middleware
	Port           int      // listening port for the webserver
	ShutDownTime   int      // wait time for shutdown
	URL            string   `validate:"required,url"` // base url for the webserver
	CheckAliveURI  string   // path answering load balancer health checks
	PublicRoutes   []string // route patterns reachable without a session
}

// Clerk holds the identity provider settings.
type Clerk struct {
	SecretKey         string        // backend API key (sk_...)
	PublishableKey    string        // frontend key (pk_...) used by the sign-in pages
	APIURL            string        `validate:"omitempty,url"` // backend API base url override
	Issuer            string        `validate:"omitempty,url"` // frontend API url, issuer of session tokens
	JWKSURL           string        `validate:"omitempty,url"` // defaults to Issuer + "/.well-known/jwks.json"
	AuthorizedParties []string      // accepted azp claims, empty accepts any
	SignInURL         string        // where unauthenticated page requests are sent
	SignUpURL         string
	MetadataTimeout   time.Duration // timeout of the public metadata update after user.created
}

// Webhook holds the settings of the identity provider webhook endpoint.
type Webhook struct {
	Path           string
	Secret         string        // svix signing secret (whsec_...)
	Deduplicate    bool          // acknowledge already processed svix-id values without dispatch
	DeduplicateTTL time.Duration // how long processed message ids are remembered
}

// Events holds the user lifecycle event publisher settings.
// Publishing is disabled while no broker is configured.
type Events struct {
	Brokers []string
	Topic   string
	Timeout time.Duration
}

// Enabled reports whether user lifecycle events should be published.
func (e Events) Enabled() bool {
	return len(e.Brokers) > 0
}
