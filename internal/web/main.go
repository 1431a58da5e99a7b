// Package web wires the fiber application: access log, gatekeeper, handlers
// and the operational endpoints.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"regexp"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/imaginify/usersync/internal/config"
	fiberlogger "github.com/imaginify/usersync/internal/logger/adapter/fiber"
	"github.com/imaginify/usersync/internal/web/handler/account"
	"github.com/imaginify/usersync/internal/web/handler/signin"
	webhookhandler "github.com/imaginify/usersync/internal/web/handler/webhook/clerk"
	"github.com/imaginify/usersync/internal/web/middleware/gate"
)

// MetricsPath serves the prometheus metrics.
const MetricsPath = "/metrics"

// Deps are the collaborators of the web service.
type Deps struct {
	DB           *gorm.DB
	Synchronizer webhookhandler.Synchronizer
	// Verifier may be nil, every protected request is then rejected.
	Verifier gate.SessionVerifier
}

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
}

// Start starts the web service on the given address and blocks until it is stopped.
func (s *Service) Start(addr string) error {
	if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// WaitShutdown waits for SIGINT or SIGTERM and shuts the http server down gracefully.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	s.Shutdown()
}

// Shutdown lets the check-alive endpoint fail for the configured time, then stops the http server.
func (s *Service) Shutdown() {
	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	s.alive.Store(false)

	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	log.Info().Msg("stopping http server ...")

	if err := s.App.Shutdown(); err != nil {
		log.Error().Err(err).Msg("")
	}

	log.Info().Msg("http server was stopped")
}

// New creates a new web service with the given configuration.
func New(cfg *config.Config, deps Deps) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if deps.DB == nil || deps.Synchronizer == nil {
		return nil, errors.New("db and synchronizer cannot be nil")
	}

	httpFS := http.FS(templateEmbedFS{embeddedTemplates})
	templateEngine := html.NewFileSystem(httpFS, ".gohtml")

	// in debug mode, use local filesystem for templates
	if cfg.DevMode {
		templateEngine = html.New("./internal/web/templates", ".gohtml")
		templateEngine.ShouldReload = true

		log.Warn().Msg("debug mode enabled: using local filesystem for templates")
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Immutable:      true,
			Views:          templateEngine,
			ErrorHandler:   errorHandler,
		},
	)

	service := &Service{
		cfg:          cfg,
		App:          app,
		fastShutDown: cfg.DevMode,
	}
	service.alive.Store(true)

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New(recover.Config{EnableStackTrace: cfg.DevMode}))
	}

	app.Use(fiberlogger.New(fiberlogger.Config{
		Config:        cfg.Log,
		CheckAliveURI: cfg.Webserver.CheckAliveURI,
	}))

	// serve embedded static files
	app.Use("/static",
		filesystem.New(
			filesystem.Config{
				Root:       http.FS(embeddedStaticFiles),
				PathPrefix: "static",
			},
		),
	)

	policy, err := gate.NewPolicy(publicRoutes(cfg), cfg.Webhook.Path)
	if err != nil {
		return nil, err
	}

	app.Use(gate.New(gate.Config{
		Policy:    policy,
		Verifier:  deps.Verifier,
		SignInURL: cfg.Clerk.SignInURL,
	}))

	if cfg.Webserver.CheckAliveURI != "" {
		app.Get(cfg.Webserver.CheckAliveURI, service.checkAlive)
	}

	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	if err = new(webhookhandler.Service).Init(app, cfg, deps.Synchronizer); err != nil {
		return nil, err
	}

	if err = new(signin.Service).Init(app, cfg, deps.DB); err != nil {
		return nil, err
	}

	if err = new(account.Service).Init(app, cfg, deps.DB); err != nil {
		return nil, err
	}

	return service, nil
}

// publicRoutes returns the configured allow-list plus the operational endpoints.
func publicRoutes(cfg *config.Config) []string {
	routes := append([]string{}, cfg.Webserver.PublicRoutes...)
	routes = append(routes, regexp.QuoteMeta(MetricsPath))

	if cfg.Webserver.CheckAliveURI != "" {
		routes = append(routes, regexp.QuoteMeta(cfg.Webserver.CheckAliveURI))
	}

	return routes
}

func (s *Service) checkAlive(c *fiber.Ctx) error {
	if !s.alive.Load() {
		return c.SendStatus(fiber.StatusServiceUnavailable)
	}

	return c.SendString("OK")
}

// errorHandler hides internal error details from the caller.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	} else {
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}

	return c.Status(code).SendString(http.StatusText(code))
}
