// Package daemon assembles the usersync service from its configuration.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/imaginify/usersync/internal/clerk"
	"github.com/imaginify/usersync/internal/config"
	"github.com/imaginify/usersync/internal/db/connect"
	"github.com/imaginify/usersync/internal/db/controller/user"
	"github.com/imaginify/usersync/internal/db/models"
	"github.com/imaginify/usersync/internal/db/storage"
	"github.com/imaginify/usersync/internal/events"
	"github.com/imaginify/usersync/internal/web"
	"github.com/imaginify/usersync/internal/web/middleware/gate"
	"github.com/imaginify/usersync/internal/webhook"
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg          *config.Config
	db           *gorm.DB
	webService   *web.Service
	synchronizer *webhook.Synchronizer
	publisher    events.Publisher
	ledger       fiber.Storage
}

// New creates a new Daemon: it connects and migrates the database and
// builds the webhook synchronizer and the web service.
func New(ctx context.Context, cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	db, err := Migrate(cfg)
	if err != nil {
		return nil, err
	}

	d := &Daemon{
		cfg:       cfg,
		db:        db,
		publisher: events.New(cfg.Events),
	}

	verifier, err := webhook.NewVerifier(cfg.Webhook.Secret)
	if err != nil {
		return nil, err
	}

	opts := webhook.Options{
		Store:       user.NewStore(db),
		Verifier:    verifier,
		Events:      d.publisher,
		TaskTimeout: cfg.Clerk.MetadataTimeout,
	}

	// metadata propagation needs the backend api key
	if cfg.Clerk.SecretKey != "" {
		metadata, err := clerk.NewMetadataPublisher(cfg.Clerk, nil)
		if err != nil {
			return nil, err
		}

		opts.Metadata = metadata
	} else {
		log.Warn().Msg("clerk secret key not set: internal user ids are not propagated to clerk")
	}

	if cfg.Webhook.Deduplicate {
		d.ledger = storage.New(cfg, db)
		opts.Ledger = webhook.NewLedger(d.ledger, cfg.Webhook.DeduplicateTTL)

		// the fiber storage drivers collect garbage themselves
		if g, ok := d.ledger.(*storage.Gorm); ok {
			if removed, err := g.GC(); err != nil {
				log.Warn().Err(err).Msg("failed to remove expired ledger entries")
			} else {
				log.Debug().Int64("removed", removed).Msg("removed expired ledger entries")
			}
		}

		log.Info().Dur("ttl", cfg.Webhook.DeduplicateTTL).Msg("webhook delivery deduplication enabled")
	}

	if cfg.Events.Enabled() {
		log.Info().Strs("brokers", cfg.Events.Brokers).Str("topic", cfg.Events.Topic).Msg("publishing user events")
	}

	d.synchronizer = webhook.New(opts)

	deps := web.Deps{
		DB:           db,
		Synchronizer: d.synchronizer,
	}

	if cfg.Clerk.Issuer != "" {
		sessions, err := clerk.NewSessionVerifier(ctx, cfg.Clerk)
		if err != nil {
			return nil, err
		}

		deps.Verifier = sessions
	} else {
		log.Warn().Msg("clerk issuer not set: every protected route answers 401")
	}

	d.webService, err = web.New(cfg, deps)
	if err != nil {
		return nil, err
	}

	return d, nil
}

// Start runs the web service until SIGINT or SIGTERM, then waits for
// pending webhook side effects and closes the publishers.
func (d *Daemon) Start() error {
	addr := net.JoinHostPort("", strconv.Itoa(d.cfg.Webserver.Port))
	errc := make(chan error, 1)

	go func() {
		log.Info().Str("addr", addr).Msg("starting http server")
		errc <- d.webService.Start(addr)
	}()

	go d.webService.WaitShutdown()

	err := <-errc

	d.synchronizer.Wait()
	d.close()

	return err
}

// close releases the connections held by the daemon.
func (d *Daemon) close() {
	if err := d.publisher.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close event publisher")
	}

	if d.ledger != nil {
		if err := d.ledger.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close delivery ledger")
		}
	}

	if sqlDB, err := d.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// Migrate connects to the configured database and migrates every registered model.
func Migrate(cfg *config.Config) (*gorm.DB, error) {
	db, err := connect.Open(cfg)
	if err != nil {
		return nil, err
	}

	if err = models.Registry().Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Debug().Strs("models", models.Registry().Names()).Msg("database migrated")

	return db, nil
}

var _ gate.SessionVerifier = (*clerk.SessionVerifier)(nil)
