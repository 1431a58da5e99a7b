package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/imaginify/usersync/internal/db/models"
	"github.com/imaginify/usersync/internal/events"
)

const defaultTaskTimeout = 10 * time.Second

// Store is the user record store the events are applied to.
type Store interface {
	Create(ctx context.Context, u *models.User) (*models.User, error)
	UpdateProfile(ctx context.Context, externalID string, p models.Profile) (*models.User, error)
	// DeleteByExternalID returns nil, nil when the user does not exist.
	DeleteByExternalID(ctx context.Context, externalID string) (*models.User, error)
}

// MetadataPublisher writes the internal user id to the provider's account metadata.
type MetadataPublisher interface {
	PublishUserID(ctx context.Context, externalID string, userID uint64) error
}

// Outcome describes what Handle did with a verified delivery.
type Outcome struct {
	Type string

	// Ignored is set for event types without a store operation.
	Ignored bool

	// Duplicate is set when the message id was already processed.
	Duplicate bool

	// User is the created, updated or deleted record. Nil after deleting a missing user.
	User *models.User
}

// Options configure a Synchronizer. Only Store and Verifier are required.
type Options struct {
	Store    Store
	Verifier *Verifier
	Metadata MetadataPublisher
	Events   events.Publisher
	Ledger   *Ledger

	// TaskTimeout bounds every best-effort task, 10s if zero.
	TaskTimeout time.Duration
}

// Synchronizer verifies deliveries and applies them to the Store.
type Synchronizer struct {
	store       Store
	verifier    *Verifier
	metadata    MetadataPublisher
	events      events.Publisher
	ledger      *Ledger
	taskTimeout time.Duration

	tasks sync.WaitGroup
}

// New returns a Synchronizer.
func New(opts Options) *Synchronizer {
	s := &Synchronizer{
		store:       opts.Store,
		verifier:    opts.Verifier,
		metadata:    opts.Metadata,
		events:      opts.Events,
		ledger:      opts.Ledger,
		taskTimeout: opts.TaskTimeout,
	}

	if s.events == nil {
		s.events = events.Nop{}
	}

	if s.taskTimeout <= 0 {
		s.taskTimeout = defaultTaskTimeout
	}

	return s
}

// Handle verifies body against h and applies the event it carries.
//
// Errors matching IsBadRequest are returned before the store is touched.
// Any other error comes from the store.
func (s *Synchronizer) Handle(ctx context.Context, body []byte, h Headers) (Outcome, error) {
	if !h.Complete() {
		countEvent("", outcomeRejected)
		return Outcome{}, ErrMissingHeaders
	}

	if err := s.verifier.Verify(body, h); err != nil {
		countEvent("", outcomeRejected)
		return Outcome{}, err
	}

	var evt Event
	if err := json.Unmarshal(body, &evt); err != nil {
		countEvent("", outcomeRejected)
		return Outcome{}, fmt.Errorf("%w: %w", ErrMapping, err)
	}

	if s.ledger != nil {
		seen, err := s.ledger.Seen(h.ID)
		if err != nil {
			log.Warn().Err(err).Str(HeaderID, h.ID).Msg("failed to look up webhook delivery, processing it")
		}

		if seen {
			log.Info().Str(HeaderID, h.ID).Str("type", evt.Type).Msg("webhook delivery already processed")
			countEvent(classifiedType(evt.Type), outcomeDuplicate)

			return Outcome{Type: evt.Type, Duplicate: true}, nil
		}
	}

	out, err := s.dispatch(ctx, evt)
	if err != nil {
		outcome := outcomeFailed
		if IsBadRequest(err) {
			outcome = outcomeRejected
		}
		countEvent(classifiedType(evt.Type), outcome)

		return out, err
	}

	if out.Ignored {
		log.Info().
			Str(HeaderID, h.ID).
			Str("type", evt.Type).
			RawJSON("body", body).
			Msg("ignoring webhook event")
		countEvent(classifiedType(evt.Type), outcomeIgnored)
	} else {
		countEvent(evt.Type, outcomeApplied)
	}

	if s.ledger != nil {
		if err = s.ledger.Record(h.ID, evt.Type); err != nil {
			log.Warn().Err(err).Str(HeaderID, h.ID).Msg("failed to record webhook delivery")
		}
	}

	return out, nil
}

func (s *Synchronizer) dispatch(ctx context.Context, evt Event) (Outcome, error) {
	out := Outcome{Type: evt.Type}

	switch evt.Type {
	case EventUserCreated:
		u, err := MapCreated(evt.Data)
		if err != nil {
			return out, err
		}

		created, err := s.store.Create(ctx, u)
		if err != nil {
			return out, fmt.Errorf("failed to create user %s: %w", u.ExternalID, err)
		}

		out.User = created
		s.afterCreate(created)
		s.publishSynced(evt.Type, created)
	case EventUserUpdated:
		id, p, err := MapUpdated(evt.Data)
		if err != nil {
			return out, err
		}

		updated, err := s.store.UpdateProfile(ctx, id, p)
		if err != nil {
			return out, fmt.Errorf("failed to update user %s: %w", id, err)
		}

		out.User = updated
		s.publishSynced(evt.Type, updated)
	case EventUserDeleted:
		id, err := MapDeleted(evt.Data)
		if err != nil {
			return out, err
		}

		deleted, err := s.store.DeleteByExternalID(ctx, id)
		if err != nil {
			return out, fmt.Errorf("failed to delete user %s: %w", id, err)
		}

		out.User = deleted
		if deleted != nil {
			s.publishDeleted(deleted)
		}
	default:
		out.Ignored = true
	}

	return out, nil
}

func (s *Synchronizer) afterCreate(u *models.User) {
	if s.metadata == nil {
		return
	}

	externalID, userID := u.ExternalID, u.ID

	s.goTask("metadata", func(ctx context.Context) error {
		return s.metadata.PublishUserID(ctx, externalID, userID)
	})
}

func (s *Synchronizer) publishSynced(source string, u *models.User) {
	snapshot := *u

	s.goTask("user_synced_event", func(ctx context.Context) error {
		return s.events.UserSynced(ctx, source, &snapshot)
	})
}

func (s *Synchronizer) publishDeleted(u *models.User) {
	snapshot := *u

	s.goTask("user_deleted_event", func(ctx context.Context) error {
		return s.events.UserDeleted(ctx, &snapshot)
	})
}

// goTask runs fn detached from the request with its own timeout.
// A failure is logged and counted, nothing else.
func (s *Synchronizer) goTask(name string, fn func(ctx context.Context) error) {
	s.tasks.Add(1)

	go func() {
		defer s.tasks.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.taskTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			sideEffectFailures.WithLabelValues(name).Inc()
			log.Error().Err(err).Str("task", name).Msg("webhook side effect failed")
		}
	}()
}

// Wait blocks until all best-effort tasks started so far have finished.
func (s *Synchronizer) Wait() {
	s.tasks.Wait()
}

func classifiedType(t string) string {
	switch t {
	case EventUserCreated, EventUserUpdated, EventUserDeleted:
		return t
	default:
		return "other"
	}
}
