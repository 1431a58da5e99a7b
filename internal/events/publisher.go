package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	kafka "github.com/segmentio/kafka-go"

	"github.com/imaginify/usersync/internal/config"
	"github.com/imaginify/usersync/internal/db/models"
)

// Publisher emits user lifecycle events.
type Publisher interface {
	UserSynced(ctx context.Context, source string, u *models.User) error
	UserDeleted(ctx context.Context, u *models.User) error
	Close() error
}

// messageWriter is the part of kafka.Writer the producer uses, swapped for a mock in tests.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...writerMessage) error
	Close() error
}

type writerMessage struct {
	Topic string
	Key   []byte
	Value []byte
}

type kafkaGoWriter struct {
	w *kafka.Writer
}

func (k *kafkaGoWriter) WriteMessages(ctx context.Context, msgs ...writerMessage) error {
	kafkaMsgs := make([]kafka.Message, len(msgs))
	for i, m := range msgs {
		kafkaMsgs[i] = kafka.Message{
			Topic: m.Topic,
			Key:   m.Key,
			Value: m.Value,
		}
	}

	return k.w.WriteMessages(ctx, kafkaMsgs...)
}

func (k *kafkaGoWriter) Close() error {
	return k.w.Close()
}

// KafkaPublisher writes events to a kafka topic, keyed by external id so all
// events of one user land on the same partition.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	now    func() time.Time
}

// NewKafkaPublisher returns a publisher for the configured brokers and topic.
func NewKafkaPublisher(cfg config.Events) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: cfg.Timeout,
	}

	return &KafkaPublisher{
		writer: &kafkaGoWriter{w: w},
		topic:  cfg.Topic,
		now:    time.Now,
	}
}

// New returns a KafkaPublisher when brokers are configured, a Nop publisher otherwise.
func New(cfg config.Events) Publisher {
	if !cfg.Enabled() {
		return Nop{}
	}

	return NewKafkaPublisher(cfg)
}

// UserSynced publishes a UserSynced event for u.
func (p *KafkaPublisher) UserSynced(ctx context.Context, source string, u *models.User) error {
	return p.publish(ctx, u.ExternalID, UserSynced{
		Type:        TypeUserSynced,
		UserID:      u.ID,
		ExternalID:  u.ExternalID,
		Email:       u.Email,
		Username:    u.Username,
		DisplayName: displayName(u),
		Source:      source,
		SyncedAt:    p.now().UTC(),
	})
}

// UserDeleted publishes a UserDeleted event for u.
func (p *KafkaPublisher) UserDeleted(ctx context.Context, u *models.User) error {
	return p.publish(ctx, u.ExternalID, UserDeleted{
		Type:       TypeUserDeleted,
		UserID:     u.ID,
		ExternalID: u.ExternalID,
		DeletedAt:  p.now().UTC(),
	})
}

func (p *KafkaPublisher) publish(ctx context.Context, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to serialize user event: %w", err)
	}

	msg := writerMessage{
		Topic: p.topic,
		Key:   []byte(key),
		Value: data,
	}

	if err = p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish user event: %w", err)
	}

	return nil
}

// Close flushes and closes the kafka writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func displayName(u *models.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}

	return name
}

// Nop discards every event.
type Nop struct{}

func (Nop) UserSynced(context.Context, string, *models.User) error { return nil }
func (Nop) UserDeleted(context.Context, *models.User) error        { return nil }
func (Nop) Close() error                                           { return nil }
