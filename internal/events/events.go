package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"

	"github.com/illegalcall/cofoundr-waitlist/internal/models"
)

// Publisher announces waitlist milestones.
type Publisher interface {
	Publish(ctx context.Context, ev models.Event) error
}

// New builds an event for acct with a fresh id.
func New(t models.EventType, acct models.Account) models.Event {
	return models.Event{
		ID:         uuid.NewString(),
		Type:       t,
		UserID:     acct.ID,
		Email:      acct.Email,
		OccurredAt: time.Now().UTC(),
	}
}

// KafkaPublisher sends events to a topic, keyed by user id so that one
// user's events stay ordered.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *slog.Logger
}

func NewKafkaPublisher(producer sarama.SyncProducer, topic string, logger *slog.Logger) *KafkaPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaPublisher{producer: producer, topic: topic, logger: logger}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev models.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(ev.UserID),
		Value: sarama.ByteEncoder(value),
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", ev.Type, err)
	}

	p.logger.Info("Event published", "type", ev.Type, "event_id", ev.ID, "partition", partition, "offset", offset)
	return nil
}

// Noop drops every event. It is used when Kafka is disabled.
type Noop struct{}

func (Noop) Publish(context.Context, models.Event) error { return nil }
