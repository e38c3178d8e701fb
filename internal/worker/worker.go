package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/redis/go-redis/v9"
	"github.com/tidwall/gjson"

	"github.com/illegalcall/cofoundr-waitlist/internal/config"
	"github.com/illegalcall/cofoundr-waitlist/internal/models"
)

// ErrInvalidEvent marks messages that can never be processed.
var ErrInvalidEvent = errors.New("invalid event")

var requiredFields = []string{"id", "type", "user_id", "email"}

// EventHandler performs the side effect for one event.
type EventHandler interface {
	Handle(ctx context.Context, ev models.Event) (models.Result, error)
}

type Worker struct {
	cfg       *config.Config
	redis     *redis.Client
	consumer  sarama.ConsumerGroup
	handler   EventHandler
	ready     chan bool
	readyOnce sync.Once
}

func NewWorker(cfg *config.Config, rdb *redis.Client, consumer sarama.ConsumerGroup, handler EventHandler) *Worker {
	slog.Info("Initializing new Worker")
	return &Worker{
		cfg:      cfg,
		redis:    rdb,
		consumer: consumer,
		handler:  handler,
		ready:    make(chan bool),
	}
}

func (w *Worker) Start(ctx context.Context) error {
	topics := []string{w.cfg.Kafka.Topic}
	slog.Info("Starting worker", "topics", topics)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	// Start error logging for consumer errors
	go func() {
		for err := range w.consumer.Errors() {
			slog.Error("Kafka consumer error received", "error", err)
		}
	}()

	// Start consuming messages
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if err := w.consumer.Consume(ctx, topics, w); err != nil {
				slog.Error("Error from consumer.Consume", "error", err)
			}
			if ctx.Err() != nil {
				slog.Info("Context error detected, exiting consumer loop", "error", ctx.Err())
				return
			}
		}
	}()

	select {
	case <-w.ready:
		slog.Info("Worker setup complete; consumer ready")
	case <-ctx.Done():
	}

	// Wait for shutdown signal
	select {
	case sig := <-sigChan:
		slog.Info("Received shutdown signal", "signal", sig)
	case <-ctx.Done():
		slog.Info("Context cancelled; shutting down worker")
	}

	cancel()
	<-done
	slog.Info("Worker shutting down gracefully")
	return nil
}

// Setup is run at the beginning of a new session, before ConsumeClaim.
func (w *Worker) Setup(sarama.ConsumerGroupSession) error {
	slog.Info("Consumer group session setup complete")
	w.readyOnce.Do(func() { close(w.ready) })
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited.
func (w *Worker) Cleanup(sarama.ConsumerGroupSession) error {
	slog.Info("Consumer group session cleanup complete")
	return nil
}

// ConsumeClaim must start a consumer loop of ConsumerGroupClaim's Messages().
func (w *Worker) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		slog.Info("Message received from Kafka", "offset", message.Offset, "partition", message.Partition)
		if err := w.processEvent(session.Context(), message); err != nil {
			slog.Error("Failed to process event", "offset", message.Offset, "error", err)
		}
		session.MarkMessage(message, "")
	}
	return nil
}

func dedupeKey(eventID string) string {
	return "event:" + eventID + ":handled"
}

func (w *Worker) processEvent(ctx context.Context, msg *sarama.ConsumerMessage) error {
	ev, err := parseEvent(msg.Value)
	if err != nil {
		slog.Error("Dropping malformed event", "error", err, "raw", string(msg.Value))
		return err
	}

	// Redeliveries of an event that was already handled are skipped.
	claimed, err := w.redis.SetNX(ctx, dedupeKey(ev.ID), "processing", w.cfg.Redis.DedupeTTL).Result()
	if err != nil {
		return fmt.Errorf("failed to claim event %s: %w", ev.ID, err)
	}
	if !claimed {
		slog.Info("Skipping duplicate event", "event_id", ev.ID, "type", ev.Type)
		return nil
	}

	// Process event with retries
	var result models.Result
	attempts := max(1, w.cfg.Kafka.RetryMax)
retry:
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err = w.handler.Handle(ctx, ev)
		if err == nil {
			break
		}
		slog.Error("Event handling failed", "event_id", ev.ID, "attempt", attempt, "error", err)
		if attempt == attempts {
			break
		}
		select {
		case <-time.After(w.cfg.Kafka.RetryBackoff):
		case <-ctx.Done():
			err = ctx.Err()
			break retry
		}
	}

	if err != nil {
		// Release the claim so a later redelivery can try again.
		if delErr := w.redis.Del(context.Background(), dedupeKey(ev.ID)).Err(); delErr != nil {
			slog.Error("Failed to release event claim", "event_id", ev.ID, "error", delErr)
		}
		return fmt.Errorf("event %s failed after retries: %w", ev.ID, err)
	}

	if err := w.redis.Set(ctx, dedupeKey(ev.ID), "done", w.cfg.Redis.DedupeTTL).Err(); err != nil {
		slog.Error("Failed to mark event as handled", "event_id", ev.ID, "error", err)
	}
	slog.Info("Event processed successfully", "event_id", ev.ID, "type", ev.Type, "message", result.Message)
	return nil
}

// parseEvent checks the required fields with gjson before decoding.
func parseEvent(raw []byte) (models.Event, error) {
	if !gjson.ValidBytes(raw) {
		return models.Event{}, fmt.Errorf("%w: not JSON", ErrInvalidEvent)
	}
	for i, res := range gjson.GetManyBytes(raw, requiredFields...) {
		if res.Type != gjson.String || res.Str == "" {
			return models.Event{}, fmt.Errorf("%w: missing %s", ErrInvalidEvent, requiredFields[i])
		}
	}

	var ev models.Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return models.Event{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	return ev, nil
}
