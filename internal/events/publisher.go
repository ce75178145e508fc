// Package events publishes hunt lifecycle events to Kafka.
//
// Publishing is fire-and-forget: the writer runs in async mode and delivery
// failures are logged, never propagated to the hunt path. A disabled
// publisher (no brokers configured) is a no-op.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/helixir/paper-retrieval-service/internal/domain"
)

// DefaultTopic is the Kafka topic for hunt lifecycle events.
const DefaultTopic = "events.paper_retrieval"

// messageWriter is the subset of kafka.Writer used by the publisher.
// It allows tests to inject a fake without a running broker.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Config holds configuration for the Kafka publisher.
type Config struct {
	// Brokers is the list of Kafka broker addresses. Empty disables publishing.
	Brokers []string
	// Topic is the Kafka topic for hunt events.
	Topic string
	// WriteTimeout bounds a single async flush.
	WriteTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.Topic == "" {
		c.Topic = DefaultTopic
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
}

// Publisher writes hunt lifecycle events to a Kafka topic.
type Publisher struct {
	writer  messageWriter
	topic   string
	enabled bool
	logger  zerolog.Logger
}

// NewPublisher creates a Kafka-backed publisher. When cfg.Brokers is empty
// the publisher is a no-op.
func NewPublisher(cfg Config, logger zerolog.Logger) *Publisher {
	cfg.applyDefaults()

	p := &Publisher{
		topic:  cfg.Topic,
		logger: logger.With().Str("component", "event_publisher").Logger(),
	}

	if len(cfg.Brokers) == 0 {
		return p
	}

	p.enabled = true
	p.writer = &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Completion: func(msgs []kafka.Message, err error) {
			if err != nil {
				p.logger.Error().Err(err).
					Int("messages", len(msgs)).
					Msg("failed to deliver events to Kafka")
			}
		},
	}

	return p
}

// Publish writes a lifecycle event keyed by its aggregate ID so events for
// the same paper land on the same partition. With the async writer this
// returns as soon as the message is enqueued.
func (p *Publisher) Publish(ctx context.Context, event *domain.Event) error {
	if event == nil {
		return fmt.Errorf("event is required")
	}
	if !p.enabled {
		p.logger.Debug().
			Str("event_type", event.EventType).
			Msg("event publishing disabled, dropping event")
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(event.AggregateID),
		Value: event.Payload,
		Time:  event.CreatedAt,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.EventID)},
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "event_version", Value: []byte(fmt.Sprintf("%d", event.EventVersion))},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("enqueue event: %w", err)
	}

	p.logger.Debug().
		Str("event_id", event.EventID).
		Str("event_type", event.EventType).
		Str("aggregate_id", event.AggregateID).
		Msg("event enqueued")

	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	if p.writer == nil {
		return nil
	}
	p.logger.Info().Msg("closing event publisher")
	return p.writer.Close()
}
