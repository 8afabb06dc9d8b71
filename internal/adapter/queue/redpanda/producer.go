// Package redpanda publishes interview lifecycle events to Redpanda/Kafka.
//
// Events are best-effort analytics signals: publish failures are logged by
// callers and never fail an interview request.
package redpanda

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/Guneshbari/mock-mentor/internal/domain"
)

const (
	// TopicInterviewEvents is the Kafka topic for session lifecycle events.
	TopicInterviewEvents = "interview-events"
)

// Producer wraps a Kafka producer and implements domain.EventPublisher.
type Producer struct {
	client *kgo.Client
	topic  string
}

// NewProducer constructs a Producer and ensures the events topic exists.
func NewProducer(brokers []string) (*Producer, error) {
	slog.Info("creating redpanda producer", slog.Any("brokers", brokers))

	if len(brokers) == 0 {
		return nil, fmt.Errorf("no seed brokers provided")
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.RequestRetries(10),
		kgo.ProducerBatchMaxBytes(1000000),
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		slog.Error("failed to create redpanda client", slog.Any("error", err))
		return nil, fmt.Errorf("redpanda client: %w", err)
	}

	ctx := context.Background()
	if err := createTopicIfNotExists(ctx, client, TopicInterviewEvents, 1, 1); err != nil {
		slog.Warn("failed to create topic, it may already exist",
			slog.String("topic", TopicInterviewEvents),
			slog.Any("error", err))
		// Don't fail if topic creation fails - it might already exist
	}

	slog.Info("redpanda producer created successfully")
	return &Producer{
		client: client,
		topic:  TopicInterviewEvents,
	}, nil
}

// Publish produces one lifecycle event keyed by session id so per-session
// ordering is preserved.
func (p *Producer) Publish(ctx domain.Context, ev domain.SessionEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("op=redpanda.Publish: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(ev.SessionID),
		Value: b,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(ev.Type)},
		},
	}

	res := p.client.ProduceSync(ctx, record)
	if err := res.FirstErr(); err != nil {
		slog.Error("failed to publish session event",
			slog.String("session_id", ev.SessionID),
			slog.String("event_type", string(ev.Type)),
			slog.Any("error", err))
		return fmt.Errorf("op=redpanda.Publish: %w", err)
	}

	slog.Info("session event published",
		slog.String("session_id", ev.SessionID),
		slog.String("event_type", string(ev.Type)))
	return nil
}

// Close flushes pending records and closes the client. The flush error is
// returned so callers can log undelivered events.
func (p *Producer) Close() error {
	if p.client == nil {
		return nil
	}
	err := p.client.Flush(context.Background())
	p.client.Close()
	if err != nil {
		return fmt.Errorf("op=redpanda.Close: %w", err)
	}
	return nil
}
