// Package kafka wraps segmentio/kafka-go with a JSON event producer and a
// commit-after-handle consumer loop.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/searchlite/searchlite/pkg/config"
)

// Event pairs a partition key with a JSON-serializable value.
type Event struct {
	Key   string
	Value any
}

// Producer writes JSON events to one topic, batching internally and
// requiring acknowledgement from all replicas.
type Producer struct {
	writer *kafka.Writer
	log    *slog.Logger
}

// NewProducer builds a producer for topic. Keys hash to partitions, so
// events for the same document stay ordered.
func NewProducer(cfg config.KafkaConfig, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 10 * time.Millisecond,
			MaxAttempts:  3,
		},
		log: slog.Default().With("component", "kafka-producer", "topic", topic),
	}
}

// Publish writes a single event synchronously.
func (p *Producer) Publish(ctx context.Context, event Event) error {
	return p.PublishBatch(ctx, []Event{event})
}

// PublishBatch marshals and writes events in one call.
func (p *Producer) PublishBatch(ctx context.Context, events []Event) error {
	msgs := make([]kafka.Message, len(events))
	for i, ev := range events {
		value, err := json.Marshal(ev.Value)
		if err != nil {
			return fmt.Errorf("encoding event %q: %w", ev.Key, err)
		}
		msgs[i] = kafka.Message{Key: []byte(ev.Key), Value: value}
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.log.Error("publish failed", "events", len(msgs), "error", err)
		return fmt.Errorf("writing to %s: %w", p.writer.Topic, err)
	}
	p.log.Debug("events published", "count", len(msgs))
	return nil
}

// Close flushes and releases the writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
