// Package ingest consumes document events from Kafka and applies them to
// the index service.
package ingest

import (
	"context"
	"log/slog"

	"github.com/searchlite/searchlite/internal/service"
	"github.com/searchlite/searchlite/pkg/kafka"
	"github.com/searchlite/searchlite/pkg/logger"
)

// DocumentEvent is the wire form of one ingestion message.
type DocumentEvent struct {
	Op   string `json:"op"` // "index" (default) or "delete"
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Consumer wraps a Kafka consumer that drives the indexing pipeline.
type Consumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

// New creates a Consumer backed by the given Kafka consumer.
func New(kafkaConsumer *kafka.Consumer) *Consumer {
	return &Consumer{
		consumer: kafkaConsumer,
		logger:   logger.WithComponent("ingest-consumer"),
	}
}

// Start begins consuming. It blocks until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("ingest consumer starting")
	return c.consumer.Start(ctx)
}

// Close closes the underlying Kafka reader.
func (c *Consumer) Close() error {
	return c.consumer.Close()
}

// HandleMessage returns a kafka.MessageHandler that applies each document
// event to the service. Malformed events and events without an ID are
// logged and skipped rather than retried; they would fail identically on
// every redelivery.
func HandleMessage(svc *service.Service) kafka.MessageHandler {
	log := logger.WithComponent("ingest-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[DocumentEvent](value)
		if err != nil {
			log.Error("failed to decode document event", "key", string(key), "error", err)
			return nil
		}
		if event.ID == "" {
			log.Error("document event without id", "key", string(key))
			return nil
		}

		switch event.Op {
		case "delete":
			svc.Remove(ctx, event.ID)
			log.Info("document deleted", "doc_id", event.ID)
		case "index", "":
			svc.Add(ctx, event.ID, event.Text)
			log.Info("document indexed", "doc_id", event.ID, "length", len(event.Text))
		default:
			log.Error("unknown document event op", "op", event.Op, "doc_id", event.ID)
		}
		return nil
	}
}
