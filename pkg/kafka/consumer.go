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

// MessageHandler processes one message. A nil return commits the offset;
// an error leaves it uncommitted for redelivery.
type MessageHandler func(ctx context.Context, key, value []byte) error

// Consumer runs a fetch, handle, commit loop over one topic within a
// consumer group.
type Consumer struct {
	reader  *kafka.Reader
	handler MessageHandler
	log     *slog.Logger
}

// NewConsumer builds a consumer for topic in the configured group,
// starting from the latest offset on a fresh group.
func NewConsumer(cfg config.KafkaConfig, topic string, handler MessageHandler) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     cfg.Brokers,
			GroupID:     cfg.ConsumerGroup,
			Topic:       topic,
			MinBytes:    1 << 10,
			MaxBytes:    10 << 20,
			StartOffset: kafka.LastOffset,
		}),
		handler: handler,
		log:     slog.Default().With("component", "kafka-consumer", "topic", topic),
	}
}

// Start consumes until ctx is cancelled. Fetch errors back off briefly
// instead of spinning; handler errors skip the commit so the message is
// redelivered.
func (c *Consumer) Start(ctx context.Context) error {
	const fetchBackoff = time.Second

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.log.Info("consumer stopping", "reason", ctx.Err())
				return nil
			}
			c.log.Error("fetch failed", "error", err)
			select {
			case <-time.After(fetchBackoff):
				continue
			case <-ctx.Done():
				return nil
			}
		}

		if err := c.handler(ctx, msg.Key, msg.Value); err != nil {
			c.log.Error("handler failed, message left uncommitted",
				"partition", msg.Partition, "offset", msg.Offset, "error", err)
			continue
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.log.Error("commit failed",
				"partition", msg.Partition, "offset", msg.Offset, "error", err)
		}
	}
}

// Close releases the reader and its group membership.
func (c *Consumer) Close() error {
	return c.reader.Close()
}

// DecodeJSON unmarshals a message value into T.
func DecodeJSON[T any](value []byte) (T, error) {
	var out T
	if err := json.Unmarshal(value, &out); err != nil {
		return out, fmt.Errorf("decoding message: %w", err)
	}
	return out, nil
}
