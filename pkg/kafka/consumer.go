// Package kafka wraps segmentio/kafka-go with a JSON producer and a
// commit-after-success consumer loop.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/text-analytics/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/text-analytics/pkg/resilience"
	"github.com/segmentio/kafka-go"
)

// MessageHandler processes one message. A failed message is retried in
// place, so the consumer does not move past it until the handler succeeds,
// returns ErrSkip, or the consumer is stopped.
type MessageHandler func(ctx context.Context, key []byte, value []byte) error

// ErrSkip marks a message the handler can never process. It is committed so
// the group moves past it.
var ErrSkip = errors.New("skip message")

const fetchBackoff = 500 * time.Millisecond

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads a topic as part of the configured consumer group.
type Consumer struct {
	reader     messageReader
	logger     *slog.Logger
	handler    MessageHandler
	retry      resilience.RetryConfig
	retryPause time.Duration
}

func NewConsumer(cfg config.KafkaConfig, topic string, handler MessageHandler) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       topic,
		GroupID:     cfg.ConsumerGroup,
		MinBytes:    1,
		MaxBytes:    16 << 20,
		StartOffset: kafka.FirstOffset,
	})
	return &Consumer{
		reader:  r,
		logger:  slog.Default().With("component", "kafka-consumer", "topic", topic),
		handler: handler,
		retry: resilience.RetryConfig{
			MaxAttempts:  5,
			InitialDelay: 200 * time.Millisecond,
			MaxDelay:     5 * time.Second,
		},
		retryPause: 5 * time.Second,
	}
}

// Start consumes until ctx is cancelled, then closes the reader.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started")
	defer c.reader.Close()
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopping", "reason", ctx.Err())
				return nil
			}
			c.logger.Error("failed to fetch message", "error", err)
			select {
			case <-time.After(fetchBackoff):
				continue
			case <-ctx.Done():
				return nil
			}
		}

		if !c.process(ctx, msg) {
			c.logger.Info("consumer stopping", "reason", ctx.Err(), "uncommitted_offset", msg.Offset)
			return nil
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("failed to commit message",
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
		}
	}
}

// process runs the handler on msg until it succeeds or skips the message,
// reporting whether msg may be committed. It returns false only once ctx
// has ended.
func (c *Consumer) process(ctx context.Context, msg kafka.Message) bool {
	for {
		var skipped error
		err := resilience.Retry(ctx, "kafka-handler", c.retry, func(ctx context.Context) error {
			err := c.handler(ctx, msg.Key, msg.Value)
			if errors.Is(err, ErrSkip) {
				skipped = err
				return nil
			}
			return err
		})
		if err == nil {
			if skipped != nil {
				c.logger.Warn("skipping message",
					"partition", msg.Partition,
					"offset", msg.Offset,
					"error", skipped,
				)
			}
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		c.logger.Error("failed to process message, holding offset",
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", err,
		)
		select {
		case <-time.After(c.retryPause):
		case <-ctx.Done():
			return false
		}
	}
}

// DecodeJSON unmarshals a message value into T. Decoding failures wrap
// ErrSkip since redelivery cannot fix them.
func DecodeJSON[T any](value []byte) (T, error) {
	var result T
	if err := json.Unmarshal(value, &result); err != nil {
		return result, fmt.Errorf("decoding kafka message: %w: %w", ErrSkip, err)
	}
	return result, nil
}
