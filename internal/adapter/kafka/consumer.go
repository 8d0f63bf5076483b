package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

// messageReader is the slice of kafka.Reader the consume loop uses, split out
// so the loop can be driven without a broker.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads one topic within a consumer group and feeds each message to
// a handler. Offsets are committed only after the handler succeeds, so a
// failed message is redelivered instead of lost.
type Consumer struct {
	reader messageReader
	log    *slog.Logger
}

func NewConsumer(brokers []string, topic, groupID string, log *slog.Logger) *Consumer {
	if log == nil {
		log = slog.Default()
	}
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: brokers,
			Topic:   topic,
			GroupID: groupID,
		}),
		log: log.With("component", "consumer", "topic", topic),
	}
}

// Run blocks until ctx is cancelled, delivering messages in partition order.
// A handler error stops the loop with the offset uncommitted: group commits
// are cumulative, so committing any later message would mark the failed one
// consumed forever. On restart the group resumes from the last committed
// offset and the failed message is redelivered. Handlers decide what is
// retryable; messages that can never succeed (e.g. undecodable payloads)
// must return nil to be acknowledged and skipped.
func (c *Consumer) Run(ctx context.Context, handle func(ctx context.Context, key, value []byte) error) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("kafka: fetch: %w", err)
		}

		if err := handle(ctx, msg.Key, msg.Value); err != nil {
			c.log.Error("message handling failed, stopping for redelivery",
				"partition", msg.Partition,
				"offset", msg.Offset,
				"err", err)
			return fmt.Errorf("kafka: handle message at partition %d offset %d: %w", msg.Partition, msg.Offset, err)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return fmt.Errorf("kafka: commit partition %d offset %d: %w", msg.Partition, msg.Offset, err)
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
