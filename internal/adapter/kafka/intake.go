package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/cryptohub/matching-engine/internal/domain"
)

// Intake submits accepted orders to the matching workers. Messages are keyed
// by asset: all orders for one asset land on one partition, so exactly one
// matcher rewrites that asset's book at a time and the store's last-writer-
// wins race never materialises.
type Intake struct {
	writer *kafka.Writer
}

func NewIntake(brokers []string, topic string) *Intake {
	return &Intake{writer: newWriter(brokers, topic)}
}

func (i *Intake) Submit(ctx context.Context, order *domain.Order) error {
	body, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("kafka: encode order %s: %w", order.ID, err)
	}
	msg := kafka.Message{
		Key:   []byte(order.Asset),
		Value: body,
		Headers: []kafka.Header{
			{Key: "dedup-id", Value: []byte(uuid.NewString())},
		},
	}
	if err := i.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: submit order %s: %w", order.ID, err)
	}
	return nil
}

func (i *Intake) Close() error {
	return i.writer.Close()
}
