package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/cryptohub/matching-engine/internal/domain"
	"github.com/cryptohub/matching-engine/internal/port"
)

var _ port.Publisher = (*Publisher)(nil)

// Topics names the three outbound channels: transactions with no fills,
// settled trades, and full-book updates for the depth broadcast.
type Topics struct {
	Pending      string
	Transactions string
	OrderBook    string
}

// Publisher writes matching outcomes to Kafka. Every message is keyed by
// asset so consumers see per-asset order, and carries a dedup-id header for
// downstream deduplication.
type Publisher struct {
	pending      *kafka.Writer
	transactions *kafka.Writer
	book         *kafka.Writer
}

func NewPublisher(brokers []string, topics Topics) *Publisher {
	return &Publisher{
		pending:      newWriter(brokers, topics.Pending),
		transactions: newWriter(brokers, topics.Transactions),
		book:         newWriter(brokers, topics.OrderBook),
	}
}

func newWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		BatchTimeout: 10 * time.Millisecond,
	}
}

// PublishTransaction routes single-order (pending) transactions and settled
// trades to their respective topics. Pending transactions are flattened to
// the bare order, matching what the settlement consumers expect.
func (p *Publisher) PublishTransaction(ctx context.Context, tx *domain.Transaction) error {
	writer := p.transactions
	var payload any = tx
	if tx.Pending() {
		writer = p.pending
		payload = tx.Taker()
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("kafka: encode transaction %s: %w", tx.ID, err)
	}
	msg := kafka.Message{
		Key:   []byte(tx.Taker().Asset),
		Value: body,
		Headers: []kafka.Header{
			{Key: "dedup-id", Value: []byte(uuid.NewString())},
		},
	}
	if err := writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: publish transaction %s: %w", tx.ID, err)
	}
	return nil
}

func (p *Publisher) PublishBook(ctx context.Context, update domain.BookUpdate) error {
	body, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("kafka: encode book update %s: %w", update.Asset, err)
	}
	msg := kafka.Message{
		Key:   []byte(update.Asset),
		Value: body,
		Headers: []kafka.Header{
			{Key: "dedup-id", Value: []byte(uuid.NewString())},
		},
	}
	if err := p.book.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: publish book update %s: %w", update.Asset, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	var firstErr error
	for _, w := range []*kafka.Writer{p.pending, p.transactions, p.book} {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
