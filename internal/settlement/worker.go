package settlement

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/cryptohub/matching-engine/internal/domain"
	"github.com/cryptohub/matching-engine/internal/port"
)

// Worker persists matching outcomes delivered on the transaction topics.
// Settled trades arrive as full transactions; pending orders arrive bare and
// are wrapped so their book placement is recorded too. Persistence errors
// propagate to the consumer, which leaves the message for redelivery.
type Worker struct {
	store port.SettlementStore
	log   *slog.Logger
}

func NewWorker(store port.SettlementStore, log *slog.Logger) *Worker {
	if log == nil {
		log = slog.Default()
	}
	return &Worker{store: store, log: log.With("component", "settlement")}
}

// HandleSettled persists a multi-order transaction from the settled topic.
// Undecodable payloads can never succeed and are dropped so they do not
// wedge the consumer; store failures propagate for redelivery.
func (w *Worker) HandleSettled(ctx context.Context, _, value []byte) error {
	var tx domain.Transaction
	if err := json.Unmarshal(value, &tx); err != nil {
		w.log.Error("dropping undecodable transaction message", "err", err)
		return nil
	}
	if err := w.store.SaveTransaction(ctx, &tx); err != nil {
		return err
	}
	w.log.Info("transaction settled", "transaction", tx.ID, "orders", len(tx.Orders))
	return nil
}

// HandlePending persists a queued order from the pending topic. The order id
// doubles as the transaction id so redeliveries stay idempotent.
func (w *Worker) HandlePending(ctx context.Context, _, value []byte) error {
	var order domain.Order
	if err := json.Unmarshal(value, &order); err != nil {
		w.log.Error("dropping undecodable pending-order message", "err", err)
		return nil
	}
	tx := &domain.Transaction{
		ID:        order.ID,
		Orders:    []domain.Order{order},
		CreatedAt: order.UpdatedAt,
	}
	if err := w.store.SaveTransaction(ctx, tx); err != nil {
		return err
	}
	w.log.Info("pending order recorded", "order", order.ID, "asset", order.Asset)
	return nil
}
