package port

import (
	"context"

	"github.com/cryptohub/matching-engine/internal/domain"
)

// BookStore persists the resting orders for one (asset, side) pair in a
// remote price-scored collection. It is the sole source of truth for book
// state; the engine performs a fresh Load, mutates a working copy and writes
// the full replacement back with Replace. Two callers racing on the same key
// get last-writer-wins semantics; serialisation per asset is the transport's
// job (the intake topic is partitioned by asset).
type BookStore interface {
	// Load returns all resting orders best-price-first: ascending price for
	// the SELL book, descending for BUY. Ordering among equal-priced orders
	// is adapter-specific (the in-memory store keeps insertion order, the
	// Redis store sorts ties by encoded member); the engine matches in
	// whatever order Load returns. A missing key yields an empty slice, not
	// an error.
	Load(ctx context.Context, asset string, side domain.Side) ([]domain.Order, error)

	// Replace deletes the prior set and stores orders scored by price.
	// An empty set deletes the key outright. Orders without an id are
	// assigned one before writing.
	Replace(ctx context.Context, asset string, side domain.Side, orders []domain.Order) error
}

// Notifier delivers order-state updates to the order's callback endpoint.
// Delivery is fire-and-forget: Notify must not block the matching loop and
// failures must not roll back book mutations.
type Notifier interface {
	Notify(order domain.Order, message string, locked bool)
}

// Publisher hands matching outcomes to downstream consumers. Transaction
// publishing failures are correctness incidents and must propagate; the
// caller retries or dead-letters the whole processing cycle.
type Publisher interface {
	// PublishTransaction routes a single-order (pending) transaction and a
	// multi-order (settled trade) transaction to different channels.
	PublishTransaction(ctx context.Context, tx *domain.Transaction) error

	// PublishBook emits the current resting state of an asset's book for the
	// public depth broadcast.
	PublishBook(ctx context.Context, update domain.BookUpdate) error
}

// SettlementStore persists completed transactions and owns the terminal
// OPEN -> CLOSED transition for fully filled orders.
type SettlementStore interface {
	SaveTransaction(ctx context.Context, tx *domain.Transaction) error
}
