package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cryptohub/matching-engine/internal/domain"
	"github.com/cryptohub/matching-engine/internal/port"
)

// Engine matches incoming orders against the opposite side of the cache-backed
// book under price priority. One Process call is one full cycle: liquidity
// pre-check, matching loop, book rewrite, notifications and transaction
// hand-off. The engine holds no book state between calls.
type Engine struct {
	store     port.BookStore
	notifier  port.Notifier
	publisher port.Publisher
	log       *slog.Logger
	now       func() time.Time
}

func NewEngine(store port.BookStore, notifier port.Notifier, publisher port.Publisher, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		store:     store,
		notifier:  notifier,
		publisher: publisher,
		log:       log.With("component", "engine"),
		now:       time.Now,
	}
}

// Process runs one matching cycle for the incoming order.
//
// It returns the resulting transaction (incoming order first, then every
// resting order it touched), or nil when a MARKET order is rejected for
// insufficient liquidity. Store and publish failures propagate so the caller
// can redeliver the order; notification failures never do.
func (e *Engine) Process(ctx context.Context, order *domain.Order) (*domain.Transaction, error) {
	if order.Quantity <= 0 {
		return nil, fmt.Errorf("process %s: quantity must be positive, got %v", order.ID, order.Quantity)
	}
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if order.Remaining == 0 {
		order.Remaining = order.Quantity
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = e.now()
	}

	book, err := e.store.Load(ctx, order.Asset, order.Side.Opposite())
	if err != nil {
		return nil, fmt.Errorf("load %s %s book: %w", order.Asset, order.Side.Opposite(), err)
	}

	// Liquidity pre-check: walk best-price-first, stop once enough acceptable
	// volume has been seen.
	available := 0.0
	for i := range book {
		if !e.acceptable(order, &book[i]) {
			continue
		}
		available += book[i].Remaining
		if available >= order.Remaining {
			break
		}
	}

	if available < order.Remaining {
		return e.handleShortfall(ctx, order, available)
	}

	tx, err := e.match(ctx, order, book)
	if err != nil {
		return nil, err
	}

	e.log.Info("order executed",
		"order", order.ID,
		"asset", order.Asset,
		"side", order.Side,
		"fills", len(tx.Orders)-1)
	return tx, nil
}

// handleShortfall is the insufficient-liquidity branch: LIMIT orders rest in
// their own book as PENDING, MARKET orders are rejected outright.
func (e *Engine) handleShortfall(ctx context.Context, order *domain.Order, available float64) (*domain.Transaction, error) {
	if order.Type == domain.Market {
		order.Status = domain.Rejected
		order.Touch(e.now())
		e.notifier.Notify(*order, rejectionMessage(order, available), true)
		e.log.Info("market order rejected",
			"order", order.ID,
			"asset", order.Asset,
			"side", order.Side,
			"shortfall", order.Remaining-available)
		return nil, nil
	}

	own, err := e.store.Load(ctx, order.Asset, order.Side)
	if err != nil {
		return nil, fmt.Errorf("load %s %s book: %w", order.Asset, order.Side, err)
	}

	order.Status = domain.Pending
	order.Touch(e.now())
	own = append(own, *order)
	if err := e.store.Replace(ctx, order.Asset, order.Side, own); err != nil {
		return nil, fmt.Errorf("queue order %s: %w", order.ID, err)
	}

	tx := e.newTransaction(*order)
	if err := e.publisher.PublishTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("publish pending transaction %s: %w", tx.ID, err)
	}
	if err := e.publishBook(ctx, order.Asset); err != nil {
		return nil, err
	}

	e.notifier.Notify(*order, queuedMessage(order), false)
	e.log.Info("order queued",
		"order", order.ID,
		"asset", order.Asset,
		"side", order.Side,
		"available", available)
	return tx, nil
}

// match walks the opposing book best-price-first, consuming resting orders
// until the incoming order is satisfied, then rewrites the book and emits the
// settled transaction. The pre-check guarantees enough acceptable volume.
func (e *Engine) match(ctx context.Context, order *domain.Order, book []domain.Order) (*domain.Transaction, error) {
	now := e.now()

	var fills []domain.Order
	var consumed []domain.Order
	remaining := book[:0]

	satisfied := false
	for i := range book {
		maker := &book[i]
		if satisfied || !e.acceptable(order, maker) {
			remaining = append(remaining, *maker)
			continue
		}

		maker.Touch(now)
		if maker.Remaining <= order.Remaining {
			// Fully consume the resting order.
			order.Remaining -= maker.Remaining
			maker.Remaining = 0
			maker.Status = domain.Open
			consumed = append(consumed, *maker)
			fills = append(fills, *maker)
		} else {
			// The resting order outsizes the remaining need: shrink it in
			// place and keep it in the book.
			maker.Remaining -= order.Remaining
			maker.Status = domain.Open
			fills = append(fills, *maker)
			remaining = append(remaining, *maker)
			order.Remaining = 0
			e.notifier.Notify(*maker, partialFillMessage(maker), true)
		}
		if order.Remaining == 0 {
			satisfied = true
		}
	}

	for i := range consumed {
		e.notifier.Notify(consumed[i], "Order filled", false)
	}

	order.Remaining = 0
	order.Status = domain.Open
	order.Touch(now)

	if err := e.store.Replace(ctx, order.Asset, order.Side.Opposite(), remaining); err != nil {
		return nil, fmt.Errorf("rewrite %s %s book: %w", order.Asset, order.Side.Opposite(), err)
	}

	tx := e.newTransaction(*order)
	tx.Orders = append(tx.Orders, fills...)
	if err := e.publisher.PublishTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("publish transaction %s: %w", tx.ID, err)
	}
	if err := e.publishBook(ctx, order.Asset); err != nil {
		return nil, err
	}

	e.notifier.Notify(*order, executedMessage(order), false)
	return tx, nil
}

// acceptable reports whether the resting order's price works for the taker.
// MARKET orders take any price; LIMIT buys need resting asks at or below
// their limit, LIMIT sells need resting bids at or above it.
func (e *Engine) acceptable(taker *domain.Order, maker *domain.Order) bool {
	if taker.Type == domain.Market {
		return true
	}
	if taker.Side == domain.Buy {
		return maker.Price <= taker.Price
	}
	return maker.Price >= taker.Price
}

func (e *Engine) publishBook(ctx context.Context, asset string) error {
	buys, err := e.store.Load(ctx, asset, domain.Buy)
	if err != nil {
		return fmt.Errorf("load %s BUY book for broadcast: %w", asset, err)
	}
	sells, err := e.store.Load(ctx, asset, domain.Sell)
	if err != nil {
		return fmt.Errorf("load %s SELL book for broadcast: %w", asset, err)
	}
	if err := e.publisher.PublishBook(ctx, domain.BookUpdate{
		Asset:      asset,
		BuyOrders:  buys,
		SellOrders: sells,
	}); err != nil {
		return fmt.Errorf("publish %s book update: %w", asset, err)
	}
	return nil
}

func (e *Engine) newTransaction(taker domain.Order) *domain.Transaction {
	return &domain.Transaction{
		ID:        uuid.NewString(),
		Orders:    []domain.Order{taker},
		CreatedAt: e.now(),
	}
}

func queuedMessage(o *domain.Order) string {
	if o.Side == domain.Buy {
		return "Order queued waiting for seller liquidity"
	}
	return "Order queued waiting for buyer liquidity"
}

func rejectionMessage(o *domain.Order, available float64) string {
	shortfall := o.Remaining - available
	if o.Side == domain.Buy {
		return fmt.Sprintf("Insufficient liquidity: need %g more sell quantity", shortfall)
	}
	return fmt.Sprintf("Insufficient liquidity: need %g more buy quantity", shortfall)
}

func partialFillMessage(o *domain.Order) string {
	return fmt.Sprintf("Order partially filled. Please wait for further %g to get filled.", o.Remaining)
}

func executedMessage(o *domain.Order) string {
	if o.Side == domain.Buy {
		return "Buy order executed successfully"
	}
	return "Sell order executed successfully"
}
