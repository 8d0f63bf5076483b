package pg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cryptohub/matching-engine/internal/domain"
	"github.com/cryptohub/matching-engine/internal/port"
)

var _ port.SettlementStore = (*SettlementRepo)(nil)

// SettlementRepo persists completed transactions. It owns the terminal
// OPEN -> CLOSED transition: a fully filled order is written as CLOSED here,
// never by the matching engine.
type SettlementRepo struct {
	pool *pgxpool.Pool
}

// NewSettlementRepo connects a pool; call Close when done.
func NewSettlementRepo(ctx context.Context, dsn string) (*SettlementRepo, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}
	return &SettlementRepo{pool: pool}, nil
}

func (r *SettlementRepo) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
}

// SaveTransaction writes the transaction and upserts every order it touched
// in one database transaction.
func (r *SettlementRepo) SaveTransaction(ctx context.Context, tx *domain.Transaction) error {
	if tx == nil || len(tx.Orders) == 0 {
		return errors.New("pg: empty transaction")
	}

	payload, err := json.Marshal(tx.Orders)
	if err != nil {
		return fmt.Errorf("pg: encode transaction %s: %w", tx.ID, err)
	}

	dbtx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("pg: begin: %w", err)
	}
	defer dbtx.Rollback(ctx)

	_, err = dbtx.Exec(ctx, `
INSERT INTO transactions(id, asset, order_count, orders_json, created_at)
VALUES($1,$2,$3,$4,$5)
ON CONFLICT (id) DO NOTHING
`, tx.ID, tx.Taker().Asset, len(tx.Orders), string(payload), tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("pg: insert transaction %s: %w", tx.ID, err)
	}

	// The pending and settled topics carry no cross-topic ordering, so a
	// queued-order record can land after the trade that filled it. The upsert
	// never regresses a terminal row or overwrites a newer one.
	for i := range tx.Orders {
		o := finalize(tx.Orders[i])
		_, err = dbtx.Exec(ctx, `
INSERT INTO orders(id, asset, user_id, side, type, price, quantity, remaining, margin, status, created_at, updated_at)
VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (id) DO UPDATE SET
  remaining = EXCLUDED.remaining,
  status = EXCLUDED.status,
  updated_at = EXCLUDED.updated_at
WHERE orders.status NOT IN ('CLOSED', 'REJECTED')
  AND orders.updated_at <= EXCLUDED.updated_at
`, o.ID, o.Asset, o.UserID, string(o.Side), string(o.Type),
			o.Price, o.Quantity, o.Remaining, o.Margin, string(o.Status), o.CreatedAt, o.UpdatedAt)
		if err != nil {
			return fmt.Errorf("pg: upsert order %s: %w", o.ID, err)
		}
	}

	if err := dbtx.Commit(ctx); err != nil {
		return fmt.Errorf("pg: commit transaction %s: %w", tx.ID, err)
	}
	return nil
}

// finalize applies the terminal transition owned by settlement: a fully
// filled OPEN order is persisted as CLOSED. Everything else passes through.
func finalize(o domain.Order) domain.Order {
	if o.Filled() && o.Status == domain.Open {
		o.Status = domain.Closed
	}
	return o
}
