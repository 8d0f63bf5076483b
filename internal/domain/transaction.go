package domain

import "time"

// Transaction is the immutable output of one matching cycle: the incoming
// order first, then every resting order it touched, each carrying its final
// remaining quantity and status as of the cycle.
type Transaction struct {
	ID        string    `json:"id"`
	Orders    []Order   `json:"orders"`
	CreatedAt time.Time `json:"createdAt"`
}

// Pending reports whether the cycle produced no fills: the transaction holds
// only the incoming order, queued and awaiting liquidity. Downstream
// consumers route pending and settled transactions to different channels.
func (t *Transaction) Pending() bool {
	return len(t.Orders) == 1
}

// Taker returns the incoming order of the cycle.
func (t *Transaction) Taker() *Order {
	if len(t.Orders) == 0 {
		return nil
	}
	return &t.Orders[0]
}
