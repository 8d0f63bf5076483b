package domain

import (
	"time"
)

type Side string
type OrderType string
type OrderStatus string

const (
	Buy    Side      = "BUY"
	Sell   Side      = "SELL"
	Limit  OrderType = "LIMIT"
	Market OrderType = "MARKET"

	// Pending orders rest in the book with zero fills. Open orders have been
	// at least partially filled. Closed and Rejected are terminal; Closed is
	// assigned by the settlement worker, never by the matching engine.
	Pending  OrderStatus = "PENDING"
	Open     OrderStatus = "OPEN"
	Closed   OrderStatus = "CLOSED"
	Rejected OrderStatus = "REJECTED"
)

func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// Order is the unit of work. JSON field names follow the wire contract shared
// with the gateway, the webhook consumers and the settlement workers.
type Order struct {
	ID          string      `json:"id"`
	Asset       string      `json:"asset"`
	UserID      string      `json:"userId"`
	Side        Side        `json:"orderSide"`
	Type        OrderType   `json:"orderType"`
	Price       float64     `json:"price"`
	Quantity    float64     `json:"quantity"`
	Remaining   float64     `json:"remainingQuantity"`
	Margin      float64     `json:"margin"`
	Status      OrderStatus `json:"status"`
	CallbackURL string      `json:"callUrl"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// Filled reports whether nothing of the order is left to match.
func (o *Order) Filled() bool {
	return o.Remaining == 0
}

// Terminal reports whether the order can never change state again.
func (o *Order) Terminal() bool {
	return o.Status == Closed || o.Status == Rejected
}

// Touch refreshes UpdatedAt on a state mutation.
func (o *Order) Touch(now time.Time) {
	o.UpdatedAt = now
}
