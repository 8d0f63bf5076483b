package http

import (
	"fmt"

	"github.com/cryptohub/matching-engine/internal/book"
	"github.com/cryptohub/matching-engine/internal/domain"
)

type SubmitOrderRequest struct {
	Asset       string           `json:"asset" binding:"required"`
	UserID      string           `json:"userId" binding:"required"`
	Side        domain.Side      `json:"orderSide" binding:"required"`
	Type        domain.OrderType `json:"orderType" binding:"required"`
	Price       float64          `json:"price,omitempty"`
	Quantity    float64          `json:"quantity" binding:"required"`
	Margin      float64          `json:"margin,omitempty"`
	CallbackURL string           `json:"callUrl,omitempty"`
}

type SubmitOrderResponse struct {
	OrderID string `json:"orderId"`
	Message string `json:"message"`
}

type DepthResponse struct {
	Asset string       `json:"asset"`
	Bids  []book.Level `json:"bids"`
	Asks  []book.Level `json:"asks"`
}

// ValidateOrder rejects malformed submissions before they reach the intake
// topic; the matcher assumes well-formed orders.
func ValidateOrder(req *SubmitOrderRequest) error {
	switch req.Side {
	case domain.Buy, domain.Sell:
	default:
		return fmt.Errorf("invalid side: %s", req.Side)
	}
	switch req.Type {
	case domain.Limit, domain.Market:
	default:
		return fmt.Errorf("invalid order type: %s", req.Type)
	}
	if req.Quantity <= 0 {
		return fmt.Errorf("quantity must be > 0")
	}
	if req.Type == domain.Limit && req.Price <= 0 {
		return fmt.Errorf("price must be > 0 for LIMIT orders")
	}
	return nil
}
