package book

import (
	"encoding/json"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/cryptohub/matching-engine/internal/domain"
)

// Level is one price level of the public depth-of-book view.
type Level struct {
	Price    float64         `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
}

// MarshalJSON emits quantity as a bare number rather than decimal's default
// quoted string, keeping every field of the public depth payload numeric.
func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Price    float64     `json:"price"`
		Quantity json.Number `json:"quantity"`
	}{Price: l.Price, Quantity: json.Number(l.Quantity.String())})
}

// Depth is the broadcast payload for one asset.
type Depth struct {
	Asset string  `json:"asset"`
	Bids  []Level `json:"bids"`
	Asks  []Level `json:"asks"`
}

// Aggregate collapses resting orders into per-price depth. Quantities are
// summed in decimal so repeated aggregation of float quantities stays exact.
// Bids sort descending (best bid first), asks ascending (best ask first).
// Empty input yields an empty slice, never nil, so broadcast consumers need
// no special case for an empty book.
func Aggregate(orders []domain.Order, side domain.Side) []Level {
	levels := make([]Level, 0, len(orders))
	index := make(map[float64]int, len(orders))

	for i := range orders {
		o := &orders[i]
		qty := decimal.NewFromFloat(o.Remaining)
		if at, ok := index[o.Price]; ok {
			levels[at].Quantity = levels[at].Quantity.Add(qty)
			continue
		}
		index[o.Price] = len(levels)
		levels = append(levels, Level{Price: o.Price, Quantity: qty})
	}

	if side == domain.Buy {
		sort.Slice(levels, func(i, j int) bool { return levels[i].Price > levels[j].Price })
	} else {
		sort.Slice(levels, func(i, j int) bool { return levels[i].Price < levels[j].Price })
	}
	return levels
}

// BuildDepth aggregates both sides of a book update into the broadcast view.
func BuildDepth(update domain.BookUpdate) Depth {
	return Depth{
		Asset: update.Asset,
		Bids:  Aggregate(update.BuyOrders, domain.Buy),
		Asks:  Aggregate(update.SellOrders, domain.Sell),
	}
}
