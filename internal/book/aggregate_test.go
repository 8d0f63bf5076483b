package book

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptohub/matching-engine/internal/domain"
)

func resting(price, qty float64) domain.Order {
	return domain.Order{Price: price, Quantity: qty, Remaining: qty}
}

func TestAggregateGroupsAndSortsAsks(t *testing.T) {
	orders := []domain.Order{resting(10, 2), resting(10, 3), resting(12, 1)}

	levels := Aggregate(orders, domain.Sell)
	require.Len(t, levels, 2)
	assert.Equal(t, 10.0, levels[0].Price)
	assert.True(t, levels[0].Quantity.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, 12.0, levels[1].Price)
	assert.True(t, levels[1].Quantity.Equal(decimal.NewFromInt(1)))
}

func TestAggregateSortsBidsDescending(t *testing.T) {
	orders := []domain.Order{resting(99, 1), resting(101, 2), resting(100, 4)}

	levels := Aggregate(orders, domain.Buy)
	require.Len(t, levels, 3)
	assert.Equal(t, []float64{101, 100, 99}, []float64{levels[0].Price, levels[1].Price, levels[2].Price})
}

func TestAggregateEmptyInput(t *testing.T) {
	levels := Aggregate(nil, domain.Sell)
	require.NotNil(t, levels)
	assert.Empty(t, levels)
}

func TestAggregateUsesRemainingQuantity(t *testing.T) {
	partiallyFilled := domain.Order{Price: 10, Quantity: 8, Remaining: 3}

	levels := Aggregate([]domain.Order{partiallyFilled}, domain.Sell)
	require.Len(t, levels, 1)
	assert.True(t, levels[0].Quantity.Equal(decimal.NewFromInt(3)))
}

func TestAggregateIsPure(t *testing.T) {
	orders := []domain.Order{resting(10, 2), resting(11, 3), resting(10, 1)}

	first := Aggregate(orders, domain.Sell)
	second := Aggregate(orders, domain.Sell)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Price, second[i].Price)
		assert.True(t, first[i].Quantity.Equal(second[i].Quantity))
	}
}

func TestLevelMarshalsQuantityAsNumber(t *testing.T) {
	raw, err := json.Marshal(Level{Price: 10, Quantity: decimal.NewFromInt(5)})
	require.NoError(t, err)
	assert.Equal(t, `{"price":10,"quantity":5}`, string(raw))

	// Round-trips: decimal accepts unquoted numbers on the way back in.
	var back Level
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.True(t, back.Quantity.Equal(decimal.NewFromInt(5)))
}

func TestBuildDepth(t *testing.T) {
	depth := BuildDepth(domain.BookUpdate{
		Asset:      "BTC",
		BuyOrders:  []domain.Order{resting(100, 1)},
		SellOrders: []domain.Order{resting(101, 2)},
	})

	assert.Equal(t, "BTC", depth.Asset)
	require.Len(t, depth.Bids, 1)
	require.Len(t, depth.Asks, 1)
	assert.Equal(t, 100.0, depth.Bids[0].Price)
	assert.Equal(t, 101.0, depth.Asks[0].Price)
}
