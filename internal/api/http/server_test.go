package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptohub/matching-engine/internal/adapter/inmemory"
	"github.com/cryptohub/matching-engine/internal/domain"
)

type fakeIntake struct {
	orders []domain.Order
	err    error
}

func (f *fakeIntake) Submit(_ context.Context, order *domain.Order) error {
	if f.err != nil {
		return f.err
	}
	f.orders = append(f.orders, *order)
	return nil
}

func newTestServer(t *testing.T) (*fakeIntake, *inmemory.BookStore, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	intake := &fakeIntake{}
	store := inmemory.NewBookStore()
	server := NewServer(intake, store, nil)
	return intake, store, server.Router()
}

func submit(router *gin.Engine, clientID string, body any) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Client-ID", clientID)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSubmitOrderAccepted(t *testing.T) {
	intake, _, router := newTestServer(t)

	w := submit(router, "client-1", SubmitOrderRequest{
		Asset:       "BTC",
		UserID:      "u-1",
		Side:        domain.Buy,
		Type:        domain.Limit,
		Price:       100,
		Quantity:    5,
		CallbackURL: "http://callback.local/u-1",
	})
	require.Equal(t, http.StatusAccepted, w.Code)

	var resp SubmitOrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.OrderID)

	require.Len(t, intake.orders, 1)
	o := intake.orders[0]
	assert.Equal(t, resp.OrderID, o.ID)
	assert.Equal(t, domain.Pending, o.Status)
	assert.Equal(t, 5.0, o.Remaining)
	assert.False(t, o.CreatedAt.IsZero())
}

func TestSubmitOrderValidation(t *testing.T) {
	tests := []struct {
		name string
		req  SubmitOrderRequest
	}{
		{"bad side", SubmitOrderRequest{Asset: "BTC", UserID: "u", Side: "HOLD", Type: domain.Limit, Price: 1, Quantity: 1}},
		{"bad type", SubmitOrderRequest{Asset: "BTC", UserID: "u", Side: domain.Buy, Type: "STOP", Price: 1, Quantity: 1}},
		{"limit without price", SubmitOrderRequest{Asset: "BTC", UserID: "u", Side: domain.Buy, Type: domain.Limit, Quantity: 1}},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intake, _, router := newTestServer(t)
			w := submit(router, "client-"+tt.name, tt.req)
			assert.Equal(t, http.StatusBadRequest, w.Code, "case %d", i)
			assert.Empty(t, intake.orders)
		})
	}
}

func TestSubmitOrderRequiresClientHeader(t *testing.T) {
	_, _, router := newTestServer(t)

	raw, _ := json.Marshal(SubmitOrderRequest{Asset: "BTC", UserID: "u", Side: domain.Buy, Type: domain.Market, Quantity: 1})
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader(raw))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitOrderRateLimited(t *testing.T) {
	_, _, router := newTestServer(t)

	req := SubmitOrderRequest{Asset: "BTC", UserID: "u", Side: domain.Buy, Type: domain.Market, Quantity: 1}
	first := submit(router, "same-client", req)
	second := submit(router, "same-client", req)
	assert.Equal(t, http.StatusAccepted, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestSubmitOrderIntakeUnavailable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	intake := &fakeIntake{err: errors.New("broker down")}
	router := NewServer(intake, inmemory.NewBookStore(), nil).Router()

	w := submit(router, "client-x", SubmitOrderRequest{
		Asset: "BTC", UserID: "u", Side: domain.Buy, Type: domain.Market, Quantity: 1,
	})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGetDepth(t *testing.T) {
	_, store, router := newTestServer(t)
	ctx := context.Background()

	require.NoError(t, store.Replace(ctx, "BTC", domain.Sell, []domain.Order{
		{ID: "a", Asset: "BTC", Price: 10, Quantity: 2, Remaining: 2},
		{ID: "b", Asset: "BTC", Price: 10, Quantity: 3, Remaining: 3},
	}))

	req := httptest.NewRequest(http.MethodGet, "/orderbook/BTC", nil)
	req.Header.Set("X-Client-ID", "depth-client")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// Quantities come back as plain numbers, same as every other field.
	var resp struct {
		Asset string `json:"asset"`
		Asks  []struct {
			Price    float64 `json:"price"`
			Quantity float64 `json:"quantity"`
		} `json:"asks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "BTC", resp.Asset)
	require.Len(t, resp.Asks, 1)
	assert.Equal(t, 10.0, resp.Asks[0].Price)
	assert.Equal(t, 5.0, resp.Asks[0].Quantity)
}
