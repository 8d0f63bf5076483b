package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cryptohub/matching-engine/internal/book"
	"github.com/cryptohub/matching-engine/internal/domain"
	"github.com/cryptohub/matching-engine/internal/middleware"
	"github.com/cryptohub/matching-engine/internal/port"
)

// OrderSubmitter hands an accepted order to the matching workers.
type OrderSubmitter interface {
	Submit(ctx context.Context, order *domain.Order) error
}

// Server is the public order-submission API. Submission acknowledges
// acceptance only; fills and rejections arrive asynchronously on the order's
// callback endpoint.
type Server struct {
	intake OrderSubmitter
	store  port.BookStore
	log    *slog.Logger
}

func NewServer(intake OrderSubmitter, store port.BookStore, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{intake: intake, store: store, log: log.With("component", "gateway")}
}

func (s *Server) Router() *gin.Engine {
	r := gin.Default()
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	rl := middleware.NewRateLimiter(100 * time.Millisecond)
	limited := r.Group("/", rl.Middleware())
	limited.POST("/orders", s.submitOrder)
	limited.GET("/orderbook/:asset", s.getDepth)

	return r
}

func (s *Server) Run(addr string) error {
	return s.Router().Run(addr)
}

func (s *Server) submitOrder(c *gin.Context) {
	var req SubmitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := ValidateOrder(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now()
	order := &domain.Order{
		ID:          uuid.NewString(),
		Asset:       req.Asset,
		UserID:      req.UserID,
		Side:        req.Side,
		Type:        req.Type,
		Price:       req.Price,
		Quantity:    req.Quantity,
		Remaining:   req.Quantity,
		Margin:      req.Margin,
		Status:      domain.Pending,
		CallbackURL: req.CallbackURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.intake.Submit(c.Request.Context(), order); err != nil {
		s.log.Error("order submission failed", "order", order.ID, "err", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "order intake unavailable"})
		return
	}

	s.log.Info("order accepted",
		"order", order.ID,
		"asset", order.Asset,
		"side", order.Side,
		"type", order.Type)
	c.JSON(http.StatusAccepted, SubmitOrderResponse{
		OrderID: order.ID,
		Message: "order accepted for matching",
	})
}

func (s *Server) getDepth(c *gin.Context) {
	asset := c.Param("asset")
	ctx := c.Request.Context()

	buys, err := s.store.Load(ctx, asset, domain.Buy)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	sells, err := s.store.Load(ctx, asset, domain.Sell)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, DepthResponse{
		Asset: asset,
		Bids:  book.Aggregate(buys, domain.Buy),
		Asks:  book.Aggregate(sells, domain.Sell),
	})
}
