package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/cryptohub/matching-engine/internal/book"
	"github.com/cryptohub/matching-engine/internal/domain"
)

// Service turns raw book updates into aggregated depth snapshots and serves
// them to WebSocket subscribers, one topic per asset.
type Service struct {
	hub      *Hub
	upgrader websocket.Upgrader
	log      *slog.Logger
}

func NewService(hub *Hub, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log: log.With("component", "broadcast"),
	}
}

// HandleBookUpdate consumes one book update message: aggregate both sides
// into price-level depth and broadcast the snapshot to the asset's topic.
// Malformed updates can never succeed on retry and are dropped rather than
// stopping the consumer.
func (s *Service) HandleBookUpdate(_ context.Context, _, value []byte) error {
	var update domain.BookUpdate
	if err := json.Unmarshal(value, &update); err != nil {
		s.log.Error("dropping undecodable book update", "err", err)
		return nil
	}
	if update.Asset == "" {
		s.log.Error("dropping book update without asset")
		return nil
	}

	depth := book.BuildDepth(update)
	payload, err := json.Marshal(depth)
	if err != nil {
		return fmt.Errorf("broadcast: encode depth for %s: %w", update.Asset, err)
	}

	s.hub.Broadcast(update.Asset, payload)
	s.log.Debug("depth broadcast",
		"asset", update.Asset,
		"bids", len(depth.Bids),
		"asks", len(depth.Asks),
		"subscribers", s.hub.SubscriberCount(update.Asset))
	return nil
}

// Run serves the WebSocket endpoint until the listener fails.
func (s *Service) Run(addr string) error {
	r := gin.Default()
	r.GET("/ws/orderbook/:asset", s.subscribe)
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r.Run(addr)
}

func (s *Service) subscribe(c *gin.Context) {
	asset := c.Param("asset")
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Error("websocket upgrade failed", "asset", asset, "err", err)
		return
	}

	sub := s.hub.Subscribe(asset, 8)
	defer s.hub.Unsubscribe(asset, sub)
	defer conn.Close()

	// Drain client frames so close/ping handling keeps working; subscribers
	// are read-only.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.hub.Unsubscribe(asset, sub)
				return
			}
		}
	}()

	for payload := range sub.C {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			s.log.Debug("subscriber dropped", "asset", asset, "err", err)
			return
		}
	}
}
