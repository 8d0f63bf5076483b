package redisbook

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/cryptohub/matching-engine/internal/domain"
	"github.com/cryptohub/matching-engine/internal/port"
)

var _ port.BookStore = (*Store)(nil)

// Store keeps each (asset, side) book in a Redis sorted set scored by price,
// one JSON-encoded order per member. Keys follow the
// buy:orders:<asset> / sell:orders:<asset> scheme.
type Store struct {
	client *redis.Client
}

func New(addr, password string, db int) *Store {
	return &Store{client: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

// NewWithClient wraps an existing client, e.g. one shared with other adapters.
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

func key(asset string, side domain.Side) string {
	if side == domain.Buy {
		return "buy:orders:" + asset
	}
	return "sell:orders:" + asset
}

// Load returns the book best-price-first: ascending score for SELL, the
// reverse range for BUY. Orders at the same price sort by the ZSET member
// tie-break, lexicographic over the encoded JSON, not by arrival time. A
// missing key is an empty book, not an error.
func (s *Store) Load(ctx context.Context, asset string, side domain.Side) ([]domain.Order, error) {
	k := key(asset, side)
	var raw []string
	var err error
	if side == domain.Buy {
		raw, err = s.client.ZRevRange(ctx, k, 0, -1).Result()
	} else {
		raw, err = s.client.ZRange(ctx, k, 0, -1).Result()
	}
	if err != nil {
		return nil, fmt.Errorf("redisbook: range %s: %w", k, err)
	}

	orders := make([]domain.Order, 0, len(raw))
	for _, member := range raw {
		var o domain.Order
		if err := json.Unmarshal([]byte(member), &o); err != nil {
			return nil, fmt.Errorf("redisbook: decode member of %s: %w", k, err)
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// Replace rewrites the full book in one pipeline: delete the key, then add
// every order scored by its price. An empty set deletes the key outright so
// no empty containers persist. Orders missing an id get one assigned before
// the write.
func (s *Store) Replace(ctx context.Context, asset string, side domain.Side, orders []domain.Order) error {
	k := key(asset, side)
	if len(orders) == 0 {
		if err := s.client.Del(ctx, k).Err(); err != nil {
			return fmt.Errorf("redisbook: delete %s: %w", k, err)
		}
		return nil
	}

	members := make([]redis.Z, 0, len(orders))
	for i := range orders {
		if orders[i].ID == "" {
			orders[i].ID = uuid.NewString()
		}
		b, err := json.Marshal(&orders[i])
		if err != nil {
			return fmt.Errorf("redisbook: encode order %s: %w", orders[i].ID, err)
		}
		members = append(members, redis.Z{Score: orders[i].Price, Member: string(b)})
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, k)
	pipe.ZAdd(ctx, k, members...)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redisbook: rewrite %s: %w", k, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
