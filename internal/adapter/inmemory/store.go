package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/cryptohub/matching-engine/internal/domain"
	"github.com/cryptohub/matching-engine/internal/port"
)

var _ port.BookStore = (*BookStore)(nil)

// BookStore is a process-local BookStore with the same contract as the Redis
// adapter: full-set replace, best-price-first loads, insertion order preserved
// at equal price. Used in tests and single-process local runs.
type BookStore struct {
	mu    sync.Mutex
	books map[string][]domain.Order
}

func NewBookStore() *BookStore {
	return &BookStore{books: make(map[string][]domain.Order)}
}

func key(asset string, side domain.Side) string {
	return string(side) + ":" + asset
}

func (s *BookStore) Load(_ context.Context, asset string, side domain.Side) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := s.books[key(asset, side)]
	orders := make([]domain.Order, len(stored))
	copy(orders, stored)

	if side == domain.Buy {
		sort.SliceStable(orders, func(i, j int) bool { return orders[i].Price > orders[j].Price })
	} else {
		sort.SliceStable(orders, func(i, j int) bool { return orders[i].Price < orders[j].Price })
	}
	return orders, nil
}

func (s *BookStore) Replace(_ context.Context, asset string, side domain.Side, orders []domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(asset, side)
	if len(orders) == 0 {
		delete(s.books, k)
		return nil
	}

	stored := make([]domain.Order, len(orders))
	copy(stored, orders)
	for i := range stored {
		if stored[i].ID == "" {
			stored[i].ID = uuid.NewString()
		}
	}
	s.books[k] = stored
	return nil
}

// Keys lists the keys currently holding a book, for tests asserting that
// emptied books leave nothing behind.
func (s *BookStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.books))
	for k := range s.books {
		keys = append(keys, k)
	}
	return keys
}
