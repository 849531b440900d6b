package memory

import (
	"context"
	"sync"

	"github.com/dejobratic/foodorder/internal/orders/domain"
)

// CartStore keeps carts in process memory.
type CartStore struct {
	mu    sync.RWMutex
	carts map[string]domain.Cart
}

func NewCartStore() *CartStore {
	return &CartStore{carts: make(map[string]domain.Cart)}
}

func (s *CartStore) Get(_ context.Context, userID string) (*domain.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cart := domain.NewCart()
	if stored, ok := s.carts[userID]; ok {
		for id, line := range stored.Items {
			cart.Items[id] = line
		}
	}
	return cart, nil
}

func (s *CartStore) Save(_ context.Context, userID string, cart *domain.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.put(userID, cart)
	return nil
}

// Update runs apply under the write lock.
func (s *CartStore) Update(_ context.Context, userID string, apply func(*domain.Cart) error) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart := domain.NewCart()
	for id, line := range s.carts[userID].Items {
		cart.Items[id] = line
	}
	if err := apply(cart); err != nil {
		return nil, err
	}
	s.put(userID, cart)
	return cart, nil
}

func (s *CartStore) put(userID string, cart *domain.Cart) {
	if cart.IsEmpty() {
		delete(s.carts, userID)
		return
	}
	stored := domain.Cart{Items: make(map[string]domain.CartLine, len(cart.Items))}
	for id, line := range cart.Items {
		stored.Items[id] = line
	}
	s.carts[userID] = stored
}

func (s *CartStore) Clear(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, userID)
	return nil
}
