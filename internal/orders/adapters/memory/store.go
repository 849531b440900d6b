package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dejobratic/foodorder/internal/orders/domain"
	"github.com/dejobratic/foodorder/internal/orders/ports"
)

type couponUsage struct {
	couponID string
	userID   string
	orderID  string
}

// Store is an in-memory implementation of the order, catalog and coupon
// repositories, useful for local development and tests.
type Store struct {
	mu      sync.RWMutex
	orders  map[string]domain.Order
	menu    map[string]domain.MenuItem
	zones   map[string]domain.DeliveryZone
	coupons map[string]domain.Coupon
	usages  []couponUsage
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{
		orders:  make(map[string]domain.Order),
		menu:    make(map[string]domain.MenuItem),
		zones:   make(map[string]domain.DeliveryZone),
		coupons: make(map[string]domain.Coupon),
	}
}

// Create stores the order and applies the coupon redemption in one step.
func (s *Store) Create(_ context.Context, order *domain.Order, redemption *ports.CouponRedemption) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[order.ID]; exists {
		return fmt.Errorf("%w: order %s already exists", domain.ErrConflict, order.ID)
	}
	for _, existing := range s.orders {
		if existing.Number == order.Number {
			return fmt.Errorf("%w: order number %s already exists", domain.ErrConflict, order.Number)
		}
	}

	if redemption != nil {
		coupon, ok := s.coupons[redemption.CouponID]
		if !ok {
			return fmt.Errorf("%w: coupon %s", domain.ErrNotFound, redemption.CouponID)
		}
		if coupon.MaxUses != nil && coupon.UsesCount >= *coupon.MaxUses {
			return domain.ErrCouponExhausted
		}
		if coupon.MaxUsesPerUser != nil && s.countUsage(coupon.ID, redemption.UserID) >= *coupon.MaxUsesPerUser {
			return domain.ErrCouponExhausted
		}
		coupon.UsesCount++
		s.coupons[coupon.ID] = coupon
		s.usages = append(s.usages, couponUsage{couponID: coupon.ID, userID: redemption.UserID, orderID: order.ID})
	}

	s.orders[order.ID] = cloneOrder(*order)
	return nil
}

// GetByID fetches a single order by identifier.
func (s *Store) GetByID(_ context.Context, id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: order %s", domain.ErrNotFound, id)
	}
	out := cloneOrder(order)
	return &out, nil
}

func (s *Store) GetByNumber(_ context.Context, number string) (*domain.Order, error) {
	return s.find(func(o domain.Order) bool { return o.Number == number }, "order number "+number)
}

func (s *Store) GetByReference(_ context.Context, reference string) (*domain.Order, error) {
	return s.find(func(o domain.Order) bool {
		return o.GatewayReference != nil && *o.GatewayReference == reference
	}, "payment reference "+reference)
}

func (s *Store) find(match func(domain.Order) bool, what string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, order := range s.orders {
		if match(order) {
			out := cloneOrder(order)
			return &out, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, what)
}

// List returns orders newest first. Pagination is 1-based.
func (s *Store) List(_ context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	filter = filter.Normalize()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Order
	for _, order := range s.orders {
		if filter.Status != nil && order.Status != *filter.Status {
			continue
		}
		if filter.CustomerID != nil && order.CustomerID != *filter.CustomerID {
			continue
		}
		result = append(result, cloneOrder(order))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	start := (filter.Page - 1) * filter.PageSize
	if start >= len(result) {
		return []domain.Order{}, nil
	}
	end := min(start+filter.PageSize, len(result))

	return result[start:end], nil
}

// Update applies mutate to a copy of the order and stores it when changed.
func (s *Store) Update(_ context.Context, id string, mutate ports.MutateFunc) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: order %s", domain.ErrNotFound, id)
	}

	working := cloneOrder(current)
	changed, err := mutate(&working)
	if err != nil {
		return nil, err
	}
	if changed {
		if working.GatewayReference != nil {
			for otherID, other := range s.orders {
				if otherID != id && other.GatewayReference != nil && *other.GatewayReference == *working.GatewayReference {
					return nil, fmt.Errorf("%w: payment reference already in use", domain.ErrConflict)
				}
			}
		}
		s.orders[id] = cloneOrder(working)
	}

	out := cloneOrder(working)
	return &out, nil
}

// Delete removes the order when guard accepts it. The coupon ledger is kept.
func (s *Store) Delete(_ context.Context, id string, guard func(order *domain.Order) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.orders[id]
	if !ok {
		return fmt.Errorf("%w: order %s", domain.ErrNotFound, id)
	}
	if guard != nil {
		working := cloneOrder(current)
		if err := guard(&working); err != nil {
			return err
		}
	}
	delete(s.orders, id)
	return nil
}

func cloneOrder(order domain.Order) domain.Order {
	out := order
	out.Items = append([]domain.OrderItem(nil), order.Items...)
	out.DeliveryZoneID = cloneString(order.DeliveryZoneID)
	out.CouponID = cloneString(order.CouponID)
	out.GatewayReference = cloneString(order.GatewayReference)
	return out
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}
