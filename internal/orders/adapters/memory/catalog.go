package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/dejobratic/foodorder/internal/orders/domain"
)

// PutMenuItem adds or replaces a menu item.
func (s *Store) PutMenuItem(item domain.MenuItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.menu[item.ID] = item
}

// PutZone adds or replaces a delivery zone.
func (s *Store) PutZone(zone domain.DeliveryZone) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zones[zone.ID] = zone
}

// PutCoupon adds or replaces a coupon. The code is stored normalised.
func (s *Store) PutCoupon(coupon domain.Coupon) {
	s.mu.Lock()
	defer s.mu.Unlock()
	coupon.Code = domain.NormalizeCouponCode(coupon.Code)
	s.coupons[coupon.ID] = cloneCoupon(coupon)
}

// Coupon returns a snapshot of the stored coupon.
func (s *Store) Coupon(id string) (domain.Coupon, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	coupon, ok := s.coupons[id]
	return cloneCoupon(coupon), ok
}

func (s *Store) GetMenuItem(_ context.Context, id string) (*domain.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.menu[id]
	if !ok {
		return nil, fmt.Errorf("%w: menu item %s", domain.ErrNotFound, id)
	}
	return &item, nil
}

func (s *Store) GetZone(_ context.Context, id string) (*domain.DeliveryZone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	zone, ok := s.zones[id]
	if !ok {
		return nil, fmt.Errorf("%w: delivery zone %s", domain.ErrNotFound, id)
	}
	return &zone, nil
}

// ListZones returns zones ordered by name.
func (s *Store) ListZones(_ context.Context) ([]domain.DeliveryZone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	zones := make([]domain.DeliveryZone, 0, len(s.zones))
	for _, zone := range s.zones {
		zones = append(zones, zone)
	}
	sort.Slice(zones, func(i, j int) bool { return zones[i].Name < zones[j].Name })
	return zones, nil
}

func (s *Store) GetCouponByCode(_ context.Context, code string) (*domain.Coupon, error) {
	code = domain.NormalizeCouponCode(code)

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, coupon := range s.coupons {
		if coupon.Code == code {
			out := cloneCoupon(coupon)
			return &out, nil
		}
	}
	return nil, fmt.Errorf("%w: coupon %s", domain.ErrNotFound, code)
}

func (s *Store) CountCouponUsage(_ context.Context, couponID, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countUsage(couponID, userID), nil
}

func (s *Store) countUsage(couponID, userID string) int {
	count := 0
	for _, usage := range s.usages {
		if usage.couponID == couponID && usage.userID == userID {
			count++
		}
	}
	return count
}

func cloneCoupon(coupon domain.Coupon) domain.Coupon {
	out := coupon
	out.ZoneIDs = append([]string(nil), coupon.ZoneIDs...)
	return out
}
