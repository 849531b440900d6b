package memory

import (
	"context"
	"time"

	"github.com/dejobratic/foodorder/internal/orders/domain"
	"github.com/shopspring/decimal"
)

func (s *Store) CustomerStats(_ context.Context, customerID string, favorites int) (*domain.CustomerStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &domain.CustomerStats{TotalSpent: decimal.Zero}
	var lines []domain.OrderItem
	for _, order := range s.orders {
		if order.CustomerID != customerID {
			continue
		}
		stats.TotalOrders++
		if order.IsPaid() {
			stats.TotalSpent = stats.TotalSpent.Add(order.Total)
		}
		lines = append(lines, order.Items...)
	}
	stats.FavoriteItems = domain.RankItems(lines, favorites)
	return stats, nil
}

func (s *Store) PopularItems(_ context.Context, since time.Time, limit int) ([]domain.ItemCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var lines []domain.OrderItem
	for _, order := range s.orders {
		if order.CreatedAt.Before(since) {
			continue
		}
		lines = append(lines, order.Items...)
	}
	return domain.RankItems(lines, limit), nil
}

func (s *Store) CountByStatus(context.Context) (map[domain.OrderStatus]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[domain.OrderStatus]int)
	for _, order := range s.orders {
		counts[order.Status]++
	}
	return counts, nil
}
