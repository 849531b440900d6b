package adapters

import (
	"context"
	"time"

	"github.com/dejobratic/foodorder/internal/database"
	"github.com/dejobratic/foodorder/internal/orders/domain"
	"github.com/dejobratic/foodorder/internal/orders/ports"
	"go.opentelemetry.io/otel/attribute"
)

// ObservableStatsRepository times the aggregate queries behind order stats.
type ObservableStatsRepository struct {
	repo    ports.OrderStatsRepository
	metrics *database.Metrics
}

func NewObservableStatsRepository(repo ports.OrderStatsRepository, metrics *database.Metrics) *ObservableStatsRepository {
	return &ObservableStatsRepository{repo: repo, metrics: metrics}
}

func (r *ObservableStatsRepository) CustomerStats(ctx context.Context, customerID string, favorites int) (*domain.CustomerStats, error) {
	var stats *domain.CustomerStats
	attrs := []attribute.KeyValue{attribute.String("customer.id", customerID)}
	err := trackQuery(ctx, r.metrics, "OrderStatsRepository.CustomerStats", "customer_stats", attrs, func(ctx context.Context) error {
		var err error
		stats, err = r.repo.CustomerStats(ctx, customerID, favorites)
		return err
	})
	return stats, err
}

func (r *ObservableStatsRepository) PopularItems(ctx context.Context, since time.Time, limit int) ([]domain.ItemCount, error) {
	var items []domain.ItemCount
	attrs := []attribute.KeyValue{attribute.Int("limit", limit)}
	err := trackQuery(ctx, r.metrics, "OrderStatsRepository.PopularItems", "popular_items", attrs, func(ctx context.Context) error {
		var err error
		items, err = r.repo.PopularItems(ctx, since, limit)
		return err
	})
	return items, err
}

func (r *ObservableStatsRepository) CountByStatus(ctx context.Context) (map[domain.OrderStatus]int, error) {
	var counts map[domain.OrderStatus]int
	err := trackQuery(ctx, r.metrics, "OrderStatsRepository.CountByStatus", "count_by_status", nil, func(ctx context.Context) error {
		var err error
		counts, err = r.repo.CountByStatus(ctx)
		return err
	})
	return counts, err
}
