package queries

import (
	"context"
	"fmt"
	"time"

	"github.com/dejobratic/foodorder/internal/orders/domain"
	"github.com/dejobratic/foodorder/internal/orders/ports"
)

// StatusCounts is the admin dashboard breakdown of orders by status.
type StatusCounts struct {
	Counts map[domain.OrderStatus]int `json:"counts"`
	Total  int                        `json:"total"`
}

// StatsQueryHandler serves order history summaries.
type StatsQueryHandler struct {
	repo ports.OrderStatsRepository
	now  func() time.Time
}

func NewStatsQueryHandler(repo ports.OrderStatsRepository) *StatsQueryHandler {
	return &StatsQueryHandler{repo: repo, now: time.Now}
}

// CustomerStats summarises the caller's own orders.
func (h *StatsQueryHandler) CustomerStats(ctx context.Context, actor domain.Actor) (*domain.CustomerStats, error) {
	if actor.UserID == "" {
		return nil, fmt.Errorf("%w: user is required", domain.ErrValidation)
	}
	stats, err := h.repo.CustomerStats(ctx, actor.UserID, domain.FavoriteItemsLimit)
	if err != nil {
		return nil, err
	}
	if stats.FavoriteItems == nil {
		stats.FavoriteItems = []domain.ItemCount{}
	}
	return stats, nil
}

// PopularItems lists the most ordered dishes of the last thirty days.
func (h *StatsQueryHandler) PopularItems(ctx context.Context) ([]domain.ItemCount, error) {
	items, err := h.repo.PopularItems(ctx, h.now().Add(-domain.PopularItemsWindow), domain.PopularItemsLimit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.ItemCount{}
	}
	return items, nil
}

func (h *StatsQueryHandler) StatusCounts(ctx context.Context, actor domain.Actor) (*StatusCounts, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: admin role required", domain.ErrForbidden)
	}
	counts, err := h.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	out := &StatusCounts{Counts: counts}
	for _, n := range counts {
		out.Total += n
	}
	return out, nil
}
