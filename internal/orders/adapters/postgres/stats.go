package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/dejobratic/foodorder/internal/orders/domain"
	"github.com/jackc/pgx/v5"
)

func (r *Repository) CustomerStats(ctx context.Context, customerID string, favorites int) (*domain.CustomerStats, error) {
	var stats domain.CustomerStats
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(total) FILTER (WHERE payment_status = 'paid'), 0)
		FROM orders
		WHERE customer_id = $1
	`, customerID).Scan(&stats.TotalOrders, &stats.TotalSpent)
	if err != nil {
		return nil, fmt.Errorf("select customer totals: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT oi.menu_item_id, MAX(oi.name), COUNT(*)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.customer_id = $1
		GROUP BY oi.menu_item_id
		ORDER BY COUNT(*) DESC, oi.menu_item_id
		LIMIT $2
	`, customerID, favorites)
	if err != nil {
		return nil, fmt.Errorf("query favourite items: %w", err)
	}
	if stats.FavoriteItems, err = collectItemCounts(rows); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *Repository) PopularItems(ctx context.Context, since time.Time, limit int) ([]domain.ItemCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT oi.menu_item_id, MAX(oi.name), COUNT(*)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.created_at >= $1
		GROUP BY oi.menu_item_id
		ORDER BY COUNT(*) DESC, oi.menu_item_id
		LIMIT $2
	`, since, limit)
	if err != nil {
		return nil, fmt.Errorf("query popular items: %w", err)
	}
	return collectItemCounts(rows)
}

func (r *Repository) CountByStatus(ctx context.Context) (map[domain.OrderStatus]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("query status counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.OrderStatus]int)
	for rows.Next() {
		var (
			status domain.OrderStatus
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status counts: %w", err)
	}
	return counts, nil
}

func collectItemCounts(rows pgx.Rows) ([]domain.ItemCount, error) {
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ItemCount, error) {
		var item domain.ItemCount
		err := row.Scan(&item.MenuItemID, &item.Name, &item.OrderCount)
		return item, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan item counts: %w", err)
	}
	return items, nil
}
