package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dejobratic/foodorder/internal/orders/domain"
	"github.com/jackc/pgx/v5"
)

func (r *Repository) GetMenuItem(ctx context.Context, id string) (*domain.MenuItem, error) {
	var item domain.MenuItem
	var categoryID *string
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, price, available, category_id
		FROM menu_items
		WHERE id = $1
	`, id).Scan(&item.ID, &item.Name, &item.Price, &item.Available, &categoryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: menu item %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("select menu item: %w", err)
	}
	if categoryID != nil {
		item.CategoryID = *categoryID
	}
	return &item, nil
}

func (r *Repository) GetZone(ctx context.Context, id string) (*domain.DeliveryZone, error) {
	var zone domain.DeliveryZone
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, fee, eta
		FROM delivery_zones
		WHERE id = $1
	`, id).Scan(&zone.ID, &zone.Name, &zone.Fee, &zone.ETA)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: delivery zone %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("select delivery zone: %w", err)
	}
	return &zone, nil
}

// ListZones returns zones ordered by name, the order in which address
// keywords are matched.
func (r *Repository) ListZones(ctx context.Context) ([]domain.DeliveryZone, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, fee, eta FROM delivery_zones ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query delivery zones: %w", err)
	}

	zones, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.DeliveryZone, error) {
		var zone domain.DeliveryZone
		err := row.Scan(&zone.ID, &zone.Name, &zone.Fee, &zone.ETA)
		return zone, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan delivery zones: %w", err)
	}
	return zones, nil
}

func (r *Repository) GetCouponByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	code = domain.NormalizeCouponCode(code)

	var coupon domain.Coupon
	err := r.pool.QueryRow(ctx, `
		SELECT c.id, c.code, c.type, c.amount, c.starts_at, c.expires_at, c.min_subtotal,
		       c.max_uses, c.max_uses_per_user, c.uses_count, c.active,
		       COALESCE(ARRAY_AGG(cz.zone_id ORDER BY cz.zone_id) FILTER (WHERE cz.zone_id IS NOT NULL), '{}')
		FROM coupons c
		LEFT JOIN coupon_zones cz ON cz.coupon_id = c.id
		WHERE c.code = $1
		GROUP BY c.id
	`, code).Scan(
		&coupon.ID, &coupon.Code, &coupon.Type, &coupon.Amount, &coupon.StartsAt, &coupon.ExpiresAt, &coupon.MinSubtotal,
		&coupon.MaxUses, &coupon.MaxUsesPerUser, &coupon.UsesCount, &coupon.Active,
		&coupon.ZoneIDs,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: coupon %s", domain.ErrNotFound, code)
		}
		return nil, fmt.Errorf("select coupon: %w", err)
	}
	return &coupon, nil
}

func (r *Repository) CountCouponUsage(ctx context.Context, couponID, userID string) (int, error) {
	return countUsage(ctx, r.pool, couponID, userID)
}

func countUsage(ctx context.Context, q querier, couponID, userID string) (int, error) {
	var count int
	err := q.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM coupon_usages
		WHERE coupon_id = $1 AND user_id = $2
	`, couponID, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count coupon usage: %w", err)
	}
	return count, nil
}
