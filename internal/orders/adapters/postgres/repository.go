package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dejobratic/foodorder/internal/orders/domain"
	"github.com/dejobratic/foodorder/internal/orders/ports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

const orderColumns = `
	id, order_number, customer_id, customer_email,
	subtotal, discount, delivery_fee, tax, total,
	status, payment_method, payment_status,
	delivery_zone_id, delivery_address, phone_number, notes,
	coupon_id, gateway_reference, created_at, updated_at`

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository is the Postgres implementation of the order, catalog and coupon
// repositories.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts the order with its items and, when a coupon was used,
// re-checks the coupon caps under a row lock before recording the usage.
func (r *Repository) Create(ctx context.Context, order *domain.Order, redemption *ports.CouponRedemption) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if redemption != nil {
			if err := redeemCoupon(ctx, tx, *redemption); err != nil {
				return err
			}
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO orders (`+orderColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		`,
			order.ID, order.Number, order.CustomerID, order.CustomerEmail,
			order.Subtotal, order.Discount, order.DeliveryFee, order.Tax, order.Total,
			order.Status, order.PaymentMethod, order.PaymentStatus,
			order.DeliveryZoneID, order.DeliveryAddress, order.Phone, order.Notes,
			order.CouponID, order.GatewayReference, order.CreatedAt, order.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: order %s already exists", domain.ErrConflict, order.Number)
			}
			return fmt.Errorf("insert order: %w", err)
		}

		batch := &pgx.Batch{}
		for _, item := range order.Items {
			batch.Queue(`
				INSERT INTO order_items (id, order_id, menu_item_id, name, quantity, unit_price, subtotal)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, item.ID, order.ID, item.MenuItemID, item.Name, item.Quantity, item.UnitPrice, item.Subtotal)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert order items: %w", err)
		}

		if redemption != nil {
			_, err := tx.Exec(ctx, `
				INSERT INTO coupon_usages (coupon_id, user_id, order_id)
				VALUES ($1, $2, $3)
			`, redemption.CouponID, redemption.UserID, order.ID)
			if err != nil {
				return fmt.Errorf("insert coupon usage: %w", err)
			}
		}
		return nil
	})
}

func redeemCoupon(ctx context.Context, tx pgx.Tx, redemption ports.CouponRedemption) error {
	var maxUses, maxPerUser *int
	var usesCount int
	err := tx.QueryRow(ctx, `
		SELECT max_uses, max_uses_per_user, uses_count
		FROM coupons
		WHERE id = $1
		FOR UPDATE
	`, redemption.CouponID).Scan(&maxUses, &maxPerUser, &usesCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: coupon %s", domain.ErrNotFound, redemption.CouponID)
		}
		return fmt.Errorf("lock coupon: %w", err)
	}

	if maxUses != nil && usesCount >= *maxUses {
		return domain.ErrCouponExhausted
	}
	if maxPerUser != nil {
		used, err := countUsage(ctx, tx, redemption.CouponID, redemption.UserID)
		if err != nil {
			return err
		}
		if used >= *maxPerUser {
			return domain.ErrCouponExhausted
		}
	}

	if _, err := tx.Exec(ctx, `UPDATE coupons SET uses_count = uses_count + 1 WHERE id = $1`, redemption.CouponID); err != nil {
		return fmt.Errorf("increment coupon uses: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.getOne(ctx, "id", id)
}

func (r *Repository) GetByNumber(ctx context.Context, number string) (*domain.Order, error) {
	return r.getOne(ctx, "order_number", number)
}

func (r *Repository) GetByReference(ctx context.Context, reference string) (*domain.Order, error) {
	return r.getOne(ctx, "gateway_reference", reference)
}

// getOne loads a single order by one of its unique columns.
func (r *Repository) getOne(ctx context.Context, column, value string) (*domain.Order, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE `+column+` = $1`, value))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: order %s %s", domain.ErrNotFound, column, value)
		}
		return nil, fmt.Errorf("select order: %w", err)
	}
	if err := loadItems(ctx, r.pool, []*domain.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *Repository) List(ctx context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	filter = filter.Normalize()

	var statusFilter *string
	if filter.Status != nil {
		s := string(*filter.Status)
		statusFilter = &s
	}
	offset := (filter.Page - 1) * filter.PageSize

	rows, err := r.pool.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE ($1::text IS NULL OR status = $1)
		  AND ($2::text IS NULL OR customer_id = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`, statusFilter, filter.CustomerID, filter.PageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var page []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		page = append(page, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	if err := loadItems(ctx, r.pool, page); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(page))
	for _, order := range page {
		orders = append(orders, *order)
	}
	return orders, nil
}

// Update locks the order row, hands it to mutate and writes back the mutable
// columns when mutate reports a change.
func (r *Repository) Update(ctx context.Context, id string, mutate ports.MutateFunc) (*domain.Order, error) {
	var result *domain.Order
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		order, err := lockOrder(ctx, tx, id)
		if err != nil {
			return err
		}

		changed, err := mutate(order)
		if err != nil {
			return err
		}
		result = order
		if !changed {
			return nil
		}

		_, err = tx.Exec(ctx, `
			UPDATE orders
			SET status = $1, payment_method = $2, payment_status = $3,
			    gateway_reference = $4, updated_at = $5
			WHERE id = $6
		`, order.Status, order.PaymentMethod, order.PaymentStatus, order.GatewayReference, order.UpdatedAt, id)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: payment reference already in use", domain.ErrConflict)
			}
			return fmt.Errorf("update order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes the order and its items. Coupon usage rows keep their
// history with the order reference cleared.
func (r *Repository) Delete(ctx context.Context, id string, guard func(order *domain.Order) error) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		order, err := lockOrder(ctx, tx, id)
		if err != nil {
			return err
		}
		if guard != nil {
			if err := guard(order); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete order: %w", err)
		}
		return nil
	})
}

func lockOrder(ctx context.Context, tx pgx.Tx, id string) (*domain.Order, error) {
	order, err := scanOrder(tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: order %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("lock order: %w", err)
	}
	if err := loadItems(ctx, tx, []*domain.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var order domain.Order
	err := row.Scan(
		&order.ID, &order.Number, &order.CustomerID, &order.CustomerEmail,
		&order.Subtotal, &order.Discount, &order.DeliveryFee, &order.Tax, &order.Total,
		&order.Status, &order.PaymentMethod, &order.PaymentStatus,
		&order.DeliveryZoneID, &order.DeliveryAddress, &order.Phone, &order.Notes,
		&order.CouponID, &order.GatewayReference, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// loadItems fills in the items of every order with a single query.
func loadItems(ctx context.Context, q querier, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, 0, len(orders))
	byID := make(map[string]*domain.Order, len(orders))
	for _, order := range orders {
		ids = append(ids, order.ID)
		byID[order.ID] = order
		order.Items = []domain.OrderItem{}
	}

	rows, err := q.Query(ctx, `
		SELECT id, order_id, menu_item_id, name, quantity, unit_price, subtotal
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, menu_item_id
	`, ids)
	if err != nil {
		return fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.MenuItemID, &item.Name, &item.Quantity, &item.UnitPrice, &item.Subtotal); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		order := byID[item.OrderID]
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate order items: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
