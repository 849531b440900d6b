package ports

import (
	"context"
	"time"

	"github.com/dejobratic/foodorder/internal/orders/domain"
)

// MutateFunc validates and mutates an order that is locked for update. It
// reports whether anything changed; returning an error aborts the write.
type MutateFunc func(order *domain.Order) (changed bool, err error)

// CouponRedemption ties a committed order to the coupon it used.
type CouponRedemption struct {
	CouponID string
	UserID   string
}

// OrderRepository exposes persistence operations required by the application layer.
type OrderRepository interface {
	// Create persists the order, its items and the optional coupon redemption
	// atomically. It fails with domain.ErrCouponExhausted when a cap was
	// reached concurrently.
	Create(ctx context.Context, order *domain.Order, redemption *CouponRedemption) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByNumber(ctx context.Context, number string) (*domain.Order, error)
	GetByReference(ctx context.Context, reference string) (*domain.Order, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Order, error)
	// Update runs mutate against the current row under a lock and persists the
	// result when it reports a change.
	Update(ctx context.Context, id string, mutate MutateFunc) (*domain.Order, error)
	// Delete removes the order when guard accepts the locked row.
	Delete(ctx context.Context, id string, guard func(order *domain.Order) error) error
}

// ListFilter narrows list queries by customer, status and pagination.
type ListFilter struct {
	CustomerID *string
	Status     *domain.OrderStatus
	Page       int
	PageSize   int
}

// Normalize applies the default page and page size.
func (f ListFilter) Normalize() ListFilter {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = 20
	}
	if f.PageSize > 100 {
		f.PageSize = 100
	}
	return f
}

// CatalogRepository reads menu items and delivery zones.
type CatalogRepository interface {
	GetMenuItem(ctx context.Context, id string) (*domain.MenuItem, error)
	GetZone(ctx context.Context, id string) (*domain.DeliveryZone, error)
	ListZones(ctx context.Context) ([]domain.DeliveryZone, error)
}

// CouponRepository reads coupons and their redemption ledger.
type CouponRepository interface {
	GetCouponByCode(ctx context.Context, code string) (*domain.Coupon, error)
	CountCouponUsage(ctx context.Context, couponID, userID string) (int, error)
}

// OrderStatsRepository aggregates order history for summaries and dashboards.
type OrderStatsRepository interface {
	CustomerStats(ctx context.Context, customerID string, favorites int) (*domain.CustomerStats, error)
	// PopularItems ranks menu items by order lines created at or after since.
	PopularItems(ctx context.Context, since time.Time, limit int) ([]domain.ItemCount, error)
	CountByStatus(ctx context.Context) (map[domain.OrderStatus]int, error)
}
