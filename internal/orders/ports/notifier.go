package ports

import (
	"context"

	"github.com/dejobratic/foodorder/internal/orders/domain"
)

// Notifier defines the contract for customer notifications about order lifecycle events.
type Notifier interface {
	OrderCreated(ctx context.Context, order *domain.Order) error
	StatusChanged(ctx context.Context, order *domain.Order, from, to domain.OrderStatus) error
	PaymentConfirmed(ctx context.Context, order *domain.Order) error
}
