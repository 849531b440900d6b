package kafka

import (
	"context"
	"log/slog"

	"github.com/dejobratic/foodorder/internal/orders/domain"
)

// NoopNotifier logs notifications instead of publishing them. Used when no
// brokers are configured.
type NoopNotifier struct {
	logger *slog.Logger
}

func NewNoopNotifier(logger *slog.Logger) *NoopNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoopNotifier{logger: logger}
}

func (n *NoopNotifier) OrderCreated(ctx context.Context, order *domain.Order) error {
	n.logger.DebugContext(ctx, "notification::"+EventOrderCreated, "order_id", order.ID)
	return nil
}

func (n *NoopNotifier) StatusChanged(ctx context.Context, order *domain.Order, from, to domain.OrderStatus) error {
	n.logger.DebugContext(ctx, "notification::"+EventStatusChanged, "order_id", order.ID, "from", from, "to", to)
	return nil
}

func (n *NoopNotifier) PaymentConfirmed(ctx context.Context, order *domain.Order) error {
	n.logger.DebugContext(ctx, "notification::"+EventPaymentConfirmed, "order_id", order.ID)
	return nil
}
