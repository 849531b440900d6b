package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/dejobratic/foodorder/internal/orders/domain"
	"github.com/dejobratic/foodorder/internal/orders/metrics"
	"github.com/dejobratic/foodorder/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

type ObservableCheckoutHandler struct {
	handler CheckoutHandler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservableCheckoutHandler(handler CheckoutHandler, logger *slog.Logger, metrics *metrics.Metrics) *ObservableCheckoutHandler {
	return &ObservableCheckoutHandler{
		handler: handler,
		logger:  logger,
		metrics: metrics,
	}
}

func (o *ObservableCheckoutHandler) Handle(ctx context.Context, cmd CheckoutCommand) (*domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "CheckoutCommand.Handle")
	defer span.End()

	start := time.Now()
	var success bool
	defer func() {
		o.metrics.RecordCheckoutDuration(ctx, time.Since(start).Seconds())
		o.metrics.RecordCheckout(ctx, success)
	}()

	o.logger.InfoContext(ctx, "checking out cart",
		"user_id", cmd.Actor.UserID,
		"delivery_zone_id", cmd.DeliveryZoneID,
		"coupon_code", cmd.CouponCode,
	)

	order, err := o.handler.Handle(ctx, cmd)
	if err != nil {
		telemetry.RecordSpanError(span, err)
		o.logger.ErrorContext(ctx, "checkout failed",
			"error", err,
			"user_id", cmd.Actor.UserID,
		)
		return nil, err
	}

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", order.ID),
		attribute.String("order.number", order.Number),
		attribute.String("order.total", order.Total.StringFixed(2)),
		attribute.Int("order.items", len(order.Items)),
	)

	o.logger.InfoContext(ctx, "order placed",
		"order_id", order.ID,
		"order_number", order.Number,
		"total", order.Total.StringFixed(2),
	)

	success = true
	telemetry.SetSpanSuccess(span)

	return order, nil
}
