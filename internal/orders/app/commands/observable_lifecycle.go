package commands

import (
	"context"
	"log/slog"

	"github.com/dejobratic/foodorder/internal/orders/metrics"
	"github.com/dejobratic/foodorder/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type ObservableLifecycleHandler struct {
	handler LifecycleHandler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservableLifecycleHandler(handler LifecycleHandler, logger *slog.Logger, metrics *metrics.Metrics) *ObservableLifecycleHandler {
	return &ObservableLifecycleHandler{
		handler: handler,
		logger:  logger,
		metrics: metrics,
	}
}

func (o *ObservableLifecycleHandler) ConfirmCash(ctx context.Context, cmd ConfirmCashCommand) (*StatusChange, error) {
	ctx, span := telemetry.StartSpan(ctx, "OrderLifecycle.ConfirmCash")
	defer span.End()

	change, err := o.handler.ConfirmCash(ctx, cmd)
	return o.observe(ctx, span, "confirm_cash", cmd.OrderID, change, err)
}

func (o *ObservableLifecycleHandler) Cancel(ctx context.Context, cmd CancelOrderCommand) (*StatusChange, error) {
	ctx, span := telemetry.StartSpan(ctx, "OrderLifecycle.Cancel")
	defer span.End()

	change, err := o.handler.Cancel(ctx, cmd)
	return o.observe(ctx, span, "cancel", cmd.OrderID, change, err)
}

func (o *ObservableLifecycleHandler) UpdateStatus(ctx context.Context, cmd UpdateStatusCommand) (*StatusChange, error) {
	ctx, span := telemetry.StartSpan(ctx, "OrderLifecycle.UpdateStatus")
	defer span.End()

	telemetry.AddSpanAttributes(span, attribute.String("order.target_status", cmd.Status))
	change, err := o.handler.UpdateStatus(ctx, cmd)
	return o.observe(ctx, span, "update_status", cmd.OrderID, change, err)
}

func (o *ObservableLifecycleHandler) Delete(ctx context.Context, cmd DeleteOrderCommand) error {
	ctx, span := telemetry.StartSpan(ctx, "OrderLifecycle.Delete")
	defer span.End()

	if err := o.handler.Delete(ctx, cmd); err != nil {
		telemetry.RecordSpanError(span, err)
		o.logger.ErrorContext(ctx, "failed to delete order", "error", err, "order_id", cmd.OrderID)
		return err
	}

	o.logger.InfoContext(ctx, "order deleted", "order_id", cmd.OrderID, "admin_id", cmd.Actor.UserID)
	telemetry.SetSpanSuccess(span)
	return nil
}

func (o *ObservableLifecycleHandler) observe(ctx context.Context, span trace.Span, action, orderID string, change *StatusChange, err error) (*StatusChange, error) {
	telemetry.AddSpanAttributes(span, attribute.String("order.id", orderID))
	if err != nil {
		telemetry.RecordSpanError(span, err)
		o.logger.ErrorContext(ctx, "order transition failed", "action", action, "order_id", orderID, "error", err)
		return nil, err
	}

	if change.Changed {
		o.metrics.RecordStatusTransition(ctx, string(change.From), string(change.Order.Status))
		o.logger.InfoContext(ctx, "order status changed",
			"action", action,
			"order_id", orderID,
			"from", change.From,
			"to", change.Order.Status,
		)
	}
	telemetry.SetSpanSuccess(span)
	return change, nil
}
