package adapters

import (
	"context"
	"time"

	"github.com/dejobratic/foodorder/internal/kafka"
	"github.com/dejobratic/foodorder/internal/orders/domain"
	"github.com/dejobratic/foodorder/internal/orders/ports"
	"github.com/dejobratic/foodorder/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

type ObservableNotifier struct {
	notifier ports.Notifier
	metrics  *kafka.Metrics
}

func NewObservableNotifier(notifier ports.Notifier, metrics *kafka.Metrics) *ObservableNotifier {
	return &ObservableNotifier{
		notifier: notifier,
		metrics:  metrics,
	}
}

func (n *ObservableNotifier) OrderCreated(ctx context.Context, order *domain.Order) error {
	return n.observe(ctx, kafka.EventOrderCreated, order, func(ctx context.Context) error {
		return n.notifier.OrderCreated(ctx, order)
	})
}

func (n *ObservableNotifier) StatusChanged(ctx context.Context, order *domain.Order, from, to domain.OrderStatus) error {
	return n.observe(ctx, kafka.EventStatusChanged, order, func(ctx context.Context) error {
		return n.notifier.StatusChanged(ctx, order, from, to)
	}, attribute.String("order.previous_status", string(from)))
}

func (n *ObservableNotifier) PaymentConfirmed(ctx context.Context, order *domain.Order) error {
	return n.observe(ctx, kafka.EventPaymentConfirmed, order, func(ctx context.Context) error {
		return n.notifier.PaymentConfirmed(ctx, order)
	})
}

func (n *ObservableNotifier) observe(ctx context.Context, event string, order *domain.Order, publish func(context.Context) error, attrs ...attribute.KeyValue) error {
	ctx, span := telemetry.StartSpan(ctx, "Notifier."+event)
	defer span.End()

	telemetry.AddSpanAttributes(span, append(attrs,
		attribute.String("order.id", order.ID),
		attribute.String("order.status", string(order.Status)),
		attribute.String("event.type", event),
	)...)

	start := time.Now()
	err := publish(ctx)
	n.metrics.RecordPublish(ctx, event, time.Since(start).Seconds(), err == nil)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}
