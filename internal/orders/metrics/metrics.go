package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	checkoutsTotal       metric.Int64Counter
	checkoutDuration     metric.Float64Histogram
	paymentConfirmations metric.Int64Counter
	couponEvaluations    metric.Int64Counter
	statusTransitions    metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.checkoutsTotal, err = meter.Int64Counter(
		"checkouts_total",
		metric.WithDescription("Total number of checkout attempts"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create checkouts_total counter: %w", err)
	}

	m.checkoutDuration, err = meter.Float64Histogram(
		"checkout_duration_seconds",
		metric.WithDescription("Duration of checkout operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create checkout_duration histogram: %w", err)
	}

	m.paymentConfirmations, err = meter.Int64Counter(
		"payment_confirmations_total",
		metric.WithDescription("Gateway payment confirmations by source and outcome"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create payment_confirmations_total counter: %w", err)
	}

	m.couponEvaluations, err = meter.Int64Counter(
		"coupon_evaluations_total",
		metric.WithDescription("Coupon evaluations by result"),
		metric.WithUnit("{evaluation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create coupon_evaluations_total counter: %w", err)
	}

	m.statusTransitions, err = meter.Int64Counter(
		"order_status_transitions_total",
		metric.WithDescription("Applied order status transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create order_status_transitions_total counter: %w", err)
	}

	return m, nil
}

func (m *Metrics) RecordCheckout(ctx context.Context, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.checkoutsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", status),
	))
}

func (m *Metrics) RecordCheckoutDuration(ctx context.Context, durationSeconds float64) {
	m.checkoutDuration.Record(ctx, durationSeconds)
}

// RecordPaymentConfirmation counts a confirmation attempt. Outcome is one of
// applied, duplicate, ignored or error.
func (m *Metrics) RecordPaymentConfirmation(ctx context.Context, source, outcome string) {
	m.paymentConfirmations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("outcome", outcome),
	))
}

// RecordCouponEvaluation counts an evaluation by its result, "accepted" or
// the rejection reason.
func (m *Metrics) RecordCouponEvaluation(ctx context.Context, result string) {
	m.couponEvaluations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("result", result),
	))
}

func (m *Metrics) RecordStatusTransition(ctx context.Context, from, to string) {
	m.statusTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}
