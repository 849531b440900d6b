package commands

import (
	"context"
	"log/slog"

	"github.com/dejobratic/foodorder/internal/orders/metrics"
	"github.com/dejobratic/foodorder/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type ObservablePaymentHandler struct {
	handler PaymentHandler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservablePaymentHandler(handler PaymentHandler, logger *slog.Logger, metrics *metrics.Metrics) *ObservablePaymentHandler {
	return &ObservablePaymentHandler{
		handler: handler,
		logger:  logger,
		metrics: metrics,
	}
}

func (o *ObservablePaymentHandler) Initiate(ctx context.Context, cmd InitiatePaymentCommand) (*PaymentInitiation, error) {
	ctx, span := telemetry.StartSpan(ctx, "PaymentCommand.Initiate")
	defer span.End()

	o.logger.InfoContext(ctx, "initiating payment", "order_id", cmd.OrderID, "user_id", cmd.Actor.UserID)

	result, err := o.handler.Initiate(ctx, cmd)
	if err != nil {
		telemetry.RecordSpanError(span, err)
		o.logger.ErrorContext(ctx, "failed to initiate payment", "error", err, "order_id", cmd.OrderID)
		return nil, err
	}

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", result.Order.ID),
		attribute.String("payment.reference", result.Reference),
	)
	o.logger.InfoContext(ctx, "payment initiated", "order_id", result.Order.ID, "reference", result.Reference)
	telemetry.SetSpanSuccess(span)

	return result, nil
}

func (o *ObservablePaymentHandler) ConfirmRedirect(ctx context.Context, reference string) (*PaymentOutcome, error) {
	ctx, span := telemetry.StartSpan(ctx, "PaymentCommand.ConfirmRedirect")
	defer span.End()

	telemetry.AddSpanAttributes(span, attribute.String("payment.reference", reference))
	outcome, err := o.handler.ConfirmRedirect(ctx, reference)
	return o.observe(ctx, span, SourceRedirect, outcome, err)
}

func (o *ObservablePaymentHandler) ConfirmWebhook(ctx context.Context, body []byte, signature string) (*PaymentOutcome, error) {
	ctx, span := telemetry.StartSpan(ctx, "PaymentCommand.ConfirmWebhook")
	defer span.End()

	outcome, err := o.handler.ConfirmWebhook(ctx, body, signature)
	return o.observe(ctx, span, SourceWebhook, outcome, err)
}

func (o *ObservablePaymentHandler) observe(ctx context.Context, span trace.Span, source PaymentSource, outcome *PaymentOutcome, err error) (*PaymentOutcome, error) {
	if err != nil {
		o.metrics.RecordPaymentConfirmation(ctx, string(source), "error")
		telemetry.RecordSpanError(span, err)
		o.logger.ErrorContext(ctx, "payment confirmation failed", "source", source, "error", err)
		return nil, err
	}

	result := paymentResult(outcome)
	o.metrics.RecordPaymentConfirmation(ctx, string(source), result)
	telemetry.AddSpanAttributes(span, attribute.String("payment.outcome", result))

	if outcome.Order != nil {
		o.logger.InfoContext(ctx, "payment confirmation processed",
			"source", source,
			"outcome", result,
			"order_id", outcome.Order.ID,
			"payment_status", outcome.Order.PaymentStatus,
		)
	}
	telemetry.SetSpanSuccess(span)
	return outcome, nil
}

func paymentResult(outcome *PaymentOutcome) string {
	switch {
	case outcome.Order == nil:
		return "ignored"
	case outcome.Applied:
		return "applied"
	default:
		return "duplicate"
	}
}
