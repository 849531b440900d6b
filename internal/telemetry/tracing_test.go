package telemetry

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func TestSpanHelpers(t *testing.T) {
	t.Run("successful span carries attributes and ok status", func(t *testing.T) {
		recorder := withRecorder(t)

		ctx, span := StartSpan(context.Background(), "OrderRepository.Create")
		AddSpanAttributes(span, attribute.String("order.id", "o1"))
		SetSpanSuccess(span)
		if TraceID(ctx) == "" || SpanID(ctx) == "" {
			t.Error("expected ids on the span context")
		}
		span.End()

		ended := recorder.Ended()
		if len(ended) != 1 {
			t.Fatalf("expected one span, got %d", len(ended))
		}
		if ended[0].Status().Code != codes.Ok {
			t.Errorf("expected ok status, got %v", ended[0].Status())
		}
		if attrs := ended[0].Attributes(); len(attrs) != 1 || attrs[0].Value.AsString() != "o1" {
			t.Errorf("unexpected attributes %v", attrs)
		}
	})

	t.Run("errors are recorded", func(t *testing.T) {
		recorder := withRecorder(t)

		_, span := StartSpan(context.Background(), "PaymentCommand.Initiate")
		RecordSpanError(span, errors.New("gateway timeout"))
		span.End()

		ended := recorder.Ended()[0]
		if ended.Status().Code != codes.Error || ended.Status().Description != "gateway timeout" {
			t.Errorf("unexpected status %v", ended.Status())
		}
		if len(ended.Events()) != 1 {
			t.Errorf("expected an exception event, got %v", ended.Events())
		}
	})

	t.Run("helpers tolerate nil", func(t *testing.T) {
		AddSpanAttributes(nil, attribute.Int("n", 1))
		RecordSpanError(nil, errors.New("x"))
		SetSpanSuccess(nil)

		if TraceID(context.Background()) != "" || SpanID(context.Background()) != "" {
			t.Error("expected empty ids without a span")
		}
	})
}
