package database

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Failed to collect metrics: %v", err)
	}
	found := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			found[m.Name] = m.Data
		}
	}
	return found
}

func TestRecordQuery(t *testing.T) {
	t.Run("labels duration by operation and outcome", func(t *testing.T) {
		reader := sdkmetric.NewManualReader()
		metrics, err := NewMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"))
		if err != nil {
			t.Fatalf("NewMetrics() failed: %v", err)
		}

		ctx := context.Background()
		metrics.RecordQuery(ctx, "create_order", OutcomeOK, 0.1)
		metrics.RecordQuery(ctx, "create_order", OutcomeConflict, 0.1)
		metrics.RecordQuery(ctx, "get_order_by_id", OutcomeNotFound, 0.05)

		data := collect(t, reader)
		histogram, ok := data["db_query_duration_seconds"].(metricdata.Histogram[float64])
		if !ok {
			t.Fatal("Expected db_query_duration_seconds histogram")
		}
		if len(histogram.DataPoints) != 3 {
			t.Errorf("Expected 3 data points, got %d", len(histogram.DataPoints))
		}
		if _, ok := data["db_query_failures_total"]; ok {
			t.Error("expected outcomes must not count as failures")
		}
	})

	t.Run("counts unexpected errors", func(t *testing.T) {
		reader := sdkmetric.NewManualReader()
		metrics, err := NewMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"))
		if err != nil {
			t.Fatalf("NewMetrics() failed: %v", err)
		}

		ctx := context.Background()
		metrics.RecordQuery(ctx, "update_order", OutcomeError, 0.2)
		metrics.RecordQuery(ctx, "update_order", OutcomeError, 0.3)

		sum, ok := collect(t, reader)["db_query_failures_total"].(metricdata.Sum[int64])
		if !ok {
			t.Fatal("Expected db_query_failures_total counter")
		}
		if len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 2 {
			t.Errorf("Expected a single point of 2, got %+v", sum.DataPoints)
		}
	})
}
