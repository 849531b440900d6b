package database

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Query outcomes used as the "outcome" metric label.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

// Metrics tracks repository round trips against Postgres.
type Metrics struct {
	queryDuration metric.Float64Histogram
	queryFailures metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.queryDuration, err = meter.Float64Histogram(
		"db_query_duration_seconds",
		metric.WithDescription("Database query duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create db_query_duration histogram: %w", err)
	}

	m.queryFailures, err = meter.Int64Counter(
		"db_query_failures_total",
		metric.WithDescription("Database queries that ended in an unexpected error"),
		metric.WithUnit("{query}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create db_query_failures counter: %w", err)
	}

	return m, nil
}

// RecordQuery records one repository operation. Expected outcomes such as
// not_found are kept apart from genuine failures.
func (m *Metrics) RecordQuery(ctx context.Context, operation, outcome string, durationSeconds float64) {
	m.queryDuration.Record(ctx, durationSeconds, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
	if outcome == OutcomeError {
		m.queryFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
	}
}
