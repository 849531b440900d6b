package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	metrics, err := NewMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"))
	require.NoError(t, err)
	return metrics, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	found := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			found[m.Name] = m.Data
		}
	}
	return found
}

func TestRecordHTTPRequest(t *testing.T) {
	metrics, reader := newTestMetrics(t)
	ctx := context.Background()

	metrics.RecordRequest(ctx, "GET", "/v1/orders/{orderID}", 200, 0.5)
	metrics.RecordRequest(ctx, "POST", "/v1/checkout", 201, 0.7)

	data := collect(t, reader)

	sum, ok := data["http_requests_total"].(metricdata.Sum[int64])
	require.True(t, ok, "expected http_requests_total counter")
	assert.Len(t, sum.DataPoints, 2)

	histogram, ok := data["http_request_duration_seconds"].(metricdata.Histogram[float64])
	require.True(t, ok, "expected http_request_duration_seconds histogram")
	assert.Len(t, histogram.DataPoints, 2)
}

func TestWithMetricsLabelsByRoutePattern(t *testing.T) {
	metrics, reader := newTestMetrics(t)

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler { return WithMetrics(next, metrics) })
	router.Get("/v1/orders/{orderID}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"o-1", "o-2", "o-3"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/orders/"+id, nil))
	}

	data := collect(t, reader)

	sum, ok := data["http_requests_total"].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(3), sum.DataPoints[0].Value)

	route, _ := sum.DataPoints[0].Attributes.Value(attribute.Key("route"))
	assert.Equal(t, "/v1/orders/{orderID}", route.AsString())
	status, _ := sum.DataPoints[0].Attributes.Value(attribute.Key("status_code"))
	assert.Equal(t, int64(http.StatusTeapot), status.AsInt64())

	inFlight, ok := data["http_requests_in_flight"].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, inFlight.DataPoints, 1)
	assert.Zero(t, inFlight.DataPoints[0].Value)
}
