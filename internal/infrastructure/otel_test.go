package infrastructure

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"itemliquidity/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOTelInitialization(t *testing.T) {
	providers, err := InitializeOTel(nil, testLogger())
	require.NoError(t, err)
	require.NotNil(t, providers)

	// Defaults: metrics on, tracing off
	assert.Nil(t, providers.TracerProvider)
	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.PrometheusHTTP)
	assert.NotNil(t, providers.Registry)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, providers.Shutdown(ctx))
}

func TestNewOTelConfig(t *testing.T) {
	cfg := NewOTelConfig(config.TelemetryConfig{
		ServiceName:    "liquidity-test",
		Environment:    "test",
		TracingEnabled: true,
		MetricsEnabled: false,
	})

	assert.Equal(t, "liquidity-test", cfg.ServiceName)
	assert.Equal(t, config.AppVersion, cfg.ServiceVersion)
	assert.Equal(t, "stdout", cfg.TraceExporter)
	assert.True(t, cfg.EnableTracing)
	assert.False(t, cfg.EnableMetrics)

	assert.Equal(t, "none", NewOTelConfig(config.TelemetryConfig{}).TraceExporter)
}

func TestUnsupportedExporters(t *testing.T) {
	cfg := DefaultOTelConfig()
	cfg.EnableTracing = true
	cfg.TraceExporter = "jaeger"
	_, err := InitializeOTel(cfg, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported trace exporter")

	cfg = DefaultOTelConfig()
	cfg.MetricExporter = "otlp"
	_, err = InitializeOTel(cfg, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported metric exporter")
}

func TestTraceCorrelation(t *testing.T) {
	cfg := DefaultOTelConfig()
	cfg.EnableTracing = true
	cfg.TraceExporter = "stdout"

	providers, err := InitializeOTel(cfg, testLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())
	require.NotNil(t, providers.TracerProvider)

	ctx, span := providers.Tracer.Start(context.Background(), "score-item")
	defer span.End()

	traceID := TraceIDFromContext(ctx)
	assert.NotEmpty(t, traceID)
	assert.Equal(t, span.SpanContext().TraceID().String(), traceID)

	ctx = WithTraceID(ctx, traceID)
	assert.Equal(t, traceID, GetTraceID(ctx))

	// Recording an error on a live span must not panic
	RecordError(ctx, errors.New("fetch failed"))
}

func TestTraceIDFromContextWithoutSpan(t *testing.T) {
	assert.Empty(t, TraceIDFromContext(context.Background()))
	RecordError(context.Background(), errors.New("ignored"))
}

func TestScoringMetricsExposedOnPrometheus(t *testing.T) {
	providers, err := InitializeOTel(DefaultOTelConfig(), testLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	metrics, err := NewScoringMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordScore(ctx, "scan", 76.7, 2)
	metrics.RecordScore(ctx, "api", 3.7, 0)
	metrics.ItemsSkipped.Add(ctx, 1)
	metrics.RecordPublish(ctx, "github", nil)
	metrics.RecordPublish(ctx, "sheets", errors.New("quota"))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "liquidity_items_scored_total")
	assert.Contains(t, body, "liquidity_items_skipped_total")
	assert.Contains(t, body, "liquidity_outliers_removed_total")
	assert.Contains(t, body, "liquidity_score_bucket")
	assert.Contains(t, body, "liquidity_publish_total")
	assert.Contains(t, body, `status="failure"`)
	// Runtime collectors share the registry
	assert.Contains(t, body, "go_goroutines")
}

func TestScoringMetricsNoop(t *testing.T) {
	metrics, err := NewScoringMetrics(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	metrics.RecordScore(context.Background(), "scan", 50, 1)

	var nilMetrics *ScoringMetrics
	assert.NotPanics(t, func() {
		nilMetrics.RecordScore(context.Background(), "scan", 50, 1)
		nilMetrics.RecordPublish(context.Background(), "github", nil)
	})

	metrics, err = NewScoringMetrics(nil)
	require.NoError(t, err)
	assert.NotNil(t, metrics.ItemsScored)
}

func TestHTTPMetrics(t *testing.T) {
	providers, err := InitializeOTel(DefaultOTelConfig(), testLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	metrics, err := NewHTTPMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.ActiveRequests.Add(ctx, 1)
	metrics.RequestsTotal.Add(ctx, 1)
	metrics.RequestDuration.Record(ctx, 0.012)

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "http_requests_total")
	assert.Contains(t, rec.Body.String(), "http_request_duration_seconds_bucket")

	_, err = NewHTTPMetrics(nil)
	assert.NoError(t, err)
}
