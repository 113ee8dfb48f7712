package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	rferrors "github.com/randalmurphal/ruleflow/pkg/ruleflow/errors"
)

// MetricsRecorder records ruleflow metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordValidation records one plan build and whether it failed.
	RecordValidation(ctx context.Context, duration time.Duration, err error)

	// RecordEvaluation records one evaluation with its result or error.
	RecordEvaluation(ctx context.Context, result bool, duration time.Duration, err error)

	// RecordCacheLookup records a plan cache hit or miss.
	RecordCacheLookup(ctx context.Context, hit bool)
}

type otelMetrics struct {
	validations       metric.Int64Counter
	validationLatency metric.Float64Histogram
	evaluations       metric.Int64Counter
	evalLatency       metric.Float64Histogram
	evalErrors        metric.Int64Counter
	cacheLookups      metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("ruleflow")

	validations, err := meter.Int64Counter("ruleflow.validations",
		metric.WithDescription("Number of expression validations"),
	)
	if err != nil {
		return nil, err
	}

	validationLatency, err := meter.Float64Histogram("ruleflow.validation.latency_ms",
		metric.WithDescription("Validation latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	evaluations, err := meter.Int64Counter("ruleflow.evaluations",
		metric.WithDescription("Number of predicate evaluations"),
	)
	if err != nil {
		return nil, err
	}

	evalLatency, err := meter.Float64Histogram("ruleflow.evaluation.latency_ms",
		metric.WithDescription("Evaluation latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	evalErrors, err := meter.Int64Counter("ruleflow.evaluation.errors",
		metric.WithDescription("Number of failed evaluations"),
	)
	if err != nil {
		return nil, err
	}

	cacheLookups, err := meter.Int64Counter("ruleflow.cache.lookups",
		metric.WithDescription("Number of plan cache lookups"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		validations:       validations,
		validationLatency: validationLatency,
		evaluations:       evaluations,
		evalLatency:       evalLatency,
		evalErrors:        evalErrors,
		cacheLookups:      cacheLookups,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

func (m *otelMetrics) RecordValidation(ctx context.Context, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("code", string(rferrors.CodeOf(err))),
	}
	m.validations.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.validationLatency.Record(ctx, durationMs(duration), metric.WithAttributes(attrs...))
}

func (m *otelMetrics) RecordEvaluation(ctx context.Context, result bool, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.Bool("result", result),
	}
	m.evaluations.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.evalLatency.Record(ctx, durationMs(duration), metric.WithAttributes(attrs...))

	if err != nil {
		m.evalErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("code", string(rferrors.CodeOf(err))),
			attribute.String("category", rferrors.Categorize(err).String()),
		))
	}
}

func (m *otelMetrics) RecordCacheLookup(ctx context.Context, hit bool) {
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.Bool("hit", hit)))
}

func durationMs(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
