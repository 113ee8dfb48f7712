package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	rferrors "github.com/randalmurphal/ruleflow/pkg/ruleflow/errors"
)

// tracer uses the global OTel tracer provider.
var tracer = otel.Tracer("ruleflow")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartEvaluateSpan starts a span for one EvaluatePredicate call.
	StartEvaluateSpan(ctx context.Context, engineID, expr string) (context.Context, trace.Span)

	// StartValidateSpan starts a span for building a plan. It is a child
	// of the evaluate span when the plan is built on a cache miss.
	StartValidateSpan(ctx context.Context, expr string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

func (m *otelSpanManager) StartEvaluateSpan(ctx context.Context, engineID, expr string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "ruleflow.evaluate",
		trace.WithAttributes(
			attribute.String("engine.id", engineID),
			attribute.String("expression", expr),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (m *otelSpanManager) StartValidateSpan(ctx context.Context, expr string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "ruleflow.validate",
		trace.WithAttributes(
			attribute.String("expression", expr),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	EndSpanWithError(span, err)
}

func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// EndSpanWithError completes a span. A failure is recorded with its error
// code as an attribute.
func EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.SetAttributes(attribute.String("error.code", string(rferrors.CodeOf(err))))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
