package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestNoopMetrics(t *testing.T) {
	var m MetricsRecorder = NoopMetrics{}
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordValidation(ctx, time.Millisecond, errors.New("x"))
		m.RecordEvaluation(ctx, true, time.Millisecond, nil)
		m.RecordCacheLookup(ctx, true)
	})
}

func TestNoopSpanManager(t *testing.T) {
	var m SpanManager = NoopSpanManager{}
	ctx := context.Background()

	got, span := m.StartEvaluateSpan(ctx, "engine-1", "a == 1")
	assert.Equal(t, ctx, got)
	assert.False(t, span.IsRecording())

	got, span = m.StartValidateSpan(ctx, "a == 1")
	assert.Equal(t, ctx, got)
	assert.False(t, span.IsRecording())

	assert.NotPanics(t, func() {
		m.AddSpanEvent(ctx, "event", attribute.String("k", "v"))
		m.EndSpanWithError(span, errors.New("x"))
	})
}
