// Package observability provides logging, metrics, and tracing for
// ruleflow engines.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"context"
	"log/slog"
	"time"

	rferrors "github.com/randalmurphal/ruleflow/pkg/ruleflow/errors"
)

// EnrichLogger adds engine context to a logger.
//
// Example:
//
//	enriched := EnrichLogger(logger, engineID)
//	enriched.Info("evaluating") // includes engine_id
func EnrichLogger(logger *slog.Logger, engineID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(slog.String("engine_id", engineID))
}

// LogValidation logs a successful validation.
func LogValidation(logger *slog.Logger, expr string, subexpressions int, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("expression validated",
		slog.String("expression", expr),
		slog.Int("subexpressions", subexpressions),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogValidationError logs a validation failure.
func LogValidationError(logger *slog.Logger, expr string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("expression rejected",
		slog.String("expression", expr),
		slog.String("code", string(rferrors.CodeOf(err))),
		slog.String("error", err.Error()),
	)
}

// LogCacheLookup logs a plan cache lookup.
func LogCacheLookup(logger *slog.Logger, expr string, hit bool) {
	if logger == nil {
		return
	}
	logger.Debug("plan cache lookup",
		slog.String("expression", expr),
		slog.Bool("hit", hit),
	)
}

// LogEvaluation logs an evaluation result. Traced evaluations log at Info.
func LogEvaluation(logger *slog.Logger, expr string, result bool, durationMs float64, traced bool) {
	if logger == nil {
		return
	}
	level := slog.LevelDebug
	if traced {
		level = slog.LevelInfo
	}
	logger.Log(context.Background(), level, "expression evaluated",
		slog.String("expression", expr),
		slog.Bool("result", result),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogEvaluationError logs an evaluation failure.
func LogEvaluationError(logger *slog.Logger, expr string, err error) {
	if logger == nil {
		return
	}
	logger.Error("evaluation failed",
		slog.String("expression", expr),
		slog.String("code", string(rferrors.CodeOf(err))),
		slog.String("error", err.Error()),
	)
}

// LogPlanTrace logs the rendered plan of a traced evaluation.
func LogPlanTrace(logger *slog.Logger, expr, trace string) {
	if logger == nil {
		return
	}
	logger.Info("evaluation plan",
		slog.String("expression", expr),
		slog.String("plan", trace),
	)
}

// LogClause logs the outcome of one clause of a traced evaluation.
func LogClause(logger *slog.Logger, clause string, result bool, err error) {
	if logger == nil {
		return
	}
	attrs := []any{
		slog.String("clause", clause),
		slog.Bool("result", result),
	}
	if err != nil {
		attrs = append(attrs, slog.String("code", string(rferrors.CodeOf(err))))
	}
	logger.Info("clause evaluated", attrs...)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000
	}
}
