package ruleflow

import (
	"log/slog"

	"github.com/randalmurphal/ruleflow/pkg/ruleflow/config"
	"github.com/randalmurphal/ruleflow/pkg/ruleflow/observability"
	"github.com/randalmurphal/ruleflow/pkg/ruleflow/parser"
)

// engineConfig holds configuration for an Engine.
type engineConfig struct {
	logger         *slog.Logger
	metrics        observability.MetricsRecorder
	spans          observability.SpanManager
	maxDepth       int
	strictLiterals bool
}

func defaultEngineConfig() engineConfig {
	return engineConfig{
		logger:   slog.Default(),
		metrics:  observability.NoopMetrics{},
		spans:    observability.NoopSpanManager{},
		maxDepth: parser.DefaultMaxDepth,
	}
}

// Option configures an Engine.
type Option func(*engineConfig)

// WithLogger sets the logger. Default: slog.Default().
//
// Validation and cache events log at Debug. Evaluations log at Debug, or at
// Info together with the plan and every evaluated clause when trace is
// requested.
func WithLogger(logger *slog.Logger) Option {
	return func(c *engineConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics enables OpenTelemetry metrics through the global meter
// provider. Default: disabled.
//
// Recorded instruments:
//   - ruleflow.validations, ruleflow.validation.latency_ms
//   - ruleflow.evaluations, ruleflow.evaluation.latency_ms, ruleflow.evaluation.errors
//   - ruleflow.cache.lookups
func WithMetrics(enabled bool) Option {
	return func(c *engineConfig) {
		if enabled {
			c.metrics = observability.NewMetricsRecorder()
		} else {
			c.metrics = observability.NoopMetrics{}
		}
	}
}

// WithTracing enables OpenTelemetry spans through the global tracer
// provider. Default: disabled.
func WithTracing(enabled bool) Option {
	return func(c *engineConfig) {
		if enabled {
			c.spans = observability.NewSpanManager()
		} else {
			c.spans = observability.NoopSpanManager{}
		}
	}
}

// WithMaxDepth bounds parenthesis nesting and list-of-record recursion.
// Default: 32. Values below 1 are ignored.
func WithMaxDepth(n int) Option {
	return func(c *engineConfig) {
		if n > 0 {
			c.maxDepth = n
		}
	}
}

// WithStrictLiterals makes an RHS literal that does not fit its attribute's
// type a validation failure. By default the failure is raised only when the
// clause is evaluated.
func WithStrictLiterals(strict bool) Option {
	return func(c *engineConfig) {
		c.strictLiterals = strict
	}
}

// OptionsFromConfig maps config keys to engine options:
//
//	max_depth: 32
//	strict_literals: false
//	metrics: false
//	tracing: false
//
// Keys that are absent leave the engine default in place.
func OptionsFromConfig(cfg config.Config) []Option {
	var opts []Option
	if cfg.Has("max_depth") {
		opts = append(opts, WithMaxDepth(cfg.Int("max_depth", parser.DefaultMaxDepth)))
	}
	if cfg.Has("strict_literals") {
		opts = append(opts, WithStrictLiterals(cfg.Bool("strict_literals", false)))
	}
	if cfg.Has("metrics") {
		opts = append(opts, WithMetrics(cfg.Bool("metrics", false)))
	}
	if cfg.Has("tracing") {
		opts = append(opts, WithTracing(cfg.Bool("tracing", false)))
	}
	return opts
}

func (c engineConfig) parseOptions() []parser.Option {
	return []parser.Option{
		parser.WithMaxDepth(c.maxDepth),
		parser.WithStrictLiterals(c.strictLiterals),
	}
}
