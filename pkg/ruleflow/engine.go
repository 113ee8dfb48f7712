package ruleflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/randalmurphal/ruleflow/pkg/ruleflow/cache"
	rferrors "github.com/randalmurphal/ruleflow/pkg/ruleflow/errors"
	"github.com/randalmurphal/ruleflow/pkg/ruleflow/eval"
	"github.com/randalmurphal/ruleflow/pkg/ruleflow/observability"
	"github.com/randalmurphal/ruleflow/pkg/ruleflow/parser"
	"github.com/randalmurphal/ruleflow/pkg/ruleflow/plan"
	"github.com/randalmurphal/ruleflow/pkg/ruleflow/record"
	"github.com/randalmurphal/ruleflow/pkg/ruleflow/types"
)

// Engine is one evaluation context: it owns a plan cache and the logger,
// metrics and tracing used for every call made through it.
//
// An Engine is safe for concurrent use. Callers that want no shared state
// between workers create one Engine per worker.
type Engine struct {
	id        string
	cfg       engineConfig
	logger    *slog.Logger
	cache     *cache.Cache
	parseOpts []parser.Option
}

// New creates an Engine with an empty plan cache.
func New(opts ...Option) *Engine {
	cfg := defaultEngineConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	e := &Engine{
		id:        uuid.New().String(),
		cfg:       cfg,
		parseOpts: cfg.parseOptions(),
	}
	e.logger = observability.EnrichLogger(cfg.logger, e.id)
	e.cache = cache.New(e.build)
	return e
}

// ID returns the engine's unique id, attached to its logs and spans.
func (e *Engine) ID() string {
	return e.id
}

// CacheSize returns the number of cached plans.
func (e *Engine) CacheSize() int {
	return e.cache.Len()
}

// CachedExpressions returns the texts of all cached plans, sorted.
func (e *Engine) CachedExpressions() []string {
	return e.cache.Texts()
}

// EvaluatePredicate evaluates expr against rec.
//
// The plan for expr is built and cached on first use. A cached plan is only
// reused for records whose schema has the layout it was built against;
// otherwise the call fails with SchemaMismatchInCache. On any error the
// result is false. Use CodeOf to obtain the error code.
//
// With traced set, the plan and the outcome of every evaluated clause are
// logged at Info.
func (e *Engine) EvaluatePredicate(ctx context.Context, expr string, rec types.Record, traced bool) (result bool, err error) {
	start := time.Now()
	done := observability.TimedOperation()
	ctx, span := e.cfg.spans.StartEvaluateSpan(ctx, e.id, expr)
	defer func() {
		e.cfg.metrics.RecordEvaluation(ctx, result, time.Since(start), err)
		e.cfg.spans.EndSpanWithError(span, err)
	}()

	if rec == nil {
		err = rferrors.Newf(rferrors.ErrInternalInvariant, "nil record")
		observability.LogEvaluationError(e.logger, expr, err)
		return false, err
	}

	p, err := e.plan(ctx, expr, rec.Schema())
	if err != nil {
		observability.LogEvaluationError(e.logger, expr, err)
		return false, err
	}

	ev := eval.Evaluator{ParseOptions: e.parseOpts}
	if traced {
		observability.LogPlanTrace(e.logger, expr, p.Trace())
		ev.Observe = func(cl *plan.Clause, ok bool, clauseErr error) {
			observability.LogClause(e.logger, p.ClauseText(cl), ok, clauseErr)
		}
	}

	result, err = ev.Evaluate(p, rec)
	if err != nil {
		observability.LogEvaluationError(e.logger, expr, err)
		return false, err
	}
	observability.LogEvaluation(e.logger, expr, result, done(), traced)
	return result, nil
}

// Validate checks expr against s and returns its plan, caching it exactly
// as EvaluatePredicate would.
func (e *Engine) Validate(ctx context.Context, expr string, s *types.Schema) (*plan.Plan, error) {
	if s == nil {
		return nil, rferrors.Newf(rferrors.ErrInternalInvariant, "nil schema")
	}
	return e.plan(ctx, expr, s)
}

// FetchAttributeValue resolves a single path such as "items[1].qty" or
// `prices["usd"]` against rec, without going through the plan cache.
func (e *Engine) FetchAttributeValue(path string, rec types.Record) (types.Value, error) {
	if rec == nil {
		return types.Value{}, rferrors.Newf(rferrors.ErrInternalInvariant, "nil record")
	}
	v, err := record.Fetch(rec, path)
	if err != nil {
		e.logger.Debug("attribute fetch failed",
			slog.String("path", path),
			slog.String("code", string(rferrors.CodeOf(err))),
		)
		return types.Value{}, err
	}
	return v, nil
}

// plan returns the cached plan for expr, building it on a miss. Builds run
// inside a validate span and are recorded as validations.
func (e *Engine) plan(ctx context.Context, expr string, s *types.Schema) (*plan.Plan, error) {
	var span trace.Span
	if _, ok := e.cache.Lookup(expr); !ok {
		ctx, span = e.cfg.spans.StartValidateSpan(ctx, expr)
	}

	start := time.Now()
	p, hit, err := e.cache.Get(expr, s)
	elapsed := time.Since(start)

	e.cfg.metrics.RecordCacheLookup(ctx, hit)
	observability.LogCacheLookup(e.logger, expr, hit)
	e.cfg.spans.AddSpanEvent(ctx, "plan.lookup", attribute.Bool("hit", hit))

	if !hit {
		e.cfg.metrics.RecordValidation(ctx, elapsed, err)
		if err != nil {
			observability.LogValidationError(e.logger, expr, err)
		} else {
			observability.LogValidation(e.logger, expr, len(p.SortedIDs), float64(elapsed.Microseconds())/1000)
		}
	}
	if span != nil {
		e.cfg.spans.EndSpanWithError(span, err)
	}
	return p, err
}

func (e *Engine) build(text string, s *types.Schema) (*plan.Plan, error) {
	return parser.Parse(text, s, e.parseOpts...)
}
