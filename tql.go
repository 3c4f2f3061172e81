// Package tql compiles and evaluates TQL programs.
//
// TQL is a Portuguese keyword query language for business dashboards:
// aggregates over named datasets, calendar aware time windows and declarative
// widget definitions. The pipeline is parse, bind against the tenant's
// schema, evaluate against a data provider, then compile dashboards into
// render-ready specs:
//
//	engine := tql.NewEngine(catalog, provider)
//	res, err := engine.Run(ctx, src, "acme")
//
// Recurring refresh lives in the control package; Engine satisfies its
// Evaluator interface.
package tql

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/rs/zerolog"

	"github.com/victorcalife/tql/ast"
	"github.com/victorcalife/tql/control"
	"github.com/victorcalife/tql/execute"
	"github.com/victorcalife/tql/format"
	"github.com/victorcalife/tql/parser"
	"github.com/victorcalife/tql/schema"
	"github.com/victorcalife/tql/semantic"
)

// Engine evaluates TQL programs for any tenant against one catalog and
// provider pair.
type Engine struct {
	catalog   schema.Catalog
	provider  execute.Provider
	timeout   time.Duration
	tolerance time.Duration
	logger    zerolog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithTimeout bounds a single program evaluation.
func WithTimeout(d time.Duration) EngineOption {
	return func(e *Engine) { e.timeout = d }
}

// WithInstantTolerance sets how far back AGORA reaches.
func WithInstantTolerance(d time.Duration) EngineOption {
	return func(e *Engine) { e.tolerance = d }
}

// WithLogger sets the engine logger.
func WithLogger(l zerolog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine builds an Engine.
func NewEngine(catalog schema.Catalog, provider execute.Provider, opts ...EngineOption) *Engine {
	e := &Engine{
		catalog:   catalog,
		provider:  provider,
		timeout:   execute.DefaultTimeout,
		tolerance: semantic.DefaultInstantTolerance,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is a full program run: the final variable environment, the value of
// each statement and the compiled dashboards.
type Result struct {
	Env        execute.Env
	Statements []execute.StatementResult
	Dashboards []*format.DashboardSpec
}

// Run compiles and evaluates src for the tenant at the current instant.
func (e *Engine) Run(ctx context.Context, src, tenantID string) (*Result, error) {
	return e.RunAt(ctx, src, tenantID, time.Now())
}

// RunAt is Run with an explicit reference instant. Evaluation is a pure
// function of source, catalog, provider data and the instant: re-running
// with the same inputs yields the same result.
func (e *Engine) RunAt(ctx context.Context, src, tenantID string, now time.Time) (*Result, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "tql.run")
	span.SetTag("tenant", tenantID)
	defer span.Finish()

	start := time.Now()
	logger := e.logger.With().Str("tenant", tenantID).Logger()

	prog, err := parser.Parse(src)
	if err != nil {
		logger.Debug().Err(err).Msg("parse failed")
		return nil, err
	}
	logger.Debug().Strs("datasets", ast.Datasets(prog)).Msg("parsed program")
	bound, err := semantic.Bind(prog, e.catalog, tenantID, semantic.Config{
		Now:              now,
		InstantTolerance: e.tolerance,
	})
	if err != nil {
		logger.Debug().Err(err).Msg("bind failed")
		return nil, err
	}

	res, err := execute.NewExecutor(e.provider, e.timeout).Run(ctx, bound)
	if err != nil {
		logger.Warn().Err(err).Msg("evaluation failed")
		return nil, err
	}

	out := &Result{Env: res.Env, Statements: res.Statements}
	for _, d := range res.Dashboards() {
		out.Dashboards = append(out.Dashboards, format.Compile(d))
	}
	logger.Debug().
		Int("statements", len(out.Statements)).
		Int("dashboards", len(out.Dashboards)).
		Dur("took", time.Since(start)).
		Msg("run complete")
	return out, nil
}

// Evaluate implements control.Evaluator.
func (e *Engine) Evaluate(ctx context.Context, src, tenantID string, now time.Time) ([]*format.DashboardSpec, error) {
	res, err := e.RunAt(ctx, src, tenantID, now)
	if err != nil {
		return nil, err
	}
	return res.Dashboards, nil
}

// NewController builds a refresh controller driven by this engine.
func (e *Engine) NewController(opts ...control.Option) *control.Controller {
	return control.New(e, opts...)
}
