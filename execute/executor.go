package execute

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/victorcalife/tql/ast"
	"github.com/victorcalife/tql/plan"
	"github.com/victorcalife/tql/semantic"
)

// DefaultTimeout bounds a single program evaluation.
const DefaultTimeout = 10 * time.Second

// Executor evaluates bound programs against a Provider.
type Executor struct {
	provider Provider
	timeout  time.Duration
}

// NewExecutor builds an Executor. A zero timeout means DefaultTimeout.
func NewExecutor(provider Provider, timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Executor{provider: provider, timeout: timeout}
}

// StatementResult is the outcome of one top level statement.
type StatementResult struct {
	// Name is set for assignments.
	Name  string
	Value Value
	// Dashboard is set when the statement declared a dashboard.
	Dashboard *DashboardData
}

// DashboardData is an evaluated dashboard: the declaration plus the data
// each widget needs to render.
type DashboardData struct {
	Decl    *semantic.Dashboard
	Env     Env
	Widgets []WidgetData
}

// WidgetData pairs a bound widget with its evaluated value. KPI and gauge
// widgets carry scalars drawn from the environment; chart and table widgets
// carry query results.
type WidgetData struct {
	Widget semantic.Widget
	Value  Value
}

// Result is the outcome of a whole program run.
type Result struct {
	Env        Env
	Statements []StatementResult
}

// Dashboards returns the evaluated dashboards in declaration order.
func (r *Result) Dashboards() []*DashboardData {
	var ds []*DashboardData
	for _, s := range r.Statements {
		if s.Dashboard != nil {
			ds = append(ds, s.Dashboard)
		}
	}
	return ds
}

// Run evaluates every statement of prog in order. The whole run shares one
// deadline; a statement failure aborts the run.
func (e *Executor) Run(ctx context.Context, prog *semantic.Program) (*Result, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "tql.execute")
	span.SetTag("tenant", prog.TenantID)
	defer span.Finish()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	result := &Result{Env: make(Env)}
	for _, stmt := range prog.Statements {
		if err := ctx.Err(); err != nil {
			return nil, timeoutOr(err)
		}
		sr, err := e.runStatement(ctx, stmt, result.Env)
		if err != nil {
			return nil, err
		}
		result.Statements = append(result.Statements, sr)
	}
	return result, nil
}

func (e *Executor) runStatement(ctx context.Context, stmt semantic.Statement, env Env) (StatementResult, error) {
	switch s := stmt.(type) {
	case *semantic.Assignment:
		v, err := e.eval(ctx, s.Expr, env)
		if err != nil {
			return StatementResult{}, errors.Wrapf(err, "evaluating %s", s.Name)
		}
		env[s.Name] = v
		return StatementResult{Name: s.Name, Value: v}, nil
	case *semantic.ExpressionStatement:
		v, err := e.eval(ctx, s.Expr, env)
		if err != nil {
			return StatementResult{}, err
		}
		return StatementResult{Value: v}, nil
	case *semantic.Dashboard:
		d, err := e.runDashboard(ctx, s, env)
		if err != nil {
			return StatementResult{}, err
		}
		return StatementResult{Dashboard: d}, nil
	}
	return StatementResult{}, errors.Errorf("unsupported statement %T", stmt)
}

func (e *Executor) runDashboard(ctx context.Context, d *semantic.Dashboard, env Env) (*DashboardData, error) {
	data := &DashboardData{Decl: d, Env: env}
	for _, w := range d.Widgets {
		wd := WidgetData{Widget: w}
		switch widget := w.(type) {
		case *semantic.KPI:
			wd.Value = env[widget.Variable]
		case *semantic.Gauge:
			wd.Value = env[widget.Variable]
		case *semantic.Chart:
			v, err := e.runPlan(ctx, widget.Plan)
			if err != nil {
				return nil, errors.Wrapf(err, "chart %q", widget.Title)
			}
			wd.Value = v
		case *semantic.Table:
			v, err := e.runPlan(ctx, widget.Plan)
			if err != nil {
				return nil, errors.Wrapf(err, "table %q", widget.Title)
			}
			wd.Value = v
		}
		data.Widgets = append(data.Widgets, wd)
	}
	return data, nil
}

func (e *Executor) eval(ctx context.Context, expr semantic.Expression, env Env) (Value, error) {
	switch x := expr.(type) {
	case *semantic.Number:
		return Scalar(x.Value), nil
	case *semantic.Variable:
		v, ok := env[x.Name]
		if !ok {
			return Value{}, errors.Errorf("variable %q has no value", x.Name)
		}
		return v, nil
	case *semantic.Query:
		return e.runPlan(ctx, x.Plan)
	case *semantic.Unary:
		v, err := e.eval(ctx, x.Expr, env)
		if err != nil {
			return Value{}, err
		}
		if v.NoData || v.IsTable() {
			return Value{}, errors.New("negation needs a scalar")
		}
		return Scalar(-v.Scalar), nil
	case *semantic.Binary:
		return e.evalBinary(ctx, x, env)
	}
	return Value{}, errors.Errorf("unsupported expression %T", expr)
}

func (e *Executor) evalBinary(ctx context.Context, bin *semantic.Binary, env Env) (Value, error) {
	left, err := e.eval(ctx, bin.Left, env)
	if err != nil {
		return Value{}, err
	}
	right, err := e.eval(ctx, bin.Right, env)
	if err != nil {
		return Value{}, err
	}
	if left.IsTable() || right.IsTable() {
		return Value{}, errors.New("arithmetic needs scalar operands")
	}
	// no data propagates through arithmetic
	if left.NoData || right.NoData {
		return NoData(), nil
	}
	switch bin.Op {
	case ast.AdditionOperator:
		return Scalar(left.Scalar + right.Scalar), nil
	case ast.SubtractionOperator:
		return Scalar(left.Scalar - right.Scalar), nil
	case ast.MultiplicationOperator:
		return Scalar(left.Scalar * right.Scalar), nil
	case ast.DivisionOperator:
		if right.Scalar == 0 {
			return Value{}, ErrDivisionByZero
		}
		return Scalar(left.Scalar / right.Scalar), nil
	}
	return Value{}, errors.Errorf("unsupported operator %v", bin.Op)
}

// runPlan executes one query plan. Stores that can run plans natively are
// used directly; otherwise rows are fetched and the plan runs in memory.
func (e *Executor) runPlan(ctx context.Context, p *plan.QueryPlan) (Value, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "tql.query")
	span.SetTag("plan", p.String())
	defer span.Finish()

	if pp, ok := e.provider.(PlanProvider); ok {
		v, err := pp.Query(ctx, p)
		if err != nil {
			return Value{}, wrapProvider(err)
		}
		return v, nil
	}

	rows, err := e.provider.Rows(ctx, p.TenantID, p.Dataset)
	if err != nil {
		return Value{}, wrapProvider(err)
	}
	if p.Where != nil {
		filtered := rows[:0:0]
		for _, r := range rows {
			if p.Where.Matches(r) {
				filtered = append(filtered, r)
			}
		}
		rows = filtered
	}
	if p.IsScan() {
		return scanValue(p, rows), nil
	}
	if len(p.GroupBy) > 0 {
		return groupedValue(p, rows), nil
	}
	return aggregateValue(p.Aggregate, p.Field, rows)
}

func scanValue(p *plan.QueryPlan, rows []plan.Row) Value {
	ordered := append([]plan.Row(nil), rows...)
	if p.OrderBy != nil {
		field := p.OrderBy.Field
		sort.SliceStable(ordered, func(i, j int) bool {
			less := rowLess(ordered[i][field], ordered[j][field])
			if p.OrderBy.Desc {
				return !less && !rowEqual(ordered[i][field], ordered[j][field])
			}
			return less
		})
	}
	if p.Limit > 0 && int64(len(ordered)) > p.Limit {
		ordered = ordered[:p.Limit]
	}
	return Value{Table: &Table{Columns: columnsOf(ordered), Rows: ordered}}
}

// aggregateValue folds rows into a single scalar.
func aggregateValue(op ast.AggregateOp, field string, rows []plan.Row) (Value, error) {
	if op == ast.AggregateCount {
		if field == "" {
			return Scalar(float64(len(rows))), nil
		}
		// counts values of any type, absent values excluded
		n := 0
		for _, r := range rows {
			if v, ok := r[field]; ok && v != nil {
				n++
			}
		}
		return Scalar(float64(n)), nil
	}
	var (
		sum   float64
		count int
		min   float64
		max   float64
	)
	for _, r := range rows {
		n, ok := numericValue(r[field])
		if !ok {
			continue
		}
		if count == 0 {
			min, max = n, n
		} else {
			if n < min {
				min = n
			}
			if n > max {
				max = n
			}
		}
		sum += n
		count++
	}
	switch op {
	case ast.AggregateSum:
		return Scalar(sum), nil
	case ast.AggregateMean:
		if count == 0 {
			return NoData(), nil
		}
		return Scalar(sum / float64(count)), nil
	case ast.AggregateMin:
		if count == 0 {
			return NoData(), nil
		}
		return Scalar(min), nil
	case ast.AggregateMax:
		if count == 0 {
			return NoData(), nil
		}
		return Scalar(max), nil
	}
	return Value{}, errors.Errorf("unsupported aggregate %v", op)
}

// groupedValue aggregates per group and returns a table of one row per
// group, ordered and limited per the plan.
func groupedValue(p *plan.QueryPlan, rows []plan.Row) Value {
	valueCol := p.Field
	if valueCol == "" {
		valueCol = "total"
	}

	groups := make(map[string][]plan.Row)
	var order []string
	for _, r := range rows {
		key := groupKey(p.GroupBy, r)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], r)
	}

	out := make([]plan.Row, 0, len(groups))
	for _, key := range order {
		members := groups[key]
		v, _ := aggregateValue(p.Aggregate, p.Field, members)
		row := plan.Row{valueCol: v.Scalar}
		if v.NoData {
			row[valueCol] = nil
		}
		for _, g := range p.GroupBy {
			row[g] = members[0][g]
		}
		out = append(out, row)
	}

	orderField := valueCol
	desc := false
	if p.OrderBy != nil {
		desc = p.OrderBy.Desc
		if p.OrderBy.Field != "" {
			orderField = p.OrderBy.Field
		}
		sort.SliceStable(out, func(i, j int) bool {
			less := rowLess(out[i][orderField], out[j][orderField])
			if desc {
				return !less && !rowEqual(out[i][orderField], out[j][orderField])
			}
			return less
		})
	}
	if p.Limit > 0 && int64(len(out)) > p.Limit {
		out = out[:p.Limit]
	}

	cols := append([]string{}, p.GroupBy...)
	cols = append(cols, valueCol)
	return Value{Table: &Table{Columns: cols, Rows: out}}
}

func groupKey(fields []string, r plan.Row) string {
	key := ""
	for _, f := range fields {
		key += "\x00" + fmt.Sprint(r[f])
	}
	return key
}

func numericValue(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func rowLess(a, b interface{}) bool {
	if an, ok := numericValue(a); ok {
		bn, _ := numericValue(b)
		return an < bn
	}
	as, _ := a.(string)
	bs, _ := b.(string)
	if as != "" || bs != "" {
		return as < bs
	}
	at, aok := a.(time.Time)
	bt, bok := b.(time.Time)
	return aok && bok && at.Before(bt)
}

func rowEqual(a, b interface{}) bool {
	return !rowLess(a, b) && !rowLess(b, a)
}

func wrapProvider(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return errors.Wrap(ErrProvider, err.Error())
}

func timeoutOr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return err
}
