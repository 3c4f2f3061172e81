package semantic

import (
	"time"

	"github.com/pkg/errors"

	"github.com/victorcalife/tql/ast"
	"github.com/victorcalife/tql/plan"
	"github.com/victorcalife/tql/schema"
	"github.com/victorcalife/tql/temporal"
)

// DefaultInstantTolerance is the width of the AGORA window when the caller
// does not configure one.
const DefaultInstantTolerance = time.Minute

// Config controls temporal resolution during binding.
type Config struct {
	// Now is the reference instant for temporal expressions.
	// The zero value means the wall clock.
	Now time.Time
	// InstantTolerance is how far back AGORA reaches.
	InstantTolerance time.Duration
}

// Bind resolves prog against the tenant's datasets and returns the bound
// program. The first error aborts the bind.
func Bind(prog *ast.Program, catalog schema.Catalog, tenantID string, cfg Config) (*Program, error) {
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	if cfg.InstantTolerance <= 0 {
		cfg.InstantTolerance = DefaultInstantTolerance
	}
	b := &binder{
		catalog:  catalog,
		tenantID: tenantID,
		cfg:      cfg,
		vars:     make(map[string]bool),
	}
	bound := &Program{TenantID: tenantID}
	for _, stmt := range prog.Body {
		s, err := b.bindStatement(stmt)
		if err != nil {
			return nil, err
		}
		bound.Statements = append(bound.Statements, s)
	}
	return bound, nil
}

type binder struct {
	catalog  schema.Catalog
	tenantID string
	cfg      Config
	vars     map[string]bool
}

func (b *binder) bindStatement(stmt ast.Statement) (Statement, error) {
	switch s := stmt.(type) {
	case *ast.AssignmentStatement:
		expr, err := b.bindExpression(s.Init)
		if err != nil {
			return nil, err
		}
		b.vars[s.Name.Name] = true
		return &Assignment{Name: s.Name.Name, Expr: expr}, nil
	case *ast.ExpressionStatement:
		expr, err := b.bindExpression(s.Expression)
		if err != nil {
			return nil, err
		}
		return &ExpressionStatement{Expr: expr}, nil
	case *ast.DashboardStatement:
		return b.bindDashboard(s)
	}
	return nil, errAt(InvalidQuery, stmt, "unsupported statement %s", stmt.Type())
}

func (b *binder) bindExpression(expr ast.Expression) (Expression, error) {
	switch e := expr.(type) {
	case *ast.AggregateExpression:
		p, err := b.bindAggregate(e)
		if err != nil {
			return nil, err
		}
		return &Query{Plan: p}, nil
	case *ast.TopExpression:
		p, err := b.bindTop(e)
		if err != nil {
			return nil, err
		}
		return &Query{Plan: p}, nil
	case *ast.BinaryExpression:
		left, err := b.bindExpression(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := b.bindExpression(e.Right)
		if err != nil {
			return nil, err
		}
		return &Binary{Op: e.Operator, Left: left, Right: right}, nil
	case *ast.UnaryExpression:
		arg, err := b.bindExpression(e.Argument)
		if err != nil {
			return nil, err
		}
		return &Unary{Expr: arg}, nil
	case *ast.IntegerLiteral:
		return &Number{Value: float64(e.Value)}, nil
	case *ast.NumberLiteral:
		return &Number{Value: e.Value}, nil
	case *ast.MoneyLiteral:
		return &Number{Value: e.Value}, nil
	case *ast.Identifier:
		if !b.vars[e.Name] {
			return nil, errAt(UnknownVariable, e, "variable %q is not defined", e.Name)
		}
		return &Variable{Name: e.Name}, nil
	case *ast.StringLiteral:
		return nil, errAt(TypeMismatch, e, "string %q cannot be used as a value", e.Value)
	}
	return nil, errAt(InvalidQuery, expr, "%s cannot be evaluated outside a predicate", expr.Type())
}

// bindAggregate lowers an aggregate call to a plan, resolving field types and
// temporal windows against the dataset.
func (b *binder) bindAggregate(agg *ast.AggregateExpression) (*plan.QueryPlan, error) {
	ds, err := b.lookupDataset(agg.Dataset)
	if err != nil {
		return nil, err
	}

	p := &plan.QueryPlan{
		TenantID:  b.tenantID,
		Dataset:   ds.Name,
		Aggregate: agg.Op,
		Limit:     agg.Limit,
	}

	if agg.Field != nil {
		ft, ok := ds.Field(agg.Field.Name)
		if !ok {
			return nil, errAt(UnknownField, agg.Field, "dataset %q has no field %q", ds.Name, agg.Field.Name)
		}
		// CONTAR counts values of any type
		if agg.Op != ast.AggregateCount && !numericField(ft) {
			return nil, errAt(TypeMismatch, agg.Field, "%s requires a numeric field, %q is %s", agg.Op, agg.Field.Name, ft)
		}
		p.Field = agg.Field.Name
	} else if agg.Op != ast.AggregateCount {
		return nil, errAt(InvalidQuery, agg, "%s requires a field", agg.Op)
	}

	if agg.Where != nil {
		pred, err := b.bindPredicate(agg.Where, ds)
		if err != nil {
			return nil, err
		}
		p.Where = pred
	}

	for _, g := range agg.GroupBy {
		if _, ok := ds.Field(g.Name); !ok {
			return nil, errAt(UnknownField, g, "dataset %q has no field %q", ds.Name, g.Name)
		}
		p.GroupBy = append(p.GroupBy, g.Name)
	}

	if agg.OrderBy != nil {
		order, err := b.bindOrder(agg.OrderBy, ds, p.Field)
		if err != nil {
			return nil, err
		}
		p.OrderBy = order
	}
	return p, nil
}

// bindTop lowers TOP n target POR by to a grouped sum ordered descending.
func (b *binder) bindTop(top *ast.TopExpression) (*plan.QueryPlan, error) {
	ds, err := b.lookupDataset(top.Dataset)
	if err != nil {
		return nil, err
	}
	if _, ok := ds.Field(top.Target.Name); !ok {
		return nil, errAt(UnknownField, top.Target, "dataset %q has no field %q", ds.Name, top.Target.Name)
	}
	ft, ok := ds.Field(top.By.Name)
	if !ok {
		return nil, errAt(UnknownField, top.By, "dataset %q has no field %q", ds.Name, top.By.Name)
	}
	if !numericField(ft) {
		return nil, errAt(TypeMismatch, top.By, "TOP requires a numeric field, %q is %s", top.By.Name, ft)
	}
	p := &plan.QueryPlan{
		TenantID:  b.tenantID,
		Dataset:   ds.Name,
		Aggregate: ast.AggregateSum,
		Field:     top.By.Name,
		GroupBy:   []string{top.Target.Name},
		OrderBy:   &plan.Order{Desc: true},
		Limit:     top.N,
	}
	if top.Where != nil {
		pred, err := b.bindPredicate(top.Where, ds)
		if err != nil {
			return nil, err
		}
		p.Where = pred
	}
	return p, nil
}

func (b *binder) bindOrder(oc *ast.OrderClause, ds *schema.Dataset, aggField string) (*plan.Order, error) {
	if _, ok := ds.Field(oc.Field.Name); !ok {
		return nil, errAt(UnknownField, oc.Field, "dataset %q has no field %q", ds.Name, oc.Field.Name)
	}
	order := &plan.Order{Field: oc.Field.Name, Desc: oc.Direction == ast.SortDesc}
	if aggField != "" && oc.Field.Name == aggField {
		// ordering by the aggregated field orders by the aggregated value
		order.Field = ""
	}
	return order, nil
}

func (b *binder) bindPredicate(expr ast.Expression, ds *schema.Dataset) (plan.Predicate, error) {
	switch e := expr.(type) {
	case *ast.LogicalExpression:
		left, err := b.bindPredicate(e.Left, ds)
		if err != nil {
			return nil, err
		}
		right, err := b.bindPredicate(e.Right, ds)
		if err != nil {
			return nil, err
		}
		if e.Operator == ast.AndOperator {
			return &plan.And{Left: left, Right: right}, nil
		}
		return &plan.Or{Left: left, Right: right}, nil
	case *ast.ComparisonExpression:
		return b.bindComparison(e, ds)
	}
	return nil, errAt(InvalidQuery, expr, "%s is not a predicate", expr.Type())
}

func (b *binder) bindComparison(cmp *ast.ComparisonExpression, ds *schema.Dataset) (plan.Predicate, error) {
	field, ok := cmp.Left.(*ast.Identifier)
	if !ok {
		return nil, errAt(InvalidQuery, cmp.Left, "predicate must compare a field")
	}
	ft, ok := ds.Field(field.Name)
	if !ok {
		return nil, errAt(UnknownField, field, "dataset %q has no field %q", ds.Name, field.Name)
	}

	switch rhs := cmp.Right.(type) {
	case *ast.TemporalExpression, *ast.LastExpression, *ast.BetweenExpression:
		if ft != schema.TTime {
			return nil, errAt(TypeMismatch, field, "field %q is %s, temporal comparison needs a time field", field.Name, ft)
		}
		if cmp.Operator != ast.InOperator && cmp.Operator != ast.EqualOperator {
			return nil, errAt(TypeMismatch, cmp, "temporal values support only = and EM")
		}
		w, err := b.resolveWindow(cmp.Right)
		if err != nil {
			return nil, err
		}
		return &plan.Filter{Field: field.Name, Op: plan.InWindow, Value: w}, nil
	case *ast.StringLiteral:
		if ft != schema.TString {
			return nil, errAt(TypeMismatch, rhs, "field %q is %s, compared with a string", field.Name, ft)
		}
		return &plan.Filter{Field: field.Name, Op: compareOp(cmp.Operator), Value: rhs.Value}, nil
	case *ast.IntegerLiteral:
		return b.numericFilter(field, ft, cmp.Operator, float64(rhs.Value))
	case *ast.NumberLiteral:
		return b.numericFilter(field, ft, cmp.Operator, rhs.Value)
	case *ast.MoneyLiteral:
		return b.numericFilter(field, ft, cmp.Operator, rhs.Value)
	case *ast.Identifier:
		// unquoted values are accepted for string fields
		if ft != schema.TString {
			return nil, errAt(TypeMismatch, rhs, "field %q is %s, compared with %q", field.Name, ft, rhs.Name)
		}
		return &plan.Filter{Field: field.Name, Op: compareOp(cmp.Operator), Value: rhs.Name}, nil
	}
	return nil, errAt(InvalidQuery, cmp.Right, "%s cannot be compared against", cmp.Right.Type())
}

func (b *binder) numericFilter(field *ast.Identifier, ft schema.FieldType, op ast.OperatorKind, v float64) (plan.Predicate, error) {
	if !numericField(ft) {
		return nil, errAt(TypeMismatch, field, "field %q is %s, compared with a number", field.Name, ft)
	}
	return &plan.Filter{Field: field.Name, Op: compareOp(op), Value: v}, nil
}

func (b *binder) resolveWindow(expr ast.Expression) (temporal.Window, error) {
	switch e := expr.(type) {
	case *ast.TemporalExpression:
		if e.Instant {
			return temporal.Instant(b.cfg.Now, b.cfg.InstantTolerance), nil
		}
		return temporal.Resolve(e.Unit, e.Offset, b.cfg.Now), nil
	case *ast.LastExpression:
		return temporal.Last(e.Unit, e.Count, b.cfg.Now), nil
	case *ast.BetweenExpression:
		from, err := b.resolveWindow(e.From)
		if err != nil {
			return temporal.Window{}, err
		}
		to, err := b.resolveWindow(e.To)
		if err != nil {
			return temporal.Window{}, err
		}
		return temporal.Between(from, to), nil
	}
	return temporal.Window{}, errAt(InvalidQuery, expr, "%s is not a temporal expression", expr.Type())
}

func (b *binder) lookupDataset(id *ast.Identifier) (*schema.Dataset, error) {
	ds, err := b.catalog.Dataset(b.tenantID, id.Name)
	switch {
	case errors.Is(err, schema.ErrDatasetNotFound):
		return nil, errAt(UnknownDataset, id, "tenant %q has no dataset %q", b.tenantID, id.Name)
	case errors.Is(err, schema.ErrAccessDenied):
		return nil, errAt(CrossTenantAccessDenied, id, "dataset %q belongs to another tenant", id.Name)
	case err != nil:
		return nil, errors.Wrapf(err, "resolving dataset %q", id.Name)
	}
	return ds, nil
}

func numericField(ft schema.FieldType) bool {
	return ft == schema.TNumber || ft == schema.TBool
}

var compareOps = map[ast.OperatorKind]plan.CompareOp{
	ast.EqualOperator:            plan.Eq,
	ast.NotEqualOperator:         plan.Neq,
	ast.GreaterThanOperator:      plan.Gt,
	ast.GreaterThanEqualOperator: plan.Gte,
	ast.LessThanOperator:         plan.Lt,
	ast.LessThanEqualOperator:    plan.Lte,
	ast.InOperator:               plan.InWindow,
}

func compareOp(op ast.OperatorKind) plan.CompareOp {
	return compareOps[op]
}
