// Package semantic binds a parsed TQL program against a tenant's schema.
//
// Binding resolves every dataset and field name, type checks predicates and
// arithmetic, resolves temporal expressions to concrete windows and lowers
// queries into executable plans. The bound tree carries no source names left
// to resolve; evaluation never consults the catalog again.
package semantic

import (
	"time"

	"github.com/victorcalife/tql/ast"
	"github.com/victorcalife/tql/plan"
)

// Program is a fully bound TQL program for one tenant.
type Program struct {
	TenantID   string
	Statements []Statement
}

// Statement is one bound top level statement.
type Statement interface {
	boundStatement()
}

func (*Assignment) boundStatement()          {}
func (*ExpressionStatement) boundStatement() {}
func (*Dashboard) boundStatement()           {}

// Assignment stores the value of Expr under Name for later statements.
type Assignment struct {
	Name string
	Expr Expression
}

// ExpressionStatement evaluates Expr for its value.
type ExpressionStatement struct {
	Expr Expression
}

// Dashboard is a bound dashboard declaration. Refresh is zero when the
// program did not declare a cadence.
type Dashboard struct {
	Name    string
	Refresh time.Duration
	Widgets []Widget
}

// Expression is a bound value-producing expression.
type Expression interface {
	boundExpression()
}

func (*Query) boundExpression()    {}
func (*Binary) boundExpression()   {}
func (*Unary) boundExpression()    {}
func (*Number) boundExpression()   {}
func (*Variable) boundExpression() {}

// Query runs a plan against the data provider.
type Query struct {
	Plan *plan.QueryPlan
}

// Binary is arithmetic over two bound operands.
type Binary struct {
	Op    ast.OperatorKind
	Left  Expression
	Right Expression
}

// Unary is arithmetic negation.
type Unary struct {
	Expr Expression
}

// Number is a numeric literal, money literals included.
type Number struct {
	Value float64
}

// Variable references a previously assigned value.
type Variable struct {
	Name string
}

// Widget is one bound dashboard element.
type Widget interface {
	boundWidget()
}

func (*KPI) boundWidget()   {}
func (*Chart) boundWidget() {}
func (*Table) boundWidget() {}
func (*Gauge) boundWidget() {}

// ColorRule is a bound conditional color. Rules run in order, first match
// wins, a rule with Always set matches unconditionally.
type ColorRule struct {
	Color     string
	Op        ast.OperatorKind
	Threshold float64
	Always    bool
}

// KPI displays one variable formatted per its clauses.
type KPI struct {
	Variable string
	Title    string
	Format   ast.FormatKind
	Currency string
	Colors   []ColorRule
}

// Chart displays a grouped count of a dataset.
type Chart struct {
	Kind   string
	Title  string
	Plan   *plan.QueryPlan
	Colors []string
	Height int64
	Width  int64
}

// Table displays rows of a scan or ranking plan.
type Table struct {
	Title string
	Plan  *plan.QueryPlan
}

// Gauge displays a bounded variable with an optional target.
type Gauge struct {
	Variable string
	Title    string
	Min      float64
	Max      float64
	Target   *float64
}
