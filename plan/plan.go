// Package plan defines the executable form of a bound TQL query.
//
// A QueryPlan is what a data Provider receives: dataset, tenant, aggregate,
// predicate tree and shaping clauses, with every temporal expression already
// resolved to a concrete window. Plans never carry source positions or
// unresolved names.
package plan

import (
	"fmt"
	"strings"
	"time"

	"github.com/victorcalife/tql/ast"
	"github.com/victorcalife/tql/temporal"
)

// CompareOp is a predicate comparison.
type CompareOp int

const (
	Eq CompareOp = iota
	Neq
	Gt
	Gte
	Lt
	Lte
	InWindow
)

var compareOpStrings = map[CompareOp]string{
	Eq:       "=",
	Neq:      "<>",
	Gt:       ">",
	Gte:      ">=",
	Lt:       "<",
	Lte:      "<=",
	InWindow: "in",
}

func (o CompareOp) String() string { return compareOpStrings[o] }

// Row is one dataset record. Values are string, float64, bool or time.Time.
type Row map[string]interface{}

// Predicate is a filter tree over rows.
type Predicate interface {
	predicate()
	// Matches reports whether the row satisfies the predicate.
	Matches(row Row) bool
	String() string
}

func (*Filter) predicate() {}
func (*And) predicate()    {}
func (*Or) predicate()     {}

// Filter is a single field comparison. Value is a string, float64 or
// temporal.Window depending on the comparison.
type Filter struct {
	Field string
	Op    CompareOp
	Value interface{}
}

// Matches implements Predicate. Rows missing the field never match.
func (f *Filter) Matches(row Row) bool {
	v, ok := row[f.Field]
	if !ok {
		return false
	}
	switch want := f.Value.(type) {
	case temporal.Window:
		ts, ok := v.(time.Time)
		if !ok {
			return false
		}
		return want.Contains(ts)
	case string:
		s, ok := v.(string)
		if !ok {
			return false
		}
		switch f.Op {
		case Eq:
			return s == want
		case Neq:
			return s != want
		case Gt:
			return s > want
		case Gte:
			return s >= want
		case Lt:
			return s < want
		case Lte:
			return s <= want
		}
		return false
	case float64:
		n, ok := asNumber(v)
		if !ok {
			return false
		}
		switch f.Op {
		case Eq:
			return n == want
		case Neq:
			return n != want
		case Gt:
			return n > want
		case Gte:
			return n >= want
		case Lt:
			return n < want
		case Lte:
			return n <= want
		}
		return false
	case bool:
		b, ok := v.(bool)
		if !ok {
			return false
		}
		switch f.Op {
		case Eq:
			return b == want
		case Neq:
			return b != want
		}
		return false
	}
	return false
}

func (f *Filter) String() string {
	return fmt.Sprintf("%s %s %v", f.Field, f.Op, f.Value)
}

func asNumber(v interface{}) (float64, bool) {
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

// And requires both sides.
type And struct {
	Left, Right Predicate
}

// Matches implements Predicate.
func (a *And) Matches(row Row) bool {
	return a.Left.Matches(row) && a.Right.Matches(row)
}

func (a *And) String() string {
	return fmt.Sprintf("(%s and %s)", a.Left, a.Right)
}

// Or requires either side.
type Or struct {
	Left, Right Predicate
}

// Matches implements Predicate.
func (o *Or) Matches(row Row) bool {
	return o.Left.Matches(row) || o.Right.Matches(row)
}

func (o *Or) String() string {
	return fmt.Sprintf("(%s or %s)", o.Left, o.Right)
}

// Order is an ORDENADO POR clause. An empty Field orders by the aggregated
// value itself.
type Order struct {
	Field string
	Desc  bool
}

// QueryPlan is one executable query against a single dataset.
//
// Aggregate zero (no aggregate) is a row scan: the provider returns matching
// rows shaped by Order and Limit. Otherwise the provider aggregates Field
// (or counts rows when Field is empty) per GroupBy group.
type QueryPlan struct {
	TenantID  string
	Dataset   string
	Aggregate ast.AggregateOp
	Field     string
	Where     Predicate
	GroupBy   []string
	OrderBy   *Order
	Limit     int64
}

// IsScan reports whether the plan selects raw rows rather than aggregating.
func (p *QueryPlan) IsScan() bool { return p.Aggregate == ast.AggregateOp(0) }

func (p *QueryPlan) String() string {
	var sb strings.Builder
	if p.IsScan() {
		sb.WriteString("scan")
	} else {
		sb.WriteString(strings.ToLower(p.Aggregate.String()))
		if p.Field != "" {
			sb.WriteString("(" + p.Field + ")")
		}
	}
	fmt.Fprintf(&sb, " %s", p.Dataset)
	if p.Where != nil {
		fmt.Fprintf(&sb, " where %s", p.Where)
	}
	if len(p.GroupBy) > 0 {
		fmt.Fprintf(&sb, " group by %s", strings.Join(p.GroupBy, ", "))
	}
	if p.OrderBy != nil {
		field := p.OrderBy.Field
		if field == "" {
			field = "value"
		}
		dir := "asc"
		if p.OrderBy.Desc {
			dir = "desc"
		}
		fmt.Fprintf(&sb, " order by %s %s", field, dir)
	}
	if p.Limit > 0 {
		fmt.Fprintf(&sb, " limit %d", p.Limit)
	}
	return sb.String()
}
