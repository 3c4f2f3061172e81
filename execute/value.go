// Package execute evaluates bound TQL programs against a data provider.
package execute

import (
	"fmt"
	"sort"

	"github.com/victorcalife/tql/plan"
)

// Value is the result of one expression: a scalar, a table, or no data.
// NoData marks aggregates with no defined value over an empty input, such
// as MEDIA over zero rows. SOMAR and CONTAR over zero rows are plain zeros.
type Value struct {
	Scalar float64
	Table  *Table
	NoData bool
}

// IsTable reports whether the value carries rows rather than a scalar.
func (v Value) IsTable() bool { return v.Table != nil }

func (v Value) String() string {
	switch {
	case v.NoData:
		return "no data"
	case v.IsTable():
		return fmt.Sprintf("table(%d rows)", len(v.Table.Rows))
	default:
		return fmt.Sprintf("%v", v.Scalar)
	}
}

// Scalar wraps a float as a Value.
func Scalar(f float64) Value { return Value{Scalar: f} }

// NoData is the empty aggregate value.
func NoData() Value { return Value{NoData: true} }

// Table is an ordered set of result rows.
type Table struct {
	Columns []string
	Rows    []plan.Row
}

// columnsOf derives a stable column list from a row set.
func columnsOf(rows []plan.Row) []string {
	seen := make(map[string]bool)
	var cols []string
	for _, r := range rows {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)
	return cols
}

// Env holds the values of assigned variables in a program run.
type Env map[string]Value
