// Package format renders evaluated TQL values for display.
//
// All numeric output follows Brazilian Portuguese conventions: dot for
// thousands, comma for decimals. Percent formatting renders the value as is
// with one decimal; programs that want 0.955 shown as 95,5% multiply by 100
// themselves.
package format

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/victorcalife/tql/ast"
	"github.com/victorcalife/tql/semantic"
)

var printer = message.NewPrinter(language.BrazilianPortuguese)

// NoDataDisplay is shown for aggregates without a defined value.
const NoDataDisplay = "-"

// Number renders v per the format kind. Unknown kinds degrade to the raw
// value rather than failing the dashboard.
func Number(v float64, kind ast.FormatKind, currency string) string {
	switch kind {
	case ast.FormatInteger:
		return integer(v)
	case ast.FormatDecimal:
		return decimal(v, 2)
	case ast.FormatPercent:
		return decimal(v, 1) + "%"
	case ast.FormatCurrency:
		if currency == "" {
			currency = "R$"
		}
		return currency + " " + decimal(v, 2)
	case ast.FormatNumber:
		if v == math.Trunc(v) {
			return integer(v)
		}
		return decimal(v, 2)
	}
	return fmt.Sprint(v)
}

func integer(v float64) string {
	return printer.Sprint(number.Decimal(math.Round(v), number.MaxFractionDigits(0)))
}

func decimal(v float64, digits int) string {
	return printer.Sprint(number.Decimal(v,
		number.MinFractionDigits(digits),
		number.MaxFractionDigits(digits),
	))
}

// Color resolves the first matching color rule for v. Rules run in
// declaration order; an empty string means no rule matched.
func Color(rules []semantic.ColorRule, v float64) string {
	for _, r := range rules {
		if r.Always || matches(r.Op, v, r.Threshold) {
			return r.Color
		}
	}
	return ""
}

func matches(op ast.OperatorKind, v, threshold float64) bool {
	switch op {
	case ast.EqualOperator:
		return v == threshold
	case ast.NotEqualOperator:
		return v != threshold
	case ast.GreaterThanOperator:
		return v > threshold
	case ast.GreaterThanEqualOperator:
		return v >= threshold
	case ast.LessThanOperator:
		return v < threshold
	case ast.LessThanEqualOperator:
		return v <= threshold
	}
	return false
}
