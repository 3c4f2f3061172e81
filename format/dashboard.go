package format

import (
	"fmt"
	"time"

	"github.com/victorcalife/tql/ast"
	"github.com/victorcalife/tql/execute"
	"github.com/victorcalife/tql/semantic"
)

// chartKindNames maps TQL chart keywords to renderer kinds.
var chartKindNames = map[string]string{
	"linha":     "line",
	"barras":    "bar",
	"barras_h":  "bar_h",
	"pizza":     "pie",
	"rosquinha": "donut",
	"area":      "area",
}

// DashboardSpec is the render-ready form of an evaluated dashboard.
type DashboardSpec struct {
	Name           string        `json:"name"`
	RefreshEvery   time.Duration `json:"-"`
	RefreshSeconds int64         `json:"refresh_seconds,omitempty"`
	Widgets        []WidgetSpec  `json:"widgets"`
}

// WidgetSpec is one render-ready widget. Fields are populated per Type.
type WidgetSpec struct {
	Type  string `json:"type"`
	Title string `json:"title,omitempty"`

	// kpi
	Value    string  `json:"value,omitempty"`
	RawValue float64 `json:"raw_value,omitempty"`
	Color    string  `json:"color,omitempty"`

	// chart
	ChartKind string    `json:"chart_kind,omitempty"`
	Labels    []string  `json:"labels,omitempty"`
	Series    []float64 `json:"series,omitempty"`
	Colors    []string  `json:"colors,omitempty"`
	Height    int64     `json:"height,omitempty"`
	Width     int64     `json:"width,omitempty"`

	// table
	Columns []string   `json:"columns,omitempty"`
	Rows    [][]string `json:"rows,omitempty"`

	// gauge
	Min     float64  `json:"min,omitempty"`
	Max     float64  `json:"max,omitempty"`
	Target  *float64 `json:"target,omitempty"`
	Percent float64  `json:"percent,omitempty"`
}

// Compile turns an evaluated dashboard into its render-ready spec.
func Compile(data *execute.DashboardData) *DashboardSpec {
	spec := &DashboardSpec{
		Name:           data.Decl.Name,
		RefreshEvery:   data.Decl.Refresh,
		RefreshSeconds: int64(data.Decl.Refresh / time.Second),
	}
	for _, wd := range data.Widgets {
		spec.Widgets = append(spec.Widgets, compileWidget(wd))
	}
	return spec
}

func compileWidget(wd execute.WidgetData) WidgetSpec {
	switch w := wd.Widget.(type) {
	case *semantic.KPI:
		return compileKPI(w, wd.Value)
	case *semantic.Chart:
		return compileChart(w, wd.Value)
	case *semantic.Table:
		return compileTable(w, wd.Value)
	case *semantic.Gauge:
		return compileGauge(w, wd.Value)
	}
	return WidgetSpec{Type: "unknown"}
}

func compileKPI(w *semantic.KPI, v execute.Value) WidgetSpec {
	spec := WidgetSpec{Type: "kpi", Title: w.Title}
	if v.NoData || v.IsTable() {
		spec.Value = NoDataDisplay
		return spec
	}
	spec.RawValue = v.Scalar
	spec.Value = Number(v.Scalar, w.Format, w.Currency)
	spec.Color = Color(w.Colors, v.Scalar)
	return spec
}

func compileChart(w *semantic.Chart, v execute.Value) WidgetSpec {
	spec := WidgetSpec{
		Type:      "chart",
		Title:     w.Title,
		ChartKind: chartKindNames[w.Kind],
		Colors:    w.Colors,
		Height:    w.Height,
		Width:     w.Width,
	}
	if !v.IsTable() {
		return spec
	}
	valueCol := w.Plan.Field
	if valueCol == "" {
		valueCol = "total"
	}
	for _, row := range v.Table.Rows {
		label := ""
		if len(w.Plan.GroupBy) > 0 {
			label = cell(row[w.Plan.GroupBy[0]])
		}
		spec.Labels = append(spec.Labels, label)
		n, _ := row[valueCol].(float64)
		spec.Series = append(spec.Series, n)
	}
	return spec
}

func compileTable(w *semantic.Table, v execute.Value) WidgetSpec {
	spec := WidgetSpec{Type: "table", Title: w.Title}
	if !v.IsTable() {
		return spec
	}
	spec.Columns = v.Table.Columns
	for _, row := range v.Table.Rows {
		cells := make([]string, 0, len(v.Table.Columns))
		for _, col := range v.Table.Columns {
			cells = append(cells, cell(row[col]))
		}
		spec.Rows = append(spec.Rows, cells)
	}
	return spec
}

func compileGauge(w *semantic.Gauge, v execute.Value) WidgetSpec {
	spec := WidgetSpec{
		Type:   "gauge",
		Title:  w.Title,
		Min:    w.Min,
		Max:    w.Max,
		Target: w.Target,
	}
	if v.NoData || v.IsTable() {
		spec.Value = NoDataDisplay
		return spec
	}
	spec.RawValue = v.Scalar
	spec.Value = Number(v.Scalar, ast.FormatNumber, "")
	pct := (v.Scalar - w.Min) / (w.Max - w.Min) * 100
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	spec.Percent = pct
	return spec
}

// cell renders one table cell. Numbers group per pt-BR, times render as
// dd/mm/yyyy.
func cell(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return NoDataDisplay
	case string:
		return x
	case float64:
		return Number(x, ast.FormatNumber, "")
	case int64:
		return Number(float64(x), ast.FormatNumber, "")
	case bool:
		if x {
			return "sim"
		}
		return "não"
	case time.Time:
		return x.Format("02/01/2006")
	}
	return fmt.Sprint(v)
}
