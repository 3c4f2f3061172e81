package format

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/victorcalife/tql/ast"
	"github.com/victorcalife/tql/execute"
	"github.com/victorcalife/tql/plan"
	"github.com/victorcalife/tql/semantic"
)

func TestCompile_KPI(t *testing.T) {
	data := &execute.DashboardData{
		Decl: &semantic.Dashboard{Name: "Comercial", Refresh: 5 * time.Minute},
		Widgets: []execute.WidgetData{
			{
				Widget: &semantic.KPI{
					Variable: "vendas_mes",
					Title:    "Vendas",
					Format:   ast.FormatCurrency,
					Currency: "R$",
					Colors: []semantic.ColorRule{
						{Color: "verde", Op: ast.GreaterThanOperator, Threshold: 0},
					},
				},
				Value: execute.Scalar(1234.5),
			},
		},
	}
	spec := Compile(data)
	if spec.Name != "Comercial" || spec.RefreshSeconds != 300 {
		t.Errorf("header: got (%q, %d)", spec.Name, spec.RefreshSeconds)
	}
	w := spec.Widgets[0]
	if w.Type != "kpi" || w.Value != "R$ 1.234,50" || w.Color != "verde" {
		t.Errorf("kpi: got %+v", w)
	}
}

func TestCompile_KPINoData(t *testing.T) {
	data := &execute.DashboardData{
		Decl: &semantic.Dashboard{Name: "D"},
		Widgets: []execute.WidgetData{
			{Widget: &semantic.KPI{Variable: "x"}, Value: execute.NoData()},
		},
	}
	w := Compile(data).Widgets[0]
	if w.Value != NoDataDisplay || w.Color != "" {
		t.Errorf("got %+v, want no-data display", w)
	}
}

func TestCompile_Chart(t *testing.T) {
	chart := &semantic.Chart{
		Kind:  "pizza",
		Title: "Por região",
		Plan: &plan.QueryPlan{
			Aggregate: ast.AggregateCount,
			GroupBy:   []string{"regiao"},
		},
		Colors: []string{"azul", "verde"},
	}
	data := &execute.DashboardData{
		Decl: &semantic.Dashboard{Name: "D"},
		Widgets: []execute.WidgetData{
			{
				Widget: chart,
				Value: execute.Value{Table: &execute.Table{
					Columns: []string{"regiao", "total"},
					Rows: []plan.Row{
						{"regiao": "sul", "total": 3.0},
						{"regiao": "norte", "total": 1.0},
					},
				}},
			},
		},
	}
	w := Compile(data).Widgets[0]
	if w.ChartKind != "pie" {
		t.Errorf("got kind %q, want pie", w.ChartKind)
	}
	if !cmp.Equal([]string{"sul", "norte"}, w.Labels) {
		t.Errorf("labels: got %v", w.Labels)
	}
	if !cmp.Equal([]float64{3, 1}, w.Series) {
		t.Errorf("series: got %v", w.Series)
	}
}

func TestCompile_Table(t *testing.T) {
	table := &semantic.Table{Title: "Top", Plan: &plan.QueryPlan{}}
	data := &execute.DashboardData{
		Decl: &semantic.Dashboard{Name: "D"},
		Widgets: []execute.WidgetData{
			{
				Widget: table,
				Value: execute.Value{Table: &execute.Table{
					Columns: []string{"vendedor", "valor", "data"},
					Rows: []plan.Row{
						{"vendedor": "ana", "valor": 1500.0, "data": time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)},
					},
				}},
			},
		},
	}
	w := Compile(data).Widgets[0]
	want := [][]string{{"ana", "1.500", "09/03/2025"}}
	if !cmp.Equal(want, w.Rows) {
		t.Errorf("rows: got %v, want %v", w.Rows, want)
	}
}

func TestCompile_Gauge(t *testing.T) {
	target := 95.0
	data := &execute.DashboardData{
		Decl: &semantic.Dashboard{Name: "D"},
		Widgets: []execute.WidgetData{
			{
				Widget: &semantic.Gauge{Variable: "sla", Min: 0, Max: 100, Target: &target},
				Value:  execute.Scalar(97.3),
			},
		},
	}
	w := Compile(data).Widgets[0]
	if w.Type != "gauge" || w.Percent != 97.3 {
		t.Errorf("got %+v", w)
	}
	if w.Target == nil || *w.Target != 95 {
		t.Errorf("target: got %v", w.Target)
	}
}

func TestCompile_GaugeClamped(t *testing.T) {
	data := &execute.DashboardData{
		Decl: &semantic.Dashboard{Name: "D"},
		Widgets: []execute.WidgetData{
			{Widget: &semantic.Gauge{Variable: "x", Min: 0, Max: 100}, Value: execute.Scalar(140)},
		},
	}
	if w := Compile(data).Widgets[0]; w.Percent != 100 {
		t.Errorf("got %v, want clamped to 100", w.Percent)
	}
}
