package tql_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/victorcalife/tql"
	"github.com/victorcalife/tql/execute/executetest"
	"github.com/victorcalife/tql/parser"
	"github.com/victorcalife/tql/plan"
	"github.com/victorcalife/tql/schema"
	"github.com/victorcalife/tql/semantic"
)

var now = time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC)

func day(month time.Month, d int) time.Time {
	return time.Date(2025, month, d, 12, 0, 0, 0, time.UTC)
}

func testCatalog() schema.Catalog {
	c := schema.NewMapCatalog()
	c.Register("acme", &schema.Dataset{
		Name: "vendas",
		Fields: map[string]schema.FieldType{
			"valor":    schema.TNumber,
			"vendedor": schema.TString,
			"regiao":   schema.TString,
			"data":     schema.TTime,
		},
	})
	c.Register("acme", &schema.Dataset{
		Name: "tickets",
		Fields: map[string]schema.FieldType{
			"status":   schema.TString,
			"sla_ok":   schema.TBool,
			"abertura": schema.TTime,
		},
	})
	return c
}

func testProvider() *executetest.StaticProvider {
	return &executetest.StaticProvider{
		Data: map[string]map[string][]plan.Row{
			"acme": {
				"vendas": {
					{"valor": 52000.0, "vendedor": "ana", "regiao": "sul", "data": day(time.March, 3)},
					{"valor": 31500.5, "vendedor": "bia", "regiao": "sul", "data": day(time.March, 10)},
					{"valor": 44000.0, "vendedor": "caio", "regiao": "norte", "data": day(time.March, 12)},
					{"valor": 90000.0, "vendedor": "ana", "regiao": "sul", "data": day(time.February, 20)},
				},
				"tickets": {
					{"status": "aberto", "sla_ok": true, "abertura": day(time.March, 1)},
					{"status": "aberto", "sla_ok": false, "abertura": day(time.March, 5)},
					{"status": "fechado", "sla_ok": true, "abertura": day(time.March, 8)},
					{"status": "fechado", "sla_ok": true, "abertura": day(time.March, 9)},
				},
			},
		},
	}
}

const dashboardSrc = `
# painel comercial
vendas_mes = SOMAR valor DE vendas ONDE data EM MES(0);
sla = MEDIA sla_ok DE tickets ONDE abertura EM MES(0) * 100;

DASHBOARD "Painel Comercial" ATUALIZAR_A_CADA 5 MINUTO:
  KPI vendas_mes TITULO "Vendas do Mês", MOEDA R$, COR verde SE > 0;
  KPI sla TITULO "SLA", FORMATO %;
  GRAFICO pizza DE tickets AGRUPADO POR status, TITULO "Tickets";
  TABELA TOP 2 vendedor POR valor DE vendas ONDE data EM MES(0), TITULO "Top Vendedores";
  GAUGE sla MINIMO 0, MAXIMO 100, META 95, TITULO "SLA do Mês";
`

func newEngine() *tql.Engine {
	return tql.NewEngine(testCatalog(), testProvider())
}

func TestEngine_Run(t *testing.T) {
	res, err := newEngine().RunAt(context.Background(), dashboardSrc, "acme", now)
	if err != nil {
		t.Fatal(err)
	}

	if got := res.Env["vendas_mes"].Scalar; got != 127500.5 {
		t.Errorf("vendas_mes: got %v, want 127500.5", got)
	}
	if got := res.Env["sla"].Scalar; got != 75 {
		t.Errorf("sla: got %v, want 75", got)
	}

	if len(res.Dashboards) != 1 {
		t.Fatalf("got %d dashboards, want 1", len(res.Dashboards))
	}
	d := res.Dashboards[0]
	if d.Name != "Painel Comercial" || d.RefreshSeconds != 300 {
		t.Errorf("header: got (%q, %d)", d.Name, d.RefreshSeconds)
	}
	if len(d.Widgets) != 5 {
		t.Fatalf("got %d widgets, want 5", len(d.Widgets))
	}

	kpi := d.Widgets[0]
	if kpi.Value != "R$ 127.500,50" {
		t.Errorf("kpi value: got %q, want R$ 127.500,50", kpi.Value)
	}
	if kpi.Color != "verde" {
		t.Errorf("kpi color: got %q, want verde", kpi.Color)
	}

	slaKPI := d.Widgets[1]
	if slaKPI.Value != "75,0%" {
		t.Errorf("sla value: got %q, want 75,0%%", slaKPI.Value)
	}

	chart := d.Widgets[2]
	if chart.ChartKind != "pie" {
		t.Errorf("chart kind: got %q, want pie", chart.ChartKind)
	}
	if !cmp.Equal([]string{"aberto", "fechado"}, chart.Labels) {
		t.Errorf("chart labels: got %v", chart.Labels)
	}
	if !cmp.Equal([]float64{2, 2}, chart.Series) {
		t.Errorf("chart series: got %v", chart.Series)
	}

	table := d.Widgets[3]
	wantRows := [][]string{
		{"ana", "52.000"},
		{"caio", "44.000"},
	}
	if !cmp.Equal(wantRows, table.Rows) {
		t.Errorf("table rows -want/+got:\n%s", cmp.Diff(wantRows, table.Rows))
	}

	gauge := d.Widgets[4]
	if gauge.Percent != 75 || gauge.Target == nil || *gauge.Target != 95 {
		t.Errorf("gauge: got %+v", gauge)
	}
}

func TestEngine_RunIsDeterministic(t *testing.T) {
	e := newEngine()
	first, err := e.RunAt(context.Background(), dashboardSrc, "acme", now)
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.RunAt(context.Background(), dashboardSrc, "acme", now)
	if err != nil {
		t.Fatal(err)
	}
	if !cmp.Equal(first.Dashboards, second.Dashboards) {
		t.Errorf("runs differ -first/+second:\n%s", cmp.Diff(first.Dashboards, second.Dashboards))
	}
}

func TestEngine_TenantIsolation(t *testing.T) {
	_, err := newEngine().RunAt(context.Background(), `CONTAR vendas;`, "globex", now)
	berr, ok := err.(*semantic.Error)
	if !ok {
		t.Fatalf("expected *semantic.Error, got %T (%v)", err, err)
	}
	if berr.Kind != semantic.UnknownDataset {
		t.Errorf("got kind %v, want UnknownDataset", berr.Kind)
	}
}

func TestEngine_ErrorTypes(t *testing.T) {
	e := newEngine()

	if _, err := e.RunAt(context.Background(), `CONTAR vendas`, "acme", now); err == nil {
		t.Error("expected syntax error for missing semicolon")
	} else if _, ok := err.(*parser.SyntaxError); !ok {
		t.Errorf("expected *parser.SyntaxError, got %T", err)
	}

	if _, err := e.RunAt(context.Background(), `SOMAR lucro DE vendas;`, "acme", now); err == nil {
		t.Error("expected bind error for unknown field")
	} else if _, ok := err.(*semantic.Error); !ok {
		t.Errorf("expected *semantic.Error, got %T", err)
	}
}

func TestEngine_Evaluate(t *testing.T) {
	specs, err := newEngine().Evaluate(context.Background(), dashboardSrc, "acme", now)
	if err != nil {
		t.Fatal(err)
	}
	if len(specs) != 1 || specs[0].Name != "Painel Comercial" {
		t.Errorf("got %+v, want the compiled dashboard", specs)
	}
}
