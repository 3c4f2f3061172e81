package semantic_test

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"

	"github.com/victorcalife/tql/ast"
	"github.com/victorcalife/tql/parser"
	"github.com/victorcalife/tql/plan"
	"github.com/victorcalife/tql/schema"
	"github.com/victorcalife/tql/semantic"
	"github.com/victorcalife/tql/temporal"
)

var now = time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC)

func testCatalog() schema.Catalog {
	c := schema.NewMapCatalog()
	c.Register("acme", &schema.Dataset{
		Name: "vendas",
		Fields: map[string]schema.FieldType{
			"valor":    schema.TNumber,
			"comissao": schema.TNumber,
			"vendedor": schema.TString,
			"regiao":   schema.TString,
			"data":     schema.TTime,
		},
	})
	c.Register("acme", &schema.Dataset{
		Name: "tickets",
		Fields: map[string]schema.FieldType{
			"status":     schema.TString,
			"sla_ok":     schema.TBool,
			"abertura":   schema.TTime,
			"prioridade": schema.TString,
		},
	})
	return c
}

func mustBind(t *testing.T, src string) *semantic.Program {
	t.Helper()
	prog, err := parser.Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	bound, err := semantic.Bind(prog, testCatalog(), "acme", semantic.Config{Now: now})
	if err != nil {
		t.Fatal(err)
	}
	return bound
}

func bindErr(t *testing.T, src string) *semantic.Error {
	t.Helper()
	prog, err := parser.Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	_, err = semantic.Bind(prog, testCatalog(), "acme", semantic.Config{Now: now})
	if err == nil {
		t.Fatal("expected bind error")
	}
	berr, ok := err.(*semantic.Error)
	if !ok {
		t.Fatalf("expected *semantic.Error, got %T (%v)", err, err)
	}
	return berr
}

func TestBind_AggregatePlan(t *testing.T) {
	bound := mustBind(t, `SOMAR valor DE vendas ONDE data EM MES(0) E regiao = "sul";`)

	stmt := bound.Statements[0].(*semantic.ExpressionStatement)
	q := stmt.Expr.(*semantic.Query)
	want := &plan.QueryPlan{
		TenantID:  "acme",
		Dataset:   "vendas",
		Aggregate: ast.AggregateSum,
		Field:     "valor",
		Where: &plan.And{
			Left: &plan.Filter{
				Field: "data",
				Op:    plan.InWindow,
				Value: temporal.Resolve(ast.UnitMonth, 0, now),
			},
			Right: &plan.Filter{Field: "regiao", Op: plan.Eq, Value: "sul"},
		},
	}
	if !cmp.Equal(want, q.Plan) {
		t.Errorf("unexpected plan -want/+got:\n%s", cmp.Diff(want, q.Plan))
	}
}

func TestBind_TenantInjection(t *testing.T) {
	bound := mustBind(t, `CONTAR vendas;`)
	q := bound.Statements[0].(*semantic.ExpressionStatement).Expr.(*semantic.Query)
	if q.Plan.TenantID != "acme" {
		t.Errorf("got tenant %q, want acme", q.Plan.TenantID)
	}
}

func TestBind_CountAcceptsAnyFieldType(t *testing.T) {
	bound := mustBind(t, `CONTAR status DE tickets;`)
	q := bound.Statements[0].(*semantic.ExpressionStatement).Expr.(*semantic.Query)
	want := &plan.QueryPlan{
		TenantID:  "acme",
		Dataset:   "tickets",
		Aggregate: ast.AggregateCount,
		Field:     "status",
	}
	if !cmp.Equal(want, q.Plan) {
		t.Errorf("unexpected plan -want/+got:\n%s", cmp.Diff(want, q.Plan))
	}
}

func TestBind_TopLowering(t *testing.T) {
	bound := mustBind(t, `TOP 5 vendedor POR comissao DE vendas;`)
	q := bound.Statements[0].(*semantic.ExpressionStatement).Expr.(*semantic.Query)
	want := &plan.QueryPlan{
		TenantID:  "acme",
		Dataset:   "vendas",
		Aggregate: ast.AggregateSum,
		Field:     "comissao",
		GroupBy:   []string{"vendedor"},
		OrderBy:   &plan.Order{Desc: true},
		Limit:     5,
	}
	if !cmp.Equal(want, q.Plan) {
		t.Errorf("unexpected plan -want/+got:\n%s", cmp.Diff(want, q.Plan))
	}
}

func TestBind_OrderByAggregatedFieldOrdersByValue(t *testing.T) {
	bound := mustBind(t, `SOMAR valor DE vendas AGRUPADO POR regiao ORDENADO POR valor DESC;`)
	q := bound.Statements[0].(*semantic.ExpressionStatement).Expr.(*semantic.Query)
	if q.Plan.OrderBy == nil || q.Plan.OrderBy.Field != "" || !q.Plan.OrderBy.Desc {
		t.Errorf("got order %+v, want value ordering desc", q.Plan.OrderBy)
	}
}

func TestBind_VariableScoping(t *testing.T) {
	bound := mustBind(t, `
total = SOMAR valor DE vendas;
dobro = total * 2;
`)
	a := bound.Statements[1].(*semantic.Assignment)
	bin := a.Expr.(*semantic.Binary)
	if v, ok := bin.Left.(*semantic.Variable); !ok || v.Name != "total" {
		t.Errorf("got %+v, want variable total", bin.Left)
	}
}

func TestBind_Errors(t *testing.T) {
	testCases := []struct {
		name     string
		src      string
		kind     semantic.ErrorKind
		contains string
	}{
		{
			name:     "unknown dataset",
			src:      `CONTAR clientes;`,
			kind:     semantic.UnknownDataset,
			contains: `"clientes"`,
		},
		{
			name:     "unknown field names field and dataset",
			src:      `SOMAR lucro DE vendas;`,
			kind:     semantic.UnknownField,
			contains: `dataset "vendas" has no field "lucro"`,
		},
		{
			name:     "unknown predicate field",
			src:      `CONTAR vendas ONDE cidade = "POA";`,
			kind:     semantic.UnknownField,
			contains: `"cidade"`,
		},
		{
			name:     "aggregate over string field",
			src:      `SOMAR vendedor DE vendas;`,
			kind:     semantic.TypeMismatch,
			contains: "numeric",
		},
		{
			name:     "string compared with number",
			src:      `CONTAR vendas ONDE regiao > 5;`,
			kind:     semantic.TypeMismatch,
			contains: `"regiao"`,
		},
		{
			name:     "temporal against non-time field",
			src:      `CONTAR vendas ONDE valor EM MES(0);`,
			kind:     semantic.TypeMismatch,
			contains: "time field",
		},
		{
			name:     "undefined variable",
			src:      `dobro = total * 2;`,
			kind:     semantic.UnknownVariable,
			contains: `"total"`,
		},
		{
			name:     "forward reference in dashboard",
			src:      `DASHBOARD "X": KPI vendas_mes;`,
			kind:     semantic.UnknownVariable,
			contains: `"vendas_mes"`,
		},
		{
			name:     "mean without field",
			src:      `MEDIA tickets;`,
			kind:     semantic.InvalidQuery,
			contains: "requires a field",
		},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := bindErr(t, tc.src)
			if err.Kind != tc.kind {
				t.Errorf("got kind %v, want %v (%v)", err.Kind, tc.kind, err)
			}
			if !strings.Contains(err.Error(), tc.contains) {
				t.Errorf("error %q does not mention %q", err.Error(), tc.contains)
			}
		})
	}
}

func TestBind_TenantIsolation(t *testing.T) {
	prog, err := parser.Parse(`CONTAR vendas;`)
	if err != nil {
		t.Fatal(err)
	}
	// vendas exists for acme only
	_, err = semantic.Bind(prog, testCatalog(), "globex", semantic.Config{Now: now})
	berr, ok := err.(*semantic.Error)
	if !ok {
		t.Fatalf("expected *semantic.Error, got %T", err)
	}
	if berr.Kind != semantic.UnknownDataset {
		t.Errorf("got kind %v, want UnknownDataset", berr.Kind)
	}
}

type deniedCatalog struct{}

func (deniedCatalog) Dataset(tenantID, name string) (*schema.Dataset, error) {
	return nil, errors.Wrap(schema.ErrAccessDenied, name)
}

func TestBind_CrossTenantAccessDenied(t *testing.T) {
	prog, err := parser.Parse(`CONTAR vendas;`)
	if err != nil {
		t.Fatal(err)
	}
	_, err = semantic.Bind(prog, deniedCatalog{}, "acme", semantic.Config{Now: now})
	berr, ok := err.(*semantic.Error)
	if !ok {
		t.Fatalf("expected *semantic.Error, got %T", err)
	}
	if berr.Kind != semantic.CrossTenantAccessDenied {
		t.Errorf("got kind %v, want CrossTenantAccessDenied", berr.Kind)
	}
}

func TestBind_Dashboard(t *testing.T) {
	bound := mustBind(t, `
vendas_mes = SOMAR valor DE vendas ONDE data EM MES(0);
DASHBOARD "Comercial" ATUALIZAR_A_CADA 5 MINUTO:
  KPI vendas_mes TITULO "Vendas", MOEDA R$, COR verde SE > 0;
  GRAFICO pizza DE tickets AGRUPADO POR status, PERIODO ULTIMOS MES(3);
  TABELA TOP 10 vendedor POR comissao DE vendas;
  GAUGE vendas_mes MINIMO 0, MAXIMO 100, META 95;
`)
	d := bound.Statements[1].(*semantic.Dashboard)
	if d.Name != "Comercial" {
		t.Errorf("got name %q, want Comercial", d.Name)
	}
	if d.Refresh != 5*time.Minute {
		t.Errorf("got refresh %v, want 5m", d.Refresh)
	}
	if len(d.Widgets) != 4 {
		t.Fatalf("got %d widgets, want 4", len(d.Widgets))
	}

	kpi := d.Widgets[0].(*semantic.KPI)
	if kpi.Format != ast.FormatCurrency || kpi.Currency != "R$" {
		t.Errorf("kpi format: got (%v, %q)", kpi.Format, kpi.Currency)
	}

	chart := d.Widgets[1].(*semantic.Chart)
	if chart.Plan.Aggregate != ast.AggregateCount {
		t.Errorf("chart aggregates by %v, want count", chart.Plan.Aggregate)
	}
	if len(chart.Plan.GroupBy) != 1 || chart.Plan.GroupBy[0] != "status" {
		t.Errorf("chart groups by %v, want [status]", chart.Plan.GroupBy)
	}
	f, ok := chart.Plan.Where.(*plan.Filter)
	if !ok || f.Field != "abertura" || f.Op != plan.InWindow {
		t.Errorf("chart period filter: got %v, want window on abertura", chart.Plan.Where)
	}

	table := d.Widgets[2].(*semantic.Table)
	if table.Plan.Limit != 10 || table.Plan.Field != "comissao" {
		t.Errorf("table plan: got %v", table.Plan)
	}

	gauge := d.Widgets[3].(*semantic.Gauge)
	if gauge.Max != 100 || gauge.Target == nil || *gauge.Target != 95 {
		t.Errorf("gauge: got %+v", gauge)
	}
}

func TestBind_GaugeBoundsValidated(t *testing.T) {
	err := bindErr(t, `
x = CONTAR vendas;
DASHBOARD "D": GAUGE x MINIMO 100, MAXIMO 100;
`)
	if err.Kind != semantic.InvalidQuery {
		t.Errorf("got kind %v, want InvalidQuery", err.Kind)
	}
}

func TestBind_ChartPeriodNeedsTimeField(t *testing.T) {
	c := schema.NewMapCatalog()
	c.Register("acme", &schema.Dataset{
		Name:   "itens",
		Fields: map[string]schema.FieldType{"nome": schema.TString},
	})
	prog, err := parser.Parse(`DASHBOARD "D": GRAFICO pizza DE itens AGRUPADO POR nome, PERIODO MES(0);`)
	if err != nil {
		t.Fatal(err)
	}
	_, err = semantic.Bind(prog, c, "acme", semantic.Config{Now: now})
	berr, ok := err.(*semantic.Error)
	if !ok || berr.Kind != semantic.TypeMismatch {
		t.Errorf("got %v, want TypeMismatch", err)
	}
}
