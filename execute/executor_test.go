package execute_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"

	"github.com/victorcalife/tql/execute"
	"github.com/victorcalife/tql/execute/executetest"
	"github.com/victorcalife/tql/parser"
	"github.com/victorcalife/tql/plan"
	"github.com/victorcalife/tql/schema"
	"github.com/victorcalife/tql/semantic"
)

var now = time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC)

func day(d int) time.Time {
	return time.Date(2025, time.March, d, 12, 0, 0, 0, time.UTC)
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
	return c
}

func testProvider() *executetest.StaticProvider {
	return &executetest.StaticProvider{
		Data: map[string]map[string][]plan.Row{
			"acme": {
				"vendas": {
					{"valor": 100.0, "vendedor": "ana", "regiao": "sul", "data": day(3)},
					{"valor": 250.0, "vendedor": "bia", "regiao": "sul", "data": day(10)},
					{"valor": 50.0, "vendedor": "ana", "regiao": "norte", "data": day(12)},
					// February row, outside MES(0)
					{"valor": 900.0, "vendedor": "ana", "regiao": "sul", "data": time.Date(2025, 2, 20, 0, 0, 0, 0, time.UTC)},
				},
			},
		},
	}
}

func run(t *testing.T, src string, provider execute.Provider) (*execute.Result, error) {
	t.Helper()
	prog, err := parser.Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	bound, err := semantic.Bind(prog, testCatalog(), "acme", semantic.Config{Now: now})
	if err != nil {
		t.Fatal(err)
	}
	return execute.NewExecutor(provider, 0).Run(context.Background(), bound)
}

func mustRun(t *testing.T, src string) *execute.Result {
	t.Helper()
	res, err := run(t, src, testProvider())
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func TestRun_Aggregates(t *testing.T) {
	testCases := []struct {
		name string
		src  string
		want float64
	}{
		{name: "sum within month", src: `SOMAR valor DE vendas ONDE data EM MES(0);`, want: 400},
		{name: "sum unfiltered", src: `SOMAR valor DE vendas;`, want: 1300},
		{name: "count rows", src: `CONTAR vendas ONDE regiao = "sul";`, want: 3},
		{name: "mean", src: `MEDIA valor DE vendas ONDE data EM MES(0);`, want: 400.0 / 3},
		{name: "max", src: `MAX valor DE vendas;`, want: 900},
		{name: "min", src: `MIN valor DE vendas ONDE data EM MES(0);`, want: 50},
		{name: "disjunction", src: `CONTAR vendas ONDE regiao = "norte" OU valor > 800;`, want: 2},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			res := mustRun(t, tc.src)
			got := res.Statements[0].Value
			if got.NoData || got.IsTable() {
				t.Fatalf("got %v, want scalar", got)
			}
			if got.Scalar != tc.want {
				t.Errorf("got %v, want %v", got.Scalar, tc.want)
			}
		})
	}
}

func TestRun_CountFieldOfAnyType(t *testing.T) {
	sparse := &executetest.StaticProvider{
		Data: map[string]map[string][]plan.Row{
			"acme": {"vendas": {
				{"valor": 100.0, "vendedor": "ana", "regiao": "sul", "data": day(3)},
				{"valor": 250.0, "vendedor": "bia", "regiao": "sul", "data": day(10)},
				{"valor": 50.0, "vendedor": nil, "regiao": "norte", "data": day(12)},
			}},
		},
	}
	res, err := run(t, `CONTAR vendedor DE vendas;`, sparse)
	if err != nil {
		t.Fatal(err)
	}
	// counts present string values, the absent one excluded
	if got := res.Statements[0].Value.Scalar; got != 2 {
		t.Errorf("got %v, want 2", got)
	}
}

func TestRun_VariablesAndArithmetic(t *testing.T) {
	res := mustRun(t, `
total = SOMAR valor DE vendas ONDE data EM MES(0);
media = total / 4;
dobro = media * 2 + 10;
`)
	if got := res.Env["media"].Scalar; got != 100 {
		t.Errorf("media: got %v, want 100", got)
	}
	if got := res.Env["dobro"].Scalar; got != 210 {
		t.Errorf("dobro: got %v, want 210", got)
	}
}

func TestRun_DivisionByZero(t *testing.T) {
	_, err := run(t, `x = 10 / 0;`, testProvider())
	if !errors.Is(err, execute.ErrDivisionByZero) {
		t.Errorf("got %v, want ErrDivisionByZero", err)
	}
}

func TestRun_EmptyAggregates(t *testing.T) {
	empty := &executetest.StaticProvider{
		Data: map[string]map[string][]plan.Row{"acme": {"vendas": nil}},
	}
	res, err := run(t, `
soma = SOMAR valor DE vendas;
qtd = CONTAR vendas;
media = MEDIA valor DE vendas;
`, empty)
	if err != nil {
		t.Fatal(err)
	}
	if v := res.Env["soma"]; v.NoData || v.Scalar != 0 {
		t.Errorf("sum over empty: got %v, want 0", v)
	}
	if v := res.Env["qtd"]; v.NoData || v.Scalar != 0 {
		t.Errorf("count over empty: got %v, want 0", v)
	}
	if v := res.Env["media"]; !v.NoData {
		t.Errorf("mean over empty: got %v, want no data", v)
	}
}

func TestRun_NoDataPropagates(t *testing.T) {
	empty := &executetest.StaticProvider{
		Data: map[string]map[string][]plan.Row{"acme": {"vendas": nil}},
	}
	res, err := run(t, `taxa = MEDIA valor DE vendas * 100;`, empty)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Env["taxa"].NoData {
		t.Errorf("got %v, want no data", res.Env["taxa"])
	}
}

func TestRun_GroupedQuery(t *testing.T) {
	res := mustRun(t, `SOMAR valor DE vendas AGRUPADO POR regiao ORDENADO POR valor DESC;`)
	v := res.Statements[0].Value
	if !v.IsTable() {
		t.Fatalf("got %v, want table", v)
	}
	want := []plan.Row{
		{"regiao": "sul", "valor": 1250.0},
		{"regiao": "norte", "valor": 50.0},
	}
	if !cmp.Equal(want, v.Table.Rows) {
		t.Errorf("unexpected rows -want/+got:\n%s", cmp.Diff(want, v.Table.Rows))
	}
}

func TestRun_TopRanking(t *testing.T) {
	res := mustRun(t, `TOP 2 vendedor POR valor DE vendas ONDE data EM MES(0);`)
	v := res.Statements[0].Value
	want := []plan.Row{
		{"vendedor": "bia", "valor": 250.0},
		{"vendedor": "ana", "valor": 150.0},
	}
	if !cmp.Equal(want, v.Table.Rows) {
		t.Errorf("unexpected rows -want/+got:\n%s", cmp.Diff(want, v.Table.Rows))
	}
}

func TestRun_Timeout(t *testing.T) {
	slow := testProvider()
	slow.Delay = time.Second

	prog, err := parser.Parse(`CONTAR vendas;`)
	if err != nil {
		t.Fatal(err)
	}
	bound, err := semantic.Bind(prog, testCatalog(), "acme", semantic.Config{Now: now})
	if err != nil {
		t.Fatal(err)
	}
	_, err = execute.NewExecutor(slow, 10*time.Millisecond).Run(context.Background(), bound)
	if !errors.Is(err, execute.ErrTimeout) {
		t.Errorf("got %v, want ErrTimeout", err)
	}
}

func TestRun_ProviderFailure(t *testing.T) {
	broken := &executetest.StaticProvider{Err: errors.New("connection refused")}
	_, err := run(t, `CONTAR vendas;`, broken)
	if !errors.Is(err, execute.ErrProvider) {
		t.Errorf("got %v, want ErrProvider", err)
	}
}

func TestRun_Dashboard(t *testing.T) {
	res := mustRun(t, `
vendas_mes = SOMAR valor DE vendas ONDE data EM MES(0);
DASHBOARD "Comercial":
  KPI vendas_mes TITULO "Vendas";
  TABELA TOP 2 vendedor POR valor DE vendas;
`)
	ds := res.Dashboards()
	if len(ds) != 1 {
		t.Fatalf("got %d dashboards, want 1", len(ds))
	}
	if got := ds[0].Widgets[0].Value.Scalar; got != 400 {
		t.Errorf("kpi value: got %v, want 400", got)
	}
	if !ds[0].Widgets[1].Value.IsTable() {
		t.Errorf("table widget value: got %v, want table", ds[0].Widgets[1].Value)
	}
}
