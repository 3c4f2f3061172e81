package semantic

import (
	"time"

	"github.com/victorcalife/tql/ast"
	"github.com/victorcalife/tql/plan"
	"github.com/victorcalife/tql/schema"
)

// chartKinds are the accepted GRAFICO kinds.
var chartKinds = map[string]bool{
	"linha":     true,
	"barras":    true,
	"barras_h":  true,
	"pizza":     true,
	"rosquinha": true,
	"area":      true,
}

func (b *binder) bindDashboard(d *ast.DashboardStatement) (*Dashboard, error) {
	bound := &Dashboard{Name: d.Name}
	if d.Refresh != nil {
		bound.Refresh = refreshDuration(d.Refresh)
	}
	for _, w := range d.Widgets {
		widget, err := b.bindWidget(w)
		if err != nil {
			return nil, err
		}
		bound.Widgets = append(bound.Widgets, widget)
	}
	return bound, nil
}

func (b *binder) bindWidget(decl ast.WidgetDecl) (Widget, error) {
	switch w := decl.(type) {
	case *ast.KPIWidget:
		return b.bindKPI(w)
	case *ast.ChartWidget:
		return b.bindChart(w)
	case *ast.TableWidget:
		return b.bindTable(w)
	case *ast.GaugeWidget:
		return b.bindGauge(w)
	}
	return nil, errAt(InvalidQuery, decl, "unsupported widget %s", decl.Type())
}

func (b *binder) bindKPI(w *ast.KPIWidget) (*KPI, error) {
	if !b.vars[w.Variable.Name] {
		return nil, errAt(UnknownVariable, w.Variable, "variable %q is not defined before the dashboard", w.Variable.Name)
	}
	kpi := &KPI{
		Variable: w.Variable.Name,
		Title:    w.Title,
		Format:   w.Format,
		Currency: w.Currency,
	}
	for _, c := range w.Colors {
		kpi.Colors = append(kpi.Colors, ColorRule{
			Color:     c.Color,
			Op:        c.Operator,
			Threshold: c.Threshold,
			Always:    c.Always,
		})
	}
	return kpi, nil
}

// bindChart lowers a chart to a count-per-group plan. PERIODO constrains the
// dataset's time field; TOP keeps the largest groups.
func (b *binder) bindChart(w *ast.ChartWidget) (*Chart, error) {
	if !chartKinds[w.Kind] {
		return nil, errAt(InvalidQuery, w, "unknown chart kind %q", w.Kind)
	}
	ds, err := b.lookupDataset(w.Dataset)
	if err != nil {
		return nil, err
	}

	p := &plan.QueryPlan{
		TenantID:  b.tenantID,
		Dataset:   ds.Name,
		Aggregate: ast.AggregateCount,
	}
	if w.GroupBy != nil {
		if _, ok := ds.Field(w.GroupBy.Name); !ok {
			return nil, errAt(UnknownField, w.GroupBy, "dataset %q has no field %q", ds.Name, w.GroupBy.Name)
		}
		p.GroupBy = []string{w.GroupBy.Name}
	}
	if w.Period != nil {
		tf, ok := timeField(ds)
		if !ok {
			return nil, errAt(TypeMismatch, w.Period, "dataset %q has no time field for PERIODO", ds.Name)
		}
		window, err := b.resolveWindow(w.Period)
		if err != nil {
			return nil, err
		}
		p.Where = &plan.Filter{Field: tf, Op: plan.InWindow, Value: window}
	}
	if w.Top > 0 {
		p.OrderBy = &plan.Order{Desc: true}
		p.Limit = w.Top
	}

	return &Chart{
		Kind:   w.Kind,
		Title:  w.Title,
		Plan:   p,
		Colors: w.Colors,
		Height: w.Height,
		Width:  w.Width,
	}, nil
}

func (b *binder) bindTable(w *ast.TableWidget) (*Table, error) {
	if w.Top != nil {
		p, err := b.bindTop(w.Top)
		if err != nil {
			return nil, err
		}
		return &Table{Title: w.Title, Plan: p}, nil
	}

	ds, err := b.lookupDataset(w.Dataset)
	if err != nil {
		return nil, err
	}
	p := &plan.QueryPlan{
		TenantID: b.tenantID,
		Dataset:  ds.Name,
		Limit:    w.Limit,
	}
	if w.Where != nil {
		pred, err := b.bindPredicate(w.Where, ds)
		if err != nil {
			return nil, err
		}
		p.Where = pred
	}
	if w.OrderBy != nil {
		order, err := b.bindOrder(w.OrderBy, ds, "")
		if err != nil {
			return nil, err
		}
		p.OrderBy = order
	}
	return &Table{Title: w.Title, Plan: p}, nil
}

func (b *binder) bindGauge(w *ast.GaugeWidget) (*Gauge, error) {
	if !b.vars[w.Variable.Name] {
		return nil, errAt(UnknownVariable, w.Variable, "variable %q is not defined before the dashboard", w.Variable.Name)
	}
	if w.Min >= w.Max {
		return nil, errAt(InvalidQuery, w, "gauge minimum %v must be below maximum %v", w.Min, w.Max)
	}
	return &Gauge{
		Variable: w.Variable.Name,
		Title:    w.Title,
		Min:      w.Min,
		Max:      w.Max,
		Target:   w.Target,
	}, nil
}

// timeField returns the dataset's first time typed field in name order.
func timeField(ds *schema.Dataset) (string, bool) {
	for _, name := range ds.FieldNames() {
		if ft, _ := ds.Field(name); ft == schema.TTime {
			return name, true
		}
	}
	return "", false
}

// refreshDuration converts ATUALIZAR_A_CADA to a duration. Months and years
// use civil approximations.
func refreshDuration(r *ast.RefreshClause) time.Duration {
	n := time.Duration(r.Count)
	switch r.Unit {
	case ast.UnitMinute:
		return n * time.Minute
	case ast.UnitHour:
		return n * time.Hour
	case ast.UnitDay:
		return n * 24 * time.Hour
	case ast.UnitWeek:
		return n * 7 * 24 * time.Hour
	case ast.UnitMonth:
		return n * 30 * 24 * time.Hour
	case ast.UnitYear:
		return n * 365 * 24 * time.Hour
	}
	return 0
}
