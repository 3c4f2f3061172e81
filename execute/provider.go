package execute

import (
	"context"

	"github.com/victorcalife/tql/plan"
)

// Provider serves the raw rows of a tenant's dataset. Filtering,
// aggregation and shaping happen in the executor; a provider backed by a
// real store is free to push the plan down instead and implement
// PlanProvider.
type Provider interface {
	Rows(ctx context.Context, tenantID, dataset string) ([]plan.Row, error)
}

// PlanProvider is an optional Provider upgrade for stores that can execute
// a whole plan natively. The executor prefers it when available.
type PlanProvider interface {
	Provider
	Query(ctx context.Context, p *plan.QueryPlan) (Value, error)
}
