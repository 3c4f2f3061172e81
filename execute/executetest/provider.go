// Package executetest provides provider fixtures for executor tests.
package executetest

import (
	"context"
	"time"

	"github.com/victorcalife/tql/plan"
)

// StaticProvider serves fixed rows keyed by tenant and dataset.
type StaticProvider struct {
	// Data maps tenant -> dataset -> rows.
	Data map[string]map[string][]plan.Row
	// Err, when set, fails every call.
	Err error
	// Delay simulates a slow store honoring context cancellation.
	Delay time.Duration
}

// Rows implements execute.Provider.
func (p *StaticProvider) Rows(ctx context.Context, tenantID, dataset string) ([]plan.Row, error) {
	if p.Delay > 0 {
		select {
		case <-time.After(p.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.Err != nil {
		return nil, p.Err
	}
	return p.Data[tenantID][dataset], nil
}
