package builtins

import (
	"context"
	"fmt"
	"time"

	"portfolio-backtester/internal/portfolio"
	"portfolio-backtester/internal/series"
	"portfolio-backtester/internal/strategy"
	"portfolio-backtester/internal/types"
)

var _ strategy.Policy = (*Ensemble)(nil)

// Component is one member of an ensemble with its blending weight.
type Component struct {
	Policy strategy.Policy
	Weight float64
}

// Ensemble blends several policies into one by scaling each member's
// allocation by its normalized weight and summing per symbol. It is itself
// a Policy, so ensembles nest.
type Ensemble struct {
	components  []Component
	totalW      float64
	cashOnEmpty bool
}

// NewEnsemble creates an Ensemble. Weights must be positive; they are
// normalized internally. emptyMeansCash declares the composite's
// empty-allocation semantic, since members may disagree.
func NewEnsemble(components []Component, emptyMeansCash bool) (*Ensemble, error) {
	if len(components) == 0 {
		return nil, fmt.Errorf("ensemble needs at least one component")
	}
	total := 0.0
	for _, c := range components {
		if c.Weight <= 0 {
			return nil, fmt.Errorf("ensemble component %s has non-positive weight %v",
				c.Policy.Name(), c.Weight)
		}
		total += c.Weight
	}
	return &Ensemble{components: components, totalW: total, cashOnEmpty: emptyMeansCash}, nil
}

func (p *Ensemble) Name() string { return "ensemble" }

func (p *Ensemble) EmptyMeansCash() bool { return p.cashOnEmpty }

func (p *Ensemble) Allocate(ctx context.Context, date time.Time, history map[string]*series.Series,
	snap portfolio.Snapshot, prices map[string]float64) (types.Allocation, error) {

	combined := types.Allocation{}
	for _, c := range p.components {
		alloc, err := c.Policy.Allocate(ctx, date, history, snap, prices)
		if err != nil {
			return nil, fmt.Errorf("ensemble component %s: %w", c.Policy.Name(), err)
		}
		scale := c.Weight / p.totalW
		for sym, w := range alloc {
			combined[sym] += w * scale
		}
	}
	if len(combined) == 0 {
		return nil, nil
	}
	return combined, nil
}
