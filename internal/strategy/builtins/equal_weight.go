// Package builtins provides the allocation policies that ship with the
// backtester.
package builtins

import (
	"context"
	"time"

	"portfolio-backtester/internal/portfolio"
	"portfolio-backtester/internal/series"
	"portfolio-backtester/internal/strategy"
	"portfolio-backtester/internal/types"
)

// Compile-time interface check.
var _ strategy.Policy = (*EqualWeight)(nil)

// EqualWeight splits a fixed percentage of equity evenly across a static
// symbol list. With Pct=100 this is buy-and-hold of the basket, re-trued
// at every rebalance.
type EqualWeight struct {
	symbols []string
	pct     float64
}

// NewEqualWeight creates an EqualWeight policy allocating pct of equity
// across symbols.
func NewEqualWeight(symbols []string, pct float64) *EqualWeight {
	return &EqualWeight{symbols: symbols, pct: pct}
}

func (p *EqualWeight) Name() string { return "equal-weight" }

func (p *EqualWeight) EmptyMeansCash() bool { return false }

// Allocate splits p.pct evenly across the configured symbols that are
// tradeable on this date. Symbols without a price today are left out; their
// share of the target stays in cash rather than being piled onto the rest.
func (p *EqualWeight) Allocate(_ context.Context, _ time.Time, _ map[string]*series.Series,
	_ portfolio.Snapshot, prices map[string]float64) (types.Allocation, error) {

	tradeable := make([]string, 0, len(p.symbols))
	for _, sym := range p.symbols {
		if _, ok := prices[sym]; ok {
			tradeable = append(tradeable, sym)
		}
	}
	if len(tradeable) == 0 {
		return nil, nil
	}

	per := p.pct / float64(len(p.symbols))
	alloc := make(types.Allocation, len(tradeable))
	for _, sym := range tradeable {
		alloc[sym] = per
	}
	return alloc, nil
}
