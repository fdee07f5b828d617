// Package strategy defines the allocation-policy contract the backtest
// engine drives, and a Registry for looking policies up by name.
package strategy

import (
	"context"
	"sort"
	"time"

	"portfolio-backtester/internal/portfolio"
	"portfolio-backtester/internal/series"
	"portfolio-backtester/internal/types"
)

// Policy is the contract every allocation policy satisfies. Allocate is
// handed lookback views already cut at the current date, so a conforming
// implementation cannot see the future; any helper it calls must preserve
// that property.
type Policy interface {
	// Name returns the unique identifier for this policy.
	Name() string

	// Allocate returns the target allocation for the given date: symbol to
	// percentage of total equity. Weights need not sum to 100; the
	// remainder stays in cash. history carries one view per symbol that
	// has traded at least once by date. A policy without enough lookback
	// history returns an empty allocation rather than an error; errors are
	// reserved for programming defects and abort the run.
	Allocate(ctx context.Context, date time.Time, history map[string]*series.Series,
		snap portfolio.Snapshot, prices map[string]float64) (types.Allocation, error)

	// EmptyMeansCash declares the policy's empty-allocation semantic: true
	// means an empty map moves the portfolio to 100% cash, false means an
	// empty map requests no change.
	EmptyMeansCash() bool
}

// Registry holds a named collection of policies for lookup and enumeration.
type Registry struct {
	policies map[string]Policy
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{policies: make(map[string]Policy)}
}

// Register adds a policy, keyed by its Name().
func (r *Registry) Register(p Policy) {
	r.policies[p.Name()] = p
}

// Get retrieves a policy by name.
func (r *Registry) Get(name string) (Policy, bool) {
	p, ok := r.policies[name]
	return p, ok
}

// List returns the sorted names of all registered policies.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.policies))
	for name := range r.policies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
