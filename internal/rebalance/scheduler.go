// Package rebalance decides, for each simulated date, whether the engine
// should consult the allocation policy and trade. Trigger dates are a pure
// function of the calendar and the configured frequency, so a run is fully
// reproducible.
package rebalance

import (
	"math"
	"time"

	"portfolio-backtester/internal/types"
)

// Scheduler gates rebalance events. The first simulated date always
// triggers so starting positions get established. Between scheduled dates,
// a nonzero drift threshold fires an out-of-schedule rebalance when any
// weight has drifted from its last target by more than the threshold
// (percentage points).
type Scheduler struct {
	freq       types.Frequency
	driftPct   float64
	fired      bool
	lastDate   time.Time
	lastTarget types.Allocation
}

// New creates a Scheduler. driftPct <= 0 disables the drift mode.
func New(freq types.Frequency, driftPct float64) *Scheduler {
	return &Scheduler{freq: freq, driftPct: driftPct}
}

// ShouldRebalance reports whether date triggers a rebalance, given the
// portfolio's current weights in percent.
func (s *Scheduler) ShouldRebalance(date time.Time, weights map[string]float64) bool {
	if !s.fired {
		return true
	}
	if s.calendarDue(date) {
		return true
	}
	return s.driftExceeded(weights)
}

// MarkRebalanced records that the policy was consulted on date. target is
// the normalized allocation that was put on; pass nil when the policy
// requested no change, which keeps the previous target for drift checks.
func (s *Scheduler) MarkRebalanced(date time.Time, target types.Allocation) {
	s.fired = true
	s.lastDate = date
	if target != nil {
		s.lastTarget = target.Clone()
	}
}

func (s *Scheduler) calendarDue(date time.Time) bool {
	switch s.freq {
	case types.Daily:
		return true
	case types.Weekly:
		ly, lw := s.lastDate.ISOWeek()
		y, w := date.ISOWeek()
		return y != ly || w != lw
	case types.Monthly:
		return date.Year() != s.lastDate.Year() || date.Month() != s.lastDate.Month()
	case types.Quarterly:
		return date.Year() != s.lastDate.Year() || quarter(date) != quarter(s.lastDate)
	case types.Annually:
		return date.Year() != s.lastDate.Year()
	}
	return false
}

func (s *Scheduler) driftExceeded(weights map[string]float64) bool {
	if s.driftPct <= 0 || s.lastTarget == nil {
		return false
	}
	for sym, target := range s.lastTarget {
		if math.Abs(weights[sym]-target) > s.driftPct {
			return true
		}
	}
	// A holding with no target at all counts as pure drift.
	for sym, w := range weights {
		if _, ok := s.lastTarget[sym]; !ok && w > s.driftPct {
			return true
		}
	}
	return false
}

func quarter(t time.Time) int {
	return (int(t.Month()) - 1) / 3
}
