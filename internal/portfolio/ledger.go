// Package portfolio owns the cash-and-positions ledger, the only mutable
// state of a simulation run. The ledger executes trades handed to it and
// never reads policy output directly.
package portfolio

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	ErrInsufficientCash = errors.New("insufficient cash")
	ErrMissingPrice     = errors.New("missing price")
)

// cashTolerance absorbs float rounding from exact-sized buys. A buy that
// would drive cash below -cashTolerance is rejected.
const cashTolerance = 1e-6

// positionEpsilon is the share count below which a position is considered
// closed and dropped from the book.
const positionEpsilon = 1e-9

// Ledger tracks the cash balance and per-symbol share counts of one run.
// It is not safe for concurrent use; each run gets its own instance.
type Ledger struct {
	cash      float64
	positions map[string]float64
}

// NewLedger creates a ledger holding initialCash and no positions.
func NewLedger(initialCash float64) *Ledger {
	return &Ledger{cash: initialCash, positions: map[string]float64{}}
}

// ApplyTrade debits or credits cash by -(qty x price) - cost and adjusts
// the symbol's share count by qty. A trade in either direction that would
// drive cash negative beyond tolerance fails with ErrInsufficientCash; the
// orchestrator sizes orders so this cannot happen.
func (l *Ledger) ApplyTrade(symbol string, qty, price, cost float64) error {
	delta := -(qty * price) - cost
	if l.cash+delta < -cashTolerance {
		return fmt.Errorf("%w: %s trade needs %.4f, have %.4f",
			ErrInsufficientCash, symbol, -delta, l.cash)
	}
	if l.positions[symbol]+qty < -positionEpsilon {
		return fmt.Errorf("cannot sell %s short: have %.6f shares, selling %.6f",
			symbol, l.positions[symbol], -qty)
	}
	l.cash += delta
	l.positions[symbol] += qty
	if math.Abs(l.positions[symbol]) < positionEpsilon {
		delete(l.positions, symbol)
	}
	return nil
}

// Cash returns the current cash balance.
func (l *Ledger) Cash() float64 { return l.cash }

// Position returns the share count held in symbol, zero if none.
func (l *Ledger) Position(symbol string) float64 { return l.positions[symbol] }

// Symbols returns the held symbols in sorted order.
func (l *Ledger) Symbols() []string {
	out := make([]string, 0, len(l.positions))
	for sym := range l.positions {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// TotalEquity is cash plus the marked value of every position. A held
// symbol without a price fails with ErrMissingPrice: that is a bookkeeping
// inconsistency, not a recoverable condition.
func (l *Ledger) TotalEquity(prices map[string]float64) (float64, error) {
	eq := l.cash
	for sym, shares := range l.positions {
		p, ok := prices[sym]
		if !ok {
			return 0, fmt.Errorf("%w for held symbol %s", ErrMissingPrice, sym)
		}
		eq += shares * p
	}
	return eq, nil
}

// Snapshot is the read-only view of the ledger handed to policies.
type Snapshot struct {
	Cash      float64
	Positions map[string]float64
	Equity    float64
}

// Snapshot captures the ledger state marked at the given prices.
func (l *Ledger) Snapshot(prices map[string]float64) (Snapshot, error) {
	eq, err := l.TotalEquity(prices)
	if err != nil {
		return Snapshot{}, err
	}
	pos := make(map[string]float64, len(l.positions))
	for sym, shares := range l.positions {
		pos[sym] = shares
	}
	return Snapshot{Cash: l.cash, Positions: pos, Equity: eq}, nil
}

// Weights returns each held symbol's share of equity in percent, marked at
// the given prices. An empty book returns an empty map.
func (l *Ledger) Weights(prices map[string]float64) (map[string]float64, error) {
	eq, err := l.TotalEquity(prices)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(l.positions))
	if eq <= 0 {
		return out, nil
	}
	for sym, shares := range l.positions {
		out[sym] = shares * prices[sym] / eq * 100
	}
	return out, nil
}
