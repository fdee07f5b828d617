// Package cost models transaction frictions. The engine sizes buy orders
// through MaxNotional so the cost is deducted before cash sufficiency is
// checked, exactly, instead of shaving shares iteratively.
package cost

import "math"

// Model converts a proposed trade notional into a nonnegative cash cost.
type Model interface {
	// Cost returns the cash cost of trading the given notional.
	Cost(notional float64) float64

	// MaxNotional returns the largest buy notional whose notional plus
	// cost fits in cash.
	MaxNotional(cash float64) float64
}

// BasisPoints charges a fixed basis-point fraction of the absolute
// notional. The commission-only default.
type BasisPoints struct {
	Bps float64
}

func (m BasisPoints) Cost(notional float64) float64 {
	return math.Abs(notional) * m.Bps / 10000
}

// MaxNotional solves n * (1 + rate) <= cash for n.
func (m BasisPoints) MaxNotional(cash float64) float64 {
	if cash <= 0 {
		return 0
	}
	return cash / (1 + m.Bps/10000)
}

// FixedFee charges a flat fee per executed trade regardless of size.
type FixedFee struct {
	Fee float64
}

func (m FixedFee) Cost(notional float64) float64 {
	if notional == 0 {
		return 0
	}
	return m.Fee
}

func (m FixedFee) MaxNotional(cash float64) float64 {
	n := cash - m.Fee
	if n < 0 {
		return 0
	}
	return n
}

// Spread approximates half-spread slippage on top of a basis-point
// commission.
type Spread struct {
	CommissionBps float64
	SpreadBps     float64
}

func (m Spread) rate() float64 {
	return (m.CommissionBps + m.SpreadBps/2) / 10000
}

func (m Spread) Cost(notional float64) float64 {
	return math.Abs(notional) * m.rate()
}

func (m Spread) MaxNotional(cash float64) float64 {
	if cash <= 0 {
		return 0
	}
	return cash / (1 + m.rate())
}

// Free is the zero-cost model used for frictionless what-if runs.
type Free struct{}

func (Free) Cost(float64) float64 { return 0 }

func (Free) MaxNotional(cash float64) float64 {
	if cash < 0 {
		return 0
	}
	return cash
}

var (
	_ Model = BasisPoints{}
	_ Model = FixedFee{}
	_ Model = Spread{}
	_ Model = Free{}
)
