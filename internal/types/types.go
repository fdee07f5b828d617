package types

import (
	"fmt"
	"strings"
	"time"
)

// Bar is one trading day's OHLCV record for a symbol.
type Bar struct {
	Symbol                 string
	Date                   time.Time
	Open, High, Low, Close float64
	Volume                 int64
}

// Allocation maps symbol to a requested percentage of total equity.
// Values are in [0, 100]; anything left over is implicitly cash.
type Allocation map[string]float64

// Clone returns a copy of the allocation.
func (a Allocation) Clone() Allocation {
	if a == nil {
		return nil
	}
	out := make(Allocation, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Trade is a signed share-quantity change executed at one date's close.
// Positive Qty is a buy, negative a sell. Cost is the realized transaction
// cost charged against cash.
type Trade struct {
	ID     string    `json:"id"`
	Symbol string    `json:"symbol"`
	Date   time.Time `json:"date"`
	Qty    float64   `json:"qty"`
	Price  float64   `json:"price"`
	Cost   float64   `json:"cost"`
}

// Notional is the absolute cash value of the trade before cost.
func (t Trade) Notional() float64 {
	n := t.Qty * t.Price
	if n < 0 {
		return -n
	}
	return n
}

// EquityPoint is one (date, total equity) sample of the equity curve.
type EquityPoint struct {
	Date   time.Time `json:"date"`
	Equity float64   `json:"equity"`
}

// Summary holds the risk-adjusted statistics derived from a completed
// equity curve. When the curve has fewer than two points every ratio is
// zero and InsufficientData is set instead of dividing by zero.
type Summary struct {
	TotalReturn          float64 `json:"total_return"`
	AnnualizedReturn     float64 `json:"annualized_return"`
	AnnualizedVolatility float64 `json:"annualized_volatility"`
	SharpeRatio          float64 `json:"sharpe_ratio"`
	MaxDrawdown          float64 `json:"max_drawdown"`
	TradeCount           int     `json:"trade_count"`
	Days                 int     `json:"days"`
	InsufficientData     bool    `json:"insufficient_data,omitempty"`
}

// Frequency enumerates the supported rebalance schedules.
type Frequency string

const (
	Daily     Frequency = "daily"
	Weekly    Frequency = "weekly"
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Annually  Frequency = "annually"
)

// ParseFrequency converts a config string into a Frequency.
func ParseFrequency(s string) (Frequency, error) {
	switch Frequency(strings.ToLower(strings.TrimSpace(s))) {
	case Daily:
		return Daily, nil
	case Weekly:
		return Weekly, nil
	case Monthly:
		return Monthly, nil
	case Quarterly:
		return Quarterly, nil
	case Annually:
		return Annually, nil
	default:
		return "", fmt.Errorf("unknown rebalance frequency %q", s)
	}
}
