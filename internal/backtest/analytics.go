package backtest

import (
	"math"

	"portfolio-backtester/internal/types"
)

// tradingDaysPerYear is the annualization base for daily curves.
const tradingDaysPerYear = 252

// Summarize derives the performance statistics from a completed equity
// curve. It never mutates its input. Curves with fewer than two points get
// the InsufficientData sentinel with zeroed ratios instead of an error, so
// downstream comparisons stay total-ordered.
func Summarize(curve []types.EquityPoint, tradeCount int, riskFreeRate float64) types.Summary {
	s := types.Summary{TradeCount: tradeCount, Days: len(curve)}
	if len(curve) < 2 || curve[0].Equity <= 0 {
		s.InsufficientData = true
		return s
	}

	n := float64(len(curve))
	s.TotalReturn = curve[len(curve)-1].Equity/curve[0].Equity - 1
	s.AnnualizedReturn = math.Pow(1+s.TotalReturn, tradingDaysPerYear/n) - 1

	rets := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev == 0 {
			rets = append(rets, 0)
			continue
		}
		rets = append(rets, curve[i].Equity/prev-1)
	}
	s.AnnualizedVolatility = stdev(rets) * math.Sqrt(tradingDaysPerYear)

	// Zero volatility resolves to Sharpe 0, not NaN.
	if s.AnnualizedVolatility > 0 {
		s.SharpeRatio = (s.AnnualizedReturn - riskFreeRate) / s.AnnualizedVolatility
	}

	s.MaxDrawdown = maxDrawdown(curve)
	return s
}

// maxDrawdown is the canonical one-pass streaming drawdown: track the
// running peak, take the worst equity/peak ratio seen.
func maxDrawdown(curve []types.EquityPoint) float64 {
	peak := curve[0].Equity
	worst := 0.0
	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak > 0 {
			if dd := p.Equity/peak - 1; dd < worst {
				worst = dd
			}
		}
	}
	return worst
}

// stdev is the sample standard deviation; zero for fewer than two values.
func stdev(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	mean := 0.0
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))

	ss := 0.0
	for _, v := range vals {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(vals)-1))
}
