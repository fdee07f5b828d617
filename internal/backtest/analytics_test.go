package backtest

import (
	"math"
	"testing"
	"time"

	"portfolio-backtester/internal/types"
)

func curveFrom(equities ...float64) []types.EquityPoint {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	out := make([]types.EquityPoint, len(equities))
	for i, e := range equities {
		out[i] = types.EquityPoint{Date: start.AddDate(0, 0, i), Equity: e}
	}
	return out
}

func TestSummarizeInsufficientData(t *testing.T) {
	for _, curve := range [][]types.EquityPoint{nil, curveFrom(100000)} {
		s := Summarize(curve, 0, 0)
		if !s.InsufficientData {
			t.Errorf("curve of %d points should be flagged insufficient", len(curve))
		}
		if s.SharpeRatio != 0 || s.MaxDrawdown != 0 || s.AnnualizedVolatility != 0 {
			t.Error("insufficient-data sentinel should zero all ratios")
		}
	}
}

func TestSummarizeTotalReturn(t *testing.T) {
	s := Summarize(curveFrom(100000, 110000, 99000, 121000), 4, 0)
	if math.Abs(s.TotalReturn-0.21) > 1e-12 {
		t.Errorf("total return = %v, want 0.21", s.TotalReturn)
	}
	if s.TradeCount != 4 || s.Days != 4 {
		t.Errorf("counts = %d trades / %d days, want 4/4", s.TradeCount, s.Days)
	}
}

// Drawdown is always in [-1, 0], and exactly 0 for a monotonically
// increasing curve.
func TestDrawdownBounds(t *testing.T) {
	monotonic := Summarize(curveFrom(100, 101, 105, 120), 0, 0)
	if monotonic.MaxDrawdown != 0 {
		t.Errorf("monotonic curve drawdown = %v, want 0", monotonic.MaxDrawdown)
	}

	crash := Summarize(curveFrom(100, 120, 30, 60), 0, 0)
	if crash.MaxDrawdown >= 0 || crash.MaxDrawdown < -1 {
		t.Errorf("drawdown = %v, want in [-1, 0)", crash.MaxDrawdown)
	}
	if math.Abs(crash.MaxDrawdown-(30.0/120-1)) > 1e-12 {
		t.Errorf("drawdown = %v, want %v", crash.MaxDrawdown, 30.0/120-1)
	}
}

// Drawdown must measure from the running peak, not the starting value.
func TestDrawdownTracksRunningPeak(t *testing.T) {
	s := Summarize(curveFrom(100, 95, 150, 120), 0, 0)
	want := 120.0/150 - 1 // -0.20, worse than the early 95/100-1 = -0.05
	if math.Abs(s.MaxDrawdown-want) > 1e-12 {
		t.Errorf("drawdown = %v, want %v", s.MaxDrawdown, want)
	}
}

func TestSharpeZeroVolatility(t *testing.T) {
	s := Summarize(curveFrom(100000, 100000, 100000), 0, 0.02)
	if s.AnnualizedVolatility != 0 {
		t.Errorf("flat curve volatility = %v, want 0", s.AnnualizedVolatility)
	}
	if s.SharpeRatio != 0 {
		t.Errorf("zero-volatility Sharpe = %v, want defined 0", s.SharpeRatio)
	}
}

// Sharpe's sign matches the sign of excess return when volatility > 0.
func TestSharpeSign(t *testing.T) {
	up := Summarize(curveFrom(100, 101, 103, 102, 106, 108), 0, 0)
	if up.AnnualizedReturn <= 0 {
		t.Fatalf("expected positive annualized return, got %v", up.AnnualizedReturn)
	}
	if up.SharpeRatio <= 0 {
		t.Errorf("positive excess return but Sharpe = %v", up.SharpeRatio)
	}

	down := Summarize(curveFrom(100, 99, 97, 98, 94, 92), 0, 0)
	if down.SharpeRatio >= 0 {
		t.Errorf("negative excess return but Sharpe = %v", down.SharpeRatio)
	}

	// Risk-free rate above the return flips the sign.
	hurdle := Summarize(curveFrom(100, 101, 103, 102, 106, 108), 0, 1000)
	if hurdle.SharpeRatio >= 0 {
		t.Errorf("return below risk-free rate but Sharpe = %v", hurdle.SharpeRatio)
	}
}

func TestVolatilityAnnualization(t *testing.T) {
	// Alternating +1%/-1% daily returns have a known sample stdev.
	s := Summarize(curveFrom(100, 101, 99.99, 100.99, 99.98), 0, 0)
	if s.AnnualizedVolatility <= 0 {
		t.Fatalf("expected positive volatility, got %v", s.AnnualizedVolatility)
	}
	daily := s.AnnualizedVolatility / math.Sqrt(252)
	if daily < 0.005 || daily > 0.02 {
		t.Errorf("implied daily volatility %v outside plausible band", daily)
	}
}
