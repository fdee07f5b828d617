package ta

import (
	"math"
	"testing"
)

func TestSMA(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5}
	if got := SMA(closes, 3); got != 4 {
		t.Errorf("SMA(3) = %v, want 4", got)
	}
	if got := SMA(closes, 10); !math.IsNaN(got) {
		t.Errorf("SMA with short input = %v, want NaN", got)
	}
}

func TestMomentum(t *testing.T) {
	closes := []float64{100, 105, 110, 120}
	if got := Momentum(closes, 3); math.Abs(got-0.20) > 1e-12 {
		t.Errorf("Momentum(3) = %v, want 0.20", got)
	}
	if got := Momentum(closes, 4); !math.IsNaN(got) {
		t.Errorf("Momentum with short input = %v, want NaN", got)
	}
}

func TestReturns(t *testing.T) {
	rets := Returns([]float64{100, 110, 99})
	if len(rets) != 2 {
		t.Fatalf("Returns length = %d, want 2", len(rets))
	}
	if math.Abs(rets[0]-0.10) > 1e-12 {
		t.Errorf("rets[0] = %v, want 0.10", rets[0])
	}
	if math.Abs(rets[1]+0.10) > 1e-12 {
		t.Errorf("rets[1] = %v, want -0.10", rets[1])
	}
	if Returns([]float64{100}) != nil {
		t.Error("Returns on single point should be nil")
	}
}

func TestVolatilityFlatSeries(t *testing.T) {
	closes := []float64{100, 100, 100, 100}
	if got := Volatility(closes, 3); got != 0 {
		t.Errorf("Volatility of flat series = %v, want 0", got)
	}
}

func TestRSIAllGains(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5, 6}
	if got := RSI(closes, 5); got != 100 {
		t.Errorf("RSI all-gains = %v, want 100", got)
	}
}
