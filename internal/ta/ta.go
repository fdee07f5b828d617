// Package ta holds the shared indicator math that allocation policies lean
// on. Every function works on the trailing n elements of its input and
// returns NaN when there is not enough history.
package ta

import "math"

func SMA(closes []float64, n int) float64 {
	if len(closes) < n || n <= 0 {
		return math.NaN()
	}
	sum := 0.0
	for i := len(closes) - n; i < len(closes); i++ {
		sum += closes[i]
	}
	return sum / float64(n)
}

func StdDev(vals []float64, n int) float64 {
	if len(vals) < n || n <= 0 {
		return math.NaN()
	}
	m := SMA(vals, n)
	s := 0.0
	for i := len(vals) - n; i < len(vals); i++ {
		d := vals[i] - m
		s += d * d
	}
	return math.Sqrt(s / float64(n))
}

// Momentum is the trailing return over the last n bars: close[t]/close[t-n] - 1.
func Momentum(closes []float64, n int) float64 {
	if len(closes) < n+1 || n <= 0 {
		return math.NaN()
	}
	base := closes[len(closes)-1-n]
	if base == 0 {
		return math.NaN()
	}
	return closes[len(closes)-1]/base - 1
}

// Returns converts a close series into pointwise relative changes.
func Returns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, closes[i]/closes[i-1]-1)
	}
	return out
}

// Volatility is the standard deviation of the trailing n daily returns.
func Volatility(closes []float64, n int) float64 {
	rets := Returns(closes)
	return StdDev(rets, n)
}

func RSI(closes []float64, period int) float64 {
	if len(closes) < period+1 || period <= 0 {
		return math.NaN()
	}
	gain, loss := 0.0, 0.0
	for i := len(closes) - period; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	if loss == 0 {
		return 100.0
	}
	rs := (gain / float64(period)) / (loss / float64(period))
	return 100.0 - (100.0 / (1.0 + rs))
}
