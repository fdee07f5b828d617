// Package series provides read-only, time-indexed views over one symbol's
// historical bars. A view never exposes a bar dated after the date it was
// sliced at, which is what keeps policies free of look-ahead.
package series

import (
	"fmt"
	"sort"
	"time"

	"portfolio-backtester/internal/types"
)

// Series is an ordered sequence of daily bars for one symbol, ascending by
// date with no duplicates. The backing slice is shared between views and
// must not be mutated after construction.
type Series struct {
	symbol string
	bars   []types.Bar
}

// New validates the bars and builds a Series. Bars must be strictly
// ascending by date with a positive close; a zero close would turn into
// Inf/NaN share quantities downstream.
func New(symbol string, bars []types.Bar) (*Series, error) {
	for i, b := range bars {
		if !(b.Close > 0) {
			return nil, fmt.Errorf("series %s: non-positive close %v on %s",
				symbol, b.Close, b.Date.Format("2006-01-02"))
		}
		if i > 0 && !b.Date.After(bars[i-1].Date) {
			return nil, fmt.Errorf("series %s: bars out of order at %s",
				symbol, b.Date.Format("2006-01-02"))
		}
	}
	return &Series{symbol: symbol, bars: bars}, nil
}

// Symbol returns the symbol this series belongs to.
func (s *Series) Symbol() string { return s.symbol }

// Len returns the number of bars in the view.
func (s *Series) Len() int { return len(s.bars) }

// Bar returns the i-th bar of the view.
func (s *Series) Bar(i int) types.Bar { return s.bars[i] }

// Last returns the most recent bar of the view. ok is false for an empty
// view.
func (s *Series) Last() (types.Bar, bool) {
	if len(s.bars) == 0 {
		return types.Bar{}, false
	}
	return s.bars[len(s.bars)-1], true
}

// UpTo returns the view containing every bar dated at or before d. This is
// the only way a policy ever sees history, so the cut is strict.
func (s *Series) UpTo(d time.Time) *Series {
	n := sort.Search(len(s.bars), func(i int) bool {
		return s.bars[i].Date.After(d)
	})
	return &Series{symbol: s.symbol, bars: s.bars[:n]}
}

// CloseOn returns the close price of the bar dated exactly d.
func (s *Series) CloseOn(d time.Time) (float64, bool) {
	i := sort.Search(len(s.bars), func(i int) bool {
		return !s.bars[i].Date.Before(d)
	})
	if i < len(s.bars) && s.bars[i].Date.Equal(d) {
		return s.bars[i].Close, true
	}
	return 0, false
}

// LastCloseOn returns the most recent close at or before d, carrying the
// last known price forward across dates the symbol did not trade.
func (s *Series) LastCloseOn(d time.Time) (float64, bool) {
	v := s.UpTo(d)
	last, ok := v.Last()
	if !ok {
		return 0, false
	}
	return last.Close, true
}

// Closes returns the close prices of the view in date order.
func (s *Series) Closes() []float64 {
	out := make([]float64, len(s.bars))
	for i, b := range s.bars {
		out[i] = b.Close
	}
	return out
}

// Dates returns the bar dates of the view in order.
func (s *Series) Dates() []time.Time {
	out := make([]time.Time, len(s.bars))
	for i, b := range s.bars {
		out[i] = b.Date
	}
	return out
}

// UnionDates collects the distinct bar dates across all series, restricted
// to [start, end] inclusive, sorted ascending. This is the simulation
// calendar for a multi-symbol run.
func UnionDates(all map[string]*Series, start, end time.Time) []time.Time {
	seen := map[time.Time]struct{}{}
	for _, s := range all {
		for _, b := range s.bars {
			if b.Date.Before(start) || b.Date.After(end) {
				continue
			}
			seen[b.Date] = struct{}{}
		}
	}
	dates := make([]time.Time, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}
