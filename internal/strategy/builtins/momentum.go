package builtins

import (
	"context"
	"math"
	"sort"
	"time"

	"portfolio-backtester/internal/portfolio"
	"portfolio-backtester/internal/series"
	"portfolio-backtester/internal/strategy"
	"portfolio-backtester/internal/ta"
	"portfolio-backtester/internal/types"
)

var _ strategy.Policy = (*Momentum)(nil)

// Momentum ranks the universe by trailing return over a lookback window
// and spreads equity evenly across the top N. Symbols with negative
// momentum are skipped, so the policy drifts toward cash in downtrends.
type Momentum struct {
	lookback int
	topN     int
}

// NewMomentum creates a Momentum policy with the given lookback (bars) and
// number of holdings.
func NewMomentum(lookback, topN int) *Momentum {
	if lookback <= 0 {
		lookback = 90
	}
	if topN <= 0 {
		topN = 3
	}
	return &Momentum{lookback: lookback, topN: topN}
}

func (p *Momentum) Name() string { return "momentum" }

// An empty ranking means nothing qualified; that is a defensive signal,
// not a hold.
func (p *Momentum) EmptyMeansCash() bool { return true }

func (p *Momentum) Allocate(_ context.Context, _ time.Time, history map[string]*series.Series,
	_ portfolio.Snapshot, prices map[string]float64) (types.Allocation, error) {

	type ranked struct {
		symbol string
		score  float64
	}
	var candidates []ranked
	for sym := range prices {
		view, ok := history[sym]
		if !ok {
			continue
		}
		m := ta.Momentum(view.Closes(), p.lookback)
		if math.IsNaN(m) || m <= 0 {
			continue
		}
		candidates = append(candidates, ranked{symbol: sym, score: m})
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].symbol < candidates[j].symbol
	})
	if len(candidates) > p.topN {
		candidates = candidates[:p.topN]
	}

	per := 100.0 / float64(len(candidates))
	alloc := make(types.Allocation, len(candidates))
	for _, c := range candidates {
		alloc[c.symbol] = per
	}
	return alloc, nil
}
