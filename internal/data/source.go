// Package data supplies historical bars to the engine. The engine itself
// only ever sees immutable Series views; everything about acquisition and
// storage lives behind the Source and Writer interfaces here.
package data

import (
	"context"
	"fmt"
	"time"

	"portfolio-backtester/internal/series"
	"portfolio-backtester/internal/types"
)

// Source reads historical bars for the simulation.
type Source interface {
	// ReadBars returns the bars for symbol within [start, end], ascending
	// by date.
	ReadBars(ctx context.Context, symbol string, start, end time.Time) ([]types.Bar, error)

	// ListSymbols returns all symbols the source has data for.
	ListSymbols(ctx context.Context) ([]string, error)
}

// Writer persists bars fetched from a provider.
type Writer interface {
	WriteBars(ctx context.Context, bars []types.Bar) error
}

// LoadSeries builds the per-symbol series map a backtest runs against. A
// symbol with no bars in range is an error: a misspelled symbol should
// fail loudly, not silently shrink the universe.
func LoadSeries(ctx context.Context, src Source, symbols []string, start, end time.Time) (map[string]*series.Series, error) {
	out := make(map[string]*series.Series, len(symbols))
	for _, sym := range symbols {
		bars, err := src.ReadBars(ctx, sym, start, end)
		if err != nil {
			return nil, fmt.Errorf("reading bars for %s: %w", sym, err)
		}
		if len(bars) == 0 {
			return nil, fmt.Errorf("no bars for %s between %s and %s",
				sym, start.Format("2006-01-02"), end.Format("2006-01-02"))
		}
		s, err := series.New(sym, bars)
		if err != nil {
			return nil, err
		}
		out[sym] = s
	}
	return out, nil
}
