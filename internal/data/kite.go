package data

import (
	"context"
	"fmt"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"portfolio-backtester/internal/logger"
	"portfolio-backtester/internal/types"
)

// KiteFetcher pulls daily candles from the Kite Connect historical API so
// they can be persisted into a local Source. It is a fetch-time tool; the
// engine never talks to Kite during a run.
type KiteFetcher struct {
	kc *kiteconnect.Client
}

// NewKiteFetcher builds an authenticated Kite Connect client.
func NewKiteFetcher(apiKey, accessToken string) *KiteFetcher {
	kc := kiteconnect.New(apiKey)
	kc.SetAccessToken(accessToken)
	return &KiteFetcher{kc: kc}
}

// FetchDaily retrieves day candles for the instrument and maps them onto
// bars under the given symbol.
func (f *KiteFetcher) FetchDaily(ctx context.Context, symbol string, instrumentToken int, from, to time.Time) ([]types.Bar, error) {
	candles, err := f.kc.GetHistoricalData(instrumentToken, "day", from, to, false, false)
	if err != nil {
		return nil, fmt.Errorf("fetching %s (token %d): %w", symbol, instrumentToken, err)
	}

	bars := make([]types.Bar, 0, len(candles))
	for _, c := range candles {
		bars = append(bars, types.Bar{
			Symbol: symbol,
			Date:   time.Date(c.Date.Year(), c.Date.Month(), c.Date.Day(), 0, 0, 0, 0, time.UTC),
			Open:   c.Open,
			High:   c.High,
			Low:    c.Low,
			Close:  c.Close,
			Volume: int64(c.Volume),
		})
	}

	logger.Info(ctx, "Fetched daily candles",
		"symbol", symbol,
		"instrument_token", instrumentToken,
		"bars", len(bars),
		"from", from.Format("2006-01-02"),
		"to", to.Format("2006-01-02"))
	return bars, nil
}

// FetchAndStore fetches daily candles for every instrument in the map and
// writes them through the given Writer. Instrument map: symbol → token.
func (f *KiteFetcher) FetchAndStore(ctx context.Context, w Writer, instruments map[string]int, from, to time.Time) error {
	for sym, token := range instruments {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		bars, err := f.FetchDaily(ctx, sym, token, from, to)
		if err != nil {
			return err
		}
		if err := w.WriteBars(ctx, bars); err != nil {
			return fmt.Errorf("storing bars for %s: %w", sym, err)
		}
	}
	return nil
}
