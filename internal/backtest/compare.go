package backtest

import (
	"context"
	"sync"

	"portfolio-backtester/internal/series"
	"portfolio-backtester/internal/strategy"
)

// RunAll backtests every policy against the same dataset, one full run per
// policy. Runs are independent units of work: each gets its own ledger and
// scheduler, so they execute concurrently while the price data is shared
// read-only. Results come back in the order the policies were given; the
// first error aborts the comparison.
func (e *Engine) RunAll(ctx context.Context, policies []strategy.Policy, data map[string]*series.Series) ([]*Result, error) {
	results := make([]*Result, len(policies))
	errs := make([]error, len(policies))

	var wg sync.WaitGroup
	for i, p := range policies {
		wg.Add(1)
		go func(i int, p strategy.Policy) {
			defer wg.Done()
			results[i], errs[i] = e.Run(ctx, p, data)
		}(i, p)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
