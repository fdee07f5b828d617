// Package backtest drives the day-by-day simulation: it walks the trading
// calendar, consults the allocation policy when the scheduler fires, turns
// target weights into trades against the ledger, and records the equity
// curve the analyzer consumes.
package backtest

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"portfolio-backtester/internal/cost"
	"portfolio-backtester/internal/logger"
	"portfolio-backtester/internal/portfolio"
	"portfolio-backtester/internal/rebalance"
	"portfolio-backtester/internal/series"
	"portfolio-backtester/internal/strategy"
	"portfolio-backtester/internal/trace"
	"portfolio-backtester/internal/types"
)

// minTradeNotional suppresses float-dust orders that would otherwise churn
// on every rebalance.
const minTradeNotional = 1e-6

// sumTolerance is the epsilon allowed on allocation sums before scaling.
const sumTolerance = 1e-9

// Config is the run configuration for one simulation.
type Config struct {
	InitialCash       float64
	Start, End        time.Time
	Frequency         types.Frequency
	DriftThresholdPct float64 // 0 disables drift-triggered rebalances
	Cost              cost.Model
	RiskFreeRate      float64 // annualized, for Sharpe
}

// Validate checks the configuration before any loop starts. Invalid runs
// never begin.
func (c Config) Validate() error {
	if c.InitialCash <= 0 {
		return fmt.Errorf("initial cash must be positive, got %v", c.InitialCash)
	}
	if c.Start.IsZero() || c.End.IsZero() {
		return fmt.Errorf("start and end dates are required")
	}
	if c.End.Before(c.Start) {
		return fmt.Errorf("end date %s precedes start date %s",
			c.End.Format("2006-01-02"), c.Start.Format("2006-01-02"))
	}
	if _, err := types.ParseFrequency(string(c.Frequency)); err != nil {
		return err
	}
	return nil
}

// Result is the completed artifact of one run: equity curve, trade log,
// and derived summary. Read-only once returned.
type Result struct {
	RunID       string              `json:"run_id"`
	Strategy    string              `json:"strategy"`
	EquityCurve []types.EquityPoint `json:"equity_curve"`
	Trades      []types.Trade       `json:"trades"`
	Summary     types.Summary       `json:"summary"`
}

// Engine runs simulations for one configuration. It holds no per-run
// state, so one Engine can serve many runs.
type Engine struct {
	cfg Config
}

// New validates the configuration and returns an Engine. A nil cost model
// defaults to frictionless.
func New(cfg Config) (*Engine, error) {
	if cfg.Cost == nil {
		cfg.Cost = cost.Free{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Run executes one full simulation of policy against the dataset. The date
// loop is strictly sequential: each day's trades depend on the previous
// day's ledger, so there is no parallelism inside a run. Cancelling ctx
// aborts the whole run rather than truncating the curve.
func (e *Engine) Run(ctx context.Context, policy strategy.Policy, data map[string]*series.Series) (*Result, error) {
	ctx, span := trace.StartSpan(ctx, "backtest.Run")
	defer span.End()

	dates := series.UnionDates(data, e.cfg.Start, e.cfg.End)
	if len(dates) == 0 {
		return nil, fmt.Errorf("no price data between %s and %s",
			e.cfg.Start.Format("2006-01-02"), e.cfg.End.Format("2006-01-02"))
	}

	ledger := portfolio.NewLedger(e.cfg.InitialCash)
	sched := rebalance.New(e.cfg.Frequency, e.cfg.DriftThresholdPct)

	res := &Result{
		RunID:    uuid.NewString(),
		Strategy: policy.Name(),
	}
	lastKnown := map[string]float64{}

	for _, d := range dates {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("run aborted on %s: %w", d.Format("2006-01-02"), ctx.Err())
		default:
		}

		// Today's opportunity set: symbols with a bar on d trade at the
		// close. Held symbols without a bar today mark at the last known
		// price but are not traded.
		prices := map[string]float64{}
		for sym, s := range data {
			if c, ok := s.CloseOn(d); ok {
				prices[sym] = c
				lastKnown[sym] = c
			}
		}
		mark, err := e.markPrices(ledger, prices, lastKnown, d)
		if err != nil {
			return nil, err
		}

		weights, err := ledger.Weights(mark)
		if err != nil {
			return nil, fmt.Errorf("weighing portfolio on %s: %w", d.Format("2006-01-02"), err)
		}

		if sched.ShouldRebalance(d, weights) {
			trades, target, err := e.consult(ctx, policy, d, data, ledger, prices, mark)
			if err != nil {
				return nil, err
			}
			res.Trades = append(res.Trades, trades...)
			sched.MarkRebalanced(d, target)

			if len(trades) > 0 {
				eq, _ := ledger.TotalEquity(mark)
				logger.Rebalance(ctx, d.Format("2006-01-02"), len(trades), eq, "strategy", policy.Name())
			}
		}

		equity, err := ledger.TotalEquity(mark)
		if err != nil {
			return nil, fmt.Errorf("marking portfolio on %s: %w", d.Format("2006-01-02"), err)
		}
		res.EquityCurve = append(res.EquityCurve, types.EquityPoint{Date: d, Equity: equity})
	}

	res.Summary = Summarize(res.EquityCurve, len(res.Trades), e.cfg.RiskFreeRate)
	return res, nil
}

// markPrices extends today's prices with carry-forward closes for held
// symbols missing a bar on d. A held symbol that never traded is a
// bookkeeping inconsistency and aborts the run.
func (e *Engine) markPrices(ledger *portfolio.Ledger, prices, lastKnown map[string]float64, d time.Time) (map[string]float64, error) {
	mark := make(map[string]float64, len(prices))
	for sym, p := range prices {
		mark[sym] = p
	}
	for _, sym := range ledger.Symbols() {
		if _, ok := mark[sym]; ok {
			continue
		}
		p, ok := lastKnown[sym]
		if !ok {
			return nil, fmt.Errorf("%w for held symbol %s on %s",
				portfolio.ErrMissingPrice, sym, d.Format("2006-01-02"))
		}
		mark[sym] = p
	}
	return mark, nil
}

// consult asks the policy for a target allocation and executes it. The
// returned target is nil when the policy requested no change, which tells
// the scheduler to keep its previous target.
func (e *Engine) consult(ctx context.Context, policy strategy.Policy, d time.Time,
	data map[string]*series.Series, ledger *portfolio.Ledger,
	prices, mark map[string]float64) ([]types.Trade, types.Allocation, error) {

	// Lookback views are cut at d before the policy ever sees them.
	views := make(map[string]*series.Series, len(data))
	for sym, s := range data {
		if v := s.UpTo(d); v.Len() > 0 {
			views[sym] = v
		}
	}

	snap, err := ledger.Snapshot(mark)
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot on %s: %w", d.Format("2006-01-02"), err)
	}

	alloc, err := policy.Allocate(ctx, d, views, snap, prices)
	if err != nil {
		// Fatal: a failing policy is a programming defect, not a condition
		// to retry or skip past.
		return nil, nil, fmt.Errorf("policy %s failed on %s: %w",
			policy.Name(), d.Format("2006-01-02"), err)
	}

	if len(alloc) == 0 {
		if !policy.EmptyMeansCash() {
			return nil, nil, nil
		}
		alloc = types.Allocation{} // liquidate to 100% cash
	}

	target := Normalize(alloc)
	trades, err := e.execute(ctx, d, target, ledger, prices, mark)
	if err != nil {
		return nil, nil, err
	}
	return trades, target, nil
}

// Normalize clamps each weight to [0, 100] and scales the whole allocation
// down proportionally when the sum exceeds 100. Out-of-bounds requests are
// repaired, never rejected, so the simulation keeps running.
func Normalize(alloc types.Allocation) types.Allocation {
	out := make(types.Allocation, len(alloc))
	sum := 0.0
	for sym, w := range alloc {
		if w <= 0 || math.IsNaN(w) {
			continue
		}
		if w > 100 {
			w = 100
		}
		out[sym] = w
		sum += w
	}
	if sum > 100+sumTolerance {
		scale := 100 / sum
		for sym := range out {
			out[sym] *= scale
		}
	}
	return out
}

// execute trades the ledger from its current weights to the target. Sells
// run before buys so freed cash funds the purchases; that ordering is a
// correctness requirement, not an optimization. Both directions respect
// cash: buys are sized through the cost model so cost is deducted before
// cash sufficiency is checked, and a sell whose cost exceeds its proceeds
// plus current cash is skipped.
func (e *Engine) execute(ctx context.Context, d time.Time, target types.Allocation,
	ledger *portfolio.Ledger, prices, mark map[string]float64) ([]types.Trade, error) {

	equity, err := ledger.TotalEquity(mark)
	if err != nil {
		return nil, fmt.Errorf("marking portfolio on %s: %w", d.Format("2006-01-02"), err)
	}

	// Consider every tradeable symbol that is targeted or held. Targets on
	// symbols without a bar today cannot be traded and are skipped.
	considered := map[string]struct{}{}
	for sym := range target {
		if _, ok := prices[sym]; ok {
			considered[sym] = struct{}{}
		}
	}
	for _, sym := range ledger.Symbols() {
		if _, ok := prices[sym]; ok {
			considered[sym] = struct{}{}
		}
	}
	syms := make([]string, 0, len(considered))
	for sym := range considered {
		syms = append(syms, sym)
	}
	sort.Strings(syms)

	type order struct {
		symbol string
		qty    float64
	}
	var sells, buys []order
	for _, sym := range syms {
		price := prices[sym]
		desired := target[sym] / 100 * equity
		held := ledger.Position(sym)
		delta := (desired - held*price) / price
		switch {
		case delta < 0:
			if -delta > held {
				delta = -held
			}
			if -delta*price < minTradeNotional {
				continue
			}
			sells = append(sells, order{symbol: sym, qty: delta})
		case delta > 0:
			buys = append(buys, order{symbol: sym, qty: delta})
		}
	}

	var out []types.Trade
	apply := func(sym string, qty float64) error {
		price := prices[sym]
		c := e.cfg.Cost.Cost(qty * price)
		if err := ledger.ApplyTrade(sym, qty, price, c); err != nil {
			return fmt.Errorf("trade %s on %s: %w", sym, d.Format("2006-01-02"), err)
		}
		out = append(out, types.Trade{
			ID:     uuid.NewString(),
			Symbol: sym,
			Date:   d,
			Qty:    qty,
			Price:  price,
			Cost:   c,
		})
		logger.Trade(ctx, sym, qty, price, c, d.Format("2006-01-02"))
		return nil
	}

	for _, o := range sells {
		price := prices[o.symbol]
		// Proceeds plus current cash must cover the sell's own cost, or the
		// sell is skipped. Under a flat-fee model a dust sell can cost more
		// than it frees.
		if ledger.Cash()-o.qty*price < e.cfg.Cost.Cost(o.qty*price) {
			continue
		}
		if err := apply(o.symbol, o.qty); err != nil {
			return out, err
		}
	}
	for _, o := range buys {
		price := prices[o.symbol]
		qty := o.qty
		// Exact affordability: qty*price plus its cost must fit in cash.
		if maxN := e.cfg.Cost.MaxNotional(ledger.Cash()); qty*price > maxN {
			qty = maxN / price
		}
		if qty*price < minTradeNotional {
			continue
		}
		if err := apply(o.symbol, qty); err != nil {
			return out, err
		}
	}
	return out, nil
}
