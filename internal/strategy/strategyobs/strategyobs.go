package strategyobs

import (
	"context"
	"time"

	"portfolio-backtester/internal/logger"
	"portfolio-backtester/internal/portfolio"
	"portfolio-backtester/internal/series"
	"portfolio-backtester/internal/strategy"
	"portfolio-backtester/internal/trace"
	"portfolio-backtester/internal/types"
)

type observablePolicy struct {
	policy strategy.Policy
}

var _ strategy.Policy = (*observablePolicy)(nil)

// Wrap adds tracing and logging around every policy consultation.
func Wrap(p strategy.Policy) strategy.Policy {
	return &observablePolicy{policy: p}
}

func (op *observablePolicy) Name() string { return op.policy.Name() }

func (op *observablePolicy) EmptyMeansCash() bool { return op.policy.EmptyMeansCash() }

func (op *observablePolicy) Allocate(ctx context.Context, date time.Time, history map[string]*series.Series,
	snap portfolio.Snapshot, prices map[string]float64) (types.Allocation, error) {

	ctx, span := trace.StartSpan(ctx, "policy.Allocate")
	defer span.End()

	start := time.Now()

	alloc, err := op.policy.Allocate(ctx, date, history, snap, prices)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Policy allocation failed", err,
			"policy", op.policy.Name(),
			"date", date.Format("2006-01-02"),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	logger.InfoSkip(ctx, 1, "Policy allocation computed",
		"policy", op.policy.Name(),
		"date", date.Format("2006-01-02"),
		"symbols", len(alloc),
		"equity", snap.Equity,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return alloc, nil
}
