package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"portfolio-backtester/internal/backtest"
	"portfolio-backtester/internal/cost"
	"portfolio-backtester/internal/data"
	"portfolio-backtester/internal/logger"
	"portfolio-backtester/internal/store"
	"portfolio-backtester/internal/strategy"
	"portfolio-backtester/internal/strategy/builtins"
	"portfolio-backtester/internal/strategy/strategyobs"
	"portfolio-backtester/internal/trace"
	"portfolio-backtester/internal/types"
)

// initializeSystem initializes logger and tracer.
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}

	return nil
}

// buildEngineConfig maps the file config onto an engine config.
func buildEngineConfig(cfg *store.Config) (backtest.Config, error) {
	start, err := time.Parse("2006-01-02", cfg.Backtest.StartDate)
	if err != nil {
		return backtest.Config{}, fmt.Errorf("parsing start_date: %w", err)
	}
	end, err := time.Parse("2006-01-02", cfg.Backtest.EndDate)
	if err != nil {
		return backtest.Config{}, fmt.Errorf("parsing end_date: %w", err)
	}
	freq, err := types.ParseFrequency(cfg.Backtest.Frequency)
	if err != nil {
		return backtest.Config{}, err
	}

	return backtest.Config{
		InitialCash:       cfg.Backtest.InitialCash,
		Start:             start,
		End:               end,
		Frequency:         freq,
		DriftThresholdPct: cfg.Backtest.DriftThresholdPct,
		Cost:              buildCostModel(cfg),
		RiskFreeRate:      cfg.Backtest.RiskFreeRate,
	}, nil
}

// buildCostModel picks the richest model the config describes.
func buildCostModel(cfg *store.Config) cost.Model {
	switch {
	case cfg.Backtest.SpreadBps > 0:
		return cost.Spread{CommissionBps: cfg.Backtest.CostBps, SpreadBps: cfg.Backtest.SpreadBps}
	case cfg.Backtest.FixedFee > 0:
		return cost.FixedFee{Fee: cfg.Backtest.FixedFee}
	case cfg.Backtest.CostBps > 0:
		return cost.BasisPoints{Bps: cfg.Backtest.CostBps}
	default:
		return cost.Free{}
	}
}

// buildSource selects the bar store configured under data.source.
func buildSource(cfg *store.Config) (data.Source, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Data.Source {
	case "csv":
		return data.NewCSVSource(cfg.Data.CSVDir), noop, nil
	case "sqlite":
		s, err := data.NewSQLiteStore(cfg.Data.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case "parquet":
		return data.NewParquetStore(cfg.Data.ParquetDir), noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown data source '%s'", cfg.Data.Source)
	}
}

// buildRegistry registers the builtin policies, each wrapped with
// observability middleware.
func buildRegistry(cfg *store.Config) (*strategy.Registry, error) {
	reg := strategy.NewRegistry()

	ew := builtins.NewEqualWeight(cfg.Data.Symbols, cfg.Strategies.EqualWeight.TargetPct)
	mom := builtins.NewMomentum(cfg.Strategies.Momentum.Lookback, cfg.Strategies.Momentum.TopN)
	ens, err := builtins.NewEnsemble([]builtins.Component{
		{Policy: ew, Weight: 1},
		{Policy: mom, Weight: 1},
	}, false)
	if err != nil {
		return nil, err
	}

	reg.Register(strategyobs.Wrap(ew))
	reg.Register(strategyobs.Wrap(mom))
	reg.Register(strategyobs.Wrap(ens))
	return reg, nil
}

// selectPolicies resolves the configured strategy names against the registry.
func selectPolicies(cfg *store.Config, reg *strategy.Registry) ([]strategy.Policy, error) {
	policies := make([]strategy.Policy, 0, len(cfg.Strategies.Run))
	for _, name := range cfg.Strategies.Run {
		p, ok := reg.Get(name)
		if !ok {
			return nil, fmt.Errorf("unknown strategy '%s', available: %v", name, reg.List())
		}
		policies = append(policies, p)
	}
	return policies, nil
}
