package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"portfolio-backtester/internal/backtest"
	"portfolio-backtester/internal/data"
	"portfolio-backtester/internal/logger"
	"portfolio-backtester/internal/report"
	"portfolio-backtester/internal/store"
	"portfolio-backtester/internal/trace"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	if err := initializeSystem(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	defer trace.Shutdown(context.Background())

	cfg, err := store.LoadConfig(configPath())
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		return err
	}

	engCfg, err := buildEngineConfig(cfg)
	if err != nil {
		return err
	}
	eng, err := backtest.New(engCfg)
	if err != nil {
		return err
	}

	src, closeSrc, err := buildSource(cfg)
	if err != nil {
		return err
	}
	defer closeSrc()

	logger.Info(ctx, "Loading price data",
		"source", cfg.Data.Source,
		"symbols", len(cfg.Data.Symbols),
		"start", cfg.Backtest.StartDate,
		"end", cfg.Backtest.EndDate)

	series, err := data.LoadSeries(ctx, src, cfg.Data.Symbols, engCfg.Start, engCfg.End)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load price data", err)
		return err
	}

	reg, err := buildRegistry(cfg)
	if err != nil {
		return err
	}
	policies, err := selectPolicies(cfg, reg)
	if err != nil {
		return err
	}

	results, err := eng.RunAll(ctx, policies, series)
	if err != nil {
		logger.ErrorWithErr(ctx, "Backtest failed", err)
		return err
	}

	for _, res := range results {
		if err := report.WriteResult(cfg.Report.Dir, res); err != nil {
			logger.ErrorWithErr(ctx, "Failed to write report", err, "strategy", res.Strategy)
			return err
		}
		b, _ := json.MarshalIndent(struct {
			Strategy string `json:"strategy"`
			Summary  any    `json:"summary"`
		}{res.Strategy, res.Summary}, "", "  ")
		fmt.Println(string(b))
	}

	logger.Info(ctx, "Backtest complete",
		"strategies", len(results),
		"report_dir", cfg.Report.Dir)
	return nil
}

func configPath() string {
	if len(os.Args) > 1 {
		return os.Args[1]
	}
	return "config.yaml"
}
