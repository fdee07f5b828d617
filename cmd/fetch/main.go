// Command fetch pulls daily candles from the Kite Connect historical API
// and persists them into the configured bar store, so backtests run
// entirely offline afterwards.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"portfolio-backtester/internal/data"
	"portfolio-backtester/internal/logger"
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
	_ = godotenv.Load()
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	defer trace.Shutdown(context.Background())

	cfg, err := store.LoadConfig(configPath())
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		return err
	}
	if len(cfg.Data.Instruments) == 0 {
		return fmt.Errorf("data.instruments is empty: nothing to fetch")
	}

	apiKey := os.Getenv("KITE_API_KEY")
	accessToken := os.Getenv("KITE_ACCESS_TOKEN")
	if apiKey == "" || accessToken == "" {
		return fmt.Errorf("KITE_API_KEY and KITE_ACCESS_TOKEN must be set")
	}

	from, err := time.Parse("2006-01-02", cfg.Backtest.StartDate)
	if err != nil {
		return fmt.Errorf("parsing start_date: %w", err)
	}
	to, err := time.Parse("2006-01-02", cfg.Backtest.EndDate)
	if err != nil {
		return fmt.Errorf("parsing end_date: %w", err)
	}

	writer, closeWriter, err := buildWriter(cfg)
	if err != nil {
		return err
	}
	defer closeWriter()

	logger.Info(ctx, "Fetching historical candles",
		"instruments", len(cfg.Data.Instruments),
		"store", cfg.Data.Source,
		"from", cfg.Backtest.StartDate,
		"to", cfg.Backtest.EndDate)

	fetcher := data.NewKiteFetcher(apiKey, accessToken)
	if err := fetcher.FetchAndStore(ctx, writer, cfg.Data.Instruments, from, to); err != nil {
		logger.ErrorWithErr(ctx, "Fetch failed", err)
		return err
	}

	logger.Info(ctx, "Fetch complete")
	return nil
}

// buildWriter picks the persistent store to fetch into. CSV is read-only,
// so sqlite and parquet are the fetch targets.
func buildWriter(cfg *store.Config) (data.Writer, func() error, error) {
	switch cfg.Data.Source {
	case "sqlite":
		s, err := data.NewSQLiteStore(cfg.Data.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case "parquet":
		return data.NewParquetStore(cfg.Data.ParquetDir), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("data.source '%s' is not a writable store (use sqlite or parquet)", cfg.Data.Source)
	}
}

func configPath() string {
	if len(os.Args) > 1 {
		return os.Args[1]
	}
	return "config.yaml"
}
