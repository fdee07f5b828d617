package store

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"portfolio-backtester/internal/types"
)

type Config struct {
	Backtest struct {
		InitialCash       float64 `yaml:"initial_cash"`
		StartDate         string  `yaml:"start_date"`
		EndDate           string  `yaml:"end_date"`
		Frequency         string  `yaml:"frequency"`
		DriftThresholdPct float64 `yaml:"drift_threshold_pct"`
		CostBps           float64 `yaml:"cost_bps"`
		FixedFee          float64 `yaml:"fixed_fee"`
		SpreadBps         float64 `yaml:"spread_bps"`
		RiskFreeRate      float64 `yaml:"risk_free_rate"`
	} `yaml:"backtest"`
	Data struct {
		Source      string         `yaml:"source"` // csv, sqlite, parquet
		CSVDir      string         `yaml:"csv_dir"`
		SQLitePath  string         `yaml:"sqlite_path"`
		ParquetDir  string         `yaml:"parquet_dir"`
		Symbols     []string       `yaml:"symbols"`
		Instruments map[string]int `yaml:"instruments"` // symbol -> Kite instrument token
	} `yaml:"data"`
	Strategies struct {
		Run         []string `yaml:"run"`
		EqualWeight struct {
			TargetPct float64 `yaml:"target_pct"`
		} `yaml:"equal_weight"`
		Momentum struct {
			Lookback int `yaml:"lookback"`
			TopN     int `yaml:"top_n"`
		} `yaml:"momentum"`
	} `yaml:"strategies"`
	Report struct {
		Dir string `yaml:"dir"`
	} `yaml:"report"`
}

func (c *Config) Validate() error {
	if c.Backtest.InitialCash <= 0 {
		return fmt.Errorf("backtest.initial_cash must be positive, got %.2f", c.Backtest.InitialCash)
	}
	if c.Backtest.StartDate == "" || c.Backtest.EndDate == "" {
		return errors.New("backtest.start_date and backtest.end_date are required")
	}
	if _, err := types.ParseFrequency(c.Backtest.Frequency); err != nil {
		return err
	}
	switch c.Data.Source {
	case "csv", "sqlite", "parquet":
	default:
		return fmt.Errorf("data.source must be 'csv', 'sqlite', or 'parquet', got '%s'", c.Data.Source)
	}
	if len(c.Data.Symbols) == 0 {
		return errors.New("data.symbols cannot be empty")
	}
	if len(c.Strategies.Run) == 0 {
		return errors.New("strategies.run cannot be empty")
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	if c.Backtest.Frequency == "" {
		c.Backtest.Frequency = "monthly"
	}
	if c.Data.Source == "" {
		c.Data.Source = "csv"
	}
	if c.Data.CSVDir == "" {
		c.Data.CSVDir = "data/csv"
	}
	if c.Data.SQLitePath == "" {
		c.Data.SQLitePath = "data/bars.db"
	}
	if c.Data.ParquetDir == "" {
		c.Data.ParquetDir = "data/parquet"
	}
	if c.Strategies.EqualWeight.TargetPct == 0 {
		c.Strategies.EqualWeight.TargetPct = 100
	}
	if c.Strategies.Momentum.Lookback == 0 {
		c.Strategies.Momentum.Lookback = 126
	}
	if c.Strategies.Momentum.TopN == 0 {
		c.Strategies.Momentum.TopN = 3
	}
	if c.Report.Dir == "" {
		c.Report.Dir = "results"
	}

	// Environment overrides for paths, so deployments can relocate data
	// without editing the config file.
	if v := os.Getenv("BACKTESTER_DATA_DIR"); v != "" {
		c.Data.CSVDir = v
	}
	if v := os.Getenv("BACKTESTER_REPORT_DIR"); v != "" {
		c.Report.Dir = v
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &c, nil
}
