// Package report writes the artifacts of a completed run to disk: a
// JSON-lines trade log, the equity curve as CSV, and the summary as JSON.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"portfolio-backtester/internal/backtest"
)

// WriteResult writes all artifacts for one run under dir/<strategy>/.
// Existing artifacts for the same strategy are overwritten.
func WriteResult(dir string, res *backtest.Result) error {
	runDir := filepath.Join(dir, res.Strategy)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return err
	}
	if err := writeTrades(filepath.Join(runDir, "trades.jsonl"), res); err != nil {
		return err
	}
	if err := writeEquityCurve(filepath.Join(runDir, "equity.csv"), res); err != nil {
		return err
	}
	return writeSummary(filepath.Join(runDir, "summary.json"), res)
}

// writeTrades appends one JSON object per line, one line per trade.
func writeTrades(path string, res *backtest.Result) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	for _, t := range res.Trades {
		b, err := json.Marshal(t)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(f, string(b)); err != nil {
			return err
		}
	}
	return nil
}

func writeEquityCurve(path string, res *backtest.Result) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"date", "equity"}); err != nil {
		return err
	}
	for _, p := range res.EquityCurve {
		rec := []string{
			p.Date.Format("2006-01-02"),
			strconv.FormatFloat(p.Equity, 'f', -1, 64),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeSummary(path string, res *backtest.Result) error {
	out := struct {
		RunID    string `json:"run_id"`
		Strategy string `json:"strategy"`
		Summary  any    `json:"summary"`
	}{
		RunID:    res.RunID,
		Strategy: res.Strategy,
		Summary:  res.Summary,
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
