package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"portfolio-backtester/internal/backtest"
	"portfolio-backtester/internal/types"
)

func TestWriteResult(t *testing.T) {
	dir := t.TempDir()
	d1 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)

	res := &backtest.Result{
		RunID:    "test-run",
		Strategy: "equal-weight",
		EquityCurve: []types.EquityPoint{
			{Date: d1, Equity: 100000},
			{Date: d2, Equity: 100500},
		},
		Trades: []types.Trade{
			{ID: "t1", Symbol: "AAPL", Date: d1, Qty: 10, Price: 100, Cost: 0.1},
			{ID: "t2", Symbol: "MSFT", Date: d1, Qty: -5, Price: 200, Cost: 0.1},
		},
		Summary: types.Summary{TotalReturn: 0.005, TradeCount: 2, Days: 2},
	}

	if err := WriteResult(dir, res); err != nil {
		t.Fatalf("WriteResult: %v", err)
	}
	runDir := filepath.Join(dir, "equal-weight")

	trades, err := os.ReadFile(filepath.Join(runDir, "trades.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(trades)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 trade lines, got %d", len(lines))
	}
	var tr types.Trade
	if err := json.Unmarshal([]byte(lines[0]), &tr); err != nil {
		t.Fatalf("trade line not valid JSON: %v", err)
	}
	if tr.Symbol != "AAPL" || tr.Qty != 10 {
		t.Errorf("unexpected first trade: %+v", tr)
	}

	equity, err := os.ReadFile(filepath.Join(runDir, "equity.csv"))
	if err != nil {
		t.Fatal(err)
	}
	got := strings.TrimSpace(string(equity))
	want := "date,equity\n2024-01-02,100000\n2024-01-03,100500"
	if got != want {
		t.Errorf("equity.csv = %q, want %q", got, want)
	}

	summary, err := os.ReadFile(filepath.Join(runDir, "summary.json"))
	if err != nil {
		t.Fatal(err)
	}
	var s struct {
		RunID   string        `json:"run_id"`
		Summary types.Summary `json:"summary"`
	}
	if err := json.Unmarshal(summary, &s); err != nil {
		t.Fatalf("summary.json not valid JSON: %v", err)
	}
	if s.RunID != "test-run" || s.Summary.TradeCount != 2 {
		t.Errorf("unexpected summary: %+v", s)
	}
}
