package data

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"portfolio-backtester/internal/types"
)

var _ Source = (*CSVSource)(nil)

// CSVSource reads one file per symbol from a directory. Files are named
// <SYMBOL>.csv with a header row:
//
//	date,open,high,low,close,volume
//
// Dates are YYYY-MM-DD and rows must be ascending by date.
type CSVSource struct {
	Dir string
}

// NewCSVSource creates a CSVSource rooted at dir.
func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{Dir: dir}
}

func (s *CSVSource) path(symbol string) string {
	return filepath.Join(s.Dir, strings.ToUpper(symbol)+".csv")
}

// ReadBars reads the bars for symbol within [start, end].
func (s *CSVSource) ReadBars(_ context.Context, symbol string, start, end time.Time) ([]types.Bar, error) {
	f, err := os.Open(s.path(symbol))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header of %s: %w", s.path(symbol), err)
	}
	if len(header) < 6 {
		return nil, fmt.Errorf("%s: expected 6 columns, got %d", s.path(symbol), len(header))
	}

	var bars []types.Bar
	line := 1
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", s.path(symbol), line, err)
		}
		line++

		d, err := time.Parse("2006-01-02", rec[0])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: bad date %q", s.path(symbol), line, rec[0])
		}
		if d.Before(start) || d.After(end) {
			continue
		}

		vals := make([]float64, 4)
		for i := 0; i < 4; i++ {
			vals[i], err = strconv.ParseFloat(rec[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: bad price %q", s.path(symbol), line, rec[i+1])
			}
		}
		vol, err := strconv.ParseInt(rec[5], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: bad volume %q", s.path(symbol), line, rec[5])
		}

		bars = append(bars, types.Bar{
			Symbol: strings.ToUpper(symbol),
			Date:   d,
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vol,
		})
	}
	return bars, nil
}

// ListSymbols lists the symbols that have a CSV file in the directory.
func (s *CSVSource) ListSymbols(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var symbols []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".csv") {
			continue
		}
		symbols = append(symbols, strings.TrimSuffix(e.Name(), ".csv"))
	}
	sort.Strings(symbols)
	return symbols, nil
}
