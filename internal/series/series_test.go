package series

import (
	"testing"
	"time"

	"portfolio-backtester/internal/types"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testBars() []types.Bar {
	return []types.Bar{
		{Symbol: "AAA", Date: day(2024, 1, 2), Close: 100},
		{Symbol: "AAA", Date: day(2024, 1, 3), Close: 110},
		{Symbol: "AAA", Date: day(2024, 1, 5), Close: 99},
		{Symbol: "AAA", Date: day(2024, 1, 8), Close: 121},
	}
}

func TestNewRejectsUnorderedBars(t *testing.T) {
	bars := testBars()
	bars[1], bars[2] = bars[2], bars[1]
	if _, err := New("AAA", bars); err == nil {
		t.Fatal("expected error for out-of-order bars")
	}
}

func TestNewRejectsDuplicateDates(t *testing.T) {
	bars := testBars()
	bars[1].Date = bars[0].Date
	if _, err := New("AAA", bars); err == nil {
		t.Fatal("expected error for duplicate dates")
	}
}

func TestUpToExcludesFutureBars(t *testing.T) {
	s, err := New("AAA", testBars())
	if err != nil {
		t.Fatal(err)
	}

	v := s.UpTo(day(2024, 1, 5))
	if v.Len() != 3 {
		t.Fatalf("UpTo returned %d bars, want 3", v.Len())
	}
	last, ok := v.Last()
	if !ok {
		t.Fatal("expected non-empty view")
	}
	if last.Date.After(day(2024, 1, 5)) {
		t.Errorf("view leaked future bar dated %v", last.Date)
	}

	// A cut before the first bar yields an empty view.
	empty := s.UpTo(day(2024, 1, 1))
	if empty.Len() != 0 {
		t.Errorf("expected empty view, got %d bars", empty.Len())
	}
	if _, ok := empty.Last(); ok {
		t.Error("Last should report ok=false for empty view")
	}
}

func TestCloseOn(t *testing.T) {
	s, _ := New("AAA", testBars())

	c, ok := s.CloseOn(day(2024, 1, 3))
	if !ok || c != 110 {
		t.Errorf("CloseOn = %v,%v, want 110,true", c, ok)
	}
	if _, ok := s.CloseOn(day(2024, 1, 4)); ok {
		t.Error("CloseOn should miss on a non-trading date")
	}
}

func TestLastCloseOnCarriesForward(t *testing.T) {
	s, _ := New("AAA", testBars())

	// Jan 6-7 have no bar; the Jan 5 close carries forward.
	c, ok := s.LastCloseOn(day(2024, 1, 7))
	if !ok || c != 99 {
		t.Errorf("LastCloseOn = %v,%v, want 99,true", c, ok)
	}
	if _, ok := s.LastCloseOn(day(2024, 1, 1)); ok {
		t.Error("LastCloseOn should miss before the first bar")
	}
}

func TestUnionDates(t *testing.T) {
	a, _ := New("AAA", testBars())
	b, _ := New("BBB", []types.Bar{
		{Symbol: "BBB", Date: day(2024, 1, 3), Close: 50},
		{Symbol: "BBB", Date: day(2024, 1, 4), Close: 51},
	})

	dates := UnionDates(map[string]*Series{"AAA": a, "BBB": b},
		day(2024, 1, 2), day(2024, 1, 5))

	want := []time.Time{day(2024, 1, 2), day(2024, 1, 3), day(2024, 1, 4), day(2024, 1, 5)}
	if len(dates) != len(want) {
		t.Fatalf("got %d dates, want %d", len(dates), len(want))
	}
	for i := range want {
		if !dates[i].Equal(want[i]) {
			t.Errorf("dates[%d] = %v, want %v", i, dates[i], want[i])
		}
	}
}

func TestNewRejectsNonPositiveClose(t *testing.T) {
	for _, bad := range []float64{0, -5} {
		bars := testBars()
		bars[2].Close = bad
		if _, err := New("AAA", bars); err == nil {
			t.Errorf("expected error for close %v", bad)
		}
	}
}
