package types

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type cellKey struct {
	date   time.Time
	ticker string
}

// Frame is a date-by-ticker matrix of decimal values. Dates are ascending
// unique trading days, tickers are sorted unique identifiers. Cells are
// stored in an explicit (date, ticker)-keyed map; an absent key is a
// missing observation, not a zero.
type Frame struct {
	dates   []time.Time
	tickers []string
	cells   map[cellKey]decimal.Decimal
}

// Day normalizes a timestamp to midnight UTC so it can serve as a frame key.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FrameBuilder accumulates observations and produces a Frame with sorted
// unique axes.
type FrameBuilder struct {
	cells map[cellKey]decimal.Decimal
}

func NewFrameBuilder() *FrameBuilder {
	return &FrameBuilder{cells: make(map[cellKey]decimal.Decimal)}
}

func (b *FrameBuilder) Set(date time.Time, ticker string, v decimal.Decimal) *FrameBuilder {
	b.cells[cellKey{Day(date), ticker}] = v
	return b
}

func (b *FrameBuilder) Build() Frame {
	dateSet := make(map[time.Time]struct{})
	tickerSet := make(map[string]struct{})
	for k := range b.cells {
		dateSet[k.date] = struct{}{}
		tickerSet[k.ticker] = struct{}{}
	}
	f := Frame{
		dates:   make([]time.Time, 0, len(dateSet)),
		tickers: make([]string, 0, len(tickerSet)),
		cells:   b.cells,
	}
	for d := range dateSet {
		f.dates = append(f.dates, d)
	}
	for t := range tickerSet {
		f.tickers = append(f.tickers, t)
	}
	sort.Slice(f.dates, func(i, j int) bool { return f.dates[i].Before(f.dates[j]) })
	sort.Strings(f.tickers)
	return f
}

// Dates returns the ascending date axis. Callers must not mutate it.
func (f Frame) Dates() []time.Time { return f.dates }

// Tickers returns the sorted ticker axis. Callers must not mutate it.
func (f Frame) Tickers() []string { return f.tickers }

func (f Frame) IsEmpty() bool { return len(f.dates) == 0 || len(f.tickers) == 0 }

// Value returns the cell at (date, ticker) and whether it is present.
func (f Frame) Value(date time.Time, ticker string) (decimal.Decimal, bool) {
	v, ok := f.cells[cellKey{Day(date), ticker}]
	return v, ok
}

// Row returns the observations for one date keyed by ticker. Missing cells
// are omitted.
func (f Frame) Row(date time.Time) map[string]decimal.Decimal {
	row := make(map[string]decimal.Decimal, len(f.tickers))
	for _, ticker := range f.tickers {
		if v, ok := f.Value(date, ticker); ok {
			row[ticker] = v
		}
	}
	return row
}

func (f Frame) FirstDate() (time.Time, bool) {
	if len(f.dates) == 0 {
		return time.Time{}, false
	}
	return f.dates[0], true
}

func (f Frame) LastDate() (time.Time, bool) {
	if len(f.dates) == 0 {
		return time.Time{}, false
	}
	return f.dates[len(f.dates)-1], true
}

// SliceDates returns the sub-frame with dates in [start, end] inclusive.
// A zero start or end leaves that side unbounded.
func (f Frame) SliceDates(start, end time.Time) Frame {
	out := Frame{tickers: f.tickers, cells: make(map[cellKey]decimal.Decimal)}
	for _, d := range f.dates {
		if !start.IsZero() && d.Before(Day(start)) {
			continue
		}
		if !end.IsZero() && d.After(Day(end)) {
			continue
		}
		out.dates = append(out.dates, d)
		for _, ticker := range f.tickers {
			k := cellKey{d, ticker}
			if v, ok := f.cells[k]; ok {
				out.cells[k] = v
			}
		}
	}
	return out
}

// AlignInner inner-joins two frames on their common dates and tickers.
// This is the only alignment step in the system; everything downstream
// assumes a shared (date, ticker) domain.
func AlignInner(a, b Frame) (Frame, Frame) {
	dates := intersectDates(a.dates, b.dates)
	tickers := intersectStrings(a.tickers, b.tickers)

	outA := Frame{dates: dates, tickers: tickers, cells: make(map[cellKey]decimal.Decimal)}
	outB := Frame{dates: dates, tickers: tickers, cells: make(map[cellKey]decimal.Decimal)}
	for _, d := range dates {
		for _, ticker := range tickers {
			k := cellKey{d, ticker}
			if v, ok := a.cells[k]; ok {
				outA.cells[k] = v
			}
			if v, ok := b.cells[k]; ok {
				outB.cells[k] = v
			}
		}
	}
	return outA, outB
}

// Where keeps only the cells whose mask entry is true.
func (f Frame) Where(mask Mask) Frame {
	out := Frame{dates: f.dates, tickers: f.tickers, cells: make(map[cellKey]decimal.Decimal)}
	for k, v := range f.cells {
		if mask.At(k.date, k.ticker) {
			out.cells[k] = v
		}
	}
	return out
}

// Mask is a boolean matrix over the same (date, ticker) domain as a Frame.
// Absent keys are false.
type Mask struct {
	cells map[cellKey]bool
}

func NewMask() Mask {
	return Mask{cells: make(map[cellKey]bool)}
}

func (m Mask) Set(date time.Time, ticker string, v bool) {
	m.cells[cellKey{Day(date), ticker}] = v
}

func (m Mask) At(date time.Time, ticker string) bool {
	return m.cells[cellKey{Day(date), ticker}]
}

func intersectDates(a, b []time.Time) []time.Time {
	set := make(map[time.Time]struct{}, len(b))
	for _, d := range b {
		set[d] = struct{}{}
	}
	var out []time.Time
	for _, d := range a {
		if _, ok := set[d]; ok {
			out = append(out, d)
		}
	}
	return out
}

func intersectStrings(a, b []string) []string {
	set := make(map[string]struct{}, len(b))
	for _, s := range b {
		set[s] = struct{}{}
	}
	var out []string
	for _, s := range a {
		if _, ok := set[s]; ok {
			out = append(out, s)
		}
	}
	return out
}
