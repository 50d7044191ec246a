package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// ValuePoint is the portfolio value at the close of one trading day.
type ValuePoint struct {
	Date  time.Time
	Value decimal.Decimal
}

type ValueSeries []ValuePoint

// ReturnPoint is one day-over-day percentage change of the value series.
type ReturnPoint struct {
	Date   time.Time
	Return float64
}

type ReturnSeries []ReturnPoint

// HoldingsSnapshot is the share count per ticker at the close of one day.
// Tickers with zero shares are omitted.
type HoldingsSnapshot struct {
	Date   time.Time
	Shares map[string]decimal.Decimal
}

type HoldingsTable []HoldingsSnapshot
