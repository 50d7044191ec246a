package repository

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameFromRows(t *testing.T) {
	day1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	entries := []fieldRow{
		{Date: day2, Ticker: "B", Value: decimal.NewFromInt(4)},
		{Date: day1, Ticker: "A", Value: decimal.NewFromInt(1)},
		{Date: day2, Ticker: "A", Value: decimal.NewFromInt(2)},
	}

	f := frameFromRows(entries)

	require.Equal(t, []time.Time{day1, day2}, f.Dates())
	require.Equal(t, []string{"A", "B"}, f.Tickers())

	v, ok := f.Value(day2, "A")
	require.True(t, ok)
	assert.True(t, v.Equal(decimal.NewFromInt(2)))

	_, ok = f.Value(day1, "B")
	assert.False(t, ok, "unobserved cell stays missing")
}
