package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quant/types"
)

// buildFrame constructs a frame from per-ticker date-ordered values; a NaN
// sentinel of -1 marks a missing observation.
func buildFrame(dates []time.Time, cols map[string][]float64) types.Frame {
	b := types.NewFrameBuilder()
	for ticker, vals := range cols {
		for i, v := range vals {
			if v < 0 {
				continue
			}
			b.Set(dates[i], ticker, decimal.NewFromFloat(v))
		}
	}
	return b.Build()
}

func frictionless(capital int64) RunConfig {
	return RunConfig{
		InitialCapital:  decimal.NewFromInt(capital),
		FeeRate:         decimal.Zero,
		TaxRate:         decimal.Zero,
		SlippageRate:    decimal.Zero,
		AllowFractional: true,
	}
}

func dates3() []time.Time {
	return []time.Time{d(2024, 1, 1), d(2024, 1, 2), d(2024, 1, 3)}
}

func rebalanceOn(days ...time.Time) map[time.Time]struct{} {
	set := make(map[time.Time]struct{}, len(days))
	for _, day := range days {
		set[day] = struct{}{}
	}
	return set
}

func TestSimulate_SignalExecutesNextDay(t *testing.T) {
	ds := dates3()
	prices := buildFrame(ds, map[string][]float64{
		"A": {100, 100, 100},
		"B": {50, 50, 50},
	})
	weights := buildFrame(ds, map[string][]float64{
		"A": {1.0, 0, 0},
	})

	values, positions, trades := Simulate(weights, prices, rebalanceOn(ds[0]), frictionless(1_000_000))

	require.Len(t, values, 3)
	require.Len(t, positions, 3)

	// Day 1: signal captured, nothing executed yet.
	assert.Empty(t, positions[0].Shares)
	assert.True(t, values[0].Value.Equal(decimal.NewFromInt(1_000_000)))

	// Day 2: floor(1.0 * 1_000_000 / 100) = 10_000 shares of A.
	require.Len(t, trades, 1)
	assert.Equal(t, types.SideTypeBuy, trades[0].Side)
	assert.Equal(t, "A", trades[0].Ticker)
	assert.Equal(t, ds[1], trades[0].Date)
	assert.True(t, trades[0].Shares.Equal(decimal.NewFromInt(10_000)))
	assert.True(t, positions[1].Shares["A"].Equal(decimal.NewFromInt(10_000)))

	// Day 3: value = cash + 10_000 * price, fully invested with no cash left.
	assert.True(t, values[2].Value.Equal(decimal.NewFromInt(1_000_000)))
}

func TestSimulate_NoLookahead_SizesAtExecutionPrice(t *testing.T) {
	ds := dates3()
	prices := buildFrame(ds, map[string][]float64{
		"A": {100, 200, 200},
	})
	weights := buildFrame(ds, map[string][]float64{
		"A": {1.0, 0, 0},
	})

	_, positions, trades := Simulate(weights, prices, rebalanceOn(ds[0]), frictionless(1_000_000))

	// Sized against day 2's price of 200, never day 1's 100.
	require.Len(t, trades, 1)
	assert.True(t, trades[0].Shares.Equal(decimal.NewFromInt(5_000)),
		"got %s shares", trades[0].Shares)
	assert.True(t, positions[1].Shares["A"].Equal(decimal.NewFromInt(5_000)))
}

func TestSimulate_SellsBeforeBuys(t *testing.T) {
	ds := dates3()
	prices := buildFrame(ds, map[string][]float64{
		"A": {100, 100, 100},
		"B": {50, 50, 50},
	})
	weights := buildFrame(ds, map[string][]float64{
		"A": {1.0, 0.0, 0.0},
		"B": {0.0, 1.0, 0.0},
	})

	_, positions, trades := Simulate(weights, prices, rebalanceOn(ds[0], ds[1]), frictionless(1_000_000))

	require.Len(t, trades, 3)
	assert.Equal(t, types.SideTypeBuy, trades[0].Side) // A on day 2

	// Day 3: the A sell must precede the B buy so its proceeds fund it.
	assert.Equal(t, types.SideTypeSell, trades[1].Side)
	assert.Equal(t, "A", trades[1].Ticker)
	assert.Equal(t, types.SideTypeBuy, trades[2].Side)
	assert.Equal(t, "B", trades[2].Ticker)
	assert.Equal(t, trades[1].Date, trades[2].Date)

	assert.Empty(t, positions[2].Shares["A"])
	assert.True(t, positions[2].Shares["B"].Equal(decimal.NewFromInt(20_000)))
}

func TestSimulate_UnaffordableBuySkippedWhole(t *testing.T) {
	ds := dates3()
	prices := buildFrame(ds, map[string][]float64{
		"A": {100, 100, 100},
		"B": {40_001, 40_001, 40_001},
	})
	// A's buy costs 60_000 of the 100_000 capital; B's single share then
	// costs 40_001, one unit more than the remaining cash.
	weights := buildFrame(ds, map[string][]float64{
		"A": {0.6, 0, 0},
		"B": {0.5, 0, 0},
	})

	_, positions, trades := Simulate(weights, prices, rebalanceOn(ds[0]), frictionless(100_000))

	require.Len(t, trades, 1)
	assert.Equal(t, "A", trades[0].Ticker)
	assert.True(t, positions[1].Shares["A"].Equal(decimal.NewFromInt(600)))
	assert.Empty(t, positions[1].Shares["B"], "unaffordable buy must be skipped whole")
}

func TestSimulate_ValueConservation(t *testing.T) {
	ds := []time.Time{
		d(2024, 1, 1), d(2024, 1, 2), d(2024, 1, 3), d(2024, 1, 4), d(2024, 1, 5),
	}
	prices := buildFrame(ds, map[string][]float64{
		"A": {100, 110, 95, 120, 130},
		"B": {50, 55, 60, 40, 45},
	})
	weights := buildFrame(ds, map[string][]float64{
		"A": {0.5, 0.5, 0.2, 0.2, 0.2},
		"B": {0.3, 0.3, 0.7, 0.7, 0.7},
	})
	cfg := DefaultRunConfig()
	cfg.InitialCapital = decimal.NewFromInt(1_000_000)

	values, positions, _ := Simulate(weights, prices, rebalanceOn(ds...), cfg)

	require.Len(t, values, len(ds))
	for i, day := range ds {
		// Reconstruct cash from the reported value and holdings, then check
		// value == cash + sum(holdings * price) by construction of holdings.
		holdingsValue := decimal.Zero
		for ticker, qty := range positions[i].Shares {
			p, ok := prices.Value(day, ticker)
			require.True(t, ok)
			holdingsValue = holdingsValue.Add(qty.Mul(p))
			assert.False(t, qty.IsNegative(), "holdings must never go negative")
		}
		cash := values[i].Value.Sub(holdingsValue)
		assert.False(t, cash.IsNegative(), "cash must never go negative on %s", day)
	}
}

func TestSimulate_Deterministic(t *testing.T) {
	ds := dates3()
	prices := buildFrame(ds, map[string][]float64{
		"A": {100, 101, 99},
		"B": {50, 52, 51},
	})
	weights := buildFrame(ds, map[string][]float64{
		"A": {0.5, 0.5, 0.5},
		"B": {0.5, 0.5, 0.5},
	})
	cfg := DefaultRunConfig()

	v1, p1, t1 := Simulate(weights, prices, rebalanceOn(ds...), cfg)
	v2, p2, t2 := Simulate(weights, prices, rebalanceOn(ds...), cfg)

	require.Equal(t, len(t1), len(t2))
	for i := range t1 {
		assert.Equal(t, t1[i].Ticker, t2[i].Ticker)
		assert.Equal(t, t1[i].Side, t2[i].Side)
		assert.True(t, t1[i].Shares.Equal(t2[i].Shares))
	}
	require.Equal(t, len(v1), len(v2))
	for i := range v1 {
		assert.True(t, v1[i].Value.Equal(v2[i].Value))
	}
	assert.Equal(t, len(p1), len(p2))
}

func TestSimulate_LotRoundingWhenFractionalDisabled(t *testing.T) {
	ds := dates3()
	prices := buildFrame(ds, map[string][]float64{
		"A": {100, 100, 100},
	})
	weights := buildFrame(ds, map[string][]float64{
		"A": {0.55, 0, 0},
	})
	cfg := frictionless(1_000_000)
	cfg.AllowFractional = false

	_, positions, trades := Simulate(weights, prices, rebalanceOn(ds[0]), cfg)

	// floor(0.55 * 1_000_000 / 100) = 5_500 → down to the 5_000-share lot.
	require.Len(t, trades, 1)
	assert.True(t, trades[0].Shares.Equal(decimal.NewFromInt(5_000)))
	assert.True(t, positions[1].Shares["A"].Equal(decimal.NewFromInt(5_000)))
}

func TestSimulate_MissingPriceSkipsTradeAndValuation(t *testing.T) {
	ds := dates3()
	prices := buildFrame(ds, map[string][]float64{
		"A": {100, -1, 100}, // missing on execution day
		"B": {50, 50, 50},
	})
	weights := buildFrame(ds, map[string][]float64{
		"A": {0.5, 0, 0},
		"B": {0.5, 0, 0},
	})

	values, positions, trades := Simulate(weights, prices, rebalanceOn(ds[0]), frictionless(1_000_000))

	// Only B trades; A's missing price skips its order without error.
	require.Len(t, trades, 1)
	assert.Equal(t, "B", trades[0].Ticker)
	assert.Empty(t, positions[1].Shares["A"])

	// B: floor(0.5 * 1_000_000 / 50) = 10_000 shares for 500_000.
	assert.True(t, positions[1].Shares["B"].Equal(decimal.NewFromInt(10_000)))
	assert.True(t, values[1].Value.Equal(decimal.NewFromInt(1_000_000)))
}

func TestSimulate_SellAppliesSlippageFeeAndTax(t *testing.T) {
	ds := []time.Time{d(2024, 1, 1), d(2024, 1, 2), d(2024, 1, 3), d(2024, 1, 4)}
	prices := buildFrame(ds, map[string][]float64{
		"A": {100, 100, 100, 100},
	})
	weights := buildFrame(ds, map[string][]float64{
		"A": {0.9, 0.9, 0.0, 0.0},
	})
	cfg := frictionless(1_000_000)
	cfg.SlippageRate = decimal.NewFromFloat(0.001)
	cfg.FeeRate = decimal.NewFromFloat(0.001425)
	cfg.TaxRate = decimal.NewFromFloat(0.003)

	_, _, trades := Simulate(weights, prices, rebalanceOn(ds[1], ds[2]), cfg)

	require.NotEmpty(t, trades)
	var sell *types.Trade
	for i := range trades {
		if trades[i].Side == types.SideTypeSell {
			sell = &trades[i]
		}
	}
	require.NotNil(t, sell)

	shares := sell.Shares.Neg()
	proceeds := shares.Mul(decimal.NewFromInt(100)).Mul(decimal.NewFromFloat(0.999))
	fee := proceeds.Mul(cfg.FeeRate)
	tax := proceeds.Mul(cfg.TaxRate)
	assert.True(t, sell.Value.Equal(proceeds), "gross value %s, want %s", sell.Value, proceeds)
	assert.True(t, sell.Cost.Equal(fee.Add(tax)), "cost %s, want %s", sell.Cost, fee.Add(tax))
}

func TestSimulate_BuyWithFullWeightAndSlippageIsSkipped(t *testing.T) {
	// With weight 1.0 the slippage-inflated cost exceeds total value, so
	// the whole buy is unaffordable and the portfolio stays in cash.
	ds := dates3()
	prices := buildFrame(ds, map[string][]float64{
		"A": {100_000, 100_000, 100_000},
	})
	weights := buildFrame(ds, map[string][]float64{
		"A": {1.0, 0, 0},
	})
	cfg := frictionless(1_000_000)
	cfg.SlippageRate = decimal.NewFromFloat(0.05)

	values, positions, trades := Simulate(weights, prices, rebalanceOn(ds[0]), cfg)

	assert.Empty(t, trades)
	assert.Empty(t, positions[1].Shares)
	assert.True(t, values[2].Value.Equal(decimal.NewFromInt(1_000_000)))
}
