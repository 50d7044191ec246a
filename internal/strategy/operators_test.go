package strategy

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quant/types"
)

func d(day int) time.Time {
	return time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC)
}

func frame(cols map[string][]float64, days ...int) types.Frame {
	b := types.NewFrameBuilder()
	for ticker, vals := range cols {
		for i, v := range vals {
			if v < 0 {
				continue
			}
			b.Set(d(days[i]), ticker, decimal.NewFromFloat(v))
		}
	}
	return b.Build()
}

func TestPctChange(t *testing.T) {
	f := frame(map[string][]float64{
		"A": {100, 110, 121},
	}, 1, 2, 3)

	out := PctChange(f, 1)

	_, ok := out.Value(d(1), "A")
	assert.False(t, ok, "first date has no lookback")

	v, ok := out.Value(d(2), "A")
	require.True(t, ok)
	assert.True(t, v.Equal(decimal.NewFromFloat(0.1)), "got %s", v)

	v, ok = out.Value(d(3), "A")
	require.True(t, ok)
	assert.True(t, v.Equal(decimal.NewFromFloat(0.1)), "got %s", v)
}

func TestPctChange_MissingObservation(t *testing.T) {
	f := frame(map[string][]float64{
		"A": {100, -1, 121},
	}, 1, 2, 3)

	out := PctChange(f, 1)

	_, ok := out.Value(d(2), "A")
	assert.False(t, ok)
	_, ok = out.Value(d(3), "A")
	assert.False(t, ok, "change against a missing base stays missing")
}

func TestTSMean(t *testing.T) {
	f := frame(map[string][]float64{
		"A": {10, 20, 30},
	}, 1, 2, 3)

	out := TSMean(f, 2)

	_, ok := out.Value(d(1), "A")
	assert.False(t, ok, "incomplete window stays missing")

	v, ok := out.Value(d(2), "A")
	require.True(t, ok)
	assert.True(t, v.Equal(decimal.NewFromInt(15)))

	v, ok = out.Value(d(3), "A")
	require.True(t, ok)
	assert.True(t, v.Equal(decimal.NewFromInt(25)))
}

func TestZScore(t *testing.T) {
	f := frame(map[string][]float64{
		"A": {10},
		"B": {20},
		"C": {30},
	}, 1)

	out := ZScore(f)

	lo, ok := out.Value(d(1), "A")
	require.True(t, ok)
	hi, ok := out.Value(d(1), "C")
	require.True(t, ok)
	mid, ok := out.Value(d(1), "B")
	require.True(t, ok)

	assert.True(t, mid.IsZero(), "the mean scores zero")
	assert.True(t, lo.Equal(hi.Neg()), "symmetric cross section")
	assert.InDelta(t, 1.0, hi.InexactFloat64(), 1e-9)
}

func TestZScore_NoDispersion(t *testing.T) {
	f := frame(map[string][]float64{
		"A": {10},
		"B": {10},
	}, 1)

	out := ZScore(f)
	assert.True(t, out.IsEmpty())
}

func TestGreaterThan(t *testing.T) {
	f := frame(map[string][]float64{
		"A": {5},
		"B": {15},
	}, 1)

	mask := GreaterThan(f, decimal.NewFromInt(10))

	assert.False(t, mask.At(d(1), "A"))
	assert.True(t, mask.At(d(1), "B"))
}

func TestMul(t *testing.T) {
	a := frame(map[string][]float64{"A": {2, -1}}, 1, 2)
	b := frame(map[string][]float64{"A": {3, 4}}, 1, 2)

	out := Mul(a, b)

	v, ok := out.Value(d(1), "A")
	require.True(t, ok)
	assert.True(t, v.Equal(decimal.NewFromInt(6)))
	_, ok = out.Value(d(2), "A")
	assert.False(t, ok, "missing on either side stays missing")
}
