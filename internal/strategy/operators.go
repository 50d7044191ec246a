package strategy

import (
	"math"

	"github.com/shopspring/decimal"

	"quant/types"
)

// Factor operators over field frames. Rolling operators require a full
// window of observations; cells without one stay missing, which keeps them
// out of ranking and weighting downstream.

// PctChange returns the n-day percentage change per ticker.
func PctChange(f types.Frame, n int) types.Frame {
	dates := f.Dates()
	b := types.NewFrameBuilder()
	for _, ticker := range f.Tickers() {
		for i := n; i < len(dates); i++ {
			cur, okCur := f.Value(dates[i], ticker)
			prev, okPrev := f.Value(dates[i-n], ticker)
			if !okCur || !okPrev || prev.IsZero() {
				continue
			}
			b.Set(dates[i], ticker, cur.Sub(prev).Div(prev))
		}
	}
	return b.Build()
}

// TSMean returns the n-day rolling mean per ticker.
func TSMean(f types.Frame, n int) types.Frame {
	dates := f.Dates()
	b := types.NewFrameBuilder()
	window := decimal.NewFromInt(int64(n))
	for _, ticker := range f.Tickers() {
		for i := n - 1; i < len(dates); i++ {
			sum := decimal.Zero
			complete := true
			for j := i - n + 1; j <= i; j++ {
				v, ok := f.Value(dates[j], ticker)
				if !ok {
					complete = false
					break
				}
				sum = sum.Add(v)
			}
			if complete {
				b.Set(dates[i], ticker, sum.Div(window))
			}
		}
	}
	return b.Build()
}

// Mul multiplies two frames cell by cell; a cell missing on either side
// stays missing.
func Mul(a, b types.Frame) types.Frame {
	out := types.NewFrameBuilder()
	for _, d := range a.Dates() {
		for _, ticker := range a.Tickers() {
			av, okA := a.Value(d, ticker)
			bv, okB := b.Value(d, ticker)
			if okA && okB {
				out.Set(d, ticker, av.Mul(bv))
			}
		}
	}
	return out.Build()
}

// ZScore standardizes each date's cross section to zero mean and unit
// standard deviation. Dates whose cross section has no dispersion are
// left missing.
func ZScore(f types.Frame) types.Frame {
	b := types.NewFrameBuilder()
	for _, d := range f.Dates() {
		row := f.Row(d)
		if len(row) < 2 {
			continue
		}
		mean, std := rowStats(row)
		if std == 0 {
			continue
		}
		for ticker, v := range row {
			z := (v.InexactFloat64() - mean) / std
			b.Set(d, ticker, decimal.NewFromFloat(z))
		}
	}
	return b.Build()
}

// GreaterThan returns the mask of cells strictly above the threshold.
func GreaterThan(f types.Frame, threshold decimal.Decimal) types.Mask {
	mask := types.NewMask()
	for _, d := range f.Dates() {
		for _, ticker := range f.Tickers() {
			if v, ok := f.Value(d, ticker); ok && v.GreaterThan(threshold) {
				mask.Set(d, ticker, true)
			}
		}
	}
	return mask
}

func rowStats(row map[string]decimal.Decimal) (mean, std float64) {
	n := float64(len(row))
	for _, v := range row {
		mean += v.InexactFloat64()
	}
	mean /= n

	sumSq := 0.0
	for _, v := range row {
		d := v.InexactFloat64() - mean
		sumSq += d * d
	}
	std = math.Sqrt(sumSq / (n - 1))
	return mean, std
}
