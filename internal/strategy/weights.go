package strategy

import (
	"sort"

	"github.com/shopspring/decimal"

	"quant/types"
)

// TopNAllocator builds target weights from a score matrix: per date it
// keeps the TopN highest-scored tickers, spreads capital equally or in
// proportion to min-max scaled scores, then clamps single-name exposure
// to MaxWeight and renormalizes.
type TopNAllocator struct {
	TopN        int
	MaxWeight   decimal.Decimal
	EqualWeight bool
}

// NewTopNAllocator returns the platform's standing allocation: 10 names,
// 15% single-name cap, equal weight.
func NewTopNAllocator() *TopNAllocator {
	return &TopNAllocator{
		TopN:        10,
		MaxWeight:   decimal.NewFromFloat(0.15),
		EqualWeight: true,
	}
}

func (a *TopNAllocator) Weights(score types.Frame) types.Frame {
	b := types.NewFrameBuilder()
	for _, date := range score.Dates() {
		row := score.Row(date)
		if len(row) == 0 {
			continue
		}
		for ticker, w := range a.weightRow(row) {
			b.Set(date, ticker, w)
		}
	}
	return b.Build()
}

func (a *TopNAllocator) weightRow(row map[string]decimal.Decimal) map[string]decimal.Decimal {
	type scored struct {
		ticker string
		score  decimal.Decimal
	}
	ranked := make([]scored, 0, len(row))
	for ticker, s := range row {
		ranked = append(ranked, scored{ticker, s})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if !ranked[i].score.Equal(ranked[j].score) {
			return ranked[i].score.GreaterThan(ranked[j].score)
		}
		return ranked[i].ticker < ranked[j].ticker
	})
	if a.TopN > 0 && len(ranked) > a.TopN {
		ranked = ranked[:a.TopN]
	}

	weights := make(map[string]decimal.Decimal, len(ranked))
	if a.EqualWeight {
		for _, s := range ranked {
			weights[s.ticker] = decimal.NewFromInt(1)
		}
	} else {
		lo, hi := ranked[len(ranked)-1].score, ranked[0].score
		span := hi.Sub(lo)
		if span.IsZero() {
			span = decimal.NewFromInt(1)
		}
		for _, s := range ranked {
			weights[s.ticker] = s.score.Sub(lo).Div(span)
		}
	}

	normalize(weights)
	if a.MaxWeight.IsPositive() {
		for ticker, w := range weights {
			if w.GreaterThan(a.MaxWeight) {
				weights[ticker] = a.MaxWeight
			}
		}
		normalize(weights)
	}
	return weights
}

// normalize scales weights to sum to 1; an all-zero row is left as is.
func normalize(weights map[string]decimal.Decimal) {
	sum := decimal.Zero
	for _, w := range weights {
		sum = sum.Add(w)
	}
	if sum.IsZero() {
		return
	}
	for ticker, w := range weights {
		weights[ticker] = w.Div(sum)
	}
}
