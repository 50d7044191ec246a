package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"quant/types"
)

var ErrNoPriceData = errors.New("no close prices in datasource")

// Result is the immutable aggregate of one backtest run. It is assembled
// once by Engine.Run and read-only thereafter.
type Result struct {
	StrategyName   string
	StartDate      time.Time
	EndDate        time.Time
	InitialCapital decimal.Decimal
	Benchmark      string

	PortfolioValue types.ValueSeries
	DailyReturns   types.ReturnSeries
	Positions      types.HoldingsTable
	Weights        types.Frame
	Trades         []types.Trade
	Metrics        types.Metrics
}

// Engine wires a field source, a strategy and an allocator into runnable
// backtests. One Engine can serve many runs; each run is independent.
type Engine struct {
	fields    FieldSource
	strategy  Strategy
	allocator Allocator
	log       zerolog.Logger
}

func New(fields FieldSource, strat Strategy, alloc Allocator, log zerolog.Logger) *Engine {
	return &Engine{
		fields:    fields,
		strategy:  strat,
		allocator: alloc,
		log:       log,
	}
}

// Run executes one backtest: resolve the date range against the available
// price data, obtain target weights from the strategy, inner-join weights
// with prices, replay day by day and derive metrics. Strategy and data
// source failures propagate to the caller untouched.
func (e *Engine) Run(ctx context.Context, cfg RunConfig) (*Result, error) {
	closePrices, err := e.fields.Field(ctx, "close")
	if err != nil {
		return nil, fmt.Errorf("load close prices: %w", err)
	}
	if closePrices.IsEmpty() {
		return nil, ErrNoPriceData
	}

	start, end := resolveDateRange(closePrices, cfg.Start, cfg.End)
	e.log.Info().
		Str("strategy", e.strategy.Name()).
		Time("start", start).
		Time("end", end).
		Str("freq", string(cfg.Frequency)).
		Msg("backtest started")

	score, err := e.strategy.Score(ctx, e.fields)
	if err != nil {
		return nil, fmt.Errorf("strategy score: %w", err)
	}
	universe, err := e.strategy.Universe(ctx, e.fields)
	if err != nil {
		return nil, fmt.Errorf("strategy universe: %w", err)
	}
	weights := e.allocator.Weights(score.Where(universe))

	prices := closePrices.SliceDates(start, end)
	weights = weights.SliceDates(start, end)

	// The single alignment step: everything below assumes a shared
	// (date, ticker) domain. Disjoint tickers or dates silently narrow
	// the simulated universe.
	prices, weights = types.AlignInner(prices, weights)

	rebalance := RebalanceDates(weights.Dates(), cfg.Frequency)
	if first, ok := weights.FirstDate(); ok {
		// The first date always rebalances so the portfolio is invested
		// from the second session onwards.
		rebalance[first] = struct{}{}
	}
	e.log.Debug().
		Int("dates", len(weights.Dates())).
		Int("tickers", len(weights.Tickers())).
		Int("rebalances", len(rebalance)).
		Msg("aligned matrices")

	values, positions, trades := Simulate(weights, prices, rebalance, cfg)
	returns := pctChange(values)
	metrics := ComputeMetrics(values, returns, cfg.InitialCapital, weights, trades)

	e.log.Info().
		Int("trades", len(trades)).
		Float64("total_return", metrics.TotalReturn).
		Float64("max_drawdown", metrics.MaxDrawdown).
		Msg("backtest finished")

	return &Result{
		StrategyName:   e.strategy.Name(),
		StartDate:      start,
		EndDate:        end,
		InitialCapital: cfg.InitialCapital,
		Benchmark:      cfg.Benchmark,
		PortfolioValue: values,
		DailyReturns:   returns,
		Positions:      positions,
		Weights:        weights,
		Trades:         trades,
		Metrics:        metrics,
	}, nil
}

// resolveDateRange defaults missing bounds to the price data's own range
// and clamps caller-supplied bounds into it. An inverted range after
// clamping falls back to the full data range.
func resolveDateRange(prices types.Frame, start, end time.Time) (time.Time, time.Time) {
	dataStart, _ := prices.FirstDate()
	dataEnd, _ := prices.LastDate()

	if start.IsZero() || types.Day(start).Before(dataStart) {
		start = dataStart
	} else {
		start = types.Day(start)
	}
	if end.IsZero() || types.Day(end).After(dataEnd) {
		end = dataEnd
	} else {
		end = types.Day(end)
	}
	if start.After(end) {
		return dataStart, dataEnd
	}
	return start, end
}

// pctChange converts the value series into day-over-day returns; the first
// date has no predecessor and is dropped.
func pctChange(values types.ValueSeries) types.ReturnSeries {
	if len(values) < 2 {
		return nil
	}
	returns := make(types.ReturnSeries, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		prev := values[i-1].Value.InexactFloat64()
		cur := values[i].Value.InexactFloat64()
		r := 0.0
		if prev != 0 {
			r = cur/prev - 1
		}
		returns = append(returns, types.ReturnPoint{Date: values[i].Date, Return: r})
	}
	return returns
}
