package engine

import (
	"sort"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"

	"quant/types"
)

// tradeEpsilon is the share-count dead band below which a rebalance delta
// is not worth trading.
var tradeEpsilon = decimal.NewFromFloat(0.01)

var lotSize = decimal.NewFromInt(1000)

// SimulationState is the complete portfolio state between two trading days:
// free cash plus share counts per ticker. The simulation loop owns the only
// mutable reference; the per-date step takes a state and returns the next.
type SimulationState struct {
	Cash     decimal.Decimal
	Holdings map[string]decimal.Decimal
}

func newSimulationState(initialCapital decimal.Decimal) SimulationState {
	return SimulationState{
		Cash:     initialCapital,
		Holdings: make(map[string]decimal.Decimal),
	}
}

func (s SimulationState) holding(ticker string) decimal.Decimal {
	if q, ok := s.Holdings[ticker]; ok {
		return q
	}
	return decimal.Zero
}

// marketValue is cash plus holdings marked at the given close prices.
// Tickers without a usable price contribute nothing.
func (s SimulationState) marketValue(price map[string]decimal.Decimal) decimal.Decimal {
	total := s.Cash
	for ticker, qty := range s.Holdings {
		p, ok := price[ticker]
		if !ok || !p.IsPositive() {
			continue
		}
		total = total.Add(qty.Mul(p))
	}
	return total
}

func (s SimulationState) snapshot(date time.Time) types.HoldingsSnapshot {
	snap := types.HoldingsSnapshot{Date: date, Shares: make(map[string]decimal.Decimal, len(s.Holdings))}
	for ticker, qty := range s.Holdings {
		if !qty.IsZero() {
			snap.Shares[ticker] = qty
		}
	}
	return snap
}

func (s SimulationState) clone() SimulationState {
	next := SimulationState{Cash: s.Cash, Holdings: make(map[string]decimal.Decimal, len(s.Holdings))}
	for ticker, qty := range s.Holdings {
		next.Holdings[ticker] = qty
	}
	return next
}

// Simulate replays the aligned weight and price matrices in strictly
// ascending date order. A weight row captured on rebalance date T is
// executed at date T+1's closing prices, so no trade ever sees its own
// decision date's price. Within one execution all sells run before any
// buy, letting sale proceeds fund purchases without margin.
//
// Inputs are assumed pre-aligned by the orchestrator; the simulator does
// not re-validate them.
func Simulate(
	weights, prices types.Frame,
	rebalance map[time.Time]struct{},
	cfg RunConfig,
) (types.ValueSeries, types.HoldingsTable, []types.Trade) {
	dates := weights.Dates()

	state := newSimulationState(cfg.InitialCapital)
	values := make(types.ValueSeries, 0, len(dates))
	positions := make(types.HoldingsTable, 0, len(dates))
	var trades []types.Trade
	var pending map[string]decimal.Decimal

	var bar *progressbar.ProgressBar
	if cfg.ShowProgress {
		bar = initProgressBar(len(dates))
	}

	for _, date := range dates {
		price := prices.Row(date)

		if pending != nil {
			var executed []types.Trade
			state, executed = executePending(state, pending, price, date, cfg)
			trades = append(trades, executed...)
			pending = nil
		}

		if _, ok := rebalance[date]; ok {
			pending = captureWeights(weights, date)
		}

		values = append(values, types.ValuePoint{Date: date, Value: state.marketValue(price)})
		positions = append(positions, state.snapshot(date))

		if bar != nil {
			bar.Add(1)
		}
	}
	return values, positions, trades
}

// captureWeights copies one weight row as the pending order; missing cells
// become zero targets so stale positions get sold off.
func captureWeights(weights types.Frame, date time.Time) map[string]decimal.Decimal {
	pending := make(map[string]decimal.Decimal, len(weights.Tickers()))
	for _, ticker := range weights.Tickers() {
		if w, ok := weights.Value(date, ticker); ok {
			pending[ticker] = w
		} else {
			pending[ticker] = decimal.Zero
		}
	}
	return pending
}

// executePending sizes and executes the captured target weights against the
// current date's close prices and returns the post-trade state.
func executePending(
	state SimulationState,
	target map[string]decimal.Decimal,
	price map[string]decimal.Decimal,
	date time.Time,
	cfg RunConfig,
) (SimulationState, []types.Trade) {
	next := state.clone()
	totalValue := next.marketValue(price)

	tickers := make([]string, 0, len(target))
	for ticker := range target {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	var sells, buys []string
	deltas := make(map[string]decimal.Decimal, len(tickers))
	for _, ticker := range tickers {
		delta := targetShares(target[ticker], totalValue, price[ticker], cfg.AllowFractional).Sub(next.holding(ticker))
		deltas[ticker] = delta
		switch {
		case delta.LessThan(tradeEpsilon.Neg()):
			sells = append(sells, ticker)
		case delta.GreaterThan(tradeEpsilon):
			buys = append(buys, ticker)
		}
	}

	var trades []types.Trade

	// Sells first: their proceeds are available to the buys below.
	for _, ticker := range sells {
		p, ok := price[ticker]
		if !ok || !p.IsPositive() {
			continue
		}
		sellShares := decimal.Min(deltas[ticker].Abs(), next.holding(ticker))
		if !sellShares.IsPositive() {
			continue
		}
		proceeds := sellShares.Mul(p).Mul(decimal.NewFromInt(1).Sub(cfg.SlippageRate))
		fee := proceeds.Mul(cfg.FeeRate)
		tax := proceeds.Mul(cfg.TaxRate)
		next.Cash = next.Cash.Add(proceeds).Sub(fee).Sub(tax)
		next.Holdings[ticker] = next.holding(ticker).Sub(sellShares)
		trades = append(trades, types.Trade{
			Date:   date,
			Ticker: ticker,
			Side:   types.SideTypeSell,
			Shares: sellShares.Neg(),
			Price:  p,
			Value:  proceeds,
			Cost:   fee.Add(tax),
		})
	}

	for _, ticker := range buys {
		p, ok := price[ticker]
		if !ok || !p.IsPositive() {
			continue
		}
		shares := deltas[ticker]
		cost := shares.Mul(p).Mul(decimal.NewFromInt(1).Add(cfg.SlippageRate))
		fee := cost.Mul(cfg.FeeRate)
		totalCost := cost.Add(fee)
		// No partial fills: a buy the cash cannot cover is skipped whole.
		if totalCost.GreaterThan(next.Cash) {
			continue
		}
		next.Cash = next.Cash.Sub(totalCost)
		next.Holdings[ticker] = next.holding(ticker).Add(shares)
		trades = append(trades, types.Trade{
			Date:   date,
			Ticker: ticker,
			Side:   types.SideTypeBuy,
			Shares: shares,
			Price:  p,
			Value:  cost,
			Cost:   fee,
		})
	}

	return next, trades
}

// targetShares converts a weight into a whole share count, or whole
// 1000-share lots when fractional trading is off. A missing or non-positive
// price yields a zero target.
func targetShares(weight, totalValue, price decimal.Decimal, allowFractional bool) decimal.Decimal {
	if !price.IsPositive() {
		return decimal.Zero
	}
	shares := weight.Mul(totalValue).Div(price)
	if allowFractional {
		return shares.Floor()
	}
	return shares.Div(lotSize).Floor().Mul(lotSize)
}

func initProgressBar(maxTicks int) *progressbar.ProgressBar {
	return progressbar.NewOptions(maxTicks,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetDescription("Backtesting in progress..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
