package engine

import (
	"math"

	"github.com/shopspring/decimal"

	"quant/types"
)

const (
	tradingDaysPerYear = 252.0
	riskFreeRate       = 0.02
)

// ComputeMetrics derives the full metric set from one completed run.
// Ratio math happens in float64; decimal only carries exact money values
// up to this boundary. Degenerate input (empty series, non-positive
// capital) yields the neutral all-zero record rather than an error.
func ComputeMetrics(
	values types.ValueSeries,
	returns types.ReturnSeries,
	initialCapital decimal.Decimal,
	weights types.Frame,
	trades []types.Trade,
) types.Metrics {
	if len(values) == 0 || !initialCapital.IsPositive() {
		return types.Metrics{}
	}

	finalValue := values[len(values)-1].Value.InexactFloat64()
	totalReturn := finalValue/initialCapital.InexactFloat64() - 1

	nDays := len(values)
	nYears := float64(nDays) / tradingDaysPerYear
	annualReturn := 0.0
	if nYears > 0 {
		annualReturn = math.Pow(1+totalReturn, 1/nYears) - 1
	}

	rets := make([]float64, len(returns))
	for i, r := range returns {
		rets[i] = r.Return
	}
	annualVolatility := stdev(rets) * math.Sqrt(tradingDaysPerYear)

	excessReturn := annualReturn - riskFreeRate
	sharpe := 0.0
	if annualVolatility > 0 {
		sharpe = excessReturn / annualVolatility
	}

	var downside []float64
	for _, r := range rets {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	downsideStd := 0.0
	if len(downside) > 0 {
		downsideStd = stdev(downside) * math.Sqrt(tradingDaysPerYear)
	}
	sortino := 0.0
	if downsideStd > 0 {
		sortino = excessReturn / downsideStd
	}

	maxDrawdown, maxDrawdownDays := drawdownStats(values)

	calmar := 0.0
	if maxDrawdown < 0 {
		calmar = annualReturn / math.Abs(maxDrawdown)
	}

	totalDays := len(rets)
	winningDays := 0
	sumWins, sumLosses := 0.0, 0.0
	losingDays := 0
	for _, r := range rets {
		if r > 0 {
			winningDays++
			sumWins += r
		} else if r < 0 {
			losingDays++
			sumLosses += -r
		}
	}
	winRate := 0.0
	if totalDays > 0 {
		winRate = float64(winningDays) / float64(totalDays)
	}

	avgWin := 0.0
	if winningDays > 0 {
		avgWin = sumWins / float64(winningDays)
	}
	// When there are no losing days the denominator is substituted with 1,
	// so an all-win run yields a finite ratio equal to the average win.
	avgLoss := 1.0
	if losingDays > 0 {
		avgLoss = sumLosses / float64(losingDays)
	}
	profitLossRatio := 0.0
	if avgLoss > 0 {
		profitLossRatio = avgWin / avgLoss
	}

	annualTurnover := 0.0
	if nYears > 0 {
		annualTurnover = totalWeightChange(weights) / nYears
	}

	return types.Metrics{
		FinalValue:       finalValue,
		TotalReturn:      totalReturn,
		AnnualReturn:     annualReturn,
		AnnualVolatility: annualVolatility,
		SharpeRatio:      sharpe,
		SortinoRatio:     sortino,
		CalmarRatio:      calmar,
		MaxDrawdown:      maxDrawdown,
		MaxDrawdownDays:  maxDrawdownDays,
		WinRate:          winRate,
		ProfitLossRatio:  profitLossRatio,
		TotalTrades:      len(trades),
		AnnualTurnover:   annualTurnover,
		AvgPositions:     avgPositions(weights),
	}
}

// drawdownStats returns the deepest peak-to-trough drawdown and the longest
// run of consecutive days spent below the running peak.
func drawdownStats(values types.ValueSeries) (float64, int) {
	maxDrawdown := 0.0
	maxDays, curDays := 0, 0

	runningMax := values[0].Value
	for _, pt := range values {
		if pt.Value.GreaterThan(runningMax) {
			runningMax = pt.Value
		}
		if runningMax.IsPositive() {
			dd := pt.Value.InexactFloat64()/runningMax.InexactFloat64() - 1
			if dd < maxDrawdown {
				maxDrawdown = dd
			}
		}
		if pt.Value.LessThan(runningMax) {
			curDays++
			if curDays > maxDays {
				maxDays = curDays
			}
		} else {
			curDays = 0
		}
	}
	return maxDrawdown, maxDays
}

// totalWeightChange sums |Δweight| across all tickers and consecutive date
// pairs, the turnover numerator. Missing cells count as zero weight.
func totalWeightChange(weights types.Frame) float64 {
	dates := weights.Dates()
	total := decimal.Zero
	for i := 1; i < len(dates); i++ {
		for _, ticker := range weights.Tickers() {
			prev, _ := weights.Value(dates[i-1], ticker)
			cur, _ := weights.Value(dates[i], ticker)
			total = total.Add(cur.Sub(prev).Abs())
		}
	}
	return total.InexactFloat64()
}

// avgPositions is the mean daily count of strictly positive target weights.
func avgPositions(weights types.Frame) float64 {
	dates := weights.Dates()
	if len(dates) == 0 {
		return 0
	}
	count := 0
	for _, d := range dates {
		for _, ticker := range weights.Tickers() {
			if w, ok := weights.Value(d, ticker); ok && w.IsPositive() {
				count++
			}
		}
	}
	return float64(count) / float64(len(dates))
}

// stdev is the sample standard deviation; fewer than two observations
// yield zero.
func stdev(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(n)

	sumSq := 0.0
	for _, x := range xs {
		d := x - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(n-1))
}
