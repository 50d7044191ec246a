package engine

import (
	"fmt"
	"strings"
)

// Summary renders the metric block as text, one metric per line.
func (r *Result) Summary() string {
	m := r.Metrics
	var b strings.Builder

	line := strings.Repeat("=", 60)
	fmt.Fprintf(&b, "%s\n", line)
	fmt.Fprintf(&b, "Backtest Report: %s\n", r.StrategyName)
	fmt.Fprintf(&b, "%s\n\n", line)

	fmt.Fprintf(&b, "Period:              %s ~ %s\n", r.StartDate.Format("2006-01-02"), r.EndDate.Format("2006-01-02"))
	fmt.Fprintf(&b, "Initial Capital:     %s\n", r.InitialCapital.StringFixed(0))
	fmt.Fprintf(&b, "Final Value:         %.0f\n", m.FinalValue)
	if r.Benchmark != "" {
		fmt.Fprintf(&b, "Benchmark:           %s\n", r.Benchmark)
	}

	fmt.Fprintf(&b, "\n-- Performance --\n")
	fmt.Fprintf(&b, "Total Return:        %8.2f%%\n", m.TotalReturn*100)
	fmt.Fprintf(&b, "Annual Return:       %8.2f%%\n", m.AnnualReturn*100)
	fmt.Fprintf(&b, "Annual Volatility:   %8.2f%%\n", m.AnnualVolatility*100)
	fmt.Fprintf(&b, "Sharpe Ratio:        %8.2f\n", m.SharpeRatio)
	fmt.Fprintf(&b, "Sortino Ratio:       %8.2f\n", m.SortinoRatio)
	fmt.Fprintf(&b, "Calmar Ratio:        %8.2f\n", m.CalmarRatio)

	fmt.Fprintf(&b, "\n-- Risk --\n")
	fmt.Fprintf(&b, "Max Drawdown:        %8.2f%%\n", m.MaxDrawdown*100)
	fmt.Fprintf(&b, "Max Drawdown Days:   %8d\n", m.MaxDrawdownDays)
	fmt.Fprintf(&b, "Win Rate:            %8.2f%%\n", m.WinRate*100)
	fmt.Fprintf(&b, "Profit/Loss Ratio:   %8.2f\n", m.ProfitLossRatio)

	fmt.Fprintf(&b, "\n-- Trading --\n")
	fmt.Fprintf(&b, "Total Trades:        %8d\n", m.TotalTrades)
	fmt.Fprintf(&b, "Annual Turnover:     %8.2f%%\n", m.AnnualTurnover*100)
	fmt.Fprintf(&b, "Avg Positions:       %8.1f\n", m.AvgPositions)

	fmt.Fprintf(&b, "%s\n", line)
	return b.String()
}
