package types

// Metrics is the fixed set of performance and risk numbers derived from one
// completed simulation. All ratios are annualized on 252 trading days.
type Metrics struct {
	FinalValue       float64
	TotalReturn      float64
	AnnualReturn     float64
	AnnualVolatility float64
	SharpeRatio      float64
	SortinoRatio     float64
	CalmarRatio      float64
	MaxDrawdown      float64
	MaxDrawdownDays  int
	WinRate          float64
	ProfitLossRatio  float64
	TotalTrades      int
	AnnualTurnover   float64
	AvgPositions     float64
}
