package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"quant/types"
)

// RunConfig holds everything one backtest run needs besides data. Zero
// Start/End mean "use the price data's own bounds".
type RunConfig struct {
	Start          time.Time
	End            time.Time
	InitialCapital decimal.Decimal
	Frequency      types.Frequency

	// Friction applied on execution. FeeRate is charged on both sides,
	// TaxRate on sells only, SlippageRate worsens the fill price.
	FeeRate      decimal.Decimal
	TaxRate      decimal.Decimal
	SlippageRate decimal.Decimal

	// AllowFractional trades single shares; otherwise orders are rounded
	// down to 1000-share lots.
	AllowFractional bool

	Benchmark    string
	ShowProgress bool
}

// DefaultRunConfig mirrors the platform's standing cost assumptions for the
// Taiwanese market: 0.1425% fee, 0.3% sell tax, 0.1% slippage.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		InitialCapital:  decimal.NewFromInt(1_000_000),
		Frequency:       types.Weekly,
		FeeRate:         decimal.NewFromFloat(0.001425),
		TaxRate:         decimal.NewFromFloat(0.003),
		SlippageRate:    decimal.NewFromFloat(0.001),
		AllowFractional: true,
	}
}
