package strategy

import (
	"context"

	"github.com/shopspring/decimal"

	"quant/internal/engine"
	"quant/types"
)

// Momentum scores tickers by their z-scored trailing return. The universe
// excludes thinly traded names: the 20-day average daily dollar volume has
// to clear MinDollarVolume.
type Momentum struct {
	Lookback        int
	VolumeWindow    int
	MinDollarVolume decimal.Decimal
}

func NewMomentum() *Momentum {
	return &Momentum{
		Lookback:        20,
		VolumeWindow:    20,
		MinDollarVolume: decimal.NewFromInt(10_000_000),
	}
}

func (m *Momentum) Name() string { return "momentum" }

func (m *Momentum) Score(ctx context.Context, src engine.FieldSource) (types.Frame, error) {
	closePx, err := src.Field(ctx, "close")
	if err != nil {
		return types.Frame{}, err
	}
	return ZScore(PctChange(closePx, m.Lookback)), nil
}

func (m *Momentum) Universe(ctx context.Context, src engine.FieldSource) (types.Mask, error) {
	closePx, err := src.Field(ctx, "close")
	if err != nil {
		return types.Mask{}, err
	}
	volume, err := src.Field(ctx, "volume")
	if err != nil {
		return types.Mask{}, err
	}
	dailyAmount := Mul(closePx, volume)
	return GreaterThan(TSMean(dailyAmount, m.VolumeWindow), m.MinDollarVolume), nil
}
