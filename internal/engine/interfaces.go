package engine

import (
	"context"

	"quant/types"
)

// FieldSource provides per-field matrices (close, volume, ...) keyed by
// date and ticker. The repository package implements it against Postgres.
type FieldSource interface {
	Field(ctx context.Context, name string) (types.Frame, error)
}

// Strategy is the signal-generation capability the engine depends on.
// Score returns a factor score matrix (higher is better); Universe returns
// the investable mask applied to it. The engine never sees anything else
// of a concrete strategy.
type Strategy interface {
	Name() string
	Score(ctx context.Context, src FieldSource) (types.Frame, error)
	Universe(ctx context.Context, src FieldSource) (types.Mask, error)
}

// Allocator turns a masked score matrix into target portfolio weights in
// [0, 1] per cell. Rows need not sum to 1.
type Allocator interface {
	Weights(score types.Frame) types.Frame
}
