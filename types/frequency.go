package types

import "fmt"

// Frequency controls how often the strategy's target weights are re-issued.
type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

func ParseFrequency(s string) (Frequency, error) {
	switch Frequency(s) {
	case Daily, Weekly, Monthly:
		return Frequency(s), nil
	default:
		return "", fmt.Errorf("unknown rebalance frequency %q", s)
	}
}
