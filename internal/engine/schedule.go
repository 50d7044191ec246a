package engine

import (
	"time"

	"quant/types"
)

// RebalanceDates selects the dates on which the strategy issues a new
// target-weight vector. Daily selects every date; weekly and monthly pick
// the last trading day of each calendar week or month, so short weeks from
// holidays still rebalance on their final session. The caller is expected
// to force-include the first simulated date so the portfolio is not left
// unallocated at the start.
func RebalanceDates(dates []time.Time, freq types.Frequency) map[time.Time]struct{} {
	selected := make(map[time.Time]struct{}, len(dates))
	if len(dates) == 0 {
		return selected
	}

	switch freq {
	case types.Daily:
		for _, d := range dates {
			selected[d] = struct{}{}
		}
	case types.Weekly:
		lastPerWeek := make(map[[2]int]time.Time)
		for _, d := range dates {
			year, week := d.ISOWeek()
			key := [2]int{year, week}
			if cur, ok := lastPerWeek[key]; !ok || d.After(cur) {
				lastPerWeek[key] = d
			}
		}
		for _, d := range lastPerWeek {
			selected[d] = struct{}{}
		}
	case types.Monthly:
		lastPerMonth := make(map[[2]int]time.Time)
		for _, d := range dates {
			key := [2]int{d.Year(), int(d.Month())}
			if cur, ok := lastPerMonth[key]; !ok || d.After(cur) {
				lastPerMonth[key] = d
			}
		}
		for _, d := range lastPerMonth {
			selected[d] = struct{}{}
		}
	default:
		for _, d := range dates {
			selected[d] = struct{}{}
		}
	}
	return selected
}
