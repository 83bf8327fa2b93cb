// Package risk holds the position-sizing math shared by the engine and
// any strategy that wants to budget risk explicitly.
package risk

import "math"

// Inputs sizes a position so a stop-out loses at most RiskPct of equity.
type Inputs struct {
	Equity       float64
	RiskPct      float64 // fraction of equity at risk, e.g. 0.02
	StopDistance float64 // adverse move to the stop, in price terms
}

// Result of a sizing calculation.
type Result struct {
	Shares     int
	RiskAmount float64
}

// Calculate returns the whole-share size whose stop-out loss stays within
// the risk budget. Degenerate inputs size to zero.
func Calculate(in Inputs) Result {
	if in.Equity <= 0 || in.RiskPct <= 0 || in.StopDistance <= 0 {
		return Result{}
	}
	amt := in.Equity * in.RiskPct
	return Result{
		Shares:     int(math.Floor(amt / in.StopDistance)),
		RiskAmount: amt,
	}
}

// RR is the reward-to-risk ratio of a planned entry/stop/target. Zero when
// the stop sits on the entry.
func RR(entry, stop, take float64) float64 {
	r := math.Abs(entry - stop)
	if r == 0 {
		return 0
	}
	return math.Abs(take-entry) / r
}
