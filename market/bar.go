package market

import (
	"fmt"
	"math"
	"time"
)

// Bar represents one OHLCV bar for a single trading period. Bars are
// immutable once loaded; the engine never looks past the current bar.
type Bar struct {
	Open   float64
	High   float64
	Low    float64
	Close  float64
	time.Time
	Volume float64
}

// DataError reports a malformed bar or a broken ordering invariant. A run
// must abort on one of these rather than produce a misleading equity curve.
type DataError struct {
	Symbol string
	Time   time.Time
	Reason string
}

func (e *DataError) Error() string {
	if e.Symbol == "" {
		return fmt.Sprintf("bad bar at %s: %s", e.Time.Format(time.RFC3339), e.Reason)
	}
	return fmt.Sprintf("bad bar %s at %s: %s", e.Symbol, e.Time.Format(time.RFC3339), e.Reason)
}

// Validate checks the structural invariants every bar must satisfy:
// finite prices, volume >= 0, high >= low, and high/low bracketing
// open and close.
func (b Bar) Validate() error {
	fields := map[string]float64{
		"open":   b.Open,
		"high":   b.High,
		"low":    b.Low,
		"close":  b.Close,
		"volume": b.Volume,
	}
	for name, v := range fields {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &DataError{Time: b.Time, Reason: fmt.Sprintf("%s is not finite", name)}
		}
	}
	if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
		return &DataError{Time: b.Time, Reason: "price fields must be positive"}
	}
	if b.Volume < 0 {
		return &DataError{Time: b.Time, Reason: "volume must be non-negative"}
	}
	if b.High < b.Low {
		return &DataError{Time: b.Time, Reason: "high below low"}
	}
	if b.High < b.Open || b.High < b.Close {
		return &DataError{Time: b.Time, Reason: "high below open/close"}
	}
	if b.Low > b.Open || b.Low > b.Close {
		return &DataError{Time: b.Time, Reason: "low above open/close"}
	}
	return nil
}
