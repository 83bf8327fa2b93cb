package engine

import (
	"time"

	"github.com/rustyeddy/backsim/journal"
)

// EquitySample is one point on the equity curve.
type EquitySample struct {
	Time   time.Time
	Equity float64
	Cash   float64
}

// EquityCurve is the per-bar (timestamp, equity, cash) record of a run.
// It is append-only and never rewritten, which is what keeps the ratio
// computation replayable.
type EquityCurve []EquitySample

// Returns computes the bar-over-bar percentage change of equity.
func (c EquityCurve) Returns() []float64 {
	if len(c) < 2 {
		return nil
	}
	out := make([]float64, 0, len(c)-1)
	for i := 1; i < len(c); i++ {
		prev := c[i-1].Equity
		if prev == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, (c[i].Equity-prev)/prev)
	}
	return out
}

// recordEquity marks every open position to its latest close, recomputes
// equity = cash + position value, updates the peak/drawdown extremes, and
// appends one sample. Runs once per bar after all opens and closes settle.
func (e *Engine) recordEquity(ts time.Time) error {
	var value float64
	for _, sym := range e.port.openSymbols() {
		pos := e.port.positions[sym]
		px, ok := e.lastClose[sym]
		if !ok {
			px = pos.EntryPrice
		}
		value += pos.Mark(px)
	}

	e.port.Equity = e.port.Cash + value

	if e.port.Equity > e.port.PeakEquity {
		e.port.PeakEquity = e.port.Equity
	}
	if e.port.PeakEquity > 0 {
		dd := (e.port.PeakEquity - e.port.Equity) / e.port.PeakEquity
		if dd > e.port.MaxDrawdown {
			e.port.MaxDrawdown = dd
		}
	}

	e.curve = append(e.curve, EquitySample{Time: ts, Equity: e.port.Equity, Cash: e.port.Cash})

	if e.journal != nil {
		return e.journal.RecordEquity(journal.EquitySnapshot{
			RunID:  e.runID,
			Time:   ts,
			Equity: e.port.Equity,
			Cash:   e.port.Cash,
		})
	}
	return nil
}
