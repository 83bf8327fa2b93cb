package engine

import (
	"github.com/rustyeddy/backsim/market"
)

// riskGate evaluates protective exits for the symbol's open position
// against the current bar, before any of the bar's signals are applied.
// Order: intrabar stop/take, then max-hold, then the trailing ratchet on
// the close. Reports whether the position was closed (which suppresses
// the symbol's signal for the rest of the bar).
func (e *Engine) riskGate(symbol string, bar market.Bar) (bool, error) {
	pos, ok := e.port.Position(symbol)
	if !ok {
		return false, nil
	}

	pos.updateExcursion(bar.Close)

	if px, reason, hit := e.checkStops(pos, bar); hit {
		// Stop and target fills happen at the trigger price itself.
		if err := e.closePosition(symbol, bar.Time, px, reason, false); err != nil {
			return false, err
		}
		return true, nil
	}

	if e.cfg.MaxHold > 0 && bar.Time.Sub(pos.EntryTime) >= e.cfg.MaxHold {
		if err := e.closePosition(symbol, bar.Time, bar.Close, ExitMaxHold, true); err != nil {
			return false, err
		}
		return true, nil
	}

	e.updateTrailing(pos, bar.Close)
	return false, nil
}

// checkStops detects stop/take touches within the bar. With intrabar
// checking the bar's high/low decide; otherwise only the close does.
// If both stop and target are touched in the same bar the stop wins:
// assume the worst case for the trader.
func (e *Engine) checkStops(pos *Position, bar market.Bar) (px float64, reason ExitReason, hit bool) {
	hasStop := pos.Stop > 0
	hasTake := pos.Take > 0
	if !hasStop && !hasTake {
		return 0, "", false
	}

	adverse, favorable := bar.Low, bar.High
	if pos.Direction == DirShort {
		adverse, favorable = bar.High, bar.Low
	}
	if !e.cfg.CheckIntrabarStops {
		adverse, favorable = bar.Close, bar.Close
	}

	var stopHit, takeHit bool
	if pos.Direction == DirLong {
		stopHit = hasStop && adverse <= pos.Stop
		takeHit = hasTake && favorable >= pos.Take
	} else {
		stopHit = hasStop && adverse >= pos.Stop
		takeHit = hasTake && favorable <= pos.Take
	}

	if stopHit {
		return pos.Stop, ExitStopLoss, true
	}
	if takeHit {
		return pos.Take, ExitTakeProfit, true
	}
	return 0, "", false
}

// updateTrailing advances the high-water mark on the bar close and
// ratchets the stop toward it. The stop only ever tightens.
func (e *Engine) updateTrailing(pos *Position, close float64) {
	if e.cfg.TrailingStopPct <= 0 {
		return
	}

	if pos.Direction == DirLong {
		if close > pos.Watermark {
			pos.Watermark = close
		}
		stop := pos.Watermark * (1 - e.cfg.TrailingStopPct)
		if stop > pos.Stop {
			pos.Stop = stop
		}
		return
	}

	if close < pos.Watermark {
		pos.Watermark = close
	}
	stop := pos.Watermark * (1 + e.cfg.TrailingStopPct)
	if pos.Stop == 0 || stop < pos.Stop {
		pos.Stop = stop
	}
}
