package engine

import (
	"time"
)

// Direction of a position: +1 long, -1 short. The sign doubles as the
// slippage/PnL adjustment factor.
type Direction int8

const (
	DirLong  Direction = 1
	DirShort Direction = -1
)

func (d Direction) String() string {
	if d == DirShort {
		return "SHORT"
	}
	return "LONG"
}

// ExitReason explains why a position left the ledger.
type ExitReason string

const (
	ExitStopLoss    ExitReason = "StopLoss"
	ExitTakeProfit  ExitReason = "TakeProfit"
	ExitSignal      ExitReason = "SignalExit"
	ExitReversal    ExitReason = "SignalReversal"
	ExitMaxHold     ExitReason = "MaxHold"
	ExitEndOfSeries ExitReason = "EndOfSeries"
)

// Position is an open position. The ledger owns it exclusively: the risk
// gate mutates stops, the equity tracker marks it, nothing else touches it.
type Position struct {
	Symbol     string
	EntryTime  time.Time
	EntryPrice float64 // post-slippage fill
	Shares     int
	Direction  Direction
	EntryValue float64 // EntryPrice * Shares, commission excluded

	Stop      float64 // 0 means none
	Take      float64 // 0 means none
	Watermark float64 // best close since entry, drives the trailing stop

	// Excursion extremes relative to entry, as fractions of entry price.
	MAE float64
	MFE float64
}

// Mark values the position at the given price. Longs are plain share
// value; shorts are collateral plus the favorable move (the collateral
// left cash at entry, so the mark has to return it).
func (p *Position) Mark(price float64) float64 {
	if p.Direction == DirLong {
		return price * float64(p.Shares)
	}
	return p.EntryValue + (p.EntryPrice-price)*float64(p.Shares)
}

func (p *Position) updateExcursion(price float64) {
	exc := (price - p.EntryPrice) / p.EntryPrice * float64(p.Direction)
	if exc > p.MFE {
		p.MFE = exc
	}
	if exc < p.MAE {
		p.MAE = exc
	}
}

// ClosedTrade is the immutable record a position becomes on exit.
// PnL is price-based; commissions hit cash and show up in equity only.
type ClosedTrade struct {
	Symbol     string
	EntryTime  time.Time
	ExitTime   time.Time
	EntryPrice float64
	ExitPrice  float64
	Shares     int
	Direction  Direction
	PnL        float64
	PnLPct     float64
	ExitReason ExitReason
	HoldPeriod time.Duration
	MAE        float64
	MFE        float64
}
