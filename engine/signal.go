package engine

import "github.com/rustyeddy/backsim/market"

// SignalKind is the decision a strategy emits for one (symbol, bar).
type SignalKind int8

const (
	None SignalKind = iota
	Long
	Short
	ExitLong
	ExitShort
)

func (k SignalKind) String() string {
	switch k {
	case Long:
		return "LONG"
	case Short:
		return "SHORT"
	case ExitLong:
		return "EXIT_LONG"
	case ExitShort:
		return "EXIT_SHORT"
	default:
		return "NONE"
	}
}

// Signal carries a strategy decision into the execution model.
type Signal struct {
	Kind SignalKind

	// ATR is an optional volatility estimate. When present it drives
	// risk-budget position sizing and, with Config.ATRStopMult, the
	// stop distance. Zero means not supplied.
	ATR float64
}

// Strategy decides when to trade; the engine decides whether and how much.
// OnBar is called once per (symbol, bar) in symbol order, engine state is
// never exposed, and implementations must be deterministic for replay to
// stay byte-identical.
type Strategy interface {
	Name() string
	Reset()
	OnBar(symbol string, bar market.Bar) Signal
}
