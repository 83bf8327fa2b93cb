// Package strategies implements the signal providers the engine consumes.
// Strategies keep per-symbol indicator state and emit one Signal per bar;
// sizing and risk constraints stay the engine's business.
package strategies

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/backsim/engine"
)

// Params carries the tunables shared by the built-in strategies. Unused
// fields are ignored by strategies that do not need them.
type Params struct {
	Fast       int     // fast moving-average period
	Slow       int     // slow moving-average period
	Period     int     // lookback for RSI / Bollinger
	Mult       float64 // Bollinger band width in standard deviations
	Lower      float64 // RSI oversold threshold
	Upper      float64 // RSI overbought threshold
	ATRPeriod  int     // 0 disables the volatility estimate on signals
	AllowShort bool
}

// DefaultParams are reasonable starting values for every built-in.
func DefaultParams() Params {
	return Params{
		Fast:      20,
		Slow:      50,
		Period:    14,
		Mult:      2.0,
		Lower:     30,
		Upper:     70,
		ATRPeriod: 14,
	}
}

// ByName constructs one of the built-in strategies.
//
// Supported names: noop, sma-cross, rsi, bollinger.
func ByName(name string, p Params) (engine.Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "noop", "none":
		return Noop{}, nil

	case "sma-cross", "smacross":
		if p.Fast <= 0 || p.Slow <= p.Fast {
			return nil, fmt.Errorf("sma-cross: need 0 < fast < slow, got fast=%d slow=%d", p.Fast, p.Slow)
		}
		return NewSMACross(p), nil

	case "rsi":
		if p.Period <= 0 || p.Lower <= 0 || p.Upper <= p.Lower || p.Upper >= 100 {
			return nil, fmt.Errorf("rsi: need 0 < lower < upper < 100 and positive period")
		}
		return NewRSIReversion(p), nil

	case "bollinger", "bb":
		if p.Period <= 0 || p.Mult <= 0 {
			return nil, fmt.Errorf("bollinger: need positive period and mult")
		}
		return NewBollinger(p), nil

	default:
		return nil, fmt.Errorf("unknown strategy %q (supported: noop, sma-cross, rsi, bollinger)", name)
	}
}
