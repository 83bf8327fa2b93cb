package strategies

import (
	"fmt"

	"github.com/rustyeddy/backsim/engine"
	"github.com/rustyeddy/backsim/indicators"
	"github.com/rustyeddy/backsim/market"
)

// SMACross goes long when the fast average crosses above the slow one.
// On the opposite cross it exits, or reverses short when AllowShort is
// set.
type SMACross struct {
	params Params
	states map[string]*smaState
}

type smaState struct {
	fast    *indicators.SMA
	slow    *indicators.SMA
	atr     *indicators.ATR
	prev    float64 // fast-slow spread on the previous bar
	hasPrev bool
}

func NewSMACross(p Params) *SMACross {
	return &SMACross{
		params: p,
		states: make(map[string]*smaState),
	}
}

func (s *SMACross) Name() string {
	return fmt.Sprintf("sma-cross(%d,%d)", s.params.Fast, s.params.Slow)
}

func (s *SMACross) Reset() {
	s.states = make(map[string]*smaState)
}

func (s *SMACross) state(symbol string) *smaState {
	st, ok := s.states[symbol]
	if !ok {
		st = &smaState{
			fast: indicators.NewSMA(s.params.Fast),
			slow: indicators.NewSMA(s.params.Slow),
		}
		if s.params.ATRPeriod > 0 {
			st.atr = indicators.NewATR(s.params.ATRPeriod)
		}
		s.states[symbol] = st
	}
	return st
}

func (s *SMACross) OnBar(symbol string, bar market.Bar) engine.Signal {
	st := s.state(symbol)
	st.fast.Update(bar)
	st.slow.Update(bar)
	if st.atr != nil {
		st.atr.Update(bar)
	}

	if !st.fast.Ready() || !st.slow.Ready() {
		return engine.Signal{}
	}

	spread := st.fast.Value() - st.slow.Value()
	defer func() {
		st.prev = spread
		st.hasPrev = true
	}()

	if !st.hasPrev {
		return engine.Signal{}
	}

	var atr float64
	if st.atr != nil && st.atr.Ready() {
		atr = st.atr.Value()
	}

	switch {
	case st.prev <= 0 && spread > 0: // golden cross
		return engine.Signal{Kind: engine.Long, ATR: atr}

	case st.prev >= 0 && spread < 0: // death cross
		if s.params.AllowShort {
			return engine.Signal{Kind: engine.Short, ATR: atr}
		}
		return engine.Signal{Kind: engine.ExitLong}
	}

	return engine.Signal{}
}
