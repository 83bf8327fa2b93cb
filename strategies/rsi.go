package strategies

import (
	"fmt"

	"github.com/rustyeddy/backsim/engine"
	"github.com/rustyeddy/backsim/indicators"
	"github.com/rustyeddy/backsim/market"
)

// RSIReversion buys oversold and exits overbought: long when RSI crosses
// down through Lower, exit when it crosses up through Upper. With
// AllowShort the overbought cross opens a short instead of only exiting.
type RSIReversion struct {
	params Params
	states map[string]*rsiState
}

type rsiState struct {
	rsi     *indicators.RSI
	atr     *indicators.ATR
	prev    float64
	hasPrev bool
}

func NewRSIReversion(p Params) *RSIReversion {
	return &RSIReversion{
		params: p,
		states: make(map[string]*rsiState),
	}
}

func (s *RSIReversion) Name() string {
	return fmt.Sprintf("rsi(%d,%.0f/%.0f)", s.params.Period, s.params.Lower, s.params.Upper)
}

func (s *RSIReversion) Reset() {
	s.states = make(map[string]*rsiState)
}

func (s *RSIReversion) state(symbol string) *rsiState {
	st, ok := s.states[symbol]
	if !ok {
		st = &rsiState{rsi: indicators.NewRSI(s.params.Period)}
		if s.params.ATRPeriod > 0 {
			st.atr = indicators.NewATR(s.params.ATRPeriod)
		}
		s.states[symbol] = st
	}
	return st
}

func (s *RSIReversion) OnBar(symbol string, bar market.Bar) engine.Signal {
	st := s.state(symbol)
	st.rsi.Update(bar)
	if st.atr != nil {
		st.atr.Update(bar)
	}

	if !st.rsi.Ready() {
		return engine.Signal{}
	}

	v := st.rsi.Value()
	defer func() {
		st.prev = v
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
	case st.prev >= s.params.Lower && v < s.params.Lower:
		// Oversold: open a long, reversing any open short.
		return engine.Signal{Kind: engine.Long, ATR: atr}

	case st.prev <= s.params.Upper && v > s.params.Upper:
		if s.params.AllowShort {
			return engine.Signal{Kind: engine.Short, ATR: atr}
		}
		return engine.Signal{Kind: engine.ExitLong}
	}

	return engine.Signal{}
}
