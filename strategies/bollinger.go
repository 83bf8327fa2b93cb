package strategies

import (
	"fmt"

	"github.com/rustyeddy/backsim/engine"
	"github.com/rustyeddy/backsim/indicators"
	"github.com/rustyeddy/backsim/market"
)

// Bollinger trades band reversion: long when the close crosses below the
// lower band, exit when it crosses back above the middle band. AllowShort
// mirrors the upper band.
type Bollinger struct {
	params Params
	states map[string]*bbState
}

type bbState struct {
	bb        *indicators.Bollinger
	atr       *indicators.ATR
	prevClose float64
	hasPrev   bool
}

func NewBollinger(p Params) *Bollinger {
	return &Bollinger{
		params: p,
		states: make(map[string]*bbState),
	}
}

func (s *Bollinger) Name() string {
	return fmt.Sprintf("bollinger(%d,%.1f)", s.params.Period, s.params.Mult)
}

func (s *Bollinger) Reset() {
	s.states = make(map[string]*bbState)
}

func (s *Bollinger) state(symbol string) *bbState {
	st, ok := s.states[symbol]
	if !ok {
		st = &bbState{bb: indicators.NewBollinger(s.params.Period, s.params.Mult)}
		if s.params.ATRPeriod > 0 {
			st.atr = indicators.NewATR(s.params.ATRPeriod)
		}
		s.states[symbol] = st
	}
	return st
}

func (s *Bollinger) OnBar(symbol string, bar market.Bar) engine.Signal {
	st := s.state(symbol)

	// Bands are computed on the window up to the previous bar so this
	// bar's close is judged against them, not included in them.
	var lower, mid, upper float64
	ready := st.bb.Ready()
	if ready {
		lower, mid, upper = st.bb.Lower(), st.bb.Value(), st.bb.Upper()
	}

	st.bb.Update(bar)
	if st.atr != nil {
		st.atr.Update(bar)
	}

	if !ready {
		return engine.Signal{}
	}

	prev := st.prevClose
	hasPrev := st.hasPrev
	st.prevClose = bar.Close
	st.hasPrev = true
	if !hasPrev {
		return engine.Signal{}
	}

	var atr float64
	if st.atr != nil && st.atr.Ready() {
		atr = st.atr.Value()
	}

	switch {
	case prev >= lower && bar.Close < lower:
		return engine.Signal{Kind: engine.Long, ATR: atr}

	case s.params.AllowShort && prev <= upper && bar.Close > upper:
		return engine.Signal{Kind: engine.Short, ATR: atr}

	case prev <= mid && bar.Close > mid:
		return engine.Signal{Kind: engine.ExitLong}

	case s.params.AllowShort && prev >= mid && bar.Close < mid:
		return engine.Signal{Kind: engine.ExitShort}
	}

	return engine.Signal{}
}
