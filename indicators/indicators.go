// Package indicators provides streaming technical indicators. Each is fed
// one bar at a time and reports Ready once its warmup window is full; the
// engine never looks ahead, and neither do these.
package indicators

import (
	"fmt"

	"github.com/rustyeddy/backsim/market"
)

// Indicator is a streaming indicator updated once per bar.
type Indicator interface {
	Name() string
	Update(bar market.Bar)
	Value() float64
	Ready() bool
	Warmup() int
	Reset()
}

// SMA is a simple moving average of bar closes.
type SMA struct {
	period int
	window []float64
	sum    float64
	next   int
	filled bool
}

func NewSMA(period int) *SMA {
	return &SMA{
		period: period,
		window: make([]float64, period),
	}
}

func (s *SMA) Name() string { return fmt.Sprintf("SMA(%d)", s.period) }
func (s *SMA) Warmup() int  { return s.period }
func (s *SMA) Ready() bool  { return s.filled }

func (s *SMA) Update(bar market.Bar) {
	s.sum -= s.window[s.next]
	s.window[s.next] = bar.Close
	s.sum += bar.Close

	s.next++
	if s.next == s.period {
		s.next = 0
		s.filled = true
	}
}

func (s *SMA) Value() float64 {
	if !s.filled {
		return 0
	}
	return s.sum / float64(s.period)
}

func (s *SMA) Reset() {
	s.window = make([]float64, s.period)
	s.sum = 0
	s.next = 0
	s.filled = false
}

// EMA is an exponential moving average of bar closes, seeded with the SMA
// of the first period bars.
type EMA struct {
	period int
	k      float64
	value  float64
	seed   float64
	count  int
}

func NewEMA(period int) *EMA {
	return &EMA{
		period: period,
		k:      2.0 / float64(period+1),
	}
}

func (e *EMA) Name() string { return fmt.Sprintf("EMA(%d)", e.period) }
func (e *EMA) Warmup() int  { return e.period }
func (e *EMA) Ready() bool  { return e.count >= e.period }

func (e *EMA) Update(bar market.Bar) {
	e.count++
	if e.count < e.period {
		e.seed += bar.Close
		return
	}
	if e.count == e.period {
		e.seed += bar.Close
		e.value = e.seed / float64(e.period)
		return
	}
	e.value += e.k * (bar.Close - e.value)
}

func (e *EMA) Value() float64 {
	if !e.Ready() {
		return 0
	}
	return e.value
}

func (e *EMA) Reset() {
	e.value = 0
	e.seed = 0
	e.count = 0
}
