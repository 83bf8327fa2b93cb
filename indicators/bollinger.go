package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/backsim/market"
)

// Bollinger tracks a close-price moving average with bands Mult standard
// deviations either side. Value() reports the middle band; Upper/Lower
// expose the bands.
type Bollinger struct {
	period int
	mult   float64
	window []float64
	next   int
	filled bool
}

func NewBollinger(period int, mult float64) *Bollinger {
	return &Bollinger{
		period: period,
		mult:   mult,
		window: make([]float64, period),
	}
}

func (b *Bollinger) Name() string { return fmt.Sprintf("BB(%d,%.1f)", b.period, b.mult) }
func (b *Bollinger) Warmup() int  { return b.period }
func (b *Bollinger) Ready() bool  { return b.filled }

func (b *Bollinger) Update(bar market.Bar) {
	b.window[b.next] = bar.Close
	b.next++
	if b.next == b.period {
		b.next = 0
		b.filled = true
	}
}

func (b *Bollinger) Value() float64 { return b.mid() }

func (b *Bollinger) Upper() float64 {
	mid, sd := b.midStddev()
	return mid + b.mult*sd
}

func (b *Bollinger) Lower() float64 {
	mid, sd := b.midStddev()
	return mid - b.mult*sd
}

func (b *Bollinger) Reset() {
	b.window = make([]float64, b.period)
	b.next = 0
	b.filled = false
}

func (b *Bollinger) mid() float64 {
	if !b.filled {
		return 0
	}
	var sum float64
	for _, v := range b.window {
		sum += v
	}
	return sum / float64(b.period)
}

func (b *Bollinger) midStddev() (mid, sd float64) {
	if !b.filled {
		return 0, 0
	}
	mid = b.mid()
	var ss float64
	for _, v := range b.window {
		d := v - mid
		ss += d * d
	}
	return mid, math.Sqrt(ss / float64(b.period))
}
