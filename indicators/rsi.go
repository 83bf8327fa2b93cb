package indicators

import (
	"fmt"

	"github.com/rustyeddy/backsim/market"
)

// RSI is the Relative Strength Index with Wilder smoothing.
type RSI struct {
	period    int
	avgGain   float64
	avgLoss   float64
	prevClose float64
	count     int
}

func NewRSI(period int) *RSI {
	return &RSI{period: period}
}

func (r *RSI) Name() string { return fmt.Sprintf("RSI(%d)", r.period) }

// Warmup is period+1 bars: the first bar only establishes the previous
// close.
func (r *RSI) Warmup() int { return r.period + 1 }
func (r *RSI) Ready() bool { return r.count >= r.period }

func (r *RSI) Update(bar market.Bar) {
	if r.count == 0 && r.prevClose == 0 {
		r.prevClose = bar.Close
		return
	}

	change := bar.Close - r.prevClose
	r.prevClose = bar.Close

	gain, loss := 0.0, 0.0
	if change > 0 {
		gain = change
	} else {
		loss = -change
	}

	if r.count < r.period {
		// Warmup accumulates plain averages.
		r.avgGain += gain / float64(r.period)
		r.avgLoss += loss / float64(r.period)
		r.count++
		return
	}

	p := float64(r.period)
	r.avgGain = (r.avgGain*(p-1) + gain) / p
	r.avgLoss = (r.avgLoss*(p-1) + loss) / p
	r.count++
}

func (r *RSI) Value() float64 {
	if !r.Ready() {
		return 0
	}
	if r.avgLoss == 0 {
		return 100
	}
	rs := r.avgGain / r.avgLoss
	return 100 - 100/(1+rs)
}

func (r *RSI) Reset() {
	r.avgGain = 0
	r.avgLoss = 0
	r.prevClose = 0
	r.count = 0
}
