package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/backsim/market"
)

// ATR is a streaming Average True Range with Wilder smoothing.
type ATR struct {
	period      int
	atr         float64
	count       int
	warmupSum   float64
	prevClose   float64
	hasPrevious bool
}

func NewATR(period int) *ATR {
	return &ATR{period: period}
}

func (a *ATR) Name() string { return fmt.Sprintf("ATR(%d)", a.period) }

// Warmup needs period+1 bars because the true range requires a previous
// close.
func (a *ATR) Warmup() int { return a.period + 1 }
func (a *ATR) Ready() bool { return a.count >= a.period }

func (a *ATR) Update(bar market.Bar) {
	if !a.hasPrevious {
		a.prevClose = bar.Close
		a.hasPrevious = true
		return
	}

	tr := trueRange(bar, a.prevClose)
	a.prevClose = bar.Close

	if a.count < a.period {
		a.warmupSum += tr
		a.count++
		if a.count == a.period {
			a.atr = a.warmupSum / float64(a.period)
		}
		return
	}

	a.atr = (a.atr*float64(a.period-1) + tr) / float64(a.period)
	a.count++
}

func (a *ATR) Value() float64 {
	if !a.Ready() {
		return 0
	}
	return a.atr
}

func (a *ATR) Reset() {
	a.atr = 0
	a.count = 0
	a.warmupSum = 0
	a.prevClose = 0
	a.hasPrevious = false
}

func trueRange(bar market.Bar, prevClose float64) float64 {
	hl := bar.High - bar.Low
	hc := math.Abs(bar.High - prevClose)
	lc := math.Abs(bar.Low - prevClose)
	return math.Max(hl, math.Max(hc, lc))
}
