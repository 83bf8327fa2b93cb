// Package perf derives risk-adjusted performance metrics from a finished
// run's equity curve and closed-trade list. Analyze is a pure function:
// it never mutates the result and every divide-by-zero hazard reports 0
// instead of failing, so downstream reporting never crashes on an empty
// run.
package perf

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rustyeddy/backsim/engine"
)

const tradingDaysPerYear = 252

// Metrics is the aggregate performance record of one run.
type Metrics struct {
	NoTrades bool

	Start time.Time
	End   time.Time
	Days  float64

	InitialCapital float64
	FinalEquity    float64
	TotalReturn    float64
	AnnualReturn   float64

	Volatility  float64
	Sharpe      float64
	Sortino     float64
	Calmar      float64
	MaxDrawdown float64

	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64
	AvgWin        float64
	AvgLoss       float64
	GrossProfit   float64
	GrossLoss     float64
	ProfitFactor  float64
	AvgHold       time.Duration
	AvgMAE        float64
	AvgMFE        float64
}

// Analyze computes the full metrics record for a run result.
func Analyze(res *engine.Result) Metrics {
	m := Metrics{
		Start:          res.Start,
		End:            res.End,
		InitialCapital: res.InitialCapital,
		FinalEquity:    res.FinalEquity,
		MaxDrawdown:    res.MaxDrawdown,
		NoTrades:       len(res.Trades) == 0,
	}

	if res.InitialCapital > 0 {
		m.TotalReturn = (res.FinalEquity - res.InitialCapital) / res.InitialCapital
	}

	m.Days = res.End.Sub(res.Start).Hours() / 24
	if m.Days > 0 {
		m.AnnualReturn = math.Pow(1+m.TotalReturn, 365.25/m.Days) - 1
	}

	returns := res.Curve.Returns()
	m.Volatility = stddev(returns) * math.Sqrt(tradingDaysPerYear)
	if m.Volatility > 0 {
		m.Sharpe = m.AnnualReturn / m.Volatility
	}

	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	if dd := stddev(downside) * math.Sqrt(tradingDaysPerYear); dd > 0 {
		m.Sortino = m.AnnualReturn / dd
	}

	if m.MaxDrawdown > 0 {
		m.Calmar = m.AnnualReturn / m.MaxDrawdown
	}

	m.tradeStats(res.Trades)
	return m
}

func (m *Metrics) tradeStats(trades []engine.ClosedTrade) {
	m.TotalTrades = len(trades)
	if len(trades) == 0 {
		return
	}

	var hold time.Duration
	for _, t := range trades {
		hold += t.HoldPeriod
		m.AvgMAE += t.MAE
		m.AvgMFE += t.MFE
		if t.PnL > 0 {
			m.WinningTrades++
			m.GrossProfit += t.PnL
		} else {
			m.LosingTrades++
			m.GrossLoss += -t.PnL
		}
	}

	n := float64(len(trades))
	m.WinRate = float64(m.WinningTrades) / n
	m.AvgHold = time.Duration(float64(hold) / n)
	m.AvgMAE /= n
	m.AvgMFE /= n

	if m.WinningTrades > 0 {
		m.AvgWin = m.GrossProfit / float64(m.WinningTrades)
	}
	if m.LosingTrades > 0 {
		m.AvgLoss = -m.GrossLoss / float64(m.LosingTrades)
	}
	if m.GrossLoss > 0 {
		m.ProfitFactor = m.GrossProfit / m.GrossLoss
	}
}

// stddev is the population standard deviation, matching how the curve's
// bar returns are treated as the full return population of the run.
func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))

	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)))
}

// String renders the human-readable report the CLI prints after a run.
func (m Metrics) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Period: %s to %s (%.0f days)\n",
		m.Start.Format("2006-01-02"), m.End.Format("2006-01-02"), m.Days)
	fmt.Fprintf(&b, "\nReturns:\n")
	fmt.Fprintf(&b, "  Initial Capital:  $%.2f\n", m.InitialCapital)
	fmt.Fprintf(&b, "  Final Equity:     $%.2f\n", m.FinalEquity)
	fmt.Fprintf(&b, "  Total Return:     %+.2f%%\n", m.TotalReturn*100)
	fmt.Fprintf(&b, "  Annual Return:    %+.2f%%\n", m.AnnualReturn*100)
	fmt.Fprintf(&b, "\nRisk:\n")
	fmt.Fprintf(&b, "  Sharpe Ratio:     %.2f\n", m.Sharpe)
	fmt.Fprintf(&b, "  Sortino Ratio:    %.2f\n", m.Sortino)
	fmt.Fprintf(&b, "  Calmar Ratio:     %.2f\n", m.Calmar)
	fmt.Fprintf(&b, "  Max Drawdown:     %.2f%%\n", m.MaxDrawdown*100)
	fmt.Fprintf(&b, "\nTrades:\n")
	if m.NoTrades {
		fmt.Fprintf(&b, "  (no trades)\n")
		return b.String()
	}
	fmt.Fprintf(&b, "  Total Trades:     %d\n", m.TotalTrades)
	fmt.Fprintf(&b, "  Winning Trades:   %d (%.1f%%)\n", m.WinningTrades, m.WinRate*100)
	fmt.Fprintf(&b, "  Losing Trades:    %d\n", m.LosingTrades)
	fmt.Fprintf(&b, "  Profit Factor:    %.2f\n", m.ProfitFactor)
	fmt.Fprintf(&b, "  Avg Win:          $%.2f\n", m.AvgWin)
	fmt.Fprintf(&b, "  Avg Loss:         $%.2f\n", m.AvgLoss)
	fmt.Fprintf(&b, "  Avg Hold:         %s\n", m.AvgHold)

	return b.String()
}
