package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backsim/market"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func bar(n int, o, h, l, c float64) market.Bar {
	return market.Bar{Open: o, High: h, Low: l, Close: c, Time: day(n), Volume: 1000}
}

func flatBar(n int, px float64) market.Bar {
	return bar(n, px, px, px, px)
}

// scripted replays a fixed signal per (timestamp, symbol).
type scripted struct {
	signals map[time.Time]map[string]Signal
}

func newScripted() *scripted {
	return &scripted{signals: make(map[time.Time]map[string]Signal)}
}

func (s *scripted) at(t time.Time, symbol string, sig Signal) *scripted {
	if s.signals[t] == nil {
		s.signals[t] = make(map[string]Signal)
	}
	s.signals[t][symbol] = sig
	return s
}

func (s *scripted) Name() string { return "scripted" }
func (s *scripted) Reset()       {}

func (s *scripted) OnBar(symbol string, b market.Bar) Signal {
	return s.signals[b.Time][symbol]
}

func mustSeries(t *testing.T, bars map[string][]market.Bar) *market.Series {
	t.Helper()
	s, err := market.NewSeries(bars)
	require.NoError(t, err)
	return s
}

func baseConfig() Config {
	return Config{
		InitialCapital:     100_000,
		CommissionPct:      0.001,
		CommissionFixed:    0,
		SlippagePct:        0.0005,
		MaxPositions:       10,
		MaxPositionPct:     1.0,
		ReserveCashPct:     0,
		CheckIntrabarStops: true,
	}
}

func TestStopLossScenario(t *testing.T) {
	t.Parallel()

	// LONG at 100 with a 5% stop; the next bar trades down to 92, so the
	// position exits at the stop price 95 exactly.
	cfg := baseConfig()
	cfg.StopLossPct = 0.05

	e, err := New(cfg)
	require.NoError(t, err)

	series := mustSeries(t, map[string][]market.Bar{
		"AAA": {
			flatBar(0, 100),
			bar(1, 96, 97, 92, 93),
		},
	})
	strat := newScripted().at(day(0), "AAA", Signal{Kind: Long})

	res, err := e.Run(context.Background(), series, strat)
	require.NoError(t, err)
	require.Len(t, res.Trades, 1)

	// Desired size floor(100000/100.05) = 999 is unaffordable with
	// commission, so the entry degrades to floor(100000/(100.05*1.001)).
	tr := res.Trades[0]
	assert.Equal(t, 998, tr.Shares)
	assert.Equal(t, ExitStopLoss, tr.ExitReason)
	assert.InDelta(t, 100.05, tr.EntryPrice, 1e-9)
	assert.InDelta(t, 95.0, tr.ExitPrice, 1e-9)
	assert.InDelta(t, (95.0-100.05)*998, tr.PnL, 1e-6)
	assert.InDelta(t, tr.PnL/(100.05*998), tr.PnLPct, 1e-9)

	// Cash ledger: entry cost 998*100.05*1.001, exit credits
	// 998*95*(1-0.001). Commissions show up here, not in PnL.
	entryCost := 998 * 100.05 * 1.001
	exitNet := 998 * 95.0 * 0.999
	wantCash := 100_000 - entryCost + exitNet
	assert.InDelta(t, wantCash, res.FinalCash, 1e-6)
	assert.InDelta(t, wantCash, res.FinalEquity, 1e-6)

	// First bar's sample: cash plus the position marked at the close.
	require.Len(t, res.Curve, 2)
	wantEquity0 := (100_000 - entryCost) + 998*100.0
	assert.InDelta(t, wantEquity0, res.Curve[0].Equity, 1e-6)
}

func TestMaxPositionsOneOfTwoSignals(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.MaxPositions = 1
	cfg.MaxPositionPct = 0.5

	e, err := New(cfg)
	require.NoError(t, err)

	series := mustSeries(t, map[string][]market.Bar{
		"AAA": {flatBar(0, 50), flatBar(1, 50)},
		"BBB": {flatBar(0, 50), flatBar(1, 50)},
	})
	strat := newScripted().
		at(day(0), "AAA", Signal{Kind: Long}).
		at(day(0), "BBB", Signal{Kind: Long})

	res, err := e.Run(context.Background(), series, strat)
	require.NoError(t, err)

	// Exactly one opens (AAA, by symbol order); the other is rejected.
	require.Len(t, res.Trades, 1)
	assert.Equal(t, "AAA", res.Trades[0].Symbol)
	assert.Equal(t, ExitEndOfSeries, res.Trades[0].ExitReason)

	require.Len(t, res.Rejections, 1)
	assert.Equal(t, "BBB", res.Rejections[0].Symbol)
	assert.Equal(t, RejectMaxPositions, res.Rejections[0].Code)
}

func TestEmptyRunSafety(t *testing.T) {
	t.Parallel()

	e, err := New(baseConfig())
	require.NoError(t, err)

	series := mustSeries(t, map[string][]market.Bar{
		"AAA": {flatBar(0, 100), flatBar(1, 101), flatBar(2, 102)},
	})

	res, err := e.Run(context.Background(), series, newScripted())
	require.NoError(t, err)

	assert.Empty(t, res.Trades)
	assert.Len(t, res.Curve, 3)
	assert.InDelta(t, 100_000, res.FinalEquity, 1e-9)
	assert.Zero(t, res.MaxDrawdown)
}

func TestIdempotentReplay(t *testing.T) {
	t.Parallel()

	bars := map[string][]market.Bar{
		"AAA": {
			flatBar(0, 100), bar(1, 101, 104, 100, 103), bar(2, 103, 106, 102, 105),
			bar(3, 105, 105, 98, 99), bar(4, 99, 101, 96, 97), flatBar(5, 98),
		},
		"BBB": {
			flatBar(0, 40), bar(1, 40, 42, 39, 41), bar(2, 41, 44, 40, 43),
			bar(3, 43, 43, 38, 39), bar(4, 39, 40, 37, 38), flatBar(5, 38),
		},
	}
	strat := func() Strategy {
		return newScripted().
			at(day(0), "AAA", Signal{Kind: Long}).
			at(day(1), "BBB", Signal{Kind: Short}).
			at(day(3), "AAA", Signal{Kind: ExitLong}).
			at(day(4), "BBB", Signal{Kind: Long})
	}

	cfg := baseConfig()
	cfg.MaxPositionPct = 0.3
	cfg.StopLossPct = 0.06
	cfg.TrailingStopPct = 0.04

	run := func() *Result {
		e, err := New(cfg, WithRunID("fixed"))
		require.NoError(t, err)
		series := mustSeries(t, bars)
		res, err := e.Run(context.Background(), series, strat())
		require.NoError(t, err)
		return res
	}

	first := run()
	second := run()
	assert.Equal(t, first.Trades, second.Trades)
	assert.Equal(t, first.Curve, second.Curve)
	assert.Equal(t, first.Rejections, second.Rejections)
}

func TestSignalReversal(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.MaxPositionPct = 0.5

	e, err := New(cfg)
	require.NoError(t, err)

	series := mustSeries(t, map[string][]market.Bar{
		"AAA": {flatBar(0, 100), flatBar(1, 110), flatBar(2, 105)},
	})
	strat := newScripted().
		at(day(0), "AAA", Signal{Kind: Long}).
		at(day(1), "AAA", Signal{Kind: Short})

	res, err := e.Run(context.Background(), series, strat)
	require.NoError(t, err)
	require.Len(t, res.Trades, 2)

	assert.Equal(t, ExitReversal, res.Trades[0].ExitReason)
	assert.Equal(t, DirLong, res.Trades[0].Direction)
	assert.True(t, res.Trades[0].PnL > 0)

	assert.Equal(t, ExitEndOfSeries, res.Trades[1].ExitReason)
	assert.Equal(t, DirShort, res.Trades[1].Direction)
}

func TestReversalCloseCommitsWhenOpenRejected(t *testing.T) {
	t.Parallel()

	e, err := New(baseConfig())
	require.NoError(t, err)
	e.reset()

	ok := e.openPosition("AAA", day(0), 100, DirShort, 0)
	require.True(t, ok)
	e.lastClose["AAA"] = 100

	// Starve the sizing input so the reversal's open leg cannot size.
	e.port.Equity = 50

	require.NoError(t, e.applySignal("AAA", day(1), 100, Signal{Kind: Long}))

	_, open := e.port.Position("AAA")
	assert.False(t, open, "close must commit even when the open is rejected")
	require.Len(t, e.trades, 1)
	assert.Equal(t, ExitReversal, e.trades[0].ExitReason)
	require.Len(t, e.rejections, 1)
	assert.Equal(t, RejectZeroShares, e.rejections[0].Code)
}

func TestRunResetsBetweenRuns(t *testing.T) {
	t.Parallel()

	e, err := New(baseConfig())
	require.NoError(t, err)

	series := mustSeries(t, map[string][]market.Bar{
		"AAA": {flatBar(0, 100), flatBar(1, 105)},
	})
	strat := newScripted().at(day(0), "AAA", Signal{Kind: Long})

	first, err := e.Run(context.Background(), series, strat)
	require.NoError(t, err)
	second, err := e.Run(context.Background(), series, strat)
	require.NoError(t, err)

	assert.Equal(t, first.Trades, second.Trades)
	assert.Len(t, second.Curve, 2)
}

func TestCancelKeepsPartialResult(t *testing.T) {
	t.Parallel()

	e, err := New(baseConfig())
	require.NoError(t, err)

	series := mustSeries(t, map[string][]market.Bar{
		"AAA": {flatBar(0, 100), flatBar(1, 101)},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := e.Run(ctx, series, newScripted())
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.Empty(t, res.Curve)
}

func TestConservationEachBar(t *testing.T) {
	t.Parallel()

	// With a long open, every curve sample must satisfy
	// equity == cash + shares*close within tolerance.
	cfg := baseConfig()
	cfg.MaxPositionPct = 0.4

	e, err := New(cfg)
	require.NoError(t, err)

	closes := []float64{100, 103, 101, 107, 104}
	bars := make([]market.Bar, len(closes))
	for i, c := range closes {
		bars[i] = flatBar(i, c)
	}
	series := mustSeries(t, map[string][]market.Bar{"AAA": bars})
	strat := newScripted().at(day(0), "AAA", Signal{Kind: Long})

	res, err := e.Run(context.Background(), series, strat)
	require.NoError(t, err)
	require.Len(t, res.Trades, 1)

	shares := float64(res.Trades[0].Shares)
	require.Len(t, res.Curve, len(closes))
	for i, sample := range res.Curve {
		want := sample.Cash + shares*closes[i]
		assert.InEpsilon(t, want, sample.Equity, 1e-6, "bar %d", i)
	}
}

func TestPeakEquityMonotonic(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.MaxPositionPct = 0.5

	e, err := New(cfg)
	require.NoError(t, err)

	closes := []float64{100, 110, 90, 95, 120, 80}
	bars := make([]market.Bar, len(closes))
	for i, c := range closes {
		bars[i] = flatBar(i, c)
	}
	series := mustSeries(t, map[string][]market.Bar{"AAA": bars})
	strat := newScripted().at(day(0), "AAA", Signal{Kind: Long})

	res, err := e.Run(context.Background(), series, strat)
	require.NoError(t, err)

	peak := 0.0
	for _, s := range res.Curve {
		if s.Equity > peak {
			peak = s.Equity
		}
	}
	assert.InDelta(t, peak, res.PeakEquity, 1e-9)
	assert.GreaterOrEqual(t, res.MaxDrawdown, 0.0)
	assert.LessOrEqual(t, res.MaxDrawdown, 1.0)
}
