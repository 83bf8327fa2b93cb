// Package engine is the portfolio-level backtest core: it walks a bar
// series in timestamp order, opens and closes positions under capital and
// risk constraints, applies slippage and commission, and accumulates the
// equity curve and closed-trade list. One engine drives one run at a time;
// independent runs share nothing and may execute in parallel.
package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/backsim/internal/id"
	"github.com/rustyeddy/backsim/journal"
	"github.com/rustyeddy/backsim/market"
)

type Engine struct {
	cfg     Config
	log     *zap.Logger
	journal journal.Journal
	runID   string

	port          *Portfolio
	trades        []ClosedTrade
	curve         EquityCurve
	rejections    []Rejection
	lastClose     map[string]float64
	closedThisBar map[string]bool
}

// Option configures optional engine collaborators.
type Option func(*Engine)

// WithLogger attaches a structured logger; the default is a nop logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithJournal streams trade records and equity snapshots to j as the run
// progresses.
func WithJournal(j journal.Journal) Option {
	return func(e *Engine) { e.journal = j }
}

// WithRunID overrides the generated run identifier, used to key journal
// rows. The identifier never influences simulation output.
func WithRunID(runID string) Option {
	return func(e *Engine) { e.runID = runID }
}

// New validates cfg and builds an engine. Configuration errors surface
// immediately; they are never clamped.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:   cfg,
		log:   zap.NewNop(),
		runID: id.New(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.reset()
	return e, nil
}

// RunID returns the identifier journal rows are keyed by.
func (e *Engine) RunID() string { return e.runID }

func (e *Engine) reset() {
	e.port = newPortfolio(e.cfg.InitialCapital)
	e.trades = nil
	e.curve = nil
	e.rejections = nil
	e.lastClose = make(map[string]float64)
	e.closedThisBar = make(map[string]bool)
}

// Result is everything a completed (or cancelled) run produced.
type Result struct {
	RunID          string
	Start          time.Time
	End            time.Time
	InitialCapital float64
	FinalEquity    float64
	FinalCash      float64
	PeakEquity     float64
	MaxDrawdown    float64

	Trades     []ClosedTrade
	Curve      EquityCurve
	Rejections []Rejection
}

// Run executes the simulation: for each bar the risk gate runs first (and
// may force-close), then the strategy's signal is applied through the
// execution model, then the equity tracker records state. At the end of
// the series all open positions are force-closed at the last close.
//
// Cancelling ctx stops consuming bars; the partial result returned
// alongside ctx.Err() remains valid and inspectable.
func (e *Engine) Run(ctx context.Context, series *market.Series, strat Strategy) (*Result, error) {
	if series == nil || series.Len() == 0 {
		return nil, fmt.Errorf("engine: empty series")
	}
	if strat == nil {
		return nil, fmt.Errorf("engine: strategy is required")
	}

	e.reset()
	strat.Reset()

	e.log.Info("run started",
		zap.String("run_id", e.runID),
		zap.String("strategy", strat.Name()),
		zap.Strings("symbols", series.Symbols()),
		zap.Int("bars", series.Len()),
		zap.Float64("initial_capital", e.cfg.InitialCapital),
	)

	steps := series.Steps()
	var lastTime time.Time

	for _, step := range steps {
		select {
		case <-ctx.Done():
			res := e.result(series.Start(), lastTime)
			return res, ctx.Err()
		default:
		}

		lastTime = step.Time
		for k := range e.closedThisBar {
			delete(e.closedThisBar, k)
		}

		// Risk gate first: protective exits precede the bar's signals.
		for _, sb := range step.Bars {
			e.lastClose[sb.Symbol] = sb.Bar.Close
			closed, err := e.riskGate(sb.Symbol, sb.Bar)
			if err != nil {
				return nil, err
			}
			if closed {
				e.closedThisBar[sb.Symbol] = true
			}
		}

		// The strategy sees every bar so its indicators stay warm, but a
		// symbol force-closed this bar has its signal suppressed.
		for _, sb := range step.Bars {
			sig := strat.OnBar(sb.Symbol, sb.Bar)
			if sig.Kind == None || e.closedThisBar[sb.Symbol] {
				continue
			}
			if err := e.applySignal(sb.Symbol, step.Time, sb.Bar.Close, sig); err != nil {
				return nil, err
			}
		}

		if err := e.recordEquity(step.Time); err != nil {
			return nil, err
		}
	}

	// Force-close whatever is still open at the final close.
	for _, sym := range e.port.openSymbols() {
		if err := e.closePosition(sym, lastTime, e.lastClose[sym], ExitEndOfSeries, true); err != nil {
			return nil, err
		}
	}
	e.port.Equity = e.port.Cash

	res := e.result(series.Start(), lastTime)
	e.log.Info("run finished",
		zap.String("run_id", e.runID),
		zap.Int("trades", len(res.Trades)),
		zap.Float64("final_equity", res.FinalEquity),
		zap.Float64("max_drawdown", res.MaxDrawdown),
	)
	return res, nil
}

// applySignal routes one signal through the execution model. A reversal is
// two atomic operations: the close commits even if the subsequent open is
// rejected for capital reasons.
func (e *Engine) applySignal(symbol string, ts time.Time, price float64, sig Signal) error {
	switch sig.Kind {
	case Long:
		if pos, ok := e.port.Position(symbol); ok {
			if pos.Direction == DirLong {
				return nil
			}
			if err := e.closePosition(symbol, ts, price, ExitReversal, true); err != nil {
				return err
			}
		}
		e.openPosition(symbol, ts, price, DirLong, sig.ATR)

	case Short:
		if pos, ok := e.port.Position(symbol); ok {
			if pos.Direction == DirShort {
				return nil
			}
			if err := e.closePosition(symbol, ts, price, ExitReversal, true); err != nil {
				return err
			}
		}
		e.openPosition(symbol, ts, price, DirShort, sig.ATR)

	case ExitLong:
		if pos, ok := e.port.Position(symbol); ok && pos.Direction == DirLong {
			return e.closePosition(symbol, ts, price, ExitSignal, true)
		}

	case ExitShort:
		if pos, ok := e.port.Position(symbol); ok && pos.Direction == DirShort {
			return e.closePosition(symbol, ts, price, ExitSignal, true)
		}
	}
	return nil
}

func (e *Engine) result(start, end time.Time) *Result {
	return &Result{
		RunID:          e.runID,
		Start:          start,
		End:            end,
		InitialCapital: e.cfg.InitialCapital,
		FinalEquity:    e.port.Equity,
		FinalCash:      e.port.Cash,
		PeakEquity:     e.port.PeakEquity,
		MaxDrawdown:    e.port.MaxDrawdown,
		Trades:         e.trades,
		Curve:          e.curve,
		Rejections:     e.rejections,
	}
}
