package engine

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/backsim/journal"
	"github.com/rustyeddy/backsim/risk"
)

// Portfolio is the accounting state of one run: cash, the open-position
// ledger, and the running equity extremes. Each run owns its own
// Portfolio, so independent runs can execute in parallel with no sharing.
type Portfolio struct {
	Cash        float64
	Equity      float64
	PeakEquity  float64
	MaxDrawdown float64

	positions map[string]*Position
}

func newPortfolio(capital float64) *Portfolio {
	return &Portfolio{
		Cash:       capital,
		Equity:     capital,
		PeakEquity: capital,
		positions:  make(map[string]*Position),
	}
}

// Position returns the open position for symbol, if any.
func (p *Portfolio) Position(symbol string) (*Position, bool) {
	pos, ok := p.positions[symbol]
	return pos, ok
}

// OpenCount is the number of open positions.
func (p *Portfolio) OpenCount() int { return len(p.positions) }

// openSymbols returns open-position symbols sorted, so every walk over
// the ledger is deterministic.
func (p *Portfolio) openSymbols() []string {
	syms := make([]string, 0, len(p.positions))
	for sym := range p.positions {
		syms = append(syms, sym)
	}
	sort.Strings(syms)
	return syms
}

// availableCapital is cash minus the configured equity reserve, floored
// at zero.
func (p *Portfolio) availableCapital(reservePct float64) float64 {
	avail := p.Cash - p.Equity*reservePct
	if avail < 0 {
		return 0
	}
	return avail
}

// Rejection records a per-bar soft failure. The run continues; a single
// unsizable signal must never abort an otherwise-valid multi-year run.
type Rejection struct {
	Time   time.Time
	Symbol string
	Code   string
	Reason string
}

// Rejection codes emitted by the execution model.
const (
	RejectHasPosition  = "HAS_POSITION"
	RejectMaxPositions = "MAX_POSITIONS"
	RejectZeroShares   = "ZERO_SHARES"
	RejectInsufficient = "INSUFFICIENT_CAPITAL"
)

func (e *Engine) reject(ts time.Time, symbol, code, reason string) {
	e.rejections = append(e.rejections, Rejection{Time: ts, Symbol: symbol, Code: code, Reason: reason})
	e.log.Warn("entry rejected",
		zap.Time("time", ts),
		zap.String("symbol", symbol),
		zap.String("code", code),
		zap.String("reason", reason),
	)
}

// commission applies the fixed-or-percentage hybrid: a deliberate floor
// that models minimum-ticket broker fees.
func (e *Engine) commission(tradeValue float64) float64 {
	c := tradeValue * e.cfg.CommissionPct
	if c < e.cfg.CommissionFixed {
		return e.cfg.CommissionFixed
	}
	return c
}

// positionSize picks the share count for a new entry. With a volatility
// estimate and a risk budget configured, size so a stop-out loses at most
// RiskPerTradePct of equity; either way the position value is capped at
// MaxPositionPct of equity.
func (e *Engine) positionSize(entryPrice, atr float64) int {
	capShares := int(e.port.Equity * e.cfg.MaxPositionPct / entryPrice)

	if atr > 0 && e.cfg.RiskPerTradePct > 0 && e.cfg.ATRStopMult > 0 {
		r := risk.Calculate(risk.Inputs{
			Equity:       e.port.Equity,
			RiskPct:      e.cfg.RiskPerTradePct,
			StopDistance: atr * e.cfg.ATRStopMult,
		})
		if r.Shares < capShares {
			return r.Shares
		}
		return capShares
	}

	return capShares
}

// entryStops derives protective prices from the raw signal price. An ATR
// stop takes precedence over the percentage stop when both are available.
func (e *Engine) entryStops(price float64, dir Direction, atr float64) (stop, take float64) {
	d := float64(dir)
	switch {
	case e.cfg.ATRStopMult > 0 && atr > 0:
		stop = price - d*atr*e.cfg.ATRStopMult
	case e.cfg.StopLossPct > 0:
		stop = price * (1 - d*e.cfg.StopLossPct)
	}
	if e.cfg.TakeProfitPct > 0 {
		take = price * (1 + d*e.cfg.TakeProfitPct)
	}
	if stop < 0 {
		stop = 0
	}
	return stop, take
}

// openPosition admits a new position for symbol at the bar's close price.
// Buys pay price*(1+slippage); shorts receive price*(1-slippage). When the
// full size is unaffordable the order degrades to the largest share count
// the available capital covers, but only if that is at least half the
// desired size; otherwise the entry is rejected. Reports whether a
// position was opened.
func (e *Engine) openPosition(symbol string, ts time.Time, price float64, dir Direction, atr float64) bool {
	if _, ok := e.port.Position(symbol); ok {
		e.reject(ts, symbol, RejectHasPosition, "symbol already has an open position")
		return false
	}
	if e.port.OpenCount() >= e.cfg.MaxPositions {
		e.reject(ts, symbol, RejectMaxPositions, "portfolio at max_positions")
		return false
	}

	entry := price * (1 + e.cfg.SlippagePct*float64(dir))

	shares := e.positionSize(entry, atr)
	if shares <= 0 {
		e.reject(ts, symbol, RejectZeroShares, "sizing produced zero shares")
		return false
	}

	value := entry * float64(shares)
	cost := value + e.commission(value)

	if cost > e.port.Cash {
		avail := e.port.availableCapital(e.cfg.ReserveCashPct)
		resized := int(avail / (entry * (1 + e.cfg.CommissionPct)))
		if resized <= 0 || float64(resized) < 0.5*float64(shares) {
			e.reject(ts, symbol, RejectInsufficient, "affordable size below half the desired size")
			return false
		}
		shares = resized
		value = entry * float64(shares)
		cost = value + e.commission(value)
	}

	e.port.Cash -= cost

	stop, take := e.entryStops(price, dir, atr)
	pos := &Position{
		Symbol:     symbol,
		EntryTime:  ts,
		EntryPrice: entry,
		Shares:     shares,
		Direction:  dir,
		EntryValue: value,
		Stop:       stop,
		Take:       take,
		Watermark:  price,
	}
	e.port.positions[symbol] = pos

	e.log.Debug("position opened",
		zap.Time("time", ts),
		zap.String("symbol", symbol),
		zap.Stringer("direction", dir),
		zap.Int("shares", shares),
		zap.Float64("entry", entry),
		zap.Float64("stop", stop),
		zap.Float64("take", take),
	)
	return true
}

// closePosition settles the open position for symbol at price. Risk-gate
// exits fill exactly at the trigger price (slip=false); market exits fill
// at the close with slippage in the direction opposite the entry. The
// trade PnL is price-based; commissions are deducted from cash only.
// No-op when the symbol has no open position.
func (e *Engine) closePosition(symbol string, ts time.Time, price float64, reason ExitReason, slip bool) error {
	pos, ok := e.port.Position(symbol)
	if !ok {
		return nil
	}

	exit := price
	if slip {
		exit = price * (1 - e.cfg.SlippagePct*float64(pos.Direction))
	}

	value := exit * float64(pos.Shares)
	comm := e.commission(value)

	// Longs collect sale proceeds; shorts collect their collateral plus
	// the favorable move, mirroring the mark-to-market model.
	if pos.Direction == DirLong {
		e.port.Cash += value - comm
	} else {
		e.port.Cash += pos.EntryValue + (pos.EntryPrice-exit)*float64(pos.Shares) - comm
	}

	pos.updateExcursion(exit)

	pnl := (exit - pos.EntryPrice) * float64(pos.Shares) * float64(pos.Direction)
	trade := ClosedTrade{
		Symbol:     symbol,
		EntryTime:  pos.EntryTime,
		ExitTime:   ts,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  exit,
		Shares:     pos.Shares,
		Direction:  pos.Direction,
		PnL:        pnl,
		PnLPct:     pnl / pos.EntryValue,
		ExitReason: reason,
		HoldPeriod: ts.Sub(pos.EntryTime),
		MAE:        pos.MAE,
		MFE:        pos.MFE,
	}
	e.trades = append(e.trades, trade)
	delete(e.port.positions, symbol)

	e.log.Debug("position closed",
		zap.Time("time", ts),
		zap.String("symbol", symbol),
		zap.String("reason", string(reason)),
		zap.Float64("exit", exit),
		zap.Float64("pnl", pnl),
	)

	if e.journal != nil {
		if err := e.journal.RecordTrade(journal.TradeRecord{
			RunID:      e.runID,
			Symbol:     symbol,
			Direction:  pos.Direction.String(),
			Shares:     pos.Shares,
			EntryPrice: pos.EntryPrice,
			ExitPrice:  exit,
			EntryTime:  pos.EntryTime,
			ExitTime:   ts,
			PnL:        pnl,
			PnLPct:     trade.PnLPct,
			Reason:     string(reason),
		}); err != nil {
			return err
		}
	}
	return nil
}
