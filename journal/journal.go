// Package journal persists what a backtest run produces: closed trades,
// the equity curve, and per-run summary rows, to CSV files or SQLite.
package journal

import "time"

// TradeRecord is one closed trade as persisted.
type TradeRecord struct {
	RunID      string
	Symbol     string
	Direction  string
	Shares     int
	EntryPrice float64
	ExitPrice  float64
	EntryTime  time.Time
	ExitTime   time.Time
	PnL        float64
	PnLPct     float64
	Reason     string
}

// EquitySnapshot is one equity-curve sample as persisted.
type EquitySnapshot struct {
	RunID  string
	Time   time.Time
	Equity float64
	Cash   float64
}

// RunRecord summarizes a completed run so runs stay comparable across
// invocations.
type RunRecord struct {
	RunID          string
	Created        time.Time
	Strategy       string
	Start          time.Time
	End            time.Time
	InitialCapital float64
	FinalEquity    float64
	TotalReturn    float64
	MaxDrawdown    float64
	Sharpe         float64
	Trades         int
	Wins           int
	Losses         int
	WinRate        float64
	ProfitFactor   float64
}

// Journal receives records as a run progresses.
type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}
