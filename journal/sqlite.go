package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite persists records to a SQLite database, creating the schema on
// open.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(run_id, symbol, direction, shares, entry_price, exit_price, entry_time, exit_time, pnl, pnl_pct, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.RunID, t.Symbol, t.Direction, t.Shares, t.EntryPrice,
		t.ExitPrice, t.EntryTime, t.ExitTime, t.PnL, t.PnLPct, t.Reason,
	)
	return err
}

func (j *SQLite) RecordEquity(e EquitySnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO equity
		(run_id, time, equity, cash)
		VALUES (?, ?, ?, ?)`,
		e.RunID, e.Time, e.Equity, e.Cash,
	)
	return err
}

func (j *SQLite) RecordRun(r RunRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO runs
		(run_id, created, strategy, start_time, end_time, initial_capital, final_equity,
		 total_return, max_drawdown, sharpe, trades, wins, losses, win_rate, profit_factor)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created, r.Strategy, r.Start, r.End, r.InitialCapital, r.FinalEquity,
		r.TotalReturn, r.MaxDrawdown, r.Sharpe, r.Trades, r.Wins, r.Losses, r.WinRate, r.ProfitFactor,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
