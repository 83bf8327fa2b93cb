package journal

import (
	"database/sql"
	"fmt"
)

// GetRun returns the summary row for a run.
func (j *SQLite) GetRun(runID string) (RunRecord, error) {
	var rec RunRecord

	row := j.db.QueryRow(`
		SELECT run_id, created, strategy, start_time, end_time, initial_capital, final_equity,
		       total_return, max_drawdown, sharpe, trades, wins, losses, win_rate, profit_factor
		FROM runs
		WHERE run_id = ?`, runID)

	err := row.Scan(
		&rec.RunID, &rec.Created, &rec.Strategy, &rec.Start, &rec.End,
		&rec.InitialCapital, &rec.FinalEquity, &rec.TotalReturn, &rec.MaxDrawdown,
		&rec.Sharpe, &rec.Trades, &rec.Wins, &rec.Losses, &rec.WinRate, &rec.ProfitFactor,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return RunRecord{}, fmt.Errorf("run %q not found", runID)
		}
		return RunRecord{}, err
	}
	return rec, nil
}

// ListRuns returns all run summaries, newest first. Run IDs are ULIDs, so
// lexicographic order is creation order.
func (j *SQLite) ListRuns() ([]RunRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, created, strategy, start_time, end_time, initial_capital, final_equity,
		       total_return, max_drawdown, sharpe, trades, wins, losses, win_rate, profit_factor
		FROM runs
		ORDER BY run_id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var rec RunRecord
		if err := rows.Scan(
			&rec.RunID, &rec.Created, &rec.Strategy, &rec.Start, &rec.End,
			&rec.InitialCapital, &rec.FinalEquity, &rec.TotalReturn, &rec.MaxDrawdown,
			&rec.Sharpe, &rec.Trades, &rec.Wins, &rec.Losses, &rec.WinRate, &rec.ProfitFactor,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListTradesByRun returns a run's closed trades in exit-time order.
func (j *SQLite) ListTradesByRun(runID string) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, symbol, direction, shares, entry_price, exit_price, entry_time, exit_time, pnl, pnl_pct, reason
		FROM trades
		WHERE run_id = ?
		ORDER BY exit_time ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var rec TradeRecord
		if err := rows.Scan(
			&rec.RunID, &rec.Symbol, &rec.Direction, &rec.Shares,
			&rec.EntryPrice, &rec.ExitPrice, &rec.EntryTime, &rec.ExitTime,
			&rec.PnL, &rec.PnLPct, &rec.Reason,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListEquityByRun returns a run's equity curve in time order.
func (j *SQLite) ListEquityByRun(runID string) ([]EquitySnapshot, error) {
	rows, err := j.db.Query(`
		SELECT run_id, time, equity, cash
		FROM equity
		WHERE run_id = ?
		ORDER BY time ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquitySnapshot
	for rows.Next() {
		var rec EquitySnapshot
		if err := rows.Scan(&rec.RunID, &rec.Time, &rec.Equity, &rec.Cash); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
