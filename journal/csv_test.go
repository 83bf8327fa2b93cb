package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTrade(runID string) TradeRecord {
	return TradeRecord{
		RunID:      runID,
		Symbol:     "AAA",
		Direction:  "LONG",
		Shares:     998,
		EntryPrice: 100.05,
		ExitPrice:  95,
		EntryTime:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		ExitTime:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		PnL:        -5039.9,
		PnLPct:     -0.0504657,
		Reason:     "StopLoss",
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVJournal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tradesPath := filepath.Join(dir, "trades.csv")
	equityPath := filepath.Join(dir, "equity.csv")

	j, err := NewCSV(tradesPath, equityPath)
	require.NoError(t, err)

	require.NoError(t, j.RecordTrade(sampleTrade("run-1")))
	require.NoError(t, j.RecordEquity(EquitySnapshot{
		RunID:  "run-1",
		Time:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Equity: 99850.2501,
		Cash:   50.2501,
	}))
	require.NoError(t, j.Close())

	trades := readCSV(t, tradesPath)
	require.Len(t, trades, 2)
	assert.Equal(t, []string{"run_id", "symbol", "direction", "shares", "entry_price", "exit_price", "entry_time", "exit_time", "pnl", "pnl_pct", "reason"}, trades[0])
	assert.Equal(t, "run-1", trades[1][0])
	assert.Equal(t, "AAA", trades[1][1])
	assert.Equal(t, "998", trades[1][3])
	assert.Equal(t, "100.050000", trades[1][4])
	assert.Equal(t, "2024-01-01T00:00:00Z", trades[1][6])
	assert.Equal(t, "StopLoss", trades[1][10])

	equity := readCSV(t, equityPath)
	require.Len(t, equity, 2)
	assert.Equal(t, []string{"run_id", "time", "equity", "cash"}, equity[0])
	assert.Equal(t, "99850.250100", equity[1][2])
}

func TestCSVJournalFlushesPerRecord(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tradesPath := filepath.Join(dir, "trades.csv")

	j, err := NewCSV(tradesPath, filepath.Join(dir, "equity.csv"))
	require.NoError(t, err)
	defer j.Close()

	require.NoError(t, j.RecordTrade(sampleTrade("run-1")))

	// The row is readable before Close: partial runs stay inspectable.
	rows := readCSV(t, tradesPath)
	assert.Len(t, rows, 2)
}
