package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/backsim/config"
	"github.com/rustyeddy/backsim/engine"
	"github.com/rustyeddy/backsim/journal"
	"github.com/rustyeddy/backsim/market"
	"github.com/rustyeddy/backsim/perf"
	"github.com/rustyeddy/backsim/strategies"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a backtest from a configuration file",
	Long: `Run replays the configured strategy over the configured bar files and
prints the performance report.

Example:
  backsim run --config backtest.yaml`,
	RunE: runBacktest,
}

var runConfigPath string

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "", "path to YAML or JSON config (required)")
	runCmd.MarkFlagRequired("config")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return err
	}

	engCfg, err := cfg.Engine.Build()
	if err != nil {
		return err
	}

	strat, err := strategies.ByName(cfg.Strategy.Name, strategyParams(cfg.Strategy))
	if err != nil {
		return fmt.Errorf("strategy: %w", err)
	}

	series, err := loadSeries(cfg.Data)
	if err != nil {
		return err
	}

	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	opts := []engine.Option{engine.WithLogger(log)}

	var sink journal.Journal
	var sqliteSink *journal.SQLite
	switch cfg.Journal.Type {
	case "csv":
		sink, err = journal.NewCSV(cfg.Journal.TradesFile, cfg.Journal.EquityFile)
	case "sqlite":
		sqliteSink, err = journal.NewSQLite(cfg.Journal.DBPath)
		sink = sqliteSink
	}
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	if sink != nil {
		defer sink.Close()
		opts = append(opts, engine.WithJournal(sink))
	}

	eng, err := engine.New(engCfg, opts...)
	if err != nil {
		return err
	}

	res, err := eng.Run(context.Background(), series, strat)
	if err != nil {
		return err
	}

	metrics := perf.Analyze(res)

	if sqliteSink != nil {
		if err := sqliteSink.RecordRun(runRecord(res, metrics, strat.Name())); err != nil {
			return fmt.Errorf("record run: %w", err)
		}
	}

	fmt.Printf("Run %s (%s)\n\n", res.RunID, strat.Name())
	fmt.Print(metrics)
	if len(res.Rejections) > 0 {
		fmt.Printf("\nRejected entries: %d (see log)\n", len(res.Rejections))
	}
	return nil
}

func strategyParams(sc config.StrategyConfig) strategies.Params {
	p := strategies.DefaultParams()
	if sc.Fast > 0 {
		p.Fast = sc.Fast
	}
	if sc.Slow > 0 {
		p.Slow = sc.Slow
	}
	if sc.Period > 0 {
		p.Period = sc.Period
	}
	if sc.Mult > 0 {
		p.Mult = sc.Mult
	}
	if sc.Lower > 0 {
		p.Lower = sc.Lower
	}
	if sc.Upper > 0 {
		p.Upper = sc.Upper
	}
	p.ATRPeriod = sc.ATRPeriod
	p.AllowShort = sc.AllowShort
	return p
}

func loadSeries(dc config.DataConfig) (*market.Series, error) {
	bars := make(map[string][]market.Bar, len(dc.Bars))
	for symbol, path := range dc.Bars {
		bs, err := market.LoadCSV(path)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", symbol, err)
		}
		bars[symbol] = bs
	}
	return market.NewSeries(bars)
}

func runRecord(res *engine.Result, m perf.Metrics, strategy string) journal.RunRecord {
	return journal.RunRecord{
		RunID:          res.RunID,
		Created:        time.Now().UTC(),
		Strategy:       strategy,
		Start:          res.Start,
		End:            res.End,
		InitialCapital: res.InitialCapital,
		FinalEquity:    res.FinalEquity,
		TotalReturn:    m.TotalReturn,
		MaxDrawdown:    m.MaxDrawdown,
		Sharpe:         m.Sharpe,
		Trades:         m.TotalTrades,
		Wins:           m.WinningTrades,
		Losses:         m.LosingTrades,
		WinRate:        m.WinRate,
		ProfitFactor:   m.ProfitFactor,
	}
}
