package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/backsim/config"
	"github.com/rustyeddy/backsim/engine"
	"github.com/rustyeddy/backsim/strategies"
	"github.com/rustyeddy/backsim/sweep"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Sweep risk parameters over a grid of independent runs",
	Long: `Sweep expands comma-separated parameter axes into a grid, runs every
cell in parallel over the same bars, and prints a comparison table sorted
by Sharpe ratio.

Example:
  backsim sweep --config backtest.yaml --stop-loss 0.03,0.05 --take-profit 0.08,0.12`,
	RunE: runSweep,
}

var (
	swConfigPath string
	swStopLoss   string
	swTakeProfit string
	swTrailing   string
	swPosPct     string
	swWorkers    int
)

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().StringVarP(&swConfigPath, "config", "c", "", "path to YAML or JSON config (required)")
	sweepCmd.Flags().StringVar(&swStopLoss, "stop-loss", "", "comma-separated stop_loss_pct values")
	sweepCmd.Flags().StringVar(&swTakeProfit, "take-profit", "", "comma-separated take_profit_pct values")
	sweepCmd.Flags().StringVar(&swTrailing, "trailing", "", "comma-separated trailing_stop_pct values")
	sweepCmd.Flags().StringVar(&swPosPct, "position-pct", "", "comma-separated max_position_pct values")
	sweepCmd.Flags().IntVar(&swWorkers, "workers", 0, "parallel workers (default GOMAXPROCS)")

	sweepCmd.MarkFlagRequired("config")
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(swConfigPath)
	if err != nil {
		return err
	}

	base, err := cfg.Engine.Build()
	if err != nil {
		return err
	}

	grid := sweep.Grid{}
	if grid.StopLossPct, err = parseAxis(swStopLoss); err != nil {
		return fmt.Errorf("--stop-loss: %w", err)
	}
	if grid.TakeProfitPct, err = parseAxis(swTakeProfit); err != nil {
		return fmt.Errorf("--take-profit: %w", err)
	}
	if grid.TrailingStopPct, err = parseAxis(swTrailing); err != nil {
		return fmt.Errorf("--trailing: %w", err)
	}
	if grid.MaxPositionPct, err = parseAxis(swPosPct); err != nil {
		return fmt.Errorf("--position-pct: %w", err)
	}

	runs := grid.Expand(base)
	if len(runs) == 0 {
		return fmt.Errorf("empty sweep grid")
	}

	// Fail on a bad strategy name or params before any cell runs.
	if _, err := strategies.ByName(cfg.Strategy.Name, strategyParams(cfg.Strategy)); err != nil {
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

	newStrategy := func() engine.Strategy {
		s, serr := strategies.ByName(cfg.Strategy.Name, strategyParams(cfg.Strategy))
		if serr != nil {
			panic(serr) // construction already succeeded once above
		}
		return s
	}

	outcomes := sweep.Execute(context.Background(), series, newStrategy, runs, sweep.Options{
		Workers: swWorkers,
		Logger:  log,
	})

	sort.SliceStable(outcomes, func(i, j int) bool {
		return outcomes[i].Metrics.Sharpe > outcomes[j].Metrics.Sharpe
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tRETURN\tSHARPE\tMAX DD\tTRADES\tWIN RATE")
	for _, o := range outcomes {
		if o.Err != nil {
			fmt.Fprintf(w, "%s\tERROR: %v\t\t\t\t\n", o.Name, o.Err)
			continue
		}
		m := o.Metrics
		fmt.Fprintf(w, "%s\t%+.2f%%\t%.2f\t%.2f%%\t%d\t%.1f%%\n",
			o.Name, m.TotalReturn*100, m.Sharpe, m.MaxDrawdown*100, m.TotalTrades, m.WinRate*100)
	}
	return w.Flush()
}

func parseAxis(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	vals := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("bad value %q", p)
		}
		vals = append(vals, v)
	}
	return vals, nil
}
