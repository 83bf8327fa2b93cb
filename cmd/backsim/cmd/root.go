package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "backsim",
	Short: "A portfolio-level backtest simulator for trading strategies",
	Long: `Backsim replays trading strategy signals against historical OHLCV bars
and produces realistic performance statistics.

It provides tools for:
  - Backtesting strategies bar by bar with slippage and commission
  - Stop-loss, take-profit, trailing-stop and max-hold risk management
  - Equity-curve and closed-trade journaling to CSV or SQLite
  - Risk-adjusted performance metrics (Sharpe, Sortino, Calmar)
  - Parallel parameter sweeps across independent runs`,
}

var verbose bool

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}
