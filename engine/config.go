package engine

import (
	"fmt"
	"time"
)

// Config holds every knob of one simulation run. Validate before use;
// invalid parameters fail fast at construction and are never clamped.
type Config struct {
	InitialCapital  float64 // starting cash, must be positive
	CommissionPct   float64 // commission as a fraction of trade value
	CommissionFixed float64 // minimum-ticket commission per fill
	SlippagePct     float64 // adverse fill assumption, fraction of price

	MaxPositions   int     // concurrent position cap across symbols
	MaxPositionPct float64 // per-position capital cap, (0, 1]
	ReserveCashPct float64 // equity fraction held back from new entries, [0, 1)

	StopLossPct     float64       // 0 disables
	TakeProfitPct   float64       // 0 disables
	TrailingStopPct float64       // 0 disables
	ATRStopMult     float64       // ATR stop distance multiplier; 0 disables
	RiskPerTradePct float64       // volatility sizing risk budget; 0 disables
	MaxHold         time.Duration // force exit after this hold period; 0 disables

	// CheckIntrabarStops tests stops against the bar's high/low rather
	// than just the close. Realistic fills; on by default.
	CheckIntrabarStops bool
}

// DefaultConfig mirrors the parameter set a plain equity backtest starts
// from: 100k capital, 0.1% commission with a $1 floor, 0.05% slippage,
// ten positions of at most 10% each with a 5% cash reserve.
func DefaultConfig() Config {
	return Config{
		InitialCapital:     100_000,
		CommissionPct:      0.001,
		CommissionFixed:    1.0,
		SlippagePct:        0.0005,
		MaxPositions:       10,
		MaxPositionPct:     0.10,
		ReserveCashPct:     0.05,
		CheckIntrabarStops: true,
	}
}

// ConfigError reports an invalid engine parameter.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s %s", e.Field, e.Reason)
}

// Validate checks the configuration and returns a *ConfigError describing
// the first violation found.
func (c Config) Validate() error {
	if c.InitialCapital <= 0 {
		return &ConfigError{"initial_capital", "must be positive"}
	}
	if c.CommissionPct < 0 {
		return &ConfigError{"commission_pct", "must be non-negative"}
	}
	if c.CommissionFixed < 0 {
		return &ConfigError{"commission_fixed", "must be non-negative"}
	}
	if c.SlippagePct < 0 {
		return &ConfigError{"slippage_pct", "must be non-negative"}
	}
	if c.MaxPositions < 1 {
		return &ConfigError{"max_positions", "must be at least 1"}
	}
	if c.MaxPositionPct <= 0 || c.MaxPositionPct > 1 {
		return &ConfigError{"max_position_pct", "must be in (0, 1]"}
	}
	if c.ReserveCashPct < 0 || c.ReserveCashPct >= 1 {
		return &ConfigError{"reserve_cash_pct", "must be in [0, 1)"}
	}
	if c.StopLossPct < 0 || c.StopLossPct >= 1 {
		return &ConfigError{"stop_loss_pct", "must be in [0, 1)"}
	}
	if c.TakeProfitPct < 0 {
		return &ConfigError{"take_profit_pct", "must be non-negative"}
	}
	if c.TrailingStopPct < 0 || c.TrailingStopPct >= 1 {
		return &ConfigError{"trailing_stop_pct", "must be in [0, 1)"}
	}
	if c.ATRStopMult < 0 {
		return &ConfigError{"atr_stop_mult", "must be non-negative"}
	}
	if c.RiskPerTradePct < 0 || c.RiskPerTradePct > 1 {
		return &ConfigError{"risk_per_trade_pct", "must be in [0, 1]"}
	}
	if c.MaxHold < 0 {
		return &ConfigError{"max_hold", "must be non-negative"}
	}
	return nil
}
