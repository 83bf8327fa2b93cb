// Package config loads and validates run configuration files, YAML or
// JSON by content.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/backsim/engine"
)

// Config is the complete configuration of one backtest invocation.
type Config struct {
	Engine   EngineConfig   `json:"engine" yaml:"engine"`
	Strategy StrategyConfig `json:"strategy" yaml:"strategy"`
	Data     DataConfig     `json:"data" yaml:"data"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
}

// EngineConfig mirrors engine.Config with file-friendly field names and a
// duration string for the hold limit.
type EngineConfig struct {
	InitialCapital  float64 `json:"initial_capital" yaml:"initial_capital"`
	CommissionPct   float64 `json:"commission_pct" yaml:"commission_pct"`
	CommissionFixed float64 `json:"commission_fixed" yaml:"commission_fixed"`
	SlippagePct     float64 `json:"slippage_pct" yaml:"slippage_pct"`

	MaxPositions   int     `json:"max_positions" yaml:"max_positions"`
	MaxPositionPct float64 `json:"max_position_pct" yaml:"max_position_pct"`
	ReserveCashPct float64 `json:"reserve_cash_pct" yaml:"reserve_cash_pct"`

	StopLossPct     float64 `json:"stop_loss_pct,omitempty" yaml:"stop_loss_pct,omitempty"`
	TakeProfitPct   float64 `json:"take_profit_pct,omitempty" yaml:"take_profit_pct,omitempty"`
	TrailingStopPct float64 `json:"trailing_stop_pct,omitempty" yaml:"trailing_stop_pct,omitempty"`
	ATRStopMult     float64 `json:"atr_stop_mult,omitempty" yaml:"atr_stop_mult,omitempty"`
	RiskPerTradePct float64 `json:"risk_per_trade_pct,omitempty" yaml:"risk_per_trade_pct,omitempty"`
	MaxHold         string  `json:"max_hold,omitempty" yaml:"max_hold,omitempty"` // e.g. "240h"

	CloseOnlyStops bool `json:"close_only_stops,omitempty" yaml:"close_only_stops,omitempty"`
}

// StrategyConfig selects and tunes the signal provider.
type StrategyConfig struct {
	Name       string  `json:"name" yaml:"name"`
	Fast       int     `json:"fast,omitempty" yaml:"fast,omitempty"`
	Slow       int     `json:"slow,omitempty" yaml:"slow,omitempty"`
	Period     int     `json:"period,omitempty" yaml:"period,omitempty"`
	Mult       float64 `json:"mult,omitempty" yaml:"mult,omitempty"`
	Lower      float64 `json:"lower,omitempty" yaml:"lower,omitempty"`
	Upper      float64 `json:"upper,omitempty" yaml:"upper,omitempty"`
	ATRPeriod  int     `json:"atr_period,omitempty" yaml:"atr_period,omitempty"`
	AllowShort bool    `json:"allow_short,omitempty" yaml:"allow_short,omitempty"`
}

// DataConfig maps each symbol to its OHLCV CSV file.
type DataConfig struct {
	Bars map[string]string `json:"bars" yaml:"bars"`
}

// JournalConfig selects where records go: "csv", "sqlite", or "none".
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"`
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LoadFromFile reads a config file, trying YAML first and falling back to
// JSON, then validates it.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the config, YAML for .yaml/.yml paths and indented
// JSON otherwise.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the whole configuration; engine parameters are checked
// by the engine's own validator.
func (c *Config) Validate() error {
	if _, err := c.Engine.Build(); err != nil {
		return err
	}
	if c.Strategy.Name == "" {
		return fmt.Errorf("strategy.name is required")
	}
	if len(c.Data.Bars) == 0 {
		return fmt.Errorf("data.bars must map at least one symbol to a CSV file")
	}
	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file and equity_file required for csv type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for sqlite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite' or 'none'")
	}
	return nil
}

// Build converts the file representation into a validated engine.Config.
func (ec EngineConfig) Build() (engine.Config, error) {
	cfg := engine.Config{
		InitialCapital:     ec.InitialCapital,
		CommissionPct:      ec.CommissionPct,
		CommissionFixed:    ec.CommissionFixed,
		SlippagePct:        ec.SlippagePct,
		MaxPositions:       ec.MaxPositions,
		MaxPositionPct:     ec.MaxPositionPct,
		ReserveCashPct:     ec.ReserveCashPct,
		StopLossPct:        ec.StopLossPct,
		TakeProfitPct:      ec.TakeProfitPct,
		TrailingStopPct:    ec.TrailingStopPct,
		ATRStopMult:        ec.ATRStopMult,
		RiskPerTradePct:    ec.RiskPerTradePct,
		CheckIntrabarStops: !ec.CloseOnlyStops,
	}

	if ec.MaxHold != "" {
		d, err := time.ParseDuration(ec.MaxHold)
		if err != nil {
			return engine.Config{}, fmt.Errorf("engine.max_hold: %w", err)
		}
		cfg.MaxHold = d
	}

	if err := cfg.Validate(); err != nil {
		return engine.Config{}, err
	}
	return cfg, nil
}

// Default returns a runnable starting configuration.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			InitialCapital:  100_000,
			CommissionPct:   0.001,
			CommissionFixed: 1.0,
			SlippagePct:     0.0005,
			MaxPositions:    10,
			MaxPositionPct:  0.10,
			ReserveCashPct:  0.05,
		},
		Strategy: StrategyConfig{
			Name:      "sma-cross",
			Fast:      20,
			Slow:      50,
			ATRPeriod: 14,
		},
		Data: DataConfig{
			Bars: map[string]string{"SPY": "./bars/spy.csv"},
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./backsim.sqlite",
		},
	}
}
