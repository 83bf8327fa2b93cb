package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValid(t *testing.T) {
	t.Parallel()
	assert.NoError(t, DefaultConfig().Validate())
}

func TestConfigValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"zero capital", func(c *Config) { c.InitialCapital = 0 }, "initial_capital"},
		{"negative capital", func(c *Config) { c.InitialCapital = -1 }, "initial_capital"},
		{"negative commission", func(c *Config) { c.CommissionPct = -0.001 }, "commission_pct"},
		{"negative fixed commission", func(c *Config) { c.CommissionFixed = -1 }, "commission_fixed"},
		{"negative slippage", func(c *Config) { c.SlippagePct = -0.0005 }, "slippage_pct"},
		{"zero max positions", func(c *Config) { c.MaxPositions = 0 }, "max_positions"},
		{"position pct over one", func(c *Config) { c.MaxPositionPct = 1.5 }, "max_position_pct"},
		{"zero position pct", func(c *Config) { c.MaxPositionPct = 0 }, "max_position_pct"},
		{"reserve at one", func(c *Config) { c.ReserveCashPct = 1 }, "reserve_cash_pct"},
		{"stop loss at one", func(c *Config) { c.StopLossPct = 1 }, "stop_loss_pct"},
		{"negative take profit", func(c *Config) { c.TakeProfitPct = -0.1 }, "take_profit_pct"},
		{"trailing at one", func(c *Config) { c.TrailingStopPct = 1 }, "trailing_stop_pct"},
		{"negative atr mult", func(c *Config) { c.ATRStopMult = -2 }, "atr_stop_mult"},
		{"risk budget over one", func(c *Config) { c.RiskPerTradePct = 1.1 }, "risk_per_trade_pct"},
		{"negative max hold", func(c *Config) { c.MaxHold = -1 }, "max_hold"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tc.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var cerr *ConfigError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tc.field, cerr.Field)

			_, err = New(cfg)
			assert.Error(t, err, "New must refuse an invalid config")
		})
	}
}
