package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	t.Parallel()

	r := Calculate(Inputs{Equity: 100_000, RiskPct: 0.02, StopDistance: 5})
	assert.Equal(t, 400, r.Shares)
	assert.InDelta(t, 2000, r.RiskAmount, 1e-9)

	// Fractional shares floor.
	r = Calculate(Inputs{Equity: 100_000, RiskPct: 0.01, StopDistance: 3})
	assert.Equal(t, 333, r.Shares)
}

func TestCalculateDegenerateInputs(t *testing.T) {
	t.Parallel()

	for _, in := range []Inputs{
		{},
		{Equity: 100_000, RiskPct: 0.02},                      // no stop distance
		{Equity: 100_000, StopDistance: 5},                    // no risk budget
		{RiskPct: 0.02, StopDistance: 5},                      // no equity
		{Equity: -1, RiskPct: 0.02, StopDistance: 5},          // negative equity
		{Equity: 100_000, RiskPct: 0.02, StopDistance: -0.01}, // negative stop
	} {
		r := Calculate(in)
		assert.Zero(t, r.Shares, "%+v", in)
		assert.Zero(t, r.RiskAmount, "%+v", in)
	}
}

func TestRR(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 2.0, RR(100, 95, 110), 1e-9)
	assert.InDelta(t, 2.0, RR(100, 105, 90), 1e-9, "short side mirrors")
	assert.Zero(t, RR(100, 100, 110), "stop at entry")
}
