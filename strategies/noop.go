package strategies

import (
	"github.com/rustyeddy/backsim/engine"
	"github.com/rustyeddy/backsim/market"
)

// Noop never trades. Baseline for plumbing tests and empty-run behavior.
type Noop struct{}

func (Noop) Name() string { return "noop" }
func (Noop) Reset()       {}

func (Noop) OnBar(string, market.Bar) engine.Signal {
	return engine.Signal{}
}
