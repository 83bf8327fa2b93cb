// Package sweep runs a grid of engine configurations over the same bar
// series. Runs are embarrassingly parallel: each gets its own engine,
// strategy, and portfolio, and outcomes come back in grid order no matter
// which worker finished first.
package sweep

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/rustyeddy/backsim/engine"
	"github.com/rustyeddy/backsim/market"
	"github.com/rustyeddy/backsim/perf"
)

// Run is one grid cell: a name and the config to run with.
type Run struct {
	Name   string
	Config engine.Config
}

// Outcome is the result of one grid cell.
type Outcome struct {
	Name    string
	Result  *engine.Result
	Metrics perf.Metrics
	Err     error
}

// Options tunes sweep execution.
type Options struct {
	Workers int // <= 0 means GOMAXPROCS
	Logger  *zap.Logger
}

// Execute fans runs across workers. newStrategy must return a fresh
// strategy per call; sharing one instance across runs would leak indicator
// state between cells.
func Execute(ctx context.Context, series *market.Series, newStrategy func() engine.Strategy, runs []Run, opts Options) []Outcome {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(runs) {
		workers = len(runs)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	outcomes := make([]Outcome, len(runs))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = execute(ctx, series, newStrategy(), runs[i])
				log.Debug("sweep cell finished",
					zap.String("name", runs[i].Name),
					zap.Error(outcomes[i].Err),
				)
			}
		}()
	}

	for i := range runs {
		select {
		case <-ctx.Done():
			// Unstarted cells report the cancellation.
			outcomes[i] = Outcome{Name: runs[i].Name, Err: ctx.Err()}
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	return outcomes
}

func execute(ctx context.Context, series *market.Series, strat engine.Strategy, run Run) Outcome {
	eng, err := engine.New(run.Config)
	if err != nil {
		return Outcome{Name: run.Name, Err: err}
	}
	res, err := eng.Run(ctx, series, strat)
	if err != nil {
		return Outcome{Name: run.Name, Result: res, Err: err}
	}
	return Outcome{Name: run.Name, Result: res, Metrics: perf.Analyze(res)}
}

// Grid expands axes of risk parameters into runs. Empty axes keep the
// base config's value.
type Grid struct {
	StopLossPct     []float64
	TakeProfitPct   []float64
	TrailingStopPct []float64
	MaxPositionPct  []float64
}

// Expand builds the cartesian product of the grid over base.
func (g Grid) Expand(base engine.Config) []Run {
	sl := axis(g.StopLossPct, base.StopLossPct)
	tp := axis(g.TakeProfitPct, base.TakeProfitPct)
	tr := axis(g.TrailingStopPct, base.TrailingStopPct)
	mp := axis(g.MaxPositionPct, base.MaxPositionPct)

	var runs []Run
	for _, s := range sl {
		for _, t := range tp {
			for _, r := range tr {
				for _, m := range mp {
					cfg := base
					cfg.StopLossPct = s
					cfg.TakeProfitPct = t
					cfg.TrailingStopPct = r
					cfg.MaxPositionPct = m
					runs = append(runs, Run{
						Name:   fmt.Sprintf("sl=%g,tp=%g,trail=%g,pos=%g", s, t, r, m),
						Config: cfg,
					})
				}
			}
		}
	}
	return runs
}

func axis(vals []float64, fallback float64) []float64 {
	if len(vals) == 0 {
		return []float64{fallback}
	}
	return vals
}
