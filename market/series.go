package market

import (
	"fmt"
	"sort"
	"time"
)

// SymbolBar pairs a bar with the symbol it belongs to.
type SymbolBar struct {
	Symbol string
	Bar    Bar
}

// Step is every bar sharing one timestamp, in ascending symbol order.
// Symbol order inside a step is the only tie-break the engine needs to
// stay deterministic.
type Step struct {
	Time time.Time
	Bars []SymbolBar
}

// Series holds validated, strictly time-ordered bars for one or more
// symbols, merged into a single timeline of Steps.
type Series struct {
	symbols []string
	steps   []Step
}

// NewSeries validates each symbol's bars (structure and strict timestamp
// ordering) and merges them into one timeline. Ordering violations fail
// fast; the engine relies on the total order established here.
func NewSeries(bars map[string][]Bar) (*Series, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("series: no symbols")
	}

	symbols := make([]string, 0, len(bars))
	for sym := range bars {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	byTime := make(map[int64][]SymbolBar)
	var stamps []int64

	for _, sym := range symbols {
		if len(bars[sym]) == 0 {
			return nil, fmt.Errorf("series: symbol %q has no bars", sym)
		}
		var prev time.Time
		for i, b := range bars[sym] {
			if err := b.Validate(); err != nil {
				de := err.(*DataError)
				de.Symbol = sym
				return nil, de
			}
			if i > 0 && !b.Time.After(prev) {
				return nil, &DataError{Symbol: sym, Time: b.Time, Reason: "non-monotonic timestamp"}
			}
			prev = b.Time

			ts := b.Time.UnixNano()
			if _, seen := byTime[ts]; !seen {
				stamps = append(stamps, ts)
			}
			byTime[ts] = append(byTime[ts], SymbolBar{Symbol: sym, Bar: b})
		}
	}

	sort.Slice(stamps, func(i, j int) bool { return stamps[i] < stamps[j] })

	steps := make([]Step, 0, len(stamps))
	for _, ts := range stamps {
		sbs := byTime[ts]
		sort.Slice(sbs, func(i, j int) bool { return sbs[i].Symbol < sbs[j].Symbol })
		steps = append(steps, Step{Time: time.Unix(0, ts).UTC(), Bars: sbs})
	}

	return &Series{symbols: symbols, steps: steps}, nil
}

// Symbols returns the symbols in the series, sorted.
func (s *Series) Symbols() []string { return s.symbols }

// Steps returns the merged timeline, strictly ascending in time.
func (s *Series) Steps() []Step { return s.steps }

// Len is the number of distinct timestamps in the series.
func (s *Series) Len() int { return len(s.steps) }

// Start returns the first timestamp, or the zero time for an empty series.
func (s *Series) Start() time.Time {
	if len(s.steps) == 0 {
		return time.Time{}
	}
	return s.steps[0].Time
}

// End returns the last timestamp, or the zero time for an empty series.
func (s *Series) End() time.Time {
	if len(s.steps) == 0 {
		return time.Time{}
	}
	return s.steps[len(s.steps)-1].Time
}
