// Package zones assigns one of six zones to each accepted note time. The
// decision is a prioritized chain of strategies evaluated with early exit.
package zones

import (
	"math/rand/v2"

	"github.com/himanishpuri/automapper/pkg/automapper/chart"
	"github.com/himanishpuri/automapper/pkg/automapper/features"
	"github.com/himanishpuri/automapper/pkg/automapper/model"
	"github.com/himanishpuri/automapper/pkg/automapper/tuning"
)

// HistorySize is how many placed zones the strategies may look back on.
const HistorySize = 6

// Context is what the engine knows about the moment being assigned.
type Context struct {
	Time        float64
	Energy      float64
	Spectral    features.SpectralFrame
	HasSpectral bool
}

// Strategy proposes a zone given recent history (oldest first, never empty).
// It returns false to defer to the next strategy.
type Strategy interface {
	Name() string
	Choose(history []int, ctx Context) (int, bool)
}

// Config selects and parameterizes the strategy chain.
type Config struct {
	// Model is the trained model; nil or empty skips the trained path.
	Model *model.TrainedModel
	// Expert is the fallback knowledge base.
	Expert          *model.TrainedModel
	MaimaiStyle     bool
	MaimaiIntensity float64
	Tuning          tuning.Tuning
}

// Engine assigns zones one note at a time, remembering what it placed.
type Engine struct {
	rng        *rand.Rand
	strategies []Strategy
	history    []int
	hits       map[string]int
}

// NewEngine builds the chain: maimai alone when requested; otherwise trained,
// expert and spectral strategies in that order. An adjacent step always
// closes the chain.
func NewEngine(cfg Config, rng *rand.Rand) *Engine {
	e := &Engine{rng: rng, hits: make(map[string]int)}

	if cfg.MaimaiStyle {
		e.strategies = []Strategy{newMaimai(cfg.Tuning, cfg.MaimaiIntensity, rng)}
		return e
	}

	if !cfg.Model.Empty() {
		e.strategies = append(e.strategies, &trained{m: cfg.Model, t: cfg.Tuning, rng: rng})
	}
	if !cfg.Expert.Empty() {
		e.strategies = append(e.strategies, &expert{m: cfg.Expert, t: cfg.Tuning, rng: rng})
	}
	e.strategies = append(e.strategies,
		&spectral{t: cfg.Tuning, rng: rng},
		&adjacent{rng: rng},
	)
	return e
}

// Strategies lists the chain in evaluation order.
func (e *Engine) Strategies() []string {
	names := make([]string, len(e.strategies))
	for i, s := range e.strategies {
		names[i] = s.Name()
	}
	return names
}

// Hits reports how many zones each strategy produced.
func (e *Engine) Hits() map[string]int {
	return e.hits
}

// Assign picks the zone for the next note and records it.
func (e *Engine) Assign(ctx Context) int {
	z := e.choose(ctx)
	e.Push(z)
	return z
}

// Push records an externally placed zone in the history.
func (e *Engine) Push(z int) {
	e.history = append(e.history, chart.Wrap(z))
	if len(e.history) > HistorySize {
		e.history = e.history[len(e.history)-HistorySize:]
	}
}

func (e *Engine) choose(ctx Context) int {
	if len(e.history) == 0 {
		e.hits["opening"]++
		return e.rng.IntN(chart.ZoneCount)
	}

	for _, s := range e.strategies {
		if z, ok := s.Choose(e.history, ctx); ok && chart.Valid(z) {
			e.hits[s.Name()]++
			return z
		}
	}

	// the adjacent strategy never defers; this guards a chain without it
	e.hits["adjacent"]++
	return chart.Wrap(e.history[len(e.history)-1] + 1)
}

func last(h []int) int { return h[len(h)-1] }

func tail(h []int, n int) []int {
	if len(h) < n {
		return nil
	}
	return h[len(h)-n:]
}
