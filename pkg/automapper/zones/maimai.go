package zones

import (
	"math"
	"math/rand/v2"

	"github.com/himanishpuri/automapper/pkg/automapper/chart"
	"github.com/himanishpuri/automapper/pkg/automapper/model"
	"github.com/himanishpuri/automapper/pkg/automapper/tuning"
)

const (
	flowWindow    = 4
	repeatPenalty = 0.2
)

// maimai favors continuous rotation: it keeps an established flow going,
// occasionally breaks it with a double step, and otherwise mixes symmetric
// jumps, single steps and discouraged repeats.
type maimai struct {
	flowContinue float64
	symmetry     float64
	step         float64
	rng          *rand.Rand
}

// newMaimai scales the symmetry and flow-break chances by intensity; 0.5
// reproduces the tuned defaults.
func newMaimai(t tuning.Tuning, intensity float64, rng *rand.Rand) *maimai {
	scale := 2 * math.Max(0, math.Min(1, intensity))
	return &maimai{
		flowContinue: 1 - math.Min(1, (1-t.MaimaiFlowContinue)*scale),
		symmetry:     math.Min(1, t.MaimaiSymmetry*scale),
		step:         t.MaimaiStep,
		rng:          rng,
	}
}

func (s *maimai) Name() string { return "maimai" }

func (s *maimai) Choose(h []int, _ Context) (int, bool) {
	from := last(h)

	if dir, ok := DetectFlow(h); ok {
		if s.rng.Float64() < s.flowContinue {
			return chart.Wrap(from + dir), true
		}
		return chart.Wrap(from + 2*dir), true
	}

	if s.rng.Float64() < s.symmetry {
		return chart.Opposite(from), true
	}

	if s.rng.Float64() < s.step {
		if s.rng.IntN(2) == 0 {
			return chart.Wrap(from + 1), true
		}
		return chart.Wrap(from - 1), true
	}

	weights := make(map[int]float64, chart.ZoneCount)
	for z := 0; z < chart.ZoneCount; z++ {
		weights[z] = 1
	}
	for _, z := range h[max(0, len(h)-2):] {
		weights[z] = repeatPenalty
	}
	return model.Select(weights, s.rng)
}

// DetectFlow reports whether the most recent zones (at least three, at most
// four) rotate monotonically around the circle, and in which direction.
// A step of exactly half the circle has no direction and breaks the flow.
func DetectFlow(h []int) (int, bool) {
	if len(h) < 3 {
		return 0, false
	}
	recent := h[max(0, len(h)-flowWindow):]

	dir := 0
	for i := 1; i < len(recent); i++ {
		step := chart.Step(recent[i-1], recent[i])
		if step == 0 || step == chart.ZoneCount/2 {
			return 0, false
		}
		sign := 1
		if step < 0 {
			sign = -1
		}
		if dir == 0 {
			dir = sign
		} else if sign != dir {
			return 0, false
		}
	}
	return dir, true
}
