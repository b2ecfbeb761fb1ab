package zones

import (
	"math/rand/v2"

	"github.com/himanishpuri/automapper/pkg/automapper/chart"
	"github.com/himanishpuri/automapper/pkg/automapper/features"
	"github.com/himanishpuri/automapper/pkg/automapper/model"
	"github.com/himanishpuri/automapper/pkg/automapper/tuning"
)

// zones favored by the dominant spectral band
var bandZones = map[features.Band][]int{
	features.BandLow:  {2, 3, 4},
	features.BandMid:  {1, 4},
	features.BandHigh: {5, 0, 1},
}

// spectral biases zones by timbre: bass toward the lower half of the circle,
// treble toward the upper half, mids to the sides.
type spectral struct {
	t   tuning.Tuning
	rng *rand.Rand
}

func (s *spectral) Name() string { return "spectral" }

func (s *spectral) Choose(h []int, ctx Context) (int, bool) {
	if !ctx.HasSpectral || s.rng.Float64() >= s.t.SpectralBiasChance {
		return 0, false
	}

	from := last(h)
	weights := make(map[int]float64)
	for _, z := range bandZones[ctx.Spectral.Dominant()] {
		weights[z] = 1 / float64(1+chart.Distance(from, z))
	}
	return model.Select(weights, s.rng)
}

// adjacent steps one zone around the circle in either direction.
type adjacent struct {
	rng *rand.Rand
}

func (s *adjacent) Name() string { return "adjacent" }

func (s *adjacent) Choose(h []int, _ Context) (int, bool) {
	if s.rng.IntN(2) == 0 {
		return chart.Wrap(last(h) + 1), true
	}
	return chart.Wrap(last(h) - 1), true
}
