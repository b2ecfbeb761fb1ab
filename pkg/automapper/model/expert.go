package model

import "github.com/himanishpuri/automapper/pkg/automapper/chart"

// ExpertID identifies the built-in knowledge base.
const ExpertID = "expert"

// NewExpertKnowledgeBase returns the hand-authored fallback model. It favors
// circular flow: small steps around the ring, continuing a rotation once one
// has started, and occasional jumps across.
func NewExpertKnowledgeBase() *TrainedModel {
	m := newModel()
	m.ID = ExpertID

	// circular distance -> transition weight
	distanceWeight := [4]float64{0.5, 4, 2, 1.5}

	for a := 0; a < chart.ZoneCount; a++ {
		next := make(map[int]float64, chart.ZoneCount)
		for b := 0; b < chart.ZoneCount; b++ {
			next[b] = distanceWeight[chart.Distance(a, b)]
		}
		m.Bigrams[a] = next
	}

	for a := 0; a < chart.ZoneCount; a++ {
		for b := 0; b < chart.ZoneCount; b++ {
			m.Trigrams[PatternKey([]int{a, b})] = expertCompletions(a, b)
		}
	}

	for a := 0; a < chart.ZoneCount; a++ {
		for _, dir := range []int{1, -1} {
			run := []int{a, chart.Wrap(a + dir), chart.Wrap(a + 2*dir)}
			cont := []int{chart.Wrap(a + 3*dir), chart.Wrap(a + 4*dir), chart.Wrap(a + 5*dir)}
			setNested(m.Transitions, PatternKey(run), PatternKey(cont), 3)

			zig := []int{a, chart.Wrap(a + dir), a}
			zag := []int{chart.Wrap(a + dir), a, chart.Wrap(a + dir)}
			setNested(m.Transitions, PatternKey(zig), PatternKey(zag), 1)
		}
	}

	lower := map[int]bool{2: true, 3: true, 4: true}
	for bucket := 0; bucket < EnergyBuckets; bucket++ {
		zones := make(map[int]float64, chart.ZoneCount)
		for z := 0; z < chart.ZoneCount; z++ {
			switch {
			case bucket <= 1 && lower[z], bucket >= 3 && !lower[z]:
				zones[z] = 3
			case bucket == 2:
				zones[z] = 2
			default:
				zones[z] = 1
			}
		}
		m.EnergyZones[bucket] = zones
	}

	for d, w := range distanceWeight {
		m.Proximity[d] = w
	}
	for a := 0; a < chart.ZoneCount; a++ {
		m.Symmetry[PatternKey([]int{a, chart.Opposite(a)})] = 1
	}

	return m
}

// expertCompletions weights the zone following a, b.
func expertCompletions(a, b int) map[int]float64 {
	out := make(map[int]float64)
	step := chart.Step(a, b)

	switch step {
	case 1, -1:
		out[chart.Wrap(b+step)] = 5 // keep rotating
		out[a] = 2                  // zigzag back
		out[chart.Opposite(b)] += 1
	case 0:
		out[chart.Wrap(b+1)] = 2
		out[chart.Wrap(b-1)] = 2
	case 2, -2:
		out[chart.Wrap(b+step/2)] = 2
		out[chart.Wrap(b+1)] += 1
		out[chart.Wrap(b-1)] += 1
	default:
		out[chart.Wrap(b+1)] = 2
		out[chart.Wrap(b-1)] = 2
		out[a] = 1
	}
	return out
}
