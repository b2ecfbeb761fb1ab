// Package candidates turns detected onsets and the beat grid into weighted
// note times and filters them down to a playable, structure-aware density.
package candidates

import (
	"sort"

	"github.com/himanishpuri/automapper/pkg/automapper/features"
)

const (
	// a grid point within this distance of an onset is considered covered
	CoverToleranceMs = 40.0
	gridWeight       = 0.3
)

// Candidate is a time at which a note may be placed.
type Candidate struct {
	Time      float64
	Weight    float64
	Energy    float64
	FromOnset bool
	Onset     features.Onset
}

func typeMultiplier(t features.OnsetType) float64 {
	switch t {
	case features.Strong:
		return 1.5
	case features.Medium:
		return 1.0
	case features.Sustained:
		return 0.7
	default:
		return 0.4
	}
}

// SmartCombine weights every onset by local energy and type, then fills in
// beat-grid points no onset covers at a low weight. The result is time-ordered.
func SmartCombine(onsets []features.Onset, beats []float64, energy []features.EnergySample) []Candidate {
	out := make([]Candidate, 0, len(onsets)+len(beats))

	for _, o := range onsets {
		e := features.EnergyAt(energy, o.Time)
		out = append(out, Candidate{
			Time:      o.Time,
			Weight:    e * typeMultiplier(o.Type),
			Energy:    e,
			FromOnset: true,
			Onset:     o,
		})
	}

	for _, b := range beats {
		if _, covered := features.OnsetNear(onsets, b, CoverToleranceMs); covered {
			continue
		}
		e := features.EnergyAt(energy, b)
		out = append(out, Candidate{Time: b, Weight: e * gridWeight, Energy: e})
	}

	sortByTime(out)
	return out
}

func sortByTime(c []Candidate) {
	sort.SliceStable(c, func(i, j int) bool { return c[i].Time < c[j].Time })
}

// Times returns the candidate times in order.
func Times(c []Candidate) []float64 {
	out := make([]float64, len(c))
	for i := range c {
		out[i] = c[i].Time
	}
	return out
}

// GridSubdivisions returns the smallest power-of-two split of the beat whose
// grid alone can carry the difficulty's note rate with some headroom.
func GridSubdivisions(bpm, notesPerSecond float64) int {
	if bpm <= 0 {
		return 1
	}
	beatsPerSecond := bpm / 60.0
	s := 1
	for s < 16 && beatsPerSecond*float64(s) < notesPerSecond*1.25 {
		s *= 2
	}
	return s
}
