package features

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

const (
	DefaultBPM = 120.0
	minTempo   = 70.0
	maxTempo   = 180.0

	// ignore onset pairs further apart than this many successors
	tempoLookahead = 4
	minTempoOnsets = 4
)

// EstimateBPM folds inter-onset intervals into the 70-180 BPM octave and
// returns the most common tempo, weighted by onset strength. Returns
// DefaultBPM when there are too few onsets to decide.
func EstimateBPM(onsets []Onset) float64 {
	if len(onsets) < minTempoOnsets {
		return DefaultBPM
	}

	var tempos, weights []float64
	for i := range onsets {
		for j := i + 1; j < len(onsets) && j <= i+tempoLookahead; j++ {
			ioi := onsets[j].Time - onsets[i].Time
			if ioi <= 0 {
				continue
			}
			bpm := foldTempo(60000.0 / ioi)
			if bpm == 0 {
				continue
			}
			tempos = append(tempos, math.Round(bpm))
			// nearer successors describe the pulse better
			weights = append(weights, math.Min(onsets[i].Strength, onsets[j].Strength)/float64(j-i))
		}
	}
	if len(tempos) == 0 {
		return DefaultBPM
	}

	mode, _ := stat.Mode(tempos, weights)
	if mode <= 0 {
		return DefaultBPM
	}
	return mode
}

func foldTempo(bpm float64) float64 {
	if bpm <= 0 || math.IsInf(bpm, 0) {
		return 0
	}
	for bpm < minTempo {
		bpm *= 2
	}
	for bpm > maxTempo {
		bpm /= 2
	}
	if bpm < minTempo {
		return 0
	}
	return bpm
}
