package features

import "math"

type OnsetType int

const (
	Weak OnsetType = iota
	Sustained
	Medium
	Strong
)

func (t OnsetType) String() string {
	switch t {
	case Strong:
		return "strong"
	case Medium:
		return "medium"
	case Sustained:
		return "sustained"
	default:
		return "weak"
	}
}

// Onset is a detected sudden rise in acoustic energy.
type Onset struct {
	Time     float64   `json:"time"`
	Strength float64   `json:"strength"`
	Type     OnsetType `json:"type"`
}

const (
	onsetWindowSec   = 0.020
	onsetHistory     = 8
	onsetThreshold   = 1.35
	onsetFloor       = 0.01
	minOnsetGapMs    = 40.0
	attackFraction   = 0.1
	sustainFraction  = 0.5
	attackDominance  = 1.5
	attackPeakRatio  = 2.0
	strongStrength   = 2.0
	mediumStrength   = 1.6
	minOnsetWindowSz = 8
)

// DetectOnsets slides a ~20ms RMS window (hop = window/4) over the signal and
// flags an onset when the window energy exceeds 1.35x the trailing 8-window
// average. The onset time is aligned to the first sample of the attack.
func DetectOnsets(sig Signal) []Onset {
	if sig.SampleRate <= 0 || len(sig.Samples) == 0 {
		return nil
	}

	win := int(float64(sig.SampleRate) * onsetWindowSec)
	if win < minOnsetWindowSz {
		win = minOnsetWindowSz
	}
	hop := win / 4
	if hop < 1 {
		hop = 1
	}

	x := sig.Samples
	history := make([]float64, 0, onsetHistory)
	lastOnset := math.Inf(-1)
	var onsets []Onset

	for start := 0; start+win <= len(x); start += hop {
		energy := rms(x[start : start+win])

		if len(history) == onsetHistory {
			avg := 0.0
			for _, e := range history {
				avg += e
			}
			avg /= float64(len(history))

			if avg > onsetFloor && energy > onsetThreshold*avg {
				at := alignAttack(x, start, win, hop, avg)
				t := sig.timeOf(at)
				if t-lastOnset >= minOnsetGapMs {
					end := at + win
					if end > len(x) {
						end = len(x)
					}
					strength := rms(x[at:end]) / avg
					onsets = append(onsets, Onset{
						Time:     t,
						Strength: strength,
						Type:     classifyOnset(x, at, win, strength),
					})
					lastOnset = t
				}
			}
		}

		if len(history) == onsetHistory {
			copy(history, history[1:])
			history = history[:onsetHistory-1]
		}
		history = append(history, energy)
	}

	return onsets
}

// alignAttack finds the first sample in the window whose magnitude clearly
// exceeds the running level. Falls back to the newest hop of the window.
func alignAttack(x []float64, start, win, hop int, avg float64) int {
	limit := attackPeakRatio * avg
	for i := start; i < start+win; i++ {
		if math.Abs(x[i]) > limit {
			return i
		}
	}
	return start + win - hop
}

// classifyOnset compares the attack phase (first 10% of the window) against
// the sustain phase (the following 50%).
// NOTE: the split is a fixed fraction of the analysis window, so the phase
// lengths in ms follow onsetWindowSec rather than the content.
func classifyOnset(x []float64, at, win int, strength float64) OnsetType {
	attackLen := int(float64(win) * attackFraction)
	if attackLen < 1 {
		attackLen = 1
	}
	sustainLen := int(float64(win) * sustainFraction)

	attackEnd := min(at+attackLen, len(x))
	sustainEnd := min(attackEnd+sustainLen, len(x))

	attack := rms(x[at:attackEnd])
	sustain := rms(x[attackEnd:sustainEnd])

	switch {
	case attack > sustain*attackDominance && strength > strongStrength:
		return Strong
	case attack > sustain && strength > mediumStrength:
		return Medium
	case sustain > attack*attackDominance:
		return Sustained
	default:
		return Weak
	}
}

// OnsetNear returns the onset closest to t if it lies within tolMs.
func OnsetNear(onsets []Onset, t, tolMs float64) (Onset, bool) {
	i := nearestIndex(len(onsets), func(i int) float64 { return onsets[i].Time }, t)
	if i < 0 || math.Abs(onsets[i].Time-t) > tolMs {
		return Onset{}, false
	}
	return onsets[i], true
}
