// Package synth builds deterministic test signals: click trains over a quiet
// bed tone, swells and silence.
package synth

import "math"

const (
	BedFreq      = 220.0
	BedAmplitude = 0.05

	clickFreq  = 1000.0
	clickAmp   = 0.9
	clickTauMs = 1.5
	clickLenMs = 20.0
)

// Track is a mono buffer under construction.
type Track struct {
	SampleRate int
	Samples    []float64
}

// New returns a silent track of the given length.
func New(sampleRate int, durationMs float64) *Track {
	n := int(durationMs * float64(sampleRate) / 1000.0)
	return &Track{SampleRate: sampleRate, Samples: make([]float64, n)}
}

func (t *Track) index(ms float64) int {
	return int(math.Round(ms * float64(t.SampleRate) / 1000.0))
}

// Bed adds a constant low-level sine under the whole track.
func (t *Track) Bed() *Track {
	for i := range t.Samples {
		t.Samples[i] += BedAmplitude * math.Sin(2*math.Pi*BedFreq*float64(i)/float64(t.SampleRate))
	}
	return t
}

// Click adds a sharply decaying burst starting at atMs.
func (t *Track) Click(atMs float64) *Track {
	return t.ClickAmp(atMs, clickAmp)
}

// ClickAmp is Click with an explicit peak amplitude.
func (t *Track) ClickAmp(atMs, amp float64) *Track {
	start := t.index(atMs)
	n := t.index(clickLenMs)
	for i := 0; i < n && start+i < len(t.Samples); i++ {
		ms := float64(i) * 1000.0 / float64(t.SampleRate)
		env := math.Exp(-ms / clickTauMs)
		t.Samples[start+i] += amp * env * math.Sin(2*math.Pi*clickFreq*ms/1000.0)
	}
	return t
}

// Clicks adds a click every intervalMs in [fromMs, toMs).
func (t *Track) Clicks(fromMs, toMs, intervalMs float64) *Track {
	for at := fromMs; at < toMs; at += intervalMs {
		t.Click(at)
	}
	return t
}

// Swell adds a 440Hz tone that ramps linearly from silence to amp over
// rampMs and then holds for holdMs.
func (t *Track) Swell(atMs, rampMs, holdMs, amp float64) *Track {
	start := t.index(atMs)
	ramp := t.index(rampMs)
	total := ramp + t.index(holdMs)
	for i := 0; i < total && start+i < len(t.Samples); i++ {
		a := amp
		if i < ramp {
			a = amp * float64(i) / float64(ramp)
		}
		t.Samples[start+i] += a * math.Sin(2*math.Pi*440.0*float64(i)/float64(t.SampleRate))
	}
	return t
}

// ClickTimes lists the start of every click Clicks would place.
func ClickTimes(fromMs, toMs, intervalMs float64) []float64 {
	var out []float64
	for at := fromMs; at < toMs; at += intervalMs {
		out = append(out, at)
	}
	return out
}
