package features

import "math"

const (
	// grids finer than this are not beats
	minBeatStepMs = 1.0
	maxGridMs     = 24 * 60 * 60 * 1000.0
)

// DetectBeats emits a uniform beat grid at 60000/bpm ms spacing from offsetMs
// up to durationMs.
func DetectBeats(bpm, durationMs, offsetMs float64) []float64 {
	return DetectSubdividedBeats(bpm, durationMs, offsetMs, 1)
}

// DetectSubdividedBeats is DetectBeats with each beat split into subdivisions.
func DetectSubdividedBeats(bpm, durationMs, offsetMs float64, subdivisions int) []float64 {
	if !(bpm > 0) || !(durationMs > 0) || math.IsInf(bpm, 0) || math.IsInf(durationMs, 0) {
		return nil
	}
	if subdivisions < 1 {
		subdivisions = 1
	}
	step := 60000.0 / bpm / float64(subdivisions)
	if step < minBeatStepMs {
		return nil
	}
	durationMs = min(durationMs, maxGridMs)

	if math.IsNaN(offsetMs) || math.IsInf(offsetMs, 0) {
		offsetMs = 0
	}
	// a negative offset shifts the grid; the first beat lands in [0, step)
	start := offsetMs
	if start < 0 {
		start = math.Mod(start, step)
		if start < 0 {
			start += step
		}
		if start >= step {
			start = 0
		}
	}

	beats := make([]float64, 0, int(durationMs/step)+1)
	for i := 0; ; i++ {
		t := start + float64(i)*step
		if t >= durationMs {
			break
		}
		beats = append(beats, t)
	}
	return beats
}
