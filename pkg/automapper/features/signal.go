// Package features extracts rhythmic and timbral features from a decoded,
// mono sample buffer. Every function here is pure.
package features

import (
	"math"
	"sort"
)

// Signal is a mono PCM buffer normalized to [-1, 1].
type Signal struct {
	Samples    []float64
	SampleRate int
}

// DurationMs returns the signal length in milliseconds.
func (s Signal) DurationMs() float64 {
	if s.SampleRate <= 0 {
		return 0
	}
	return float64(len(s.Samples)) * 1000.0 / float64(s.SampleRate)
}

func (s Signal) timeOf(sample int) float64 {
	return float64(sample) * 1000.0 / float64(s.SampleRate)
}

// MixToMono averages interleaved channels into a single channel.
func MixToMono(interleaved []float64, channels int) []float64 {
	if channels <= 1 {
		return interleaved
	}
	frames := len(interleaved) / channels
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		sum := 0.0
		for c := 0; c < channels; c++ {
			sum += interleaved[i*channels+c]
		}
		out[i] = sum / float64(channels)
	}
	return out
}

func rms(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

// nearestIndex returns the index in a time-sorted sequence closest to t.
func nearestIndex(n int, timeAt func(int) float64, t float64) int {
	if n == 0 {
		return -1
	}
	i := sort.Search(n, func(i int) bool { return timeAt(i) >= t })
	if i == n {
		return n - 1
	}
	if i > 0 && t-timeAt(i-1) < timeAt(i)-t {
		return i - 1
	}
	return i
}
