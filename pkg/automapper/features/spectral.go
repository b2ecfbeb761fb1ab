package features

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

const (
	SpectralWindowSize = 2048
	SpectralHopSize    = 1024

	lowBandHz  = 250.0
	highBandHz = 4000.0
)

type Band int

const (
	BandLow Band = iota
	BandMid
	BandHigh
)

func (b Band) String() string {
	switch b {
	case BandLow:
		return "low"
	case BandHigh:
		return "high"
	default:
		return "mid"
	}
}

// SpectralMode selects how band energies are computed.
type SpectralMode string

const (
	// SpectralCrude splits each window into three equal time chunks and
	// averages absolute amplitude per chunk. Cheap and deterministic; the
	// result is a rough timbre proxy, not a frequency analysis.
	SpectralCrude SpectralMode = "crude"
	// SpectralFFT computes band power from a Hann-windowed FFT.
	SpectralFFT SpectralMode = "fft"
)

// SpectralFrame holds band energies for one analysis window.
type SpectralFrame struct {
	Time float64 `json:"time"`
	Low  float64 `json:"low"`
	Mid  float64 `json:"mid"`
	High float64 `json:"high"`
}

// Dominant returns the band with the largest energy. Ties resolve to mid.
func (f SpectralFrame) Dominant() Band {
	switch {
	case f.Low > f.Mid && f.Low > f.High:
		return BandLow
	case f.High > f.Mid && f.High > f.Low:
		return BandHigh
	default:
		return BandMid
	}
}

// AnalyzeSpectral produces one frame per 2048-sample window with a 1024 hop.
func AnalyzeSpectral(sig Signal, mode SpectralMode) []SpectralFrame {
	if sig.SampleRate <= 0 || len(sig.Samples) < SpectralWindowSize {
		return nil
	}

	analyze := crudeBands
	if mode == SpectralFFT {
		analyze = func(frame []float64) (float64, float64, float64) {
			return fftBands(frame, sig.SampleRate)
		}
	}

	frames := make([]SpectralFrame, 0, (len(sig.Samples)-SpectralWindowSize)/SpectralHopSize+1)
	for start := 0; start+SpectralWindowSize <= len(sig.Samples); start += SpectralHopSize {
		low, mid, high := analyze(sig.Samples[start : start+SpectralWindowSize])
		frames = append(frames, SpectralFrame{
			Time: sig.timeOf(start),
			Low:  low,
			Mid:  mid,
			High: high,
		})
	}
	return frames
}

func crudeBands(frame []float64) (low, mid, high float64) {
	chunk := len(frame) / 3
	return meanAbs(frame[:chunk]), meanAbs(frame[chunk : 2*chunk]), meanAbs(frame[2*chunk : 3*chunk])
}

func meanAbs(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range x {
		if v < 0 {
			v = -v
		}
		sum += v
	}
	return sum / float64(len(x))
}

// fftBands returns the fraction of spectral power in each band.
func fftBands(frame []float64, sampleRate int) (low, mid, high float64) {
	buf := make([]float64, len(frame))
	copy(buf, frame)
	window.Apply(buf, window.Hann)

	spectrum := fft.FFTReal(buf)
	binHz := float64(sampleRate) / float64(len(buf))

	for k := 1; k < len(spectrum)/2; k++ {
		mag := cmplx.Abs(spectrum[k])
		power := mag * mag
		switch freq := float64(k) * binHz; {
		case freq < lowBandHz:
			low += power
		case freq < highBandHz:
			mid += power
		default:
			high += power
		}
	}

	total := low + mid + high
	if total == 0 {
		return 0, 0, 0
	}
	return low / total, mid / total, high / total
}

// SpectralAt returns the frame nearest to t.
func SpectralAt(frames []SpectralFrame, t float64) (SpectralFrame, bool) {
	i := nearestIndex(len(frames), func(i int) float64 { return frames[i].Time }, t)
	if i < 0 {
		return SpectralFrame{}, false
	}
	return frames[i], true
}
