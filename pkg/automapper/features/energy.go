package features

const (
	energyWindowSec = 0.050
)

// EnergySample is the loudness of one 50ms window. Energy is RMS normalized
// to the loudest window of the track.
type EnergySample struct {
	Time   float64 `json:"time"`
	RMS    float64 `json:"rms"`
	Energy float64 `json:"energy"`
}

// AnalyzeEnergy computes a 50ms RMS envelope with 50% overlap.
func AnalyzeEnergy(sig Signal) []EnergySample {
	if sig.SampleRate <= 0 || len(sig.Samples) == 0 {
		return nil
	}

	win := int(float64(sig.SampleRate) * energyWindowSec)
	if win < 1 {
		win = 1
	}
	hop := win / 2
	if hop < 1 {
		hop = 1
	}

	var out []EnergySample
	peak := 0.0
	for start := 0; start < len(sig.Samples); start += hop {
		end := min(start+win, len(sig.Samples))
		r := rms(sig.Samples[start:end])
		if r > peak {
			peak = r
		}
		out = append(out, EnergySample{Time: sig.timeOf(start), RMS: r})
		if end == len(sig.Samples) {
			break
		}
	}

	if peak > 0 {
		for i := range out {
			out[i].Energy = out[i].RMS / peak
		}
	}
	return out
}

// EnergyAt returns the normalized energy of the window nearest to t.
func EnergyAt(samples []EnergySample, t float64) float64 {
	i := nearestIndex(len(samples), func(i int) float64 { return samples[i].Time }, t)
	if i < 0 {
		return 0
	}
	return samples[i].Energy
}

// MeanEnergy averages normalized energy over [from, to). Falls back to the
// nearest window when the range holds none.
func MeanEnergy(samples []EnergySample, from, to float64) float64 {
	sum, n := 0.0, 0
	for _, s := range samples {
		if s.Time >= from && s.Time < to {
			sum += s.Energy
			n++
		}
	}
	if n == 0 {
		return EnergyAt(samples, from)
	}
	return sum / float64(n)
}
