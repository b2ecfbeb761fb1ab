package candidates

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/himanishpuri/automapper/pkg/automapper/features"
	"github.com/himanishpuri/automapper/pkg/automapper/structure"
	"github.com/himanishpuri/automapper/pkg/automapper/tuning"
)

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func flatEnergy(durationMs, level float64) []features.EnergySample {
	var out []features.EnergySample
	for t := 0.0; t < durationMs; t += 25 {
		out = append(out, features.EnergySample{Time: t, Energy: level})
	}
	return out
}

func TestSmartCombine(t *testing.T) {
	onsets := []features.Onset{
		{Time: 500, Type: features.Strong},
		{Time: 1010, Type: features.Weak},
	}
	beats := []float64{0, 500, 1000, 1500}
	energy := flatEnergy(2000, 0.5)

	cands := SmartCombine(onsets, beats, energy)

	if len(cands) != 4 {
		t.Fatalf("Expected 4 candidates (2 onsets + 2 uncovered beats), got %d: %+v", len(cands), cands)
	}

	want := []struct {
		time   float64
		weight float64
		onset  bool
	}{
		{0, 0.15, false},
		{500, 0.75, true},
		{1010, 0.2, true},
		{1500, 0.15, false},
	}
	for i, w := range want {
		c := cands[i]
		if c.Time != w.time || c.FromOnset != w.onset || math.Abs(c.Weight-w.weight) > 1e-9 {
			t.Errorf("Candidate %d = %+v, expected time %v weight %v onset %v", i, c, w.time, w.weight, w.onset)
		}
	}
}

func TestGridSubdivisions(t *testing.T) {
	tests := []struct {
		bpm, rate float64
		want      int
	}{
		{120, 1.5, 1},
		{120, 4.0, 4},
		{120, 8.5, 8},
		{180, 2.5, 2},
		{0, 4, 1},
	}
	for _, tt := range tests {
		if got := GridSubdivisions(tt.bpm, tt.rate); got != tt.want {
			t.Errorf("GridSubdivisions(%v, %v) = %d, expected %d", tt.bpm, tt.rate, got, tt.want)
		}
	}
}

func gridCandidates(durationMs, stepMs, energy float64) []Candidate {
	var out []Candidate
	for ts := 0.0; ts < durationMs; ts += stepMs {
		out = append(out, Candidate{Time: ts, Weight: energy * gridWeight, Energy: energy})
	}
	return out
}

func planFor(durationMs float64, difficulty int) structure.Plan {
	sections := structure.AnalyzeSongStructure(flatEnergy(durationMs, 0.5), nil, durationMs)
	return structure.PlanDistribution(sections, difficulty)
}

func TestSmartFilterDensityFloor(t *testing.T) {
	duration := 30000.0

	for d := tuning.MinDifficulty; d <= tuning.MaxDifficulty; d++ {
		cfg := FilterConfig{
			Difficulty:        d,
			MinNoteIntervalMs: 100,
			DurationMs:        duration,
			Tuning:            tuning.Default(),
		}
		cands := gridCandidates(duration, 50, 0.2)

		accepted := SmartFilterWithStructure(cands, planFor(duration, d), cfg, newRand(uint64(d)))

		floor := cfg.DensityFloor()
		if len(accepted) < floor {
			t.Errorf("Difficulty %d: accepted %d, expected at least %d", d, len(accepted), floor)
		}
		for i := 1; i < len(accepted); i++ {
			if accepted[i].Time < accepted[i-1].Time {
				t.Errorf("Difficulty %d: accepted not time-ordered at %d", d, i)
				break
			}
		}
	}
}

func TestSmartFilterSpacing(t *testing.T) {
	duration := 20000.0
	cfg := FilterConfig{
		Difficulty:        1,
		MinNoteIntervalMs: 100,
		DurationMs:        duration,
		Tuning:            tuning.Default(),
	}
	plan := structure.Plan{Difficulty: 1}
	cfg.Tuning.DensityFloorRatio = 0

	accepted := SmartFilterWithStructure(gridCandidates(duration, 10, 1.0), plan, cfg, newRand(7))

	// energy 1.0 at difficulty 1 in an unlabeled track: 100 * 1.6 * 0.7 / 0.9 at the loosest contrast
	minInterval := 100 * 1.6 * 0.7 / 0.9 / cfg.Tuning.SparseIntervalScale
	for i := 1; i < len(accepted); i++ {
		if gap := accepted[i].Time - accepted[i-1].Time; gap < minInterval-1e-9 {
			t.Fatalf("Accepted notes %d and %d only %.1fms apart", i-1, i, gap)
		}
	}

	spamCap := int(math.Ceil(tuning.BaseNotesPerSecond(1) * cfg.Tuning.SpamRateMultiplier))
	for i := range accepted {
		n := 0
		for j := i; j < len(accepted) && accepted[j].Time-accepted[i].Time < spamWindowMs; j++ {
			n++
		}
		if n > spamCap {
			t.Fatalf("Window at %.0fms holds %d notes, cap is %d", accepted[i].Time, n, spamCap)
		}
	}
}

func TestSmartFilterDeterministic(t *testing.T) {
	duration := 15000.0
	cfg := FilterConfig{Difficulty: 3, MinNoteIntervalMs: 100, DurationMs: duration, Tuning: tuning.Default()}
	cands := gridCandidates(duration, 125, 0.4)
	plan := planFor(duration, 3)

	a := SmartFilterWithStructure(cands, plan, cfg, newRand(42))
	b := SmartFilterWithStructure(cands, plan, cfg, newRand(42))

	if len(a) != len(b) {
		t.Fatalf("Same seed produced %d and %d candidates", len(a), len(b))
	}
	for i := range a {
		if a[i].Time != b[i].Time {
			t.Fatalf("Same seed diverged at %d", i)
		}
	}
}

func TestSmartFilterEmpty(t *testing.T) {
	cfg := FilterConfig{Difficulty: 3, MinNoteIntervalMs: 100, DurationMs: 1000, Tuning: tuning.Default()}
	if got := SmartFilterWithStructure(nil, structure.Plan{}, cfg, newRand(1)); got != nil {
		t.Errorf("Expected nil, got %v", got)
	}
}

func TestContrastFactor(t *testing.T) {
	tun := tuning.Default()

	dense := make([]float64, 12)
	if got := contrastFactor(dense, 4, tun); got != tun.DenseIntervalFactor {
		t.Errorf("Dense window factor %v, expected %v", got, tun.DenseIntervalFactor)
	}
	if got := contrastFactor(nil, 4, tun); got != tun.SparseIntervalScale {
		t.Errorf("Empty window factor %v, expected %v", got, tun.SparseIntervalScale)
	}
	if got := contrastFactor(make([]float64, 8), 4, tun); got != 1 {
		t.Errorf("On-target window factor %v, expected 1", got)
	}
}
