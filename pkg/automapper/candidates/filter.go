package candidates

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/himanishpuri/automapper/pkg/automapper/structure"
	"github.com/himanishpuri/automapper/pkg/automapper/tuning"
)

const (
	contrastWindowMs = 2000.0
	spamWindowMs     = 1000.0
)

// FilterConfig parameterizes SmartFilterWithStructure.
type FilterConfig struct {
	Difficulty        int
	MinNoteIntervalMs float64
	DurationMs        float64
	Tuning            tuning.Tuning
}

// DensityFloor is the minimum accepted count for the track.
func (c FilterConfig) DensityFloor() int {
	base := tuning.BaseNotesPerSecond(c.Difficulty)
	return int(math.Floor(c.DurationMs / 1000.0 * base * c.Tuning.DensityFloorRatio))
}

// SmartFilterWithStructure accepts candidates in time order against a dynamic
// spacing gate, a 1s anti-spam window and a probabilistic gate, then backfills
// the highest-weight rejects until the planned target is met. The floor can
// only be met when enough candidates exist.
func SmartFilterWithStructure(cands []Candidate, plan structure.Plan, cfg FilterConfig, rng *rand.Rand) []Candidate {
	if len(cands) == 0 {
		return nil
	}

	t := cfg.Tuning
	d := tuning.ClampDifficulty(cfg.Difficulty)
	base := tuning.BaseNotesPerSecond(d)
	spamCap := int(math.Ceil(base * t.SpamRateMultiplier))

	accepted := make([]Candidate, 0, len(cands))
	var rejected []Candidate
	var recent, spam []float64
	lastAccepted := math.Inf(-1)

	for _, c := range cands {
		recent = trimBefore(recent, c.Time-contrastWindowMs)
		spam = trimBefore(spam, c.Time-spamWindowMs)

		mult := plan.MultiplierAt(c.Time)
		interval := cfg.MinNoteIntervalMs *
			tuning.DifficultyIntervalFactor(d) *
			(1.2 - 0.5*c.Energy) /
			mult /
			contrastFactor(recent, plan.RateAt(c.Time), t)

		if c.Time-lastAccepted < interval || len(spam) >= spamCap {
			rejected = append(rejected, c)
			continue
		}

		if !acceptRoll(c, d, mult, t, rng) {
			rejected = append(rejected, c)
			continue
		}

		accepted = append(accepted, c)
		recent = append(recent, c.Time)
		spam = append(spam, c.Time)
		lastAccepted = c.Time
	}

	target := max(plan.Total, cfg.DensityFloor())
	if len(accepted) < target && len(rejected) > 0 {
		sort.SliceStable(rejected, func(i, j int) bool { return rejected[i].Weight > rejected[j].Weight })
		need := min(target-len(accepted), len(rejected))
		accepted = append(accepted, rejected[:need]...)
		sortByTime(accepted)
	}

	return accepted
}

// contrastFactor tightens the gate where recent density already exceeds the
// planned rate and relaxes it where the chart has gone sparse.
func contrastFactor(recent []float64, targetRate float64, t tuning.Tuning) float64 {
	rate := float64(len(recent)) / (contrastWindowMs / 1000.0)
	switch {
	case rate > targetRate*t.DenseContrastRatio:
		return t.DenseIntervalFactor
	case rate < targetRate*t.SparseContrastRatio:
		return t.SparseIntervalScale
	default:
		return 1
	}
}

func acceptRoll(c Candidate, d int, sectionMult float64, t tuning.Tuning, rng *rand.Rand) bool {
	if d >= 4 {
		return rng.Float64() < t.HighDifficultyPass || c.Energy > t.MeaningfulEnergy
	}
	chance := tuning.BaseAcceptRate(d)*sectionMult +
		c.Energy*t.EnergyBoost +
		math.Min(c.Weight, 1)*t.WeightBoost
	chance = math.Min(chance, t.MaxAcceptChance)
	return rng.Float64() < chance
}

func trimBefore(times []float64, cutoff float64) []float64 {
	i := 0
	for i < len(times) && times[i] <= cutoff {
		i++
	}
	return times[i:]
}
