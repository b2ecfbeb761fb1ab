// Package tuning holds the difficulty tables and the empirically tuned
// probabilities used across the generator. Values are overridable through
// Tuning; nothing here is derived, they are the shipped defaults.
package tuning

const (
	MinDifficulty = 1
	MaxDifficulty = 5
)

var (
	// notes per second targeted at each difficulty
	baseNotesPerSecond = [MaxDifficulty]float64{1.5, 2.5, 4.0, 6.0, 8.5}

	// minimum gap enforced by the playability pass, ms
	minGapMs = [MaxDifficulty]float64{250, 200, 140, 100, 80}

	// notes-per-second cap for difficulties 1..3; higher difficulties are uncapped
	densityCap = [3]int{4, 6, 9}

	// base acceptance chance for the candidate filter
	baseAcceptRate = [MaxDifficulty]float64{0.45, 0.55, 0.65, 0.8, 0.9}

	// spacing multiplier applied to the base interval
	difficultyIntervalFactor = [MaxDifficulty]float64{1.6, 1.3, 1.0, 0.8, 0.6}

	// base chord chance for the chord injector
	chordBaseRate = [MaxDifficulty]float64{0.05, 0.1, 0.15, 0.2, 0.25}
)

// ClampDifficulty forces d into [MinDifficulty, MaxDifficulty].
func ClampDifficulty(d int) int {
	if d < MinDifficulty {
		return MinDifficulty
	}
	if d > MaxDifficulty {
		return MaxDifficulty
	}
	return d
}

func idx(d int) int { return ClampDifficulty(d) - 1 }

func BaseNotesPerSecond(d int) float64 { return baseNotesPerSecond[idx(d)] }

func MinGapMs(d int) float64 { return minGapMs[idx(d)] }

// DensityCap returns the max notes per second for d, or 0 when d is uncapped.
func DensityCap(d int) int {
	if d > 3 {
		return 0
	}
	return densityCap[idx(d)]
}

func BaseAcceptRate(d int) float64 { return baseAcceptRate[idx(d)] }

func DifficultyIntervalFactor(d int) float64 { return difficultyIntervalFactor[idx(d)] }

func ChordBaseRate(d int) float64 { return chordBaseRate[idx(d)] }
