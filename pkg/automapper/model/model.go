// Package model holds the statistical zone model: frequency tables learned
// from a chart corpus (TrainedModel), the hand-authored fallback with the same
// shape (ExpertKnowledgeBase), the Trainer, and the flat serialized form.
package model

import (
	"time"
)

// EnergyBuckets is the number of discrete energy levels zone preferences are
// recorded under.
const EnergyBuckets = 5

// TimingStat summarizes the intervals observed for one zone pair.
type TimingStat struct {
	Avg      float64 `json:"avg"`
	Variance float64 `json:"variance"`
	StdDev   float64 `json:"stdDev"`
}

// DifficultyStats are per-difficulty averages across the training charts.
type DifficultyStats struct {
	Charts      int     `json:"charts"`
	AvgInterval float64 `json:"avgInterval"`
	MinInterval float64 `json:"minInterval"`
	MaxInterval float64 `json:"maxInterval"`
	ZoneVariety float64 `json:"zoneVariety"`
	Complexity  float64 `json:"complexity"`
}

// TrainedModel is a set of frequency tables keyed by zones and zone patterns.
// It is never mutated once built; training produces a new one.
type TrainedModel struct {
	ID           string
	CreatedAt    time.Time
	Charts       int
	LinearSource bool

	// previous zone -> next zone -> count
	Bigrams map[int]map[int]float64
	// "a,b" -> interval statistics
	BigramTiming map[string]TimingStat
	// "a,b" -> third zone -> count
	Trigrams map[string]map[int]float64
	// 4- to 8-gram zone patterns -> count
	Patterns map[string]float64
	// "p|a,b,c" -> zone following the 3-gram -> count
	Contexts map[string]map[int]float64
	// 3-gram -> following 3-gram -> count
	Transitions map[string]map[string]float64
	// energy bucket -> zone -> count
	EnergyZones map[int]map[int]float64
	// zone sequences seen where density rises or falls sharply
	Buildups   map[string]float64
	Breakdowns map[string]float64
	// circular distance between consecutive zones -> count
	Proximity map[int]float64
	// "a,b" consecutive opposite-zone pairs -> count
	Symmetry map[string]float64
	// inter-note interval in quarter beats -> count
	Rhythms    map[int]float64
	Difficulty map[int]DifficultyStats
}

func newModel() *TrainedModel {
	return &TrainedModel{
		Bigrams:      make(map[int]map[int]float64),
		BigramTiming: make(map[string]TimingStat),
		Trigrams:     make(map[string]map[int]float64),
		Patterns:     make(map[string]float64),
		Contexts:     make(map[string]map[int]float64),
		Transitions:  make(map[string]map[string]float64),
		EnergyZones:  make(map[int]map[int]float64),
		Buildups:     make(map[string]float64),
		Breakdowns:   make(map[string]float64),
		Proximity:    make(map[int]float64),
		Symmetry:     make(map[string]float64),
		Rhythms:      make(map[int]float64),
		Difficulty:   make(map[int]DifficultyStats),
	}
}

// Empty reports whether the model carries no transition data.
func (m *TrainedModel) Empty() bool {
	return m == nil || len(m.Bigrams) == 0
}

// NextAfter returns next-zone counts following zone.
func (m *TrainedModel) NextAfter(zone int) map[int]float64 {
	return m.Bigrams[zone]
}

// NextInContext returns next-zone counts for the 3-gram gram preceded by prev.
func (m *TrainedModel) NextInContext(prev int, gram []int) map[int]float64 {
	return m.Contexts[ContextKey(prev, gram)]
}

// FollowingPatterns returns the 3-grams observed right after gram.
func (m *TrainedModel) FollowingPatterns(gram []int) map[string]float64 {
	return m.Transitions[PatternKey(gram)]
}

// ZonesForEnergy returns zone counts recorded under the given bucket.
func (m *TrainedModel) ZonesForEnergy(bucket int) map[int]float64 {
	return m.EnergyZones[bucket]
}

// Completions returns third-zone counts for 3-grams starting with a, b.
func (m *TrainedModel) Completions(a, b int) map[int]float64 {
	return m.Trigrams[PatternKey([]int{a, b})]
}

// EnergyBucket maps a normalized energy in [0, 1] onto a bucket index.
func EnergyBucket(energy float64) int {
	b := int(energy * EnergyBuckets)
	if b < 0 {
		return 0
	}
	if b >= EnergyBuckets {
		return EnergyBuckets - 1
	}
	return b
}

func bump[K comparable](m map[K]float64, k K) {
	m[k]++
}

func bumpNested[K, V comparable](m map[K]map[V]float64, k K, v V) {
	inner, ok := m[k]
	if !ok {
		inner = make(map[V]float64)
		m[k] = inner
	}
	inner[v]++
}

func setNested[K, V comparable](m map[K]map[V]float64, k K, v V, n float64) {
	inner, ok := m[k]
	if !ok {
		inner = make(map[V]float64)
		m[k] = inner
	}
	inner[v] = n
}
