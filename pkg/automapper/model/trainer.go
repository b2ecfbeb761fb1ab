package model

import (
	"maps"
	"math"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/himanishpuri/automapper/pkg/automapper/chart"
	"gonum.org/v1/gonum/stat"
)

const (
	MinTrainingNotes = 10

	densityWindowMs   = 5000.0
	buildupRatio      = 1.3
	breakdownRatio    = 0.7
	maxSequenceLen    = 8
	localDensityMs    = 1000.0
	notesPerBucket    = 2.0
	rhythmSubdivision = 4
)

// linearSources are chart formats laid out on parallel lanes rather than a circle.
var linearSources = map[string]bool{
	"osu":       true,
	"osumania":  true,
	"stepmania": true,
	"sm":        true,
	"bms":       true,
	"bme":       true,
	"chunithm":  true,
}

// IsLinearSource reports whether charts from source use lane-based phrasing.
func IsLinearSource(source string) bool {
	return linearSources[strings.ToLower(source)]
}

// TrainStats reports what a training run consumed.
type TrainStats struct {
	Used    int
	Skipped int
}

// Trainer folds a corpus of charts into a TrainedModel.
// The zero value is ready to use; Now and NewID exist for reproducible IDs.
type Trainer struct {
	Now   func() time.Time
	NewID func() string
}

// Train builds a new model from charts. Charts with fewer than ten notes are
// skipped. The trainer itself is deterministic: identical corpora yield
// identical tables.
func (tr Trainer) Train(charts []chart.Chart) (*TrainedModel, TrainStats) {
	m := newModel()
	acc := newAccumulator()
	var stats TrainStats

	for _, c := range charts {
		c.Notes = playableNotes(c.Notes)
		if len(c.Notes) < MinTrainingNotes {
			stats.Skipped++
			continue
		}
		acc.fold(m, c)
		if IsLinearSource(c.Meta.Source) {
			m.LinearSource = true
		}
		stats.Used++
	}

	acc.finish(m)
	m.Charts = stats.Used

	now := time.Now
	if tr.Now != nil {
		now = tr.Now
	}
	m.CreatedAt = now().UTC()

	if tr.NewID != nil {
		m.ID = tr.NewID()
	} else {
		m.ID = uuid.NewString()
	}

	return m, stats
}

// playableNotes drops notes whose time cannot be placed on a track.
func playableNotes(notes []chart.Note) []chart.Note {
	out := make([]chart.Note, 0, len(notes))
	for _, n := range notes {
		if chart.ValidTime(n.Time) {
			out = append(out, n)
		}
	}
	return out
}

type difficultyAcc struct {
	charts  int
	avg     float64
	min     float64
	max     float64
	variety float64
	complex float64
}

type accumulator struct {
	timings    map[string][]float64
	difficulty map[int]*difficultyAcc
}

func newAccumulator() *accumulator {
	return &accumulator{
		timings:    make(map[string][]float64),
		difficulty: make(map[int]*difficultyAcc),
	}
}

func (a *accumulator) fold(m *TrainedModel, c chart.Chart) {
	notes := make([]chart.Note, len(c.Notes))
	copy(notes, c.Notes)
	chart.Sort(notes)

	zones := make([]int, len(notes))
	times := make([]float64, len(notes))
	for i, n := range notes {
		zones[i] = chart.Wrap(n.Zone)
		times[i] = n.Time
	}

	// 1. Bigrams and their timing
	for i := 0; i+1 < len(zones); i++ {
		bumpNested(m.Bigrams, zones[i], zones[i+1])
		key := PatternKey(zones[i : i+2])
		a.timings[key] = append(a.timings[key], times[i+1]-times[i])

		bump(m.Proximity, chart.Distance(zones[i], zones[i+1]))
		if zones[i+1] == chart.Opposite(zones[i]) {
			bump(m.Symmetry, key)
		}
	}

	// 2. Trigrams and longer patterns
	for i := 0; i+3 <= len(zones); i++ {
		bumpNested(m.Trigrams, PatternKey(zones[i:i+2]), zones[i+2])
	}
	for n := 4; n <= maxSequenceLen; n++ {
		for i := 0; i+n <= len(zones); i++ {
			bump(m.Patterns, PatternKey(zones[i:i+n]))
		}
	}

	// 3. Context-prefixed 3-grams and pattern transitions
	for i := 1; i+3 < len(zones); i++ {
		bumpNested(m.Contexts, ContextKey(zones[i-1], zones[i:i+3]), zones[i+3])
	}
	for i := 0; i+6 <= len(zones); i++ {
		bumpNested(m.Transitions, PatternKey(zones[i:i+3]), PatternKey(zones[i+3:i+6]))
	}

	// 4. Density curve: buildups and breakdowns
	a.foldDensity(m, zones, times)

	// 5. Energy proxy: local note density around each note
	for i := range notes {
		bumpNested(m.EnergyZones, densityBucket(times, i), zones[i])
	}

	// 6. Rhythm motifs in quarter beats
	if c.Meta.BPM > 0 {
		quarter := 60000.0 / c.Meta.BPM / rhythmSubdivision
		for i := 0; i+1 < len(times); i++ {
			if q := int(math.Round((times[i+1] - times[i]) / quarter)); q > 0 {
				bump(m.Rhythms, q)
			}
		}
	}

	a.foldDifficulty(c.Meta.Difficulty, zones, times)
}

func (a *accumulator) foldDensity(m *TrainedModel, zones []int, times []float64) {
	// windows are sparse: a chart may have long silent stretches
	counts := make(map[int]int)
	members := make(map[int][]int)
	for i, t := range times {
		w := max(int(t/densityWindowMs), 0)
		counts[w]++
		if len(members[w]) < maxSequenceLen {
			members[w] = append(members[w], zones[i])
		}
	}

	windows := slices.Sorted(maps.Keys(counts))
	for _, w := range windows {
		prev, cur := float64(counts[w-1]), float64(counts[w])
		if prev == 0 {
			continue
		}
		switch {
		case cur > prev*buildupRatio:
			bump(m.Buildups, PatternKey(members[w]))
		case cur < prev*breakdownRatio:
			bump(m.Breakdowns, PatternKey(members[w]))
		}
	}
}

// densityBucket counts notes within one second either side of note i and maps
// the rate onto an energy bucket.
func densityBucket(times []float64, i int) int {
	lo := sort.SearchFloat64s(times, times[i]-localDensityMs)
	hi := sort.SearchFloat64s(times, times[i]+localDensityMs)
	rate := float64(hi-lo) / (2 * localDensityMs / 1000.0)
	return EnergyBucket(rate / (notesPerBucket * EnergyBuckets))
}

func (a *accumulator) foldDifficulty(d int, zones []int, times []float64) {
	var intervals []float64
	for i := 0; i+1 < len(times); i++ {
		if gap := times[i+1] - times[i]; gap > 0 {
			intervals = append(intervals, gap)
		}
	}
	if len(intervals) == 0 {
		return
	}

	distinct := make(map[int]bool)
	for _, z := range zones {
		distinct[z] = true
	}
	grams := make(map[string]bool)
	total := 0
	for i := 0; i+3 <= len(zones); i++ {
		grams[PatternKey(zones[i:i+3])] = true
		total++
	}

	acc, ok := a.difficulty[d]
	if !ok {
		acc = &difficultyAcc{}
		a.difficulty[d] = acc
	}
	acc.charts++
	acc.avg += stat.Mean(intervals, nil)
	acc.min += minOf(intervals)
	acc.max += maxOf(intervals)
	acc.variety += float64(len(distinct))
	if total > 0 {
		acc.complex += float64(len(grams)) / float64(total)
	}
}

func (a *accumulator) finish(m *TrainedModel) {
	for key, list := range a.timings {
		mean, variance := stat.PopMeanVariance(list, nil)
		m.BigramTiming[key] = TimingStat{Avg: mean, Variance: variance, StdDev: math.Sqrt(variance)}
	}

	for d, acc := range a.difficulty {
		n := float64(acc.charts)
		m.Difficulty[d] = DifficultyStats{
			Charts:      acc.charts,
			AvgInterval: acc.avg / n,
			MinInterval: acc.min / n,
			MaxInterval: acc.max / n,
			ZoneVariety: acc.variety / n,
			Complexity:  acc.complex / n,
		}
	}
}

func minOf(x []float64) float64 {
	m := x[0]
	for _, v := range x[1:] {
		m = math.Min(m, v)
	}
	return m
}

func maxOf(x []float64) float64 {
	m := x[0]
	for _, v := range x[1:] {
		m = math.Max(m, v)
	}
	return m
}
