package model

import (
	"bytes"
	"errors"
	"math"
	"math/rand/v2"
	"reflect"
	"testing"
	"time"

	"github.com/himanishpuri/automapper/pkg/automapper/chart"
)

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed+1))
}

// rotationChart builds a clockwise run with a fixed 250ms spacing.
func rotationChart(n int, difficulty int, source string) chart.Chart {
	c := chart.Chart{Meta: chart.Meta{Difficulty: difficulty, BPM: 120, Source: source}}
	for i := 0; i < n; i++ {
		c.Notes = append(c.Notes, chart.Note{Time: float64(i) * 250, Zone: i % chart.ZoneCount})
	}
	return c
}

func fixedTrainer() Trainer {
	return Trainer{
		Now:   func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) },
		NewID: func() string { return "fixed" },
	}
}

func TestSelectDistribution(t *testing.T) {
	rng := newRand(1)
	table := map[string]float64{"A": 3, "B": 1}

	const trials = 20000
	counts := map[string]int{}
	for i := 0; i < trials; i++ {
		k, ok := Select(table, rng)
		if !ok {
			t.Fatal("Select reported empty table")
		}
		counts[k]++
	}

	ratio := float64(counts["A"]) / trials
	if math.Abs(ratio-0.75) > 0.02 {
		t.Errorf("Expected ~75%% A, got %.3f", ratio)
	}
}

func TestSelectDegenerate(t *testing.T) {
	rng := newRand(2)

	if _, ok := Select(map[int]float64{}, rng); ok {
		t.Error("Expected empty table to report false")
	}

	k, ok := Select(map[int]float64{4: 0, 2: 0, 3: -1}, rng)
	if !ok || k != 2 {
		t.Errorf("Expected smallest key for zero mass, got %v, %v", k, ok)
	}

	for i := 0; i < 100; i++ {
		if k, _ := Select(map[int]float64{1: 0, 5: 2}, rng); k != 5 {
			t.Fatalf("Zero-count key selected: %v", k)
		}
	}
}

func TestSelectDeterministic(t *testing.T) {
	table := map[int]float64{0: 1, 1: 2, 2: 3, 3: 4}
	a, b := newRand(9), newRand(9)
	for i := 0; i < 50; i++ {
		x, _ := Select(table, a)
		y, _ := Select(table, b)
		if x != y {
			t.Fatalf("Draw %d diverged: %d vs %d", i, x, y)
		}
	}
}

func TestTrainRotation(t *testing.T) {
	m, stats := fixedTrainer().Train([]chart.Chart{rotationChart(60, 3, "")})

	if stats.Used != 1 || stats.Skipped != 0 {
		t.Fatalf("Unexpected stats: %+v", stats)
	}
	if m.ID != "fixed" || m.Charts != 1 {
		t.Errorf("Unexpected identity: %s / %d", m.ID, m.Charts)
	}

	for a := 0; a < chart.ZoneCount; a++ {
		next := m.NextAfter(a)
		if len(next) != 1 || next[chart.Wrap(a+1)] == 0 {
			t.Errorf("Zone %d transitions %v, expected only %d", a, next, chart.Wrap(a+1))
		}
	}

	timing, ok := m.BigramTiming["0,1"]
	if !ok {
		t.Fatal("Missing timing for 0,1")
	}
	if timing.Avg != 250 || timing.Variance != 0 || timing.StdDev != 0 {
		t.Errorf("Unexpected timing: %+v", timing)
	}

	if got := m.Completions(0, 1); got[2] == 0 || len(got) != 1 {
		t.Errorf("Completions(0,1) = %v", got)
	}
	if got := m.NextInContext(0, []int{1, 2, 3}); got[4] == 0 {
		t.Errorf("Context 0|1,2,3 = %v", got)
	}
	if got := m.FollowingPatterns([]int{0, 1, 2}); got["3,4,5"] == 0 {
		t.Errorf("Transitions from 0,1,2 = %v", got)
	}
	if m.Proximity[1] != 59 {
		t.Errorf("Expected 59 unit steps, got %v", m.Proximity[1])
	}
	if m.Rhythms[2] != 59 {
		t.Errorf("Expected 250ms = 2 quarter beats at 120 BPM, got %v", m.Rhythms)
	}
	if m.Patterns["0,1,2,3,4,5,0,1"] == 0 {
		t.Error("Missing 8-gram")
	}

	ds := m.Difficulty[3]
	if ds.Charts != 1 || ds.AvgInterval != 250 || ds.ZoneVariety != 6 {
		t.Errorf("Unexpected difficulty stats: %+v", ds)
	}
	if m.LinearSource {
		t.Error("Native chart flagged as linear source")
	}
}

func TestTrainSkipsShortCharts(t *testing.T) {
	m, stats := fixedTrainer().Train([]chart.Chart{rotationChart(5, 2, ""), rotationChart(30, 2, "osumania")})

	if stats.Used != 1 || stats.Skipped != 1 {
		t.Errorf("Expected 1 used, 1 skipped, got %+v", stats)
	}
	if !m.LinearSource {
		t.Error("Expected osumania corpus to mark the model linear")
	}
}

func TestTrainIdempotent(t *testing.T) {
	corpus := []chart.Chart{rotationChart(40, 2, ""), zigzagChart(50)}

	a, _ := fixedTrainer().Train(corpus)
	b, _ := fixedTrainer().Train(corpus)

	if !reflect.DeepEqual(a, b) {
		t.Error("Training twice on the same corpus produced different models")
	}
}

func zigzagChart(n int) chart.Chart {
	c := chart.Chart{Meta: chart.Meta{Difficulty: 4, BPM: 150}}
	for i := 0; i < n; i++ {
		// speeds up halfway to exercise buildups
		step := 400.0
		if i > n/2 {
			step = 150
		}
		t := 0.0
		if len(c.Notes) > 0 {
			t = c.Notes[len(c.Notes)-1].Time + step
		}
		c.Notes = append(c.Notes, chart.Note{Time: t, Zone: []int{0, 3}[i%2]})
	}
	return c
}

func TestTrainDensityAndSymmetry(t *testing.T) {
	m, _ := fixedTrainer().Train([]chart.Chart{zigzagChart(80)})

	if len(m.Buildups) == 0 {
		t.Error("Expected a buildup where the zigzag speeds up")
	}
	if m.Symmetry["0,3"] == 0 || m.Symmetry["3,0"] == 0 {
		t.Errorf("Expected opposite pairs recorded, got %v", m.Symmetry)
	}
	if m.Proximity[3] == 0 {
		t.Errorf("Expected distance-3 steps, got %v", m.Proximity)
	}
	if len(m.EnergyZones) < 2 {
		t.Errorf("Expected notes spread over several density buckets, got %v", m.EnergyZones)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	m, _ := fixedTrainer().Train([]chart.Chart{rotationChart(40, 2, ""), zigzagChart(60)})

	restored, err := FromSnapshot(m.Snapshot())
	if err != nil {
		t.Fatalf("FromSnapshot failed: %v", err)
	}
	if !reflect.DeepEqual(m, restored) {
		t.Error("Snapshot round trip changed the model")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	m, _ := fixedTrainer().Train([]chart.Chart{rotationChart(40, 2, "bms"), zigzagChart(60)})

	var buf bytes.Buffer
	if err := WriteJSON(&buf, m); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	restored, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}

	if !restored.CreatedAt.Equal(m.CreatedAt) {
		t.Errorf("CreatedAt changed: %v vs %v", restored.CreatedAt, m.CreatedAt)
	}
	restored.CreatedAt = m.CreatedAt
	if !reflect.DeepEqual(m, restored) {
		t.Error("JSON round trip changed the model")
	}
}

func TestUnmarshalCorrupt(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "{"},
		{"wrong version", `{"version": 99}`},
		{"bad bigram", `{"version": 1, "tables": {"bigrams": {"0,9": 1}}}`},
		{"bad context", `{"version": 1, "tables": {"contexts": {"0|1,2,3": 1}}}`},
		{"bad energy", `{"version": 1, "tables": {"energyZones": {"x:1": 1}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal([]byte(tt.data))
			if !errors.Is(err, ErrCorruptSnapshot) {
				t.Errorf("Expected ErrCorruptSnapshot, got %v", err)
			}
		})
	}
}

func TestExpertKnowledgeBase(t *testing.T) {
	kb := NewExpertKnowledgeBase()

	if kb.Empty() {
		t.Fatal("Expert knowledge base should not be empty")
	}
	for a := 0; a < chart.ZoneCount; a++ {
		next := kb.NextAfter(a)
		if next[chart.Wrap(a+1)] <= next[chart.Opposite(a)] {
			t.Errorf("Zone %d: adjacent step should outweigh the jump across", a)
		}
	}

	// a clockwise start should prefer continuing clockwise
	comp := kb.Completions(0, 1)
	best, bestN := -1, 0.0
	for z, n := range comp {
		if n > bestN {
			best, bestN = z, n
		}
	}
	if best != 2 {
		t.Errorf("Expected 2 to follow 0,1, got %d (%v)", best, comp)
	}

	for b := 0; b < EnergyBuckets; b++ {
		if len(kb.ZonesForEnergy(b)) != chart.ZoneCount {
			t.Errorf("Bucket %d missing zones", b)
		}
	}

	if _, err := FromSnapshot(kb.Snapshot()); err != nil {
		t.Errorf("Expert snapshot does not round trip: %v", err)
	}
}

func TestEnergyBucket(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{-1, 0}, {0, 0}, {0.19, 0}, {0.2, 1}, {0.5, 2}, {0.99, 4}, {1, 4}, {3, 4},
	}
	for _, tt := range tests {
		if got := EnergyBucket(tt.in); got != tt.want {
			t.Errorf("EnergyBucket(%v) = %d, expected %d", tt.in, got, tt.want)
		}
	}
}

func TestPatternKeys(t *testing.T) {
	if got := PatternKey([]int{1, 2, 3}); got != "1,2,3" {
		t.Errorf("PatternKey = %q", got)
	}
	if got := ContextKey(5, []int{0, 1, 2}); got != "5|0,1,2" {
		t.Errorf("ContextKey = %q", got)
	}
	p, err := ParsePattern("4,5,0")
	if err != nil || !reflect.DeepEqual(p, []int{4, 5, 0}) {
		t.Errorf("ParsePattern = %v, %v", p, err)
	}
	if _, err := ParsePattern("1,x"); err == nil {
		t.Error("Expected error for non-numeric zone")
	}
}

func TestInfo(t *testing.T) {
	m, _ := fixedTrainer().Train([]chart.Chart{rotationChart(40, 2, "")})
	info := m.Info()

	if info.Tables[TableBigrams] != 6 {
		t.Errorf("Expected 6 bigrams, got %d", info.Tables[TableBigrams])
	}
	if info.Charts != 1 || info.ID != "fixed" {
		t.Errorf("Unexpected info: %+v", info)
	}
}
