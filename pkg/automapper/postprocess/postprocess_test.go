package postprocess

import (
	"math/rand/v2"
	"testing"

	"github.com/himanishpuri/automapper/pkg/automapper/chart"
	"github.com/himanishpuri/automapper/pkg/automapper/features"
	"github.com/himanishpuri/automapper/pkg/automapper/structure"
	"github.com/himanishpuri/automapper/pkg/automapper/tuning"
)

func testOptions(d int, seed uint64) Options {
	return Options{
		Difficulty: d,
		BPM:        120,
		Tuning:     tuning.Default(),
		Rng:        rand.New(rand.NewPCG(seed, 1)),
	}
}

func evenNotes(n int, stepMs float64, zoneOf func(int) int) []chart.Note {
	out := make([]chart.Note, n)
	for i := range out {
		out[i] = chart.Note{Time: float64(i) * stepMs, Zone: zoneOf(i)}
	}
	return out
}

func assertSortedUnique(t *testing.T, notes []chart.Note) {
	t.Helper()
	type key struct {
		time float64
		zone int
	}
	seen := map[key]bool{}
	for i, n := range notes {
		if !chart.Valid(n.Zone) {
			t.Fatalf("Note %d has zone %d", i, n.Zone)
		}
		if i > 0 && n.Time < notes[i-1].Time {
			t.Fatalf("Notes out of order at %d", i)
		}
		k := key{n.Time, n.Zone}
		if seen[k] {
			t.Fatalf("Duplicate note at %.1fms zone %d", n.Time, n.Zone)
		}
		seen[k] = true
	}
}

func assertMinGap(t *testing.T, notes []chart.Note, minGap float64) {
	t.Helper()
	for i := 1; i < len(notes); i++ {
		gap := notes[i].Time - notes[i-1].Time
		if gap > 0 && gap < minGap-1e-9 {
			t.Fatalf("Notes at %.1fms and %.1fms are %.1fms apart, minimum %.0f", notes[i-1].Time, notes[i].Time, gap, minGap)
		}
	}
}

func TestInjectChordsStrongTriangle(t *testing.T) {
	notes := evenNotes(3, 700, func(int) int { return 0 })
	opts := testOptions(5, 1)
	opts.Tuning.ChordMaxChance = 1
	opts.Onsets = []features.Onset{{Time: 700, Strength: 3, Type: features.Strong}}
	// a strong, isolated hit at difficulty 5: 0.25 + 0.3 + 0.2 before the cap
	opts.Tuning.ChordIsolationBoost = 1

	out := InjectChords(notes, opts)

	if len(out) != 5 {
		t.Fatalf("Expected triangle chord (5 notes), got %d: %+v", len(out), out)
	}
	chordZones := map[int]bool{}
	for _, n := range out {
		if n.Time == 700 && n.Type == chart.ChordVariant {
			chordZones[n.Zone] = true
		}
	}
	if !chordZones[2] || !chordZones[4] {
		t.Errorf("Expected chord partners at zones 2 and 4, got %v", chordZones)
	}
}

func TestInjectChordsNeedsClearance(t *testing.T) {
	notes := evenNotes(20, 200, func(i int) int { return i % 6 })
	opts := testOptions(5, 2)
	opts.Tuning.ChordMaxChance = 1
	opts.Tuning.ChordIsolationBoost = 1

	if out := InjectChords(notes, opts); len(out) != len(notes) {
		t.Errorf("Expected no chords without 300ms clearance, got %d extra", len(out)-len(notes))
	}
}

func TestInjectChordsOpposite(t *testing.T) {
	notes := evenNotes(30, 800, func(i int) int { return i % 6 })
	opts := testOptions(1, 3)

	out := InjectChords(notes, opts)

	for i := 1; i < len(out); i++ {
		if out[i].Type != chart.ChordVariant {
			continue
		}
		lead := out[i-1]
		if lead.Time != out[i].Time {
			lead = out[i+1]
		}
		if out[i].Zone != chart.Opposite(lead.Zone) {
			t.Errorf("Difficulty 1 chord at %.0fms uses zone %d, expected opposite of %d", out[i].Time, out[i].Zone, lead.Zone)
		}
	}
	if len(out) == len(notes) {
		t.Error("Expected isolated notes to gather at least one chord")
	}
}

func TestChordChancePhraseEnd(t *testing.T) {
	opts := testOptions(1, 1)
	opts.Phrases = []structure.Phrase{{Start: 0, End: 1000, Type: structure.PhraseAccent}}
	n := chart.Note{Time: 900}

	got := chordChance(n, 350, 350, features.Onset{}, false, 1, opts)
	want := tuning.ChordBaseRate(1) + opts.Tuning.ChordPhraseEndBoost + 0.25
	if got != want {
		t.Errorf("chordChance = %v, expected %v", got, want)
	}

	opts.Tuning.ChordPhraseEndBoost = 5
	if got := chordChance(n, 350, 350, features.Onset{}, false, 1, opts); got != opts.Tuning.ChordMaxChance {
		t.Errorf("Expected cap %v, got %v", opts.Tuning.ChordMaxChance, got)
	}
}

func TestAdaptLinearZigzag(t *testing.T) {
	zones := []int{1, 2, 1, 2, 5}
	notes := evenNotes(len(zones), 300, func(i int) int { return zones[i] })
	opts := testOptions(3, 1)
	opts.LinearSource = true

	out := AdaptLinear(notes, opts)

	want := []int{1, 2, 3, 4, 5}
	for i, n := range out {
		if n.Zone != want[i] {
			t.Errorf("Zone %d = %d, expected %d", i, n.Zone, want[i])
		}
	}
}

func TestAdaptLinearStaircase(t *testing.T) {
	zones := []int{0, 3, 5}
	notes := evenNotes(len(zones), 300, func(i int) int { return zones[i] })
	opts := testOptions(3, 1)
	opts.LinearSource = true

	out := AdaptLinear(notes, opts)

	want := []int{0, 1, 2}
	for i, n := range out {
		if n.Zone != want[i] {
			t.Errorf("Zone %d = %d, expected %d", i, n.Zone, want[i])
		}
	}
}

func TestAdaptLinearDisabled(t *testing.T) {
	zones := []int{1, 2, 1, 2}
	notes := evenNotes(len(zones), 300, func(i int) int { return zones[i] })

	out := AdaptLinear(notes, testOptions(3, 1))
	for i, n := range out {
		if n.Zone != zones[i] {
			t.Fatalf("Native source rewritten at %d", i)
		}
	}
}

func TestEvenFlow(t *testing.T) {
	notes := []chart.Note{
		{Time: 0, Zone: 0},
		{Time: 100, Zone: 1},
		{Time: 500, Zone: 2},
		{Time: 600, Zone: 3},
	}

	out := evenFlow(notes)

	for i, want := range []float64{0, 200, 400, 600} {
		if out[i].Time != want {
			t.Errorf("Note %d at %v, expected %v", i, out[i].Time, want)
		}
	}
}

func TestBurstsOnlyAtHighDifficulty(t *testing.T) {
	// dense run then a long gap
	notes := []chart.Note{{Time: 0, Zone: 0}, {Time: 150, Zone: 1}, {Time: 300, Zone: 2}, {Time: 1200, Zone: 3}}

	low := testOptions(3, 4)
	low.Tuning.SymmetryNoteChance = 0
	if out := Enhance(notes, low); len(out) != len(notes) {
		t.Errorf("Difficulty 3 should not add bursts, got %d notes", len(out))
	}

	high := testOptions(5, 4)
	high.Tuning.SymmetryNoteChance = 0
	out := Enhance(notes, high)
	if len(out) <= len(notes) {
		t.Fatalf("Expected a burst after the dense run, got %d notes", len(out))
	}
	for _, n := range out {
		if n.Time > 300 && n.Time < 1200 {
			if gap := n.Time - 300; gap < burstSpacingMinMs || gap > 3*(burstSpacingMinMs+burstSpacingRangeMs) {
				t.Errorf("Burst note %.1fms after the run end", gap)
			}
		}
	}
}

func TestBurstsSurvivePlayability(t *testing.T) {
	notes := []chart.Note{{Time: 0, Zone: 0}, {Time: 150, Zone: 1}, {Time: 300, Zone: 2}, {Time: 1500, Zone: 5}}

	for _, d := range []int{4, 5} {
		for seed := uint64(1); seed <= 20; seed++ {
			opts := testOptions(d, seed)
			burst := injectBursts(sorted(notes), opts)
			chart.Sort(burst)
			if len(burst) <= len(notes) {
				t.Fatalf("Difficulty %d seed %d: expected a burst, got %d notes", d, seed, len(burst))
			}

			out := EnforcePlayability(burst, opts)
			if len(out) != len(burst) {
				t.Errorf("Difficulty %d seed %d: playability dropped %d burst notes", d, seed, len(burst)-len(out))
			}
		}
	}
}

func TestSmoothZigzags(t *testing.T) {
	notes := evenNotes(3, 300, func(i int) int { return []int{0, 3, 0}[i] })
	opts := testOptions(3, 5)
	opts.Tuning.ZigzagSmoothChance = 1

	smoothZigzags(notes, opts)
	if z := notes[1].Zone; z != 1 && z != 5 {
		t.Errorf("Expected middle snapped next to zone 0, got %d", z)
	}
}

func TestOverlayClimax(t *testing.T) {
	notes := append(evenNotes(10, 500, func(int) int { return 3 }), evenNotes(10, 120, func(int) int { return 3 })...)
	for i := 10; i < 20; i++ {
		notes[i].Time = 6000 + float64(i-10)*120
	}
	opts := testOptions(3, 6)
	opts.Tuning.ClimaxOverlay = 1

	overlayClimax(notes, opts)

	for i := 10; i < 20; i++ {
		if want := chart.Wrap(3 + i - 10); notes[i].Zone != want {
			t.Errorf("Climax note %d zone %d, expected %d", i, notes[i].Zone, want)
		}
	}
	if notes[0].Zone != 3 || notes[9].Zone != 3 {
		t.Error("Notes outside the climax were rewritten")
	}
}

func TestEnforcePlayabilityMinGap(t *testing.T) {
	for d := tuning.MinDifficulty; d <= tuning.MaxDifficulty; d++ {
		notes := evenNotes(200, 37, func(i int) int { return (i * 2) % 6 })
		// a chord is allowed to share a timestamp
		notes = append(notes, chart.Note{Time: 37 * 40, Zone: 5, Type: chart.ChordVariant})

		out := EnforcePlayability(notes, testOptions(d, uint64(d)))

		assertSortedUnique(t, out)
		assertMinGap(t, out, tuning.MinGapMs(d))
	}
}

func TestEnforcePlayabilityDensityCap(t *testing.T) {
	notes := evenNotes(100, 250, func(i int) int { return i % 6 })
	for i := range notes {
		notes = append(notes, chart.Note{Time: notes[i].Time, Zone: chart.Opposite(notes[i].Zone), Type: chart.ChordVariant})
	}

	out := EnforcePlayability(notes, testOptions(1, 7))

	limit := tuning.DensityCap(1)
	for i := range out {
		n := 0
		for j := i; j < len(out) && out[j].Time-out[i].Time < capWindowMs; j++ {
			n++
		}
		if n > limit {
			t.Fatalf("Window at %.0fms holds %d notes, cap %d", out[i].Time, n, limit)
		}
	}
}

func TestEnforcePlayabilityBreaksRepeats(t *testing.T) {
	notes := evenNotes(3, 400, func(int) int { return 2 })

	out := EnforcePlayability(notes, testOptions(5, 8))

	if z := out[1].Zone; z != 1 && z != 3 {
		t.Errorf("Expected middle repeat nudged to a neighbor, got %d", z)
	}
}

func TestEnforcePlayabilityQuantizes(t *testing.T) {
	// 120 BPM: 1/16 grid is 125ms
	notes := []chart.Note{{Time: 10, Zone: 0}, {Time: 510, Zone: 1}, {Time: 990, Zone: 2}}

	out := EnforcePlayability(notes, testOptions(2, 9))

	for i, want := range []float64{0, 500, 1000} {
		if out[i].Time != want {
			t.Errorf("Note %d at %v, expected %v", i, out[i].Time, want)
		}
	}

	high := EnforcePlayability(notes, testOptions(4, 9))
	if high[0].Time != 10 {
		t.Errorf("Difficulty 4 should not quantize, got %v", high[0].Time)
	}
}

func TestCollapseClusters(t *testing.T) {
	groups := groupByTime([]chart.Note{{Time: 0}, {Time: 60}, {Time: 120}, {Time: 500}})

	out := collapseClusters(groups)

	if len(out) != 3 || out[1].time != 120 {
		t.Errorf("Expected middle of the cluster removed, got %+v", out)
	}
}

func TestRunPipeline(t *testing.T) {
	notes := evenNotes(300, 90, func(i int) int { return (i / 3) % 6 })

	for d := tuning.MinDifficulty; d <= tuning.MaxDifficulty; d++ {
		opts := testOptions(d, uint64(10+d))
		opts.LinearSource = d%2 == 0
		opts.Phrases = []structure.Phrase{{Start: 0, End: 30000, Type: structure.PhraseNormal}}

		out := Run(notes, opts)

		if len(out) == 0 {
			t.Fatalf("Difficulty %d produced no notes", d)
		}
		assertSortedUnique(t, out)
		assertMinGap(t, out, tuning.MinGapMs(d))
	}
}
