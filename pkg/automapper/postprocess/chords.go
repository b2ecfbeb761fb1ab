package postprocess

import (
	"math"

	"github.com/himanishpuri/automapper/pkg/automapper/candidates"
	"github.com/himanishpuri/automapper/pkg/automapper/chart"
	"github.com/himanishpuri/automapper/pkg/automapper/features"
	"github.com/himanishpuri/automapper/pkg/automapper/structure"
	"github.com/himanishpuri/automapper/pkg/automapper/tuning"
)

const phraseEndProgress = 0.8

// chord chance adjustment per phrase type
var phraseChordBoost = map[structure.PhraseType]float64{
	structure.PhraseAccent: 0.25,
	structure.PhraseBurst:  0.15,
	structure.PhraseStream: -0.1,
	structure.PhraseSparse: 0.1,
}

// InjectChords adds simultaneous notes at well-separated interior hits. Added
// notes are marked ChordVariant.
func InjectChords(notes []chart.Note, opts Options) []chart.Note {
	notes = sorted(notes)
	if len(notes) < 3 {
		return notes
	}

	t := opts.Tuning
	d := tuning.ClampDifficulty(opts.Difficulty)
	var added []chart.Note

	for i := 1; i+1 < len(notes); i++ {
		n := notes[i]
		before := n.Time - notes[i-1].Time
		after := notes[i+1].Time - n.Time
		if before < t.ChordClearanceMs || after < t.ChordClearanceMs {
			continue
		}

		onset, hasOnset := features.OnsetNear(opts.Onsets, n.Time, candidates.CoverToleranceMs)
		strong := hasOnset && onset.Type == features.Strong

		if opts.Rng.Float64() >= chordChance(n, before, after, onset, hasOnset, d, opts) {
			continue
		}

		for _, z := range chordZones(n.Zone, d, strong, t, opts) {
			added = append(added, chart.Note{Time: n.Time, Zone: z, Type: chart.ChordVariant})
		}
	}

	notes = append(notes, added...)
	chart.Sort(notes)
	return notes
}

func chordChance(n chart.Note, before, after float64, onset features.Onset, hasOnset bool, d int, opts Options) float64 {
	t := opts.Tuning
	chance := tuning.ChordBaseRate(d)

	if p, ok := structure.PhraseAt(opts.Phrases, n.Time); ok {
		if p.Progress(n.Time) > phraseEndProgress {
			chance += t.ChordPhraseEndBoost
		}
		chance += phraseChordBoost[p.Type]
	}

	if hasOnset {
		switch onset.Type {
		case features.Strong:
			chance += t.ChordStrongBoost
		case features.Medium:
			chance += t.ChordMediumBoost
		}
	}

	if before > t.ChordIsolationMs || after > t.ChordIsolationMs {
		chance += t.ChordIsolationBoost
	}

	return math.Min(chance, t.ChordMaxChance)
}

// chordZones picks the partner zones: a triangle on strong hits at high
// difficulty, sometimes a neighbor from difficulty 3, otherwise the opposite.
func chordZones(z, d int, strong bool, t tuning.Tuning, opts Options) []int {
	switch {
	case d >= 4 && strong:
		return []int{chart.Wrap(z + 2), chart.Wrap(z + 4)}
	case d >= 3 && opts.Rng.Float64() < t.ChordAdjacentChance:
		if opts.Rng.IntN(2) == 0 {
			return []int{chart.Wrap(z + 1)}
		}
		return []int{chart.Wrap(z - 1)}
	default:
		return []int{chart.Opposite(z)}
	}
}
