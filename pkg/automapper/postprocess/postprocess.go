// Package postprocess refines a finished note list in ordered passes: chord
// injection, linear-to-circular adaptation, style enhancement and finally
// playability enforcement.
package postprocess

import (
	"math/rand/v2"

	"github.com/himanishpuri/automapper/pkg/automapper/chart"
	"github.com/himanishpuri/automapper/pkg/automapper/features"
	"github.com/himanishpuri/automapper/pkg/automapper/structure"
	"github.com/himanishpuri/automapper/pkg/automapper/tuning"
)

// Options carries what the passes need to know about the track.
type Options struct {
	Difficulty int
	BPM        float64
	OffsetMs   float64
	Onsets     []features.Onset
	Phrases    []structure.Phrase
	// LinearSource enables the linear-to-circular pass.
	LinearSource bool
	Tuning       tuning.Tuning
	Rng          *rand.Rand
}

// Pass is one stage of the pipeline.
type Pass struct {
	Name string
	Run  func([]chart.Note, Options) []chart.Note
}

// Passes returns the pipeline in its fixed order.
func Passes() []Pass {
	return []Pass{
		{Name: "chords", Run: InjectChords},
		{Name: "linear", Run: AdaptLinear},
		{Name: "style", Run: Enhance},
		{Name: "playability", Run: EnforcePlayability},
	}
}

// Run applies every pass in order. The result is sorted and free of exact
// (time, zone) duplicates.
func Run(notes []chart.Note, opts Options) []chart.Note {
	for _, p := range Passes() {
		notes = p.Run(notes, opts)
	}
	return notes
}

// group is a run of notes sharing one timestamp.
type group struct {
	time  float64
	notes []chart.Note
}

func groupByTime(notes []chart.Note) []group {
	var out []group
	for _, n := range notes {
		if len(out) > 0 && out[len(out)-1].time == n.Time {
			out[len(out)-1].notes = append(out[len(out)-1].notes, n)
			continue
		}
		out = append(out, group{time: n.Time, notes: []chart.Note{n}})
	}
	return out
}

func flatten(groups []group) []chart.Note {
	var out []chart.Note
	for _, g := range groups {
		for _, n := range g.notes {
			n.Time = g.time
			out = append(out, n)
		}
	}
	return out
}

// leads returns the first note of each time group. Chord partners are
// skipped so sequence passes see one zone per hit.
func leads(notes []chart.Note) []int {
	var out []int
	for i := range notes {
		if i > 0 && notes[i].Time == notes[i-1].Time {
			continue
		}
		out = append(out, i)
	}
	return out
}

// soloAt reports whether the note at i shares its time with no other note.
func soloAt(notes []chart.Note, i int) bool {
	if i > 0 && notes[i-1].Time == notes[i].Time {
		return false
	}
	if i+1 < len(notes) && notes[i+1].Time == notes[i].Time {
		return false
	}
	return true
}

func sorted(notes []chart.Note) []chart.Note {
	out := make([]chart.Note, len(notes))
	copy(out, notes)
	chart.Sort(out)
	return out
}
