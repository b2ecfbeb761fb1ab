package chart

import "sort"

// ZoneCount is the number of input zones arranged around the play circle.
const ZoneCount = 6

type NoteType int

const (
	Regular NoteType = iota
	ChordVariant
)

func (t NoteType) String() string {
	switch t {
	case Regular:
		return "regular"
	case ChordVariant:
		return "chord"
	default:
		return "unknown"
	}
}

// Note is a single timed hit. Time is in milliseconds from the start of the track.
type Note struct {
	Time float64  `json:"time"`
	Zone int      `json:"zone"`
	Type NoteType `json:"type"`
}

// Meta carries chart-level information used by training.
type Meta struct {
	Difficulty int     `json:"difficulty"`
	BPM        float64 `json:"bpm"`
	Title      string  `json:"title,omitempty"`
	Source     string  `json:"source,omitempty"`
}

// Chart is a playable note sequence plus its metadata.
type Chart struct {
	Notes []Note `json:"notes"`
	Meta  Meta   `json:"meta"`
}

// Sort orders notes by time, then zone.
func Sort(notes []Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		if notes[i].Time == notes[j].Time {
			return notes[i].Zone < notes[j].Zone
		}
		return notes[i].Time < notes[j].Time
	})
}

// Zones returns the zone sequence of notes.
func Zones(notes []Note) []int {
	out := make([]int, len(notes))
	for i, n := range notes {
		out[i] = n.Zone
	}
	return out
}
