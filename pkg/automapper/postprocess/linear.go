package postprocess

import (
	"github.com/himanishpuri/automapper/pkg/automapper/chart"
)

const staircaseMaxStep = 2

// AdaptLinear rewrites lane-style phrasing into circular flow: [a,b,a,b]
// zigzags become a four-step rotation from a, and steep monotonic staircases
// become unit steps. It only runs for models learned from linear formats.
func AdaptLinear(notes []chart.Note, opts Options) []chart.Note {
	if !opts.LinearSource {
		return notes
	}
	notes = sorted(notes)
	idx := leads(notes)

	for i := 0; i+3 < len(idx); {
		a, b := notes[idx[i]].Zone, notes[idx[i+1]].Zone
		if a != b && notes[idx[i+2]].Zone == a && notes[idx[i+3]].Zone == b {
			dir := direction(chart.Step(a, b))
			for k := 0; k < 4; k++ {
				notes[idx[i+k]].Zone = chart.Wrap(a + k*dir)
			}
			i += 4
			continue
		}
		i++
	}

	for i := 0; i+2 < len(idx); i++ {
		z0, z1, z2 := notes[idx[i]].Zone, notes[idx[i+1]].Zone, notes[idx[i+2]].Zone
		d1, d2 := z1-z0, z2-z1
		if d1 == 0 || d2 == 0 || (d1 > 0) != (d2 > 0) {
			continue
		}
		if max(abs(d1), abs(d2)) <= staircaseMaxStep {
			continue
		}
		dir := direction(d1)
		notes[idx[i+1]].Zone = chart.Wrap(z0 + dir)
		notes[idx[i+2]].Zone = chart.Wrap(z0 + 2*dir)
	}

	return notes
}

func direction(step int) int {
	if step < 0 {
		return -1
	}
	return 1
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
