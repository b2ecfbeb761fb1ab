package postprocess

import (
	"math"

	"github.com/himanishpuri/automapper/pkg/automapper/chart"
	"github.com/himanishpuri/automapper/pkg/automapper/tuning"
	"github.com/himanishpuri/automapper/pkg/automapper/zones"
)

const (
	burstMinDifficulty  = 4
	climaxMinDifficulty = 3
	climaxWindow        = 10
	flowWindow          = 4
	burstSpacingMinMs   = 70.0
	burstSpacingRangeMs = 20.0
)

// burst templates as zone offsets from the note that opens the gap
var burstTemplates = [][]int{
	{1, 2},
	{-1, -2},
	{1},
	{-1},
	{1, 2, 3},
	{-1, -2, -3},
}

// Enhance applies the stylistic passes: bursts into gaps after dense runs,
// even spacing for flow runs, symmetric fills, zigzag smoothing and a flow
// overlay on the climax.
func Enhance(notes []chart.Note, opts Options) []chart.Note {
	notes = sorted(notes)
	d := tuning.ClampDifficulty(opts.Difficulty)

	if d >= burstMinDifficulty {
		notes = injectBursts(notes, opts)
		chart.Sort(notes)
	}
	notes = evenFlow(notes)
	notes = addSymmetry(notes, opts)
	chart.Sort(notes)
	smoothZigzags(notes, opts)
	if d >= climaxMinDifficulty {
		overlayClimax(notes, opts)
	}

	chart.Sort(notes)
	return notes
}

// injectBursts fills the gap that follows a dense run with a short template.
// Burst spacing never drops below the difficulty's minimum gap, so the notes
// survive playability enforcement.
func injectBursts(notes []chart.Note, opts Options) []chart.Note {
	t := opts.Tuning
	minGap := tuning.MinGapMs(opts.Difficulty)
	idx := leads(notes)
	var added []chart.Note

	for k := 1; k+1 < len(idx); k++ {
		prev, cur, next := notes[idx[k-1]], notes[idx[k]], notes[idx[k+1]]
		if cur.Time-prev.Time >= t.BurstDensityMs || next.Time-cur.Time <= t.BurstGapMs {
			continue
		}

		tmpl := burstTemplates[opts.Rng.IntN(len(burstTemplates))]
		spacing := max(burstSpacingMinMs+opts.Rng.Float64()*burstSpacingRangeMs, minGap)
		for j, off := range tmpl {
			at := cur.Time + float64(j+1)*spacing
			if next.Time-at < t.BurstDensityMs {
				break
			}
			added = append(added, chart.Note{Time: at, Zone: chart.Wrap(cur.Zone + off)})
		}
	}

	return append(notes, added...)
}

// evenFlow re-times four-note rotations so their inner notes sit evenly
// between the first and last.
func evenFlow(notes []chart.Note) []chart.Note {
	for i := 0; i+flowWindow <= len(notes); i++ {
		window := notes[i : i+flowWindow]
		solo := true
		for k := range window {
			if !soloAt(notes, i+k) {
				solo = false
				break
			}
		}
		if !solo {
			continue
		}
		if _, ok := zones.DetectFlow(chart.Zones(window)); !ok {
			continue
		}

		step := (window[flowWindow-1].Time - window[0].Time) / float64(flowWindow-1)
		for k := 1; k < flowWindow-1; k++ {
			window[k].Time = window[0].Time + float64(k)*step
		}
		i += flowWindow - 2
	}
	return notes
}

// addSymmetry drops an opposite-zone note into the middle of some wide gaps.
func addSymmetry(notes []chart.Note, opts Options) []chart.Note {
	t := opts.Tuning
	minGap := tuning.MinGapMs(opts.Difficulty)
	idx := leads(notes)
	var added []chart.Note

	for k := 0; k+1 < len(idx); k++ {
		cur, next := notes[idx[k]], notes[idx[k+1]]
		gap := next.Time - cur.Time
		if gap <= t.SymmetryGapMs || gap/2 < minGap {
			continue
		}
		if opts.Rng.Float64() < t.SymmetryNoteChance {
			added = append(added, chart.Note{Time: cur.Time + gap/2, Zone: chart.Opposite(cur.Zone)})
		}
	}
	return append(notes, added...)
}

// smoothZigzags snaps the middle of two consecutive jumps across the circle
// next to the first note.
func smoothZigzags(notes []chart.Note, opts Options) {
	idx := leads(notes)
	for k := 1; k+1 < len(idx); k++ {
		a, b, c := notes[idx[k-1]].Zone, notes[idx[k]].Zone, notes[idx[k+1]].Zone
		if chart.Distance(a, b) < 3 || chart.Distance(b, c) < 3 {
			continue
		}
		if opts.Rng.Float64() >= opts.Tuning.ZigzagSmoothChance {
			continue
		}
		if opts.Rng.IntN(2) == 0 {
			notes[idx[k]].Zone = chart.Wrap(a + 1)
		} else {
			notes[idx[k]].Zone = chart.Wrap(a - 1)
		}
	}
}

// overlayClimax finds the densest ten-hit window and rewrites most of it as a
// clockwise run.
func overlayClimax(notes []chart.Note, opts Options) {
	idx := leads(notes)
	if len(idx) < climaxWindow {
		return
	}

	best, bestSpan := -1, math.Inf(1)
	for k := 0; k+climaxWindow <= len(idx); k++ {
		span := notes[idx[k+climaxWindow-1]].Time - notes[idx[k]].Time
		if span < bestSpan {
			best, bestSpan = k, span
		}
	}

	start := notes[idx[best]].Zone
	for j := 1; j < climaxWindow; j++ {
		if opts.Rng.Float64() < opts.Tuning.ClimaxOverlay {
			notes[idx[best+j]].Zone = chart.Wrap(start + j)
		}
	}
}
