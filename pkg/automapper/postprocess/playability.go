package postprocess

import (
	"math"

	"github.com/himanishpuri/automapper/pkg/automapper/chart"
	"github.com/himanishpuri/automapper/pkg/automapper/tuning"
)

const (
	lowDifficultyMax = 3
	clusterMs        = 150.0
	gridPerBeat      = 4
	capWindowMs      = 1000.0
)

// EnforcePlayability applies, in order: minimum gap, cluster collapse
// (difficulty <= 3), repeat breaking, 1/16 quantization (difficulty <= 3),
// density cap (difficulty <= 3) and (time, zone) deduplication. Notes sharing
// a timestamp form a chord and are exempt from the gap rule among themselves.
func EnforcePlayability(notes []chart.Note, opts Options) []chart.Note {
	d := tuning.ClampDifficulty(opts.Difficulty)
	groups := groupByTime(sorted(notes))

	groups = enforceMinGap(groups, tuning.MinGapMs(d))
	if d <= lowDifficultyMax {
		groups = collapseClusters(groups)
	}
	breakRepeats(groups, opts)
	if d <= lowDifficultyMax {
		quantize(groups, opts, tuning.MinGapMs(d))
		groups = capDensity(groups, tuning.DensityCap(d))
	}

	out := dedupe(flatten(groups))
	chart.Sort(out)
	return out
}

func enforceMinGap(groups []group, minGap float64) []group {
	out := groups[:0]
	lastKept := math.Inf(-1)
	for _, g := range groups {
		if g.time-lastKept < minGap {
			continue
		}
		out = append(out, g)
		lastKept = g.time
	}
	return out
}

// collapseClusters drops the middle of any three hits spanning under 150ms.
func collapseClusters(groups []group) []group {
	out := make([]group, 0, len(groups))
	for _, g := range groups {
		n := len(out)
		if n >= 2 && g.time-out[n-2].time < clusterMs {
			out[n-1] = g
			continue
		}
		out = append(out, g)
	}
	return out
}

// breakRepeats nudges the middle of three identical consecutive zones.
func breakRepeats(groups []group, opts Options) {
	for i := 1; i+1 < len(groups); i++ {
		prev, cur, next := groups[i-1].notes[0].Zone, groups[i].notes[0].Zone, groups[i+1].notes[0].Zone
		if prev != cur || cur != next {
			continue
		}
		if opts.Rng.IntN(2) == 0 {
			groups[i].notes[0].Zone = chart.Wrap(cur + 1)
		} else {
			groups[i].notes[0].Zone = chart.Wrap(cur - 1)
		}
	}
}

// quantize snaps hits to the 1/16 grid unless the snapped time would sit
// within the minimum gap of a neighbor.
func quantize(groups []group, opts Options, minGap float64) {
	if opts.BPM <= 0 {
		return
	}
	grid := 60000.0 / opts.BPM / gridPerBeat
	// only the phase of the offset matters
	phase := math.Mod(opts.OffsetMs, grid)

	for i := range groups {
		q := phase + math.Round((groups[i].time-phase)/grid)*grid
		if q < 0 {
			continue
		}
		if i > 0 && q-groups[i-1].time < minGap {
			continue
		}
		if i+1 < len(groups) && groups[i+1].time-q < minGap {
			continue
		}
		groups[i].time = q
	}
}

// capDensity drops hits that would push any one-second window over the cap.
func capDensity(groups []group, limit int) []group {
	if limit <= 0 {
		return groups
	}
	out := make([]group, 0, len(groups))
	var window []float64
	for _, g := range groups {
		for len(window) > 0 && window[0] <= g.time-capWindowMs {
			window = window[1:]
		}
		if len(window)+len(g.notes) > limit {
			continue
		}
		out = append(out, g)
		for range g.notes {
			window = append(window, g.time)
		}
	}
	return out
}

func dedupe(notes []chart.Note) []chart.Note {
	type key struct {
		time float64
		zone int
	}
	seen := make(map[key]bool, len(notes))
	out := make([]chart.Note, 0, len(notes))
	for _, n := range notes {
		k := key{n.Time, n.Zone}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, n)
	}
	return out
}
