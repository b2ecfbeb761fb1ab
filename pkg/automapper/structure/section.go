package structure

import (
	"github.com/himanishpuri/automapper/pkg/automapper/features"
	"gonum.org/v1/gonum/stat"
)

type SectionType int

const (
	Verse SectionType = iota
	Intro
	Chorus
	Bridge
	Outro
)

func (s SectionType) String() string {
	switch s {
	case Intro:
		return "intro"
	case Chorus:
		return "chorus"
	case Bridge:
		return "bridge"
	case Outro:
		return "outro"
	default:
		return "verse"
	}
}

// DensityMultiplier scales the difficulty's notes-per-second target.
func (s SectionType) DensityMultiplier() float64 {
	switch s {
	case Intro:
		return 0.6
	case Chorus:
		return 1.3
	case Bridge:
		return 0.8
	case Outro:
		return 0.7
	default:
		return 0.9
	}
}

const (
	SegmentMs = 10000.0

	introPortion = 0.2
	outroPortion = 0.8
	chorusRatio  = 1.3
	bridgeRatio  = 0.9
)

// Section is a coarse labeled segment of the track.
type Section struct {
	Start        float64     `json:"start"`
	End          float64     `json:"end"`
	Type         SectionType `json:"type"`
	Energy       float64     `json:"energy"`
	OnsetDensity float64     `json:"onsetDensity"`
}

// DurationSec returns the section length in seconds.
func (s Section) DurationSec() float64 {
	return (s.End - s.Start) / 1000.0
}

// AnalyzeSongStructure cuts the track into 10s segments and labels each by
// position and energy relative to the track mean.
func AnalyzeSongStructure(energy []features.EnergySample, onsets []features.Onset, durationMs float64) []Section {
	if durationMs <= 0 {
		return nil
	}

	trackMean := 0.0
	if len(energy) > 0 {
		values := make([]float64, len(energy))
		for i, e := range energy {
			values[i] = e.Energy
		}
		trackMean = stat.Mean(values, nil)
	}
	trackDensity := float64(len(onsets)) / (durationMs / 1000.0)

	var sections []Section
	for start := 0.0; start < durationMs; start += SegmentMs {
		end := start + SegmentMs
		if end > durationMs {
			end = durationMs
		}

		s := Section{
			Start:        start,
			End:          end,
			Energy:       features.MeanEnergy(energy, start, end),
			OnsetDensity: countOnsets(onsets, start, end) / ((end - start) / 1000.0),
		}
		s.Type = labelSection(s, durationMs, trackMean, trackDensity)
		sections = append(sections, s)
	}
	return sections
}

func labelSection(s Section, durationMs, trackMean, trackDensity float64) SectionType {
	switch {
	case s.Start < durationMs*introPortion && s.Energy < trackMean:
		return Intro
	case s.Start >= durationMs*outroPortion:
		return Outro
	case s.Energy > trackMean*chorusRatio:
		return Chorus
	case s.Energy > trackMean*bridgeRatio && s.OnsetDensity < trackDensity:
		return Bridge
	default:
		return Verse
	}
}

func countOnsets(onsets []features.Onset, from, to float64) float64 {
	n := 0
	for _, o := range onsets {
		if o.Time >= from && o.Time < to {
			n++
		}
	}
	return float64(n)
}

// SectionAt returns the section containing t, or the last one past the end.
func SectionAt(sections []Section, t float64) (Section, bool) {
	if len(sections) == 0 {
		return Section{}, false
	}
	for _, s := range sections {
		if t < s.End {
			return s, true
		}
	}
	return sections[len(sections)-1], true
}
