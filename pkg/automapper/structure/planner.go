package structure

import (
	"math"

	"github.com/himanishpuri/automapper/pkg/automapper/tuning"
)

// SectionTarget is the planned note count for one section.
type SectionTarget struct {
	Section Section
	Rate    float64 // notes per second
	Target  int
}

// Plan is the note distribution across the track.
type Plan struct {
	Difficulty int
	Sections   []SectionTarget
	Total      int
}

// PlanDistribution converts section labels and difficulty into note targets.
func PlanDistribution(sections []Section, difficulty int) Plan {
	base := tuning.BaseNotesPerSecond(difficulty)
	plan := Plan{Difficulty: tuning.ClampDifficulty(difficulty)}

	for _, s := range sections {
		rate := base * s.Type.DensityMultiplier()
		target := int(math.Round(rate * s.DurationSec()))
		plan.Sections = append(plan.Sections, SectionTarget{Section: s, Rate: rate, Target: target})
		plan.Total += target
	}
	return plan
}

// RateAt returns the planned notes-per-second at t, or the difficulty base
// rate outside any section.
func (p Plan) RateAt(t float64) float64 {
	for _, st := range p.Sections {
		if t < st.Section.End {
			return st.Rate
		}
	}
	if n := len(p.Sections); n > 0 {
		return p.Sections[n-1].Rate
	}
	return tuning.BaseNotesPerSecond(p.Difficulty)
}

// MultiplierAt returns the density multiplier of the section at t.
func (p Plan) MultiplierAt(t float64) float64 {
	for _, st := range p.Sections {
		if t < st.Section.End {
			return st.Section.Type.DensityMultiplier()
		}
	}
	if n := len(p.Sections); n > 0 {
		return p.Sections[n-1].Section.Type.DensityMultiplier()
	}
	return Verse.DensityMultiplier()
}
