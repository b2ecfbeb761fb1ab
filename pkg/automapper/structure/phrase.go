// Package structure infers musical structure from extracted features:
// phrases from onset clusters, labeled sections from the energy envelope,
// and per-section note targets.
package structure

import (
	"github.com/himanishpuri/automapper/pkg/automapper/features"
)

type PhraseType int

const (
	PhraseNormal PhraseType = iota
	PhraseStream
	PhraseBurst
	PhraseAccent
	PhraseSparse
	PhraseFlowing
)

func (p PhraseType) String() string {
	switch p {
	case PhraseStream:
		return "stream"
	case PhraseBurst:
		return "burst"
	case PhraseAccent:
		return "accent"
	case PhraseSparse:
		return "sparse"
	case PhraseFlowing:
		return "flowing"
	default:
		return "normal"
	}
}

const (
	phraseGapMs     = 800.0
	phraseMaxSpanMs = 4000.0
	minPhraseSec    = 0.5
)

// Phrase is a contiguous cluster of onsets.
type Phrase struct {
	Start  float64
	End    float64
	Onsets []features.Onset
	Type   PhraseType
}

// Progress returns how far t lies through the phrase, in [0, 1].
func (p Phrase) Progress(t float64) float64 {
	span := p.End - p.Start
	if span <= 0 {
		return 1
	}
	f := (t - p.Start) / span
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// GroupIntoPhrases splits onsets on gaps over 800ms or spans over 4s and
// classifies each phrase.
func GroupIntoPhrases(onsets []features.Onset, energy []features.EnergySample) []Phrase {
	if len(onsets) == 0 {
		return nil
	}

	var phrases []Phrase
	current := []features.Onset{onsets[0]}

	flush := func() {
		phrases = append(phrases, newPhrase(current, energy))
	}

	for _, o := range onsets[1:] {
		last := current[len(current)-1]
		if o.Time-last.Time > phraseGapMs || o.Time-current[0].Time > phraseMaxSpanMs {
			flush()
			current = nil
		}
		current = append(current, o)
	}
	flush()

	return phrases
}

func newPhrase(onsets []features.Onset, energy []features.EnergySample) Phrase {
	p := Phrase{
		Start:  onsets[0].Time,
		End:    onsets[len(onsets)-1].Time,
		Onsets: onsets,
	}
	p.Type = classifyPhrase(p, energy)
	return p
}

func classifyPhrase(p Phrase, energy []features.EnergySample) PhraseType {
	durSec := (p.End - p.Start) / 1000.0
	if durSec < minPhraseSec {
		durSec = minPhraseSec
	}
	density := float64(len(p.Onsets)) / durSec

	strong := 0
	sustained := false
	energySum := 0.0
	for _, o := range p.Onsets {
		if o.Type == features.Strong {
			strong++
		}
		if o.Type == features.Sustained {
			sustained = true
		}
		energySum += features.EnergyAt(energy, o.Time)
	}
	strongRatio := float64(strong) / float64(len(p.Onsets))
	avgEnergy := energySum / float64(len(p.Onsets))

	switch {
	case density > 8 && avgEnergy > 0.5:
		return PhraseStream
	case density > 5 && strongRatio > 0.6:
		return PhraseBurst
	case strongRatio > 0.7 && density < 4:
		return PhraseAccent
	case density < 2:
		return PhraseSparse
	case sustained:
		return PhraseFlowing
	default:
		return PhraseNormal
	}
}

// PhraseAt returns the phrase whose span contains t.
func PhraseAt(phrases []Phrase, t float64) (Phrase, bool) {
	for _, p := range phrases {
		if t >= p.Start && t <= p.End {
			return p, true
		}
		if p.Start > t {
			break
		}
	}
	return Phrase{}, false
}
