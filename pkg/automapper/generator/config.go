package generator

import (
	"math"

	"github.com/himanishpuri/automapper/pkg/automapper/features"
	"github.com/himanishpuri/automapper/pkg/automapper/tuning"
)

const (
	DefaultMinNoteIntervalMs = 100.0
	DefaultDifficulty        = 3

	// MinBPM and MaxBPM bound a caller-supplied tempo.
	MinBPM = 20.0
	MaxBPM = 400.0
)

// Config is one generation request.
type Config struct {
	Difficulty int `json:"difficulty"`
	// BPM <= 0 asks the generator to estimate it from onsets.
	BPM               float64 `json:"bpm"`
	OffsetMs          float64 `json:"offset"`
	MinNoteIntervalMs float64 `json:"minNoteInterval"`
	UseTrainedModel   bool    `json:"useTrainedModel"`
	MaimaiStyle       bool    `json:"maimaiStyle"`
	MaimaiIntensity   float64 `json:"maimaiIntensity"`
	// Seed drives every random decision; 0 picks a fresh seed.
	Seed         uint64                `json:"seed,omitempty"`
	SpectralMode features.SpectralMode `json:"spectralMode,omitempty"`
}

// Normalize clamps the config into its valid ranges and fills defaults.
func (c Config) Normalize() Config {
	if c.Difficulty == 0 {
		c.Difficulty = DefaultDifficulty
	}
	c.Difficulty = tuning.ClampDifficulty(c.Difficulty)
	switch {
	case !finite(c.BPM) || c.BPM <= 0:
		c.BPM = 0
	default:
		c.BPM = min(max(c.BPM, MinBPM), MaxBPM)
	}
	if !finite(c.OffsetMs) {
		c.OffsetMs = 0
	}
	if !finite(c.MinNoteIntervalMs) || c.MinNoteIntervalMs <= 0 {
		c.MinNoteIntervalMs = DefaultMinNoteIntervalMs
	}
	if !finite(c.MaimaiIntensity) {
		c.MaimaiIntensity = 0
	}
	c.MaimaiIntensity = min(max(c.MaimaiIntensity, 0), 1)
	if c.SpectralMode != features.SpectralFFT {
		c.SpectralMode = features.SpectralCrude
	}
	return c
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
