// Package convert adapts foreign chart formats into native charts. Adapters
// never panic: input they cannot use yields an error wrapping ErrUnsupported
// (valid file, incompatible mode) or ErrMalformed (unparseable or empty).
package convert

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/himanishpuri/automapper/pkg/automapper/chart"
	"github.com/himanishpuri/automapper/pkg/automapper/tuning"
)

var (
	ErrUnsupported = errors.New("unsupported chart")
	ErrMalformed   = errors.New("malformed chart")
)

// Source tags accepted by Convert.
const (
	SourceNative    = "native"
	SourceOsu       = "osu"
	SourceOsuMania  = "osumania"
	SourceStepMania = "stepmania"
	SourceSM        = "sm"
	SourceBMS       = "bms"
	SourceBME       = "bme"
	SourceMaimai    = "maimai"
	SourceChunithm  = "chunithm"
	SourceMIDI      = "midi"
)

// Adapter turns serialized chart data into a native chart.
type Adapter func(data []byte) (*chart.Chart, error)

var adapters = map[string]Adapter{
	SourceNative:    FromJSON,
	SourceOsu:       FromOsu,
	SourceOsuMania:  FromOsu,
	SourceStepMania: FromStepMania,
	SourceSM:        FromStepMania,
	SourceBMS:       FromBMS,
	SourceBME:       FromBMS,
	SourceMaimai:    FromSimai,
	SourceChunithm:  FromC2S,
	SourceMIDI:      FromMIDI,
}

// Sources lists the accepted source tags.
func Sources() []string {
	return []string{
		SourceNative, SourceOsu, SourceOsuMania, SourceStepMania, SourceSM,
		SourceBMS, SourceBME, SourceMaimai, SourceChunithm, SourceMIDI,
	}
}

// Convert dispatches on the source tag; an empty tag means native JSON.
// The returned chart is sorted and tagged with its source.
func Convert(source string, data []byte) (*chart.Chart, error) {
	tag := strings.ToLower(strings.TrimSpace(source))
	if tag == "" {
		tag = SourceNative
	}

	adapt, ok := adapters[tag]
	if !ok {
		return nil, fmt.Errorf("%w: unknown source %q", ErrUnsupported, source)
	}

	c, err := adapt(data)
	if err != nil {
		return nil, fmt.Errorf("failed to convert %s chart: %w", tag, err)
	}
	if tag != SourceNative || c.Meta.Source == "" {
		c.Meta.Source = tag
	}
	return c, nil
}

// FromJSON reads a native chart: {"notes": [{"time", "zone"}], "meta": {...}}.
func FromJSON(data []byte) (*chart.Chart, error) {
	var c chart.Chart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	for i, n := range c.Notes {
		if !chart.Valid(n.Zone) {
			return nil, fmt.Errorf("%w: note %d has zone %d", ErrMalformed, i, n.Zone)
		}
	}
	return finish(&c)
}

// finish drops notes with unplaceable times, sorts the rest and rejects
// charts left with none.
func finish(c *chart.Chart) (*chart.Chart, error) {
	kept := c.Notes[:0]
	for _, n := range c.Notes {
		if chart.ValidTime(n.Time) {
			kept = append(kept, n)
		}
	}
	c.Notes = kept
	if len(c.Notes) == 0 {
		return nil, fmt.Errorf("%w: no notes", ErrMalformed)
	}
	chart.Sort(c.Notes)
	if c.Meta.Difficulty != 0 {
		c.Meta.Difficulty = tuning.ClampDifficulty(c.Meta.Difficulty)
	}
	return c, nil
}

// laneZone spreads lanes [0, lanes) evenly over the zones.
func laneZone(lane, lanes int) int {
	if lanes <= 0 {
		return 0
	}
	z := lane * chart.ZoneCount / lanes
	return min(max(z, 0), chart.ZoneCount-1)
}

// levelDifficulty maps a format's level number onto 1..5 given the level
// that starts each band above the first.
func levelDifficulty(level float64, steps [4]float64) int {
	d := 1
	for _, s := range steps {
		if level >= s {
			d++
		}
	}
	return d
}
