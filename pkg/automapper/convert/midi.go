package convert

import (
	"bytes"
	"fmt"

	"github.com/himanishpuri/automapper/pkg/automapper/chart"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const defaultMIDITempo = 120.0

// FromMIDI reads note-ons from every track of a Standard MIDI File. The key
// modulo six picks the zone, so octave-shifted melodies keep their shape.
func FromMIDI(data []byte) (c *chart.Chart, err error) {
	// smf can panic on truncated input
	defer func() {
		if r := recover(); r != nil {
			c, err = nil, fmt.Errorf("%w: %v", ErrMalformed, r)
		}
	}()

	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	c = &chart.Chart{}
	for _, track := range s.Tracks {
		var absTicks int64
		for _, event := range track {
			absTicks += int64(event.Delta)

			var bpm float64
			if c.Meta.BPM == 0 && event.Message.GetMetaTempo(&bpm) {
				c.Meta.BPM = bpm
			}

			var channel, key, velocity uint8
			if midi.Message(event.Message).GetNoteOn(&channel, &key, &velocity) && velocity > 0 {
				c.Notes = append(c.Notes, chart.Note{
					Time: float64(s.TimeAt(absTicks)) / 1000.0,
					Zone: int(key) % chart.ZoneCount,
				})
			}
		}
	}

	if c.Meta.BPM == 0 {
		c.Meta.BPM = defaultMIDITempo
	}
	return finish(c)
}
