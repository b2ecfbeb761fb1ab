package convert

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/himanishpuri/automapper/pkg/automapper/chart"
)

const (
	chunithmCells      = 16
	defaultResolution  = 384
	chunithmDifficulty = 3
)

// note types that carry a ground hit; mines and air notes are skipped
var c2sNoteTypes = map[string]bool{
	"TAP": true,
	"CHR": true,
	"HLD": true,
	"SLD": true,
	"SLC": true,
	"FLK": true,
}

// FromC2S reads a CHUNITHM c2s chart at its first BPM. The 16 ground cells
// map onto the six zones.
func FromC2S(data []byte) (*chart.Chart, error) {
	type object struct {
		measure, offset int
		cell            int
	}

	var (
		resolution = defaultResolution
		bpm        float64
		difficulty = -1
		objects    []object
	)

	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		fields := strings.Split(strings.TrimSpace(sc.Text()), "\t")
		if len(fields) == 0 || fields[0] == "" {
			continue
		}

		switch kind := fields[0]; {
		case kind == "RESOLUTION" && len(fields) >= 2:
			if r, err := strconv.Atoi(fields[1]); err == nil && r > 0 {
				resolution = r
			}
		case kind == "DIFFICULT" && len(fields) >= 2:
			difficulty, _ = strconv.Atoi(fields[1])
		case kind == "BPM_DEF" && len(fields) >= 2:
			if bpm == 0 {
				bpm, _ = strconv.ParseFloat(fields[1], 64)
			}
		case kind == "BPM" && len(fields) >= 4:
			if v, err := strconv.ParseFloat(fields[3], 64); err == nil && v > 0 {
				bpm = v
			}
		case c2sNoteTypes[kind]:
			if len(fields) < 5 {
				return nil, fmt.Errorf("%w: short %s line", ErrMalformed, kind)
			}
			measure, err1 := strconv.Atoi(fields[1])
			offset, err2 := strconv.Atoi(fields[2])
			cell, err3 := strconv.Atoi(fields[3])
			if err1 != nil || err2 != nil || err3 != nil {
				return nil, fmt.Errorf("%w: bad %s line %q", ErrMalformed, kind, sc.Text())
			}
			objects = append(objects, object{measure: measure, offset: offset, cell: cell})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if bpm <= 0 {
		return nil, fmt.Errorf("%w: missing BPM", ErrMalformed)
	}

	c := &chart.Chart{Meta: chart.Meta{BPM: bpm, Difficulty: chunithmDifficulty}}
	if difficulty >= 0 {
		c.Meta.Difficulty = difficulty + 1
	}

	measureMs := 4 * 60000.0 / bpm
	for _, o := range objects {
		ticks := float64(o.measure) + float64(o.offset)/float64(resolution)
		cell := min(max(o.cell, 0), chunithmCells-1)
		c.Notes = append(c.Notes, chart.Note{Time: ticks * measureMs, Zone: laneZone(cell, chunithmCells)})
	}
	return finish(c)
}
