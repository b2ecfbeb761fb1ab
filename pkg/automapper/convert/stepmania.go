package convert

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/himanishpuri/automapper/pkg/automapper/chart"
)

// FromStepMania reads the first chart of a .sm file. Taps, hold heads and
// roll heads become notes; mines are ignored. Timing uses the first BPM and
// the file offset.
func FromStepMania(data []byte) (*chart.Chart, error) {
	tags := smTags(string(data))

	notes, ok := tags["NOTES"]
	if !ok {
		return nil, fmt.Errorf("%w: no #NOTES section", ErrMalformed)
	}

	bpm, err := smFirstBPM(tags["BPMS"])
	if err != nil {
		return nil, err
	}
	offset, _ := strconv.ParseFloat(strings.TrimSpace(tags["OFFSET"]), 64)

	// type:description:difficulty:meter:radar:measures
	parts := strings.SplitN(notes, ":", 6)
	if len(parts) < 6 {
		return nil, fmt.Errorf("%w: #NOTES header incomplete", ErrMalformed)
	}

	c := &chart.Chart{Meta: chart.Meta{BPM: bpm, Title: strings.TrimSpace(tags["TITLE"])}}
	if meter, err := strconv.Atoi(strings.TrimSpace(parts[3])); err == nil {
		c.Meta.Difficulty = levelDifficulty(float64(meter), [4]float64{4, 6, 8, 10})
	}

	beatMs := 60000.0 / bpm
	for m, measure := range strings.Split(parts[5], ",") {
		var rows []string
		for _, line := range strings.Split(measure, "\n") {
			line = strings.TrimSpace(line)
			if i := strings.Index(line, "//"); i >= 0 {
				line = strings.TrimSpace(line[:i])
			}
			if line != "" {
				rows = append(rows, line)
			}
		}

		for r, row := range rows {
			beat := 4 * (float64(m) + float64(r)/float64(len(rows)))
			t := beat*beatMs - offset*1000
			for col, ch := range row {
				if ch == '1' || ch == '2' || ch == '4' {
					c.Notes = append(c.Notes, chart.Note{Time: t, Zone: laneZone(col, len(row))})
				}
			}
		}
	}

	return finish(c)
}

// smTags splits "#KEY:value;" pairs. Only the first occurrence of a key is kept.
func smTags(text string) map[string]string {
	tags := make(map[string]string)
	for _, chunk := range strings.Split(text, "#")[1:] {
		key, value, ok := strings.Cut(chunk, ":")
		if !ok {
			continue
		}
		if i := strings.Index(value, ";"); i >= 0 {
			value = value[:i]
		}
		key = strings.ToUpper(strings.TrimSpace(key))
		if _, seen := tags[key]; !seen {
			tags[key] = value
		}
	}
	return tags
}

func smFirstBPM(bpms string) (float64, error) {
	first, _, _ := strings.Cut(bpms, ",")
	_, value, ok := strings.Cut(first, "=")
	if !ok {
		return 0, fmt.Errorf("%w: missing #BPMS", ErrMalformed)
	}
	bpm, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || bpm <= 0 {
		return 0, fmt.Errorf("%w: invalid BPM %q", ErrMalformed, value)
	}
	return bpm, nil
}
