package convert

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/himanishpuri/automapper/pkg/automapper/chart"
)

const maimaiButtons = 8

// FromSimai reads the first inote block of a maimai simai chart. Buttons 1-8
// map onto the six zones; touch notes are skipped.
func FromSimai(data []byte) (*chart.Chart, error) {
	fields := simaiFields(string(data))

	level, body := "", ""
	for i := 1; i <= 7; i++ {
		if b := fields["inote_"+strconv.Itoa(i)]; strings.TrimSpace(b) != "" {
			level, body = fields["lv_"+strconv.Itoa(i)], b
			break
		}
	}
	if body == "" {
		return nil, fmt.Errorf("%w: no inote block", ErrMalformed)
	}

	bpm, _ := strconv.ParseFloat(strings.TrimSpace(fields["wholebpm"]), 64)
	c := &chart.Chart{Meta: chart.Meta{Title: strings.TrimSpace(fields["title"])}}
	if lv, err := strconv.ParseFloat(strings.TrimRight(strings.TrimSpace(level), "+"), 64); err == nil {
		c.Meta.Difficulty = levelDifficulty(lv, [4]float64{5, 8, 11, 13})
	}

	var (
		now      float64
		division = 4.0
		group    strings.Builder
	)

	flush := func() {
		for _, z := range simaiZones(group.String()) {
			c.Notes = append(c.Notes, chart.Note{Time: now, Zone: z})
		}
		group.Reset()
	}

	for i := 0; i < len(body); i++ {
		switch ch := body[i]; ch {
		case '(':
			end := strings.IndexByte(body[i:], ')')
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated BPM at %d", ErrMalformed, i)
			}
			v, err := strconv.ParseFloat(body[i+1:i+end], 64)
			if err != nil || v <= 0 {
				return nil, fmt.Errorf("%w: bad BPM %q", ErrMalformed, body[i+1:i+end])
			}
			bpm = v
			if c.Meta.BPM == 0 {
				c.Meta.BPM = v
			}
			i += end
		case '{':
			end := strings.IndexByte(body[i:], '}')
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated division at %d", ErrMalformed, i)
			}
			v, err := strconv.ParseFloat(body[i+1:i+end], 64)
			if err != nil || v <= 0 {
				return nil, fmt.Errorf("%w: bad division %q", ErrMalformed, body[i+1:i+end])
			}
			division = v
			i += end
		case ',':
			if bpm <= 0 {
				return nil, fmt.Errorf("%w: notes before any BPM", ErrMalformed)
			}
			flush()
			now += 4 * 60000.0 / bpm / division
		case 'E':
			// a bare E ends the chart; E1..E8 are touch areas
			if group.Len() == 0 && (i+1 == len(body) || body[i+1] < '0' || body[i+1] > '9') {
				flush()
				i = len(body)
			} else {
				group.WriteByte(ch)
			}
		case '\n', '\r', ' ', '\t':
		default:
			group.WriteByte(ch)
		}
	}
	flush()

	if c.Meta.BPM == 0 {
		c.Meta.BPM = bpm
	}
	return finish(c)
}

// simaiFields splits "&key=value" entries; values may span lines.
func simaiFields(text string) map[string]string {
	fields := make(map[string]string)
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if !strings.HasPrefix(strings.TrimSpace(l), "||") {
			lines = append(lines, l)
		}
	}
	for _, chunk := range strings.Split(strings.Join(lines, "\n"), "&")[1:] {
		key, value, ok := strings.Cut(chunk, "=")
		if ok {
			fields[strings.TrimSpace(key)] = value
		}
	}
	return fields
}

// simaiZones extracts the buttons of one time step. "1/5" and the "15"
// shorthand both mean buttons 1 and 5 together.
func simaiZones(step string) []int {
	var out []int
	for _, part := range strings.FieldsFunc(step, func(r rune) bool { return r == '/' || r == '`' }) {
		if len(part) == 2 && isButton(part[0]) && isButton(part[1]) {
			out = append(out, buttonZone(part[0]), buttonZone(part[1]))
			continue
		}
		if isButton(part[0]) {
			out = append(out, buttonZone(part[0]))
		}
	}
	return out
}

func isButton(b byte) bool {
	return b >= '1' && b <= '8'
}

func buttonZone(b byte) int {
	return int(math.Floor(float64(b-'1') * chart.ZoneCount / maimaiButtons))
}
