package convert

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/himanishpuri/automapper/pkg/automapper/chart"
)

// player-one channels in lane order: scratch, keys 1-5, keys 6-7
var bmsLanes = map[string]int{
	"16": 0,
	"11": 1,
	"12": 2,
	"13": 3,
	"14": 4,
	"15": 5,
	"18": 6,
	"19": 7,
}

// FromBMS reads BMS/BME object data for player one at the header BPM.
// Measure length changes and BPM changes are not applied.
func FromBMS(data []byte) (*chart.Chart, error) {
	type object struct {
		measure  int
		position float64
		lane     int
	}

	var (
		bpm     float64
		level   = -1
		title   string
		objects []object
	)

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "#") {
			continue
		}
		line = line[1:]

		if head, body, ok := strings.Cut(line, ":"); ok && len(head) == 5 && isDigits(head[:3]) {
			lane, tracked := bmsLanes[head[3:]]
			if !tracked {
				continue
			}
			measure, _ := strconv.Atoi(head[:3])
			body = strings.TrimSpace(body)
			pairs := len(body) / 2
			for i := 0; i < pairs; i++ {
				if body[2*i:2*i+2] == "00" {
					continue
				}
				if _, err := strconv.ParseInt(body[2*i:2*i+2], 36, 64); err != nil {
					return nil, fmt.Errorf("%w: bad object %q in measure %d", ErrMalformed, body[2*i:2*i+2], measure)
				}
				objects = append(objects, object{measure: measure, position: float64(i) / float64(pairs), lane: lane})
			}
			continue
		}

		key, value, _ := strings.Cut(line, " ")
		value = strings.TrimSpace(value)
		switch strings.ToUpper(key) {
		case "BPM":
			bpm, _ = strconv.ParseFloat(value, 64)
		case "PLAYLEVEL":
			level, _ = strconv.Atoi(value)
		case "TITLE":
			title = value
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if bpm <= 0 {
		return nil, fmt.Errorf("%w: missing #BPM", ErrMalformed)
	}

	c := &chart.Chart{Meta: chart.Meta{BPM: bpm, Title: title}}
	if level >= 0 {
		c.Meta.Difficulty = levelDifficulty(float64(level), [4]float64{4, 7, 10, 13})
	}

	measureMs := 4 * 60000.0 / bpm
	for _, o := range objects {
		c.Notes = append(c.Notes, chart.Note{
			Time: (float64(o.measure) + o.position) * measureMs,
			Zone: laneZone(o.lane, len(bmsLanes)),
		})
	}
	return finish(c)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
