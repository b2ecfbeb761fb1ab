package convert

import (
	"bufio"
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/himanishpuri/automapper/pkg/automapper/chart"
)

const (
	osuManiaMode  = 3
	osuPlayfieldX = 512.0
)

// FromOsu reads an osu! beatmap. Only mania maps (Mode: 3) are accepted; the
// key count comes from CircleSize and each column maps onto a zone.
func FromOsu(data []byte) (*chart.Chart, error) {
	var (
		section   string
		mode      int
		keys      int
		od        = -1.0
		bpm       float64
		title     string
		hitLines  []string
		sawHeader bool
	)

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		if strings.HasPrefix(line, "osu file format") {
			sawHeader = true
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = line[1 : len(line)-1]
			continue
		}

		switch section {
		case "General", "Difficulty", "Metadata":
			key, value, ok := strings.Cut(line, ":")
			if !ok {
				continue
			}
			value = strings.TrimSpace(value)
			switch strings.TrimSpace(key) {
			case "Mode":
				mode, _ = strconv.Atoi(value)
			case "CircleSize":
				cs, _ := strconv.ParseFloat(value, 64)
				keys = int(math.Round(cs))
			case "OverallDifficulty":
				od, _ = strconv.ParseFloat(value, 64)
			case "Title":
				title = value
			}
		case "TimingPoints":
			if bpm == 0 {
				bpm = osuTimingBPM(line)
			}
		case "HitObjects":
			hitLines = append(hitLines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if !sawHeader && section == "" {
		return nil, fmt.Errorf("%w: not an osu! beatmap", ErrMalformed)
	}
	if mode != osuManiaMode {
		return nil, fmt.Errorf("%w: osu! mode %d is not mania", ErrUnsupported, mode)
	}
	if keys <= 0 {
		return nil, fmt.Errorf("%w: missing key count", ErrMalformed)
	}

	c := &chart.Chart{Meta: chart.Meta{BPM: bpm, Title: title}}
	if od >= 0 {
		c.Meta.Difficulty = levelDifficulty(od, [4]float64{3, 5, 7, 9})
	}

	for _, line := range hitLines {
		fields := strings.Split(line, ",")
		if len(fields) < 3 {
			continue
		}
		x, errX := strconv.ParseFloat(fields[0], 64)
		t, errT := strconv.ParseFloat(fields[2], 64)
		if errX != nil || errT != nil {
			continue
		}
		lane := int(math.Floor(x * float64(keys) / osuPlayfieldX))
		lane = min(max(lane, 0), keys-1)
		c.Notes = append(c.Notes, chart.Note{Time: t, Zone: laneZone(lane, keys)})
	}

	return finish(c)
}

// osuTimingBPM returns the BPM of an uninherited timing point, or 0.
func osuTimingBPM(line string) float64 {
	fields := strings.Split(line, ",")
	if len(fields) < 2 {
		return 0
	}
	beatLength, err := strconv.ParseFloat(fields[1], 64)
	if err != nil || beatLength <= 0 {
		return 0
	}
	if len(fields) >= 7 && strings.TrimSpace(fields[6]) == "0" {
		return 0
	}
	return 60000.0 / beatLength
}
