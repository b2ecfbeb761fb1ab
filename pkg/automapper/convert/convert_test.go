package convert

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/himanishpuri/automapper/pkg/automapper/chart"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const maniaMap = `osu file format v14

[General]
AudioFilename: audio.mp3
Mode: 3

[Metadata]
Title:Test Song

[Difficulty]
CircleSize:4
OverallDifficulty:8

[TimingPoints]
500,500,4,2,0,100,1,0

[HitObjects]
64,192,1000,1,0,0:0:0:0:
192,192,1250,1,0,0:0:0:0:
320,192,1500,1,0,0:0:0:0:
448,192,1750,128,0,2000:0:0:0:0:
`

func TestFromOsuMania(t *testing.T) {
	c, err := FromOsu([]byte(maniaMap))
	if err != nil {
		t.Fatalf("FromOsu failed: %v", err)
	}

	if c.Meta.BPM != 120 {
		t.Errorf("Expected 120 BPM, got %v", c.Meta.BPM)
	}
	if c.Meta.Difficulty != 4 {
		t.Errorf("Expected OD 8 to map to difficulty 4, got %d", c.Meta.Difficulty)
	}
	if c.Meta.Title != "Test Song" {
		t.Errorf("Unexpected title %q", c.Meta.Title)
	}

	want := []chart.Note{{Time: 1000, Zone: 0}, {Time: 1250, Zone: 1}, {Time: 1500, Zone: 3}, {Time: 1750, Zone: 4}}
	if len(c.Notes) != len(want) {
		t.Fatalf("Expected %d notes, got %d", len(want), len(c.Notes))
	}
	for i := range want {
		if c.Notes[i] != want[i] {
			t.Errorf("Note %d = %+v, expected %+v", i, c.Notes[i], want[i])
		}
	}
}

func TestFromOsuRejectsNonMania(t *testing.T) {
	standard := strings.Replace(maniaMap, "Mode: 3", "Mode: 0", 1)
	if _, err := FromOsu([]byte(standard)); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Expected ErrUnsupported for osu!standard, got %v", err)
	}
}

func TestFromOsuMalformedBeatmap(t *testing.T) {
	// mode unset, four keys, no hit objects
	beatmap := "osu file format v14\n\n[Difficulty]\nCircleSize:4\n\n[HitObjects]\n"

	c, err := Convert(SourceOsuMania, []byte(beatmap))
	if err == nil || c != nil {
		t.Fatalf("Expected a failure result, got %+v", c)
	}
	if !errors.Is(err, ErrUnsupported) && !errors.Is(err, ErrMalformed) {
		t.Errorf("Expected a conversion sentinel, got %v", err)
	}

	// mania but empty
	empty := "osu file format v14\n[General]\nMode: 3\n[Difficulty]\nCircleSize:4\n[HitObjects]\n"
	if _, err := FromOsu([]byte(empty)); !errors.Is(err, ErrMalformed) {
		t.Errorf("Expected ErrMalformed for a map without notes, got %v", err)
	}

	if _, err := FromOsu([]byte("garbage")); err == nil {
		t.Error("Expected an error for garbage input")
	}
}

const stepChart = `#TITLE:Steps;
#OFFSET:-0.100;
#BPMS:0.000=120.000,16.000=180.000;
#NOTES:
     dance-single:
     someone:
     Hard:
     7:
     0.5,0.5,0.5,0.5,0.5:
1000
0100
0010
0001
,
1001
0000
M000
0000
;
`

func TestFromStepMania(t *testing.T) {
	c, err := FromStepMania([]byte(stepChart))
	if err != nil {
		t.Fatalf("FromStepMania failed: %v", err)
	}

	if c.Meta.BPM != 120 || c.Meta.Difficulty != 3 || c.Meta.Title != "Steps" {
		t.Errorf("Unexpected meta: %+v", c.Meta)
	}

	// beat b at 120 BPM is 500ms; offset -0.1s pushes notes 100ms later
	want := []chart.Note{
		{Time: 100, Zone: 0},
		{Time: 600, Zone: 1},
		{Time: 1100, Zone: 3},
		{Time: 1600, Zone: 4},
		{Time: 2100, Zone: 0},
		{Time: 2100, Zone: 4},
	}
	if len(c.Notes) != len(want) {
		t.Fatalf("Expected %d notes, got %d: %+v", len(want), len(c.Notes), c.Notes)
	}
	for i := range want {
		if math.Abs(c.Notes[i].Time-want[i].Time) > 1e-9 || c.Notes[i].Zone != want[i].Zone {
			t.Errorf("Note %d = %+v, expected %+v", i, c.Notes[i], want[i])
		}
	}
}

func TestFromStepManiaMissingBPM(t *testing.T) {
	broken := strings.Replace(stepChart, "#BPMS:0.000=120.000,16.000=180.000;", "", 1)
	if _, err := FromStepMania([]byte(broken)); !errors.Is(err, ErrMalformed) {
		t.Errorf("Expected ErrMalformed, got %v", err)
	}
}

const bmsChart = `*---------------------- HEADER FIELD
#PLAYER 1
#TITLE Lanes
#BPM 150
#PLAYLEVEL 8

*---------------------- MAIN DATA FIELD
#00111:01000100
#00116:00000001
#00219:0Z
#00101:01010101
`

func TestFromBMS(t *testing.T) {
	c, err := FromBMS([]byte(bmsChart))
	if err != nil {
		t.Fatalf("FromBMS failed: %v", err)
	}

	if c.Meta.BPM != 150 || c.Meta.Difficulty != 3 || c.Meta.Title != "Lanes" {
		t.Errorf("Unexpected meta: %+v", c.Meta)
	}

	// measure 1 starts at 1600ms at 150 BPM; BGM channel 01 is ignored
	want := []chart.Note{
		{Time: 1600, Zone: 0},
		{Time: 2400, Zone: 0},
		{Time: 2800, Zone: 0},
		{Time: 3200, Zone: 5},
	}
	if len(c.Notes) != len(want) {
		t.Fatalf("Expected %d notes, got %d: %+v", len(want), len(c.Notes), c.Notes)
	}
	for i := range want {
		if c.Notes[i] != want[i] {
			t.Errorf("Note %d = %+v, expected %+v", i, c.Notes[i], want[i])
		}
	}
}

func TestFromBMSMissingBPM(t *testing.T) {
	if _, err := FromBMS([]byte("#00111:01\n")); !errors.Is(err, ErrMalformed) {
		t.Errorf("Expected ErrMalformed, got %v", err)
	}
}

const simaiChart = `&title=Circle
&wholebpm=120
&lv_4=9+
&inote_4=(120){4}1,2/6,,38,
{8}5h[4:1],A1,7-3[8:1],E
`

func TestFromSimai(t *testing.T) {
	c, err := FromSimai([]byte(simaiChart))
	if err != nil {
		t.Fatalf("FromSimai failed: %v", err)
	}

	if c.Meta.BPM != 120 || c.Meta.Difficulty != 3 || c.Meta.Title != "Circle" {
		t.Errorf("Unexpected meta: %+v", c.Meta)
	}

	// quarter steps are 500ms, eighth steps 250ms; A1 is a touch note
	want := []chart.Note{
		{Time: 0, Zone: 0},
		{Time: 500, Zone: 0},
		{Time: 500, Zone: 3},
		{Time: 1500, Zone: 1},
		{Time: 1500, Zone: 5},
		{Time: 2000, Zone: 3},
		{Time: 2500, Zone: 4},
	}
	if len(c.Notes) != len(want) {
		t.Fatalf("Expected %d notes, got %d: %+v", len(want), len(c.Notes), c.Notes)
	}
	for i := range want {
		if c.Notes[i] != want[i] {
			t.Errorf("Note %d = %+v, expected %+v", i, c.Notes[i], want[i])
		}
	}
}

func TestFromSimaiErrors(t *testing.T) {
	if _, err := FromSimai([]byte("&title=x\n")); !errors.Is(err, ErrMalformed) {
		t.Errorf("Expected ErrMalformed without inote, got %v", err)
	}
	if _, err := FromSimai([]byte("&inote_1=(abc)1,")); !errors.Is(err, ErrMalformed) {
		t.Errorf("Expected ErrMalformed for bad BPM, got %v", err)
	}
}

const c2sChart = "VERSION\t1.13.00\t1.13.00\n" +
	"DIFFICULT\t02\n" +
	"RESOLUTION\t384\n" +
	"BPM_DEF\t120.000\t120.000\t120.000\t120.000\n" +
	"BPM\t0\t0\t120.000\n" +
	"MET\t0\t0\t4\t4\n" +
	"\n" +
	"TAP\t0\t0\t0\t4\n" +
	"CHR\t0\t192\t8\t4\tUP\n" +
	"HLD\t1\t0\t15\t1\t192\n" +
	"MNE\t1\t96\t4\t4\n" +
	"AIR\t1\t0\t15\t1\tTAP\t0\n"

func TestFromC2S(t *testing.T) {
	c, err := FromC2S([]byte(c2sChart))
	if err != nil {
		t.Fatalf("FromC2S failed: %v", err)
	}

	if c.Meta.BPM != 120 || c.Meta.Difficulty != 3 {
		t.Errorf("Unexpected meta: %+v", c.Meta)
	}

	// a measure at 120 BPM is 2000ms
	want := []chart.Note{{Time: 0, Zone: 0}, {Time: 1000, Zone: 3}, {Time: 2000, Zone: 5}}
	if len(c.Notes) != len(want) {
		t.Fatalf("Expected %d notes, got %d: %+v", len(want), len(c.Notes), c.Notes)
	}
	for i := range want {
		if c.Notes[i] != want[i] {
			t.Errorf("Note %d = %+v, expected %+v", i, c.Notes[i], want[i])
		}
	}
}

func writeMIDI(t *testing.T, keys []uint8, ticksPerNote uint32) []byte {
	t.Helper()

	var tr smf.Track
	tr.Add(0, smf.MetaTempo(120))
	for i, k := range keys {
		delta := ticksPerNote
		if i == 0 {
			delta = 0
		}
		tr.Add(delta, midi.NoteOn(0, k, 100))
		tr.Add(ticksPerNote/2, midi.NoteOff(0, k))
	}
	tr.Close(0)

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(480)
	if err := s.Add(tr); err != nil {
		t.Fatalf("Failed to add track: %v", err)
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		t.Fatalf("Failed to write midi: %v", err)
	}
	return buf.Bytes()
}

func TestFromMIDI(t *testing.T) {
	data := writeMIDI(t, []uint8{60, 61, 62, 67}, 480)

	c, err := FromMIDI(data)
	if err != nil {
		t.Fatalf("FromMIDI failed: %v", err)
	}
	if c.Meta.BPM != 120 {
		t.Errorf("Expected 120 BPM, got %v", c.Meta.BPM)
	}
	if len(c.Notes) != 4 {
		t.Fatalf("Expected 4 notes, got %d", len(c.Notes))
	}

	wantZones := []int{0, 1, 2, 1}
	for i, n := range c.Notes {
		if n.Zone != wantZones[i] {
			t.Errorf("Note %d zone %d, expected %d", i, n.Zone, wantZones[i])
		}
	}
	// note-on every 720 ticks (on 480 after the previous off at 240): 0, 750, 1500, 2250 ms
	if math.Abs(c.Notes[1].Time-750) > 1 {
		t.Errorf("Expected second note near 750ms, got %v", c.Notes[1].Time)
	}
}

func TestFromMIDIGarbage(t *testing.T) {
	if _, err := FromMIDI([]byte("MThd-not-really")); !errors.Is(err, ErrMalformed) {
		t.Errorf("Expected ErrMalformed, got %v", err)
	}
}

func TestConvertDispatch(t *testing.T) {
	native := `{"notes":[{"time":0,"zone":1},{"time":100,"zone":2}],"meta":{"difficulty":9,"bpm":128}}`

	c, err := Convert("", []byte(native))
	if err != nil {
		t.Fatalf("Convert native failed: %v", err)
	}
	if c.Meta.Source != SourceNative || c.Meta.Difficulty != 5 {
		t.Errorf("Unexpected meta: %+v", c.Meta)
	}

	c, err = Convert("OsuMania", []byte(maniaMap))
	if err != nil {
		t.Fatalf("Convert osumania failed: %v", err)
	}
	if c.Meta.Source != SourceOsuMania {
		t.Errorf("Expected source tag %q, got %q", SourceOsuMania, c.Meta.Source)
	}

	if _, err := Convert("guitarhero", nil); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Expected ErrUnsupported for unknown source, got %v", err)
	}
	if _, err := Convert("", []byte(`{"notes":[{"time":0,"zone":7}]}`)); !errors.Is(err, ErrMalformed) {
		t.Errorf("Expected ErrMalformed for bad zone, got %v", err)
	}
}

func TestFromJSONDropsUnplaceableTimes(t *testing.T) {
	data := `{"notes":[{"time":1e18,"zone":0},{"time":-5,"zone":1},{"time":500,"zone":2},{"time":250,"zone":3}],"meta":{"difficulty":3,"bpm":120}}`
	c, err := FromJSON([]byte(data))
	if err != nil {
		t.Fatalf("FromJSON failed: %v", err)
	}
	if len(c.Notes) != 2 {
		t.Fatalf("Expected 2 notes, got %d", len(c.Notes))
	}
	if c.Notes[0].Time != 250 || c.Notes[1].Time != 500 {
		t.Errorf("Expected times 250 and 500, got %+v", c.Notes)
	}

	_, err = FromJSON([]byte(`{"notes":[{"time":1e18,"zone":0}],"meta":{}}`))
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("Expected ErrMalformed for a chart with no placeable notes, got %v", err)
	}
}
