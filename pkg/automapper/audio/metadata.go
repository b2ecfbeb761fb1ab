//go:build !js && !wasm

package audio

import (
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

var ErrNoAudioStream = errors.New("no audio stream found")

// Metadata is what chart generation needs from a source file.
type Metadata struct {
	Title      string
	Artist     string
	DurationMs float64
	SampleRate int
	Channels   int
}

// ChartTitle joins artist and title when both are tagged.
func (m *Metadata) ChartTitle() string {
	switch {
	case m.Artist != "" && m.Title != "":
		return m.Artist + " - " + m.Title
	default:
		return m.Title
	}
}

type streamInfo struct {
	Format struct {
		Duration string            `json:"duration"`
		Tags     map[string]string `json:"tags"`
	} `json:"format"`
	Streams []struct {
		CodecType  string `json:"codec_type"`
		SampleRate string `json:"sample_rate"`
		Channels   int    `json:"channels"`
	} `json:"streams"`
}

// ReadMetadata asks ffprobe for duration, the first audio stream and the
// title/artist tags.
func ReadMetadata(ctx context.Context, path string) (*Metadata, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}

	out, err := exec.CommandContext(ctx,
		"ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_entries", "format=duration:format_tags:stream=codec_type,sample_rate,channels",
		path,
	).Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return parseMetadata(out)
}

func parseMetadata(out []byte) (*Metadata, error) {
	var info streamInfo
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, err
	}

	meta := &Metadata{}
	found := false
	for _, s := range info.Streams {
		if s.CodecType != "audio" {
			continue
		}
		meta.SampleRate, _ = strconv.Atoi(s.SampleRate)
		meta.Channels = s.Channels
		found = true
		break
	}
	if !found {
		return nil, ErrNoAudioStream
	}

	if sec, err := strconv.ParseFloat(info.Format.Duration, 64); err == nil {
		meta.DurationMs = sec * 1000
	}

	// Vorbis and FLAC containers report tags in upper case.
	for k, v := range info.Format.Tags {
		switch strings.ToLower(k) {
		case "title":
			meta.Title = strings.TrimSpace(v)
		case "artist":
			meta.Artist = strings.TrimSpace(v)
		}
	}
	return meta, nil
}
