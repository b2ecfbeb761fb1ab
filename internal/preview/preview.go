// Package preview renders a spectrogram PNG of a track with the generated
// notes drawn over it, for checking placement by eye.
package preview

import (
	"errors"
	"image"
	"image/draw"

	"github.com/eligwz/spectrogram"
	"github.com/himanishpuri/automapper/pkg/automapper/chart"
	"github.com/himanishpuri/automapper/pkg/automapper/features"
)

type Options struct {
	Width  int
	Height int
	// MarkerHeight is the height of the zone lane strip at the bottom.
	MarkerHeight int
}

func DefaultOptions() Options {
	return Options{Width: 2048, Height: 512, MarkerHeight: 48}
}

// one color per zone, clockwise from the top
var zoneColors = [chart.ZoneCount]string{"ff4040", "ffa040", "ffff40", "40ff80", "40a0ff", "c040ff"}

// WritePNG renders sig and notes to path.
func WritePNG(path string, sig features.Signal, notes []chart.Note, opts Options) error {
	if sig.SampleRate <= 0 || len(sig.Samples) == 0 {
		return errors.New("empty signal")
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		opts = DefaultOptions()
	}
	markers := min(max(opts.MarkerHeight, 0), opts.Height/2)
	bins := opts.Height - markers

	img := spectrogram.NewImage128(image.Rect(0, 0, opts.Width, opts.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(spectrogram.ParseColor("000000")), image.Point{}, draw.Src)

	spectrogram.Drawfft(
		img,
		sig.Samples,
		uint32(sig.SampleRate),
		uint32(bins),
		false, // hamming window
		false, // fft rather than dft
		true,  // magnitude
		false, // linear scale
	)

	durationMs := sig.DurationMs()
	laneHeight := max(markers/chart.ZoneCount, 1)
	for _, n := range notes {
		x := markerX(n.Time, durationMs, opts.Width)
		if x < 0 || !chart.Valid(n.Zone) {
			continue
		}
		c := spectrogram.ParseColor(zoneColors[n.Zone])

		// faint tick through the spectrogram, solid block in the zone lane
		for y := 0; y < bins; y += 4 {
			img.Set(x, y, c)
		}
		top := bins + n.Zone*laneHeight
		for y := top; y < min(top+laneHeight, opts.Height); y++ {
			for dx := 0; dx < 2 && x+dx < opts.Width; dx++ {
				img.Set(x+dx, y, c)
			}
		}
	}

	return spectrogram.SavePng(img, path)
}

// markerX maps a note time onto an image column, or -1 when off-image.
func markerX(t, durationMs float64, width int) int {
	if durationMs <= 0 || t < 0 || t > durationMs {
		return -1
	}
	return min(int(t/durationMs*float64(width)), width-1)
}
