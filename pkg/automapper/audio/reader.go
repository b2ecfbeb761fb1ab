package audio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/himanishpuri/automapper/pkg/automapper/features"
)

const wavFormatPCM = 1

// ReadWavAsFloat64 reads a PCM WAV file and returns mono samples normalized
// to [-1, 1] and the sample rate. Multi-channel files are averaged.
func ReadWavAsFloat64(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	return DecodeWav(f)
}

// DecodeWav is ReadWavAsFloat64 over any seekable reader.
func DecodeWav(r io.ReadSeeker) ([]float64, int, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, 0, errors.New("not a WAV/RIFF file")
	}
	if decoder.WavAudioFormat != wavFormatPCM {
		return nil, 0, fmt.Errorf("unsupported WAV audio format %d: only PCM supported", decoder.WavAudioFormat)
	}
	if decoder.BitDepth == 0 || decoder.BitDepth > 32 {
		return nil, 0, fmt.Errorf("unsupported bit depth %d", decoder.BitDepth)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decoding PCM samples: %w", err)
	}

	scale := 1.0 / float64(int64(1)<<(uint(decoder.BitDepth)-1))
	samples := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = float64(v) * scale
	}

	return features.MixToMono(samples, int(decoder.NumChans)), int(decoder.SampleRate), nil
}

// ReadSignal loads a WAV file as a features.Signal.
func ReadSignal(path string) (features.Signal, error) {
	samples, rate, err := ReadWavAsFloat64(path)
	if err != nil {
		return features.Signal{}, err
	}
	return features.Signal{Samples: samples, SampleRate: rate}, nil
}

// WriteWav stores mono samples in [-1, 1] as 16-bit PCM.
func WriteWav(path string, samples []float64, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	data := make([]int, len(samples))
	for i, s := range samples {
		s = min(max(s, -1), 1)
		data[i] = int(s * 32767)
	}

	enc := wav.NewEncoder(f, sampleRate, 16, 1, wavFormatPCM)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		f.Close()
		return fmt.Errorf("encoding wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("finalizing wav: %w", err)
	}
	return f.Close()
}
