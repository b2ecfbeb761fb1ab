//go:build !js && !wasm

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/himanishpuri/automapper/internal/preview"
	"github.com/himanishpuri/automapper/pkg/automapper/audio"
	"github.com/himanishpuri/automapper/pkg/automapper/features"
)

var (
	previewOutput string
	previewWidth  int
	previewHeight int
)

func init() {
	addGenerateFlags(previewCmd)
	previewCmd.Flags().StringVarP(&previewOutput, "output", "o", "", "PNG path (default <audio>.preview.png)")
	previewCmd.Flags().IntVar(&previewWidth, "width", preview.DefaultOptions().Width, "Image width in pixels")
	previewCmd.Flags().IntVar(&previewHeight, "height", preview.DefaultOptions().Height, "Image height in pixels")
	rootCmd.AddCommand(previewCmd)
}

var previewCmd = &cobra.Command{
	Use:   "preview <audio-file>",
	Short: "Render a spectrogram with the generated notes overlaid",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		audioPath := args[0]
		out := previewOutput
		if out == "" {
			out = strings.TrimSuffix(audioPath, filepath.Ext(audioPath)) + ".preview.png"
		}

		svc, err := createService()
		if err != nil {
			return fmt.Errorf("failed to initialize service: %w", err)
		}
		defer svc.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
		defer cancel()

		sig, err := readSignal(ctx, audioPath)
		if err != nil {
			return err
		}

		cfg := generateConfig()
		if cfg.UseTrainedModel && !loadStoredModel(ctx, svc) {
			cfg.UseTrainedModel = false
		}

		res, err := svc.Analyze(ctx, sig, cfg)
		if err != nil {
			return fmt.Errorf("generation failed: %w", err)
		}

		opts := preview.DefaultOptions()
		opts.Width, opts.Height = previewWidth, previewHeight
		if err := preview.WritePNG(out, sig, res.Notes, opts); err != nil {
			return fmt.Errorf("failed to render preview: %w", err)
		}

		printTitle("Preview rendered")
		printField("BPM", fmt.Sprintf("%.1f", res.BPM))
		printField("Onsets", res.Onsets)
		printField("Candidates", res.Candidates)
		printField("Accepted", res.Accepted)
		printField("Notes", len(res.Notes))
		printField("Sections", len(res.Sections))
		for name, n := range res.Strategies {
			printField("  "+name, n)
		}
		printField("Output", out)
		return nil
	},
}

// readSignal decodes audioPath, converting it to mono WAV first when needed.
func readSignal(ctx context.Context, audioPath string) (features.Signal, error) {
	if _, err := os.Stat(audioPath); err != nil {
		return features.Signal{}, fmt.Errorf("audio file not found: %s", audioPath)
	}

	wavPath := audioPath
	if !audio.IsWAV(audioPath) {
		converted, err := audio.ConvertToMonoWAV(ctx, audioPath, tempDir, audio.ConvertWAVConfig{SampleRate: sampleRate})
		if err != nil {
			return features.Signal{}, fmt.Errorf("audio conversion failed: %w", err)
		}
		defer os.Remove(converted)
		wavPath = converted
	}

	sig, err := audio.ReadSignal(wavPath)
	if err != nil {
		return features.Signal{}, fmt.Errorf("failed to read WAV file: %w", err)
	}
	return sig, nil
}
