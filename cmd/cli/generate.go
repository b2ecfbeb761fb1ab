//go:build !js && !wasm

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/himanishpuri/automapper/pkg/automapper"
	"github.com/himanishpuri/automapper/pkg/automapper/chart"
	"github.com/himanishpuri/automapper/pkg/automapper/features"
	"github.com/himanishpuri/automapper/pkg/utils"
)

var (
	genConfig   automapper.GenerateConfig
	genOutput   string
	genSpectral string
)

func init() {
	addGenerateFlags(generateCmd)
	generateCmd.Flags().StringVarP(&genOutput, "output", "o", "", "Write the chart JSON here instead of stdout")
	rootCmd.AddCommand(generateCmd)
}

// addGenerateFlags binds the generation settings shared by generate and
// preview.
func addGenerateFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntVarP(&genConfig.Difficulty, "difficulty", "d", 3, "Difficulty from 1 (easy) to 5 (expert)")
	f.Float64Var(&genConfig.BPM, "bpm", 0, "Tempo in BPM; 0 estimates it from the audio")
	f.Float64Var(&genConfig.OffsetMs, "offset", 0, "Beat grid offset in milliseconds")
	f.Float64Var(&genConfig.MinNoteIntervalMs, "min-interval", 100, "Minimum gap between notes in milliseconds")
	f.BoolVar(&genConfig.UseTrainedModel, "model", false, "Use the stored trained model for zone selection")
	f.BoolVar(&genConfig.MaimaiStyle, "maimai", false, "Add symmetric chords, slides and bursts")
	f.Float64Var(&genConfig.MaimaiIntensity, "intensity", 0.5, "Maimai post-processing intensity from 0 to 1")
	f.Uint64Var(&genConfig.Seed, "seed", 0, "Random seed; 0 picks one")
	f.StringVar(&genSpectral, "spectral", string(features.SpectralCrude), "Spectral analysis: crude or fft")
}

func generateConfig() automapper.GenerateConfig {
	cfg := genConfig
	cfg.SpectralMode = features.SpectralMode(genSpectral)
	return cfg
}

var generateCmd = &cobra.Command{
	Use:   "generate <audio-file>",
	Short: "Generate a chart for an audio file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		audioPath := args[0]
		if _, err := os.Stat(audioPath); err != nil {
			return fmt.Errorf("audio file not found: %s", audioPath)
		}

		svc, err := createService()
		if err != nil {
			return fmt.Errorf("failed to initialize service: %w", err)
		}
		defer svc.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
		defer cancel()

		cfg := generateConfig()
		if cfg.UseTrainedModel && !loadStoredModel(ctx, svc) {
			cfg.UseTrainedModel = false
		}

		start := time.Now()
		c, err := svc.GenerateFromFile(ctx, audioPath, cfg)
		if err != nil {
			return fmt.Errorf("generation failed: %w", err)
		}

		if err := writeChart(c, genOutput); err != nil {
			return err
		}

		printTitle("Chart generated")
		printField("Title", c.Meta.Title)
		printField("Difficulty", c.Meta.Difficulty)
		printField("BPM", fmt.Sprintf("%.1f", c.Meta.BPM))
		printField("Notes", len(c.Notes))
		printField("Chords", countChords(c.Notes))
		printField("Elapsed", time.Since(start).Round(time.Millisecond))
		if genOutput != "" {
			printField("Output", genOutput)
		}
		return nil
	},
}

func writeChart(c *chart.Chart, path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode chart: %w", err)
	}
	if path == "" {
		_, err = fmt.Fprintln(os.Stdout, string(data))
		return err
	}
	return utils.WriteFileAtomic(path, data)
}

func countChords(notes []chart.Note) int {
	n := 0
	for _, note := range notes {
		if note.Type == chart.ChordVariant {
			n++
		}
	}
	return n
}
