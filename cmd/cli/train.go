//go:build !js && !wasm

package main

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/himanishpuri/automapper/pkg/automapper"
	"github.com/himanishpuri/automapper/pkg/automapper/convert"
	"github.com/himanishpuri/automapper/pkg/automapper/model"
)

var (
	trainSource string
	trainSave   bool
)

func init() {
	trainCmd.Flags().StringVarP(&trainSource, "source", "s", "",
		"Chart format for every file ("+strings.Join(convert.Sources(), ", ")+"); inferred from the extension when empty")
	trainCmd.Flags().BoolVar(&trainSave, "save", true, "Persist the trained model")
	rootCmd.AddCommand(trainCmd)
}

var trainCmd = &cobra.Command{
	Use:   "train <chart-file>...",
	Short: "Train the pattern model from existing charts",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputs := make([]automapper.TrainingInput, 0, len(args))
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}
			source := trainSource
			if source == "" {
				source = sourceForPath(path)
			}
			inputs = append(inputs, automapper.TrainingInput{Source: source, Data: string(data)})
		}

		svc, err := createService()
		if err != nil {
			return fmt.Errorf("failed to initialize service: %w", err)
		}
		defer svc.Close()

		ctx := cmd.Context()
		m, err := svc.Train(ctx, inputs)
		if err != nil {
			return fmt.Errorf("training failed: %w", err)
		}

		printTitle("Model trained")
		printModelInfo(m.Info())

		if !trainSave {
			return nil
		}
		res, err := svc.SaveModel(ctx)
		if err != nil {
			return err
		}
		printField("Saved to", fmt.Sprintf("%s store (%s)", res.Store, humanize.Bytes(uint64(res.Bytes))))
		return nil
	},
}

// sourceForPath maps well-known chart file extensions to source tags.
func sourceForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".osu":
		return convert.SourceOsu
	case ".sm", ".ssc":
		return convert.SourceStepMania
	case ".bms", ".bme", ".bml":
		return convert.SourceBMS
	case ".c2s":
		return convert.SourceChunithm
	case ".mid", ".midi":
		return convert.SourceMIDI
	case ".txt":
		return convert.SourceMaimai
	default:
		return convert.SourceNative
	}
}

func printModelInfo(info model.Info) {
	printField("ID", info.ID)
	printField("Created", humanize.Time(info.CreatedAt))
	printField("Charts", info.Charts)
	printField("Linear source", info.LinearSource)
	for _, name := range slices.Sorted(maps.Keys(info.Tables)) {
		printField("  "+name, humanize.Comma(int64(info.Tables[name])))
	}
	for d := 1; d <= 5; d++ {
		stats, ok := info.Difficulty[d]
		if !ok {
			continue
		}
		printField(fmt.Sprintf("  difficulty %d", d), fmt.Sprintf("%d charts, avg gap %.0f ms, variety %.2f, complexity %.2f",
			stats.Charts, stats.AvgInterval, stats.ZoneVariety, stats.Complexity))
	}
}
