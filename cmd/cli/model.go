//go:build !js && !wasm

package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func init() {
	modelCmd.AddCommand(modelInfoCmd, modelLoadCmd, modelSaveCmd, modelExportCmd, modelImportCmd)
	rootCmd.AddCommand(modelCmd)
}

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Inspect and move the stored trained model",
}

var modelInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show table sizes and difficulty statistics of the stored model",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := createService()
		if err != nil {
			return fmt.Errorf("failed to initialize service: %w", err)
		}
		defer svc.Close()

		m, err := svc.LoadModel(cmd.Context())
		if err != nil {
			return err
		}
		printTitle("Trained model")
		printModelInfo(m.Info())
		return nil
	},
}

var modelLoadCmd = &cobra.Command{
	Use:   "load",
	Short: "Check that the stored model loads",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := createService()
		if err != nil {
			return fmt.Errorf("failed to initialize service: %w", err)
		}
		defer svc.Close()

		m, err := svc.LoadModel(cmd.Context())
		if err != nil {
			return err
		}
		printTitle("Model loaded")
		printField("ID", m.ID)
		printField("Charts", m.Charts)
		return nil
	},
}

// model save re-persists the stored model, which moves it to the store its
// current size fits.
var modelSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Re-save the stored model to the store that fits it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := createService()
		if err != nil {
			return fmt.Errorf("failed to initialize service: %w", err)
		}
		defer svc.Close()

		ctx := cmd.Context()
		if _, err := svc.LoadModel(ctx); err != nil {
			return err
		}
		res, err := svc.SaveModel(ctx)
		if err != nil {
			return err
		}
		printTitle("Model saved")
		printField("Store", res.Store)
		printField("Size", humanize.Bytes(uint64(res.Bytes)))
		return nil
	},
}

var modelExportCmd = &cobra.Command{
	Use:   "export <file.json>",
	Short: "Write the stored model to a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := createService()
		if err != nil {
			return fmt.Errorf("failed to initialize service: %w", err)
		}
		defer svc.Close()

		if _, err := svc.LoadModel(cmd.Context()); err != nil {
			return err
		}
		if err := svc.ExportModel(args[0]); err != nil {
			return err
		}
		printTitle("Model exported")
		printField("File", args[0])
		return nil
	},
}

var modelImportCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Read a model from a JSON file and persist it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := createService()
		if err != nil {
			return fmt.Errorf("failed to initialize service: %w", err)
		}
		defer svc.Close()

		m, err := svc.ImportModel(args[0])
		if err != nil {
			return err
		}
		res, err := svc.SaveModel(cmd.Context())
		if err != nil {
			return err
		}
		printTitle("Model imported")
		printModelInfo(m.Info())
		printField("Saved to", fmt.Sprintf("%s store (%s)", res.Store, humanize.Bytes(uint64(res.Bytes))))
		return nil
	},
}
