//go:build !js && !wasm

package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/himanishpuri/automapper/pkg/automapper"
	"github.com/himanishpuri/automapper/pkg/automapper/storage"
	"github.com/himanishpuri/automapper/pkg/logger"
)

// Global flags
var (
	dbPath         string
	tempDir        string
	sampleRate     int
	logLevel       string
	dynamoTable    string
	dynamoEndpoint string
	dynamoRegion   string
)

var rootCmd = &cobra.Command{
	Use:   "automapper",
	Short: "Generate rhythm game charts from audio",
	Long: `automapper analyzes an audio track and places notes on a six-zone
circular play field. Charts from other games can be used to train a
pattern model that the generator then follows.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if logLevel == "" {
			return nil
		}
		level, ok := logger.ParseLevel(logLevel)
		if !ok {
			return fmt.Errorf("unknown log level %q", logLevel)
		}
		logger.SetLevel(level)
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&dbPath, "db", getEnvOrDefault("AUTOMAPPER_DB_PATH", storage.DefaultDBFile), "Path to the SQLite database file")
	flags.StringVar(&tempDir, "temp", getEnvOrDefault("AUTOMAPPER_TEMP_DIR", "/tmp"), "Directory for temporary audio conversion files")
	flags.IntVar(&sampleRate, "rate", getEnvIntOrDefault("AUTOMAPPER_SAMPLE_RATE", 22050), "Sample rate used when converting audio")
	flags.StringVar(&logLevel, "log-level", os.Getenv(logger.EnvLevel), "Log level (debug, info, warn, error)")
	flags.StringVar(&dynamoTable, "dynamo-table", os.Getenv("AUTOMAPPER_DYNAMO_TABLE"), "Use this DynamoDB table as the compact model store")
	flags.StringVar(&dynamoEndpoint, "dynamo-endpoint", os.Getenv("AUTOMAPPER_DYNAMO_ENDPOINT"), "Custom DynamoDB endpoint")
	flags.StringVar(&dynamoRegion, "dynamo-region", getEnvOrDefault("AWS_REGION", "us-east-1"), "DynamoDB region")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n > 0 {
		return n
	}
	return defaultValue
}

// createService opens the service with the configured stores. A DynamoDB
// table, when set, replaces the SQLite compact store.
func createService() (automapper.Service, error) {
	opts := []automapper.Option{
		automapper.WithDBPath(dbPath),
		automapper.WithTempDir(tempDir),
		automapper.WithSampleRate(sampleRate),
	}

	if dynamoTable != "" {
		store, err := storage.NewDynamoStore(dynamoTable, dynamoRegion, dynamoEndpoint)
		if err != nil {
			return nil, err
		}
		opts = append(opts,
			automapper.WithStores(store, nil),
			automapper.WithCompactCapacity(storage.DynamoItemLimit),
		)
	}

	return automapper.NewService(opts...)
}

// loadStoredModel installs the persisted model, if any. A missing model is
// not an error; the caller decides what to do without one.
func loadStoredModel(ctx context.Context, svc automapper.Service) bool {
	if _, err := svc.LoadModel(ctx); err != nil {
		logger.Warnf("No trained model available: %v", err)
		return false
	}
	return true
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		PrintError(err.Error())
		os.Exit(1)
	}
}
