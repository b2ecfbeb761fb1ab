//go:build !js && !wasm

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/himanishpuri/automapper/pkg/automapper"
	"github.com/himanishpuri/automapper/pkg/automapper/storage"
)

var (
	port           int
	dbPath         string
	tempDir        string
	sampleRate     int
	allowedOrigins string
	dynamoTable    string
	dynamoEndpoint string
	dynamoRegion   string
)

func init() {
	flag.IntVar(&port, "port", 8080, "HTTP server port")
	flag.StringVar(&dbPath, "db", getEnvOrDefault("AUTOMAPPER_DB_PATH", storage.DefaultDBFile), "Path to SQLite database")
	flag.StringVar(&tempDir, "temp", getEnvOrDefault("AUTOMAPPER_TEMP_DIR", "/tmp"), "Temporary directory")
	flag.IntVar(&sampleRate, "rate", 22050, "Audio sample rate")
	flag.StringVar(&allowedOrigins, "origins", "*", "Comma-separated list of allowed CORS origins (use * for all)")
	flag.StringVar(&dynamoTable, "dynamo-table", os.Getenv("AUTOMAPPER_DYNAMO_TABLE"), "DynamoDB table used as the compact model store")
	flag.StringVar(&dynamoEndpoint, "dynamo-endpoint", os.Getenv("AUTOMAPPER_DYNAMO_ENDPOINT"), "Custom DynamoDB endpoint")
	flag.StringVar(&dynamoRegion, "dynamo-region", getEnvOrDefault("AWS_REGION", "us-east-1"), "DynamoDB region")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseOrigins(value string) []string {
	if value == "*" {
		return []string{"*"}
	}
	origins := strings.Split(value, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return origins
}

func main() {
	flag.Parse()

	opts := []automapper.Option{
		automapper.WithDBPath(dbPath),
		automapper.WithTempDir(tempDir),
		automapper.WithSampleRate(sampleRate),
	}
	if dynamoTable != "" {
		store, err := storage.NewDynamoStore(dynamoTable, dynamoRegion, dynamoEndpoint)
		if err != nil {
			log.Fatalf("Failed to open DynamoDB store: %v", err)
		}
		opts = append(opts,
			automapper.WithStores(store, nil),
			automapper.WithCompactCapacity(storage.DynamoItemLimit),
		)
	}

	service, err := automapper.NewService(opts...)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}
	defer service.Close()

	config := &ServerConfig{
		Port:           port,
		DBPath:         dbPath,
		TempDir:        tempDir,
		SampleRate:     sampleRate,
		AllowedOrigins: parseOrigins(allowedOrigins),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A stored model is optional at startup.
	if _, err := service.LoadModel(ctx); err != nil {
		log.Printf("Starting without a trained model: %v", err)
	}

	server := NewServer(service, config)
	if err := server.Start(ctx); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
