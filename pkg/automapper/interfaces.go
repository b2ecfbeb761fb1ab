package automapper

import (
	"context"

	"github.com/himanishpuri/automapper/pkg/automapper/chart"
	"github.com/himanishpuri/automapper/pkg/automapper/features"
	"github.com/himanishpuri/automapper/pkg/automapper/generator"
	"github.com/himanishpuri/automapper/pkg/automapper/model"
)

type Service interface {
	// Generate charts a decoded signal.
	Generate(ctx context.Context, sig features.Signal, cfg GenerateConfig) ([]chart.Note, error)
	// Analyze is Generate with the per-stage observations.
	Analyze(ctx context.Context, sig features.Signal, cfg GenerateConfig) (*generator.Result, error)
	// GenerateFromFile decodes an audio file, converting non-WAV input with
	// ffmpeg, and returns a complete chart.
	GenerateFromFile(ctx context.Context, path string, cfg GenerateConfig) (*chart.Chart, error)
	// Train replaces the current model with one built from inputs.
	Train(ctx context.Context, inputs []TrainingInput) (*model.TrainedModel, error)
	Model() *model.TrainedModel
	SaveModel(ctx context.Context) (SaveResult, error)
	LoadModel(ctx context.Context) (*model.TrainedModel, error)
	ExportModel(path string) error
	ImportModel(path string) (*model.TrainedModel, error)
	Close() error
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}
