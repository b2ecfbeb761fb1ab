//go:build !js && !wasm

package main

import (
	"fmt"

	"github.com/himanishpuri/automapper/pkg/automapper"
	"github.com/himanishpuri/automapper/pkg/automapper/chart"
	"github.com/himanishpuri/automapper/pkg/automapper/model"
	"github.com/himanishpuri/automapper/pkg/automapper/structure"
)

const (
	// MaxUploadBytes bounds multipart audio uploads.
	MaxUploadBytes = 100 << 20

	// MaxSampleSeconds bounds JSON sample payloads at the given rate.
	MaxSampleSeconds = 15 * 60

	MaxTrainingInputs = 5000
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// GenerateSamplesRequest is the JSON form of POST /api/generate, used by
// clients that decode audio themselves.
type GenerateSamplesRequest struct {
	Samples    []float64                 `json:"samples"`
	SampleRate int                       `json:"sampleRate"`
	Title      string                    `json:"title,omitempty"`
	Config     automapper.GenerateConfig `json:"config"`
}

func (r *GenerateSamplesRequest) Validate() error {
	if r.SampleRate <= 0 {
		return fmt.Errorf("sampleRate must be positive, got %d", r.SampleRate)
	}
	if len(r.Samples) == 0 {
		return fmt.Errorf("samples cannot be empty")
	}
	if limit := r.SampleRate * MaxSampleSeconds; len(r.Samples) > limit {
		return fmt.Errorf("too many samples: %d (maximum: %d)", len(r.Samples), limit)
	}
	return nil
}

type GenerateResponse struct {
	Chart      *chart.Chart        `json:"chart"`
	DurationMs float64             `json:"durationMs"`
	Onsets     int                 `json:"onsets"`
	Candidates int                 `json:"candidates"`
	Sections   []structure.Section `json:"sections,omitempty"`
	Strategies map[string]int      `json:"strategies,omitempty"`
}

// TrainRequest is the body of POST /api/train.
type TrainRequest struct {
	Inputs []automapper.TrainingInput `json:"inputs"`
	Save   bool                       `json:"save"`
}

func (r *TrainRequest) Validate() error {
	if len(r.Inputs) == 0 {
		return fmt.Errorf("inputs cannot be empty")
	}
	if len(r.Inputs) > MaxTrainingInputs {
		return fmt.Errorf("too many inputs: %d (maximum: %d)", len(r.Inputs), MaxTrainingInputs)
	}
	for i, in := range r.Inputs {
		if in.Chart == nil && in.Data == "" {
			return fmt.Errorf("input %d has neither chart nor data", i)
		}
	}
	return nil
}

type TrainResponse struct {
	Model model.Info             `json:"model"`
	Saved *automapper.SaveResult `json:"saved,omitempty"`
	// SaveError is set when training succeeded but persisting did not.
	SaveError string `json:"saveError,omitempty"`
}

type SaveModelResponse struct {
	Message string `json:"message"`
	automapper.SaveResult
}
