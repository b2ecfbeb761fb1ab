package automapper

import (
	"errors"
	"fmt"

	"github.com/himanishpuri/automapper/pkg/automapper/chart"
	"github.com/himanishpuri/automapper/pkg/automapper/convert"
	"github.com/himanishpuri/automapper/pkg/automapper/generator"
)

var (
	ErrNoModel        = errors.New("no trained model")
	ErrPersistFailed  = errors.New("model persistence failed")
	ErrNoTrainingData = errors.New("no usable training charts")
)

// GenerateConfig is one generation request.
type GenerateConfig = generator.Config

// TrainingInput is one corpus entry: either a native chart, or serialized
// data tagged with its source format.
type TrainingInput struct {
	Source string       `json:"source,omitempty"`
	Chart  *chart.Chart `json:"chart,omitempty"`
	Data   string       `json:"data,omitempty"`
}

func (in TrainingInput) toChart() (*chart.Chart, error) {
	if in.Chart != nil {
		c := *in.Chart
		if c.Meta.Source == "" {
			c.Meta.Source = in.Source
		}
		return &c, nil
	}
	if in.Data == "" {
		return nil, fmt.Errorf("%w: empty training input", convert.ErrMalformed)
	}
	return convert.Convert(in.Source, []byte(in.Data))
}

// SaveResult reports where a model was persisted.
type SaveResult struct {
	Store string `json:"store"`
	Bytes int    `json:"bytes"`
}
