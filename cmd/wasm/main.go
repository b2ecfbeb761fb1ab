//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"syscall/js"

	"github.com/himanishpuri/automapper/pkg/automapper/chart"
	"github.com/himanishpuri/automapper/pkg/automapper/convert"
	"github.com/himanishpuri/automapper/pkg/automapper/features"
	"github.com/himanishpuri/automapper/pkg/automapper/generator"
	"github.com/himanishpuri/automapper/pkg/automapper/model"
)

// Error codes returned to JavaScript
const (
	ErrorNone = iota
	ErrorInvalidArgs
	ErrorInvalidConfig
	ErrorInvalidModel
	ErrorProcessing
	ErrorConversion
)

// generateChart charts decoded audio in the browser.
// Arguments: samples (Array or typed array), sampleRate, channels, configJSON, modelJSON (optional).
// Returns: {error: number, data: chartJSON | string}
func generateChart(this js.Value, args []js.Value) any {
	if len(args) < 3 {
		return makeErrorResponse(ErrorInvalidArgs, "Expected at least 3 arguments: audioArray, sampleRate, channels")
	}

	audioDataJS := args[0]
	sampleRateJS := args[1]
	channelsJS := args[2]

	if audioDataJS.Type() != js.TypeObject {
		return makeErrorResponse(ErrorInvalidArgs, "audioArray must be an Array or Float32Array")
	}
	if sampleRateJS.Type() != js.TypeNumber {
		return makeErrorResponse(ErrorInvalidArgs, "sampleRate must be a number")
	}
	if channelsJS.Type() != js.TypeNumber {
		return makeErrorResponse(ErrorInvalidArgs, "channels must be a number")
	}

	sampleRate := sampleRateJS.Int()
	channels := channelsJS.Int()
	if sampleRate <= 0 {
		return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("Invalid sample rate: %d", sampleRate))
	}
	if channels < 1 || channels > 2 {
		return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("Channels must be 1 (mono) or 2 (stereo), got: %d", channels))
	}

	var cfg generator.Config
	if len(args) > 3 && args[3].Type() == js.TypeString && args[3].String() != "" {
		if err := json.Unmarshal([]byte(args[3].String()), &cfg); err != nil {
			return makeErrorResponse(ErrorInvalidConfig, fmt.Sprintf("Invalid config: %v", err))
		}
	}

	var trained *model.TrainedModel
	if len(args) > 4 && args[4].Type() == js.TypeString && args[4].String() != "" {
		m, err := model.Unmarshal([]byte(args[4].String()))
		if err != nil {
			return makeErrorResponse(ErrorInvalidModel, fmt.Sprintf("Invalid model: %v", err))
		}
		trained = m
	}
	if trained == nil {
		cfg.UseTrainedModel = false
	}

	length := audioDataJS.Length()
	samples := make([]float64, length)
	for i := 0; i < length; i++ {
		val := audioDataJS.Index(i)
		if val.Type() != js.TypeNumber {
			return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("audioArray element %d is not a number", i))
		}
		samples[i] = val.Float()
	}

	sig := features.Signal{Samples: samples, SampleRate: sampleRate}
	if channels == 2 {
		sig.Samples = features.MixToMono(samples, 2)
	}

	res, err := generator.New(trained).Run(context.Background(), sig, cfg)
	if err != nil {
		return makeErrorResponse(ErrorProcessing, fmt.Sprintf("Generation failed: %v", err))
	}

	out, err := json.Marshal(chart.Chart{
		Notes: res.Notes,
		Meta: chart.Meta{
			Difficulty: cfg.Normalize().Difficulty,
			BPM:        res.BPM,
		},
	})
	if err != nil {
		return makeErrorResponse(ErrorProcessing, err.Error())
	}

	result := js.Global().Get("Object").New()
	result.Set("error", ErrorNone)
	result.Set("data", string(out))
	return result
}

// convertChart turns a foreign chart into native chart JSON.
// Arguments: source tag, chart text. Returns: {error: number, data: chartJSON | string}
func convertChart(this js.Value, args []js.Value) any {
	if len(args) < 2 || args[0].Type() != js.TypeString || args[1].Type() != js.TypeString {
		return makeErrorResponse(ErrorInvalidArgs, "Expected 2 string arguments: source, data")
	}

	c, err := convert.Convert(args[0].String(), []byte(args[1].String()))
	if err != nil {
		return makeErrorResponse(ErrorConversion, err.Error())
	}
	out, err := json.Marshal(c)
	if err != nil {
		return makeErrorResponse(ErrorConversion, err.Error())
	}

	result := js.Global().Get("Object").New()
	result.Set("error", ErrorNone)
	result.Set("data", string(out))
	return result
}

func makeErrorResponse(errorCode int, message string) js.Value {
	result := js.Global().Get("Object").New()
	result.Set("error", errorCode)
	result.Set("data", message)
	return result
}

func main() {
	console := js.Global().Get("console")
	if !console.IsUndefined() {
		console.Call("log", "AutoMapper WASM module initializing...")
	}

	done := make(chan struct{})

	js.Global().Set("generateChart", js.FuncOf(generateChart))
	js.Global().Set("convertChart", js.FuncOf(convertChart))

	window := js.Global().Get("window")
	if !window.IsUndefined() {
		eventInit := js.Global().Get("Object").New()
		event := js.Global().Get("CustomEvent").New("wasmReady", eventInit)
		window.Call("dispatchEvent", event)
	} else if !console.IsUndefined() {
		console.Call("error", "window object is undefined")
	}

	if !console.IsUndefined() {
		console.Call("log", "AutoMapper WASM module loaded and ready")
	}

	<-done
}
