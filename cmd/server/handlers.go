//go:build !js && !wasm

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/himanishpuri/automapper/pkg/automapper"
	"github.com/himanishpuri/automapper/pkg/automapper/chart"
	"github.com/himanishpuri/automapper/pkg/automapper/features"
	"github.com/himanishpuri/automapper/pkg/logger"
	"github.com/himanishpuri/automapper/pkg/utils"
)

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	service automapper.Service
	config  *ServerConfig
	log     automapper.Logger
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	DBPath         string
	TempDir        string
	SampleRate     int
	AllowedOrigins []string
}

func NewServer(service automapper.Service, config *ServerConfig) *Server {
	return &Server{
		service: service,
		config:  config,
		log:     logger.GetLogger().WithPrefix("server"),
	}
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response
func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"service": "AutoMapper API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":    "GET /health",
			"generate":  "POST /api/generate",
			"train":     "POST /api/train",
			"model":     "GET /api/model",
			"saveModel": "POST /api/model/save",
			"loadModel": "POST /api/model/load",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":     "healthy",
		"time":       time.Now().Format(time.RFC3339),
		"modelReady": s.service.Model() != nil,
	})
}

// handleGenerate handles POST /api/generate. A JSON body carries decoded
// samples; anything else is read as a multipart audio upload.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		s.generateFromSamples(ctx, w, r)
		return
	}
	s.generateFromUpload(ctx, w, r)
}

func (s *Server) generateFromSamples(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	var req GenerateSamplesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.log.Warnf("Failed to decode request: %v", err)
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	cfg := s.withModel(req.Config)
	res, err := s.service.Analyze(ctx, features.Signal{Samples: req.Samples, SampleRate: req.SampleRate}, cfg)
	if err != nil {
		s.respondGenerateError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, GenerateResponse{
		Chart: &chart.Chart{
			Notes: res.Notes,
			Meta: chart.Meta{
				Difficulty: cfg.Normalize().Difficulty,
				BPM:        res.BPM,
				Title:      req.Title,
			},
		},
		DurationMs: res.DurationMs,
		Onsets:     res.Onsets,
		Candidates: res.Candidates,
		Sections:   res.Sections,
		Strategies: res.Strategies,
	})
}

func (s *Server) generateFromUpload(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		s.log.Warnf("Failed to parse form: %v", err)
		s.respondError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	var cfg automapper.GenerateConfig
	if raw := r.FormValue("config"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
			s.respondError(w, http.StatusBadRequest, "config must be a JSON object")
			return
		}
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	// Keep the extension: it decides whether ffmpeg runs.
	tempFile := utils.TempPath(s.config.TempDir, "upload", filepath.Ext(header.Filename))
	out, err := os.Create(tempFile)
	if err != nil {
		s.log.Errorf("Failed to create temp file: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to process upload")
		return
	}
	defer os.Remove(tempFile)

	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		s.log.Errorf("Failed to save file: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to save uploaded file")
		return
	}
	out.Close()

	c, err := s.service.GenerateFromFile(ctx, tempFile, s.withModel(cfg))
	if err != nil {
		s.respondGenerateError(w, err)
		return
	}
	if c.Meta.Title == "" || c.Meta.Title == trimExt(filepath.Base(tempFile)) {
		c.Meta.Title = trimExt(header.Filename)
	}

	s.log.Infof("Generated %d notes for %s", len(c.Notes), header.Filename)
	s.respondJSON(w, http.StatusOK, GenerateResponse{Chart: c})
}

// withModel turns off the trained model when none is installed, so the
// request falls back to expert tables.
func (s *Server) withModel(cfg automapper.GenerateConfig) automapper.GenerateConfig {
	if cfg.UseTrainedModel && s.service.Model() == nil {
		s.log.Warnf("Trained model requested but none is loaded")
		cfg.UseTrainedModel = false
	}
	return cfg
}

func (s *Server) respondGenerateError(w http.ResponseWriter, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		s.respondError(w, http.StatusServiceUnavailable, "Generation was cancelled")
		return
	}
	s.log.Errorf("Generation failed: %v", err)
	s.respondError(w, http.StatusUnprocessableEntity, fmt.Sprintf("Generation failed: %v", err))
}

// handleTrain handles POST /api/train
func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	var req TrainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.log.Warnf("Failed to decode request: %v", err)
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	m, err := s.service.Train(r.Context(), req.Inputs)
	if errors.Is(err, automapper.ErrNoTrainingData) {
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		s.log.Errorf("Training failed: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Training failed")
		return
	}

	resp := TrainResponse{Model: m.Info()}
	if req.Save {
		saved, err := s.service.SaveModel(r.Context())
		if err != nil {
			resp.SaveError = err.Error()
		} else {
			resp.Saved = &saved
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// handleModelInfo handles GET /api/model
func (s *Server) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	m := s.service.Model()
	if m == nil {
		s.respondError(w, http.StatusNotFound, "No trained model is loaded")
		return
	}
	s.respondJSON(w, http.StatusOK, m.Info())
}

// handleModelSave handles POST /api/model/save
func (s *Server) handleModelSave(w http.ResponseWriter, r *http.Request) {
	res, err := s.service.SaveModel(r.Context())
	switch {
	case errors.Is(err, automapper.ErrNoModel):
		s.respondError(w, http.StatusNotFound, "No trained model is loaded")
	case err != nil:
		s.log.Errorf("Saving model failed: %v", err)
		s.respondError(w, http.StatusInternalServerError, err.Error())
	default:
		s.respondJSON(w, http.StatusOK, SaveModelResponse{Message: "Model saved", SaveResult: res})
	}
}

// handleModelLoad handles POST /api/model/load
func (s *Server) handleModelLoad(w http.ResponseWriter, r *http.Request) {
	m, err := s.service.LoadModel(r.Context())
	switch {
	case errors.Is(err, automapper.ErrNoModel):
		s.respondError(w, http.StatusNotFound, "No stored model")
	case err != nil:
		s.log.Errorf("Loading model failed: %v", err)
		s.respondError(w, http.StatusInternalServerError, err.Error())
	default:
		s.respondJSON(w, http.StatusOK, m.Info())
	}
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}
