//go:build !js && !wasm

package main

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/himanishpuri/automapper/internal/synth"
	"github.com/himanishpuri/automapper/pkg/automapper"
	"github.com/himanishpuri/automapper/pkg/automapper/audio"
	"github.com/himanishpuri/automapper/pkg/automapper/chart"
	"github.com/himanishpuri/automapper/pkg/automapper/model"
	"github.com/himanishpuri/automapper/pkg/automapper/storage"
)

// setupTestServer serves a service backed by in-memory stores.
func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	svc, err := automapper.NewService(
		automapper.WithStores(storage.NewMemoryStore(1<<20), storage.NewMemoryStore(0)),
		automapper.WithTempDir(t.TempDir()),
	)
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}
	t.Cleanup(func() { svc.Close() })

	s := NewServer(svc, &ServerConfig{TempDir: t.TempDir(), SampleRate: 11025, AllowedOrigins: []string{"*"}})
	ts := httptest.NewServer(s.setupRoutes())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to encode body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
}

func rotationInputs() []automapper.TrainingInput {
	c := &chart.Chart{Meta: chart.Meta{Difficulty: 3, BPM: 120}}
	for i := 0; i < 40; i++ {
		c.Notes = append(c.Notes, chart.Note{Time: float64(i) * 250, Zone: i % chart.ZoneCount})
	}
	return []automapper.TrainingInput{{Chart: c}}
}

func TestHealth(t *testing.T) {
	ts := setupTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	var body map[string]any
	decode(t, resp, &body)
	if body["status"] != "healthy" {
		t.Errorf("Expected healthy status, got %v", body["status"])
	}
	if body["modelReady"] != false {
		t.Errorf("Expected no model at startup, got %v", body["modelReady"])
	}
}

func TestGenerateFromSamples(t *testing.T) {
	ts := setupTestServer(t)
	tr := synth.New(11025, 10000).Bed().Clicks(0, 10000, 500)

	resp := postJSON(t, ts.URL+"/api/generate", GenerateSamplesRequest{
		Samples:    tr.Samples,
		SampleRate: tr.SampleRate,
		Title:      "clicks",
		Config:     automapper.GenerateConfig{Difficulty: 2, BPM: 120, Seed: 3},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var out GenerateResponse
	decode(t, resp, &out)
	if out.Chart == nil || len(out.Chart.Notes) == 0 {
		t.Fatal("Expected notes in the chart")
	}
	if out.Chart.Meta.Title != "clicks" || out.Chart.Meta.Difficulty != 2 {
		t.Errorf("Unexpected meta: %+v", out.Chart.Meta)
	}
	for _, n := range out.Chart.Notes {
		if !chart.Valid(n.Zone) {
			t.Fatalf("Invalid zone %d", n.Zone)
		}
	}
}

func TestGenerateValidation(t *testing.T) {
	ts := setupTestServer(t)

	resp := postJSON(t, ts.URL+"/api/generate", GenerateSamplesRequest{SampleRate: 0, Samples: []float64{0}})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for a zero sample rate, got %d", resp.StatusCode)
	}

	var errResp ErrorResponse
	decode(t, resp, &errResp)
	if errResp.Code != http.StatusBadRequest || errResp.Message == "" {
		t.Errorf("Unexpected error body: %+v", errResp)
	}
}

func TestGenerateFromUpload(t *testing.T) {
	ts := setupTestServer(t)

	tr := synth.New(11025, 8000).Bed().Clicks(0, 8000, 500)
	wavPath := filepath.Join(t.TempDir(), "clicks.wav")
	if err := audio.WriteWav(wavPath, tr.Samples, tr.SampleRate); err != nil {
		t.Fatalf("WriteWav failed: %v", err)
	}
	data, err := os.ReadFile(wavPath)
	if err != nil {
		t.Fatalf("Failed to read fixture: %v", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("audio", "My Song.wav")
	if err != nil {
		t.Fatalf("CreateFormFile failed: %v", err)
	}
	part.Write(data)
	mw.WriteField("config", `{"difficulty":4,"bpm":120,"seed":5}`)
	mw.Close()

	resp, err := http.Post(ts.URL+"/api/generate", mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var out GenerateResponse
	decode(t, resp, &out)
	if out.Chart.Meta.Difficulty != 4 {
		t.Errorf("Expected difficulty 4, got %d", out.Chart.Meta.Difficulty)
	}
	if out.Chart.Meta.Title != "My Song" {
		t.Errorf("Expected title from the upload name, got %q", out.Chart.Meta.Title)
	}
	if len(out.Chart.Notes) == 0 {
		t.Error("Expected notes")
	}
}

func TestModelLifecycle(t *testing.T) {
	ts := setupTestServer(t)

	resp, err := http.Get(ts.URL + "/api/model")
	if err != nil {
		t.Fatalf("GET /api/model failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 before training, got %d", resp.StatusCode)
	}

	if resp := postJSON(t, ts.URL+"/api/model/load", nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 loading an empty store, got %d", resp.StatusCode)
	}

	train := postJSON(t, ts.URL+"/api/train", TrainRequest{Inputs: rotationInputs(), Save: true})
	if train.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 from train, got %d", train.StatusCode)
	}
	var trained TrainResponse
	decode(t, train, &trained)
	if trained.Model.Charts != 1 {
		t.Errorf("Expected 1 chart, got %d", trained.Model.Charts)
	}
	if trained.Saved == nil || trained.Saved.Store != storage.CompactStore {
		t.Errorf("Expected the model saved to the compact store, got %+v (%s)", trained.Saved, trained.SaveError)
	}

	resp, err = http.Get(ts.URL + "/api/model")
	if err != nil {
		t.Fatalf("GET /api/model failed: %v", err)
	}
	defer resp.Body.Close()
	var info model.Info
	decode(t, resp, &info)
	if info.ID != trained.Model.ID {
		t.Errorf("Expected model %s, got %s", trained.Model.ID, info.ID)
	}

	save := postJSON(t, ts.URL+"/api/model/save", nil)
	if save.StatusCode != http.StatusOK {
		t.Errorf("Expected 200 from save, got %d", save.StatusCode)
	}

	load := postJSON(t, ts.URL+"/api/model/load", nil)
	if load.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 from load, got %d", load.StatusCode)
	}
	var loaded model.Info
	decode(t, load, &loaded)
	if loaded.ID != trained.Model.ID {
		t.Errorf("Expected loaded model %s, got %s", trained.Model.ID, loaded.ID)
	}
}

func TestTrainRejectsUnusableInputs(t *testing.T) {
	ts := setupTestServer(t)

	resp := postJSON(t, ts.URL+"/api/train", TrainRequest{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for no inputs, got %d", resp.StatusCode)
	}

	resp = postJSON(t, ts.URL+"/api/train", TrainRequest{
		Inputs: []automapper.TrainingInput{{Source: "stepmania", Data: "not a chart"}},
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422 for unusable charts, got %d", resp.StatusCode)
	}
}

func TestCORSPreflight(t *testing.T) {
	ts := setupTestServer(t)

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/generate", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Preflight failed: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Expected wildcard origin, got %q", got)
	}
}

func TestParseOrigins(t *testing.T) {
	got := parseOrigins("http://a.test, http://b.test")
	if len(got) != 2 || got[1] != "http://b.test" {
		t.Errorf("Unexpected origins: %v", got)
	}
	if got := parseOrigins("*"); len(got) != 1 || got[0] != "*" {
		t.Errorf("Expected wildcard, got %v", got)
	}
}
