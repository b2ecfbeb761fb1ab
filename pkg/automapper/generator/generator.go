// Package generator runs the offline chart pipeline: feature extraction,
// structure analysis, candidate selection, zone assignment and
// post-processing. Cancellation is checked between stages.
package generator

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/himanishpuri/automapper/pkg/automapper/candidates"
	"github.com/himanishpuri/automapper/pkg/automapper/chart"
	"github.com/himanishpuri/automapper/pkg/automapper/features"
	"github.com/himanishpuri/automapper/pkg/automapper/model"
	"github.com/himanishpuri/automapper/pkg/automapper/postprocess"
	"github.com/himanishpuri/automapper/pkg/automapper/structure"
	"github.com/himanishpuri/automapper/pkg/automapper/tuning"
	"github.com/himanishpuri/automapper/pkg/automapper/zones"
	"github.com/himanishpuri/automapper/pkg/logger"
)

// signals shorter than this produce no notes
const MinDurationMs = 500.0

// Logger is the subset of logging the pipeline needs.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
}

// Generator holds what stays fixed across runs. Model may be nil; Expert
// defaults to the built-in knowledge base.
type Generator struct {
	Model  *model.TrainedModel
	Expert *model.TrainedModel
	Tuning tuning.Tuning
	Log    Logger
}

func New(m *model.TrainedModel) *Generator {
	return &Generator{
		Model:  m,
		Expert: model.NewExpertKnowledgeBase(),
		Tuning: tuning.Default(),
		Log:    logger.GetLogger().WithPrefix("generator"),
	}
}

// Result is the output of one run along with what the stages observed.
type Result struct {
	Notes      []chart.Note
	BPM        float64
	DurationMs float64
	Onsets     int
	Sections   []structure.Section
	Candidates int
	Accepted   int
	// Strategies counts zones produced by each strategy in the chain.
	Strategies map[string]int
}

// Generate returns the final note list.
func (g *Generator) Generate(ctx context.Context, sig features.Signal, cfg Config) ([]chart.Note, error) {
	res, err := g.Run(ctx, sig, cfg)
	if err != nil {
		return nil, err
	}
	return res.Notes, nil
}

// Run executes every stage. Malformed or short audio yields an empty
// result; the only error is cancellation.
func (g *Generator) Run(ctx context.Context, sig features.Signal, cfg Config) (*Result, error) {
	cfg = cfg.Normalize()
	log := g.log()
	res := &Result{Notes: []chart.Note{}, BPM: cfg.BPM, DurationMs: sig.DurationMs()}

	if sig.SampleRate <= 0 || len(sig.Samples) < features.SpectralWindowSize || res.DurationMs < MinDurationMs {
		log.Warnf("audio too short to chart (%d samples at %d Hz)", len(sig.Samples), sig.SampleRate)
		return res, nil
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	// features
	var (
		onsets   []features.Onset
		energy   []features.EnergySample
		spectral []features.SpectralFrame
		wg       sync.WaitGroup
	)
	wg.Add(3)
	go func() { defer wg.Done(); onsets = features.DetectOnsets(sig) }()
	go func() { defer wg.Done(); energy = features.AnalyzeEnergy(sig) }()
	go func() { defer wg.Done(); spectral = features.AnalyzeSpectral(sig, cfg.SpectralMode) }()
	wg.Wait()
	res.Onsets = len(onsets)
	log.Infof("features: %d onsets, %d energy samples, %d spectral frames (%s)", len(onsets), len(energy), len(spectral), cfg.SpectralMode)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cfg.BPM <= 0 {
		cfg.BPM = features.EstimateBPM(onsets)
		log.Infof("estimated tempo: %.0f BPM", cfg.BPM)
	}
	res.BPM = cfg.BPM

	// structure
	phrases := structure.GroupIntoPhrases(onsets, energy)
	res.Sections = structure.AnalyzeSongStructure(energy, onsets, res.DurationMs)
	plan := structure.PlanDistribution(res.Sections, cfg.Difficulty)
	log.Infof("structure: %d phrases, %d sections, target %d notes", len(phrases), len(res.Sections), plan.Total)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// candidates
	subdivisions := candidates.GridSubdivisions(cfg.BPM, tuning.BaseNotesPerSecond(cfg.Difficulty))
	beats := features.DetectSubdividedBeats(cfg.BPM, res.DurationMs, cfg.OffsetMs, subdivisions)
	cands := candidates.SmartCombine(onsets, beats, energy)
	accepted := candidates.SmartFilterWithStructure(cands, plan, candidates.FilterConfig{
		Difficulty:        cfg.Difficulty,
		MinNoteIntervalMs: cfg.MinNoteIntervalMs,
		DurationMs:        res.DurationMs,
		Tuning:            g.Tuning,
	}, rng)
	res.Candidates, res.Accepted = len(cands), len(accepted)
	log.Infof("candidates: %d combined (grid 1/%d), %d accepted", len(cands), subdivisions, len(accepted))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// zones
	useModel := cfg.UseTrainedModel && !g.Model.Empty()
	if cfg.UseTrainedModel && !useModel {
		log.Warnf("no trained model loaded; using expert tables")
	}
	zcfg := zones.Config{
		Expert:          g.Expert,
		MaimaiStyle:     cfg.MaimaiStyle,
		MaimaiIntensity: cfg.MaimaiIntensity,
		Tuning:          g.Tuning,
	}
	if useModel {
		zcfg.Model = g.Model
	}
	engine := zones.NewEngine(zcfg, rng)

	notes := make([]chart.Note, 0, len(accepted))
	for _, c := range accepted {
		zc := zones.Context{Time: c.Time, Energy: c.Energy}
		zc.Spectral, zc.HasSpectral = features.SpectralAt(spectral, c.Time)
		notes = append(notes, chart.Note{Time: c.Time, Zone: engine.Assign(zc)})
	}
	res.Strategies = engine.Hits()
	log.Infof("zones: %d assigned via %v", len(notes), engine.Strategies())
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// post-processing
	opts := postprocess.Options{
		Difficulty:   cfg.Difficulty,
		BPM:          cfg.BPM,
		OffsetMs:     cfg.OffsetMs,
		Onsets:       onsets,
		Phrases:      phrases,
		LinearSource: useModel && g.Model.LinearSource,
		Tuning:       g.Tuning,
		Rng:          rng,
	}
	for _, pass := range postprocess.Passes() {
		notes = pass.Run(notes, opts)
		log.Debugf("%s pass: %d notes", pass.Name, len(notes))
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	res.Notes = notes
	log.Infof("generated %d notes at difficulty %d", len(notes), cfg.Difficulty)
	return res, nil
}

func (g *Generator) log() Logger {
	if g.Log != nil {
		return g.Log
	}
	return logger.GetLogger()
}
