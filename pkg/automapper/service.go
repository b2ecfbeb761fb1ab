// Package automapper generates six-zone rhythm charts from audio and learns
// zone patterns from existing charts.
package automapper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/himanishpuri/automapper/pkg/automapper/audio"
	"github.com/himanishpuri/automapper/pkg/automapper/chart"
	"github.com/himanishpuri/automapper/pkg/automapper/features"
	"github.com/himanishpuri/automapper/pkg/automapper/generator"
	"github.com/himanishpuri/automapper/pkg/automapper/model"
	"github.com/himanishpuri/automapper/pkg/automapper/storage"
	"github.com/himanishpuri/automapper/pkg/logger"
	"github.com/himanishpuri/automapper/pkg/utils"
)

// namedStore tags a store with its role for logs and results.
type namedStore struct {
	name string
	storage.Store
}

// mapperService is the default implementation of the Service interface.
type mapperService struct {
	config  *Config
	log     Logger
	db      *storage.DBClient
	compact namedStore
	large   namedStore
	trainer model.Trainer
	current atomic.Pointer[model.TrainedModel]
}

func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger().WithPrefix("automapper")
	}
	if cfg.Expert == nil {
		cfg.Expert = model.NewExpertKnowledgeBase()
	}

	s := &mapperService{config: cfg, log: cfg.Logger}

	if cfg.CompactStore == nil || cfg.LargeStore == nil {
		db, err := storage.NewDBClientWithPath(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage: %w", err)
		}
		s.db = db
	}

	s.compact = namedStore{storage.CompactStore, cfg.CompactStore}
	if s.compact.Store == nil {
		s.compact.Store = s.db.Store(storage.CompactStore, cfg.CompactCapacity)
	}
	s.large = namedStore{storage.LargeStore, cfg.LargeStore}
	if s.large.Store == nil {
		s.large.Store = s.db.Store(storage.LargeStore, 0)
	}

	return s, nil
}

func (s *mapperService) generator() *generator.Generator {
	return &generator.Generator{
		Model:  s.current.Load(),
		Expert: s.config.Expert,
		Tuning: s.config.Tuning,
		Log:    s.log,
	}
}

func (s *mapperService) Generate(ctx context.Context, sig features.Signal, cfg GenerateConfig) ([]chart.Note, error) {
	return s.generator().Generate(ctx, sig, cfg)
}

func (s *mapperService) Analyze(ctx context.Context, sig features.Signal, cfg GenerateConfig) (*generator.Result, error) {
	return s.generator().Run(ctx, sig, cfg)
}

func (s *mapperService) GenerateFromFile(ctx context.Context, path string, cfg GenerateConfig) (*chart.Chart, error) {
	s.log.Infof("Generating chart for: %s", path)

	wavPath := path
	if !audio.IsWAV(path) {
		converted, err := audio.ConvertToMonoWAV(ctx, path, s.config.TempDir, audio.ConvertWAVConfig{
			SampleRate: s.config.SampleRate,
		})
		if err != nil {
			return nil, fmt.Errorf("audio conversion failed: %w", err)
		}
		defer os.Remove(converted)
		wavPath = converted
	}

	sig, err := audio.ReadSignal(wavPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read WAV file: %w", err)
	}

	res, err := s.Analyze(ctx, sig, cfg)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if meta, err := audio.ReadMetadata(ctx, path); err == nil && meta.ChartTitle() != "" {
		title = meta.ChartTitle()
	}

	return &chart.Chart{
		Notes: res.Notes,
		Meta: chart.Meta{
			Difficulty: cfg.Normalize().Difficulty,
			BPM:        res.BPM,
			Title:      title,
		},
	}, nil
}

// Train converts every input, skipping those that fail, and installs the
// resulting model. The previous model stays when nothing is usable.
func (s *mapperService) Train(ctx context.Context, inputs []TrainingInput) (*model.TrainedModel, error) {
	s.log.Infof("Training on %d inputs", len(inputs))

	charts := make([]chart.Chart, 0, len(inputs))
	for i, in := range inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c, err := in.toChart()
		if err != nil {
			s.log.Warnf("Skipping training input %d (%s): %v", i, in.Source, err)
			continue
		}
		charts = append(charts, *c)
	}

	m, stats := s.trainer.Train(charts)
	if stats.Skipped > 0 {
		s.log.Warnf("Skipped %d charts with fewer than %d notes", stats.Skipped, model.MinTrainingNotes)
	}
	if stats.Used == 0 {
		return nil, ErrNoTrainingData
	}

	s.current.Store(m)
	s.log.Infof("Trained model %s from %d charts", m.ID, stats.Used)
	return m, nil
}

func (s *mapperService) Model() *model.TrainedModel {
	return s.current.Load()
}

// SaveModel writes the current model to the store its size fits, falling
// back to the other store on failure. The copy in the store not written to
// is removed so a later load cannot pick up an older model.
func (s *mapperService) SaveModel(ctx context.Context) (SaveResult, error) {
	m := s.current.Load()
	if m == nil {
		return SaveResult{}, ErrNoModel
	}

	blob, err := model.Marshal(m)
	if err != nil {
		return SaveResult{}, fmt.Errorf("failed to serialize model: %w", err)
	}

	first, second := s.compact, s.large
	if len(blob) > s.config.CompactCapacity {
		first, second = second, first
	}

	firstErr := first.Put(ctx, s.config.ModelKey, blob)
	if firstErr == nil {
		return s.saved(ctx, m, len(blob), first, second), nil
	}
	s.log.Warnf("Saving to %s store failed: %v; trying %s", first.name, firstErr, second.name)

	secondErr := second.Put(ctx, s.config.ModelKey, blob)
	if secondErr == nil {
		return s.saved(ctx, m, len(blob), second, first), nil
	}

	s.log.Errorf("Both stores rejected model %s; keeping it in memory", m.ID)
	return SaveResult{}, fmt.Errorf("%w: %w", ErrPersistFailed, errors.Join(firstErr, secondErr))
}

func (s *mapperService) saved(ctx context.Context, m *model.TrainedModel, size int, to, stale namedStore) SaveResult {
	s.log.Infof("Saved model %s (%s) to %s store", m.ID, humanize.Bytes(uint64(size)), to.name)
	if err := stale.Delete(ctx, s.config.ModelKey); err != nil {
		s.log.Warnf("Removing the old copy from %s store failed: %v", stale.name, err)
	}
	return SaveResult{Store: to.name, Bytes: size}
}

// LoadModel reads the model from both stores and installs the newest one.
// An unreadable store is skipped as long as the other yields a model.
func (s *mapperService) LoadModel(ctx context.Context) (*model.TrainedModel, error) {
	var (
		best *model.TrainedModel
		from namedStore
		size int
		errs []error
	)
	for _, st := range []namedStore{s.compact, s.large} {
		blob, err := st.Get(ctx, s.config.ModelKey)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			s.log.Warnf("Reading %s store failed: %v", st.name, err)
			errs = append(errs, err)
			continue
		}

		m, err := model.Unmarshal(blob)
		if err != nil {
			s.log.Warnf("Model in %s store is unreadable: %v", st.name, err)
			errs = append(errs, err)
			continue
		}

		if best == nil || m.CreatedAt.After(best.CreatedAt) {
			best, from, size = m, st, len(blob)
		}
	}

	if best != nil {
		s.current.Store(best)
		s.log.Infof("Loaded model %s (%s) from %s store", best.ID, humanize.Bytes(uint64(size)), from.name)
		return best, nil
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to load model: %w", errors.Join(errs...))
	}
	return nil, ErrNoModel
}

func (s *mapperService) ExportModel(path string) error {
	m := s.current.Load()
	if m == nil {
		return ErrNoModel
	}
	blob, err := model.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to serialize model: %w", err)
	}
	if err := utils.WriteFileAtomic(path, blob); err != nil {
		return err
	}
	s.log.Infof("Exported model %s to %s", m.ID, path)
	return nil
}

func (s *mapperService) ImportModel(path string) (*model.TrainedModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := model.ReadJSON(f)
	if err != nil {
		return nil, fmt.Errorf("failed to import %s: %w", path, err)
	}
	s.current.Store(m)
	s.log.Infof("Imported model %s from %s", m.ID, path)
	return m, nil
}

// Close releases all resources held by the service.
func (s *mapperService) Close() error {
	return errors.Join(s.compact.Close(), s.large.Close(), s.db.Close())
}
