package automapper

import (
	"github.com/himanishpuri/automapper/pkg/automapper/model"
	"github.com/himanishpuri/automapper/pkg/automapper/storage"
	"github.com/himanishpuri/automapper/pkg/automapper/tuning"
)

const (
	DefaultCompactCapacity = 5 << 20
	DefaultModelKey        = "model"
)

type Config struct {
	DBPath     string
	TempDir    string
	SampleRate int
	// CompactCapacity is the largest serialized model tried on the compact
	// store first.
	CompactCapacity int
	ModelKey        string
	Logger          Logger
	CompactStore    storage.Store
	LargeStore      storage.Store
	Tuning          tuning.Tuning
	Expert          *model.TrainedModel
}

type Option func(*Config)

func WithDBPath(path string) Option {
	return func(c *Config) {
		c.DBPath = path
	}
}

func WithTempDir(dir string) Option {
	return func(c *Config) {
		c.TempDir = dir
	}
}

func WithSampleRate(rate int) Option {
	return func(c *Config) {
		c.SampleRate = rate
	}
}

func WithCompactCapacity(bytes int) Option {
	return func(c *Config) {
		c.CompactCapacity = bytes
	}
}

func WithModelKey(key string) Option {
	return func(c *Config) {
		c.ModelKey = key
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

// WithStores replaces the SQLite stores. Either may be nil to keep the
// default for that role.
func WithStores(compact, large storage.Store) Option {
	return func(c *Config) {
		c.CompactStore = compact
		c.LargeStore = large
	}
}

func WithTuning(t tuning.Tuning) Option {
	return func(c *Config) {
		c.Tuning = t
	}
}

// WithExpert swaps the built-in expert knowledge base.
func WithExpert(m *model.TrainedModel) Option {
	return func(c *Config) {
		c.Expert = m
	}
}

func defaultConfig() *Config {
	return &Config{
		DBPath:          storage.DefaultDBFile,
		TempDir:         "/tmp",
		SampleRate:      22050,
		CompactCapacity: DefaultCompactCapacity,
		ModelKey:        DefaultModelKey,
		Tuning:          tuning.Default(),
	}
}
