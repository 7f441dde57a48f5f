package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	etlerrors "github.com/BartekS5/irisetl/pkg/errors"
)

// Settings are the pipeline tunables. Zero values are replaced by defaults.
type Settings struct {
	ObjectKey     string   `yaml:"object_key"`
	LocalPath     string   `yaml:"local_path"`
	SyntheticRows int      `yaml:"synthetic_rows"`
	TestRatio     float64  `yaml:"test_ratio"`
	Seed          *uint64  `yaml:"seed"`
	BatchSize     int      `yaml:"batch_size"`
	Timeouts      Timeouts `yaml:"timeouts"`
}

// Timeouts bound every blocking I/O call.
type Timeouts struct {
	Connect     time.Duration `yaml:"connect"`
	ObjectStore time.Duration `yaml:"object_store"`
	Statement   time.Duration `yaml:"statement"`
}

const (
	DefaultObjectKey     = "iris.parquet"
	DefaultLocalPath     = "data/output/iris.parquet"
	DefaultSyntheticRows = 200
	DefaultTestRatio     = 0.3
	DefaultSeed          = uint64(42)
	DefaultBatchSize     = 1000
)

// DefaultSettings returns the tunables used when no file is given.
func DefaultSettings() Settings {
	s := Settings{}
	s.applyDefaults()
	return s
}

// LoadSettings reads the YAML tunables file at filePath. An empty path yields
// the defaults.
func LoadSettings(filePath string) (Settings, error) {
	if filePath == "" {
		return DefaultSettings(), nil
	}

	bytes, err := os.ReadFile(filePath)
	if err != nil {
		return Settings{}, etlerrors.Wrapf(err, "failed to read settings file '%s'", filePath)
	}

	var s Settings
	if err := yaml.Unmarshal(bytes, &s); err != nil {
		return Settings{}, etlerrors.Wrapf(err, "failed to parse settings file '%s'", filePath)
	}
	s.applyDefaults()

	if err := s.Validate(); err != nil {
		return Settings{}, etlerrors.Wrapf(err, "settings file '%s'", filePath)
	}
	return s, nil
}

// SeedValue returns the configured seed or the default.
func (s Settings) SeedValue() uint64 {
	if s.Seed == nil {
		return DefaultSeed
	}
	return *s.Seed
}

func (s Settings) Validate() error {
	if s.SyntheticRows < 1 {
		return etlerrors.Newf("synthetic_rows must be >= 1, got %d", s.SyntheticRows)
	}
	if s.TestRatio <= 0 || s.TestRatio >= 1 {
		return etlerrors.Newf("test_ratio must be in (0,1), got %v", s.TestRatio)
	}
	if s.BatchSize < 1 {
		return etlerrors.Newf("batch_size must be >= 1, got %d", s.BatchSize)
	}
	return nil
}

func (s *Settings) applyDefaults() {
	if s.ObjectKey == "" {
		s.ObjectKey = DefaultObjectKey
	}
	if s.LocalPath == "" {
		s.LocalPath = DefaultLocalPath
	}
	if s.SyntheticRows == 0 {
		s.SyntheticRows = DefaultSyntheticRows
	}
	if s.TestRatio == 0 {
		s.TestRatio = DefaultTestRatio
	}
	if s.BatchSize == 0 {
		s.BatchSize = DefaultBatchSize
	}
	if s.Timeouts.Connect == 0 {
		s.Timeouts.Connect = 10 * time.Second
	}
	if s.Timeouts.ObjectStore == 0 {
		s.Timeouts.ObjectStore = 60 * time.Second
	}
	if s.Timeouts.Statement == 0 {
		s.Timeouts.Statement = 30 * time.Second
	}
}
