// Package config holds the decider's tunables and their YAML form.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every Validate failure together with the offending key.
var ErrInvalid = errors.New("config: invalid value")

// EnvLogLevel overrides Logging.Level when set.
const EnvLogLevel = "LVSLAM_LOG_LEVEL"

// Config is the complete decider configuration.
type Config struct {
	Registration RegistrationConfig `yaml:"registration"`
	Partitions   PartitionsConfig   `yaml:"partitions"`
	LoopClosure  LoopClosureConfig  `yaml:"loop_closure"`
	Projection   ProjectionConfig   `yaml:"projection"`
	Dataset      DatasetConfig      `yaml:"dataset"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// RegistrationConfig drives the scan-matching registrar.
type RegistrationConfig struct {
	GoodnessThreshold float64 `yaml:"goodness_threshold"`
	Window            int     `yaml:"window"`
}

// PartitionsConfig drives map partitioning.
type PartitionsConfig struct {
	FullUpdatePeriod int     `yaml:"full_update_period"`
	CellSize         float64 `yaml:"cell_size"`
}

// LoopClosureConfig drives candidate detection and the consistency check.
type LoopClosureConfig struct {
	MinNodeIDDiff     int     `yaml:"min_node_id_diff"`
	GoodnessThreshold float64 `yaml:"goodness_threshold"`
	MaxHypotheses     int     `yaml:"max_hypotheses"`
	MinHypotheses     int     `yaml:"min_hypotheses"`
	EigenRatio        float64 `yaml:"eigen_ratio"`
	FallbackVariance  float64 `yaml:"fallback_variance"`
}

// ProjectionConfig drives the uncertainty projector.
type ProjectionConfig struct {
	Interval int     `yaml:"interval"`
	MinNodes int     `yaml:"min_nodes"`
	Prior    float64 `yaml:"prior"`
}

// DatasetConfig drives the usable-dataset classifier.
type DatasetConfig struct {
	InvalidThreshold int `yaml:"invalid_threshold"`
}

// LoggingConfig selects the zap level used by the CLI.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the documented defaults.
func Default() *Config {
	return &Config{
		Registration: RegistrationConfig{
			GoodnessThreshold: 0.75,
			Window:            10,
		},
		Partitions: PartitionsConfig{
			FullUpdatePeriod: 50,
			CellSize:         3.0,
		},
		LoopClosure: LoopClosureConfig{
			MinNodeIDDiff:     30,
			GoodnessThreshold: 0.75,
			MaxHypotheses:     40,
			MinHypotheses:     2,
			EigenRatio:        2.0,
			FallbackVariance:  0.01,
		},
		Projection: ProjectionConfig{
			Interval: 60,
			MinNodes: 5,
			Prior:    1e-4,
		},
		Dataset: DatasetConfig{
			InvalidThreshold: 20,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
// The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	if err = cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes c as YAML, creating the parent directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err = os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

func (c *Config) applyEnvOverrides() {
	if lvl := os.Getenv(EnvLogLevel); lvl != "" {
		c.Logging.Level = lvl
	}
}

// ZapLevel parses Logging.Level.
func (c *Config) ZapLevel() (zapcore.Level, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return lvl, fmt.Errorf("logging.level %q: %w", c.Logging.Level, ErrInvalid)
	}

	return lvl, nil
}

// Validate checks every value's range.
func (c *Config) Validate() error {
	checks := []struct {
		key string
		ok  bool
	}{
		{"registration.goodness_threshold", inUnit(c.Registration.GoodnessThreshold)},
		{"registration.window", c.Registration.Window >= 1},
		{"partitions.full_update_period", c.Partitions.FullUpdatePeriod >= 1},
		{"partitions.cell_size", c.Partitions.CellSize > 0},
		{"loop_closure.min_node_id_diff", c.LoopClosure.MinNodeIDDiff >= 0},
		{"loop_closure.goodness_threshold", inUnit(c.LoopClosure.GoodnessThreshold)},
		{"loop_closure.min_hypotheses", c.LoopClosure.MinHypotheses >= 2},
		{"loop_closure.max_hypotheses", c.LoopClosure.MaxHypotheses >= c.LoopClosure.MinHypotheses},
		{"loop_closure.eigen_ratio", c.LoopClosure.EigenRatio >= 1},
		{"loop_closure.fallback_variance", c.LoopClosure.FallbackVariance > 0},
		{"projection.interval", c.Projection.Interval >= 1},
		{"projection.min_nodes", c.Projection.MinNodes >= 1},
		{"projection.prior", c.Projection.Prior > 0},
		{"dataset.invalid_threshold", c.Dataset.InvalidThreshold >= 0},
	}
	for _, ch := range checks {
		if !ch.ok {
			return fmt.Errorf("%s: %w", ch.key, ErrInvalid)
		}
	}
	if _, err := c.ZapLevel(); err != nil {
		return err
	}

	return nil
}

func inUnit(v float64) bool { return v >= 0 && v <= 1 }
