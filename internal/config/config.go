// Package config provides configuration loading for tutord.
package config

import (
	"fmt"
	"time"

	"github.com/ashgrovelabs/tutord/internal/engine"
	"github.com/ashgrovelabs/tutord/internal/orchestrator"
	"github.com/ashgrovelabs/tutord/internal/policy"
	"github.com/ashgrovelabs/tutord/internal/sample"
)

// Config is the complete daemon configuration.
type Config struct {
	Logging      LoggingConfig      `koanf:"logging"`
	Database     DatabaseConfig     `koanf:"database"`
	NATS         NATSConfig         `koanf:"nats"`
	Metrics      MetricsConfig      `koanf:"metrics"`
	Orchestrator OrchestratorConfig `koanf:"orchestrator"`
	Policy       policy.Config      `koanf:"policy"`
	Trainer      TrainerConfig      `koanf:"trainer"`
	Replenish    ReplenishConfig    `koanf:"replenish"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is "json" or "console".
	Format string `koanf:"format"`
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string `koanf:"path"`
}

// NATSConfig configures the optional accelerator transport. An empty URL
// disables it.
type NATSConfig struct {
	URL string `koanf:"url"`
}

// MetricsConfig configures the Prometheus endpoint. An empty address
// disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// OrchestratorConfig controls the learning-loop cadence.
type OrchestratorConfig struct {
	Interval           time.Duration `koanf:"interval"`
	AccelProbeInterval time.Duration `koanf:"accel_probe_interval"`
	TrainingTimeout    time.Duration `koanf:"training_timeout"`
	SampleFloor        int           `koanf:"sample_floor"`
	SampleTarget       int           `koanf:"sample_target"`
	Categories         []string      `koanf:"categories"`
}

// TrainerConfig bounds training runs.
type TrainerConfig struct {
	MaxSamples        int `koanf:"max_samples"`
	MinSamplesInitial int `koanf:"min_samples_initial"`
	MinSamplesRetrain int `koanf:"min_samples_retrain"`
	PatternCap        int `koanf:"pattern_cap"`
	BucketCap         int `koanf:"bucket_cap"`
	TranslationCap    int `koanf:"translation_cap"`
}

// ReplenishConfig controls synthetic sample generation. A zero seed means
// random seeding.
type ReplenishConfig struct {
	Seed int64 `koanf:"seed"`
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid logging format %q", c.Logging.Format)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if c.Orchestrator.Interval < time.Second {
		return fmt.Errorf("orchestrator interval %s too short", c.Orchestrator.Interval)
	}
	if c.Orchestrator.SampleFloor > c.Orchestrator.SampleTarget {
		return fmt.Errorf("sample floor %d exceeds target %d",
			c.Orchestrator.SampleFloor, c.Orchestrator.SampleTarget)
	}
	for _, name := range c.Orchestrator.Categories {
		if !sample.TaskCategory(name).Valid() {
			return fmt.Errorf("unknown task category %q", name)
		}
	}
	return nil
}

// OrchestratorConfig converts to the orchestrator package's config.
func (c *Config) OrchestratorConfig() orchestrator.Config {
	cfg := orchestrator.Config{
		Interval:           c.Orchestrator.Interval,
		AccelProbeInterval: c.Orchestrator.AccelProbeInterval,
		TrainingTimeout:    c.Orchestrator.TrainingTimeout,
		SampleFloor:        c.Orchestrator.SampleFloor,
		SampleTarget:       c.Orchestrator.SampleTarget,
	}
	for _, name := range c.Orchestrator.Categories {
		cfg.Categories = append(cfg.Categories, sample.TaskCategory(name))
	}
	return cfg
}

// TrainerConfig converts to the engine package's trainer config.
func (c *Config) TrainerConfig() engine.TrainerConfig {
	cfg := engine.DefaultTrainerConfig()
	if c.Trainer.MaxSamples > 0 {
		cfg.MaxSamples = c.Trainer.MaxSamples
	}
	if c.Trainer.MinSamplesInitial > 0 {
		cfg.MinSamplesInitial = c.Trainer.MinSamplesInitial
	}
	if c.Trainer.MinSamplesRetrain > 0 {
		cfg.MinSamplesRetrain = c.Trainer.MinSamplesRetrain
	}
	if c.Trainer.PatternCap > 0 {
		cfg.PatternCap = c.Trainer.PatternCap
	}
	if c.Trainer.BucketCap > 0 {
		cfg.BucketCap = c.Trainer.BucketCap
	}
	if c.Trainer.TranslationCap > 0 {
		cfg.TranslationCap = c.Trainer.TranslationCap
	}
	return cfg
}
