package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/ashgrovelabs/tutord/internal/sample"
)

const (
	maxConfigFileSize = 1024 * 1024 // 1MB

	envPrefix = "TUTORD_"
)

// Load builds the configuration from defaults, an optional YAML file, and
// environment variable overrides, in rising precedence.
//
// Environment variables carry the TUTORD_ prefix, are uppercased, and split
// on the first underscore after the prefix into section and field:
//
//	TUTORD_DATABASE_PATH            -> database.path
//	TUTORD_ORCHESTRATOR_SAMPLE_FLOOR -> orchestrator.sample_floor
//	TUTORD_LOGGING_LEVEL            -> logging.level
//
// An empty path means no config file; defaults plus environment apply.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			f, err := os.Open(path)
			if err != nil {
				return nil, fmt.Errorf("failed to open config file: %w", err)
			}
			defer f.Close()

			info, err := f.Stat()
			if err != nil {
				return nil, fmt.Errorf("failed to stat config file: %w", err)
			}
			if info.Size() > maxConfigFileSize {
				return nil, fmt.Errorf("config file too large: %d bytes (max %d)",
					info.Size(), maxConfigFileSize)
			}

			content, err := io.ReadAll(f)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		// TUTORD_ORCHESTRATOR_SAMPLE_FLOOR -> orchestrator.sample_floor
		// Split on the first underscore only; field names keep theirs.
		lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = "tutord.db"
	}

	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9100"
	}

	if cfg.Orchestrator.Interval == 0 {
		cfg.Orchestrator.Interval = 2 * time.Minute
	}
	if cfg.Orchestrator.AccelProbeInterval == 0 {
		cfg.Orchestrator.AccelProbeInterval = 5 * time.Minute
	}
	if cfg.Orchestrator.TrainingTimeout == 0 {
		cfg.Orchestrator.TrainingTimeout = 5 * time.Minute
	}
	if cfg.Orchestrator.SampleFloor == 0 {
		cfg.Orchestrator.SampleFloor = 30
	}
	if cfg.Orchestrator.SampleTarget == 0 {
		cfg.Orchestrator.SampleTarget = 50
	}
	if len(cfg.Orchestrator.Categories) == 0 {
		for _, cat := range sample.AllTaskCategories() {
			cfg.Orchestrator.Categories = append(cfg.Orchestrator.Categories, string(cat))
		}
	}

	def := func(v *int, d int) {
		if *v == 0 {
			*v = d
		}
	}
	def(&cfg.Policy.InitialThreshold, 3)
	def(&cfg.Policy.StandardThreshold, 20)
	def(&cfg.Policy.UrgentSamples, 5)
	def(&cfg.Policy.LowSamples, 10)
	def(&cfg.Policy.TargetSamples, 15)
	def(&cfg.Policy.ForceThreshold, 50)
	if cfg.Policy.UrgentAccuracy == 0 {
		cfg.Policy.UrgentAccuracy = 0.5
	}
	if cfg.Policy.LowAccuracy == 0 {
		cfg.Policy.LowAccuracy = 0.7
	}
	if cfg.Policy.TargetAccuracy == 0 {
		cfg.Policy.TargetAccuracy = 0.85
	}
}
