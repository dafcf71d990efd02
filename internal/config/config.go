// Package config loads service settings from YAML with environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures every setting of the cardio-intel service.
type Config struct {
	Server          ServerConfig          `yaml:"server"`
	Logging         LoggingConfig         `yaml:"logging"`
	Model           ModelConfig           `yaml:"model"`
	Anomaly         AnomalyConfig         `yaml:"anomaly"`
	Trend           TrendConfig           `yaml:"trend"`
	Baseline        BaselineConfig        `yaml:"baseline"`
	Explainer       ExplainerConfig       `yaml:"explainer"`
	Recommendations RecommendationsConfig `yaml:"recommendations"`
	Outcomes        OutcomesConfig        `yaml:"outcomes"`
	Cache           CacheConfig           `yaml:"cache"`
}

// ServerConfig controls the gRPC and metrics listeners.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
	BatchLimit      int           `yaml:"batchLimit"`
	BatchWorkers    int           `yaml:"batchWorkers"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// ModelConfig locates the scoring artifact and sets the risk tiers.
type ModelConfig struct {
	Path              string        `yaml:"path"`
	LoadTimeout       time.Duration `yaml:"loadTimeout"`
	Eager             bool          `yaml:"eager"`
	ModerateThreshold float64       `yaml:"moderateThreshold"`
	HighThreshold     float64       `yaml:"highThreshold"`
}

// AnomalyConfig tunes anomaly detection.
type AnomalyConfig struct {
	ZThreshold    float64 `yaml:"zThreshold"`
	JumpThreshold float64 `yaml:"jumpThreshold"`
}

// TrendConfig tunes trend forecasting.
type TrendConfig struct {
	ForecastDays int `yaml:"forecastDays"`
}

// BaselineConfig tunes baseline calibration.
type BaselineConfig struct {
	Smoothing    float64 `yaml:"smoothing"`
	OutlierSigma float64 `yaml:"outlierSigma"`
	MinHR        float64 `yaml:"minHR"`
	MaxHR        float64 `yaml:"maxHR"`
}

// ExplainerConfig overrides reference values used for attributions.
type ExplainerConfig struct {
	TypicalValues map[string]float64 `yaml:"typicalValues"`
}

// RecommendationsConfig locates the variant catalog.
type RecommendationsConfig struct {
	CatalogPath       string `yaml:"catalogPath"`
	ExperimentVersion string `yaml:"experimentVersion"`
}

// OutcomesConfig selects where A/B outcomes are written.
type OutcomesConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

// CacheConfig controls memoisation of assessments.
type CacheConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Backend      string        `yaml:"backend"`
	Size         int           `yaml:"size"`
	TTL          time.Duration `yaml:"ttl"`
	URL          string        `yaml:"url"`
	Password     string        `yaml:"password"`
	KeyPrefix    string        `yaml:"keyPrefix"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	MaxRetries   int           `yaml:"maxRetries"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CARDIO_INTEL_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":50061",
			MetricsAddress:  ":2113",
			GracefulTimeout: 10 * time.Second,
			BatchLimit:      500,
			BatchWorkers:    8,
		},
		Logging: LoggingConfig{Level: "info"},
		Model: ModelConfig{
			Path:              "configs/model.example.json",
			LoadTimeout:       15 * time.Second,
			ModerateThreshold: 0.50,
			HighThreshold:     0.80,
		},
		Anomaly:         AnomalyConfig{ZThreshold: 2.0, JumpThreshold: 40},
		Trend:           TrendConfig{ForecastDays: 14},
		Baseline:        BaselineConfig{Smoothing: 0.3, OutlierSigma: 1.5, MinHR: 40, MaxHR: 120},
		Recommendations: RecommendationsConfig{ExperimentVersion: "v1"},
		Outcomes:        OutcomesConfig{Driver: "memory", Path: "data/outcomes.db"},
		Cache: CacheConfig{
			Backend:      "lru",
			Size:         4096,
			TTL:          5 * time.Minute,
			KeyPrefix:    "cardio-intel:",
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
			MaxRetries:   2,
		},
	}
}

// Validate rejects settings that would make the components misbehave.
func (c Config) Validate() error {
	if c.Model.ModerateThreshold <= 0 || c.Model.HighThreshold > 1 || c.Model.ModerateThreshold > c.Model.HighThreshold {
		return fmt.Errorf("model thresholds must satisfy 0 < moderate <= high <= 1, got %.2f/%.2f",
			c.Model.ModerateThreshold, c.Model.HighThreshold)
	}
	if c.Anomaly.ZThreshold < 1 || c.Anomaly.ZThreshold > 4 {
		return fmt.Errorf("anomaly.zThreshold must be within [1, 4], got %.2f", c.Anomaly.ZThreshold)
	}
	if c.Trend.ForecastDays < 7 || c.Trend.ForecastDays > 30 {
		return fmt.Errorf("trend.forecastDays must be within [7, 30], got %d", c.Trend.ForecastDays)
	}
	switch strings.ToLower(c.Outcomes.Driver) {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("outcomes.driver must be memory or sqlite, got %q", c.Outcomes.Driver)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CARDIO_INTEL_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("CARDIO_INTEL_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("CARDIO_INTEL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CARDIO_INTEL_LOG_FORMAT"); v != "" {
		cfg.Logging.JSON = strings.EqualFold(v, "json")
	}
	if v := os.Getenv("CARDIO_INTEL_MODEL_PATH"); v != "" {
		cfg.Model.Path = v
	}
	if v := os.Getenv("CARDIO_INTEL_MODEL_LOAD_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Model.LoadTimeout = d
		}
	}
	if v := os.Getenv("CARDIO_INTEL_MODEL_EAGER"); v != "" {
		cfg.Model.Eager = parseBool(v)
	}
	if v := os.Getenv("CARDIO_INTEL_CATALOG_PATH"); v != "" {
		cfg.Recommendations.CatalogPath = v
	}
	if v := os.Getenv("CARDIO_INTEL_EXPERIMENT_VERSION"); v != "" {
		cfg.Recommendations.ExperimentVersion = v
	}
	if v := os.Getenv("CARDIO_INTEL_OUTCOMES_DRIVER"); v != "" {
		cfg.Outcomes.Driver = v
	}
	if v := os.Getenv("CARDIO_INTEL_OUTCOMES_PATH"); v != "" {
		cfg.Outcomes.Path = v
	}
	if v := os.Getenv("CARDIO_INTEL_CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = parseBool(v)
	}
	if v := os.Getenv("CARDIO_INTEL_CACHE_BACKEND"); v != "" {
		cfg.Cache.Backend = v
	}
	if v := os.Getenv("CARDIO_INTEL_CACHE_URL"); v != "" {
		cfg.Cache.URL = v
	}
	if v := os.Getenv("CARDIO_INTEL_CACHE_PASSWORD"); v != "" {
		cfg.Cache.Password = v
	}
	if v := os.Getenv("CARDIO_INTEL_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Cache.Size = n
		}
	}
	if v := os.Getenv("CARDIO_INTEL_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.TTL = d
		}
	}
}

func parseBool(v string) bool {
	return strings.EqualFold(v, "true") || v == "1"
}
