// Package config loads samarth-engine configuration.
package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for samarth-engine.
// Configuration can come from YAML file (config.yaml) or environment
// variables. Environment variables always override YAML values.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// DataDir is the directory scanned for dataset CSV files and the
	// datasets.yaml manifest.
	DataDir string `yaml:"data_dir" env:"DATA_DIR" env-default:"./data"`

	// CORSOrigins are the allowed origins for the question endpoint.
	CORSOrigins []string `yaml:"cors_origins" env:"CORS_ORIGINS" env-default:"http://localhost:3000"`

	// Query holds the planner policy knobs.
	Query QueryConfig `yaml:"query"`
}

// QueryConfig holds the documented planner policy choices: ranking and
// relative-range defaults, and the metric-name keyword lists that decide
// whether a trend aggregates by sum (volume-like metrics) or mean (rate-like
// metrics).
type QueryConfig struct {
	DefaultTopN      int    `yaml:"default_top_n" env:"QUERY_DEFAULT_TOP_N" env-default:"3"`
	DefaultLastYears int    `yaml:"default_last_years" env:"QUERY_DEFAULT_LAST_YEARS" env-default:"5"`
	DefaultDataset   string `yaml:"default_dataset" env:"QUERY_DEFAULT_DATASET" env-default:"crop_production"`

	SumMetricKeywords  []string `yaml:"sum_metric_keywords" env:"QUERY_SUM_METRIC_KEYWORDS" env-default:"production,tonnes,quantity,area,volume"`
	RateMetricKeywords []string `yaml:"rate_metric_keywords" env:"QUERY_RATE_METRIC_KEYWORDS" env-default:"temp,temperature,rainfall,rain,yield,rate,index,percent"`
}

// Load reads configuration from config.yaml with environment variable
// overrides. The version parameter is injected at build time and set on the
// returned Config.
func Load(version string) (*Config, error) {
	return LoadFrom("config.yaml", version)
}

// LoadFrom reads configuration from the given YAML file. Used by tests to
// point at a temp file.
func LoadFrom(path, version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}
	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return cfg, nil
}
