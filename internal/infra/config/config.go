package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	MongoDB MongoDBConfig `yaml:"mongodb"`
	GitHub  GitHubConfig  `yaml:"github"`
	Limits  LimitsConfig  `yaml:"limits"`
	Logger  LoggerConfig  `yaml:"logger"`
	Tracer  TracerConfig  `yaml:"tracer"`
}

// MongoDBConfig holds database connector settings.
type MongoDBConfig struct {
	URI               string        `yaml:"uri"`
	Database          string        `yaml:"database"`
	DefaultCollection string        `yaml:"default_collection"`
	PoolSize          int           `yaml:"pool_size"`
	AcquireTimeout    time.Duration `yaml:"acquire_timeout"`
	CallTimeout       time.Duration `yaml:"call_timeout"`
}

// GitHubConfig holds REST connector settings.
type GitHubConfig struct {
	BaseURL     string        `yaml:"base_url"`
	Token       string        `yaml:"token"`
	Username    string        `yaml:"username"`
	CallTimeout time.Duration `yaml:"call_timeout"`
	Retry       RetryConfig   `yaml:"retry"`
}

// RetryConfig bounds the governor's retry and wait behavior.
type RetryConfig struct {
	// MaxRateLimitRetries is the retry budget for rate-limited responses.
	MaxRateLimitRetries int `yaml:"max_rate_limit_retries"`
	// MaxTransientRetries is the retry budget for network/5xx failures.
	MaxTransientRetries int `yaml:"max_transient_retries"`
	// BaseBackoff seeds the exponential backoff schedule.
	BaseBackoff time.Duration `yaml:"base_backoff"`
	// MaxBackoff caps a single backoff sleep.
	MaxBackoff time.Duration `yaml:"max_backoff"`
	// MaxRateLimitWait caps how long a call may sleep waiting for quota
	// reset before failing instead.
	MaxRateLimitWait time.Duration `yaml:"max_rate_limit_wait"`
	// RequestsPerSecond smooths outbound call rate. 0 disables.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// LimitsConfig bounds response payloads and execution cost.
type LimitsConfig struct {
	MaxPageSize      int `yaml:"max_page_size"`
	MaxFindLimit     int `yaml:"max_find_limit"`
	MaxPipelineDepth int `yaml:"max_pipeline_depth"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
	Output string `yaml:"output"` // "stderr", "stdout", or a file path
}

// TracerConfig holds tracing settings.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"` // "stdout" or "noop"
}

// Defaults returns a Config populated with sane defaults.
func Defaults() *Config {
	return &Config{
		MongoDB: MongoDBConfig{
			URI:               "mongodb://localhost:27017",
			Database:          "toolbridge",
			DefaultCollection: "documents",
			PoolSize:          4,
			AcquireTimeout:    5 * time.Second,
			CallTimeout:       30 * time.Second,
		},
		GitHub: GitHubConfig{
			BaseURL:     "https://api.github.com",
			CallTimeout: 30 * time.Second,
			Retry: RetryConfig{
				MaxRateLimitRetries: 3,
				MaxTransientRetries: 3,
				BaseBackoff:         500 * time.Millisecond,
				MaxBackoff:          8 * time.Second,
				MaxRateLimitWait:    60 * time.Second,
				RequestsPerSecond:   5,
			},
		},
		Limits: LimitsConfig{
			MaxPageSize:      100,
			MaxFindLimit:     1000,
			MaxPipelineDepth: 20,
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Tracer: TracerConfig{
			Enabled:  false,
			Exporter: "noop",
		},
	}
}

// Load reads the YAML config at path, applies environment overrides, and
// validates the result. A missing file is not an error: defaults plus
// environment are enough to run.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			ApplyEnvOverrides(cfg)
			if err := Validate(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	ApplyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides applies environment variables over cfg. Credentials are
// expected to arrive this way; the YAML file should not carry secrets.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MONGODB_URI"); v != "" {
		cfg.MongoDB.URI = v
	}
	if v := os.Getenv("MONGODB_DATABASE"); v != "" {
		cfg.MongoDB.Database = v
	}
	if v := os.Getenv("MONGODB_COLLECTION"); v != "" {
		cfg.MongoDB.DefaultCollection = v
	}
	if v := os.Getenv("MONGODB_POOL_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MongoDB.PoolSize = n
		}
	}
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		cfg.GitHub.Token = v
	}
	if v := os.Getenv("GITHUB_USERNAME"); v != "" {
		cfg.GitHub.Username = v
	}
	if v := os.Getenv("GITHUB_BASE_URL"); v != "" {
		cfg.GitHub.BaseURL = v
	}
	if v := os.Getenv("TOOLBRIDGE_LOG_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("TOOLBRIDGE_LOG_FORMAT"); v != "" {
		cfg.Logger.Format = v
	}
	if v := os.Getenv("TOOLBRIDGE_TRACER_ENABLED"); v == "true" {
		cfg.Tracer.Enabled = true
		if cfg.Tracer.Exporter == "" || cfg.Tracer.Exporter == "noop" {
			cfg.Tracer.Exporter = "stdout"
		}
	}
}
