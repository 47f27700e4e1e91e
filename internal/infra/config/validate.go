package config

import (
	"fmt"
	"strings"
)

// ValidationError accumulates config validation errors.
type ValidationError struct {
	Errors []string
}

func (v *ValidationError) Error() string {
	return "config validation failed:\n  - " + strings.Join(v.Errors, "\n  - ")
}

// HasErrors reports whether any validation errors have been recorded.
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

// Add records a formatted validation error.
func (v *ValidationError) Add(format string, args ...interface{}) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

// Validate checks cfg for structural correctness. It returns a
// *ValidationError when one or more problems are found, so callers see
// every issue at once.
func Validate(cfg *Config) error {
	ve := &ValidationError{}
	validateMongoDB(cfg, ve)
	validateGitHub(cfg, ve)
	validateLimits(cfg, ve)
	validateLogger(cfg, ve)
	validateTracer(cfg, ve)
	if ve.HasErrors() {
		return ve
	}
	return nil
}

func validateMongoDB(cfg *Config, ve *ValidationError) {
	if cfg.MongoDB.URI == "" {
		ve.Add("mongodb.uri must not be empty")
	} else if !strings.HasPrefix(cfg.MongoDB.URI, "mongodb://") && !strings.HasPrefix(cfg.MongoDB.URI, "mongodb+srv://") {
		ve.Add("mongodb.uri must start with mongodb:// or mongodb+srv://")
	}
	if cfg.MongoDB.Database == "" {
		ve.Add("mongodb.database must not be empty")
	}
	if cfg.MongoDB.PoolSize <= 0 {
		ve.Add("mongodb.pool_size must be > 0")
	}
	if cfg.MongoDB.AcquireTimeout <= 0 {
		ve.Add("mongodb.acquire_timeout must be > 0")
	}
	if cfg.MongoDB.CallTimeout <= 0 {
		ve.Add("mongodb.call_timeout must be > 0")
	}
}

func validateGitHub(cfg *Config, ve *ValidationError) {
	if cfg.GitHub.BaseURL == "" {
		ve.Add("github.base_url must not be empty")
	}
	if cfg.GitHub.CallTimeout <= 0 {
		ve.Add("github.call_timeout must be > 0")
	}
	r := cfg.GitHub.Retry
	if r.MaxRateLimitRetries < 0 {
		ve.Add("github.retry.max_rate_limit_retries must be >= 0")
	}
	if r.MaxTransientRetries < 0 {
		ve.Add("github.retry.max_transient_retries must be >= 0")
	}
	if r.BaseBackoff <= 0 {
		ve.Add("github.retry.base_backoff must be > 0")
	}
	if r.MaxBackoff < r.BaseBackoff {
		ve.Add("github.retry.max_backoff must be >= base_backoff")
	}
	if r.MaxRateLimitWait <= 0 {
		ve.Add("github.retry.max_rate_limit_wait must be > 0")
	}
	if r.RequestsPerSecond < 0 {
		ve.Add("github.retry.requests_per_second must be >= 0")
	}
}

func validateLimits(cfg *Config, ve *ValidationError) {
	if cfg.Limits.MaxPageSize <= 0 || cfg.Limits.MaxPageSize > 100 {
		ve.Add("limits.max_page_size must be in 1..100")
	}
	if cfg.Limits.MaxFindLimit <= 0 {
		ve.Add("limits.max_find_limit must be > 0")
	}
	if cfg.Limits.MaxPipelineDepth <= 0 {
		ve.Add("limits.max_pipeline_depth must be > 0")
	}
}

func validateLogger(cfg *Config, ve *ValidationError) {
	switch strings.ToLower(cfg.Logger.Level) {
	case "debug", "info", "warn", "warning", "error", "":
	default:
		ve.Add("logger.level %q is not a valid level", cfg.Logger.Level)
	}
	switch strings.ToLower(cfg.Logger.Format) {
	case "text", "json", "":
	default:
		ve.Add("logger.format must be \"text\" or \"json\"")
	}
	// Stdout carries MCP protocol frames.
	if strings.ToLower(cfg.Logger.Output) == "stdout" {
		ve.Add("logger.output must not be stdout, it is reserved for protocol framing")
	}
}

func validateTracer(cfg *Config, ve *ValidationError) {
	if !cfg.Tracer.Enabled {
		return
	}
	switch cfg.Tracer.Exporter {
	case "stdout", "noop", "":
	default:
		ve.Add("tracer.exporter %q is not supported", cfg.Tracer.Exporter)
	}
}
