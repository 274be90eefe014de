package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "pricing.source").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validatePricing(&cfg.Pricing)...)
	errs = append(errs, validateTokens(&cfg.Tokens)...)
	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validatePricing validates pricing configuration.
func validatePricing(cfg *PricingConfig) []FieldError {
	var errs []FieldError

	switch cfg.Source {
	case SourceEmbedded, SourceRemote:
	case SourceCSV:
		if cfg.CSVPath == "" {
			errs = append(errs, FieldError{
				Field:   "pricing.csv_path",
				Message: "csv path is required when source is 'csv'",
			})
		}
	case SourceSnapshot:
		if cfg.Snapshot.Path == "" {
			errs = append(errs, FieldError{
				Field:   "pricing.snapshot.path",
				Message: "snapshot path is required when source is 'snapshot'",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "pricing.source",
			Message: fmt.Sprintf("invalid source %q: must be 'embedded', 'csv', 'remote', or 'snapshot'", cfg.Source),
		})
	}

	if cfg.RemoteURL != "" {
		u, err := url.Parse(cfg.RemoteURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, FieldError{
				Field:   "pricing.remote_url",
				Message: fmt.Sprintf("invalid URL %q: must be an absolute http or https URL", cfg.RemoteURL),
			})
		}
	}

	if cfg.FetchTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "pricing.fetch_timeout",
			Message: "fetch timeout must be positive",
		})
	}

	if cfg.RefreshSchedule != "" {
		if _, err := cron.ParseStandard(cfg.RefreshSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "pricing.refresh_schedule",
				Message: fmt.Sprintf("invalid cron expression %q: %v", cfg.RefreshSchedule, err),
			})
		}
	}

	if cfg.Watch && cfg.CSVPath == "" {
		errs = append(errs, FieldError{
			Field:   "pricing.watch",
			Message: "watch requires pricing.csv_path",
		})
	}

	if cfg.MaxStaleness < 0 {
		errs = append(errs, FieldError{
			Field:   "pricing.max_staleness",
			Message: "max staleness must be non-negative",
		})
	}

	if cfg.DiscrepancyThreshold < 0 {
		errs = append(errs, FieldError{
			Field:   "pricing.discrepancy_threshold",
			Message: "discrepancy threshold must be non-negative",
		})
	}

	if cfg.Snapshot.Keep < 0 {
		errs = append(errs, FieldError{
			Field:   "pricing.snapshot.keep",
			Message: "keep must be non-negative",
		})
	}
	if cfg.Snapshot.Enabled && cfg.Snapshot.Path == "" {
		errs = append(errs, FieldError{
			Field:   "pricing.snapshot.path",
			Message: "snapshot path is required when snapshots are enabled",
		})
	}

	return errs
}

// validateTokens validates tokenizer configuration.
func validateTokens(cfg *TokensConfig) []FieldError {
	var errs []FieldError

	validTokenizers := map[string]bool{"bpe": true, "heuristic": true}
	if !validTokenizers[cfg.Tokenizer] {
		errs = append(errs, FieldError{
			Field:   "tokens.tokenizer",
			Message: fmt.Sprintf("invalid tokenizer %q: must be 'bpe' or 'heuristic'", cfg.Tokenizer),
		})
	}

	validEncodings := map[string]bool{"o200k_base": true, "cl100k_base": true, "p50k_base": true, "r50k_base": true}
	if !validEncodings[cfg.DefaultEncoding] {
		errs = append(errs, FieldError{
			Field:   "tokens.default_encoding",
			Message: fmt.Sprintf("invalid encoding %q: must be 'o200k_base', 'cl100k_base', 'p50k_base', or 'r50k_base'", cfg.DefaultEncoding),
		})
	}

	if cfg.CacheSize < 0 {
		errs = append(errs, FieldError{
			Field:   "tokens.cache_size",
			Message: "cache size must be non-negative",
		})
	}

	for model, ratio := range cfg.Models {
		if ratio <= 0 {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("tokens.models.%s", model),
				Message: "characters per token must be positive",
			})
		}
	}

	return errs
}

// validateServer validates server configuration.
func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	}
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.read_timeout",
			Message: "read timeout must be positive",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.write_timeout",
			Message: "write timeout must be positive",
		})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.shutdown_timeout",
			Message: "shutdown timeout must be positive",
		})
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	// Validate logging level
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if cfg.Logging.Level == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: "logging level is required",
		})
	} else if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	// Validate logging format
	validFormats := map[string]bool{"json": true, "text": true, "console": true}
	if cfg.Logging.Format == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: "logging format is required",
		})
	} else if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json', 'text', or 'console'", cfg.Logging.Format),
		})
	}

	for i, p := range cfg.Logging.RedactPatterns {
		if p.Pattern == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("telemetry.logging.redact_patterns[%d].pattern", i),
				Message: "pattern is required",
			})
		}
	}

	// Validate metrics path
	if cfg.Metrics.Enabled && cfg.Metrics.Path == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path is required when metrics are enabled",
		})
	}
	if cfg.Metrics.Path != "" && cfg.Metrics.Path[0] != '/' {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with /",
		})
	}

	// Validate tracing configuration
	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "tracing endpoint is required when tracing is enabled",
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1.0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}
	validSamplers := map[string]bool{"always": true, "never": true, "ratio": true}
	if !validSamplers[cfg.Tracing.Sampler] {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("invalid sampler %q: must be 'always', 'never', or 'ratio'", cfg.Tracing.Sampler),
		})
	}
	if cfg.Tracing.Exporter != "otlp" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.exporter",
			Message: fmt.Sprintf("unsupported exporter %q: must be 'otlp'", cfg.Tracing.Exporter),
		})
	}

	// Validate health check paths
	if cfg.Health.Enabled {
		paths := []struct {
			field string
			value string
		}{
			{"telemetry.health.liveness_path", cfg.Health.LivenessPath},
			{"telemetry.health.readiness_path", cfg.Health.ReadinessPath},
			{"telemetry.health.version_path", cfg.Health.VersionPath},
		}
		for _, p := range paths {
			if p.value == "" {
				errs = append(errs, FieldError{
					Field:   p.field,
					Message: "path is required when health checks are enabled",
				})
			} else if p.value[0] != '/' {
				errs = append(errs, FieldError{
					Field:   p.field,
					Message: "path must start with /",
				})
			}
		}
	}
	if cfg.Health.CheckTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.health.check_timeout",
			Message: "check timeout must be non-negative",
		})
	}

	return errs
}
