package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "CTOKEN_"

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention CTOKEN_SECTION_FIELD (e.g., CTOKEN_PRICING_SOURCE).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	return finish(cfg)
}

// LoadOrDefault behaves like LoadConfigWithEnvOverrides, except that a
// missing file (or an empty path) yields the defaults with environment
// overrides applied.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return finish(NewDefaultConfig())
	}

	cfg, err := LoadConfigWithEnvOverrides(path)
	if errors.Is(err, fs.ErrNotExist) {
		return finish(NewDefaultConfig())
	}
	return cfg, err
}

func parse(data []byte) (*Config, error) {
	cfg := NewDefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(cfg)
	return cfg, nil
}

func finish(cfg *Config) (*Config, error) {
	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables use the format CTOKEN_SECTION_FIELD. Values that do not
// parse are ignored.
func applyEnvOverrides(cfg *Config) {
	// Pricing overrides
	envString("PRICING_SOURCE", &cfg.Pricing.Source)
	envString("PRICING_CSV_PATH", &cfg.Pricing.CSVPath)
	envString("PRICING_REMOTE_URL", &cfg.Pricing.RemoteURL)
	envDuration("PRICING_FETCH_TIMEOUT", &cfg.Pricing.FetchTimeout)
	envString("PRICING_REFRESH_SCHEDULE", &cfg.Pricing.RefreshSchedule)
	envBool("PRICING_WATCH", &cfg.Pricing.Watch)
	envString("PRICING_WRITE_CSV", &cfg.Pricing.WriteCSV)
	envDuration("PRICING_MAX_STALENESS", &cfg.Pricing.MaxStaleness)
	envBool("PRICING_SNAPSHOT_ENABLED", &cfg.Pricing.Snapshot.Enabled)
	envString("PRICING_SNAPSHOT_PATH", &cfg.Pricing.Snapshot.Path)
	envInt("PRICING_SNAPSHOT_KEEP", &cfg.Pricing.Snapshot.Keep)

	// Tokens overrides
	envString("TOKENS_TOKENIZER", &cfg.Tokens.Tokenizer)
	envString("TOKENS_DEFAULT_ENCODING", &cfg.Tokens.DefaultEncoding)
	envString("TOKENS_DEFAULT_MODEL", &cfg.Tokens.DefaultModel)
	envInt("TOKENS_CACHE_SIZE", &cfg.Tokens.CacheSize)

	// Server overrides
	envString("SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	envDuration("SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)

	// Telemetry overrides
	envString("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("TELEMETRY_LOGGING_REDACT_SECRETS", &cfg.Telemetry.Logging.RedactSecrets)
	envBool("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envString("TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	envBool("TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	envString("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	envFloat("TELEMETRY_TRACING_SAMPLE_RATIO", &cfg.Telemetry.Tracing.SampleRatio)
	envBool("TELEMETRY_HEALTH_ENABLED", &cfg.Telemetry.Health.Enabled)
}

func envString(name string, dst *string) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		*dst = val
	}
}

func envBool(name string, dst *bool) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func envInt(name string, dst *int) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envFloat(name string, dst *float64) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			*dst = f
		}
	}
}

func envDuration(name string, dst *time.Duration) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}
