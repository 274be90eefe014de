package config

import "time"

// Config is the root configuration structure for ctoken.
// It contains the pricing source, tokenizer, HTTP server and telemetry
// settings.
type Config struct {
	// Pricing controls where the price table comes from and how it is kept
	// fresh.
	Pricing PricingConfig `yaml:"pricing"`

	// Tokens contains tokenizer configuration.
	Tokens TokensConfig `yaml:"tokens"`

	// Server contains configuration for the HTTP server run by "ctoken serve".
	Server ServerConfig `yaml:"server"`

	// Telemetry contains configuration for observability including logging,
	// metrics, tracing and health checks.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// PricingConfig contains price table configuration.
type PricingConfig struct {
	// Source selects the table loaded at startup.
	// Options: "embedded", "csv", "remote", "snapshot"
	// Default: "embedded"
	Source string `yaml:"source"`

	// CSVPath is the pricing CSV used when Source is "csv" and the file
	// watched when Watch is set.
	CSVPath string `yaml:"csv_path"`

	// RemoteURL is the CSV fetched by refreshes.
	// Default: the published ctoken pricing CSV
	RemoteURL string `yaml:"remote_url"`

	// FetchTimeout bounds a single remote fetch.
	// Default: 10s
	FetchTimeout time.Duration `yaml:"fetch_timeout"`

	// RefreshSchedule is a standard cron expression (or "@every 6h") for
	// background refreshes. Empty disables scheduled refresh.
	// Default: ""
	RefreshSchedule string `yaml:"refresh_schedule"`

	// Watch reloads CSVPath whenever it changes on disk.
	// Default: false
	Watch bool `yaml:"watch"`

	// WriteCSV, if set, is rewritten with the new table after every
	// successful refresh.
	WriteCSV string `yaml:"write_csv"`

	// MaxStaleness is how old the table may get before the readiness check
	// reports it stale. Zero disables the check.
	// Default: 0
	MaxStaleness time.Duration `yaml:"max_staleness"`

	// DiscrepancyThreshold is the percentage difference reported by
	// "ctoken pricing verify".
	// Default: 1.0
	DiscrepancyThreshold float64 `yaml:"discrepancy_threshold"`

	// Snapshot configures SQLite persistence of refreshed tables.
	Snapshot SnapshotConfig `yaml:"snapshot"`
}

// SnapshotConfig contains pricing snapshot storage configuration.
type SnapshotConfig struct {
	// Enabled stores every successfully refreshed table.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Path is the SQLite database file.
	// Default: "data/pricing.db"
	Path string `yaml:"path"`

	// Keep is the number of snapshots retained.
	// Default: 10
	Keep int `yaml:"keep"`

	// BusyTimeout is how long SQLite waits for a lock.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// TokensConfig contains token counting configuration.
type TokensConfig struct {
	// Tokenizer is the tokenizer type.
	// Options: "bpe", "heuristic"
	// Default: "bpe"
	Tokenizer string `yaml:"tokenizer"`

	// DefaultEncoding is the BPE encoding for models with no known mapping.
	// Default: "o200k_base"
	DefaultEncoding string `yaml:"default_encoding"`

	// DefaultModel is the model counted for when none is given.
	// Default: "gpt-4o"
	DefaultModel string `yaml:"default_model"`

	// CacheSize bounds the model-to-encoding cache.
	// Default: 100
	CacheSize int `yaml:"cache_size"`

	// Models contains characters-per-token ratios for the heuristic
	// tokenizer, keyed by model prefix. "default" applies to everything else.
	Models map[string]float64 `yaml:"models"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: "127.0.0.1:9464"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading a request.
	// Default: 10s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response.
	// Default: 10s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 60s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// Default: 15s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`

	// Health contains health check configuration.
	Health HealthConfig `yaml:"health"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "console"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactSecrets masks API keys and bearer tokens in log attributes.
	// Default: true
	RedactSecrets bool `yaml:"redact_secrets"`

	// RedactPatterns contains additional redaction patterns.
	RedactPatterns []RedactPattern `yaml:"redact_patterns"`
}

// RedactPattern defines a custom redaction pattern.
type RedactPattern struct {
	// Name is a descriptive name for the pattern.
	Name string `yaml:"name"`

	// Pattern is the regular expression to match.
	Pattern string `yaml:"pattern"`

	// Replacement is the string to replace matches with.
	Replacement string `yaml:"replacement"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "ctoken"
	Namespace string `yaml:"namespace"`

	// TokenCountBuckets defines histogram buckets for token counts.
	// Default: [10, 100, 500, 1000, 5000, 10000, 50000, 100000]
	TokenCountBuckets []float64 `yaml:"token_count_buckets"`

	// CostBuckets defines histogram buckets for per-call cost in USD.
	// Default: [0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5]
	CostBuckets []float64 `yaml:"cost_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Only used when Sampler is "ratio".
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Exporter determines the trace exporter to use.
	// Options: "otlp"
	// Default: "otlp"
	Exporter string `yaml:"exporter"`

	// Endpoint is the OTLP gRPC collector endpoint (e.g. "localhost:4317").
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "ctoken"
	ServiceName string `yaml:"service_name"`

	// OTLP contains OTLP exporter specific configuration.
	OTLP OTLPConfig `yaml:"otlp"`
}

// OTLPConfig contains OTLP exporter configuration.
type OTLPConfig struct {
	// Insecure disables TLS for the OTLP connection.
	// Default: true
	Insecure bool `yaml:"insecure"`

	// Timeout is the timeout for OTLP exports.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// HealthConfig contains health check endpoint configuration.
type HealthConfig struct {
	// Enabled controls whether health check endpoints are served.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// LivenessPath is the path for the liveness probe endpoint.
	// Default: "/healthz"
	LivenessPath string `yaml:"liveness_path"`

	// ReadinessPath is the path for the readiness probe endpoint.
	// Default: "/readyz"
	ReadinessPath string `yaml:"readiness_path"`

	// VersionPath is the path for the version information endpoint.
	// Default: "/version"
	VersionPath string `yaml:"version_path"`

	// CheckTimeout is the timeout for individual health checks.
	// Default: 5s
	CheckTimeout time.Duration `yaml:"check_timeout"`
}
