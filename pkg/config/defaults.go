package config

import "time"

// Default values for configuration fields.
const (
	// Pricing defaults
	DefaultPricingSource               = "embedded"
	DefaultPricingRemoteURL            = "https://raw.githubusercontent.com/o1x3/ctoken/main/data/openai_text_tokens_pricing.csv"
	DefaultPricingFetchTimeout         = 10 * time.Second
	DefaultPricingDiscrepancyThreshold = 1.0
	DefaultSnapshotPath                = "data/pricing.db"
	DefaultSnapshotKeep                = 10
	DefaultSnapshotBusyTimeout         = 5 * time.Second

	// Tokens defaults
	DefaultTokenizer           = "bpe"
	DefaultTokensEncoding      = "o200k_base"
	DefaultTokensModel         = "gpt-4o"
	DefaultTokensCacheSize     = 100
	DefaultTokensCharsPerToken = 4.0

	// Server defaults
	DefaultListenAddress   = "127.0.0.1:9464"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 15 * time.Second

	// Telemetry defaults
	DefaultLoggingLevel        = "info"
	DefaultLoggingFormat       = "console"
	DefaultRedactSecrets       = true
	DefaultMetricsEnabled      = true
	DefaultPrometheusPath      = "/metrics"
	DefaultMetricsNamespace    = "ctoken"
	DefaultTracingSampler      = "ratio"
	DefaultTracingSamplingRate = 1.0
	DefaultTracingExporter     = "otlp"
	DefaultTracingServiceName  = "ctoken"
	DefaultOTLPInsecure        = true
	DefaultOTLPTimeout         = 10 * time.Second
	DefaultHealthEnabled       = true
	DefaultLivenessPath        = "/healthz"
	DefaultReadinessPath       = "/readyz"
	DefaultVersionPath         = "/version"
	DefaultHealthCheckTimeout  = 5 * time.Second
)

// Pricing sources.
const (
	SourceEmbedded = "embedded"
	SourceCSV      = "csv"
	SourceRemote   = "remote"
	SourceSnapshot = "snapshot"
)

// NewDefaultConfig returns a configuration with every default applied,
// including the boolean defaults that ApplyDefaults cannot infer from zero
// values. LoadConfig decodes YAML on top of it.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	cfg.Telemetry.Logging.RedactSecrets = DefaultRedactSecrets
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	cfg.Telemetry.Tracing.OTLP.Insecure = DefaultOTLPInsecure
	cfg.Telemetry.Health.Enabled = DefaultHealthEnabled
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills every empty field of cfg with its default value.
// Fields that are already set are left untouched.
func ApplyDefaults(cfg *Config) {
	applyPricingDefaults(&cfg.Pricing)
	applyTokensDefaults(&cfg.Tokens)

	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyPricingDefaults(cfg *PricingConfig) {
	if cfg.Source == "" {
		cfg.Source = DefaultPricingSource
	}
	if cfg.RemoteURL == "" {
		cfg.RemoteURL = DefaultPricingRemoteURL
	}
	if cfg.FetchTimeout == 0 {
		cfg.FetchTimeout = DefaultPricingFetchTimeout
	}
	if cfg.DiscrepancyThreshold == 0 {
		cfg.DiscrepancyThreshold = DefaultPricingDiscrepancyThreshold
	}
	if cfg.Snapshot.Path == "" {
		cfg.Snapshot.Path = DefaultSnapshotPath
	}
	if cfg.Snapshot.Keep == 0 {
		cfg.Snapshot.Keep = DefaultSnapshotKeep
	}
	if cfg.Snapshot.BusyTimeout == 0 {
		cfg.Snapshot.BusyTimeout = DefaultSnapshotBusyTimeout
	}
}

func applyTokensDefaults(cfg *TokensConfig) {
	if cfg.Tokenizer == "" {
		cfg.Tokenizer = DefaultTokenizer
	}
	if cfg.DefaultEncoding == "" {
		cfg.DefaultEncoding = DefaultTokensEncoding
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = DefaultTokensModel
	}
	if cfg.CacheSize == 0 {
		cfg.CacheSize = DefaultTokensCacheSize
	}
	if cfg.Models == nil {
		cfg.Models = map[string]float64{
			"gpt-4o":  4.0,
			"gpt-4":   4.0,
			"gpt-3.5": 4.0,
			"o1":      4.0,
			"o3":      4.0,
			"default": DefaultTokensCharsPerToken,
		}
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLoggingFormat
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultPrometheusPath
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if len(cfg.Metrics.TokenCountBuckets) == 0 {
		cfg.Metrics.TokenCountBuckets = []float64{10, 100, 500, 1000, 5000, 10000, 50000, 100000}
	}
	if len(cfg.Metrics.CostBuckets) == 0 {
		cfg.Metrics.CostBuckets = []float64{0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}
	}

	if cfg.Tracing.Sampler == "" {
		cfg.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = DefaultTracingSamplingRate
	}
	if cfg.Tracing.Exporter == "" {
		cfg.Tracing.Exporter = DefaultTracingExporter
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Tracing.OTLP.Timeout == 0 {
		cfg.Tracing.OTLP.Timeout = DefaultOTLPTimeout
	}

	if cfg.Health.LivenessPath == "" {
		cfg.Health.LivenessPath = DefaultLivenessPath
	}
	if cfg.Health.ReadinessPath == "" {
		cfg.Health.ReadinessPath = DefaultReadinessPath
	}
	if cfg.Health.VersionPath == "" {
		cfg.Health.VersionPath = DefaultVersionPath
	}
	if cfg.Health.CheckTimeout == 0 {
		cfg.Health.CheckTimeout = DefaultHealthCheckTimeout
	}
}
