package config

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate_ValidConfig(t *testing.T) {
	if err := Validate(NewDefaultConfig()); err != nil {
		t.Errorf("expected valid config, got error: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Pricing.Source = "ftp"
	cfg.Tokens.Tokenizer = ""
	cfg.Server.ListenAddress = ""

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation errors")
	}

	var vErr ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(vErr.Errors) != 3 {
		t.Errorf("expected 3 errors, got %d: %v", len(vErr.Errors), vErr.Errors)
	}
}

// assertFieldError runs Validate after mutate and checks that field is (or
// is not) reported.
func assertFieldError(t *testing.T, mutate func(*Config), field string, wantErr bool) {
	t.Helper()

	cfg := NewDefaultConfig()
	mutate(cfg)

	err := Validate(cfg)
	if !wantErr {
		if err != nil {
			t.Errorf("expected no error, got %v", err)
		}
		return
	}

	var vErr ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, fe := range vErr.Errors {
		if fe.Field == field {
			return
		}
	}
	t.Errorf("expected error on %q, got %v", field, vErr.Errors)
}

func TestValidate_Pricing(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		field   string
		wantErr bool
	}{
		{"remote source", func(c *Config) { c.Pricing.Source = SourceRemote }, "", false},
		{"csv source with path", func(c *Config) { c.Pricing.Source = SourceCSV; c.Pricing.CSVPath = "p.csv" }, "", false},
		{"csv source without path", func(c *Config) { c.Pricing.Source = SourceCSV }, "pricing.csv_path", true},
		{"snapshot source without path", func(c *Config) { c.Pricing.Source = SourceSnapshot; c.Pricing.Snapshot.Path = "" }, "pricing.snapshot.path", true},
		{"unknown source", func(c *Config) { c.Pricing.Source = "ftp" }, "pricing.source", true},
		{"relative remote url", func(c *Config) { c.Pricing.RemoteURL = "prices.csv" }, "pricing.remote_url", true},
		{"non-http remote url", func(c *Config) { c.Pricing.RemoteURL = "s3://bucket/prices.csv" }, "pricing.remote_url", true},
		{"negative fetch timeout", func(c *Config) { c.Pricing.FetchTimeout = -1 }, "pricing.fetch_timeout", true},
		{"valid cron", func(c *Config) { c.Pricing.RefreshSchedule = "0 */6 * * *" }, "", false},
		{"valid every", func(c *Config) { c.Pricing.RefreshSchedule = "@every 6h" }, "", false},
		{"invalid cron", func(c *Config) { c.Pricing.RefreshSchedule = "every six hours" }, "pricing.refresh_schedule", true},
		{"watch without csv", func(c *Config) { c.Pricing.Watch = true }, "pricing.watch", true},
		{"negative staleness", func(c *Config) { c.Pricing.MaxStaleness = -1 }, "pricing.max_staleness", true},
		{"negative threshold", func(c *Config) { c.Pricing.DiscrepancyThreshold = -0.5 }, "pricing.discrepancy_threshold", true},
		{"negative keep", func(c *Config) { c.Pricing.Snapshot.Keep = -1 }, "pricing.snapshot.keep", true},
		{"enabled snapshot without path", func(c *Config) { c.Pricing.Snapshot.Enabled = true; c.Pricing.Snapshot.Path = "" }, "pricing.snapshot.path", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertFieldError(t, tt.mutate, tt.field, tt.wantErr)
		})
	}
}

func TestValidate_Tokens(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		field   string
		wantErr bool
	}{
		{"heuristic", func(c *Config) { c.Tokens.Tokenizer = "heuristic" }, "", false},
		{"cl100k", func(c *Config) { c.Tokens.DefaultEncoding = "cl100k_base" }, "", false},
		{"unknown tokenizer", func(c *Config) { c.Tokens.Tokenizer = "wordpiece" }, "tokens.tokenizer", true},
		{"unknown encoding", func(c *Config) { c.Tokens.DefaultEncoding = "gpt2" }, "tokens.default_encoding", true},
		{"negative cache", func(c *Config) { c.Tokens.CacheSize = -1 }, "tokens.cache_size", true},
		{"zero ratio", func(c *Config) { c.Tokens.Models["llama"] = 0 }, "tokens.models.llama", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertFieldError(t, tt.mutate, tt.field, tt.wantErr)
		})
	}
}

func TestValidate_Server(t *testing.T) {
	assertFieldError(t, func(c *Config) { c.Server.ListenAddress = "" }, "server.listen_address", true)
	assertFieldError(t, func(c *Config) { c.Server.ReadTimeout = -1 }, "server.read_timeout", true)
	assertFieldError(t, func(c *Config) { c.Server.WriteTimeout = -1 }, "server.write_timeout", true)
	assertFieldError(t, func(c *Config) { c.Server.ShutdownTimeout = -1 }, "server.shutdown_timeout", true)
}

func TestValidate_Telemetry(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		field   string
		wantErr bool
	}{
		{"json logs", func(c *Config) { c.Telemetry.Logging.Format = "json" }, "", false},
		{"bad level", func(c *Config) { c.Telemetry.Logging.Level = "trace" }, "telemetry.logging.level", true},
		{"empty level", func(c *Config) { c.Telemetry.Logging.Level = "" }, "telemetry.logging.level", true},
		{"bad format", func(c *Config) { c.Telemetry.Logging.Format = "xml" }, "telemetry.logging.format", true},
		{
			"empty redact pattern",
			func(c *Config) { c.Telemetry.Logging.RedactPatterns = []RedactPattern{{Name: "x"}} },
			"telemetry.logging.redact_patterns[0].pattern", true,
		},
		{"relative metrics path", func(c *Config) { c.Telemetry.Metrics.Path = "metrics" }, "telemetry.metrics.path", true},
		{"tracing without endpoint", func(c *Config) { c.Telemetry.Tracing.Enabled = true }, "telemetry.tracing.endpoint", true},
		{
			"tracing with endpoint",
			func(c *Config) { c.Telemetry.Tracing.Enabled = true; c.Telemetry.Tracing.Endpoint = "localhost:4317" },
			"", false,
		},
		{"ratio too large", func(c *Config) { c.Telemetry.Tracing.SampleRatio = 1.5 }, "telemetry.tracing.sample_ratio", true},
		{"bad sampler", func(c *Config) { c.Telemetry.Tracing.Sampler = "sometimes" }, "telemetry.tracing.sampler", true},
		{"jaeger exporter", func(c *Config) { c.Telemetry.Tracing.Exporter = "jaeger" }, "telemetry.tracing.exporter", true},
		{"relative health path", func(c *Config) { c.Telemetry.Health.LivenessPath = "healthz" }, "telemetry.health.liveness_path", true},
		{
			"health disabled ignores paths",
			func(c *Config) { c.Telemetry.Health.Enabled = false; c.Telemetry.Health.VersionPath = "" },
			"", false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertFieldError(t, tt.mutate, tt.field, tt.wantErr)
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      ValidationError
		contains []string
	}{
		{
			name:     "no errors",
			err:      ValidationError{},
			contains: []string{"configuration validation failed"},
		},
		{
			name:     "single error",
			err:      ValidationError{Errors: []FieldError{{Field: "pricing.source", Message: "bad"}}},
			contains: []string{"configuration validation failed: pricing.source: bad"},
		},
		{
			name: "multiple errors",
			err: ValidationError{Errors: []FieldError{
				{Field: "pricing.source", Message: "bad"},
				{Field: "tokens.tokenizer", Message: "worse"},
			}},
			contains: []string{"with 2 errors", "  - pricing.source: bad", "  - tokens.tokenizer: worse"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, want := range tt.contains {
				if !strings.Contains(msg, want) {
					t.Errorf("expected %q in %q", want, msg)
				}
			}
		})
	}
}
