package config

import (
	"os"
	"path/filepath"
	"testing"
)

func resetCurrent() {
	Set(nil)
}

func TestLoad(t *testing.T) {
	resetCurrent()
	t.Cleanup(resetCurrent)

	configPath := writeConfig(t, `
server:
  listen_address: "127.0.0.1:8080"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if Current() != cfg {
		t.Fatal("expected Load to publish the returned config")
	}
	if cfg.Server.ListenAddress != "127.0.0.1:8080" {
		t.Errorf("expected listen address %q, got %q", "127.0.0.1:8080", cfg.Server.ListenAddress)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	resetCurrent()
	t.Cleanup(resetCurrent)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("expected defaults for a missing file, got %v", err)
	}
	if cfg.Pricing.Source != DefaultPricingSource {
		t.Errorf("expected default pricing source, got %q", cfg.Pricing.Source)
	}
}

func TestLoad_CalledAgainReplaces(t *testing.T) {
	resetCurrent()
	t.Cleanup(resetCurrent)

	first := writeConfig(t, "tokens:\n  default_model: gpt-4o\n")
	second := writeConfig(t, "tokens:\n  default_model: gpt-4.1\n")

	if _, err := Load(first); err != nil {
		t.Fatalf("failed to load first config: %v", err)
	}
	if _, err := Load(second); err != nil {
		t.Fatalf("failed to load second config: %v", err)
	}

	if got := Current().Tokens.DefaultModel; got != "gpt-4.1" {
		t.Errorf("expected second config to win, got %q", got)
	}
}

func TestLoad_Overrides(t *testing.T) {
	resetCurrent()
	t.Cleanup(resetCurrent)

	configPath := writeConfig(t, "telemetry:\n  logging:\n    level: info\n")
	debug := func(cfg *Config) { cfg.Telemetry.Logging.Level = "debug" }

	cfg, err := Load(configPath, debug)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected override to win, got %q", cfg.Telemetry.Logging.Level)
	}
}

func TestLoad_InvalidOverrideKeepsCurrent(t *testing.T) {
	resetCurrent()
	t.Cleanup(resetCurrent)

	original := NewDefaultConfig()
	Set(original)

	bad := func(cfg *Config) { cfg.Telemetry.Logging.Level = "loud" }
	if _, err := Load("", bad); err == nil {
		t.Fatal("expected validation error for override")
	}
	if Current() != original {
		t.Error("expected original config to remain after failed load")
	}
}

func TestCurrent_BeforeLoad(t *testing.T) {
	resetCurrent()

	if cfg := Current(); cfg != nil {
		t.Errorf("expected nil config before load, got %+v", cfg)
	}
}

func TestSet(t *testing.T) {
	resetCurrent()
	t.Cleanup(resetCurrent)

	cfg := NewDefaultConfig()
	cfg.Tokens.DefaultModel = "o3"
	Set(cfg)

	if Current() != cfg {
		t.Error("expected Current to return the config passed to Set")
	}
	if _, err := Reload(); err == nil {
		t.Error("expected Reload to fail after Set without Load")
	}
}

func TestReload(t *testing.T) {
	resetCurrent()
	t.Cleanup(resetCurrent)

	configPath := writeConfig(t, "pricing:\n  discrepancy_threshold: 2.5\n")
	debug := func(cfg *Config) { cfg.Telemetry.Logging.Level = "debug" }
	if _, err := Load(configPath, debug); err != nil {
		t.Fatalf("failed to load: %v", err)
	}

	if err := os.WriteFile(configPath, []byte("pricing:\n  discrepancy_threshold: 4\n"), 0644); err != nil {
		t.Fatalf("failed to rewrite config: %v", err)
	}

	cfg, err := Reload()
	if err != nil {
		t.Fatalf("failed to reload: %v", err)
	}
	if got := Current().Pricing.DiscrepancyThreshold; got != 4 {
		t.Errorf("expected threshold 4 after reload, got %v", got)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected override reapplied on reload, got %q", cfg.Telemetry.Logging.Level)
	}
}

func TestReload_ValidationFailure(t *testing.T) {
	resetCurrent()
	t.Cleanup(resetCurrent)

	configPath := writeConfig(t, "tokens:\n  default_model: gpt-4o\n")
	original, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}

	if err := os.WriteFile(configPath, []byte("pricing:\n  source: carrier-pigeon\n"), 0644); err != nil {
		t.Fatalf("failed to rewrite config: %v", err)
	}
	if _, err := Reload(); err == nil {
		t.Fatal("expected reload to fail")
	}
	if Current() != original {
		t.Error("expected original config to remain after failed reload")
	}
}

func TestMustCurrent(t *testing.T) {
	resetCurrent()

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic when config is not loaded")
		}
	}()
	MustCurrent()
}

func TestMustCurrent_AfterSet(t *testing.T) {
	resetCurrent()
	t.Cleanup(resetCurrent)

	Set(NewDefaultConfig())
	if MustCurrent() == nil {
		t.Error("expected non-nil config")
	}
}
