package config

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// Override adjusts a loaded configuration before it is validated. Command
// line flags use it to take precedence over the file and the environment.
type Override func(*Config)

var (
	current atomic.Pointer[Config]

	// loadMu serialises Load and Reload so the remembered source always
	// matches the published configuration.
	loadMu    sync.Mutex
	loadPath  string
	overrides []Override
)

// Load reads path with LoadOrDefault semantics, applies overrides, validates
// the result and publishes it as the process configuration. The path and
// overrides are remembered for Reload.
//
// On error the previously published configuration is left in place.
func Load(path string, opts ...Override) (*Config, error) {
	loadMu.Lock()
	defer loadMu.Unlock()

	cfg, err := build(path, opts)
	if err != nil {
		return nil, err
	}

	loadPath, overrides = path, opts
	current.Store(cfg)
	return cfg, nil
}

// Reload repeats the last Load with the same path and overrides. The new
// configuration replaces the current one only if loading and validation
// succeed.
func Reload() (*Config, error) {
	loadMu.Lock()
	defer loadMu.Unlock()

	if current.Load() == nil {
		return nil, errors.New("configuration not loaded")
	}

	cfg, err := build(loadPath, overrides)
	if err != nil {
		return nil, fmt.Errorf("failed to reload configuration: %w", err)
	}

	current.Store(cfg)
	return cfg, nil
}

// Current returns the published configuration, or nil before the first
// successful Load or Set. Callers must treat the result as read-only; a
// reload publishes a new value rather than mutating it.
func Current() *Config {
	return current.Load()
}

// Set publishes cfg without reading any file. Reload afterwards fails until
// Load is called.
func Set(cfg *Config) {
	loadMu.Lock()
	defer loadMu.Unlock()

	loadPath, overrides = "", nil
	current.Store(cfg)
}

// MustCurrent is Current for code paths that only run after setup.
func MustCurrent() *Config {
	cfg := Current()
	if cfg == nil {
		panic("configuration not loaded: call config.Load first")
	}
	return cfg
}

func build(path string, opts []Override) (*Config, error) {
	cfg, err := LoadOrDefault(path)
	if err != nil {
		return nil, err
	}
	if len(opts) == 0 {
		return cfg, nil
	}

	for _, opt := range opts {
		opt(cfg)
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after overrides: %w", err)
	}
	return cfg, nil
}
