// Package config provides configuration management for ctoken.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides. Every field has a default,
// so ctoken runs without any configuration file at all.
//
// # Configuration Loading
//
// Configuration can be loaded in three ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("ctoken.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("ctoken.yaml")
//
//  3. From an optional file, falling back to defaults when it is missing:
//     cfg, err := config.LoadOrDefault(path)
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention CTOKEN_SECTION_FIELD.
// For example:
//
//   - CTOKEN_PRICING_SOURCE overrides pricing.source
//   - CTOKEN_TOKENS_TOKENIZER overrides tokens.tokenizer
//   - CTOKEN_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Environment variables always take precedence over file-based configuration.
//
// # Process Configuration
//
// The CLI publishes its configuration once per invocation and long-running
// commands reload it when the file changes:
//
//	cfg, err := config.Load("ctoken.yaml", func(c *config.Config) {
//	    c.Telemetry.Logging.Level = "debug"
//	})
//	...
//	cfg, err = config.Reload() // same path and overrides; keeps the old value on error
//
// For testing, prefer explicit Config instances from NewDefaultConfig.
//
// # Example Configuration
//
//	pricing:
//	  source: "csv"
//	  csv_path: "./pricing.csv"
//	  refresh_schedule: "@every 6h"
//	  snapshot:
//	    enabled: true
//
//	tokens:
//	  tokenizer: "bpe"
//	  default_model: "gpt-4o"
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
package config
