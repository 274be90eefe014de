package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/o1x3/ctoken/pkg/cli"
	"github.com/o1x3/ctoken/pkg/config"
	"github.com/o1x3/ctoken/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile  string
	envFile  string
	logLevel string

	// Set by setup before any subcommand runs. The configuration itself is
	// published through config.Current.
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ctoken",
	Short: "Token counting and cost estimation for OpenAI API calls",
	Long: `ctoken counts tokens and estimates the USD cost of OpenAI API calls.

It prices completed responses (including streamed ones) from their usage
fields, estimates requests before they are sent, and keeps a price table that
can be refreshed from a published CSV.

Configuration is read from ctoken.yaml when present, then from CTOKEN_*
environment variables (a .env file is loaded first).`,
	Version:           Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "ctoken.yaml", "config file path (defaults are used when it does not exist)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before configuration")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
}

// setup loads .env and configuration, builds the logger and tags the command
// context with an invocation ID.
func setup(cmd *cobra.Command, args []string) error {
	if err := loadEnvFile(envFile); err != nil {
		return cli.NewConfigError("env-file", err.Error())
	}

	var overrides []config.Override
	if logLevel != "" {
		level := logLevel
		overrides = append(overrides, func(c *config.Config) { c.Telemetry.Logging.Level = level })
	}

	cfg, err := config.Load(cfgFile, overrides...)
	if err != nil {
		return err
	}

	l, err := logging.New(&cfg.Telemetry.Logging, cmd.ErrOrStderr())
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(l)

	logger = l
	cmd.SetContext(logging.WithRequestID(cmd.Context(), uuid.NewString()))

	logger.DebugContext(cmd.Context(), "configuration loaded",
		"config", cfgFile,
		"pricing_source", cfg.Pricing.Source,
		"tokenizer", cfg.Tokens.Tokenizer,
	)
	return nil
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
