package main

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"os"
	"runtime"
	"sync"

	"github.com/spf13/cobra"

	"github.com/o1x3/ctoken/pkg/cli"
	"github.com/o1x3/ctoken/pkg/config"
	"github.com/o1x3/ctoken/pkg/pricing"
	"github.com/o1x3/ctoken/pkg/pricing/refresh"
	"github.com/o1x3/ctoken/pkg/server"
	"github.com/o1x3/ctoken/pkg/telemetry"
	"github.com/o1x3/ctoken/pkg/telemetry/health"
)

var serveFlags struct {
	listen string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the cost API with metrics and health endpoints",
	Long: `Run the HTTP API:

  POST /v1/cost              price a response, chunk list, request or SSE stream
  POST /v1/tokens            count tokens of a string or messages
  GET  /v1/pricing           current price table
  GET  /v1/pricing/resolve   ?model=<id>

plus /metrics, /healthz, /readyz and /version when enabled. The price table is
refreshed on pricing.refresh_schedule and reloaded when pricing.csv_path
changes if pricing.watch is set.

Examples:
  ctoken serve
  ctoken serve --listen 0.0.0.0:9464 --config /etc/ctoken/ctoken.yaml`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listen, "listen", "l", "", "listen address (overrides server.listen_address)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.MustCurrent()
	srvCfg := cfg.Server
	if serveFlags.listen != "" {
		srvCfg.ListenAddress = serveFlags.listen
	}

	tel, err := telemetry.New(&cfg.Telemetry, Version, cmd.ErrOrStderr())
	if err != nil {
		return cli.NewConfigError("telemetry", err.Error())
	}
	defer func() {
		if err := tel.Shutdown(context.WithoutCancel(cmd.Context())); err != nil {
			logger.Error("telemetry shutdown failed", "error", err)
		}
	}()
	logger = tel.Logger()

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	m := tel.Metrics()
	client, closeStore, err := openClient(ctx, recorders{pricing: m, costs: m, tokens: m})
	if err != nil {
		return err
	}
	defer closeStore()

	store := client.Store()
	m.SetTableEntries(store.Table().Len())
	health.RegisterPricingChecks(tel.Health(), store, cfg.Pricing.MaxStaleness)

	// Background workers stop before the store is closed.
	var wg sync.WaitGroup
	defer wg.Wait()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.Pricing.RefreshSchedule != "" {
		scheduler := refresh.NewScheduler(store, cfg.Pricing.RefreshSchedule, logger)
		if err := scheduler.Start(ctx); err != nil {
			return cli.NewConfigError("pricing.refresh_schedule", err.Error())
		}
		defer scheduler.Stop()
	}

	if cfg.Pricing.Watch {
		if err := startWatcher(ctx, &wg, cfg.Pricing.CSVPath, func(fw *refresh.FileWatcher) error {
			return fw.WatchStore(ctx, store)
		}); err != nil {
			return err
		}
	}

	if _, err := os.Stat(cfgFile); err == nil {
		if err := startWatcher(ctx, &wg, cfgFile, func(fw *refresh.FileWatcher) error {
			return fw.Watch(ctx, func() error { return reloadConfig(tel, store) })
		}); err != nil {
			return err
		}
	}

	mux := http.NewServeMux()
	server.NewAPI(client, logger).Register(mux)
	tel.Mount(mux, health.VersionInfo{
		Version:   Version,
		Commit:    GitCommit,
		BuildTime: BuildDate,
		GoVersion: runtime.Version(),
	})

	handler := tel.Middleware(server.Chain(mux,
		server.Recovery(logger),
		server.RequestID,
		server.Logging(logger),
	))

	srv := server.NewServer(&srvCfg, handler, logger)
	logger.InfoContext(ctx, "serving cost API",
		"address", srvCfg.ListenAddress,
		"pricing_source", store.Table().Metadata().Source,
		"entries", store.Table().Len(),
	)
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}

// startWatcher runs watch on a watcher for path until ctx is done.
func startWatcher(ctx context.Context, wg *sync.WaitGroup, path string, watch func(*refresh.FileWatcher) error) error {
	fw, err := refresh.NewFileWatcher(path, 0, logger)
	if err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer fw.Stop()
		if err := watch(fw); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("file watcher stopped", "path", path, "error", err)
		}
	}()
	return nil
}

// reloadConfig re-reads the configuration file and applies what can change
// without a restart. A failed reload keeps the running configuration.
func reloadConfig(tel *telemetry.Telemetry, store *pricing.Store) error {
	prev := config.MustCurrent()
	next, err := config.Reload()
	if err != nil {
		return err
	}
	return applyConfig(tel, store, prev, next)
}

// applyConfig applies the live-reloadable settings of next: the log level and
// the pricing staleness limit. Other changes are reported and wait for a
// restart.
func applyConfig(tel *telemetry.Telemetry, store *pricing.Store, prev, next *config.Config) error {
	if err := tel.SetLogLevel(next.Telemetry.Logging.Level); err != nil {
		return err
	}
	health.SetPricingFreshness(tel.Health(), store, next.Pricing.MaxStaleness)

	var pending []string
	if prev.Server != next.Server {
		pending = append(pending, "server")
	}
	if prev.Pricing.Source != next.Pricing.Source ||
		prev.Pricing.CSVPath != next.Pricing.CSVPath ||
		prev.Pricing.RefreshSchedule != next.Pricing.RefreshSchedule ||
		prev.Pricing.Watch != next.Pricing.Watch {
		pending = append(pending, "pricing")
	}
	if prev.Tokens.Tokenizer != next.Tokens.Tokenizer ||
		prev.Tokens.DefaultEncoding != next.Tokens.DefaultEncoding ||
		prev.Tokens.DefaultModel != next.Tokens.DefaultModel ||
		!maps.Equal(prev.Tokens.Models, next.Tokens.Models) {
		pending = append(pending, "tokens")
	}

	logger.Info("configuration reloaded",
		"log_level", next.Telemetry.Logging.Level,
		"max_staleness", next.Pricing.MaxStaleness,
	)
	if len(pending) > 0 {
		logger.Warn("configuration changes need a restart", "sections", pending)
	}
	return nil
}
