package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/o1x3/ctoken/pkg/config"
	"github.com/o1x3/ctoken/pkg/telemetry/health"
	"github.com/o1x3/ctoken/pkg/telemetry/logging"
	"github.com/o1x3/ctoken/pkg/telemetry/metrics"
	"github.com/o1x3/ctoken/pkg/telemetry/tracing"
)

// Telemetry bundles the logger, metrics collector, tracer and health checker
// built from one TelemetryConfig.
type Telemetry struct {
	cfg *config.TelemetryConfig

	logger   *slog.Logger
	logLevel *slog.LevelVar
	metrics  *metrics.Collector
	tracer   *tracing.Tracer
	health   *health.Checker
}

// New builds every component. Logs go to w (os.Stderr when nil). Metrics use
// a fresh registry with the Go and process collectors attached.
func New(cfg *config.TelemetryConfig, version string, w io.Writer) (*Telemetry, error) {
	logger, level, err := logging.NewLeveled(&cfg.Logging, w)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	tracer, err := tracing.New(&cfg.Tracing, version)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}

	collector := metrics.NewCollector(&cfg.Metrics, prometheus.NewRegistry())
	if cfg.Metrics.Enabled {
		collector.RegisterRuntimeCollectors()
	}

	return &Telemetry{
		cfg:      cfg,
		logger:   logger,
		logLevel: level,
		metrics:  collector,
		tracer:   tracer,
		health:   health.New(cfg.Health.CheckTimeout),
	}, nil
}

// Logger returns the root logger.
func (t *Telemetry) Logger() *slog.Logger { return t.logger }

// SetLogLevel changes the minimum level of Logger and every logger derived
// from it.
func (t *Telemetry) SetLogLevel(level string) error {
	return logging.SetLevel(t.logLevel, level)
}

// Metrics returns the metrics collector.
func (t *Telemetry) Metrics() *metrics.Collector { return t.metrics }

// Tracer returns the tracer. It is a no-op when tracing is disabled.
func (t *Telemetry) Tracer() *tracing.Tracer { return t.tracer }

// Health returns the health checker.
func (t *Telemetry) Health() *health.Checker { return t.health }

// Mount registers the metrics and health endpoints that are enabled.
func (t *Telemetry) Mount(mux *http.ServeMux, info health.VersionInfo) {
	if t.cfg.Metrics.Enabled {
		mux.Handle(t.cfg.Metrics.Path, t.metrics.Handler())
	}
	if t.cfg.Health.Enabled {
		health.Mount(mux, &t.cfg.Health, t.health, info)
	}
}

// Middleware wraps h with trace propagation when tracing is enabled.
func (t *Telemetry) Middleware(h http.Handler) http.Handler {
	if !t.tracer.Enabled() {
		return h
	}
	return tracing.HTTPMiddleware(h)
}

// Shutdown flushes and stops the tracer.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if err := t.tracer.ForceFlush(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := t.tracer.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
