// Package telemetry wires the observability stack of ctoken.
//
// # Components
//
//   - logging: slog handlers (json, text, tint console) with request and trace
//     fields and secret redaction
//   - metrics: Prometheus counters and histograms for costs, token counts,
//     price resolutions and refreshes
//   - tracing: OpenTelemetry tracer with OTLP export
//   - health: liveness, readiness and version endpoints
//
// # Usage
//
//	tel, err := telemetry.New(&cfg.Telemetry, version, os.Stderr)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	store := pricing.NewStore(nil, pricing.WithRecorder(tel.Metrics()))
//	health.RegisterPricingChecks(tel.Health(), store, cfg.Pricing.MaxStaleness)
//
//	mux := http.NewServeMux()
//	tel.Mount(mux, health.VersionInfo{Version: version})
//	handler := tel.Middleware(mux)
package telemetry
