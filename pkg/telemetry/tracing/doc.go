// Package tracing sets up OpenTelemetry tracing for ctoken.
//
// New installs a global tracer provider exporting over OTLP/gRPC, so the
// spans started with otel.Tracer elsewhere (pricing.refresh, pricing.fetch,
// ctoken.calculate) are exported without further wiring. When tracing is
// disabled New returns a noop Tracer and leaves the global provider alone.
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
// HTTPMiddleware continues W3C trace context from incoming requests.
package tracing
