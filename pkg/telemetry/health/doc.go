// Package health serves liveness, readiness and version endpoints for
// "ctoken serve".
//
// Readiness is the conjunction of registered checks, run concurrently with a
// per-check timeout. RegisterPricingChecks adds the checks that matter for a
// pricing service: the table is non-empty, the last refresh succeeded, and
// (when pricing.max_staleness is set) the table is recent enough.
//
//	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
//	health.RegisterPricingChecks(checker, store, cfg.Pricing.MaxStaleness)
//	health.Mount(mux, &cfg.Telemetry.Health, checker, health.VersionInfo{Version: version})
package health
