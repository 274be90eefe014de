// Package metrics exposes ctoken activity as Prometheus metrics.
//
// A single Collector implements the recorder interfaces of the pricing,
// costs and tokens packages:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	store := pricing.NewStore(nil, pricing.WithRecorder(collector))
//	client := ctoken.New(
//		ctoken.WithStore(store),
//		ctoken.WithCostRecorder(collector),
//		ctoken.WithTokenRecorder(collector),
//	)
//	mux.Handle("/metrics", collector.Handler())
//
// # Metrics
//
//   - cost_usd_total, cost_per_call_usd, billed_tokens_total by model
//   - estimate_failures_total by reason
//   - token_counts_total, tokens_counted_total, token_count_size by kind
//   - price_resolutions_total by rule
//   - pricing_refresh_total, pricing_last_refresh_timestamp_seconds by source
//     and status, and the pricing_entries gauge
//
// Model label values are capped by a CardinalityLimiter; models beyond the
// cap are reported as "other".
package metrics
