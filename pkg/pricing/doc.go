// Package pricing provides the model price table and the resolver that maps
// free-form model identifiers to price entries.
//
// # Price Table
//
// A Table is an immutable, ordered list of PriceEntry values quoted in USD per
// 1000 tokens for uncached input, cached input and output. The built-in table
// is a Go literal compiled into the binary, mirrored by an embedded CSV in the
// vendor's per-1M notation:
//
//	Model,Version,Input,Cached input,Output
//	gpt-4o-mini,2024-07-18,$0.15,$0.075,$0.60
//
// Entries without a version are stored as "latest".
//
// # Resolution
//
// Resolve tries, in order, an exact (model, version) match such as
// "gpt-4o-mini-2024-07-18", an exact model name against a "latest" entry, and
// finally the longest table model name that prefixes the input, so
// "gpt-4-turbo-preview" resolves to "gpt-4-turbo" rather than "gpt-4". Ties
// are broken by declaration order.
//
// # Refresh
//
// A Store serves the current table behind an atomic pointer. Refresh loads a
// complete table from a Source (the published remote CSV by default) and swaps
// it in; on any failure the previous table stays in place:
//
//	store := pricing.NewStore(nil, pricing.WithSource(&pricing.RemoteSource{Timeout: 5 * time.Second}))
//	if err := store.Refresh(ctx); err != nil {
//		logger.Warn("pricing refresh failed", "error", err)
//	}
//
//	entry, ok := store.GetModelPricing("gpt-4o-mini-2024-07-18")
//
// Package-level functions operate on a process-wide default store.
package pricing
