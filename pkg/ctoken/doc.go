// Package ctoken is the one-call entry point for pricing OpenAI-style API
// calls.
//
// Calculate dispatches on the shape of its input:
//
//	// A completed response: full breakdown
//	report, err := ctoken.Calculate(ctoken.RawResponse{Model: resp.Model, Usage: &usage})
//
//	// A streamed response: usage from the final chunk, or counted from deltas
//	report, err = ctoken.Calculate(ctoken.ChunkSequence(chunks))
//
//	// Known counts or a pre-call estimate: a bare Cost
//	cost, err := ctoken.Calculate(ctoken.ExplicitRequest{
//		Model:        "gpt-4o-mini",
//		InputTokens:  1000,
//		OutputTokens: 500,
//	})
//
// Raw JSON (a response body, an array of chunks or a request) is handled by
// ParseInput, and server-sent event streams by ParseSSE.
//
// The package-level functions use a default Client built on first use. Build
// a Client with New or NewFromConfig to control the pricing store, tokenizer
// and metrics.
package ctoken
