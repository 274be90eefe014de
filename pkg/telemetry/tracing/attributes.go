package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys used by ctoken.
const (
	AttrModel            = "ctoken.model"
	AttrResolvedModel    = "ctoken.resolved_model"
	AttrResolvedVersion  = "ctoken.resolved_version"
	AttrInputKind        = "ctoken.input_kind"
	AttrPromptTokens     = "ctoken.tokens.prompt"
	AttrCompletionTokens = "ctoken.tokens.completion"
	AttrCachedTokens     = "ctoken.tokens.cached"
	AttrTotalTokens      = "ctoken.tokens.total"
	AttrCostUSD          = "ctoken.cost.usd"
)

// SetModelAttributes records the requested model and the price entry that
// answered it. Empty resolved values are skipped.
func SetModelAttributes(span trace.Span, model, resolvedModel, resolvedVersion string) {
	attrs := []attribute.KeyValue{attribute.String(AttrModel, model)}
	if resolvedModel != "" {
		attrs = append(attrs, attribute.String(AttrResolvedModel, resolvedModel))
	}
	if resolvedVersion != "" {
		attrs = append(attrs, attribute.String(AttrResolvedVersion, resolvedVersion))
	}
	span.SetAttributes(attrs...)
}

// SetTokenAttributes records the token counts of one call.
func SetTokenAttributes(span trace.Span, prompt, completion, cached, total int) {
	span.SetAttributes(
		attribute.Int(AttrPromptTokens, prompt),
		attribute.Int(AttrCompletionTokens, completion),
		attribute.Int(AttrCachedTokens, cached),
		attribute.Int(AttrTotalTokens, total),
	)
}

// SetCostAttributes records the estimated cost in USD.
func SetCostAttributes(span trace.Span, cost float64) {
	span.SetAttributes(attribute.Float64(AttrCostUSD, cost))
}

// AttrInputKindValue returns the input kind attribute ("response", "chunks"
// or "request").
func AttrInputKindValue(kind string) attribute.KeyValue {
	return attribute.String(AttrInputKind, kind)
}
