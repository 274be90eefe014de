package ctoken

import (
	"context"

	"go.opentelemetry.io/otel"

	"github.com/o1x3/ctoken/pkg/processing/costs"
	"github.com/o1x3/ctoken/pkg/telemetry/tracing"
)

const tracerName = "github.com/o1x3/ctoken/pkg/ctoken"

// CalculateContext is Calculate under a "ctoken.calculate" span carrying the
// model, token counts and cost. It is a no-op span unless a tracer provider
// is installed.
func (c *Client) CalculateContext(ctx context.Context, in Input) (Result, error) {
	_, span := otel.Tracer(tracerName).Start(ctx, "ctoken.calculate")
	defer span.End()

	span.SetAttributes(tracing.AttrInputKindValue(inputKind(in)))

	res, err := c.calculate(in)
	if err != nil {
		tracing.SetError(span, err)
		return nil, err
	}

	switch r := res.(type) {
	case *costs.Report:
		tracing.SetModelAttributes(span, r.Model, r.ResolvedModel, r.ResolvedVersion)
		tracing.SetTokenAttributes(span, r.Usage.PromptTokens, r.Usage.CompletionTokens, r.Usage.CachedTokens, r.Usage.TotalTokens)
	default:
		if m := inputModel(in); m != "" {
			tracing.SetModelAttributes(span, m, "", "")
		}
	}
	tracing.SetCostAttributes(span, res.Total())

	return res, nil
}

func inputKind(in Input) string {
	switch in.(type) {
	case RawResponse, *RawResponse:
		return "response"
	case ChunkSequence, *ChunkSequence:
		return "chunks"
	case ExplicitRequest, *ExplicitRequest:
		return "request"
	}
	return "unknown"
}

func inputModel(in Input) string {
	switch v := in.(type) {
	case ExplicitRequest:
		return v.Model
	case *ExplicitRequest:
		if v != nil {
			return v.Model
		}
	}
	return ""
}
