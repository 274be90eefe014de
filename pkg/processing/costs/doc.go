// Package costs turns token counts and resolved prices into USD costs.
//
// # Pricing Model
//
// Prices are quoted per 1K tokens and split three ways:
//
//	prompt_cost_uncached = max(prompt - cached, 0) * input_per_1k  / 1000
//	prompt_cost_cached   = cached                  * cached_per_1k / 1000
//	completion_cost      = completion              * output_per_1k / 1000
//	total_cost           = sum of the three
//
// Costs are float64 at full precision; Breakdown.Rounded rounds to six
// decimal places for display.
//
// # Usage
//
//	estimator := costs.NewEstimator(pricing.Default(), tokens.NewCounter(tok, ""))
//
//	// Known token counts
//	report, err := estimator.Estimate("gpt-4o-mini", 1000, 500, 0)
//
//	// Before sending a request: prompt counted locally, max_tokens as completion
//	cost, err := estimator.EstimateFromRequest(costs.Request{
//		Model:     "gpt-4o",
//		Messages:  messages,
//		MaxTokens: 256,
//	})
//
//	// After the response
//	report, err = estimator.EstimateFromResponse(costs.Response{Model: resp.Model, Usage: &usage})
//
// # Strict and Lenient Paths
//
// Single estimates fail with *CostEstimateError when the model does not
// resolve (ErrModelNotFound) or the input is incomplete (ErrInvalidRequest).
// CalculateCost and CalculateTotalCost are lenient: an unknown model costs 0,
// so one bad entry does not abort a multi-model report.
package costs
