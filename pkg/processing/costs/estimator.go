package costs

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/o1x3/ctoken/pkg/pricing"
	"github.com/o1x3/ctoken/pkg/processing/tokens"
)

// Resolver maps a model identifier to a price entry. *pricing.Store and
// *pricing.Table both satisfy it.
type Resolver interface {
	Resolve(model string) (pricing.Resolution, bool)
}

// Recorder receives estimation outcomes, typically a metrics collector.
type Recorder interface {
	// RecordCost is called once per successful estimate.
	RecordCost(model string, usage Usage, breakdown Breakdown)

	// RecordFailure is called once per failed estimate with a short reason:
	// "model_not_found" or "invalid_request".
	RecordFailure(reason string)
}

// Estimator prices API calls. It is safe for concurrent use; pricing changes
// are picked up through the Resolver on every call.
type Estimator struct {
	resolver Resolver
	counter  *tokens.Counter
	recorder Recorder
	logger   *slog.Logger
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithRecorder sets the outcome recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Estimator) { e.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Estimator) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEstimator creates an estimator that prices through resolver and counts
// request tokens with counter.
func NewEstimator(resolver Resolver, counter *tokens.Counter, opts ...Option) *Estimator {
	e := &Estimator{
		resolver: resolver,
		counter:  counter,
		logger:   slog.Default().With("component", "costs.estimator"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Estimate prices a call with known token counts. Cached tokens are billed at
// the cached rate and deducted from the prompt; if cached exceeds prompt the
// uncached part is zero, never negative.
func (e *Estimator) Estimate(model string, promptTokens, completionTokens, cachedTokens int) (*Report, error) {
	usage := Usage{
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		CachedTokens:     cachedTokens,
	}
	return e.price(model, usage)
}

// EstimateFromRequest prices a request before it is sent: prompt tokens are
// counted locally and MaxTokens is taken as the completion size. It returns
// the total cost only.
func (e *Estimator) EstimateFromRequest(req Request) (float64, error) {
	if strings.TrimSpace(req.Model) == "" {
		return 0, e.fail(req.Model, fmt.Errorf("%w: model is required", ErrInvalidRequest))
	}
	if len(req.Messages) == 0 && req.Prompt == "" {
		return 0, e.fail(req.Model, fmt.Errorf("%w: messages or prompt is required", ErrInvalidRequest))
	}
	if req.MaxTokens < 0 {
		return 0, e.fail(req.Model, errNegativeTokens)
	}

	if _, ok := e.resolver.Resolve(req.Model); !ok {
		return 0, e.fail(req.Model, fmt.Errorf("%w: %w", ErrInvalidRequest, ErrModelNotFound))
	}

	counter := e.counter.ForModel(req.Model)

	var (
		promptTokens int
		err          error
	)
	if len(req.Messages) > 0 {
		promptTokens, err = counter.CountMessages(req.Messages)
	} else {
		promptTokens, err = counter.CountText(req.Prompt)
	}
	if err != nil {
		return 0, e.fail(req.Model, err)
	}

	report, err := e.Estimate(req.Model, promptTokens, req.MaxTokens, 0)
	if err != nil {
		return 0, err
	}
	return report.Total(), nil
}

// EstimateFromResponse prices a completed call from its reported usage.
func (e *Estimator) EstimateFromResponse(resp Response) (*Report, error) {
	if strings.TrimSpace(resp.Model) == "" {
		return nil, e.fail("", fmt.Errorf("%w: response has no model", ErrInvalidRequest))
	}
	if resp.Usage == nil {
		return nil, e.fail(resp.Model, fmt.Errorf("%w: response has no usage", ErrInvalidRequest))
	}
	return e.price(resp.Model, *resp.Usage)
}

// CalculateCost returns the cost of inputTokens and outputTokens for model,
// or 0 if the model is unknown.
func (e *Estimator) CalculateCost(model string, inputTokens, outputTokens int) float64 {
	report, err := e.Estimate(model, inputTokens, outputTokens, 0)
	if err != nil {
		e.logger.Debug("cost calculation skipped", "model", model, "error", err)
		return 0
	}
	return report.Total()
}

// CalculateTotalCost sums the cost of every model in usage. Models that do
// not resolve or carry invalid counts contribute 0 and do not fail the
// aggregation. Models are summed in sorted order so the result is
// deterministic.
func (e *Estimator) CalculateTotalCost(usage map[string]ModelUsage) float64 {
	models := make([]string, 0, len(usage))
	for model := range usage {
		models = append(models, model)
	}
	sort.Strings(models)

	var total float64
	for _, model := range models {
		u := usage[model]
		report, err := e.Estimate(model, u.InputTokens, u.OutputTokens, u.CachedTokens)
		if err != nil {
			e.logger.Debug("model excluded from total cost", "model", model, "error", err)
			continue
		}
		total += report.Total()
	}
	return total
}

func (e *Estimator) price(model string, usage Usage) (*Report, error) {
	if strings.TrimSpace(model) == "" {
		return nil, e.fail(model, fmt.Errorf("%w: model is required", ErrInvalidRequest))
	}
	if err := usage.validate(); err != nil {
		return nil, e.fail(model, err)
	}

	res, ok := e.resolver.Resolve(model)
	if !ok {
		return nil, e.fail(model, ErrModelNotFound)
	}

	if usage.TotalTokens == 0 {
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	}

	breakdown := Calculate(res.Entry, usage)

	if e.recorder != nil {
		e.recorder.RecordCost(res.Entry.Model, usage, breakdown)
	}

	return &Report{
		Model:           model,
		ResolvedModel:   res.Entry.Model,
		ResolvedVersion: res.Entry.Version,
		Usage:           usage,
		Breakdown:       breakdown,
	}, nil
}

func (e *Estimator) fail(model string, err error) error {
	if e.recorder != nil {
		reason := "invalid_request"
		if isModelNotFound(err) {
			reason = "model_not_found"
		}
		e.recorder.RecordFailure(reason)
	}
	return &CostEstimateError{Model: model, Err: err}
}

// Calculate applies entry's prices to usage.
func Calculate(entry pricing.PriceEntry, usage Usage) Breakdown {
	uncached := usage.PromptTokens - usage.CachedTokens
	if uncached < 0 {
		uncached = 0
	}

	b := Breakdown{
		PromptCostUncached: calculateTokenCost(uncached, entry.InputCostPer1K),
		PromptCostCached:   calculateTokenCost(usage.CachedTokens, entry.CachedInputCostPer1K),
		CompletionCost:     calculateTokenCost(usage.CompletionTokens, entry.OutputCostPer1K),
	}
	b.TotalCost = b.PromptCostUncached + b.PromptCostCached + b.CompletionCost

	return b
}

// calculateTokenCost calculates the cost for a given number of tokens.
// costPer1K is the cost per 1000 tokens in USD.
func calculateTokenCost(tokens int, costPer1K float64) float64 {
	if tokens <= 0 {
		return 0.0
	}

	return (float64(tokens) / 1000.0) * costPer1K
}
