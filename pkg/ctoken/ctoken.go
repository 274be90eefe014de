package ctoken

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/o1x3/ctoken/pkg/config"
	"github.com/o1x3/ctoken/pkg/pricing"
	"github.com/o1x3/ctoken/pkg/processing/costs"
	"github.com/o1x3/ctoken/pkg/processing/tokens"
)

// Client ties a pricing store, a token counter and an estimator together.
// It is safe for concurrent use.
type Client struct {
	store     *pricing.Store
	counter   *tokens.Counter
	estimator *costs.Estimator
}

// Option configures a Client.
type Option func(*options)

type options struct {
	store         *pricing.Store
	tokenizer     tokens.Tokenizer
	model         string
	costRecorder  costs.Recorder
	tokenRecorder tokens.Recorder
	logger        *slog.Logger
}

// WithStore sets the pricing store. The default is pricing.Default().
func WithStore(s *pricing.Store) Option {
	return func(o *options) { o.store = s }
}

// WithTokenizer sets the tokenizer. The default is a BPE tokenizer.
func WithTokenizer(t tokens.Tokenizer) Option {
	return func(o *options) { o.tokenizer = t }
}

// WithDefaultModel sets the model Count uses when none is given.
func WithDefaultModel(model string) Option {
	return func(o *options) { o.model = model }
}

// WithCostRecorder sets the recorder for estimate outcomes.
func WithCostRecorder(r costs.Recorder) Option {
	return func(o *options) { o.costRecorder = r }
}

// WithTokenRecorder sets the recorder for token counts.
func WithTokenRecorder(r tokens.Recorder) Option {
	return func(o *options) { o.tokenRecorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New creates a client.
func New(opts ...Option) *Client {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	if o.store == nil {
		o.store = pricing.Default()
	}
	if o.tokenizer == nil {
		o.tokenizer = tokens.NewBPETokenizer(tokens.DefaultEncoding, tokens.DefaultCacheSize)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	counter := tokens.NewCounter(o.tokenizer, o.model)
	if o.tokenRecorder != nil {
		counter = counter.WithRecorder(o.tokenRecorder)
	}

	estOpts := []costs.Option{costs.WithLogger(o.logger.With("component", "costs.estimator"))}
	if o.costRecorder != nil {
		estOpts = append(estOpts, costs.WithRecorder(o.costRecorder))
	}

	return &Client{
		store:     o.store,
		counter:   counter,
		estimator: costs.NewEstimator(o.store, counter, estOpts...),
	}
}

// NewFromConfig creates a client whose tokenizer and default model follow
// cfg.Tokens. Options given explicitly take precedence.
func NewFromConfig(cfg *config.Config, opts ...Option) (*Client, error) {
	tok, err := tokens.NewTokenizer(&cfg.Tokens)
	if err != nil {
		return nil, fmt.Errorf("failed to create tokenizer: %w", err)
	}

	base := []Option{WithTokenizer(tok), WithDefaultModel(cfg.Tokens.DefaultModel)}
	return New(append(base, opts...)...), nil
}

// Calculate prices in. Responses and chunk sequences return a *costs.Report;
// explicit requests return a Cost. A nil input fails with a
// *costs.CostEstimateError wrapping costs.ErrNilInput.
func (c *Client) Calculate(in Input) (Result, error) {
	return c.CalculateContext(context.Background(), in)
}

func (c *Client) calculate(in Input) (Result, error) {
	switch v := in.(type) {
	case nil:
		return nil, nilInput()
	case RawResponse:
		return reportResult(c.estimator.EstimateFromResponse(costs.Response{Model: v.Model, Usage: v.Usage}))
	case *RawResponse:
		if v == nil {
			return nil, nilInput()
		}
		return c.calculate(*v)
	case ChunkSequence:
		resp, err := v.accumulate(c.counter)
		if err != nil {
			return nil, &costs.CostEstimateError{Model: resp.Model, Err: err}
		}
		return reportResult(c.estimator.EstimateFromResponse(resp))
	case *ChunkSequence:
		if v == nil {
			return nil, nilInput()
		}
		return c.calculate(*v)
	case ExplicitRequest:
		return c.explicit(v)
	case *ExplicitRequest:
		if v == nil {
			return nil, nilInput()
		}
		return c.explicit(*v)
	}

	return nil, &costs.CostEstimateError{Err: fmt.Errorf("%w: unsupported input %T", costs.ErrInvalidRequest, in)}
}

func (c *Client) explicit(r ExplicitRequest) (Result, error) {
	if r.isEstimate() {
		total, err := c.estimator.EstimateFromRequest(costs.Request{
			Model:     r.Model,
			Messages:  r.Messages,
			Prompt:    r.Prompt,
			MaxTokens: r.MaxTokens,
		})
		if err != nil {
			return nil, err
		}
		return Cost(total), nil
	}

	report, err := c.estimator.Estimate(r.Model, r.InputTokens, r.OutputTokens, r.CachedTokens)
	if err != nil {
		return nil, err
	}
	return Cost(report.Total()), nil
}

// CalculateJSON parses data with ParseInput and prices it.
func (c *Client) CalculateJSON(data []byte) (Result, error) {
	in, err := ParseInput(data)
	if err != nil {
		return nil, err
	}
	return c.Calculate(in)
}

// Count counts tokens in v for the client's default model. See
// tokens.Counter.Count for the accepted shapes.
func (c *Client) Count(v any) (int, error) {
	return c.counter.Count(v)
}

// CountFor counts tokens in v for model.
func (c *Client) CountFor(model string, v any) (int, error) {
	return c.counter.ForModel(model).Count(v)
}

// Resolve maps model to its price entry.
func (c *Client) Resolve(model string) (pricing.Resolution, bool) {
	return c.store.Resolve(model)
}

// RefreshPricing reloads the client's pricing store from its source.
func (c *Client) RefreshPricing(ctx context.Context) error {
	return c.store.Refresh(ctx)
}

// Estimator returns the underlying estimator.
func (c *Client) Estimator() *costs.Estimator {
	return c.estimator
}

// Counter returns the underlying token counter.
func (c *Client) Counter() *tokens.Counter {
	return c.counter
}

// Store returns the pricing store.
func (c *Client) Store() *pricing.Store {
	return c.store
}

func reportResult(r *costs.Report, err error) (Result, error) {
	if err != nil {
		return nil, err
	}
	return r, nil
}

func nilInput() error {
	return &costs.CostEstimateError{Err: costs.ErrNilInput}
}

var (
	defaultOnce   sync.Once
	defaultClient *Client
)

// Default returns the process-wide client, built on first use with the
// default pricing store and a BPE tokenizer.
func Default() *Client {
	defaultOnce.Do(func() {
		defaultClient = New()
	})
	return defaultClient
}

// Calculate prices in with the default client.
func Calculate(in Input) (Result, error) {
	return Default().Calculate(in)
}

// Count counts tokens in v with the default client.
func Count(v any) (int, error) {
	return Default().Count(v)
}

// RefreshPricing refreshes the default client's pricing store.
func RefreshPricing(ctx context.Context) error {
	return Default().RefreshPricing(ctx)
}
