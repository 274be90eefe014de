package costs

import (
	"errors"
	"fmt"
)

var (
	// ErrModelNotFound is returned when no price entry matches a model.
	ErrModelNotFound = errors.New("model not found in pricing table")

	// ErrInvalidRequest marks caller mistakes: a request with neither
	// messages nor prompt, a response without model or usage, negative
	// counts.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrNilInput is returned when there is nothing to estimate.
	ErrNilInput = errors.New("nil input")

	errNegativeTokens = fmt.Errorf("%w: token counts cannot be negative", ErrInvalidRequest)
)

// CostEstimateError reports a failed estimate. Every error returned by the
// Estimator methods is a *CostEstimateError.
type CostEstimateError struct {
	// Model is the model that was being priced, if known.
	Model string

	// Err is the underlying error.
	Err error
}

func (e *CostEstimateError) Error() string {
	if e.Model == "" {
		return fmt.Sprintf("estimating cost: %v", e.Err)
	}
	return fmt.Sprintf("estimating cost for %q: %v", e.Model, e.Err)
}

func (e *CostEstimateError) Unwrap() error {
	return e.Err
}

func isModelNotFound(err error) bool {
	return errors.Is(err, ErrModelNotFound)
}
