package ctoken

import (
	"github.com/o1x3/ctoken/pkg/processing/costs"
	"github.com/o1x3/ctoken/pkg/processing/tokens"
)

// Input is one of the shapes Calculate accepts: RawResponse, ChunkSequence or
// ExplicitRequest (or pointers to them).
type Input interface {
	isInput()
}

// RawResponse is a completed API response: the model that answered and the
// usage it reported.
type RawResponse struct {
	Model string
	Usage *costs.Usage
}

// Chunk is one streamed response chunk. Usage is normally set on the final
// chunk only, and only when the caller asked for it.
type Chunk struct {
	Model string
	Delta string
	Usage *costs.Usage
}

// ChunkSequence is a streamed response, in arrival order.
type ChunkSequence []Chunk

// ExplicitRequest prices a call from caller-supplied numbers. With Messages or
// Prompt set it is a pre-call estimate (prompt counted locally, MaxTokens as
// the completion); otherwise the token counts are used as given.
type ExplicitRequest struct {
	Model string

	InputTokens  int
	OutputTokens int
	CachedTokens int

	Messages  []tokens.Message
	Prompt    string
	MaxTokens int
}

func (ExplicitRequest) isInput() {}
func (RawResponse) isInput()     {}
func (ChunkSequence) isInput()   {}

func (r ExplicitRequest) isEstimate() bool {
	return len(r.Messages) > 0 || r.Prompt != ""
}

// Result is what Calculate returns: a *costs.Report for responses and chunk
// sequences, a Cost for explicit requests.
type Result interface {
	Total() float64
}

// Cost is a bare total in USD.
type Cost float64

// Total returns c as a float64.
func (c Cost) Total() float64 {
	return float64(c)
}

var (
	_ Result = Cost(0)
	_ Result = (*costs.Report)(nil)
)
