package tokens

import (
	"errors"
	"fmt"
)

// ErrUnsupportedInput is returned when Count receives a value it cannot
// interpret as text, a message or a conversation.
var ErrUnsupportedInput = errors.New("unsupported input")

// TokenCountError reports a failed token count.
type TokenCountError struct {
	// Input describes what was being counted (a Go type or a field path).
	Input string

	// Err is the underlying error.
	Err error
}

func (e *TokenCountError) Error() string {
	return fmt.Sprintf("counting tokens for %s: %v", e.Input, e.Err)
}

func (e *TokenCountError) Unwrap() error {
	return e.Err
}
