package pricing

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyTable is returned when a source yields no price entries.
	ErrEmptyTable = errors.New("pricing table is empty")

	// ErrDuplicateEntry is returned when a table declares the same
	// (model, version) pair twice.
	ErrDuplicateEntry = errors.New("duplicate pricing entry")
)

// ParseError reports a malformed row in a pricing CSV.
type ParseError struct {
	// Line is the 1-based line number in the CSV input.
	Line int

	// Column is the header name of the offending column, if known.
	Column string

	// Err is the underlying error.
	Err error
}

func (e *ParseError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("pricing csv line %d, column %q: %v", e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("pricing csv line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// FetchError reports a failed download of remote pricing data.
type FetchError struct {
	// URL is the address that was fetched.
	URL string

	// StatusCode is the HTTP status, or 0 if no response was received.
	StatusCode int

	// Err is the underlying error.
	Err error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching pricing from %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetching pricing from %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
