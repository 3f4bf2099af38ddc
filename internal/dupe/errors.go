package dupe

import (
	"errors"
	"fmt"
)

// ErrBadInput reports a request the pipeline refuses to start on, such
// as a malformed or non-http URL.
var ErrBadInput = errors.New("invalid input")

// ErrFetchTimeout reports that the overall fetch deadline fired. Once it
// does, remaining retry budget is irrelevant.
var ErrFetchTimeout = errors.New("fetch deadline exceeded")

// ErrNoName reports a document that fetched fine but yielded no product
// name from any fallback selector. It is the only extraction-time hard
// failure; every other attribute degrades to empty or zero.
var ErrNoName = errors.New("product name not found")

// ExhaustedError wraps the last underlying error once the retry budget is
// spent.
type ExhaustedError struct {
	Attempts int
	Cause    error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("fetch failed after %d attempts: %v", e.Attempts, e.Cause)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Cause
}

// StatusError carries the HTTP status of a non-2xx merchant response, so
// callers can tell a missing page apart from a flaky one.
type StatusError struct {
	Code int
	Err  error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %v", e.Code, e.Err)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}
