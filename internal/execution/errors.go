package execution

import (
	"errors"
	"fmt"
)

// Kind classifies an item failure.
type Kind string

// Failure kinds.
const (
	KindMalformedInput     Kind = "malformed_input"
	KindMissingExecutionID Kind = "missing_execution_id"
	KindUnexpectedStatus   Kind = "unexpected_status_code"
	KindTimedOut           Kind = "timed_out"
	KindTransport          Kind = "transport_error"
)

// Error is a typed failure of a single agent execution.
type Error struct {
	// Kind classifies the failure.
	Kind Kind
	// Field names the offending parameter for malformed input.
	Field string
	// StatusCode is set for unexpected poll responses.
	StatusCode int
	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindMalformedInput:
		if e.Err != nil {
			return fmt.Sprintf("malformed %s: %v", e.Field, e.Err)
		}
		return fmt.Sprintf("malformed %s", e.Field)
	case KindMissingExecutionID:
		return "no execution id returned by the run request"
	case KindUnexpectedStatus:
		return fmt.Sprintf("unexpected status code %d while polling results", e.StatusCode)
	case KindTimedOut:
		if e.Err != nil {
			return fmt.Sprintf("execution timed out: %v", e.Err)
		}
		return "execution timed out"
	default:
		if e.Err != nil {
			return fmt.Sprintf("request failed: %v", e.Err)
		}
		return "request failed"
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the failure kind of err, or an empty Kind when err carries none.
func KindOf(err error) Kind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	return ""
}

func malformed(field string, err error) *Error {
	return &Error{Kind: KindMalformedInput, Field: field, Err: err}
}
