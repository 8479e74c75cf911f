package model

import (
	"errors"
	"fmt"
)

var (
	// ErrSchemaMissing signals a JSON response without an output schema.
	ErrSchemaMissing = errors.New("inferform: output schema missing")
	// ErrUnsupportedMIME signals a response content type no widget can show.
	ErrUnsupportedMIME = errors.New("inferform: unsupported response content type")
	// ErrEndpointNotFound signals that no prediction endpoint matched.
	ErrEndpointNotFound = errors.New("inferform: prediction endpoint not found")
	// ErrCallInFlight signals an overlapping call on a single-flight session.
	ErrCallInFlight = errors.New("inferform: a call is already in flight")
)

// UnsupportedTypeError reports a parameter or output field whose declared kind
// cannot be classified. It is fatal at translation time.
type UnsupportedTypeError struct {
	Name string
	Kind Kind
	// Output distinguishes response fields from request parameters.
	Output bool
}

func (e *UnsupportedTypeError) Error() string {
	side := "input"
	if e.Output {
		side = "output"
	}
	return fmt.Sprintf("inferform: unsupported %s type for %q: %q", side, e.Name, string(e.Kind))
}

// RemoteCallError reports a non-200 prediction response.
type RemoteCallError struct {
	Status int
	Body   string
}

func (e *RemoteCallError) Error() string {
	return fmt.Sprintf("inferform: remote call failed with status %d: %s", e.Status, e.Body)
}

// RemoteLogicError reports a payload that marks itself as failed.
type RemoteLogicError struct {
	Message string
}

func (e *RemoteLogicError) Error() string {
	return fmt.Sprintf("inferform: remote error: %s", e.Message)
}

// ValueError reports a widget value that cannot be converted to the declared
// parameter kind.
type ValueError struct {
	Name string
	Kind Kind
	Err  error
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("inferform: invalid %s value for %q: %v", string(e.Kind), e.Name, e.Err)
}

func (e *ValueError) Unwrap() error {
	return e.Err
}
