package engine

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrNotReady is returned when synthesis is attempted before the
	// backend finished initializing.
	ErrNotReady = errors.New("engine: backend not ready")

	// ErrEmptyOutput is returned when the backend produced no audio
	// for non-empty input.
	ErrEmptyOutput = errors.New("engine: backend returned empty output")

	// ErrNoCommand is returned when a proc backend is constructed
	// without a model-runner command.
	ErrNoCommand = errors.New("engine: model-runner command required")
)

// SynthesisError wraps a backend failure with backend context.
type SynthesisError struct {
	Backend string
	Err     error
}

// Error implements the error interface.
func (e *SynthesisError) Error() string {
	return fmt.Sprintf("engine [%s]: %v", e.Backend, e.Err)
}

// Unwrap returns the underlying error.
func (e *SynthesisError) Unwrap() error {
	return e.Err
}

// WrapError wraps an error with backend context.
func WrapError(backend string, err error) error {
	if err == nil {
		return nil
	}
	return &SynthesisError{Backend: backend, Err: err}
}
