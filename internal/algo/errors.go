package algo

import (
	"errors"
	"fmt"
)

var (
	// ErrCanceled indicates the emitter asked the algorithm to stop.
	ErrCanceled = errors.New("algo: run canceled")

	// ErrUnknownAlgorithm indicates a lookup for an id not in the registry.
	ErrUnknownAlgorithm = errors.New("algo: unknown algorithm")
)

// ValidationError reports input rejected before any state was touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Invalid builds a ValidationError for field.
func Invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ExecutionError wraps a fault raised inside an algorithm run.
type ExecutionError struct {
	Algorithm ID
	Err       error
}

func (e *ExecutionError) Error() string {
	return e.Err.Error()
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
