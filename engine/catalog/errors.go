package catalog

import (
	"errors"
	"fmt"
)

// Sentinel errors for the chatbot error taxonomy. Validation failures map
// to 4xx at the HTTP boundary, unavailability to 503.
var (
	ErrEmptyQuery       = errors.New("query is empty")
	ErrQueryTooLong     = errors.New("query exceeds maximum length")
	ErrStoreUnavailable = errors.New("vector store unavailable")
	ErrModelUnavailable = errors.New("generative model unavailable")
	ErrNoEmbedding      = errors.New("no embedding for blank text")
)

// ValidationError wraps a sentinel with the offending field and value.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError creates a ValidationError.
func NewValidationError(field, value string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: wrapped}
}
