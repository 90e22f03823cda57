package schema

import (
	"errors"
	"fmt"

	"github.com/aretw0/fable/pkg/domain"
)

// ReasonRequired is the reason recorded for a missing field.
const ReasonRequired = "required"

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Key     string       // Field name
	Reason  string       // Human-readable reason for failure
	Value   domain.Value // The value that failed validation
	Missing bool         // The field was absent
}

func (e *ValidationError) Error() string {
	if e.Missing {
		return fmt.Sprintf("field %q: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("field %q: %s (got %s)", e.Key, e.Reason, e.Value.Kind())
}

// Unwrap classifies the failure as a missing field or a type mismatch.
func (e *ValidationError) Unwrap() error {
	if e.Missing {
		return domain.ErrMissingField
	}
	return domain.ErrTypeMismatch
}

// AggregateError represents multiple validation failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *AggregateError) Unwrap() []error { return e.Errors }

// ValidationErrors returns all validation errors if err is an AggregateError.
// Otherwise returns nil.
func ValidationErrors(err error) []error {
	var aggr *AggregateError
	if errors.As(err, &aggr) {
		return aggr.Errors
	}
	return nil
}
