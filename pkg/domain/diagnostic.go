package domain

import "fmt"

// ErrorKind classifies a diagnostic.
type ErrorKind string

const (
	KindMissingReference    ErrorKind = "missing_reference"
	KindDepthExceeded       ErrorKind = "depth_exceeded"
	KindMalformedExpression ErrorKind = "malformed_expression"
	KindParseFailure        ErrorKind = "parse_failure"
	KindMissingField        ErrorKind = "missing_field"
	KindTypeMismatch        ErrorKind = "type_mismatch"
)

// Diagnostic is a non-fatal report produced while resolving or recovering.
// It implements error so callers can use errors.Is against the sentinels.
type Diagnostic struct {
	Kind ErrorKind `json:"kind"`
	// Expression is the placeholder text or field name the report is about.
	Expression string `json:"expression,omitempty"`
	Message    string `json:"message"`
	// Offset is the byte offset of Expression in its template, or -1.
	Offset int `json:"offset"`
}

func (d Diagnostic) Error() string {
	if d.Expression == "" {
		return fmt.Sprintf("%s: %s", d.Kind, d.Message)
	}
	return fmt.Sprintf("%s %q: %s", d.Kind, d.Expression, d.Message)
}

// Unwrap maps the kind onto its sentinel error.
func (d Diagnostic) Unwrap() error {
	switch d.Kind {
	case KindMissingReference:
		return ErrMissingReference
	case KindDepthExceeded:
		return ErrDepthExceeded
	case KindMalformedExpression:
		return ErrMalformedExpression
	case KindParseFailure:
		return ErrParseFailure
	case KindMissingField:
		return ErrMissingField
	case KindTypeMismatch:
		return ErrTypeMismatch
	}
	return nil
}

// HasKind reports whether any diagnostic in the list has the given kind.
func HasKind(diags []Diagnostic, kind ErrorKind) bool {
	for _, d := range diags {
		if d.Kind == kind {
			return true
		}
	}
	return false
}
