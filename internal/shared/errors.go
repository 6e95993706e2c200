package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrUnknownDocumentType indicates a document type code absent from the registry.
	ErrUnknownDocumentType = errors.New("unknown document type")
	// ErrSignPolicyViolation indicates amounts contradicting the document type's sign policy.
	ErrSignPolicyViolation = errors.New("sign policy violation")
	// ErrDuplicateDocument indicates a (company, period, document number, counterparty) tuple already recorded.
	ErrDuplicateDocument = errors.New("duplicate document")
	// ErrImmutableState indicates an attempted mutation of a submitted or paid declaration.
	ErrImmutableState = errors.New("declaration is immutable in its current status")
	// ErrInvalidTransition indicates a declaration status change not allowed by policy.
	ErrInvalidTransition = errors.New("declaration transition invalid")
	// ErrExternalService indicates the VIES registry could not be reached. Always advisory.
	ErrExternalService = errors.New("external service unavailable")
	// ErrAggregationIntegrity indicates a stored entry failed validation at aggregation time.
	// Fatal: the declaration cannot be trusted and generation must abort.
	ErrAggregationIntegrity = errors.New("aggregation integrity failure")
)

// ValidationError reports a rejected input with the offending field and value.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("validation: %s=%q: %s", e.Field, e.Value, e.Reason)
}

// Validation builds a ValidationError for a field.
func Validation(field, value, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
