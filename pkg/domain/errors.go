package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the
// store. Non-retryable for that ID; the caller must start a new session.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionExpired is returned when a session's TTL has elapsed.
// Non-retryable; the caller must start a new session.
var ErrSessionExpired = errors.New("session expired")

// ErrCertificateExpired is returned when approval is attempted after the
// generated certificate's expiry window. Retryable by regenerating.
var ErrCertificateExpired = errors.New("certificate expired")

// ValidationError reports a single field failing a local predicate.
// Always recoverable by resubmitting with corrected input.
type ValidationError struct {
	Field  string
	Reason string
	// Valid enumerates the accepted values when the failure is a
	// closed-set mismatch (states, types, endings).
	Valid []string
}

func (e *ValidationError) Error() string {
	if len(e.Valid) > 0 {
		return fmt.Sprintf("field %q: %s (valid options: %s)", e.Field, e.Reason, strings.Join(e.Valid, ", "))
	}
	return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
}

// NewValidationError builds a field-scoped validation failure.
func NewValidationError(field, reason string, valid ...string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason, Valid: valid}
}

// RequiredFieldError reports a field needed by the current step that was
// never set by an earlier step. Recoverable by performing that step first.
type RequiredFieldError struct {
	Field string
	// Step names the earlier step that would have populated the field.
	Step Step
}

func (e *RequiredFieldError) Error() string {
	if e.Step != "" {
		return fmt.Sprintf("field %q is not set; complete the %q step first", e.Field, e.Step)
	}
	return fmt.Sprintf("field %q is not set", e.Field)
}

// NewRequiredFieldError builds a missing-precondition failure pointing at
// the step that supplies the field.
func NewRequiredFieldError(field string, step Step) *RequiredFieldError {
	return &RequiredFieldError{Field: field, Step: step}
}

// CollaboratorError wraps a failure from an external collaborator
// (name check, certificate generation). Raw collaborator errors never
// escape a handler; they are classified into this type with a suggested
// remediation.
type CollaboratorError struct {
	Op         string // e.g. "name_check", "certificate_generation"
	Retryable  bool
	Suggestion string
	Err        error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

// Retryable reports whether err is worth retrying as-is. Validation and
// missing-session failures require changed input; collaborator failures
// and certificate expiry can be retried (the latter after regeneration).
func Retryable(err error) bool {
	var collab *CollaboratorError
	if errors.As(err, &collab) {
		return collab.Retryable
	}
	return errors.Is(err, ErrCertificateExpired)
}
