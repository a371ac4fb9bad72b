// Package apperrors defines the error taxonomy shared across services
// and handlers. Handlers map these onto HTTP status codes in one place.
package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates a referenced block, purchase, or subscription
// does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError indicates missing or malformed required input.
// Never retried automatically.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError creates a validation error for a named field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// InvalidTransitionError indicates an attempted state change that the
// lifecycle tables do not permit. Never coerced to a valid state.
type InvalidTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s transition from %s to %s", e.Entity, e.From, e.To)
}

// BillingCancellationError indicates the external billing platform
// rejected or failed a cancellation. Local state is untouched when this
// is returned; the upstream message must be shown to the merchant verbatim.
type BillingCancellationError struct {
	ChargeID string
	Upstream string
}

func (e *BillingCancellationError) Error() string {
	return fmt.Sprintf("billing cancellation failed for charge %s: %s", e.ChargeID, e.Upstream)
}

// UpstreamUnavailableError indicates an external collaborator (cart
// source, block registry) could not be reached.
type UpstreamUnavailableError struct {
	Upstream string
	Err      error
}

func (e *UpstreamUnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Upstream, e.Err)
}

func (e *UpstreamUnavailableError) Unwrap() error {
	return e.Err
}
