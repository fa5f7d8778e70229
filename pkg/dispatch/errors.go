package dispatch

import (
	"errors"
	"fmt"
)

// ErrTokenNotFound is returned by TokenStore implementations when a user has
// no registered push token.
var ErrTokenNotFound = errors.New("push token not found")

// Provider error codes.
const (
	// ProviderCodeInvalidToken marks a token the provider considers dead or
	// malformed. The token will never work; callers should re-register.
	ProviderCodeInvalidToken = "invalid-token"
	// ProviderCodeInvalidArgument marks a message the provider rejected as
	// structurally invalid.
	ProviderCodeInvalidArgument = "invalid-argument"
	// ProviderCodeUnavailable marks a transport or provider-side failure.
	ProviderCodeUnavailable = "unavailable"
	// ProviderCodeTimeout marks a provider call that exceeded the configured bound.
	ProviderCodeTimeout = "deadline-exceeded"
)

// ValidationError reports a missing or empty required field.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field %q is required", e.Field)
}

// RecipientNotFoundError reports a recipient id with no stored push token.
// No send is attempted for such a recipient.
type RecipientNotFoundError struct {
	UserID string
}

func (e *RecipientNotFoundError) Error() string {
	return fmt.Sprintf("no push token registered for recipient %q", e.UserID)
}

func (e *RecipientNotFoundError) Unwrap() error { return ErrTokenNotFound }

// ProviderError reports a send the push provider rejected or failed.
// It is surfaced verbatim to the caller; the relay never retries.
type ProviderError struct {
	Code    string
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error (%s): %s", e.Code, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsTimeout reports whether err is the timeout variant of a provider failure.
func IsTimeout(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Code == ProviderCodeTimeout
}
