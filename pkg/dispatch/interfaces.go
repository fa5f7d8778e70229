// Package dispatch contains the public interfaces and domain models for the
// push relay.
package dispatch

import "context"

// Provider defines the contract for a component that can hand a notification
// to a third-party push-delivery service (e.g. Google's FCM, Expo's push API).
// A nil error means "accepted by the provider", not "delivered to the device".
type Provider interface {
	// Send forwards the notification to a single device token and returns the
	// provider-assigned message id.
	Send(ctx context.Context, token string, title, body string, data map[string]string) (string, error)
}

// TokenStore defines the contract for resolving and managing device push tokens.
// It is how the relay knows "where" to send a notification for a user.
type TokenStore interface {
	// GetToken returns the current push token for a user.
	// It returns ErrTokenNotFound when the user has no registered token.
	GetToken(ctx context.Context, userID string) (string, error)

	// SetToken registers or replaces the push token for a user (upsert).
	SetToken(ctx context.Context, userID string, token string) error

	// ClearToken removes the push token for a user, e.g. on sign-out.
	// Clearing an absent token is not an error.
	ClearToken(ctx context.Context, userID string) error
}

// History defines the contract for the in-process log of dispatch attempts.
type History interface {
	// Append records one accepted dispatch. Records are never mutated.
	Append(record Record)

	// List returns all records in insertion order.
	List() []Record
}
