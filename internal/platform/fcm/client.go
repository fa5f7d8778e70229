// Package fcm provides the Firebase Cloud Messaging provider client.
package fcm

import (
	"context"
	"fmt"
	"log/slog"

	"firebase.google.com/go/v4/messaging"
	"github.com/tinywideclouds/go-push-relay/pkg/dispatch"
)

// MessagingClient defines the subset of the Firebase Messaging API we use.
// This interface allows us to mock the client for unit testing.
type MessagingClient interface {
	Send(ctx context.Context, msg *messaging.Message) (string, error)
}

type Client struct {
	client MessagingClient // *messaging.Client satisfies this
	logger *slog.Logger
}

// NewClient accepts the concrete Firebase client but stores it as the interface.
func NewClient(client MessagingClient, logger *slog.Logger) *Client {
	return &Client{
		client: client,
		logger: logger.With("component", "FCMClient"),
	}
}

// Send forwards one notification to a single device token and returns the
// FCM message id. SDK validation errors are mapped onto the relay's provider
// error codes so callers can tell a dead token from a transport failure.
func (c *Client) Send(ctx context.Context, token string, title, body string, data map[string]string) (string, error) {
	msg := &messaging.Message{
		Token: token,
		Data:  data,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
	}

	messageID, err := c.client.Send(ctx, msg)
	if err != nil {
		switch {
		case messaging.IsRegistrationTokenNotRegistered(err):
			return "", &dispatch.ProviderError{
				Code:    dispatch.ProviderCodeInvalidToken,
				Message: "registration token is no longer valid",
				Err:     err,
			}
		case messaging.IsInvalidArgument(err):
			return "", &dispatch.ProviderError{
				Code:    dispatch.ProviderCodeInvalidArgument,
				Message: err.Error(),
				Err:     err,
			}
		default:
			return "", fmt.Errorf("fcm transport failed: %w", err)
		}
	}

	c.logger.Debug("FCM accepted message", "message_id", messageID)
	return messageID, nil
}
