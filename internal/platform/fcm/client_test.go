package fcm_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tinywideclouds/go-push-relay/internal/platform/fcm"
	"github.com/tinywideclouds/go-push-relay/pkg/dispatch"
)

// MockClient satisfies the MessagingClient interface
type MockClient struct {
	mock.Mock
}

func (m *MockClient) Send(ctx context.Context, msg *messaging.Message) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFCMSend(t *testing.T) {
	logger := newTestLogger()
	ctx := context.Background()

	t.Run("Happy Path", func(t *testing.T) {
		mockClient := new(MockClient)
		client := fcm.NewClient(mockClient, logger)

		mockClient.On("Send", ctx, mock.MatchedBy(func(msg *messaging.Message) bool {
			return msg.Token == "tok-1" &&
				msg.Notification.Title == "Hi" &&
				msg.Notification.Body == "there" &&
				msg.Data["type"] == "message"
		})).Return("projects/p/messages/m1", nil)

		id, err := client.Send(ctx, "tok-1", "Hi", "there", map[string]string{"type": "message"})

		require.NoError(t, err)
		assert.Equal(t, "projects/p/messages/m1", id)
		mockClient.AssertExpectations(t)
	})

	t.Run("Transport Failure", func(t *testing.T) {
		mockClient := new(MockClient)
		client := fcm.NewClient(mockClient, logger)

		mockClient.On("Send", ctx, mock.Anything).Return("", errors.New("network down"))

		_, err := client.Send(ctx, "tok-1", "Hi", "there", nil)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "transport failed")
		var pe *dispatch.ProviderError
		assert.False(t, errors.As(err, &pe))
	})

	// Note: We rely on the integration environment to verify the mapping of
	// IsRegistrationTokenNotRegistered / IsInvalidArgument responses, as the
	// Firebase SDK's internal error types are brittle to construct by hand.
}
