//go:build integration

package firestore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/illmade-knight/go-test/emulators"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fs "github.com/tinywideclouds/go-push-relay/internal/storage/firestore"
	"github.com/tinywideclouds/go-push-relay/pkg/dispatch"
)

func setupSuite(t *testing.T) (context.Context, *firestore.Client, *fs.TokenStore) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	projectID := "test-token-store"
	conn := emulators.SetupFirestoreEmulator(t, ctx, emulators.GetDefaultFirestoreConfig(projectID))
	client, err := firestore.NewClient(ctx, projectID, conn.ClientOptions...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return ctx, client, fs.NewTokenStore(client)
}

func TestTokenStore_Integration(t *testing.T) {
	ctx, client, store := setupSuite(t)

	t.Run("Registration Lifecycle", func(t *testing.T) {
		userID := "user-lifecycle"

		// 1. Register
		require.NoError(t, store.SetToken(ctx, userID, "tok-device-1"))

		// 2. Resolve
		token, err := store.GetToken(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, "tok-device-1", token)

		// 3. Re-register replaces (a user has one current token)
		require.NoError(t, store.SetToken(ctx, userID, "tok-device-2"))
		token, err = store.GetToken(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, "tok-device-2", token)

		// 4. Clear
		require.NoError(t, store.ClearToken(ctx, userID))
		_, err = store.GetToken(ctx, userID)
		assert.True(t, errors.Is(err, dispatch.ErrTokenNotFound))
	})

	t.Run("Unknown user resolves to not found", func(t *testing.T) {
		_, err := store.GetToken(ctx, "never-registered")
		assert.True(t, errors.Is(err, dispatch.ErrTokenNotFound))
	})

	t.Run("Clearing an absent token is a no-op", func(t *testing.T) {
		assert.NoError(t, store.ClearToken(ctx, "never-registered"))
	})

	t.Run("Set preserves unrelated user fields", func(t *testing.T) {
		userID := "user-with-profile"
		_, err := client.Collection("users").Doc(userID).Set(ctx, map[string]interface{}{
			"displayName": "Alice",
		})
		require.NoError(t, err)

		require.NoError(t, store.SetToken(ctx, userID, "tok-1"))

		snap, err := client.Collection("users").Doc(userID).Get(ctx)
		require.NoError(t, err)
		data := snap.Data()
		assert.Equal(t, "Alice", data["displayName"])
		assert.Equal(t, "tok-1", data["fcmToken"])
	})
}
