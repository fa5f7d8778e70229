package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tinywideclouds/go-push-relay/pkg/dispatch"
)

// TokenStore implements dispatch.TokenStore against Google Cloud Firestore.
// The push token lives as a field on the user's own document, which is the
// same place the mobile client writes it during registration.
type TokenStore struct {
	client *firestore.Client
}

func NewTokenStore(client *firestore.Client) *TokenStore {
	return &TokenStore{client: client}
}

// tokenRecord is the slice of the user document the relay cares about.
type tokenRecord struct {
	FCMToken       string    `firestore:"fcmToken"`
	TokenUpdatedAt time.Time `firestore:"tokenUpdatedAt"`
}

func (s *TokenStore) GetToken(ctx context.Context, userID string) (string, error) {
	snap, err := s.userRef(userID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return "", dispatch.ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("firestore read failed: %w", err)
	}

	var record tokenRecord
	if err := snap.DataTo(&record); err != nil {
		return "", fmt.Errorf("user document %q has unexpected shape: %w", userID, err)
	}
	if record.FCMToken == "" {
		return "", dispatch.ErrTokenNotFound
	}
	return record.FCMToken, nil
}

// SetToken upserts the token field, leaving the rest of the user document alone.
func (s *TokenStore) SetToken(ctx context.Context, userID string, token string) error {
	_, err := s.userRef(userID).Set(ctx, map[string]interface{}{
		"fcmToken":       token,
		"tokenUpdatedAt": time.Now().UTC(),
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("firestore write failed: %w", err)
	}
	return nil
}

// ClearToken removes the token field. Clearing a user that has no document or
// no token is treated as success so sign-out stays idempotent.
func (s *TokenStore) ClearToken(ctx context.Context, userID string) error {
	_, err := s.userRef(userID).Update(ctx, []firestore.Update{
		{Path: "fcmToken", Value: firestore.Delete},
	})
	if status.Code(err) == codes.NotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("firestore delete failed: %w", err)
	}
	return nil
}

func (s *TokenStore) userRef(userID string) *firestore.DocumentRef {
	return s.client.Collection("users").Doc(userID)
}
