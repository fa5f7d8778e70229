// Package dispatcher implements the validate → resolve → send → log pipeline.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tinywideclouds/go-push-relay/pkg/dispatch"
)

const DefaultProviderTimeout = 10 * time.Second

// Dispatcher resolves a recipient's push token and forwards one notification
// through the configured provider. A dispatch is single-attempt and fail-fast:
// no retries, no deduplication. Calling it twice with the same logical event
// sends two pushes; callers own at-most-once semantics.
type Dispatcher struct {
	provider dispatch.Provider
	tokens   dispatch.TokenStore
	history  dispatch.History
	timeout  time.Duration
	logger   *slog.Logger
}

func New(
	provider dispatch.Provider,
	tokens dispatch.TokenStore,
	history dispatch.History,
	timeout time.Duration,
	logger *slog.Logger,
) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}
	return &Dispatcher{
		provider: provider,
		tokens:   tokens,
		history:  history,
		timeout:  timeout,
		logger:   logger.With("component", "Dispatcher"),
	}
}

// Dispatch runs one attempt end to end. Side effects are strictly one provider
// call and, on provider success, one history append.
func (d *Dispatcher) Dispatch(ctx context.Context, req dispatch.Request) dispatch.Result {
	if strings.TrimSpace(req.Title) == "" {
		return failure(&dispatch.ValidationError{Field: "title"})
	}
	if strings.TrimSpace(req.Body) == "" {
		return failure(&dispatch.ValidationError{Field: "body"})
	}

	token, err := d.resolveToken(ctx, req)
	if err != nil {
		return failure(err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	messageID, err := d.provider.Send(sendCtx, token, req.Title, req.Body, req.Data)
	if err != nil {
		err = asProviderError(err)
		d.logger.Warn("Provider rejected dispatch", "recipient_id", req.RecipientID, "err", err)
		return failure(err)
	}

	d.history.Append(dispatch.Record{
		ID:        uuid.NewString(),
		Token:     token,
		Title:     req.Title,
		Body:      req.Body,
		Timestamp: time.Now().UTC(),
	})

	d.logger.Info("Notification dispatched", "recipient_id", req.RecipientID, "provider_message_id", messageID)
	return dispatch.Result{OK: true, ProviderMessageID: messageID}
}

// resolveToken applies the precedence rule: an explicit token wins, otherwise
// the recipient id is looked up. A missing token is terminal, not retried.
func (d *Dispatcher) resolveToken(ctx context.Context, req dispatch.Request) (string, error) {
	if req.Token != "" {
		return req.Token, nil
	}
	if req.RecipientID == "" {
		return "", &dispatch.ValidationError{Field: "token"}
	}

	token, err := d.tokens.GetToken(ctx, req.RecipientID)
	if errors.Is(err, dispatch.ErrTokenNotFound) {
		return "", &dispatch.RecipientNotFoundError{UserID: req.RecipientID}
	}
	if err != nil {
		return "", fmt.Errorf("token lookup failed for %q: %w", req.RecipientID, err)
	}
	if token == "" {
		return "", &dispatch.RecipientNotFoundError{UserID: req.RecipientID}
	}
	return token, nil
}

// asProviderError normalizes whatever the provider client returned. Typed
// provider errors pass through verbatim; a deadline becomes the timeout
// variant; anything else is wrapped as unavailable.
func asProviderError(err error) error {
	var pe *dispatch.ProviderError
	if errors.As(err, &pe) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &dispatch.ProviderError{
			Code:    dispatch.ProviderCodeTimeout,
			Message: "provider call exceeded timeout",
			Err:     err,
		}
	}
	return &dispatch.ProviderError{
		Code:    dispatch.ProviderCodeUnavailable,
		Message: err.Error(),
		Err:     err,
	}
}

func failure(err error) dispatch.Result {
	return dispatch.Result{Err: err}
}
