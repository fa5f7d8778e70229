// Package expo provides the Expo push service provider client.
//
// Expo's push API is a plain HTTPS endpoint, so unlike FCM there is no SDK:
// we post the message JSON and read back a delivery ticket.
package expo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/tinywideclouds/go-push-relay/pkg/dispatch"
	"github.com/tinywideclouds/go-push-relay/pushrelay/config"
)

type Client struct {
	url         string
	accessToken string
	logger      *slog.Logger
	httpClient  *http.Client
}

func NewClient(cfg config.ExpoConfig, logger *slog.Logger) *Client {
	return &Client{
		url:         cfg.URL,
		accessToken: cfg.AccessToken,
		logger:      logger.With("component", "ExpoClient"),
		httpClient:  &http.Client{},
	}
}

// pushMessage is the Expo push API request body.
type pushMessage struct {
	To       []string          `json:"to"`
	Title    string            `json:"title,omitempty"`
	Body     string            `json:"body"`
	Data     map[string]string `json:"data,omitempty"`
	Sound    string            `json:"sound,omitempty"`
	Priority string            `json:"priority,omitempty"`
}

// pushTicket is one element of the "data" array in the API response. A ticket
// with status "ok" carries a receipt id; status "error" carries the reason.
type pushTicket struct {
	Status  string `json:"status"`
	ID      string `json:"id"`
	Message string `json:"message"`
	Details struct {
		Error string `json:"error"`
	} `json:"details"`
}

type pushResponse struct {
	Data []pushTicket `json:"data"`
}

// Send posts one message to the Expo push endpoint and returns the ticket id.
func (c *Client) Send(ctx context.Context, token string, title, body string, data map[string]string) (string, error) {
	payload, err := json.Marshal(pushMessage{
		To:       []string{token},
		Title:    title,
		Body:     body,
		Data:     data,
		Sound:    "default",
		Priority: "high",
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal expo message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build expo request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Transport error (DNS, timeout). The deadline, if any, surfaces via
		// errors.Is(err, context.DeadlineExceeded) through the url.Error chain.
		return "", fmt.Errorf("expo transport failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", &dispatch.ProviderError{
			Code:    fmt.Sprintf("http-%d", resp.StatusCode),
			Message: fmt.Sprintf("expo push endpoint returned status %d", resp.StatusCode),
		}
	}

	var parsed pushResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode expo response: %w", err)
	}
	if len(parsed.Data) == 0 {
		return "", &dispatch.ProviderError{
			Code:    dispatch.ProviderCodeUnavailable,
			Message: "expo response contained no tickets",
		}
	}

	ticket := parsed.Data[0]
	if ticket.Status != "ok" {
		code := ticket.Details.Error
		if code == "" {
			code = dispatch.ProviderCodeUnavailable
		}
		c.logger.Warn("Expo rejected message", "code", code, "message", ticket.Message)
		return "", &dispatch.ProviderError{Code: code, Message: ticket.Message}
	}

	c.logger.Debug("Expo accepted message", "ticket_id", ticket.ID)
	return ticket.ID, nil
}
