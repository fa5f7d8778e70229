package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tinywideclouds/go-microservice-base/pkg/response"
	"github.com/tinywideclouds/go-push-relay/internal/events"
	"github.com/tinywideclouds/go-push-relay/pkg/dispatch"
)

// NotificationDispatcher is the slice of the dispatcher the HTTP layer needs.
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, req dispatch.Request) dispatch.Result
}

// RelayAPI exposes the dispatcher over the relay's REST routes.
type RelayAPI struct {
	Dispatcher NotificationDispatcher
	History    dispatch.History
	Logger     *slog.Logger
}

func NewRelayAPI(d NotificationDispatcher, history dispatch.History, logger *slog.Logger) *RelayAPI {
	return &RelayAPI{
		Dispatcher: d,
		History:    history,
		Logger:     logger.With("component", "RelayAPI"),
	}
}

// --- Generic send (raw token) ---

type sendDirectRequest struct {
	Token string `json:"token"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// SendDirect handles POST /send-notification.
func (a *RelayAPI) SendDirect(w http.ResponseWriter, r *http.Request) {
	var req sendDirectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}

	res := a.Dispatcher.Dispatch(r.Context(), dispatch.Request{
		Token: req.Token,
		Title: req.Title,
		Body:  req.Body,
	})
	if !res.OK {
		a.writeDispatchError(w, res.Err)
		return
	}

	writeJSON(w, http.StatusOK, "Notification sent successfully")
}

// --- History ---

// NotificationHistory handles GET /notification-history.
func (a *RelayAPI) NotificationHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.History.List())
}

// --- Recipient send (token resolved from the store) ---

type sendToRecipientRequest struct {
	RecipientID string            `json:"recipientId"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Data        map[string]string `json:"data"`
}

type sendResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
}

// SendToRecipient handles POST /api/send-notification.
func (a *RelayAPI) SendToRecipient(w http.ResponseWriter, r *http.Request) {
	var req sendToRecipientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.RecipientID == "" {
		response.WriteJSONError(w, http.StatusBadRequest, "missing recipientId")
		return
	}

	res := a.Dispatcher.Dispatch(r.Context(), dispatch.Request{
		RecipientID: req.RecipientID,
		Title:       req.Title,
		Body:        req.Body,
		Data:        req.Data,
	})
	if !res.OK {
		a.writeDispatchError(w, res.Err)
		return
	}

	writeJSON(w, http.StatusOK, sendResponse{Success: true, MessageID: res.ProviderMessageID})
}

// --- Typed event routes ---

// NotifyEvent handles POST /api/notify/{kind}. One handler serves every event
// kind; the registry decides field requirements and message text.
func (a *RelayAPI) NotifyEvent(w http.ResponseWriter, r *http.Request) {
	kind := events.Kind(r.PathValue("kind"))

	var fields events.Fields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}

	req, err := events.BuildRequest(kind, fields)
	if err != nil {
		if errors.Is(err, events.ErrUnknownKind) {
			response.WriteJSONError(w, http.StatusNotFound, err.Error())
			return
		}
		a.writeDispatchError(w, err)
		return
	}

	res := a.Dispatcher.Dispatch(r.Context(), req)
	if !res.OK {
		a.writeDispatchError(w, res.Err)
		return
	}

	writeJSON(w, http.StatusOK, sendResponse{Success: true, MessageID: res.ProviderMessageID})
}

// --- Helpers ---

// writeDispatchError maps the dispatch error taxonomy onto HTTP statuses.
// Every failure is a JSON {"error": ...} body; nothing escapes as a panic.
func (a *RelayAPI) writeDispatchError(w http.ResponseWriter, err error) {
	var (
		validationErr *dispatch.ValidationError
		notFoundErr   *dispatch.RecipientNotFoundError
		providerErr   *dispatch.ProviderError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		status = http.StatusNotFound
	case dispatch.IsTimeout(err):
		status = http.StatusGatewayTimeout
	case errors.As(err, &providerErr):
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError {
		a.Logger.Error("Dispatch failed", "err", err)
	}
	response.WriteJSONError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
