package api

import (
	"encoding/json"
	"net/http"

	"log/slog"

	"github.com/tinywideclouds/go-microservice-base/pkg/response"
	"github.com/tinywideclouds/go-push-relay/pkg/dispatch"
)

// TokenAPI lets devices register their push token on sign-in and clear it on
// sign-out. The relay is an open relay, so the caller names the user directly.
type TokenAPI struct {
	Store  dispatch.TokenStore
	Logger *slog.Logger
}

func NewTokenAPI(store dispatch.TokenStore, logger *slog.Logger) *TokenAPI {
	return &TokenAPI{
		Store:  store,
		Logger: logger,
	}
}

type registerTokenRequest struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

// RegisterToken handles PUT /api/tokens.
func (api *TokenAPI) RegisterToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.UserID == "" {
		response.WriteJSONError(w, http.StatusBadRequest, "missing userId")
		return
	}
	if req.Token == "" {
		response.WriteJSONError(w, http.StatusBadRequest, "missing token")
		return
	}

	if err := api.Store.SetToken(ctx, req.UserID, req.Token); err != nil {
		api.Logger.Error("failed to register token", "user_id", req.UserID, "err", err)
		response.WriteJSONError(w, http.StatusInternalServerError, "storage failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type clearTokenRequest struct {
	UserID string `json:"userId"`
}

// ClearToken handles DELETE /api/tokens.
func (api *TokenAPI) ClearToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req clearTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.UserID == "" {
		response.WriteJSONError(w, http.StatusBadRequest, "missing userId")
		return
	}

	if err := api.Store.ClearToken(ctx, req.UserID); err != nil {
		// Log but don't fail hard; idempotency is preferred for sign-out
		api.Logger.Warn("failed to clear token", "user_id", req.UserID, "err", err)
	}

	w.WriteHeader(http.StatusNoContent)
}
