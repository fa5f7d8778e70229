// Package pushrelay assembles the relay's HTTP surface around the dispatcher.
package pushrelay

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/tinywideclouds/go-microservice-base/pkg/microservice"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
	"github.com/tinywideclouds/go-push-relay/internal/api"
	"github.com/tinywideclouds/go-push-relay/internal/dispatcher"
	"github.com/tinywideclouds/go-push-relay/internal/history"
	"github.com/tinywideclouds/go-push-relay/pkg/dispatch"
	"github.com/tinywideclouds/go-push-relay/pushrelay/config"
)

type Wrapper struct {
	*microservice.BaseServer
	logger *slog.Logger
}

// New assembles the service. The history log is owned here: one instance per
// process, shared by the dispatcher (writes) and the history route (reads).
func New(
	cfg *config.Config,
	provider dispatch.Provider,
	tokenStore dispatch.TokenStore,
	logger *slog.Logger,
) (*Wrapper, error) {

	// 1. Base Server
	baseServer := microservice.NewBaseServer(logger, cfg.ListenAddr)

	// 2. Core
	historyLog := history.NewLog()
	relayDispatcher := dispatcher.New(provider, tokenStore, historyLog, cfg.ProviderTimeout, logger)

	// 3. APIs
	relayAPI := api.NewRelayAPI(relayDispatcher, historyLog, logger)
	tokenAPI := api.NewTokenAPI(tokenStore, logger)

	// Register Routes
	mux := baseServer.Mux()
	corsMiddleware := middleware.NewCorsMiddleware(cfg.CorsConfig, logger)

	// No auth middleware: the relay is an open relay by contract.
	handle := func(pattern string, handlerFunc http.HandlerFunc) {
		mux.Handle(pattern, corsMiddleware(handlerFunc))
	}

	// 1. Generic relay surface
	handle("POST /send-notification", relayAPI.SendDirect)
	handle("GET /notification-history", relayAPI.NotificationHistory)

	// 2. Recipient-addressed surface
	handle("POST /api/send-notification", relayAPI.SendToRecipient)
	handle("POST /api/notify/{kind}", relayAPI.NotifyEvent)

	// 3. Device token lifecycle
	handle("PUT /api/tokens", tokenAPI.RegisterToken)
	handle("DELETE /api/tokens", tokenAPI.ClearToken)

	// 4. Global OPTIONS (CORS preflight)
	mux.Handle("OPTIONS /", corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Just returns 200 OK with CORS headers handled by middleware
	})))

	return &Wrapper{
		BaseServer: baseServer,
		logger:     logger,
	}, nil
}

func (w *Wrapper) Start(_ context.Context) error {
	w.SetReady(true)
	w.logger.Info("Service is now ready.")
	return w.BaseServer.Start()
}

func (w *Wrapper) Shutdown(ctx context.Context) error {
	w.logger.Info("Shutting down service components...")
	if err := w.BaseServer.Shutdown(ctx); err != nil {
		w.logger.Error("HTTP server shutdown failed.", "err", err)
		return err
	}
	w.logger.Info("Service shutdown complete.")
	return nil
}
