package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/micro-ha/netstate/internal/model"
)

// Module is the connectivity facade served over HTTP.
type Module interface {
	GetCurrentState(iface string) (model.ConnectivityResult, error)
	Configure(options model.Options)
	Options() model.Options
	CurrentState() model.ConnectionState
	Observing() bool
}

// SignalPusher accepts signals for the manual reachability source.
type SignalPusher interface {
	Push(sig model.Signal) error
}

// Poller triggers an immediate interface sample.
type Poller interface {
	TriggerRefresh()
}

// History reads recorded transitions.
type History interface {
	Recent(ctx context.Context, limit int) ([]model.Transition, error)
}

// Deps are the optional collaborators of API. Nil members disable the
// matching endpoints.
type Deps struct {
	Signals SignalPusher
	Poller  Poller
	History History
	Metrics http.Handler
}

// API groups HTTP handlers and dependencies.
type API struct {
	module  Module
	hub     *Hub
	signals SignalPusher
	poller  Poller
	history History
	metrics http.Handler
	logger  *slog.Logger
}

// New creates HTTP handlers with explicit dependencies.
func New(module Module, hub *Hub, deps Deps, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{
		module:  module,
		hub:     hub,
		signals: deps.Signals,
		poller:  deps.Poller,
		history: deps.History,
		metrics: deps.Metrics,
		logger:  logger,
	}
}

// Logger returns request logger used by HTTP middleware.
func (a *API) Logger() *slog.Logger {
	return a.logger
}

// Health reports liveness and the current connection type.
func (a *API) Health(w http.ResponseWriter, _ *http.Request) {
	state := a.module.CurrentState()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"type":      state.Type,
		"connected": state.Connected,
		"observing": a.module.Observing(),
		"listeners": a.hub.Listeners(),
	})
}

// Metrics serves the Prometheus registry when one is configured.
func (a *API) Metrics(w http.ResponseWriter, r *http.Request) {
	if a.metrics == nil {
		writeError(w, http.StatusNotFound, "metrics_disabled", "Metrics are not enabled")
		return
	}
	a.metrics.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
