package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/micro-ha/netstate/internal/model"
	"github.com/micro-ha/netstate/internal/netinfo"
	"github.com/micro-ha/netstate/internal/reachability"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// GetState answers a one-shot connectivity request. The optional interface
// query parameter selects a connection type instead of the active one.
func (a *API) GetState(w http.ResponseWriter, r *http.Request) {
	result, err := a.module.GetCurrentState(strings.TrimSpace(r.URL.Query().Get("interface")))
	if errors.Is(err, netinfo.ErrInvalidInterface) {
		writeError(w, http.StatusBadRequest, "invalid_interface", err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "state_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type configureRequest struct {
	ShouldFetchWiFiSSID *bool `json:"shouldFetchWiFiSSID"`
}

// Configure stores host options.
func (a *API) Configure(w http.ResponseWriter, r *http.Request) {
	var payload configureRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid JSON payload")
		return
	}
	if payload.ShouldFetchWiFiSSID == nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "shouldFetchWiFiSSID is required")
		return
	}
	a.module.Configure(model.Options{ShouldFetchWiFiSSID: *payload.ShouldFetchWiFiSSID})
	writeJSON(w, http.StatusOK, a.module.Options())
}

// PushSignal feeds a signal into the manual reachability source.
func (a *API) PushSignal(w http.ResponseWriter, r *http.Request) {
	if a.signals == nil {
		writeError(w, http.StatusConflict, "manual_source_disabled", "Manual reachability source is not active")
		return
	}
	var sig model.Signal
	if err := json.NewDecoder(r.Body).Decode(&sig); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid JSON payload")
		return
	}
	if err := a.signals.Push(sig); err != nil {
		if errors.Is(err, reachability.ErrNotRegistered) {
			writeError(w, http.StatusServiceUnavailable, "source_not_registered", "Module is not listening for signals")
			return
		}
		writeError(w, http.StatusInternalServerError, "push_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}

// Refresh requests an immediate interface sample.
func (a *API) Refresh(w http.ResponseWriter, _ *http.Request) {
	if a.poller == nil {
		writeError(w, http.StatusConflict, "refresh_unsupported", "Active reachability source cannot be refreshed")
		return
	}
	a.poller.TriggerRefresh()
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}

// ListHistory returns recent transitions, newest first.
func (a *API) ListHistory(w http.ResponseWriter, r *http.Request) {
	if a.history == nil {
		writeError(w, http.StatusNotFound, "journal_disabled", "Transition journal is not enabled")
		return
	}
	limit := defaultHistoryLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 || value > maxHistoryLimit {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be between 1 and 500")
			return
		}
		limit = value
	}
	items, err := a.history.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "history_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}
