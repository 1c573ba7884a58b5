package handlers

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/micro-ha/netstate/internal/model"
)

const (
	eventWriteTimeout = 5 * time.Second
	eventBufferSize   = 16
)

var eventsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		host := strings.ToLower(strings.TrimSpace(r.Host))
		originHost := strings.ToLower(strings.TrimSpace(u.Host))
		return host == originHost
	},
}

// Observer is told when the first listener arrives and the last one leaves.
type Observer interface {
	StartObserving()
	StopObserving()
}

type eventEnvelope struct {
	ID    string                   `json:"id"`
	Event string                   `json:"event"`
	Data  model.ConnectivityResult `json:"data"`
}

type listener struct {
	send chan eventEnvelope
	quit chan struct{}
	once sync.Once
}

func (l *listener) stop() {
	l.once.Do(func() { close(l.quit) })
}

// Hub fans events out to websocket listeners. Emit never blocks; a listener
// whose buffer is full misses the event.
type Hub struct {
	observer Observer
	logger   *slog.Logger

	mu        sync.Mutex
	listeners map[*listener]struct{}
}

func NewHub(observer Observer, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{observer: observer, logger: logger, listeners: map[*listener]struct{}{}}
}

// Emit broadcasts one event to every listener.
func (h *Hub) Emit(event string, result model.ConnectivityResult) {
	envelope := eventEnvelope{ID: uuid.NewString(), Event: event, Data: result}

	h.mu.Lock()
	defer h.mu.Unlock()
	for l := range h.listeners {
		select {
		case l.send <- envelope:
		default:
			h.logger.Warn("event listener too slow; event dropped", "event", event, "id", envelope.ID)
		}
	}
}

// Listeners returns the number of connected listeners.
func (h *Hub) Listeners() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners)
}

// Close disconnects every listener.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for l := range h.listeners {
		l.stop()
	}
}

func (h *Hub) add(l *listener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners[l] = struct{}{}
	if len(h.listeners) == 1 && h.observer != nil {
		h.observer.StartObserving()
	}
}

func (h *Hub) remove(l *listener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.listeners[l]; !ok {
		return
	}
	delete(h.listeners, l)
	if len(h.listeners) == 0 && h.observer != nil {
		h.observer.StopObserving()
	}
}

// Events upgrades the request and streams networkStatusDidChange events.
func (a *API) Events(w http.ResponseWriter, r *http.Request) {
	conn, err := eventsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		a.logger.Debug("event listener upgrade failed", "err", err)
		return
	}
	a.hub.serve(conn)
}

func (h *Hub) serve(conn *websocket.Conn) {
	defer conn.Close()

	l := &listener{send: make(chan eventEnvelope, eventBufferSize), quit: make(chan struct{})}
	h.add(l)
	defer h.remove(l)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case envelope := <-l.send:
			_ = conn.SetWriteDeadline(time.Now().Add(eventWriteTimeout))
			if err := conn.WriteJSON(envelope); err != nil {
				h.logger.Debug("event listener write failed", "err", err)
				return
			}
		case <-l.quit:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
				time.Now().Add(time.Second))
			return
		case <-done:
			return
		}
	}
}
