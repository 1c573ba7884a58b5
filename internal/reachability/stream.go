package reachability

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/micro-ha/netstate/internal/model"
)

const (
	streamReadTimeout = 120 * time.Second
	streamMaxBackoff  = 20 * time.Second
)

// StreamClient consumes signals pushed by a platform adapter over a
// websocket and reconnects with exponential backoff.
type StreamClient struct {
	dispatcher

	url    string
	token  string
	dialer *websocket.Dialer
	logger *slog.Logger
}

func NewStreamClient(rawURL, token string, logger *slog.Logger) *StreamClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamClient{
		url:    strings.TrimSpace(rawURL),
		token:  strings.TrimSpace(token),
		dialer: websocket.DefaultDialer,
		logger: logger,
	}
}

// Run keeps a session open until ctx is done.
func (c *StreamClient) Run(ctx context.Context) {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}
		received, err := c.runSession(ctx)
		if err != nil && ctx.Err() == nil {
			c.logger.Warn("signal stream disconnected", "err", err)
		}
		if received {
			backoff = time.Second
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < streamMaxBackoff {
			backoff *= 2
		}
	}
}

func (c *StreamClient) runSession(ctx context.Context) (bool, error) {
	wsURL, err := toWebsocketURL(c.url)
	if err != nil {
		return false, err
	}
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}
	conn, _, err := c.dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	c.logger.Info("signal stream connected", "url", wsURL)
	received := false
	for {
		if err := conn.SetReadDeadline(time.Now().Add(streamReadTimeout)); err != nil {
			return received, err
		}
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return received, err
		}
		sig, err := decodeSignal(msg)
		if err != nil {
			c.logger.Warn("ignoring undecodable signal frame", "err", err)
			continue
		}
		received = true
		if sig.Source == "" {
			sig.Source = "stream"
		}
		c.dispatch(sig)
	}
}

// decodeSignal accepts either a bare signal object or an envelope of the
// form {"type":"signal","signal":{...}}.
func decodeSignal(body []byte) (model.Signal, error) {
	var envelope struct {
		Type   string          `json:"type"`
		Signal json.RawMessage `json:"signal"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return model.Signal{}, err
	}
	payload := body
	if envelope.Type != "" {
		if envelope.Type != "signal" || len(envelope.Signal) == 0 {
			return model.Signal{}, errors.New("unsupported frame type " + envelope.Type)
		}
		payload = envelope.Signal
	}
	var sig model.Signal
	if err := json.Unmarshal(payload, &sig); err != nil {
		return model.Signal{}, err
	}
	return sig, nil
}

func toWebsocketURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", errors.New("unsupported stream url scheme " + u.Scheme)
	}
	return u.String(), nil
}
