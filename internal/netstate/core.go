// Package netstate reconciles raw reachability signals and Wi-Fi identifier
// lookups into one debounced connectivity state.
//
// Signal handling, identifier cache mutation, projection and notification
// all run inside one mutex owned by Core. Identifier fetches run on their own
// goroutine and re-enter that mutex on completion.
package netstate

import (
	"log/slog"
	"sync"
	"time"

	"github.com/micro-ha/netstate/internal/model"
)

// Sink receives every projected notification in transition order. It runs
// inside the serialization context: it must not block and must not call
// back into Core.
type Sink func(model.ConnectivityResult)

// OptionsSource exposes the host-controlled options.
type OptionsSource interface {
	Options() model.Options
}

// Config wires the collaborators of Core.
type Config struct {
	Facts                    InterfaceFacts
	Identifiers              IdentifierProvider
	IdentifierFetchSupported bool
	IdentifierCooldown       time.Duration
	IdentifierTimeout        time.Duration
	Options                  OptionsSource
	Metrics                  Metrics
	Logger                   *slog.Logger
	Now                      func() time.Time
}

// Core owns the watcher, the identifier cache and the projector.
type Core struct {
	mu      sync.Mutex
	watcher *Watcher
	cache   *IdentifierCache
	facts   InterfaceFacts
	options OptionsSource
	sink    Sink
	logger  *slog.Logger
}

func NewCore(cfg Config, sink Sink) *Core {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Facts == nil {
		cfg.Facts = zeroFacts{}
	}
	if cfg.Options == nil {
		cfg.Options = staticOptions{}
	}
	c := &Core{
		facts:   cfg.Facts,
		options: cfg.Options,
		sink:    sink,
		logger:  cfg.Logger,
	}
	c.watcher = NewWatcher(&c.mu, c.onStateChange, cfg.Metrics)
	c.cache = NewIdentifierCache(&c.mu, IdentifierCacheConfig{
		Provider:  cfg.Identifiers,
		Supported: cfg.IdentifierFetchSupported,
		Cooldown:  cfg.IdentifierCooldown,
		Timeout:   cfg.IdentifierTimeout,
		Now:       cfg.Now,
		Logger:    cfg.Logger,
		Metrics:   cfg.Metrics,
		Accept:    func() bool { return c.watcher.CurrentState().IsWiFiConnected() },
		OnChange:  c.onIdentifiersChanged,
	})
	return c
}

// HandleSignal feeds one raw reachability signal into the watcher.
func (c *Core) HandleSignal(sig model.Signal) {
	c.watcher.HandleSignal(sig)
}

// CurrentState returns the last classified state without waiting.
func (c *Core) CurrentState() model.ConnectionState {
	return c.watcher.CurrentState()
}

// Identifiers returns a copy of the identifier cache.
func (c *Core) Identifiers() IdentifierEntry {
	return c.cache.Entry()
}

// GetCurrentState projects the current state, optionally for another
// interface type than the active one.
func (c *Core) GetCurrentState(override *model.ConnectionType) model.ConnectivityResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectLocked(override)
}

// Close stops outstanding identifier fetches.
func (c *Core) Close() {
	c.cache.Close()
}

func (c *Core) onStateChange(state model.ConnectionState) {
	if !state.IsWiFiConnected() {
		c.cache.clearLocked()
	}
	c.logger.Info("connection state changed",
		"type", state.Type,
		"connected", state.Connected,
		"expensive", state.Expensive,
		"cellular_generation", state.CellularGeneration,
	)
	c.emitLocked()
}

func (c *Core) onIdentifiersChanged() {
	if !c.options.Options().ShouldFetchWiFiSSID {
		return
	}
	c.logger.Debug("wifi identifiers changed")
	c.emitLocked()
}

func (c *Core) emitLocked() {
	result := c.projectLocked(nil)
	if c.sink != nil {
		c.sink(result)
	}
}

func (c *Core) projectLocked(override *model.ConnectionType) model.ConnectivityResult {
	state := c.watcher.CurrentState()
	selected := state.Type
	if override != nil {
		selected = *override
	}
	fetchSSID := c.options.Options().ShouldFetchWiFiSSID
	if selected == model.ConnectionTypeWiFi && fetchSSID {
		if state.IsWiFiConnected() {
			c.cache.refreshLocked()
		} else {
			c.cache.clearLocked()
		}
	}
	return Project(state, override, c.cache.entryLocked(), c.facts, fetchSSID)
}

type staticOptions struct{}

func (staticOptions) Options() model.Options { return model.Options{} }
