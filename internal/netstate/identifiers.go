package netstate

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/micro-ha/netstate/internal/model"
)

const (
	defaultIdentifierCooldown = 2 * time.Second
	defaultIdentifierTimeout  = 10 * time.Second
)

// IdentifierProvider reads the current Wi-Fi identifiers from the platform.
type IdentifierProvider interface {
	FetchCurrentIdentifiers(ctx context.Context) (model.Identifiers, error)
}

// IdentifierEntry is a copy of the cached identifiers.
type IdentifierEntry struct {
	SSID          *string
	BSSID         *string
	LastFetch     time.Time
	FetchInFlight bool
}

// IdentifierCache keeps the last known SSID/BSSID and refreshes them in the
// background. All fields are guarded by exec.
type IdentifierCache struct {
	exec      *sync.Mutex
	provider  IdentifierProvider
	supported bool
	cooldown  time.Duration
	timeout   time.Duration
	now       func() time.Time
	logger    *slog.Logger
	metrics   Metrics

	// accept reports whether a completed fetch may still be applied.
	accept func() bool
	// onChange runs inside exec after a fetch changed the cache.
	onChange func()

	ssid      *string
	bssid     *string
	lastFetch time.Time
	inFlight  bool

	base    context.Context
	cancel  context.CancelFunc
	closing bool
	wg      sync.WaitGroup
}

// IdentifierCacheConfig configures an IdentifierCache.
type IdentifierCacheConfig struct {
	Provider  IdentifierProvider
	Supported bool
	Cooldown  time.Duration
	Timeout   time.Duration
	Now       func() time.Time
	Logger    *slog.Logger
	Metrics   Metrics
	Accept    func() bool
	OnChange  func()
}

func NewIdentifierCache(exec *sync.Mutex, cfg IdentifierCacheConfig) *IdentifierCache {
	if exec == nil {
		exec = &sync.Mutex{}
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = defaultIdentifierCooldown
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultIdentifierTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = noopMetrics{}
	}
	base, cancel := context.WithCancel(context.Background())
	return &IdentifierCache{
		exec:      exec,
		provider:  cfg.Provider,
		supported: cfg.Supported && cfg.Provider != nil,
		cooldown:  cfg.Cooldown,
		timeout:   cfg.Timeout,
		now:       cfg.Now,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		accept:    cfg.Accept,
		onChange:  cfg.OnChange,
		base:      base,
		cancel:    cancel,
	}
}

// RefreshIfNeeded starts a background fetch unless one is running, the last
// one completed within the cooldown, or fetching is unsupported.
func (c *IdentifierCache) RefreshIfNeeded() {
	c.exec.Lock()
	defer c.exec.Unlock()
	c.refreshLocked()
}

// Clear drops the cached identifiers immediately.
func (c *IdentifierCache) Clear() {
	c.exec.Lock()
	defer c.exec.Unlock()
	c.clearLocked()
}

// Entry returns a copy of the cache.
func (c *IdentifierCache) Entry() IdentifierEntry {
	c.exec.Lock()
	defer c.exec.Unlock()
	return c.entryLocked()
}

// Close cancels outstanding fetches and waits for them to return. Fetches
// requested afterwards run normally.
func (c *IdentifierCache) Close() {
	c.exec.Lock()
	c.closing = true
	c.cancel()
	c.exec.Unlock()

	c.wg.Wait()

	c.exec.Lock()
	c.base, c.cancel = context.WithCancel(context.Background())
	c.closing = false
	c.exec.Unlock()
}

func (c *IdentifierCache) refreshLocked() {
	if !c.supported || c.inFlight {
		return
	}
	if !c.lastFetch.IsZero() && c.now().Sub(c.lastFetch) < c.cooldown {
		return
	}
	if c.closing {
		return
	}
	c.inFlight = true
	c.wg.Add(1)
	go c.fetch(c.base)
}

func (c *IdentifierCache) fetch(base context.Context) {
	defer c.wg.Done()

	ctx, cancel := context.WithTimeout(base, c.timeout)
	ids, err := c.provider.FetchCurrentIdentifiers(ctx)
	cancel()
	if err != nil {
		c.logger.Debug("identifier fetch failed", "err", err)
		ids = model.Identifiers{}
	}
	c.complete(ids, err)
}

func (c *IdentifierCache) complete(ids model.Identifiers, fetchErr error) {
	c.exec.Lock()
	defer c.exec.Unlock()

	c.inFlight = false
	if c.closing {
		c.metrics.IdentifierFetch(FetchOutcomeDiscarded)
		return
	}
	c.lastFetch = c.now()

	if c.accept != nil && !c.accept() {
		c.metrics.IdentifierFetch(FetchOutcomeDiscarded)
		return
	}

	ssid := normalizeIdentifier(ids.SSID, true)
	bssid := normalizeIdentifier(ids.BSSID, false)
	changed := false
	if !sameString(c.ssid, ssid) {
		c.ssid = ssid
		changed = true
	}
	if !sameString(c.bssid, bssid) {
		c.bssid = bssid
		changed = true
	}

	switch {
	case fetchErr != nil:
		c.metrics.IdentifierFetch(FetchOutcomeError)
	case changed:
		c.metrics.IdentifierFetch(FetchOutcomeChanged)
	default:
		c.metrics.IdentifierFetch(FetchOutcomeUnchanged)
	}
	if changed && c.onChange != nil {
		c.onChange()
	}
}

func (c *IdentifierCache) clearLocked() {
	c.ssid = nil
	c.bssid = nil
}

func (c *IdentifierCache) entryLocked() IdentifierEntry {
	return IdentifierEntry{
		SSID:          copyString(c.ssid),
		BSSID:         copyString(c.bssid),
		LastFetch:     c.lastFetch,
		FetchInFlight: c.inFlight,
	}
}

// Labels some platforms return instead of the network name when the caller
// lacks permission to read it.
var placeholderSSIDs = map[string]struct{}{
	"Wi-Fi": {},
	"WLAN":  {},
}

func normalizeIdentifier(raw string, isSSID bool) *string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}
	if isSSID {
		if _, ok := placeholderSSIDs[value]; ok {
			return nil
		}
	}
	return &value
}

func sameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func copyString(value *string) *string {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
