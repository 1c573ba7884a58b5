package netstate

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/micro-ha/netstate/internal/model"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeIdentifierProvider struct {
	mu      sync.Mutex
	calls   int
	ids     model.Identifiers
	err     error
	release chan struct{}
}

func (p *fakeIdentifierProvider) FetchCurrentIdentifiers(ctx context.Context) (model.Identifiers, error) {
	p.mu.Lock()
	p.calls++
	release := p.release
	p.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return model.Identifiers{}, ctx.Err()
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ids, p.err
}

func (p *fakeIdentifierProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *fakeIdentifierProvider) Set(ids model.Identifiers) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ids = ids
}

type fakeFacts struct {
	addresses map[model.ConnectionType]string
	masks     map[model.ConnectionType]string
	carrier   *string
}

func (f fakeFacts) IPv4Address(kind model.ConnectionType) string {
	if value, ok := f.addresses[kind]; ok {
		return value
	}
	return model.DefaultAddress
}

func (f fakeFacts) SubnetMask(kind model.ConnectionType) string {
	if value, ok := f.masks[kind]; ok {
		return value
	}
	return model.DefaultAddress
}

func (f fakeFacts) CarrierName() *string {
	return f.carrier
}

type fixedOptions model.Options

func (o fixedOptions) Options() model.Options { return model.Options(o) }

type switchOptions struct {
	fetch atomic.Bool
}

func (o *switchOptions) Options() model.Options {
	return model.Options{ShouldFetchWiFiSSID: o.fetch.Load()}
}

type recordingSink struct {
	mu      sync.Mutex
	results []model.ConnectivityResult
}

func (s *recordingSink) Sink(result model.ConnectivityResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
}

func (s *recordingSink) Results() []model.ConnectivityResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ConnectivityResult, len(s.results))
	copy(out, s.results)
	return out
}

func wifiSignal() model.Signal {
	return model.Signal{Reachable: true, Interface: model.SignalInterfaceWiFi}
}

func cellularSignal(generation string) model.Signal {
	return model.Signal{Reachable: true, Interface: model.SignalInterfaceCellular, CellularGeneration: generation}
}

func strPtr(value string) *string {
	return &value
}

func waitFetchIdle(t *testing.T, cache *IdentifierCache) {
	t.Helper()
	require.Eventually(t, func() bool {
		entry := cache.Entry()
		return !entry.FetchInFlight && !entry.LastFetch.IsZero()
	}, time.Second, 5*time.Millisecond)
}
