package netinfo

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/micro-ha/netstate/internal/model"
	"github.com/micro-ha/netstate/internal/netstate"
)

type fakeSource struct {
	mu           sync.Mutex
	handler      func(model.Signal)
	unregistered bool
	err          error
}

func (s *fakeSource) Register(handler func(model.Signal)) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.handler = handler
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.handler = nil
		s.unregistered = true
	}, nil
}

func (s *fakeSource) Push(sig model.Signal) bool {
	s.mu.Lock()
	handler := s.handler
	s.mu.Unlock()
	if handler == nil {
		return false
	}
	handler(sig)
	return true
}

type fakeEmitter struct {
	mu     sync.Mutex
	events []model.ConnectivityResult
	names  []string
}

func (e *fakeEmitter) Emit(event string, result model.ConnectivityResult) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.names = append(e.names, event)
	e.events = append(e.events, result)
}

func (e *fakeEmitter) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.events)
}

type memoryJournal struct {
	mu   sync.Mutex
	rows []model.Transition
}

func (j *memoryJournal) Append(ctx context.Context, transition model.Transition) error {
	_ = ctx
	j.mu.Lock()
	defer j.mu.Unlock()
	j.rows = append(j.rows, transition)
	return nil
}

func (j *memoryJournal) Rows() []model.Transition {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]model.Transition, len(j.rows))
	copy(out, j.rows)
	return out
}

type fakeMetrics struct {
	mu        sync.Mutex
	delivered int
	swallowed int
	dropped   int
}

func (m *fakeMetrics) SignalClassified(model.ConnectionState, bool) {}
func (m *fakeMetrics) IdentifierFetch(string) {}

func (m *fakeMetrics) Notification(delivered bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if delivered {
		m.delivered++
		return
	}
	m.swallowed++
}

func (m *fakeMetrics) JournalDropped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropped++
}

func wifi() model.Signal {
	return model.Signal{Reachable: true, Interface: model.SignalInterfaceWiFi}
}

func cellular() model.Signal {
	return model.Signal{Reachable: true, Interface: model.SignalInterfaceCellular, CellularGeneration: "4g"}
}

func TestModuleForwardsOnlyWhileObserving(t *testing.T) {
	source := &fakeSource{}
	emitter := &fakeEmitter{}
	metrics := &fakeMetrics{}
	module := New(Config{Source: source, Metrics: metrics})
	module.AttachEmitter(emitter)
	if err := module.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer module.Close()

	source.Push(wifi())
	if emitter.Count() != 0 {
		t.Fatalf("emitted %d events while not observing, want 0", emitter.Count())
	}

	module.StartObserving()
	source.Push(cellular())
	source.Push(cellular())
	if emitter.Count() != 1 {
		t.Fatalf("emitted %d events, want 1", emitter.Count())
	}
	if emitter.names[0] != EventNetworkStatusDidChange {
		t.Fatalf("event name = %q, want %q", emitter.names[0], EventNetworkStatusDidChange)
	}
	if emitter.events[0].Type != model.ConnectionTypeCellular || !emitter.events[0].IsConnected {
		t.Fatalf("unexpected event %+v", emitter.events[0])
	}

	module.StopObserving()
	source.Push(wifi())
	if emitter.Count() != 1 {
		t.Fatalf("emitted %d events after stop, want 1", emitter.Count())
	}
	if module.CurrentState().Type != model.ConnectionTypeWiFi {
		t.Fatalf("watcher stopped tracking while not observing: %+v", module.CurrentState())
	}

	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	if metrics.delivered != 1 || metrics.swallowed != 2 {
		t.Fatalf("delivered=%d swallowed=%d, want 1 and 2", metrics.delivered, metrics.swallowed)
	}
}

func TestModuleGetCurrentState(t *testing.T) {
	module := New(Config{})
	module.HandleSignal(cellular())

	got, err := module.GetCurrentState("")
	if err != nil {
		t.Fatalf("GetCurrentState() error: %v", err)
	}
	if got.Type != model.ConnectionTypeCellular || !got.IsConnected {
		t.Fatalf("GetCurrentState() = %+v, want connected cellular", got)
	}

	got, err = module.GetCurrentState("WiFi")
	if err != nil {
		t.Fatalf("GetCurrentState(wifi) error: %v", err)
	}
	if got.Type != model.ConnectionTypeWiFi || got.IsConnected {
		t.Fatalf("GetCurrentState(wifi) = %+v, want disconnected wifi", got)
	}

	if _, err := module.GetCurrentState("satellite"); !errors.Is(err, ErrInvalidInterface) {
		t.Fatalf("GetCurrentState(satellite) error = %v, want ErrInvalidInterface", err)
	}
}

func TestModuleConfigureEnablesSSID(t *testing.T) {
	module := New(Config{})
	module.HandleSignal(wifi())

	got, _ := module.GetCurrentState("")
	if got.Details.WiFi != nil {
		t.Fatalf("wifi identifiers present before configure: %+v", got.Details.WiFi)
	}

	module.Configure(model.Options{ShouldFetchWiFiSSID: true})
	if !module.Options().ShouldFetchWiFiSSID {
		t.Fatal("Options().ShouldFetchWiFiSSID = false, want true")
	}
	got, _ = module.GetCurrentState("")
	if got.Details.WiFi == nil {
		t.Fatal("wifi identifiers block missing after configure")
	}
	if got.Details.WiFi.SSID != nil {
		t.Fatalf("SSID = %q, want nil without identifier provider", *got.Details.WiFi.SSID)
	}
}

func TestModuleJournalsEveryNotification(t *testing.T) {
	source := &fakeSource{}
	journal := &memoryJournal{}
	module := New(Config{Source: source, Journal: journal})
	module.AttachEmitter(&fakeEmitter{})
	if err := module.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	source.Push(wifi())
	module.StartObserving()
	source.Push(cellular())
	module.Close()

	rows := journal.Rows()
	if len(rows) != 2 {
		t.Fatalf("journal rows = %d, want 2", len(rows))
	}
	if rows[0].Delivered || !rows[1].Delivered {
		t.Fatalf("delivered flags = %v/%v, want false/true", rows[0].Delivered, rows[1].Delivered)
	}
	if rows[0].ID == "" || rows[0].ID == rows[1].ID {
		t.Fatalf("journal ids not unique: %q %q", rows[0].ID, rows[1].ID)
	}
	if rows[1].Result.Type != model.ConnectionTypeCellular {
		t.Fatalf("row result type = %q, want cellular", rows[1].Result.Type)
	}
}

func TestModuleCloseUnregistersSource(t *testing.T) {
	source := &fakeSource{}
	module := New(Config{Source: source})
	if err := module.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if err := module.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("second Start() error = %v, want ErrAlreadyStarted", err)
	}
	module.Close()

	if !source.unregistered {
		t.Fatal("source was not unregistered on Close")
	}
	if source.Push(wifi()) {
		t.Fatal("signal delivered after Close")
	}
}

func TestModuleStartFailsWhenSourceRejects(t *testing.T) {
	module := New(Config{Source: &fakeSource{err: errors.New("busy")}, Journal: &memoryJournal{}})
	if err := module.Start(context.Background()); err == nil {
		t.Fatal("Start() error = nil, want non-nil")
	}
}

func TestModuleEmitsIdentifierRefresh(t *testing.T) {
	source := &fakeSource{}
	emitter := &fakeEmitter{}
	module := New(Config{
		Source: source,
		Core: netstate.Config{
			Identifiers:              staticIdentifiers{SSID: "home"},
			IdentifierFetchSupported: true,
		},
		Defaults: model.Options{ShouldFetchWiFiSSID: true},
	})
	module.AttachEmitter(emitter)
	if err := module.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer module.Close()
	module.StartObserving()

	source.Push(wifi())

	deadline := time.Now().Add(time.Second)
	for emitter.Count() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if emitter.Count() != 2 {
		t.Fatalf("emitted %d events, want 2", emitter.Count())
	}
	emitter.mu.Lock()
	defer emitter.mu.Unlock()
	last := emitter.events[1]
	if last.Details.WiFi == nil || last.Details.WiFi.SSID == nil || *last.Details.WiFi.SSID != "home" {
		t.Fatalf("second event missing ssid: %+v", last.Details.WiFi)
	}
}

type staticIdentifiers model.Identifiers

func (s staticIdentifiers) FetchCurrentIdentifiers(context.Context) (model.Identifiers, error) {
	return model.Identifiers(s), nil
}

func TestModuleFetchesIdentifiersAfterRestart(t *testing.T) {
	source := &fakeSource{}
	module := New(Config{
		Source: source,
		Core: netstate.Config{
			Identifiers:              staticIdentifiers{SSID: "home", BSSID: "aa:bb:cc:dd:ee:ff"},
			IdentifierFetchSupported: true,
		},
		Defaults: model.Options{ShouldFetchWiFiSSID: true},
	})
	if err := module.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	module.Close()
	if err := module.Start(context.Background()); err != nil {
		t.Fatalf("Start() after Close error: %v", err)
	}
	defer module.Close()

	if !source.Push(wifi()) {
		t.Fatal("signal not delivered after restart")
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		result, err := module.GetCurrentState("")
		if err != nil {
			t.Fatalf("GetCurrentState() error: %v", err)
		}
		if details := result.Details.WiFi; details != nil && details.SSID != nil && *details.SSID == "home" {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("ssid never fetched after restart")
}
