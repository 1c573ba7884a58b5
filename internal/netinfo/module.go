// Package netinfo is the host-facing facade over the reconciliation core.
package netinfo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/micro-ha/netstate/internal/model"
	"github.com/micro-ha/netstate/internal/netstate"
	"github.com/micro-ha/netstate/internal/pkg/utils"
)

// EventNetworkStatusDidChange is the host event carrying a new result.
const EventNetworkStatusDidChange = "networkStatusDidChange"

const (
	journalQueueSize     = 128
	journalWriteDeadline = 5 * time.Second
)

var (
	// ErrInvalidInterface indicates an unknown interface label in a request.
	ErrInvalidInterface = errors.New("invalid interface type")
	// ErrAlreadyStarted indicates Start was called twice.
	ErrAlreadyStarted = errors.New("module already started")
)

// SignalSource delivers raw reachability signals to one handler.
type SignalSource interface {
	Register(handler func(model.Signal)) (unregister func(), err error)
}

// Emitter delivers events to the host. Emit must not block.
type Emitter interface {
	Emit(event string, result model.ConnectivityResult)
}

// Journal records notifications.
type Journal interface {
	Append(ctx context.Context, transition model.Transition) error
}

// Metrics observes notification delivery.
type Metrics interface {
	netstate.Metrics
	Notification(delivered bool)
	JournalDropped()
}

// Config wires a Module.
type Config struct {
	Core     netstate.Config
	Source   SignalSource
	Journal  Journal
	Metrics  Metrics
	Logger   *slog.Logger
	Defaults model.Options
}

// Module owns the reconciliation core and forwards its notifications to the
// host while the host is observing.
type Module struct {
	core    *netstate.Core
	options *OptionsStore
	source  SignalSource
	journal Journal
	metrics Metrics
	logger  *slog.Logger

	emitter   Emitter
	observing atomic.Bool

	mu         sync.Mutex
	started    bool
	unregister func()
	records    chan model.Transition
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

func New(cfg Config) *Module {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	m := &Module{
		options: NewOptionsStore(cfg.Defaults),
		source:  cfg.Source,
		journal: cfg.Journal,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
		records: make(chan model.Transition, journalQueueSize),
	}
	coreCfg := cfg.Core
	coreCfg.Options = m.options
	coreCfg.Logger = cfg.Logger
	if cfg.Metrics != nil {
		coreCfg.Metrics = cfg.Metrics
	}
	m.core = netstate.NewCore(coreCfg, m.forward)
	return m
}

// AttachEmitter sets the host event channel. It must be called before Start.
func (m *Module) AttachEmitter(emitter Emitter) {
	m.emitter = emitter
}

// Start registers with the signal source and starts the journal writer.
func (m *Module) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return ErrAlreadyStarted
	}

	workerCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	m.cancel = cancel
	if m.journal != nil {
		m.wg.Add(1)
		go m.runJournal(workerCtx)
	}

	if m.source != nil {
		unregister, err := m.source.Register(m.core.HandleSignal)
		if err != nil {
			cancel()
			m.wg.Wait()
			return fmt.Errorf("register reachability source: %w", err)
		}
		m.unregister = unregister
	}
	m.started = true
	m.logger.Info("netinfo module started")
	return nil
}

// Close unregisters from the signal source and stops background work.
func (m *Module) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return
	}
	if m.unregister != nil {
		m.unregister()
		m.unregister = nil
	}
	m.core.Close()
	m.cancel()
	m.wg.Wait()
	m.started = false
	m.logger.Info("netinfo module stopped")
}

// GetCurrentState answers a one-shot state request. An empty label selects
// the active interface type.
func (m *Module) GetCurrentState(iface string) (model.ConnectivityResult, error) {
	var override *model.ConnectionType
	if iface != "" {
		kind, ok := model.ParseConnectionType(iface)
		if !ok {
			return model.ConnectivityResult{}, fmt.Errorf("%w: %q", ErrInvalidInterface, iface)
		}
		override = &kind
	}
	return m.core.GetCurrentState(override), nil
}

// Configure stores host options consulted on the next projection.
func (m *Module) Configure(options model.Options) {
	if m.options.Set(options) {
		m.logger.Info("netinfo options updated", "should_fetch_wifi_ssid", options.ShouldFetchWiFiSSID)
	}
}

// Options returns the current host options.
func (m *Module) Options() model.Options {
	return m.options.Options()
}

// CurrentState returns the classified state.
func (m *Module) CurrentState() model.ConnectionState {
	return m.core.CurrentState()
}

// HandleSignal feeds a signal directly into the core.
func (m *Module) HandleSignal(sig model.Signal) {
	m.core.HandleSignal(sig)
}

// StartObserving enables event delivery to the host.
func (m *Module) StartObserving() {
	if !m.observing.Swap(true) {
		m.logger.Info("host started observing")
	}
}

// StopObserving swallows further events until StartObserving.
func (m *Module) StopObserving() {
	if m.observing.Swap(false) {
		m.logger.Info("host stopped observing")
	}
}

// Observing reports whether events are delivered to the host.
func (m *Module) Observing() bool {
	return m.observing.Load()
}

func (m *Module) forward(result model.ConnectivityResult) {
	delivered := m.observing.Load() && m.emitter != nil
	if delivered {
		m.emitter.Emit(EventNetworkStatusDidChange, result)
	}
	if m.metrics != nil {
		m.metrics.Notification(delivered)
	}
	if m.journal == nil {
		return
	}
	transition := model.Transition{
		ID:         uuid.NewString(),
		RecordedAt: utils.NowUTC(),
		Delivered:  delivered,
		Result:     result,
	}
	select {
	case m.records <- transition:
	default:
		if m.metrics != nil {
			m.metrics.JournalDropped()
		}
		m.logger.Warn("journal queue full; transition dropped", "type", result.Type)
	}
}

func (m *Module) runJournal(ctx context.Context) {
	defer m.wg.Done()
	for {
		select {
		case <-ctx.Done():
			m.drainJournal()
			return
		case transition := <-m.records:
			m.appendJournal(transition)
		}
	}
}

func (m *Module) drainJournal() {
	for {
		select {
		case transition := <-m.records:
			m.appendJournal(transition)
		default:
			return
		}
	}
}

func (m *Module) appendJournal(transition model.Transition) {
	ctx, cancel := context.WithTimeout(context.Background(), journalWriteDeadline)
	defer cancel()
	if err := m.journal.Append(ctx, transition); err != nil {
		m.logger.Warn("journal append failed", "err", err)
	}
}
