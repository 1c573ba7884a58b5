package netstate

import (
	"sync"
	"sync/atomic"

	"github.com/micro-ha/netstate/internal/model"
)

// StateListener receives every classified state transition. It runs inside
// the serialization context and must not block.
type StateListener func(model.ConnectionState)

// Watcher holds the single authoritative connection state and notifies its
// listener once per actual transition.
type Watcher struct {
	exec     *sync.Mutex
	current  atomic.Pointer[model.ConnectionState]
	listener StateListener
	metrics  Metrics
}

// NewWatcher creates a watcher that serializes signal handling on exec.
func NewWatcher(exec *sync.Mutex, listener StateListener, metrics Metrics) *Watcher {
	if exec == nil {
		exec = &sync.Mutex{}
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	w := &Watcher{exec: exec, listener: listener, metrics: metrics}
	initial := model.UnknownState()
	w.current.Store(&initial)
	return w
}

// CurrentState returns the last classified state without waiting.
func (w *Watcher) CurrentState() model.ConnectionState {
	return *w.current.Load()
}

// HandleSignal classifies a raw signal and publishes it when it differs from
// the stored state.
func (w *Watcher) HandleSignal(sig model.Signal) {
	next := Classify(sig)

	w.exec.Lock()
	defer w.exec.Unlock()

	if w.CurrentState().Equal(next) {
		w.metrics.SignalClassified(next, false)
		return
	}
	w.current.Store(&next)
	w.metrics.SignalClassified(next, true)
	if w.listener != nil {
		w.listener(next)
	}
}
