// Package reachability contains sources of raw reachability signals.
//
// Every source accepts a single handler. Register returns an unregister
// function that must be called on teardown.
package reachability

import (
	"errors"
	"sync"

	"github.com/micro-ha/netstate/internal/model"
)

var (
	// ErrAlreadyRegistered indicates a second handler registration.
	ErrAlreadyRegistered = errors.New("reachability handler already registered")
	// ErrNotRegistered indicates a push without a registered handler.
	ErrNotRegistered = errors.New("reachability handler not registered")
)

// Provider is a source of raw reachability signals.
type Provider interface {
	Register(handler func(model.Signal)) (unregister func(), err error)
}

type dispatcher struct {
	mu      sync.RWMutex
	handler func(model.Signal)
	serial  uint64
}

func (d *dispatcher) Register(handler func(model.Signal)) (func(), error) {
	if handler == nil {
		return nil, errors.New("reachability handler is nil")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.handler != nil {
		return nil, ErrAlreadyRegistered
	}
	d.handler = handler
	d.serial++
	serial := d.serial

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			if d.serial == serial {
				d.handler = nil
			}
		})
	}, nil
}

func (d *dispatcher) dispatch(sig model.Signal) bool {
	d.mu.RLock()
	handler := d.handler
	d.mu.RUnlock()
	if handler == nil {
		return false
	}
	handler(sig)
	return true
}

// Manual is an in-process source fed by Push.
type Manual struct {
	dispatcher
}

func NewManual() *Manual {
	return &Manual{}
}

// Push delivers a signal to the registered handler.
func (m *Manual) Push(sig model.Signal) error {
	if sig.Source == "" {
		sig.Source = "manual"
	}
	if !m.dispatch(sig) {
		return ErrNotRegistered
	}
	return nil
}
