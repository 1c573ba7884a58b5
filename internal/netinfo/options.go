package netinfo

import (
	"sync"

	"github.com/micro-ha/netstate/internal/model"
)

// OptionsStore holds host-controlled options in memory.
type OptionsStore struct {
	mu      sync.RWMutex
	options model.Options
}

func NewOptionsStore(initial model.Options) *OptionsStore {
	return &OptionsStore{options: initial}
}

// Set replaces the options and reports whether anything changed.
func (s *OptionsStore) Set(options model.Options) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := s.options != options
	s.options = options
	return changed
}

func (s *OptionsStore) Options() model.Options {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.options
}
