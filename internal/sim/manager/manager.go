// Package manager keeps a registry of named simulation runs so several
// independent engines can coexist in one process. Engines share nothing, so
// the registry only guards its own map; per-run concurrency is the engine's
// problem.
package manager

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"gridsandbox.ai/internal/protocol"
	"gridsandbox.ai/internal/sim/engine"
)

var (
	ErrNotFound = errors.New("run not found")
	ErrExists   = errors.New("run already exists")
)

type Manager struct {
	mu      sync.RWMutex
	logger  *log.Logger
	engines map[string]*engine.Engine
}

// New returns an empty registry. logger is handed to every engine it creates
// and may be nil.
func New(logger *log.Logger) *Manager {
	return &Manager{
		logger:  logger,
		engines: map[string]*engine.Engine{},
	}
}

// Create starts a new run under id. The engine is registered only after its
// reset succeeds, so a failed create leaves no trace.
func (m *Manager) Create(id string, cfg engine.Config) (protocol.Snapshot, error) {
	if strings.TrimSpace(id) == "" {
		return protocol.Snapshot{}, fmt.Errorf("empty run id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.engines[id]; ok {
		return protocol.Snapshot{}, fmt.Errorf("%w: %s", ErrExists, id)
	}
	e := engine.New(m.logger)
	snap, err := e.Reset(cfg)
	if err != nil {
		return protocol.Snapshot{}, err
	}
	m.engines[id] = e
	return snap, nil
}

// Get returns the engine for id.
func (m *Manager) Get(id string) (*engine.Engine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.engines[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, nil
}

// List returns the registered run ids in sorted order.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.engines))
	for id := range m.engines {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Remove drops a run from the registry. Callers holding the engine may keep
// using it; removal only stops new lookups.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.engines[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(m.engines, id)
	return nil
}
