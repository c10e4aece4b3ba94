// Package engine drives the turn-resolution state machine: it solicits one
// action per agent per turn through pluggable backends, validates each action
// against a freshly computed legality set, resolves the batch
// deterministically, and suspends mid-turn when a human player's action is
// required.
package engine

import (
	"fmt"
	"log"
	"math/rand"
	"sync"

	"gridsandbox.ai/internal/backend"
	"gridsandbox.ai/internal/protocol"
	"gridsandbox.ai/internal/sim/roster"
	"gridsandbox.ai/internal/sim/world"
)

type State int

const (
	StateIdle State = iota
	StateReady
	StateAwaitingPlayer
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateReady:
		return "READY"
	case StateAwaitingPlayer:
		return "AWAITING_PLAYER"
	}
	return fmt.Sprintf("STATE(%d)", int(s))
}

const (
	minGridSize  = 2
	maxGridSize  = 8
	minNumAgents = 2
	maxNumAgents = 6
)

// BackendFactory builds the backend for one agent slot. The default factory
// is backend.New; tests and embedders may substitute scripted deciders.
type BackendFactory func(agentName string, slot int, cfg backend.Config) (backend.Backend, error)

type Config struct {
	GridSize           int
	NumAgents          int
	Seed               int64
	IncludePlayerAgent bool
	AllowCoLocate      bool

	Backend backend.Config
	Roster  roster.Config

	NewBackend BackendFactory
	Recorder   Recorder
}

func (c *Config) validate() error {
	if c.GridSize < minGridSize || c.GridSize > maxGridSize {
		return badRequestError("grid size %d out of range [%d..%d]", c.GridSize, minGridSize, maxGridSize)
	}
	if c.NumAgents < minNumAgents || c.NumAgents > maxNumAgents {
		return badRequestError("agent count %d out of range [%d..%d]", c.NumAgents, minNumAgents, maxNumAgents)
	}
	return nil
}

// Engine owns one simulation instance. Instances are independent: nothing is
// shared between engines, so multiple simulations can coexist in-process.
// Calls that arrive while another call holds the engine fail with ErrBusy.
type Engine struct {
	mu     sync.Mutex
	logger *log.Logger

	cfg      Config
	state    State
	world    *world.World
	backends map[string]backend.Backend
	traits   map[string]protocol.Traits
	names    []string
	player   string

	turn    int
	simlog  SimulationLog
	history []*TurnResult
	pending *pendingTurn
}

// New returns an engine in the Idle state. logger may be nil.
func New(logger *log.Logger) *Engine {
	return &Engine{logger: logger, state: StateIdle}
}

// Reset discards any previous run state and starts a fresh run: agents are
// created at non-colliding seed-derived placements, the turn counter is
// zeroed and the logs are cleared. On error no run state is created or
// changed.
func (e *Engine) Reset(cfg Config) (protocol.Snapshot, error) {
	if !e.mu.TryLock() {
		return protocol.Snapshot{}, ErrBusy
	}
	defer e.mu.Unlock()

	if err := cfg.validate(); err != nil {
		return protocol.Snapshot{}, err
	}
	if cfg.NumAgents > cfg.GridSize*cfg.GridSize {
		return protocol.Snapshot{}, placementError("%d agents do not fit a %dx%d grid", cfg.NumAgents, cfg.GridSize, cfg.GridSize)
	}
	cfg.Roster.Normalize()
	if cfg.Backend.Kind == "" {
		cfg.Backend.Kind = backend.KindMock
	}

	names := make([]string, cfg.NumAgents)
	for i := range names {
		names[i] = fmt.Sprintf("agent%d", i+1)
	}
	player := ""
	if cfg.IncludePlayerAgent {
		player = names[len(names)-1]
	}

	w := world.New(world.Config{GridSize: cfg.GridSize, AllowCoLocate: cfg.AllowCoLocate})
	rng := rand.New(rand.NewSource(cfg.Seed))
	if err := w.Populate(names, player, rng); err != nil {
		return protocol.Snapshot{}, placementError("%v", err)
	}

	traits := make(map[string]protocol.Traits, len(names))
	for i, name := range names {
		if name == player {
			traits[name] = cfg.Roster.Player.Traits()
			continue
		}
		traits[name] = cfg.Roster.Profile(i).Traits()
	}

	factory := cfg.NewBackend
	if factory == nil {
		factory = func(_ string, _ int, bcfg backend.Config) (backend.Backend, error) {
			return backend.New(bcfg)
		}
	}
	backends := make(map[string]backend.Backend, len(names))
	for i, name := range names {
		bcfg := cfg.Backend
		if name == player {
			bcfg.Kind = backend.KindHuman
		}
		// Derive a distinct stream per agent so mock runs stay
		// reproducible for a given master seed.
		bcfg.Seed = cfg.Seed + int64(i+1)
		bcfg.Logger = e.logger
		be, err := factory(name, i, bcfg)
		if err != nil {
			return protocol.Snapshot{}, badRequestError("backend for %s: %v", name, err)
		}
		backends[name] = be
	}

	e.cfg = cfg
	e.world = w
	e.backends = backends
	e.traits = traits
	e.names = names
	e.player = player
	e.turn = 0
	e.simlog.reset()
	e.history = nil
	e.pending = nil
	e.state = StateReady

	return e.snapshotLocked(), nil
}

// State returns the current machine state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Snapshot returns the read-only projection of the current run. It fails in
// Idle, before the first Reset.
func (e *Engine) Snapshot() (protocol.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateIdle {
		return protocol.Snapshot{}, invalidStateError("no run in progress; call Reset first")
	}
	return e.snapshotLocked(), nil
}

// History returns the results of every resolved turn, oldest first.
func (e *Engine) History() []*TurnResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*TurnResult, len(e.history))
	copy(out, e.history)
	return out
}

// Log exposes turn-scoped queries over the conversation and debug trails.
func (e *Engine) ConversationByTurn(turn int) []protocol.ConversationEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.simlog.ConversationByTurn(turn)
}

func (e *Engine) DebugByTurn(turn int) []protocol.DebugEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.simlog.DebugByTurn(turn)
}

func (e *Engine) snapshotLocked() protocol.Snapshot {
	traits := make(map[string]protocol.Traits, len(e.traits))
	for k, v := range e.traits {
		traits[k] = v
	}
	return protocol.Snapshot{
		Turn:        e.turn,
		GridSize:    e.world.GridSize(),
		Agents:      e.world.Views(),
		Traits:      traits,
		Messages:    e.simlog.Conversation(),
		Backend:     e.cfg.Backend.Kind,
		PlayerAgent: e.player != "",
	}
}
