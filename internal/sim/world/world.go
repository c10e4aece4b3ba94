package world

import (
	"fmt"
	"math/rand"

	"gridsandbox.ai/internal/protocol"
)

type Config struct {
	GridSize int
	// AllowCoLocate permits two agents to share a cell. When false (the
	// default), move legality and conflict resolution both enforce
	// one-agent-per-cell occupancy.
	AllowCoLocate bool
}

func (c *Config) applyDefaults() {
	if c.GridSize <= 0 {
		c.GridSize = 3
	}
}

// World owns grid geometry and agent positions. It performs no legality
// enforcement in Apply; callers validate through LegalActions first.
type World struct {
	cfg    Config
	agents []*Agent
	byName map[string]*Agent
}

func New(cfg Config) *World {
	cfg.applyDefaults()
	return &World{
		cfg:    cfg,
		byName: map[string]*Agent{},
	}
}

func (w *World) GridSize() int       { return w.cfg.GridSize }
func (w *World) AllowCoLocate() bool { return w.cfg.AllowCoLocate }

// Agents returns the live agent list in creation order. Turn resolution
// depends on this order being stable for the lifetime of the run.
func (w *World) Agents() []*Agent { return w.agents }

func (w *World) AgentByName(name string) (*Agent, bool) {
	a, ok := w.byName[name]
	return a, ok
}

// Populate places the named agents at non-colliding cells, iterating
// candidate cells in an order derived from rng. It fails when there are more
// agents than cells. playerName marks at most one agent as player-controlled.
func (w *World) Populate(names []string, playerName string, rng *rand.Rand) error {
	cells := make([]protocol.Position, 0, w.cfg.GridSize*w.cfg.GridSize)
	for x := 0; x < w.cfg.GridSize; x++ {
		for y := 0; y < w.cfg.GridSize; y++ {
			cells = append(cells, protocol.Position{X: x, Y: y})
		}
	}
	if len(names) > len(cells) {
		return fmt.Errorf("%d agents do not fit a %dx%d grid", len(names), w.cfg.GridSize, w.cfg.GridSize)
	}
	rng.Shuffle(len(cells), func(i, j int) { cells[i], cells[j] = cells[j], cells[i] })

	w.agents = w.agents[:0]
	w.byName = map[string]*Agent{}
	next := 0
	for _, name := range names {
		for next < len(cells) && w.occupied(cells[next], "") {
			next++
		}
		if next >= len(cells) {
			return fmt.Errorf("ran out of free cells placing %s", name)
		}
		a := &Agent{
			Name:     name,
			Pos:      cells[next],
			IsPlayer: name == playerName,
		}
		next++
		w.agents = append(w.agents, a)
		w.byName[name] = a
	}
	return nil
}

func (w *World) InBounds(p protocol.Position) bool {
	return p.X >= 0 && p.X < w.cfg.GridSize && p.Y >= 0 && p.Y < w.cfg.GridSize
}

func (w *World) occupied(p protocol.Position, exclude string) bool {
	for _, other := range w.agents {
		if other.Name != exclude && other.Pos == p {
			return true
		}
	}
	return false
}

// Occupied reports whether any agent other than exclude stands on p.
func (w *World) Occupied(p protocol.Position, exclude string) bool {
	return w.occupied(p, exclude)
}

// Destination returns the cell reached by moving from p in direction.
func Destination(p protocol.Position, direction string) protocol.Position {
	dx, dy := protocol.Delta(direction)
	return protocol.Position{X: p.X + dx, Y: p.Y + dy}
}

// Positions returns a copy of the current position map.
func (w *World) Positions() map[string]protocol.Position {
	out := make(map[string]protocol.Position, len(w.agents))
	for _, a := range w.agents {
		out[a.Name] = a.Pos
	}
	return out
}

// Views returns snapshot agent projections in creation order.
func (w *World) Views() []protocol.AgentView {
	out := make([]protocol.AgentView, 0, len(w.agents))
	for _, a := range w.agents {
		out = append(out, protocol.AgentView{Name: a.Name, Position: a.Pos})
	}
	return out
}
