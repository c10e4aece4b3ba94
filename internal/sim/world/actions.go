package world

import "gridsandbox.ai/internal/protocol"

// LegalActions computes the legal-action set for one agent against the
// current world state. The set is computed fresh every turn and never cached:
// wait first, then in-bounds moves in canonical direction order, then one
// talk entry per other agent in creation order. Talk is not range-limited.
//
// Move legality against occupancy (when co-location is disabled) reflects the
// state at computation time; simultaneous moves within a turn are re-checked
// by the resolver.
func (w *World) LegalActions(a *Agent) []protocol.Action {
	legal := []protocol.Action{protocol.Wait()}
	for _, dir := range protocol.Directions {
		dest := Destination(a.Pos, dir)
		if !w.InBounds(dest) {
			continue
		}
		if !w.cfg.AllowCoLocate && w.occupied(dest, a.Name) {
			continue
		}
		legal = append(legal, protocol.Move(dir))
	}
	for _, other := range w.agents {
		if other.Name == a.Name {
			continue
		}
		legal = append(legal, protocol.Action{Kind: protocol.ActionTalk, Target: other.Name})
	}
	return legal
}

// Apply mutates world state for one action. It performs no validation; the
// resolver guarantees the action is legal (or already downgraded to wait)
// before Apply is called. Move updates the agent's position, talk delivers
// the message to the target's inbox, wait is a no-op.
func (w *World) Apply(a *Agent, act protocol.Action) {
	switch act.Kind {
	case protocol.ActionMove:
		a.Pos = Destination(a.Pos, act.Direction)
	case protocol.ActionTalk:
		if target, ok := w.byName[act.Target]; ok {
			target.Deliver(a.Name, act.Message)
		}
	}
}
