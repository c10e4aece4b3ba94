package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gridsandbox.ai/internal/backend"
	"gridsandbox.ai/internal/protocol"
	"gridsandbox.ai/internal/sim/world"
)

// pendingTurn is the in-flight state of one turn: proposals gathered so far,
// their debug entries, and, when suspended, the player's slot together with
// the legal-action set that was offered. The offered set is carried here and
// never recomputed on resume, so the options shown to the player stay stable.
type pendingTurn struct {
	turn        int
	proposals   []proposal
	debug       []*protocol.DebugEntry
	playerSlot  int
	playerLegal []protocol.Action
}

type proposal struct {
	agent  *world.Agent
	action protocol.Action
	entry  *protocol.DebugEntry
}

// Step advances the run by one turn. Only valid in Ready. Agents are
// solicited strictly in creation order; when the player agent's slot is
// reached, Step returns RequiresPlayer with the offered legal set and the
// remaining agents are not solicited until SubmitPlayerAction resolves the
// turn.
func (e *Engine) Step(ctx context.Context) (*TurnResult, error) {
	if !e.mu.TryLock() {
		return nil, ErrBusy
	}
	defer e.mu.Unlock()

	switch e.state {
	case StateIdle:
		return nil, invalidStateError("step before reset")
	case StateAwaitingPlayer:
		return nil, invalidStateError("step while awaiting player action")
	}

	e.pending = &pendingTurn{turn: e.turn + 1, playerSlot: -1}
	return e.continueTurn(ctx, 0)
}

// SubmitPlayerAction resolves a suspended turn. Only valid in AwaitingPlayer.
// The action is validated against the legal set offered when the engine
// suspended; an action outside that set fails with ErrValidation and leaves
// the pending turn unresolved.
func (e *Engine) SubmitPlayerAction(ctx context.Context, action protocol.Action) (*TurnResult, error) {
	if !e.mu.TryLock() {
		return nil, ErrBusy
	}
	defer e.mu.Unlock()

	if e.state != StateAwaitingPlayer {
		return nil, invalidStateError("no player action is pending")
	}

	validated, err := validatePlayerAction(action, e.pending.playerLegal)
	if err != nil {
		return nil, err
	}

	slot := e.pending.playerSlot
	agent := e.world.Agents()[slot]
	entry := e.pending.debug[len(e.pending.debug)-1]
	raw, _ := json.Marshal(validated)
	entry.RawResponse = string(raw)
	applied := validated
	entry.ParsedAction = &applied

	e.pending.proposals = append(e.pending.proposals, proposal{agent: agent, action: validated, entry: entry})
	return e.continueTurn(ctx, slot+1)
}

// continueTurn solicits agents from slot onward, then resolves the batch.
// Both Step and SubmitPlayerAction funnel through here, which is what makes
// the suspend/resume flow resume exactly where it left off.
func (e *Engine) continueTurn(ctx context.Context, slot int) (*TurnResult, error) {
	agents := e.world.Agents()
	for i := slot; i < len(agents); i++ {
		a := agents[i]
		legal := e.decoratedLegalActions(a)
		obs := protocol.Observation{
			You:          a.Name,
			Positions:    e.world.Positions(),
			GridSize:     e.world.GridSize(),
			Turn:         e.pending.turn,
			LegalActions: legal,
			Traits:       e.traits,
			Message:      a.TakeInbox(),
		}
		prompt := renderPrompt(
			systemPrompt(e.traits[a.Name].Persona, rosterDescription(e.names, a.Name, e.traits)),
			obs,
		)
		entry := &protocol.DebugEntry{
			Turn:         e.pending.turn,
			Agent:        a.Name,
			Prompt:       prompt,
			LegalActions: legal,
		}
		e.pending.debug = append(e.pending.debug, entry)

		res, err := e.backends[a.Name].RequestAction(ctx, backend.Request{
			AgentName:    a.Name,
			Prompt:       prompt,
			LegalActions: legal,
		})
		if errors.Is(err, backend.ErrAwaitPlayer) {
			e.pending.playerSlot = i
			e.pending.playerLegal = cloneActions(legal)
			e.state = StateAwaitingPlayer
			return &TurnResult{
				Turn:           e.pending.turn,
				Snapshot:       e.snapshotLocked(),
				TurnMessages:   []protocol.ConversationEntry{},
				Debug:          copyDebug(e.pending.debug),
				RequiresPlayer: true,
				Player: &PlayerPrompt{
					Agent:        a.Name,
					LegalActions: cloneActions(legal),
					Traits:       e.traits[a.Name],
				},
			}, nil
		}

		action := protocol.Wait()
		switch {
		case err != nil:
			entry.Notes = fmt.Sprintf("backend error (%v); waited instead", err)
		case !protocol.MatchesLegal(res.Action, legal):
			// Backends validate their own output, but the validity
			// invariant is enforced here regardless.
			entry.RawResponse = res.RawResponse
			entry.Notes = joinNotes(res.Notes, "backend returned an action outside the legal set; waited instead")
		default:
			action = res.Action
			entry.RawResponse = res.RawResponse
			entry.Notes = res.Notes
		}
		applied := action
		entry.ParsedAction = &applied
		e.pending.proposals = append(e.pending.proposals, proposal{agent: a, action: action, entry: entry})
	}
	return e.resolveTurn(), nil
}

// resolveTurn applies the collected batch in creation order. Moves are
// re-checked against the evolving state when co-location is disabled: a
// destination taken by an earlier-ordered agent this turn downgrades the move
// to wait with a note, so conflicts resolve by turn-order precedence.
func (e *Engine) resolveTurn() *TurnResult {
	msgs := []protocol.ConversationEntry{}
	for _, p := range e.pending.proposals {
		act := p.action
		if act.Kind == protocol.ActionMove {
			dest := world.Destination(p.agent.Pos, act.Direction)
			if !e.world.InBounds(dest) || (!e.world.AllowCoLocate() && e.world.Occupied(dest, p.agent.Name)) {
				act = protocol.Wait()
				p.entry.Notes = joinNotes(p.entry.Notes, "move destination occupied this turn; waited instead")
			}
		}
		e.world.Apply(p.agent, act)
		applied := act
		p.entry.ParsedAction = &applied
		switch act.Kind {
		case protocol.ActionMove:
			p.entry.Notes = joinNotes(p.entry.Notes, fmt.Sprintf("moved to (%d, %d)", p.agent.Pos.X, p.agent.Pos.Y))
		case protocol.ActionTalk:
			ce := protocol.ConversationEntry{
				Turn:    e.pending.turn,
				From:    p.agent.Name,
				To:      act.Target,
				Message: act.Message,
			}
			msgs = append(msgs, ce)
			e.simlog.appendConversation(ce)
			p.entry.Notes = joinNotes(p.entry.Notes, fmt.Sprintf("spoke to %s", act.Target))
		default:
			p.entry.Notes = joinNotes(p.entry.Notes, "waited")
		}
	}

	e.turn = e.pending.turn
	debug := copyDebug(e.pending.debug)
	e.simlog.appendDebug(debug)

	res := &TurnResult{
		Turn:         e.turn,
		Snapshot:     e.snapshotLocked(),
		TurnMessages: msgs,
		Debug:        debug,
	}
	e.history = append(e.history, res)
	e.pending = nil
	e.state = StateReady

	if e.cfg.Recorder != nil {
		if err := e.cfg.Recorder.RecordTurn(res); err != nil && e.logger != nil {
			e.logger.Printf("record turn %d: %v", res.Turn, err)
		}
	}
	return res
}

// decoratedLegalActions computes the agent's legal set and annotates talk
// entries with the target's display title for the prompt and the player UI.
func (e *Engine) decoratedLegalActions(a *world.Agent) []protocol.Action {
	legal := e.world.LegalActions(a)
	for i := range legal {
		if legal[i].Kind == protocol.ActionTalk {
			legal[i].TargetTitle = e.traits[legal[i].Target].Title
		}
	}
	return legal
}

// validatePlayerAction checks a submitted action against the offered set and
// normalizes it. A talk without message text gets the default greeting.
func validatePlayerAction(a protocol.Action, legal []protocol.Action) (protocol.Action, error) {
	switch a.Kind {
	case "", protocol.ActionWait:
		return protocol.Wait(), nil
	case protocol.ActionMove:
		if !protocol.MatchesLegal(a, legal) {
			return protocol.Action{}, validationError("direction %q not in the offered legal set", a.Direction)
		}
		return protocol.Move(a.Direction), nil
	case protocol.ActionTalk:
		for _, l := range legal {
			if l.Kind != protocol.ActionTalk || l.Target != a.Target {
				continue
			}
			message := a.Message
			if message == "" {
				alias := l.TargetTitle
				if alias == "" {
					alias = l.Target
				}
				message = fmt.Sprintf("Hey %s, let's keep moving!", alias)
			}
			return protocol.Talk(a.Target, message), nil
		}
		return protocol.Action{}, validationError("target %q not in the offered legal set", a.Target)
	}
	return protocol.Action{}, validationError("unsupported action %q", a.Kind)
}

func cloneActions(in []protocol.Action) []protocol.Action {
	out := make([]protocol.Action, len(in))
	copy(out, in)
	return out
}

func copyDebug(in []*protocol.DebugEntry) []protocol.DebugEntry {
	out := make([]protocol.DebugEntry, 0, len(in))
	for _, e := range in {
		out = append(out, *e)
	}
	return out
}

func joinNotes(existing, note string) string {
	if existing == "" {
		return note
	}
	if note == "" {
		return existing
	}
	return existing + "; " + note
}
