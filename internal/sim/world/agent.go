package world

import "gridsandbox.ai/internal/protocol"

// Agent is one actor on the grid. Agents are created at reset and never
// destroyed mid-run; Pos is mutated only through World.Apply.
type Agent struct {
	Name     string
	Pos      protocol.Position
	IsPlayer bool

	// Inbox holds the most recent talk payload addressed to this agent.
	// It is surfaced in the agent's next observation and then cleared.
	Inbox *protocol.InboxMessage
}

// TakeInbox returns the pending inbox payload, if any, and clears it.
func (a *Agent) TakeInbox() *protocol.InboxMessage {
	m := a.Inbox
	a.Inbox = nil
	return m
}

func (a *Agent) Deliver(from, message string) {
	a.Inbox = &protocol.InboxMessage{From: from, Message: message}
}
