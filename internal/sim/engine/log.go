package engine

import "gridsandbox.ai/internal/protocol"

// SimulationLog is the append-only conversation and debug trail for one run.
// Entries are immutable once appended; append order is chronological. The
// log is guarded by the engine's own lock and needs no locking of its own.
type SimulationLog struct {
	conversation []protocol.ConversationEntry
	debug        []protocol.DebugEntry
}

func (l *SimulationLog) appendConversation(e protocol.ConversationEntry) {
	l.conversation = append(l.conversation, e)
}

func (l *SimulationLog) appendDebug(entries []protocol.DebugEntry) {
	l.debug = append(l.debug, entries...)
}

// Conversation returns a copy of the full conversation trail.
func (l *SimulationLog) Conversation() []protocol.ConversationEntry {
	out := make([]protocol.ConversationEntry, len(l.conversation))
	copy(out, l.conversation)
	return out
}

// ConversationByTurn returns the conversation entries tagged with turn.
func (l *SimulationLog) ConversationByTurn(turn int) []protocol.ConversationEntry {
	var out []protocol.ConversationEntry
	for _, e := range l.conversation {
		if e.Turn == turn {
			out = append(out, e)
		}
	}
	return out
}

// DebugByTurn returns the debug entries tagged with turn.
func (l *SimulationLog) DebugByTurn(turn int) []protocol.DebugEntry {
	var out []protocol.DebugEntry
	for _, e := range l.debug {
		if e.Turn == turn {
			out = append(out, e)
		}
	}
	return out
}

func (l *SimulationLog) reset() {
	l.conversation = nil
	l.debug = nil
}
