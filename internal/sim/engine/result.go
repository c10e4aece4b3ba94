package engine

import "gridsandbox.ai/internal/protocol"

// TurnResult is what Step and SubmitPlayerAction return. For a resolved turn
// it carries the post-turn snapshot plus the full debug batch; while a player
// action is pending it carries RequiresPlayer plus the offered legal set and
// only the debug entries gathered so far.
type TurnResult struct {
	Turn           int                          `json:"turn"`
	Snapshot       protocol.Snapshot            `json:"snapshot"`
	TurnMessages   []protocol.ConversationEntry `json:"turnMessages"`
	Debug          []protocol.DebugEntry        `json:"debug"`
	RequiresPlayer bool                         `json:"requiresPlayer,omitempty"`
	Player         *PlayerPrompt                `json:"player,omitempty"`
}

// PlayerPrompt describes the pending player decision: which agent it is for
// and the legal actions offered. The set is fixed when the engine enters
// AwaitingPlayer and is the one SubmitPlayerAction validates against.
type PlayerPrompt struct {
	Agent        string            `json:"agent"`
	LegalActions []protocol.Action `json:"legal_actions"`
	Traits       protocol.Traits   `json:"traits"`
}

// Recorder receives each resolved turn for out-of-band archival (transcript
// files, index db). Recorder failures are logged, never fatal to the run.
type Recorder interface {
	RecordTurn(res *TurnResult) error
}
