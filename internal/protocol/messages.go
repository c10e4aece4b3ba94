package protocol

// Position is a cell on the grid, bounded by 0 <= X,Y < grid size.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Traits is the display/persona profile attached to an agent for the
// duration of a run.
type Traits struct {
	Title   string `json:"title"`
	Icon    string `json:"icon"`
	Color   string `json:"color"`
	Glow    string `json:"glow"`
	Persona string `json:"persona"`
}

// AgentView is the public projection of an agent inside a snapshot.
type AgentView struct {
	Name     string   `json:"name"`
	Position Position `json:"position"`
}

// ConversationEntry records one resolved talk action. Entries are immutable
// once appended; append order is chronological.
type ConversationEntry struct {
	Turn    int    `json:"turn"`
	From    string `json:"from"`
	To      string `json:"to"`
	Message string `json:"message"`
}

// DebugEntry records one agent action attempt, including attempts that were
// recovered by the fallback policy (Notes carries the recovery path).
type DebugEntry struct {
	Turn         int      `json:"turn"`
	Agent        string   `json:"agent"`
	Prompt       string   `json:"prompt"`
	LegalActions []Action `json:"legal_actions"`
	RawResponse  string   `json:"response"`
	ParsedAction *Action  `json:"action"`
	Notes        string   `json:"notes,omitempty"`
}

// Snapshot is the read-only projection of world plus log state returned
// across the engine boundary. It is safe to retain: slices and maps are
// copies, never aliases of run state.
type Snapshot struct {
	Turn        int                 `json:"turn"`
	GridSize    int                 `json:"gridSize"`
	Agents      []AgentView         `json:"agents"`
	Traits      map[string]Traits   `json:"traits"`
	Messages    []ConversationEntry `json:"messages"`
	Backend     string              `json:"backend"`
	PlayerAgent bool                `json:"playerAgent"`
}

// InboxMessage is a talk payload delivered to its target, surfaced in the
// target's next observation.
type InboxMessage struct {
	From    string `json:"from"`
	Message string `json:"message"`
}

// Observation is the JSON document rendered into each agent's prompt.
type Observation struct {
	You          string              `json:"you"`
	Positions    map[string]Position `json:"positions"`
	GridSize     int                 `json:"grid_size"`
	Turn         int                 `json:"turn"`
	LegalActions []Action            `json:"legal_actions"`
	Traits       map[string]Traits   `json:"traits,omitempty"`
	Message      *InboxMessage       `json:"message,omitempty"`
}
