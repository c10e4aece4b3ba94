package protocol

const Version = "1.0"

// Action kinds.
const (
	ActionMove = "move"
	ActionTalk = "talk"
	ActionWait = "wait"
)

// Move directions.
const (
	DirUp    = "up"
	DirDown  = "down"
	DirLeft  = "left"
	DirRight = "right"
)

// Directions lists the move directions in their canonical order. Legal-action
// sets iterate this slice so output ordering is stable across runs.
var Directions = []string{DirUp, DirDown, DirLeft, DirRight}

// Delta returns the (dx, dy) offset for a direction. Unknown directions
// return (0, 0); callers are expected to have validated the direction first.
func Delta(direction string) (int, int) {
	switch direction {
	case DirUp:
		return 0, -1
	case DirDown:
		return 0, 1
	case DirLeft:
		return -1, 0
	case DirRight:
		return 1, 0
	}
	return 0, 0
}

// Action is the single wire shape shared by legal-action sets, model replies
// and player submissions. Kind selects which optional fields apply: move uses
// Direction, talk uses Target (plus Message on a concrete action). TargetTitle
// decorates talk entries in observations with the target's display title.
type Action struct {
	Kind        string `json:"action" jsonschema:"required,enum=move,enum=talk,enum=wait"`
	Direction   string `json:"direction,omitempty" jsonschema:"enum=up,enum=down,enum=left,enum=right"`
	Target      string `json:"target,omitempty" jsonschema:"minLength=1"`
	Message     string `json:"message,omitempty"`
	TargetTitle string `json:"target_title,omitempty"`
}

func Wait() Action { return Action{Kind: ActionWait} }

func Move(direction string) Action { return Action{Kind: ActionMove, Direction: direction} }

func Talk(target, message string) Action {
	return Action{Kind: ActionTalk, Target: target, Message: message}
}

// MatchesLegal reports whether a is covered by the given legal-action set.
// Moves match on direction, talks on target (the message text is free-form),
// wait matches any wait entry. TargetTitle never participates in matching.
func MatchesLegal(a Action, legal []Action) bool {
	for _, l := range legal {
		if l.Kind != a.Kind {
			continue
		}
		switch a.Kind {
		case ActionWait:
			return true
		case ActionMove:
			if l.Direction == a.Direction {
				return true
			}
		case ActionTalk:
			if l.Target == a.Target {
				return true
			}
		}
	}
	return false
}
