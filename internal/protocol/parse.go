package protocol

import (
	"encoding/json"
	"regexp"
	"strings"
)

var jsonBlockRE = regexp.MustCompile(`(?s)\{.*\}`)

// ExtractJSONBlock strips wrapper text (markdown fences, chatter before or
// after the object) and returns the outermost {...} span, or "" if none.
func ExtractJSONBlock(raw string) string {
	return jsonBlockRE.FindString(raw)
}

// ParseAction extracts and decodes one action object from a free-text model
// reply. It returns ok=false when no structurally valid action can be
// recovered; callers substitute the fallback wait in that case.
func ParseAction(raw string) (Action, bool) {
	block := ExtractJSONBlock(raw)
	if block == "" {
		return Action{}, false
	}
	var a Action
	if err := json.Unmarshal([]byte(block), &a); err != nil {
		return Action{}, false
	}
	switch a.Kind {
	case ActionWait:
		return Wait(), true
	case ActionMove:
		switch a.Direction {
		case DirUp, DirDown, DirLeft, DirRight:
			return Move(a.Direction), true
		}
		return Action{}, false
	case ActionTalk:
		if strings.TrimSpace(a.Target) == "" || a.Message == "" {
			return Action{}, false
		}
		return Talk(a.Target, a.Message), true
	}
	return Action{}, false
}
