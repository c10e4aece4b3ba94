package engine

import (
	"encoding/json"
	"fmt"
	"strings"

	"gridsandbox.ai/internal/protocol"
)

// systemPrompt frames the persona and the reply contract for a CLI-backed
// agent. The wording mirrors what the models have proven able to follow:
// first-person persona speech plus a strict JSON-only reply shape.
func systemPrompt(persona, rosterDesc string) string {
	return persona + " Your teammates are " + rosterDesc + ". " +
		"Speak like a friendly adventurer, sharing your thoughts in the first person. " +
		"When you choose a talk action, pick one of the characters listed in legal_actions and greet them by name in a short English paragraph. " +
		"Do not mention that you are an AI, write third-person commentary, or summarise for the user. " +
		"Avoid bullet points and tool usage; respond with empathy, questions, or suggestions that move the party forward. " +
		"You must select exactly one option from legal_actions and return JSON that matches it. " +
		`Return JSON only in the form {"action": ..., "direction"|"target"|"message": ...}. ` +
		"For move, set direction. For talk, set target and message. For wait, omit the other fields."
}

// rosterDescription lists every other agent as "Title (name)".
func rosterDescription(names []string, self string, traits map[string]protocol.Traits) string {
	var parts []string
	for _, name := range names {
		if name == self {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", traits[name].Title, name))
	}
	return strings.Join(parts, ", ")
}

// renderPrompt joins the system framing with the per-turn observation. The
// observation is marshalled with encoding/json, which sorts map keys, so the
// rendered prompt is deterministic for a given state.
func renderPrompt(system string, obs protocol.Observation) string {
	b, _ := json.Marshal(obs)
	return system + "\n" +
		"You will receive the current situation and the available legal actions as JSON. " +
		"Choose exactly one entry from legal_actions and respond only with the specified JSON shape.\n" +
		string(b)
}
