package backend

import "gridsandbox.ai/internal/protocol"

// finalize converts a raw model reply into a validated action. Malformed
// output and replies outside the legal set both fall back to wait with an
// explanatory note; turn progress never stalls on a bad reply.
func finalize(raw string, legal []protocol.Action) (protocol.Action, string) {
	action, ok := protocol.ParseAction(raw)
	if !ok {
		return protocol.Wait(), "reply was not a parseable action object; waited instead"
	}
	if !protocol.MatchesLegal(action, legal) {
		return protocol.Wait(), "parsed action was not in the legal set; waited instead"
	}
	return action, ""
}
