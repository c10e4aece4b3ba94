package protocol

import "testing"

func TestDelta(t *testing.T) {
	cases := []struct {
		dir    string
		dx, dy int
	}{
		{DirUp, 0, -1},
		{DirDown, 0, 1},
		{DirLeft, -1, 0},
		{DirRight, 1, 0},
		{"sideways", 0, 0},
	}
	for _, tc := range cases {
		dx, dy := Delta(tc.dir)
		if dx != tc.dx || dy != tc.dy {
			t.Errorf("Delta(%q) = (%d, %d), want (%d, %d)", tc.dir, dx, dy, tc.dx, tc.dy)
		}
	}
}

func TestMatchesLegal(t *testing.T) {
	legal := []Action{
		Wait(),
		Move(DirDown),
		{Kind: ActionTalk, Target: "agent2", TargetTitle: "Blair"},
	}

	if !MatchesLegal(Wait(), legal) {
		t.Error("wait should match a legal set containing wait")
	}
	if !MatchesLegal(Move(DirDown), legal) {
		t.Error("move down should match")
	}
	if MatchesLegal(Move(DirUp), legal) {
		t.Error("move up should not match")
	}
	if !MatchesLegal(Talk("agent2", "hi"), legal) {
		t.Error("talk should match on target regardless of message")
	}
	if MatchesLegal(Talk("agent3", "hi"), legal) {
		t.Error("talk to an unlisted target should not match")
	}
	if MatchesLegal(Action{Kind: "dance"}, legal) {
		t.Error("unknown kind should not match")
	}
}

func TestParseAction(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want Action
		ok   bool
	}{
		{
			name: "bare object",
			raw:  `{"action": "move", "direction": "up"}`,
			want: Move(DirUp),
			ok:   true,
		},
		{
			name: "fenced with chatter",
			raw:  "Sure, here is my plan:\n```json\n{\"action\": \"talk\", \"target\": \"agent2\", \"message\": \"hello\"}\n```\nGood luck!",
			want: Talk("agent2", "hello"),
			ok:   true,
		},
		{
			name: "wait drops stray fields",
			raw:  `{"action": "wait", "direction": "up"}`,
			want: Wait(),
			ok:   true,
		},
		{name: "no json block", raw: "I will move up."},
		{name: "invalid json", raw: `{"action": "move",`},
		{name: "bad direction", raw: `{"action": "move", "direction": "north"}`},
		{name: "talk without target", raw: `{"action": "talk", "message": "hi"}`},
		{name: "talk without message", raw: `{"action": "talk", "target": "agent2"}`},
		{name: "unknown kind", raw: `{"action": "fly"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseAction(tc.raw)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if ok && got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestExtractJSONBlockSpansOutermostBraces(t *testing.T) {
	raw := "prefix {\"a\": {\"b\": 1}} suffix"
	if got := ExtractJSONBlock(raw); got != `{"a": {"b": 1}}` {
		t.Fatalf("got %q", got)
	}
	if got := ExtractJSONBlock("no object here"); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}
