package engine

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"gridsandbox.ai/internal/backend"
	"gridsandbox.ai/internal/protocol"
)

// scripted is a test backend driven by a decide func.
type scripted struct {
	decide func(req backend.Request) (backend.Result, error)
}

func (s scripted) Kind() string { return "scripted" }

func (s scripted) RequestAction(_ context.Context, req backend.Request) (backend.Result, error) {
	return s.decide(req)
}

func scriptedFactory(decide func(req backend.Request) (backend.Result, error)) BackendFactory {
	return func(name string, slot int, cfg backend.Config) (backend.Backend, error) {
		if cfg.Kind == backend.KindHuman {
			return backend.Human{}, nil
		}
		return scripted{decide: decide}, nil
	}
}

func mockConfig(seed int64) Config {
	return Config{GridSize: 3, NumAgents: 2, Seed: seed}
}

func mustReset(t *testing.T, e *Engine, cfg Config) protocol.Snapshot {
	t.Helper()
	snap, err := e.Reset(cfg)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	return snap
}

func mustStep(t *testing.T, e *Engine) *TurnResult {
	t.Helper()
	res, err := e.Step(context.Background())
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	return res
}

func TestResetValidatesConfig(t *testing.T) {
	e := New(nil)
	cases := []struct {
		name string
		cfg  Config
		want error
	}{
		{"grid too small", Config{GridSize: 1, NumAgents: 2}, ErrBadRequest},
		{"grid too large", Config{GridSize: 9, NumAgents: 2}, ErrBadRequest},
		{"too few agents", Config{GridSize: 3, NumAgents: 1}, ErrBadRequest},
		{"too many agents", Config{GridSize: 3, NumAgents: 7}, ErrBadRequest},
		{"agents exceed cells", Config{GridSize: 2, NumAgents: 5}, ErrPlacement},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := e.Reset(tc.cfg); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
	if e.State() != StateIdle {
		t.Fatalf("failed resets must leave the engine idle, state = %v", e.State())
	}
}

func TestResetSnapshot(t *testing.T) {
	e := New(nil)
	snap := mustReset(t, e, mockConfig(42))

	if snap.Turn != 0 {
		t.Errorf("turn = %d, want 0", snap.Turn)
	}
	if snap.GridSize != 3 {
		t.Errorf("gridSize = %d", snap.GridSize)
	}
	if snap.Backend != backend.KindMock {
		t.Errorf("backend = %q, want mock default", snap.Backend)
	}
	if snap.PlayerAgent {
		t.Error("playerAgent should be false")
	}
	if len(snap.Agents) != 2 {
		t.Fatalf("agents = %+v", snap.Agents)
	}
	if snap.Agents[0].Name != "agent1" || snap.Agents[1].Name != "agent2" {
		t.Errorf("agent names = %+v", snap.Agents)
	}
	if snap.Agents[0].Position == snap.Agents[1].Position {
		t.Error("agents placed on the same cell")
	}
	if snap.Traits["agent1"].Title != "Alex" || snap.Traits["agent2"].Title != "Blair" {
		t.Errorf("traits = %+v", snap.Traits)
	}
	if len(snap.Messages) != 0 {
		t.Errorf("messages = %+v", snap.Messages)
	}
	if e.State() != StateReady {
		t.Errorf("state = %v", e.State())
	}
}

func TestStepBeforeResetFails(t *testing.T) {
	e := New(nil)
	if _, err := e.Step(context.Background()); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
}

func TestSubmitWithoutPendingFails(t *testing.T) {
	e := New(nil)
	mustReset(t, e, mockConfig(42))
	if _, err := e.SubmitPlayerAction(context.Background(), protocol.Wait()); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
}

func TestDeterministicRuns(t *testing.T) {
	a := New(nil)
	b := New(nil)
	mustReset(t, a, mockConfig(42))
	mustReset(t, b, mockConfig(42))

	for turn := 1; turn <= 5; turn++ {
		ra := mustStep(t, a)
		rb := mustStep(t, b)
		sa, _ := json.Marshal(ra.Snapshot)
		sb, _ := json.Marshal(rb.Snapshot)
		if string(sa) != string(sb) {
			t.Fatalf("turn %d snapshots diverged:\n%s\n%s", turn, sa, sb)
		}
	}
}

func TestTurnNumberingAndHistory(t *testing.T) {
	e := New(nil)
	mustReset(t, e, mockConfig(42))

	for turn := 1; turn <= 5; turn++ {
		res := mustStep(t, e)
		if res.Turn != turn {
			t.Fatalf("result turn = %d, want %d", res.Turn, turn)
		}
		if res.Snapshot.Turn != turn {
			t.Fatalf("snapshot turn = %d, want %d", res.Snapshot.Turn, turn)
		}
		if res.RequiresPlayer {
			t.Fatalf("turn %d unexpectedly requires a player", turn)
		}
	}

	hist := e.History()
	if len(hist) != 5 {
		t.Fatalf("history length = %d", len(hist))
	}
	for i, res := range hist {
		if res.Turn != i+1 {
			t.Errorf("history[%d].Turn = %d", i, res.Turn)
		}
	}
}

func TestResolvedActionsStayLegal(t *testing.T) {
	e := New(nil)
	mustReset(t, e, mockConfig(99))

	for turn := 1; turn <= 10; turn++ {
		res := mustStep(t, e)
		for _, d := range res.Debug {
			if d.ParsedAction == nil {
				t.Fatalf("turn %d %s: nil resolved action", turn, d.Agent)
			}
			if !protocol.MatchesLegal(*d.ParsedAction, d.LegalActions) {
				t.Fatalf("turn %d %s resolved %+v outside offered set %+v",
					turn, d.Agent, *d.ParsedAction, d.LegalActions)
			}
		}
	}
}

func TestLogQueriesByTurn(t *testing.T) {
	e := New(nil)
	cfg := mockConfig(42)
	cfg.NewBackend = scriptedFactory(func(req backend.Request) (backend.Result, error) {
		for _, l := range req.LegalActions {
			if l.Kind == protocol.ActionTalk {
				return backend.Result{Action: protocol.Talk(l.Target, "onward"), RawResponse: "scripted"}, nil
			}
		}
		return backend.Result{Action: protocol.Wait()}, nil
	})
	mustReset(t, e, cfg)

	mustStep(t, e)
	mustStep(t, e)

	for turn := 1; turn <= 2; turn++ {
		debug := e.DebugByTurn(turn)
		if len(debug) != 2 {
			t.Fatalf("turn %d debug entries = %d, want one per agent", turn, len(debug))
		}
		msgs := e.ConversationByTurn(turn)
		if len(msgs) != 2 {
			t.Fatalf("turn %d messages = %d, want 2", turn, len(msgs))
		}
		for _, m := range msgs {
			if m.Turn != turn || m.Message != "onward" {
				t.Errorf("message = %+v", m)
			}
		}
	}
	if got := e.ConversationByTurn(3); len(got) != 0 {
		t.Fatalf("turn 3 should have no messages, got %+v", got)
	}

	snap, err := e.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Messages) != 4 {
		t.Fatalf("snapshot messages = %d, want full conversation", len(snap.Messages))
	}
}

func TestTalkDeliveredToNextObservation(t *testing.T) {
	e := New(nil)
	talked := false
	cfg := mockConfig(42)
	cfg.NewBackend = scriptedFactory(func(req backend.Request) (backend.Result, error) {
		if req.AgentName == "agent1" && !talked {
			talked = true
			return backend.Result{Action: protocol.Talk("agent2", "hello there")}, nil
		}
		return backend.Result{Action: protocol.Wait()}, nil
	})
	mustReset(t, e, cfg)

	mustStep(t, e) // talk resolves after agent2 was already solicited
	res2 := mustStep(t, e)
	res3 := mustStep(t, e)

	prompt2 := promptFor(t, res2, "agent2")
	if !strings.Contains(prompt2, `{"from":"agent1","message":"hello there"}`) {
		t.Fatalf("turn 2 prompt missing delivered message:\n%s", prompt2)
	}
	prompt3 := promptFor(t, res3, "agent2")
	if strings.Contains(prompt3, `"from":"agent1"`) {
		t.Fatalf("inbox should clear after one observation:\n%s", prompt3)
	}
}

func promptFor(t *testing.T, res *TurnResult, agent string) string {
	t.Helper()
	for _, d := range res.Debug {
		if d.Agent == agent {
			return d.Prompt
		}
	}
	t.Fatalf("no debug entry for %s", agent)
	return ""
}

func TestBackendFallbacks(t *testing.T) {
	e := New(nil)
	cfg := mockConfig(42)
	cfg.NewBackend = scriptedFactory(func(req backend.Request) (backend.Result, error) {
		if req.AgentName == "agent1" {
			return backend.Result{Action: protocol.Talk("nobody", "hi"), RawResponse: "bad"}, nil
		}
		return backend.Result{}, errors.New("model exploded")
	})
	mustReset(t, e, cfg)

	res := mustStep(t, e)
	if len(res.Debug) != 2 {
		t.Fatalf("debug = %+v", res.Debug)
	}
	for _, d := range res.Debug {
		if d.ParsedAction == nil || d.ParsedAction.Kind != protocol.ActionWait {
			t.Errorf("%s resolved %+v, want wait fallback", d.Agent, d.ParsedAction)
		}
		if d.Notes == "" {
			t.Errorf("%s fallback left no note", d.Agent)
		}
	}
	if len(res.TurnMessages) != 0 {
		t.Errorf("fallback turn produced messages: %+v", res.TurnMessages)
	}
}

func TestReentrantCallFailsBusy(t *testing.T) {
	e := New(nil)
	cfg := mockConfig(42)
	cfg.NewBackend = scriptedFactory(func(req backend.Request) (backend.Result, error) {
		if _, err := e.Step(context.Background()); !errors.Is(err, ErrBusy) {
			return backend.Result{}, errors.New("reentrant step did not fail busy")
		}
		return backend.Result{Action: protocol.Wait()}, nil
	})
	mustReset(t, e, cfg)

	res := mustStep(t, e)
	for _, d := range res.Debug {
		if d.Notes != "waited" {
			t.Fatalf("%s notes = %q; reentrancy check failed inside backend", d.Agent, d.Notes)
		}
	}
}

func TestResetDiscardsRunState(t *testing.T) {
	e := New(nil)
	mustReset(t, e, mockConfig(42))
	mustStep(t, e)
	mustStep(t, e)

	snap := mustReset(t, e, mockConfig(7))
	if snap.Turn != 0 {
		t.Fatalf("turn after reset = %d", snap.Turn)
	}
	if len(e.History()) != 0 {
		t.Fatal("history should clear on reset")
	}
	if got := e.DebugByTurn(1); len(got) != 0 {
		t.Fatalf("debug log should clear on reset, got %+v", got)
	}
}

type recordedTurns struct {
	turns []int
}

func (r *recordedTurns) RecordTurn(res *TurnResult) error {
	r.turns = append(r.turns, res.Turn)
	return nil
}

func TestRecorderReceivesResolvedTurns(t *testing.T) {
	rec := &recordedTurns{}
	e := New(nil)
	cfg := mockConfig(42)
	cfg.Recorder = rec
	mustReset(t, e, cfg)

	mustStep(t, e)
	mustStep(t, e)
	if len(rec.turns) != 2 || rec.turns[0] != 1 || rec.turns[1] != 2 {
		t.Fatalf("recorded turns = %v", rec.turns)
	}
}
