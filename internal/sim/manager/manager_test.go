package manager

import (
	"context"
	"errors"
	"testing"

	"gridsandbox.ai/internal/sim/engine"
)

func runConfig(seed int64) engine.Config {
	return engine.Config{GridSize: 3, NumAgents: 2, Seed: seed}
}

func TestCreateGetRemove(t *testing.T) {
	m := New(nil)

	snap, err := m.Create("alpha", runConfig(1))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if snap.Turn != 0 {
		t.Fatalf("snapshot turn = %d", snap.Turn)
	}
	if _, err := m.Create("alpha", runConfig(2)); !errors.Is(err, ErrExists) {
		t.Fatalf("duplicate create: %v", err)
	}
	if _, err := m.Create("", runConfig(1)); err == nil {
		t.Fatal("empty id should fail")
	}

	if _, err := m.Get("alpha"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, err := m.Get("beta"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing get: %v", err)
	}

	if err := m.Remove("alpha"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := m.Remove("alpha"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double remove: %v", err)
	}
}

func TestCreateFailureRegistersNothing(t *testing.T) {
	m := New(nil)
	if _, err := m.Create("bad", engine.Config{GridSize: 1, NumAgents: 2}); err == nil {
		t.Fatal("invalid config should fail")
	}
	if got := m.List(); len(got) != 0 {
		t.Fatalf("list = %v", got)
	}
}

func TestRunsAreIndependent(t *testing.T) {
	m := New(nil)
	if _, err := m.Create("alpha", runConfig(1)); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Create("beta", runConfig(2)); err != nil {
		t.Fatal(err)
	}

	got := m.List()
	if len(got) != 2 || got[0] != "alpha" || got[1] != "beta" {
		t.Fatalf("list = %v", got)
	}

	alpha, _ := m.Get("alpha")
	beta, _ := m.Get("beta")
	if _, err := alpha.Step(context.Background()); err != nil {
		t.Fatalf("step alpha: %v", err)
	}

	sa, err := alpha.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	sb, err := beta.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if sa.Turn != 1 || sb.Turn != 0 {
		t.Fatalf("turns = %d, %d; stepping one run must not advance another", sa.Turn, sb.Turn)
	}
}
