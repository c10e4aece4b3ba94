// Command sandbox runs a simulation from the terminal: it resets an engine,
// steps it for a fixed number of turns, and, when a player agent is enabled,
// prompts on stdin whenever the engine suspends for the player's action.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gridsandbox.ai/internal/backend"
	"gridsandbox.ai/internal/persistence/transcript"
	"gridsandbox.ai/internal/protocol"
	"gridsandbox.ai/internal/sim/engine"
	"gridsandbox.ai/internal/sim/roster"
)

func main() {
	var (
		gridSize    = flag.Int("grid", 5, "grid size (2..8)")
		numAgents   = flag.Int("agents", 3, "agent count (2..6)")
		turns       = flag.Int("turns", 10, "turns to run")
		seed        = flag.Int64("seed", time.Now().UnixNano(), "placement and mock seed")
		backendKind = flag.String("backend", backend.KindMock, "action backend: gemini, codex or mock")
		cliPath     = flag.String("cli", "", "override path to the backend CLI binary")
		model       = flag.String("model", "", "model name passed to the backend CLI")
		timeout     = flag.Duration("timeout", 120*time.Second, "per-request CLI timeout")
		player      = flag.Bool("player", false, "reserve the last agent slot for stdin control")
		coLocate    = flag.Bool("colocate", false, "allow agents to share a cell")
		rosterPath  = flag.String("roster", "", "persona roster yaml (empty for built-ins)")
		dataDir     = flag.String("data", "", "directory for run transcripts (empty disables recording)")
		debug       = flag.Bool("debug", false, "log backend CLI invocations and raw replies")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[sandbox] ", log.LstdFlags|log.Lmicroseconds)

	rcfg, err := roster.Load(*rosterPath)
	if err != nil {
		logger.Fatalf("load roster: %v", err)
	}

	cfg := engine.Config{
		GridSize:           *gridSize,
		NumAgents:          *numAgents,
		Seed:               *seed,
		IncludePlayerAgent: *player,
		AllowCoLocate:      *coLocate,
		Backend: backend.Config{
			Kind:    *backendKind,
			CLIPath: *cliPath,
			Model:   *model,
			Timeout: *timeout,
			Debug:   *debug,
		},
		Roster: rcfg,
	}

	var recorder *transcript.Recorder
	if *dataDir != "" {
		runID := fmt.Sprintf("run-%d", time.Now().Unix())
		w, err := transcript.NewWriter(*dataDir, runID)
		if err != nil {
			logger.Fatalf("open transcript: %v", err)
		}
		idx, err := transcript.OpenSQLite(filepath.Join(*dataDir, "transcripts.db"))
		if err != nil {
			logger.Fatalf("open transcript index: %v", err)
		}
		defer idx.Close()
		recorder = transcript.NewRecorder(runID, w, idx)
		defer recorder.Close()
		cfg.Recorder = recorder
		logger.Printf("recording run %s to %s", runID, w.Path())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	eng := engine.New(logger)
	snap, err := eng.Reset(cfg)
	if err != nil {
		logger.Fatalf("reset: %v", err)
	}
	logger.Printf("run started: grid=%d agents=%d seed=%d backend=%s player=%v",
		snap.GridSize, len(snap.Agents), *seed, snap.Backend, snap.PlayerAgent)
	printPositions(logger, snap)

	stdin := bufio.NewScanner(os.Stdin)
	for turn := 1; turn <= *turns; turn++ {
		res, err := eng.Step(ctx)
		if err != nil {
			logger.Fatalf("step turn %d: %v", turn, err)
		}
		for res.RequiresPlayer {
			action, err := readPlayerAction(stdin, res.Player)
			if err != nil {
				logger.Fatalf("read player action: %v", err)
			}
			// A rejected submission returns no result; keep the suspended
			// one so the re-prompt still has the offered legal set.
			next, err := eng.SubmitPlayerAction(ctx, action)
			if err != nil {
				if errors.Is(err, engine.ErrValidation) {
					logger.Printf("rejected: %v", err)
					continue
				}
				logger.Fatalf("submit player action: %v", err)
			}
			res = next
		}
		printTurn(logger, res)
		if ctx.Err() != nil {
			logger.Printf("interrupted after turn %d", res.Turn)
			return
		}
	}
}

// readPlayerAction prompts with the offered legal set and parses one stdin
// line. Accepts an index into the printed set, a raw action JSON object, or
// an empty line for wait.
func readPlayerAction(stdin *bufio.Scanner, p *engine.PlayerPrompt) (protocol.Action, error) {
	fmt.Printf("\n-- %s (%s), choose an action --\n", p.Agent, p.Traits.Title)
	for i, a := range p.LegalActions {
		fmt.Printf("  [%d] %s\n", i, describeAction(a))
	}
	fmt.Print("> ")

	if !stdin.Scan() {
		if err := stdin.Err(); err != nil {
			return protocol.Action{}, err
		}
		// EOF: play on without the human.
		return protocol.Wait(), nil
	}
	line := strings.TrimSpace(stdin.Text())
	switch {
	case line == "":
		return protocol.Wait(), nil
	case strings.HasPrefix(line, "{"):
		var a protocol.Action
		if err := json.Unmarshal([]byte(line), &a); err != nil {
			return protocol.Action{}, fmt.Errorf("bad action JSON: %w", err)
		}
		return a, nil
	}
	idx, err := strconv.Atoi(line)
	if err != nil || idx < 0 || idx >= len(p.LegalActions) {
		return protocol.Action{}, fmt.Errorf("expected an index in [0..%d], JSON, or an empty line", len(p.LegalActions)-1)
	}
	return p.LegalActions[idx], nil
}

func describeAction(a protocol.Action) string {
	switch a.Kind {
	case protocol.ActionMove:
		return fmt.Sprintf("move %s", a.Direction)
	case protocol.ActionTalk:
		alias := a.TargetTitle
		if alias == "" {
			alias = a.Target
		}
		return fmt.Sprintf("talk to %s", alias)
	}
	return "wait"
}

func printTurn(logger *log.Logger, res *engine.TurnResult) {
	logger.Printf("turn %d resolved", res.Turn)
	for _, d := range res.Debug {
		action := "wait"
		if d.ParsedAction != nil {
			action = describeAction(*d.ParsedAction)
		}
		line := fmt.Sprintf("  %-8s %s", d.Agent, action)
		if d.Notes != "" {
			line += " (" + d.Notes + ")"
		}
		logger.Print(line)
	}
	for _, m := range res.TurnMessages {
		logger.Printf("  %s -> %s: %s", m.From, m.To, m.Message)
	}
	printPositions(logger, res.Snapshot)
}

func printPositions(logger *log.Logger, snap protocol.Snapshot) {
	var b strings.Builder
	for i, a := range snap.Agents {
		if i > 0 {
			b.WriteString("  ")
		}
		fmt.Fprintf(&b, "%s(%d,%d)", a.Name, a.Position.X, a.Position.Y)
	}
	logger.Printf("  positions: %s", b.String())
}
