package backend

import (
	"context"
	"encoding/json"
	"strings"
)

// Codex invokes the codex CLI (`codex exec --json`) and extracts
// agent_message items from its JSONL stdout.
type Codex struct {
	cfg Config
}

func newCodex(cfg Config) *Codex {
	if strings.TrimSpace(cfg.CLIPath) == "" {
		cfg.CLIPath = "codex"
	}
	return &Codex{cfg: cfg}
}

func (c *Codex) Kind() string { return KindCodex }

func (c *Codex) argv(prompt string) []string {
	argv := []string{c.cfg.CLIPath, "exec", "--json"}
	if c.cfg.Model != "" {
		argv = append(argv, "-m", c.cfg.Model)
	}
	argv = append(argv, c.cfg.ExtraFlags...)
	argv = append(argv, prompt)
	return argv
}

func (c *Codex) RequestAction(ctx context.Context, req Request) (Result, error) {
	stdout, stderr, err := runCLI(ctx, c.argv(req.Prompt), c.cfg.Timeout, c.cfg.Debug, c.cfg.Logger)
	if err != nil {
		return cliFailureResult(err, stdout, stderr), nil
	}
	text := parseCodexStdout(stdout)
	action, notes := finalize(text, req.LegalActions)
	return Result{Action: action, RawResponse: text, Notes: notes}, nil
}

// parseCodexStdout joins the text of every agent_message JSONL item. Lines
// that are not JSON objects are skipped; when no agent_message is present the
// raw stdout is returned so finalize can still try to recover an action.
func parseCodexStdout(stdout string) string {
	text := strings.TrimSpace(stdout)
	if text == "" {
		return ""
	}
	var messages []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var payload map[string]any
		if err := json.Unmarshal([]byte(line), &payload); err != nil {
			continue
		}
		item, ok := payload["item"].(map[string]any)
		if !ok || item["type"] != "agent_message" {
			continue
		}
		if msg, ok := item["text"].(string); ok {
			messages = append(messages, msg)
		}
	}
	if len(messages) > 0 {
		return strings.TrimSpace(strings.Join(messages, "\n"))
	}
	return text
}
