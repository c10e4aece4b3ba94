package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gridsandbox.ai/internal/protocol"
)

const defaultGeminiModel = "gemini-2.5-flash"

// Gemini invokes the gemini CLI non-interactively with -o json and parses
// the JSON envelope it prints on stdout.
type Gemini struct {
	cfg Config
}

func newGemini(cfg Config) *Gemini {
	if strings.TrimSpace(cfg.CLIPath) == "" {
		cfg.CLIPath = "gemini"
	}
	if cfg.Model == "" {
		cfg.Model = defaultGeminiModel
	}
	return &Gemini{cfg: cfg}
}

func (g *Gemini) Kind() string { return KindGemini }

func (g *Gemini) argv(prompt string) []string {
	argv := []string{g.cfg.CLIPath}
	if g.cfg.Model != "" {
		argv = append(argv, "-m", g.cfg.Model)
	}
	argv = append(argv, "-p", prompt, "-o", "json")
	argv = append(argv, g.cfg.ExtraFlags...)
	return argv
}

func (g *Gemini) RequestAction(ctx context.Context, req Request) (Result, error) {
	stdout, stderr, err := runCLI(ctx, g.argv(req.Prompt), g.cfg.Timeout, g.cfg.Debug, g.cfg.Logger)
	if err != nil {
		return cliFailureResult(err, stdout, stderr), nil
	}
	text, err := parseGeminiStdout(stdout)
	if err != nil {
		return cliFailureResult(err, stdout, stderr), nil
	}
	action, notes := finalize(text, req.LegalActions)
	return Result{Action: action, RawResponse: text, Notes: notes}, nil
}

// cliFailureResult implements the fallback policy for subprocess failures:
// the turn proceeds with wait and the failure is recorded, never raised.
func cliFailureResult(err error, stdout, stderr string) Result {
	note := fmt.Sprintf("cli invocation failed (%v); waited instead", err)
	if errors.Is(err, errCLITimeout) {
		note = fmt.Sprintf("cli invocation timed out (%v); waited instead", err)
	}
	raw := strings.TrimSpace(stdout)
	if raw == "" {
		raw = strings.TrimSpace(stderr)
	}
	return Result{Action: protocol.Wait(), RawResponse: raw, Notes: note}
}

// parseGeminiStdout unwraps the gemini CLI -o json envelope down to the
// model's reply text.
func parseGeminiStdout(stdout string) (string, error) {
	var payload map[string]any
	trimmed := strings.TrimSpace(stdout)
	if trimmed == "" {
		return "", errors.New("empty stdout")
	}
	if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
		// Not an envelope; treat stdout as the reply text itself.
		return trimmed, nil
	}
	if geminiPayloadHasError(payload) {
		return "", errors.New("gemini cli reported an api error")
	}
	if candidates, ok := payload["candidates"].([]any); ok && len(candidates) > 0 {
		if chunks := walkText(candidates[0]); len(chunks) > 0 {
			return strings.TrimSpace(strings.Join(chunks, "")), nil
		}
	}
	for _, key := range []string{"output", "text", "response"} {
		if v, ok := payload[key].(string); ok {
			return strings.TrimSpace(v), nil
		}
	}
	return trimmed, nil
}

func geminiPayloadHasError(payload map[string]any) bool {
	if _, ok := payload["error"]; ok {
		return true
	}
	stats, ok := payload["stats"].(map[string]any)
	if !ok {
		return false
	}
	models, ok := stats["models"].(map[string]any)
	if !ok {
		return false
	}
	for _, meta := range models {
		m, ok := meta.(map[string]any)
		if !ok {
			continue
		}
		api, ok := m["api"].(map[string]any)
		if !ok {
			continue
		}
		if n, ok := api["totalErrors"].(float64); ok && n > 0 {
			return true
		}
	}
	return false
}

// walkText collects text fragments from a gemini candidate tree, descending
// through "parts" and "content" containers.
func walkText(node any) []string {
	var chunks []string
	var recurse func(any)
	recurse = func(v any) {
		switch t := v.(type) {
		case string:
			chunks = append(chunks, t)
		case []any:
			for _, item := range t {
				recurse(item)
			}
		case map[string]any:
			if s, ok := t["text"].(string); ok {
				chunks = append(chunks, s)
			}
			if parts, ok := t["parts"]; ok {
				recurse(parts)
			}
			if content, ok := t["content"]; ok {
				recurse(content)
			}
		}
	}
	recurse(node)
	return chunks
}
