// Package backend supplies one action per agent per turn through a pluggable
// set of deciders: external LLM CLIs (gemini, codex), a deterministic mock,
// and a human placeholder that suspends the turn instead of answering.
package backend

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"gridsandbox.ai/internal/protocol"
)

// Backend kinds accepted by New.
const (
	KindGemini = "gemini"
	KindCodex  = "codex"
	KindMock   = "mock"
	KindHuman  = "human"
)

// Request carries everything a backend needs to decide one action.
type Request struct {
	AgentName    string
	Prompt       string
	LegalActions []protocol.Action
}

// Result is the outcome of one action request. Action is always a member of
// the request's legal set: backends that cannot produce a valid reply
// substitute wait and explain in Notes rather than returning an error.
type Result struct {
	Action      protocol.Action
	RawResponse string
	Notes       string
}

// Backend turns a rendered prompt plus legal-action set into one validated
// action. Implementations never retry; callers needing retries compose a
// wrapper. The only error ever returned by the built-in variants is
// ErrAwaitPlayer from the human placeholder.
type Backend interface {
	Kind() string
	RequestAction(ctx context.Context, req Request) (Result, error)
}

type Config struct {
	Kind       string
	CLIPath    string
	Model      string
	ExtraFlags []string
	Timeout    time.Duration
	Seed       int64
	Debug      bool
	Logger     *log.Logger
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Kind) == "" {
		c.Kind = KindMock
	}
	if c.Timeout <= 0 {
		c.Timeout = 120 * time.Second
	}
}

// New selects a backend variant by configuration string.
func New(cfg Config) (Backend, error) {
	cfg.applyDefaults()
	switch strings.ToLower(cfg.Kind) {
	case KindGemini:
		return newGemini(cfg), nil
	case KindCodex:
		return newCodex(cfg), nil
	case KindMock:
		return newMock(cfg.Seed), nil
	case KindHuman:
		return Human{}, nil
	}
	return nil, fmt.Errorf("unsupported backend %q (expected gemini, codex, mock, or human)", cfg.Kind)
}
