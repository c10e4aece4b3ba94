package backend

import (
	"context"
	"errors"
)

// ErrAwaitPlayer signals that the action must come from the human player.
// The orchestrator suspends the turn and waits for SubmitPlayerAction.
var ErrAwaitPlayer = errors.New("awaiting player input")

// Human never produces an action synchronously.
type Human struct{}

func (Human) Kind() string { return KindHuman }

func (Human) RequestAction(context.Context, Request) (Result, error) {
	return Result{}, ErrAwaitPlayer
}
