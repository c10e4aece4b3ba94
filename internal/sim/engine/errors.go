package engine

import (
	"fmt"

	"gridsandbox.ai/internal/protocol"
)

// CodedError is an engine-boundary error carrying a protocol error code.
// Errors compare by code, so errors.Is(err, ErrValidation) matches any
// validation failure regardless of its message.
type CodedError struct {
	Code    string
	Message string
}

func (e *CodedError) Error() string { return e.Code + ": " + e.Message }

func (e *CodedError) Is(target error) bool {
	t, ok := target.(*CodedError)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is checks at the engine boundary.
var (
	ErrInvalidState = &CodedError{Code: protocol.ErrInvalidState, Message: "operation not valid in current state"}
	ErrValidation   = &CodedError{Code: protocol.ErrValidation, Message: "action not in the offered legal set"}
	ErrBusy         = &CodedError{Code: protocol.ErrBusy, Message: "another call is in flight"}
	ErrPlacement    = &CodedError{Code: protocol.ErrPlacement, Message: "too many agents for grid"}
	ErrBadRequest   = &CodedError{Code: protocol.ErrBadRequest, Message: "invalid configuration"}
)

func invalidStateError(format string, args ...any) error {
	return &CodedError{Code: protocol.ErrInvalidState, Message: fmt.Sprintf(format, args...)}
}

func validationError(format string, args ...any) error {
	return &CodedError{Code: protocol.ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func placementError(format string, args ...any) error {
	return &CodedError{Code: protocol.ErrPlacement, Message: fmt.Sprintf(format, args...)}
}

func badRequestError(format string, args ...any) error {
	return &CodedError{Code: protocol.ErrBadRequest, Message: fmt.Sprintf(format, args...)}
}
