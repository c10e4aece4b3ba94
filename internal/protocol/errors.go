package protocol

const (
	// Caller-contract violations.
	ErrInvalidState = "E_INVALID_STATE"
	ErrValidation   = "E_VALIDATION"
	ErrBusy         = "E_BUSY"

	// Configuration errors, reported at reset time.
	ErrPlacement  = "E_PLACEMENT"
	ErrBadRequest = "E_BAD_REQUEST"
)

var knownCodes = map[string]struct{}{
	ErrInvalidState: {},
	ErrValidation:   {},
	ErrBusy:         {},
	ErrPlacement:    {},
	ErrBadRequest:   {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
