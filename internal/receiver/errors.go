package receiver

import "errors"

// Domain-specific errors for the signal receiver.
var (
	// ErrMalformedSignal is returned when a signal payload cannot be parsed.
	ErrMalformedSignal = errors.New("receiver: malformed signal")
)
