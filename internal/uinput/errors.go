package uinput

import "errors"

// Domain errors for the uinput package.
var (
	// ErrUnsupported is returned on platforms without /dev/uinput.
	ErrUnsupported = errors.New("uinput: not supported on this platform")

	// ErrClosed is returned when reporting events on a destroyed device.
	ErrClosed = errors.New("uinput: device closed")
)
