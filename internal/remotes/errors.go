package remotes

import "errors"

// Domain errors for the remotes package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, remotes.ErrNotFound) {
//	    // handle not found case
//	}
var (
	// ErrDuplicateName is returned when creating a remote or keymap whose
	// name is already taken within its parent.
	ErrDuplicateName = errors.New("remotes: name already exists")

	// ErrNotFound is returned when a remote or keymap name does not exist.
	ErrNotFound = errors.New("remotes: not found")

	// ErrOutOfRange is returned when a keycode is outside 0..KeyMax or a
	// textual attribute value exceeds the field's integer domain.
	ErrOutOfRange = errors.New("remotes: value out of range")

	// ErrInvalidFormat is returned when a textual attribute value is not a
	// non-negative decimal integer.
	ErrInvalidFormat = errors.New("remotes: invalid value format")

	// ErrEndpointRegistration is returned when the virtual input endpoint
	// for a new remote cannot be registered with the host input system.
	ErrEndpointRegistration = errors.New("remotes: endpoint registration failed")

	// ErrUnknownAttr is returned when reading or writing an attribute name
	// the entity does not expose.
	ErrUnknownAttr = errors.New("remotes: unknown attribute")
)
