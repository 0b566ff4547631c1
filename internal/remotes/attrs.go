package remotes

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Attribute names exposed through the namespace mechanism.
//
// Keymap attributes are read/write decimal integers; remote attributes are
// read-only descriptive text.
const (
	AttrProtocol = "protocol"
	AttrDevice   = "device"
	AttrCommand  = "command"
	AttrKeycode  = "keycode"

	AttrDescription = "description"
	AttrPath        = "path"
)

// remoteDescription is the text served from a remote's description attribute.
const remoteDescription = "Map for a specific remote\n" +
	"Remote signals matching this map will be translated into keyboard events\n"

// KeymapAttrNames returns the attribute names every keymap exposes.
func KeymapAttrNames() []string {
	return []string{AttrProtocol, AttrDevice, AttrCommand, AttrKeycode}
}

// KeymapAttr renders a keymap field as its decimal string form.
// An unset keycode renders as "-1".
func (r *Registry) KeymapAttr(remote, name, attr string) (string, error) {
	km, err := r.GetKeymap(remote, name)
	if err != nil {
		return "", err
	}

	switch attr {
	case AttrProtocol:
		return formatAttr(km.Protocol), nil
	case AttrDevice:
		return formatAttr(km.Device), nil
	case AttrCommand:
		return formatAttr(km.Command), nil
	case AttrKeycode:
		return formatAttr(km.Keycode), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAttr, attr)
	}
}

// SetKeymapAttr parses a textual attribute write and applies it to the
// typed field.
//
// The value must be a non-negative decimal integer, optionally followed by
// trailing whitespace; anything else returns ErrInvalidFormat. Values above
// the field's int32 domain return ErrOutOfRange. Keycode writes additionally
// enforce the 0..KeyMax-1 range via SetKeycode.
func (r *Registry) SetKeymapAttr(remote, name, attr, value string) error {
	parsed, err := parseAttrValue(value)
	if err != nil {
		return err
	}

	switch attr {
	case AttrProtocol:
		return r.SetProtocol(remote, name, parsed)
	case AttrDevice:
		return r.SetDevice(remote, name, parsed)
	case AttrCommand:
		return r.SetCommand(remote, name, parsed)
	case AttrKeycode:
		return r.SetKeycode(remote, name, parsed)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAttr, attr)
	}
}

// RemoteAttr renders a remote's read-only attributes.
func (r *Registry) RemoteAttr(remote, attr string) (string, error) {
	info, err := r.RemoteInfo(remote)
	if err != nil {
		return "", err
	}

	switch attr {
	case AttrDescription:
		return remoteDescription, nil
	case AttrPath:
		return info.EndpointPath, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAttr, attr)
	}
}

// formatAttr renders an integer field as decimal text.
func formatAttr(v int32) string {
	return strconv.FormatInt(int64(v), 10)
}

// parseAttrValue parses a non-negative decimal integer with optional
// trailing whitespace. Mirrors the store-side parsing contract: garbage is
// ErrInvalidFormat, values beyond int32 are ErrOutOfRange.
func parseAttrValue(s string) (int32, error) {
	trimmed := strings.TrimRight(s, " \t\r\n")
	if trimmed == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidFormat)
	}

	parsed, err := strconv.ParseUint(trimmed, 10, 64)
	if err != nil {
		if numErr, ok := err.(*strconv.NumError); ok && numErr.Err == strconv.ErrRange {
			return 0, fmt.Errorf("%w: %q", ErrOutOfRange, trimmed)
		}
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, trimmed)
	}
	if parsed > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %q exceeds field maximum", ErrOutOfRange, trimmed)
	}
	return int32(parsed), nil
}
