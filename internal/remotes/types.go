package remotes

// Key code limits, matching the Linux input event code space.
const (
	// KeyMax is the exclusive upper bound for valid key codes (linux KEY_MAX).
	KeyMax = 0x2ff

	// KeycodeUnset is the sentinel for a keymap with no key code assigned.
	// A fresh keymap translates nothing until a valid keycode is written.
	KeycodeUnset = -1
)

// Keymap is a single signal-to-key binding owned by a Remote.
//
// A decoded signal tuple (Protocol, Device, Command) that exactly matches a
// keymap with an assigned keycode causes a key-press on the owning remote's
// endpoint. Values returned from registry accessors are copies; mutations go
// through the registry so they stay atomic with respect to translation.
type Keymap struct {
	Name     string `json:"name"`
	Protocol int32  `json:"protocol"`
	Device   int32  `json:"device"`
	Command  int32  `json:"command"`
	Keycode  int32  `json:"keycode"`
}

// Assigned reports whether the keymap has a valid keycode set.
func (k *Keymap) Assigned() bool {
	return k.Keycode != KeycodeUnset
}

// Matches reports whether the keymap binds the given signal tuple.
func (k *Keymap) Matches(protocol, device, command int32) bool {
	return k.Protocol == protocol && k.Device == device && k.Command == command
}

// RemoteInfo is a read-only snapshot of a remote for enumeration.
type RemoteInfo struct {
	Name         string `json:"name"`
	EndpointPath string `json:"endpoint_path"`
	KeymapCount  int    `json:"keymap_count"`
}

// Emission records one key event synthesized during a translation scan.
type Emission struct {
	Remote  string `json:"remote"`
	Keymap  string `json:"keymap"`
	Keycode int32  `json:"keycode"`
}

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
