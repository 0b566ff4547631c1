package remotes

import "sync"

// Endpoint is the virtual input device a remote emits key events into.
//
// Implementations register the device with the host input system at
// construction time (see the uinput package) and release it on Close.
// ReserveKey/ReleaseKey maintain the endpoint's key capability set; the
// registry guarantees a key bit is reserved exactly while some live keymap
// in the owning remote holds that keycode.
//
// Endpoints are only ever called with the owning registry's lock held, so
// implementations do not need their own synchronisation for correctness,
// though they may add it for standalone use.
type Endpoint interface {
	// Path returns the host input system's path for the device, or an
	// implementation-specific identifier if none exists.
	Path() string

	// ReserveKey marks a key code in the capability set.
	ReserveKey(code int32)

	// ReleaseKey clears a key code from the capability set.
	ReleaseKey(code int32)

	// HasKey reports whether a key code is in the capability set.
	HasKey(code int32) bool

	// ReportKey emits a key press (pressed=true) or release event.
	ReportKey(code int32, pressed bool) error

	// Sync flushes reported events to the host as one batch.
	Sync() error

	// Close unregisters and releases the device.
	Close() error
}

// EndpointFactory creates and registers an endpoint for a new remote.
// A failure aborts the remote's creation with ErrEndpointRegistration.
type EndpointFactory func(name string) (Endpoint, error)

// MemoryEndpoint is an in-process Endpoint that records reported events
// instead of delivering them to the host input system. It backs deployments
// with no virtual input backend and the package tests.
type MemoryEndpoint struct {
	name string

	mu       sync.Mutex
	caps     map[int32]struct{}
	events   []KeyEvent
	syncs    int
	closed   bool
	failNext error // test hook: next ReportKey returns this error
}

// KeyEvent is one recorded ReportKey call on a MemoryEndpoint.
type KeyEvent struct {
	Code    int32
	Pressed bool
}

// NewMemoryEndpoint creates a MemoryEndpoint with the given device name.
func NewMemoryEndpoint(name string) *MemoryEndpoint {
	return &MemoryEndpoint{
		name: name,
		caps: make(map[int32]struct{}),
	}
}

// Path returns a stable pseudo-path for the recorded device.
func (m *MemoryEndpoint) Path() string { return "memory:" + m.name }

// ReserveKey marks a key code in the capability set.
func (m *MemoryEndpoint) ReserveKey(code int32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caps[code] = struct{}{}
}

// ReleaseKey clears a key code from the capability set.
func (m *MemoryEndpoint) ReleaseKey(code int32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.caps, code)
}

// HasKey reports whether a key code is in the capability set.
func (m *MemoryEndpoint) HasKey(code int32) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.caps[code]
	return ok
}

// ReportKey records a key event.
func (m *MemoryEndpoint) ReportKey(code int32, pressed bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failNext; err != nil {
		m.failNext = nil
		return err
	}
	m.events = append(m.events, KeyEvent{Code: code, Pressed: pressed})
	return nil
}

// Sync records a synchronization barrier.
func (m *MemoryEndpoint) Sync() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.syncs++
	return nil
}

// Close marks the endpoint released.
func (m *MemoryEndpoint) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Events returns a copy of the recorded key events.
func (m *MemoryEndpoint) Events() []KeyEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]KeyEvent, len(m.events))
	copy(out, m.events)
	return out
}

// SyncCount returns the number of Sync calls recorded.
func (m *MemoryEndpoint) SyncCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.syncs
}

// Closed reports whether Close has been called.
func (m *MemoryEndpoint) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// FailNextReport makes the next ReportKey call return err. Test hook.
func (m *MemoryEndpoint) FailNextReport(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = err
}
