package remotes

import (
	"fmt"
	"sort"
	"sync"
)

// Registry is the root container of remotes and the single synchronisation
// point for the whole tree.
//
// One coarse reader/writer mutex guards every remote, keymap, and endpoint
// capability set. Structural mutation and field writes take the lock
// exclusively; translation and enumeration take it shared. Mutation is rare
// (operator edits) and translation is a fast scan, so correctness is
// preferred over finer-grained locking.
//
// All public methods are thread-safe and non-reentrant: a method must not be
// called from inside a WithReadLock/WithWriteLock callback.
type Registry struct {
	mu          sync.RWMutex
	remotes     map[string]*Remote
	newEndpoint EndpointFactory
	logger      Logger
}

// Remote is a named group of keymaps bound to one virtual input endpoint.
//
// The remote owns its keymaps and endpoint exclusively. All fields are
// guarded by the owning registry's mutex; Remote has no lock of its own.
type Remote struct {
	name     string
	endpoint Endpoint
	keymaps  map[string]*Keymap

	// keyBits counts live keymaps reserving each keycode, so the
	// endpoint's capability bit stays set while any holder remains.
	keyBits map[int32]int
}

// NewRegistry creates an empty registry. New remotes get their endpoint
// from the supplied factory.
func NewRegistry(factory EndpointFactory) *Registry {
	return &Registry{
		remotes:     make(map[string]*Remote),
		newEndpoint: factory,
		logger:      noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// WithReadLock runs fn while holding the registry lock in shared mode.
// The lock is released on every exit path, including a panic inside fn.
func (r *Registry) WithReadLock(fn func()) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn()
}

// WithWriteLock runs fn while holding the registry lock exclusively.
func (r *Registry) WithWriteLock(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn()
}

// CreateRemote allocates a remote, registers its virtual input endpoint,
// and inserts it under the given name.
//
// Returns ErrDuplicateName if the name is taken, or ErrEndpointRegistration
// (wrapping the cause) if the host input system rejects the endpoint. On
// failure nothing is left registered.
func (r *Registry) CreateRemote(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.remotes[name]; exists {
		return fmt.Errorf("%w: remote %q", ErrDuplicateName, name)
	}

	endpoint, err := r.newEndpoint(name)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEndpointRegistration, err)
	}

	r.remotes[name] = &Remote{
		name:     name,
		endpoint: endpoint,
		keymaps:  make(map[string]*Keymap),
		keyBits:  make(map[int32]int),
	}

	r.logger.Info("remote created", "remote", name, "endpoint", endpoint.Path())
	return nil
}

// RemoveRemote destroys the named remote: every keymap's reserved key bit is
// released, then the endpoint is closed and the remote dropped.
// Returns ErrNotFound if the name does not exist.
func (r *Registry) RemoveRemote(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	remote, ok := r.remotes[name]
	if !ok {
		return fmt.Errorf("%w: remote %q", ErrNotFound, name)
	}

	r.teardownLocked(remote)
	delete(r.remotes, name)

	r.logger.Info("remote removed", "remote", name)
	return nil
}

// teardownLocked releases all key bits then the endpoint. Key bits go first
// so the capability set never outlives its entries. Caller holds the lock.
func (r *Registry) teardownLocked(remote *Remote) {
	for _, km := range remote.keymaps {
		remote.releaseKeycodeLocked(km)
	}
	remote.keymaps = make(map[string]*Keymap)

	if err := remote.endpoint.Close(); err != nil {
		r.logger.Warn("endpoint close failed", "remote", remote.name, "error", err)
	}
}

// RemoteNames returns all remote names in sorted order.
func (r *Registry) RemoteNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.remotes))
	for name := range r.remotes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RemoteInfo returns an enumeration snapshot of the named remote.
func (r *Registry) RemoteInfo(name string) (RemoteInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	remote, ok := r.remotes[name]
	if !ok {
		return RemoteInfo{}, fmt.Errorf("%w: remote %q", ErrNotFound, name)
	}
	return RemoteInfo{
		Name:         remote.name,
		EndpointPath: remote.endpoint.Path(),
		KeymapCount:  len(remote.keymaps),
	}, nil
}

// HasKeyBit reports whether the named remote's endpoint currently reserves
// the given key code in its capability set.
func (r *Registry) HasKeyBit(remote string, code int32) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rem, ok := r.remotes[remote]
	if !ok {
		return false, fmt.Errorf("%w: remote %q", ErrNotFound, remote)
	}
	return rem.endpoint.HasKey(code), nil
}

// CreateKeymap adds an empty keymap (all fields zero, keycode unset) under
// the named remote. Returns ErrDuplicateName if the keymap name is taken.
func (r *Registry) CreateKeymap(remote, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rem, ok := r.remotes[remote]
	if !ok {
		return fmt.Errorf("%w: remote %q", ErrNotFound, remote)
	}
	if _, exists := rem.keymaps[name]; exists {
		return fmt.Errorf("%w: keymap %q", ErrDuplicateName, name)
	}

	rem.keymaps[name] = &Keymap{
		Name:    name,
		Keycode: KeycodeUnset,
	}

	r.logger.Debug("keymap created", "remote", remote, "keymap", name)
	return nil
}

// RemoveKeymap releases the keymap's reserved key bit (if any) and deletes
// it from the remote.
func (r *Registry) RemoveKeymap(remote, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rem, ok := r.remotes[remote]
	if !ok {
		return fmt.Errorf("%w: remote %q", ErrNotFound, remote)
	}
	km, ok := rem.keymaps[name]
	if !ok {
		return fmt.Errorf("%w: keymap %q", ErrNotFound, name)
	}

	rem.releaseKeycodeLocked(km)
	delete(rem.keymaps, name)

	r.logger.Debug("keymap removed", "remote", remote, "keymap", name)
	return nil
}

// KeymapNames returns the keymap names of a remote in sorted order.
func (r *Registry) KeymapNames(remote string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rem, ok := r.remotes[remote]
	if !ok {
		return nil, fmt.Errorf("%w: remote %q", ErrNotFound, remote)
	}
	names := make([]string, 0, len(rem.keymaps))
	for name := range rem.keymaps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// GetKeymap returns a copy of the named keymap.
func (r *Registry) GetKeymap(remote, name string) (Keymap, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	km, err := r.lookupLocked(remote, name)
	if err != nil {
		return Keymap{}, err
	}
	return *km, nil
}

// SetProtocol assigns the protocol field of a keymap.
func (r *Registry) SetProtocol(remote, name string, value int32) error {
	return r.setField(remote, name, func(km *Keymap) { km.Protocol = value })
}

// SetDevice assigns the device field of a keymap.
func (r *Registry) SetDevice(remote, name string, value int32) error {
	return r.setField(remote, name, func(km *Keymap) { km.Device = value })
}

// SetCommand assigns the command field of a keymap.
func (r *Registry) SetCommand(remote, name string, value int32) error {
	return r.setField(remote, name, func(km *Keymap) { km.Command = value })
}

// setField runs a plain field assignment under the exclusive lock, so a
// concurrent translation never observes a half-updated tuple.
func (r *Registry) setField(remote, name string, assign func(*Keymap)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	km, err := r.lookupLocked(remote, name)
	if err != nil {
		return err
	}
	assign(km)
	return nil
}

// SetKeycode assigns a keymap's keycode and moves the endpoint capability
// bit accordingly: the previously reserved bit (if any) is released and the
// new one reserved, all under the exclusive lock so translation reads never
// see the bit and the lookup fields disagree.
//
// Values outside 0..KeyMax-1 return ErrOutOfRange and change nothing.
func (r *Registry) SetKeycode(remote, name string, value int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rem, ok := r.remotes[remote]
	if !ok {
		return fmt.Errorf("%w: remote %q", ErrNotFound, remote)
	}
	km, ok := rem.keymaps[name]
	if !ok {
		return fmt.Errorf("%w: keymap %q", ErrNotFound, name)
	}
	if value < 0 || value >= KeyMax {
		return fmt.Errorf("%w: keycode %d (valid 0..%d)", ErrOutOfRange, value, KeyMax-1)
	}

	rem.releaseKeycodeLocked(km)
	km.Keycode = value
	rem.reserveKeycodeLocked(value)

	r.logger.Debug("keycode assigned",
		"remote", remote, "keymap", name, "keycode", value)
	return nil
}

// ClearKeycode resets a keymap's keycode to the unset sentinel, releasing
// its reserved key bit.
func (r *Registry) ClearKeycode(remote, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rem, ok := r.remotes[remote]
	if !ok {
		return fmt.Errorf("%w: remote %q", ErrNotFound, remote)
	}
	km, ok := rem.keymaps[name]
	if !ok {
		return fmt.Errorf("%w: keymap %q", ErrNotFound, name)
	}

	rem.releaseKeycodeLocked(km)
	return nil
}

// Close destroys every remote. Called once at shutdown.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, remote := range r.remotes {
		r.teardownLocked(remote)
		delete(r.remotes, name)
	}
	r.logger.Info("registry closed")
}

// lookupLocked resolves a keymap by remote and name. Caller holds the lock.
func (r *Registry) lookupLocked(remote, name string) (*Keymap, error) {
	rem, ok := r.remotes[remote]
	if !ok {
		return nil, fmt.Errorf("%w: remote %q", ErrNotFound, remote)
	}
	km, ok := rem.keymaps[name]
	if !ok {
		return nil, fmt.Errorf("%w: keymap %q", ErrNotFound, name)
	}
	return km, nil
}

// reserveKeycodeLocked bumps the refcount for a keycode, setting the
// endpoint capability bit on the first holder.
func (rem *Remote) reserveKeycodeLocked(code int32) {
	rem.keyBits[code]++
	if rem.keyBits[code] == 1 {
		rem.endpoint.ReserveKey(code)
	}
}

// releaseKeycodeLocked drops a keymap's reservation and clears the
// capability bit when the last holder goes. Resets the keycode to unset.
func (rem *Remote) releaseKeycodeLocked(km *Keymap) {
	if !km.Assigned() {
		return
	}
	code := km.Keycode
	km.Keycode = KeycodeUnset

	rem.keyBits[code]--
	if rem.keyBits[code] <= 0 {
		delete(rem.keyBits, code)
		rem.endpoint.ReleaseKey(code)
	}
}
