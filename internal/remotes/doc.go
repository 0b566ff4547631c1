// Package remotes provides the remote/keymap registry and signal
// translation engine for irkeyd.
//
// The registry is a two-level tree of operator-defined objects: named
// remotes, each owning a virtual input endpoint and a set of keymaps that
// bind an incoming IR signal tuple (protocol, device, command) to a Linux
// key code. Decoded signals are translated by scanning the whole tree and
// synthesizing key events on every matching remote's endpoint.
//
// # Architecture
//
//	┌───────────────────────────────────────────────────────────────┐
//	│                          Registry                              │
//	│              one RWMutex over the whole tree                   │
//	│                                                                │
//	│  ┌─────────────────┐      ┌─────────────────┐                 │
//	│  │  Remote "tv"    │      │  Remote "hifi"  │   ...           │
//	│  │  • Endpoint     │      │  • Endpoint     │                 │
//	│  │  • keymaps:     │      │  • keymaps:     │                 │
//	│  │    power→116    │      │    vol_up→115   │                 │
//	│  │    mute→113     │      │    vol_dn→114   │                 │
//	│  └─────────────────┘      └─────────────────┘                 │
//	│                                                                │
//	│  Translate(p,d,c): shared lock, scan all remotes × keymaps,   │
//	│  key-down + sync on every match (broadcast, no early exit)    │
//	└───────────────────────────────────────────────────────────────┘
//
// # Key Types
//
//   - Registry: root container; serialises structural mutation against
//     translation with a single coarse RWMutex
//   - Remote: named group of keymaps bound to one virtual input endpoint
//   - Keymap: a single (protocol, device, command) → keycode binding
//   - Endpoint: the virtual input device abstraction (see package uinput)
//
// # Concurrency
//
// Operator edits (create/remove/attribute writes) take the registry lock
// exclusively; translation and enumeration take it shared. A translation
// therefore observes either the pre- or post-state of any mutation, never a
// torn keymap. While a keymap holds a valid keycode, that bit is reserved in
// the owning endpoint's capability set; both facts change together under the
// exclusive lock.
//
// # Usage
//
//	registry := remotes.NewRegistry(uinput.Factory("irkeyd"))
//	registry.SetLogger(log)
//	defer registry.Close()
//
//	if err := registry.CreateRemote("tv"); err != nil { ... }
//	if err := registry.CreateKeymap("tv", "power"); err != nil { ... }
//	registry.SetKeymapAttr("tv", "power", "protocol", "1")
//	registry.SetKeymapAttr("tv", "power", "device", "2")
//	registry.SetKeymapAttr("tv", "power", "command", "3")
//	registry.SetKeymapAttr("tv", "power", "keycode", "116")
//
//	emissions := registry.Translate(1, 2, 3) // key 116 down + sync on "tv"
package remotes
