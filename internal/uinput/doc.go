// Package uinput implements the virtual input endpoint on top of the Linux
// /dev/uinput interface.
//
// Each remote in the registry gets its own uinput device, created and
// registered with the kernel when the remote is created and destroyed with
// it. Key events reported through the endpoint appear to userspace as
// presses on an ordinary keyboard-class input device.
//
// uinput fixes a device's key capability bits at creation time, so the
// device is created with the full key code range enabled and the reserved
// set (the capability set the registry manages per keymap) is tracked
// in-process. HasKey answers from that tracked set.
//
// On non-Linux platforms New returns ErrUnsupported; deployments there run
// with in-memory endpoints (remotes.MemoryEndpoint).
package uinput
