//go:build linux

package uinput

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/irkeyd/irkeyd/internal/remotes"
)

// uinput interface constants from <linux/uinput.h> and <linux/input.h>.
// x/sys/unix does not export the UI_* ioctl numbers, so they are spelled
// out here for the 64-bit ABI.
const (
	devicePath = "/dev/uinput"

	evSyn     = 0x00
	evKey     = 0x01
	synReport = 0x00

	busVirtual = 0x06

	ioctlDevCreate  = 0x5501     // UI_DEV_CREATE
	ioctlDevDestroy = 0x5502     // UI_DEV_DESTROY
	ioctlDevSetup   = 0x405c5503 // UI_DEV_SETUP (struct uinput_setup, 92 bytes)
	ioctlSetEvBit   = 0x40045564 // UI_SET_EVBIT
	ioctlSetKeyBit  = 0x40045565 // UI_SET_KEYBIT
	ioctlGetSysname = 0x8041552c // UI_GET_SYSNAME(sysnameLen)

	sysnameLen = 65
	maxNameLen = 80 // uinput_setup.name, NUL included

	sysDevicePrefix = "/sys/devices/virtual/input/"
)

// inputID mirrors struct input_id.
type inputID struct {
	Bustype uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

// setupRequest mirrors struct uinput_setup.
type setupRequest struct {
	ID           inputID
	Name         [maxNameLen]byte
	FFEffectsMax uint32
}

// inputEvent mirrors struct input_event on 64-bit platforms.
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

// Device is a registered /dev/uinput virtual keyboard.
//
// It satisfies remotes.Endpoint. The registry serialises calls, but the
// internal mutex keeps the device safe for standalone use as well.
type Device struct {
	mu       sync.Mutex
	file     *os.File
	name     string
	sysPath  string
	reserved map[int32]struct{}
	closed   bool
}

// New creates and registers a uinput device with the given name.
//
// The full key code range is enabled on the kernel device up front; the
// reserved capability set starts empty and is maintained via
// ReserveKey/ReleaseKey.
func New(name string) (*Device, error) {
	file, err := os.OpenFile(devicePath, os.O_WRONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", devicePath, err)
	}

	d := &Device{
		file:     file,
		name:     name,
		reserved: make(map[int32]struct{}),
	}

	if err := d.register(); err != nil {
		file.Close()
		return nil, err
	}
	return d, nil
}

// register enables the key event class, declares the key code range, and
// creates the kernel device.
func (d *Device) register() error {
	fd := d.file.Fd()

	if err := ioctlInt(fd, ioctlSetEvBit, evKey); err != nil {
		return fmt.Errorf("enabling EV_KEY: %w", err)
	}
	for code := 0; code < remotes.KeyMax; code++ {
		if err := ioctlInt(fd, ioctlSetKeyBit, code); err != nil {
			return fmt.Errorf("enabling key bit %d: %w", code, err)
		}
	}

	var setup setupRequest
	setup.ID = inputID{Bustype: busVirtual, Vendor: 0x1d6b, Product: 0x0104, Version: 1}
	copy(setup.Name[:maxNameLen-1], d.name)

	if err := ioctlPtr(fd, ioctlDevSetup, unsafe.Pointer(&setup)); err != nil {
		return fmt.Errorf("device setup: %w", err)
	}
	if err := ioctlInt(fd, ioctlDevCreate, 0); err != nil {
		return fmt.Errorf("device create: %w", err)
	}

	// Resolve the sysfs name for the path attribute. Best effort: the
	// device works without it.
	var sysname [sysnameLen]byte
	if err := ioctlPtr(fd, ioctlGetSysname, unsafe.Pointer(&sysname)); err == nil {
		d.sysPath = sysDevicePrefix + strings.TrimRight(string(sysname[:]), "\x00")
	}
	return nil
}

// Path returns the sysfs path of the created device.
func (d *Device) Path() string {
	if d.sysPath == "" {
		return devicePath + ":" + d.name
	}
	return d.sysPath
}

// ReserveKey marks a key code in the tracked capability set.
func (d *Device) ReserveKey(code int32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reserved[code] = struct{}{}
}

// ReleaseKey clears a key code from the tracked capability set.
func (d *Device) ReleaseKey(code int32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.reserved, code)
}

// HasKey reports whether a key code is reserved.
func (d *Device) HasKey(code int32) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.reserved[code]
	return ok
}

// ReportKey emits a key press or release event.
func (d *Device) ReportKey(code int32, pressed bool) error {
	value := int32(0)
	if pressed {
		value = 1
	}
	return d.writeEvent(evKey, uint16(code), value)
}

// Sync emits a SYN_REPORT, delivering previously reported events as one
// batch to readers of the device.
func (d *Device) Sync() error {
	return d.writeEvent(evSyn, synReport, 0)
}

// Close destroys the kernel device and releases the file descriptor.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true

	if err := ioctlInt(d.file.Fd(), ioctlDevDestroy, 0); err != nil {
		d.file.Close()
		return fmt.Errorf("device destroy: %w", err)
	}
	return d.file.Close()
}

// writeEvent writes one input_event struct to the device.
func (d *Device) writeEvent(evType, code uint16, value int32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}

	ev := inputEvent{Type: evType, Code: code, Value: value}
	buf := (*(*[unsafe.Sizeof(ev)]byte)(unsafe.Pointer(&ev)))[:]
	if _, err := d.file.Write(buf); err != nil {
		return fmt.Errorf("writing input event: %w", err)
	}
	return nil
}

// Factory returns an EndpointFactory that names each device
// "<prefix> <remote>".
func Factory(prefix string) remotes.EndpointFactory {
	return func(name string) (remotes.Endpoint, error) {
		return New(prefix + " " + name)
	}
}

// ioctlInt issues an ioctl with an integer argument.
func ioctlInt(fd uintptr, req uint, arg int) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, uintptr(req), uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

// ioctlPtr issues an ioctl with a pointer argument.
func ioctlPtr(fd uintptr, req uint, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, uintptr(req), uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}
