// Package device finds, grabs and reads kernel input devices and owns the
// virtual keyboard used to re-emit pass-through events.
package device

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/holoplot/go-evdev"

	"github.com/bezmoradi/keygrab/internal/keys"
)

var (
	ErrDeviceNotFound     = errors.New("input device not found")
	ErrDeviceAccessDenied = errors.New("input device access denied")
	ErrNoDevicesAvailable = errors.New("no usable input devices")
	ErrDeviceDisconnected = errors.New("input device disconnected")
	ErrNoDevicesGrabbed   = errors.New("no input devices could be grabbed")

	errNotKeyboard = errors.New("device reports no key events")
	errCannotEmit  = errors.New("device cannot emit any registered shortcut")
)

// InputDevice is the part of *evdev.InputDevice this package relies on.
type InputDevice interface {
	Path() string
	Name() (string, error)
	CapableTypes() []evdev.EvType
	CapableEvents(t evdev.EvType) []evdev.EvCode
	Grab() error
	Ungrab() error
	ReadOne() (*evdev.InputEvent, error)
	Close() error
}

// Source enumerates and opens input devices.
type Source interface {
	List() ([]string, error)
	Open(path string) (InputDevice, error)
}

// System is the Source backed by /dev/input.
type System struct{}

func (System) List() ([]string, error) {
	paths, err := evdev.ListDevicePaths()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, p.Path)
	}
	return out, nil
}

func (System) Open(path string) (InputDevice, error) {
	dev, err := evdev.Open(path)
	if err != nil {
		return nil, err
	}
	return dev, nil
}

// Device is an opened input device selected by discovery.
type Device struct {
	Path         string
	Name         string
	Capabilities keys.Set

	input     InputDevice
	grabbed   atomic.Bool
	closeOnce sync.Once
}

func newDevice(path string, input InputDevice) *Device {
	return &Device{
		Path:         path,
		Name:         deviceName(path, input),
		Capabilities: keys.NewSet(input.CapableEvents(evdev.EV_KEY)...),
		input:        input,
	}
}

// Grabbed reports whether the device is currently held exclusively.
func (d *Device) Grabbed() bool {
	return d.grabbed.Load()
}

// Close releases the underlying descriptor. Safe to call more than once.
func (d *Device) Close() error {
	var err error
	d.closeOnce.Do(func() {
		err = d.input.Close()
	})
	return err
}

func (d *Device) String() string {
	return d.Name + " (" + d.Path + ")"
}
