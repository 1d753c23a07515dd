// Package devicetest provides in-memory input devices, sources and outputs
// for tests that must not touch /dev/input or /dev/uinput.
package devicetest

import (
	"fmt"
	"os"
	"sync"

	"github.com/holoplot/go-evdev"

	"github.com/bezmoradi/keygrab/internal/device"
)

type readResult struct {
	ev  *evdev.InputEvent
	err error
}

// Device is a scriptable input device. Events queued with Send are returned
// by ReadOne in order.
type Device struct {
	path  string
	name  string
	types []evdev.EvType
	codes []evdev.EvCode

	events chan readResult

	mu        sync.Mutex
	grabErr   error
	grabsOK   int
	grabbed   bool
	grabCalls int
	closed    chan struct{}
	isClosed  bool
}

// NewKeyboard returns a device reporting EV_KEY for the given codes.
func NewKeyboard(path, name string, codes ...evdev.EvCode) *Device {
	return &Device{
		path:   path,
		name:   name,
		types:  []evdev.EvType{evdev.EV_SYN, evdev.EV_KEY, evdev.EV_MSC},
		codes:  codes,
		events: make(chan readResult, 256),
		closed: make(chan struct{}),
	}
}

// NewMouse returns a pointer device with buttons but no keyboard keys.
func NewMouse(path, name string) *Device {
	return &Device{
		path:   path,
		name:   name,
		types:  []evdev.EvType{evdev.EV_SYN, evdev.EV_KEY, evdev.EV_REL},
		codes:  []evdev.EvCode{evdev.BTN_LEFT, evdev.BTN_RIGHT},
		events: make(chan readResult, 256),
		closed: make(chan struct{}),
	}
}

// NewSwitch returns a device without key events at all.
func NewSwitch(path, name string) *Device {
	return &Device{
		path:   path,
		name:   name,
		types:  []evdev.EvType{evdev.EV_SYN, evdev.EV_SW},
		events: make(chan readResult, 256),
		closed: make(chan struct{}),
	}
}

// FailGrab makes every following Grab return err.
func (d *Device) FailGrab(err error) *Device {
	return d.FailGrabAfter(0, err)
}

// FailGrabAfter lets n more Grab calls succeed, then fails with err.
func (d *Device) FailGrabAfter(n int, err error) *Device {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.grabErr = err
	d.grabsOK = d.grabCalls + n
	return d
}

func (d *Device) Path() string { return d.path }

func (d *Device) Name() (string, error) { return d.name, nil }

func (d *Device) CapableTypes() []evdev.EvType { return d.types }

func (d *Device) CapableEvents(t evdev.EvType) []evdev.EvCode {
	if t != evdev.EV_KEY {
		return nil
	}
	return d.codes
}

func (d *Device) Grab() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.grabCalls++
	if d.grabErr != nil && d.grabCalls > d.grabsOK {
		return d.grabErr
	}
	d.grabbed = true
	return nil
}

func (d *Device) Ungrab() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.grabbed = false
	return nil
}

// Grabbed reports whether the device is currently grabbed.
func (d *Device) Grabbed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.grabbed
}

// GrabCalls counts Grab attempts, probes included.
func (d *Device) GrabCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.grabCalls
}

func (d *Device) ReadOne() (*evdev.InputEvent, error) {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()

	select {
	case <-closed:
		return nil, fmt.Errorf("read %s: %w", d.path, os.ErrClosed)
	default:
	}
	select {
	case r := <-d.events:
		return r.ev, r.err
	case <-closed:
		return nil, fmt.Errorf("read %s: %w", d.path, os.ErrClosed)
	}
}

func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.isClosed {
		d.isClosed = true
		close(d.closed)
	}
	return nil
}

// Closed reports whether the last opened handle was closed.
func (d *Device) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.isClosed
}

func (d *Device) reopen() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.isClosed {
		d.isClosed = false
		d.closed = make(chan struct{})
	}
}

// Send queues a raw event.
func (d *Device) Send(t evdev.EvType, code evdev.EvCode, value int32) {
	d.events <- readResult{ev: &evdev.InputEvent{Type: t, Code: code, Value: value}}
}

// Press queues a key-down followed by SYN_REPORT.
func (d *Device) Press(code evdev.EvCode) {
	d.Send(evdev.EV_KEY, code, 1)
	d.Send(evdev.EV_SYN, evdev.SYN_REPORT, 0)
}

// Release queues a key-up followed by SYN_REPORT.
func (d *Device) Release(code evdev.EvCode) {
	d.Send(evdev.EV_KEY, code, 0)
	d.Send(evdev.EV_SYN, evdev.SYN_REPORT, 0)
}

// Fail makes the next read return err, as a disconnect would.
func (d *Device) Fail(err error) {
	d.events <- readResult{err: err}
}

// Source serves a fixed set of fake devices.
type Source struct {
	mu      sync.Mutex
	devices []*Device
	listErr error
	openErr map[string]error
}

func NewSource(devices ...*Device) *Source {
	return &Source{devices: devices, openErr: make(map[string]error)}
}

// FailList makes List return err.
func (s *Source) FailList(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listErr = err
}

// FailOpen makes Open(path) return err.
func (s *Source) FailOpen(path string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openErr[path] = err
}

// Plug adds a device after construction, as a hotplug would.
func (s *Source) Plug(d *Device) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices = append(s.devices, d)
}

func (s *Source) List() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	paths := make([]string, 0, len(s.devices))
	for _, d := range s.devices {
		paths = append(paths, d.path)
	}
	return paths, nil
}

func (s *Source) Open(path string) (device.InputDevice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.openErr[path]; err != nil {
		return nil, err
	}
	for _, d := range s.devices {
		if d.path == path {
			d.reopen()
			return d, nil
		}
	}
	return nil, fmt.Errorf("open %s: %w", path, os.ErrNotExist)
}

// Output records everything written to the virtual keyboard.
type Output struct {
	mu     sync.Mutex
	events []evdev.InputEvent
	closed bool
}

func (o *Output) WriteOne(ev *evdev.InputEvent) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, *ev)
	return nil
}

func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	return nil
}

// Events returns a copy of everything written so far.
func (o *Output) Events() []evdev.InputEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]evdev.InputEvent(nil), o.events...)
}

// KeyEvents returns only EV_KEY events.
func (o *Output) KeyEvents() []evdev.InputEvent {
	var out []evdev.InputEvent
	for _, ev := range o.Events() {
		if ev.Type == evdev.EV_KEY {
			out = append(out, ev)
		}
	}
	return out
}

func (o *Output) Closed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}

// Factory hands out Outputs and remembers them.
type Factory struct {
	mu      sync.Mutex
	Err     error
	outputs []*Output
	names   []string
}

func (f *Factory) New(name string) (device.Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	out := &Output{}
	f.outputs = append(f.outputs, out)
	f.names = append(f.names, name)
	return out, nil
}

// Created returns how many outputs were created.
func (f *Factory) Created() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.outputs)
}

// Last returns the most recently created output, or nil.
func (f *Factory) Last() *Output {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.outputs) == 0 {
		return nil
	}
	return f.outputs[len(f.outputs)-1]
}

// LastName returns the name the last output was created with.
func (f *Factory) LastName() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.names) == 0 {
		return ""
	}
	return f.names[len(f.names)-1]
}
