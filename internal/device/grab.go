package device

import (
	"fmt"
	"sync"

	clog "github.com/charmbracelet/log"
	"github.com/holoplot/go-evdev"
)

// VirtualKeyboardName is how the re-emitting device shows up to the session.
const VirtualKeyboardName = "keygrab-virtual-keyboard"

const busVirtual = 0x06

// Output receives re-emitted events.
type Output interface {
	WriteOne(ev *evdev.InputEvent) error
	Close() error
}

// OutputFactory creates the virtual output device.
type OutputFactory func(name string) (Output, error)

// NewVirtualKeyboard creates a uinput keyboard able to emit every named key.
func NewVirtualKeyboard(name string) (Output, error) {
	codes := make([]evdev.EvCode, 0, len(evdev.KEYToString))
	for code := range evdev.KEYToString {
		if code > 0 && code <= evdev.KEY_MAX {
			codes = append(codes, code)
		}
	}

	dev, err := evdev.CreateDevice(name, evdev.InputID{
		BusType: busVirtual,
		Vendor:  0x4b47,
		Product: 0x0001,
		Version: 1,
	}, map[evdev.EvType][]evdev.EvCode{
		evdev.EV_KEY: codes,
		evdev.EV_MSC: {evdev.MSC_SCAN},
	})
	if err != nil {
		return nil, fmt.Errorf("creating virtual keyboard: %w", err)
	}
	return dev, nil
}

// Grabber holds physical devices exclusively and owns the single virtual
// output device events are re-emitted through.
type Grabber struct {
	newOutput OutputFactory
	log       *clog.Logger

	mu      sync.Mutex
	out     Output
	grabbed []*Device
}

func NewGrabber(factory OutputFactory, logger *clog.Logger) *Grabber {
	if factory == nil {
		factory = NewVirtualKeyboard
	}
	return &Grabber{newOutput: factory, log: logger}
}

// GrabAll creates the virtual device and grabs every device it can.
// Individual failures are logged; ErrNoDevicesGrabbed is returned when
// nothing could be grabbed, in which case the virtual device is destroyed.
func (g *Grabber) GrabAll(devices []*Device) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.out == nil {
		out, err := g.newOutput(VirtualKeyboardName)
		if err != nil {
			g.log.Error("could not set up key grabbing", "err", err)
			return 0, err
		}
		g.out = out
	}

	for _, d := range devices {
		if err := g.grabLocked(d); err != nil {
			g.log.Error("could not grab device", "path", d.Path, "name", d.Name, "reason", Reason(err))
		}
	}

	count := len(g.grabbed)
	switch {
	case count == 0:
		g.log.Error("no devices were grabbed, shortcuts are inactive")
		g.releaseLocked()
		return 0, ErrNoDevicesGrabbed
	case count < len(devices):
		g.log.Warn("partial grab failure, running with reduced coverage", "grabbed", count, "selected", len(devices))
	}
	return count, nil
}

// Grab adds one more device, used for hotplugged keyboards. It fails when
// grabbing has not been set up.
func (g *Grabber) Grab(d *Device) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.out == nil {
		return fmt.Errorf("grab %s: virtual keyboard not active", d.Path)
	}
	return g.grabLocked(d)
}

func (g *Grabber) grabLocked(d *Device) error {
	if d.Grabbed() {
		return nil
	}
	if err := d.input.Grab(); err != nil {
		return err
	}
	d.grabbed.Store(true)
	g.grabbed = append(g.grabbed, d)
	return nil
}

// Forget drops a device that disappeared; there is nothing left to ungrab.
func (g *Grabber) Forget(d *Device) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i, held := range g.grabbed {
		if held == d {
			g.grabbed = append(g.grabbed[:i], g.grabbed[i+1:]...)
			break
		}
	}
	d.grabbed.Store(false)
}

// Active reports whether events are being re-emitted.
func (g *Grabber) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.out != nil
}

// Count returns how many devices are held.
func (g *Grabber) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.grabbed)
}

// Emit writes ev to the virtual device. Key events are followed by a
// SYN_REPORT so each one is delivered on its own.
func (g *Grabber) Emit(ev *evdev.InputEvent) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.out == nil {
		return nil
	}
	if err := g.out.WriteOne(&evdev.InputEvent{Type: ev.Type, Code: ev.Code, Value: ev.Value}); err != nil {
		return err
	}
	if ev.Type != evdev.EV_KEY {
		return nil
	}
	return g.out.WriteOne(&evdev.InputEvent{Type: evdev.EV_SYN, Code: evdev.SYN_REPORT})
}

// ReleaseAll ungrabs every device and destroys the virtual device.
// Idempotent and safe on a partially set up Grabber.
func (g *Grabber) ReleaseAll() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.releaseLocked()
}

func (g *Grabber) releaseLocked() {
	for _, d := range g.grabbed {
		if err := d.input.Ungrab(); err != nil {
			g.log.Debug("ungrab failed", "path", d.Path, "err", err)
		}
		d.grabbed.Store(false)
	}
	g.grabbed = nil

	if g.out != nil {
		if err := g.out.Close(); err != nil {
			g.log.Debug("closing virtual keyboard failed", "err", err)
		}
		g.out = nil
	}
}
