package hotkeys

import (
	"context"
	"sync/atomic"

	clog "github.com/charmbracelet/log"
	"github.com/holoplot/go-evdev"

	"github.com/bezmoradi/keygrab/internal/device"
	"github.com/bezmoradi/keygrab/internal/keys"
)

// worker owns the engine and every piece of per-session state. Only its own
// goroutine touches them.
type worker struct {
	engine     *Engine
	mux        *device.Multiplexer
	grabber    *device.Grabber
	discoverer *device.Discoverer
	keySets    []keys.Set
	grab       bool
	plugged    <-chan string
	snapshots  chan chan State
	held       map[*device.Device]keys.Set
	log        *clog.Logger

	// busy is the device whose event is being handled, readable from
	// other goroutines for shutdown diagnostics.
	busy atomic.Pointer[device.Device]
}

func (w *worker) run(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return
		case in := <-w.mux.Events():
			if in.Err != nil {
				w.busy.Store(in.Device)
				w.detach(in.Device, in.Err)
				w.busy.Store(nil)
				continue
			}
			w.busy.Store(in.Device)
			w.handle(in.Device, in.Event)
			w.busy.Store(nil)
		case path, ok := <-w.plugged:
			if !ok {
				w.plugged = nil
				continue
			}
			w.attach(path)
		case reply := <-w.snapshots:
			reply <- w.engine.Snapshot()
		}
	}
}

// busyPath is the path of the device being handled, or "" when idle.
func (w *worker) busyPath() string {
	if d := w.busy.Load(); d != nil {
		return d.Path
	}
	return ""
}

func (w *worker) handle(d *device.Device, ev *evdev.InputEvent) {
	suppress := w.engine.Process(ev)

	if ev.Type == evdev.EV_KEY {
		held := w.held[d]
		if held == nil {
			held = make(keys.Set)
			w.held[d] = held
		}
		switch ev.Value {
		case keyDown:
			held.Add(ev.Code)
		case keyUp:
			held.Remove(ev.Code)
		}
	}

	if suppress || !d.Grabbed() {
		return
	}
	if err := w.grabber.Emit(ev); err != nil {
		w.log.Warn("re-emitting event failed", "path", d.Path, "code", keys.DisplayName(ev.Code), "err", err)
	}
}

// detach drops a device that stopped producing events. Keys it still held
// are released through the engine so no shortcut stays active.
func (w *worker) detach(d *device.Device, err error) {
	w.log.Error("lost input device", "path", d.Path, "name", d.Name, "reason", device.Reason(err), "err", err)

	wasGrabbed := d.Grabbed()
	w.grabber.Forget(d)
	w.mux.Remove(d)

	held := w.held[d]
	delete(w.held, d)
	for _, code := range held.Sorted() {
		if w.heldElsewhere(code) {
			continue
		}
		ev := &evdev.InputEvent{Type: evdev.EV_KEY, Code: code, Value: keyUp}
		if !w.engine.Process(ev) && wasGrabbed {
			_ = w.grabber.Emit(ev)
		}
	}

	if w.mux.Len() == 0 {
		w.log.Warn("no input devices left, shortcuts are inactive until a keyboard is plugged in")
	}
}

// heldElsewhere reports whether an attached device still holds code.
func (w *worker) heldElsewhere(code keys.Code) bool {
	for _, held := range w.held {
		if held.Has(code) {
			return true
		}
	}
	return false
}

func (w *worker) attach(path string) {
	if w.mux.Has(path) {
		return
	}
	d, err := w.discoverer.Inspect(path, w.keySets)
	if err != nil {
		w.log.Debug("ignoring new input node", "path", path, "err", err)
		return
	}
	if w.grab {
		if err := w.grabber.Grab(d); err != nil {
			w.log.Warn("observing new device without grabbing", "path", d.Path, "name", d.Name, "reason", device.Reason(err))
		}
	}
	if !w.mux.Add(d) {
		w.grabber.Forget(d)
		_ = d.Close()
		return
	}
	w.log.Info("input device attached", "path", d.Path, "name", d.Name, "grabbed", d.Grabbed())
}
