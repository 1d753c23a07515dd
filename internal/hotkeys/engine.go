package hotkeys

import (
	"sort"
	"time"

	"github.com/holoplot/go-evdev"

	"github.com/bezmoradi/keygrab/internal/keys"
)

// DefaultDebounce is the minimum gap between two activations, or two
// releases, of the same shortcut.
const DefaultDebounce = 100 * time.Millisecond

const (
	keyUp     = 0
	keyDown   = 1
	keyRepeat = 2
)

// State is a copy of the engine's key tracking, for diagnostics.
type State struct {
	Pressed    keys.Set
	Suppressed keys.Set
	Active     []string
}

// Engine is the shortcut matching state machine. It is not safe for
// concurrent use; one goroutine feeds it every event.
type Engine struct {
	shortcuts []Shortcut
	dispatch  Dispatcher
	debounce  time.Duration
	now       func() time.Time

	modifiers   keys.Set
	pressed     keys.Set
	suppressed  keys.Set
	active      map[string]bool
	lastTrigger map[string]time.Time
	lastRelease map[string]time.Time
}

func NewEngine(shortcuts []Shortcut, dispatch Dispatcher, debounce time.Duration, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	e := &Engine{
		shortcuts: shortcuts,
		dispatch:  dispatch,
		debounce:  debounce,
		now:       now,
		modifiers: keys.Modifiers(),
	}
	e.Reset()
	return e
}

// Process updates key state for ev, dispatches any activation or release,
// and reports whether ev must be withheld from re-emission.
func (e *Engine) Process(ev *evdev.InputEvent) bool {
	if ev.Type != evdev.EV_KEY {
		return false
	}
	switch ev.Value {
	case keyDown:
		return e.keyDown(ev.Code)
	case keyUp:
		return e.keyUp(ev.Code)
	case keyRepeat:
		return e.suppressed.Has(ev.Code)
	}
	return false
}

func (e *Engine) keyDown(code keys.Code) bool {
	e.pressed.Add(code)

	suppress := false
	if !keys.IsModifier(code) {
		for _, s := range e.shortcuts {
			if s.Keys.Has(code) && e.matches(s) {
				suppress = true
				e.suppressed.Add(code)
			}
		}
	}

	now := e.now()
	for _, s := range e.shortcuts {
		if e.matches(s) {
			if !e.active[s.ID] && e.elapsed(e.lastTrigger, s.ID, now) {
				e.lastTrigger[s.ID] = now
				e.active[s.ID] = true
				e.dispatch.Dispatch(s, Press)
			}
			continue
		}
		// An extra modifier turned an active match ambiguous. Release now
		// rather than on key-up so the session cannot outlive the combination.
		if e.active[s.ID] {
			delete(e.active, s.ID)
			e.release(s, now)
		}
	}
	return suppress
}

func (e *Engine) keyUp(code keys.Code) bool {
	wasActive := make(map[string]bool, len(e.active))
	for id := range e.active {
		wasActive[id] = true
	}

	e.pressed.Remove(code)

	suppress := false
	if e.suppressed.Has(code) {
		e.suppressed.Remove(code)
		suppress = !keys.IsModifier(code)
	}

	now := e.now()
	for _, s := range e.shortcuts {
		if wasActive[s.ID] && !s.Keys.SubsetOf(e.pressed) {
			delete(e.active, s.ID)
			e.release(s, now)
		}
	}
	return suppress
}

// matches reports a full match with no extra modifier held, so ctrl+d does
// not fire while ctrl+shift+d is held.
func (e *Engine) matches(s Shortcut) bool {
	if !s.Keys.SubsetOf(e.pressed) {
		return false
	}
	return !e.pressed.Minus(s.Keys).Intersects(e.modifiers)
}

func (e *Engine) release(s Shortcut, now time.Time) {
	if !e.elapsed(e.lastRelease, s.ID, now) {
		return
	}
	e.lastRelease[s.ID] = now
	e.dispatch.Dispatch(s, Release)
}

func (e *Engine) elapsed(last map[string]time.Time, id string, now time.Time) bool {
	t, ok := last[id]
	return !ok || now.Sub(t) >= e.debounce
}

// Reset clears all runtime state.
func (e *Engine) Reset() {
	e.pressed = make(keys.Set)
	e.suppressed = make(keys.Set)
	e.active = make(map[string]bool)
	e.lastTrigger = make(map[string]time.Time)
	e.lastRelease = make(map[string]time.Time)
}

// Snapshot copies the current state.
func (e *Engine) Snapshot() State {
	active := make([]string, 0, len(e.active))
	for id := range e.active {
		active = append(active, id)
	}
	sort.Strings(active)
	return State{
		Pressed:    e.pressed.Clone(),
		Suppressed: e.suppressed.Clone(),
		Active:     active,
	}
}
