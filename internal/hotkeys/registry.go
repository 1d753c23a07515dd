package hotkeys

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bezmoradi/keygrab/internal/keys"
)

// ErrRunning is returned when shortcuts are registered while the manager is
// capturing; stop it first.
var ErrRunning = errors.New("hotkey manager is running")

// Callback is invoked when a shortcut activates or releases. ctx is
// cancelled when the manager stops.
type Callback func(ctx context.Context) error

// EventHandler receives press and release notifications for a shortcut.
type EventHandler interface {
	OnPress()
	OnRelease()
}

// Shortcut is a registered key combination. It never changes after
// registration.
type Shortcut struct {
	ID          string
	Combination string
	Keys        keys.Set
	OnPress     Callback
	OnRelease   Callback
}

// Registry holds registered shortcuts and the union of their keys.
type Registry struct {
	mu        sync.RWMutex
	shortcuts []Shortcut
	required  keys.Set
}

func NewRegistry() *Registry {
	return &Registry{required: make(keys.Set)}
}

// Register parses combination and stores the shortcut. onRelease may be nil.
// The returned id is unique within the registry even for duplicate
// combinations.
func (r *Registry) Register(combination string, onPress, onRelease Callback) (string, error) {
	if onPress == nil {
		return "", fmt.Errorf("register %q: press callback is required", combination)
	}
	target, err := keys.ParseCombination(combination)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := fmt.Sprintf("%s_%d", combination, len(r.shortcuts))
	r.shortcuts = append(r.shortcuts, Shortcut{
		ID:          id,
		Combination: combination,
		Keys:        target,
		OnPress:     onPress,
		OnRelease:   onRelease,
	})
	for code := range target {
		r.required.Add(code)
	}
	return id, nil
}

// Shortcuts returns the shortcuts in registration order.
func (r *Registry) Shortcuts() []Shortcut {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Shortcut(nil), r.shortcuts...)
}

// KeySets returns each shortcut's key set, in registration order.
func (r *Registry) KeySets() []keys.Set {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]keys.Set, len(r.shortcuts))
	for i, s := range r.shortcuts {
		out[i] = s.Keys
	}
	return out
}

// RequiredKeys is the union of every shortcut's keys.
func (r *Registry) RequiredKeys() keys.Set {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.required.Clone()
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.shortcuts)
}

// handlerCallbacks adapts an EventHandler to a press/release callback pair.
func handlerCallbacks(h EventHandler) (Callback, Callback) {
	press := func(context.Context) error {
		h.OnPress()
		return nil
	}
	release := func(context.Context) error {
		h.OnRelease()
		return nil
	}
	return press, release
}
