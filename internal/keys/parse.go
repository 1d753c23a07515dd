package keys

import (
	"errors"
	"fmt"
	"strings"

	"github.com/holoplot/go-evdev"
)

const keyPrefix = "KEY_"

// ErrInvalidCombination is returned when a combination string contains an
// empty or unrecognised segment.
var ErrInvalidCombination = errors.New("invalid key combination")

// Resolve converts a human key name ("ctrl", "F9", "[", "KEY_PAUSE") into a
// key code. Aliases win; otherwise the name is looked up in the kernel's
// KEY_* table.
func Resolve(name string) (Code, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return 0, false
	}
	if code, ok := aliases[name]; ok {
		return code, true
	}

	kernelName := strings.ToUpper(name)
	if !strings.HasPrefix(kernelName, keyPrefix) {
		kernelName = keyPrefix + kernelName
	}
	code, ok := evdev.KEYFromString[kernelName]
	return code, ok
}

// ParseCombination turns "ctrl+alt+d" or "<SUPER>+<ALT>+D" into its key set.
// The whole combination fails if any segment is unknown.
func ParseCombination(spec string) (Set, error) {
	cleaned := strings.ToLower(strings.TrimSpace(spec))
	cleaned = strings.NewReplacer("<", "", ">", "").Replace(cleaned)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: %q is empty", ErrInvalidCombination, spec)
	}

	set := make(Set)
	for _, part := range strings.Split(cleaned, "+") {
		code, ok := Resolve(part)
		if !ok {
			return nil, fmt.Errorf("%w: unknown key %q in %q", ErrInvalidCombination, strings.TrimSpace(part), spec)
		}
		set.Add(code)
	}
	return set, nil
}

// DisplayName returns the short kernel name of a code ("LEFTCTRL", "D"),
// or "KEY_<n>" for codes the tables do not know.
func DisplayName(code Code) string {
	if name, ok := displayNames[code]; ok {
		return name
	}
	if name, ok := evdev.KEYToString[code]; ok {
		return strings.TrimPrefix(name, keyPrefix)
	}
	return fmt.Sprintf("KEY_%d", code)
}

// FormatSet renders a set as "LEFTCTRL+LEFTALT+D", modifiers first.
func FormatSet(s Set) string {
	var mods, rest []string
	for _, code := range s.Sorted() {
		if IsModifier(code) {
			mods = append(mods, DisplayName(code))
		} else {
			rest = append(rest, DisplayName(code))
		}
	}
	return strings.Join(append(mods, rest...), "+")
}

// IsModifier reports whether code is one of the ctrl, alt, shift or meta keys.
func IsModifier(code Code) bool {
	return modifiers.Has(code)
}

// Modifiers returns a copy of the modifier key set.
func Modifiers() Set {
	return modifiers.Clone()
}
