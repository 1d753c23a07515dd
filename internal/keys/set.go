// Package keys maps human key names to evdev key codes and back, and provides
// the key-code set type shared by the registry, discovery and the matcher.
package keys

import (
	"sort"

	"github.com/holoplot/go-evdev"
)

// Code identifies a physical key in the kernel's EV_KEY code space.
type Code = evdev.EvCode

// Set is an unordered set of key codes.
type Set map[Code]struct{}

func NewSet(codes ...Code) Set {
	s := make(Set, len(codes))
	for _, c := range codes {
		s[c] = struct{}{}
	}
	return s
}

func (s Set) Add(c Code) { s[c] = struct{}{} }

func (s Set) Remove(c Code) { delete(s, c) }

func (s Set) Has(c Code) bool {
	_, ok := s[c]
	return ok
}

func (s Set) Len() int { return len(s) }

// SubsetOf reports whether every code in s is also in other.
// The empty set is a subset of everything.
func (s Set) SubsetOf(other Set) bool {
	if len(s) > len(other) {
		return false
	}
	for c := range s {
		if !other.Has(c) {
			return false
		}
	}
	return true
}

// Minus returns the codes of s that are not in other.
func (s Set) Minus(other Set) Set {
	out := make(Set)
	for c := range s {
		if !other.Has(c) {
			out.Add(c)
		}
	}
	return out
}

// Intersects reports whether s and other share at least one code.
func (s Set) Intersects(other Set) bool {
	for c := range s {
		if other.Has(c) {
			return true
		}
	}
	return false
}

func (s Set) Clone() Set {
	out := make(Set, len(s))
	for c := range s {
		out.Add(c)
	}
	return out
}

func (s Set) Equal(other Set) bool {
	return len(s) == len(other) && s.SubsetOf(other)
}

// Sorted returns the codes in ascending order.
func (s Set) Sorted() []Code {
	out := make([]Code, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
