package keys

import (
	"testing"

	"github.com/holoplot/go-evdev"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		want Code
	}{
		{"ctrl", evdev.KEY_LEFTCTRL},
		{"  Control ", evdev.KEY_LEFTCTRL},
		{"F9", evdev.KEY_F9},
		{"[", evdev.KEY_LEFTBRACE},
		{"super", evdev.KEY_LEFTMETA},
		{"rshift", evdev.KEY_RIGHTSHIFT},
		{"kpmultiply", evdev.KEY_KPASTERISK},
		// kernel names, with and without prefix
		{"KEY_PAUSE", evdev.KEY_PAUSE},
		{"leftbrace", evdev.KEY_LEFTBRACE},
		{"compose", evdev.KEY_COMPOSE},
		{"key_f13", evdev.KEY_F13},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Resolve(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveUnknown(t *testing.T) {
	for _, name := range []string{"", "  ", "hyper-ultra", "KEY_NOPE"} {
		_, ok := Resolve(name)
		assert.False(t, ok, "name %q", name)
	}
}

func TestParseCombinationAliasVariants(t *testing.T) {
	want := NewSet(evdev.KEY_LEFTCTRL, evdev.KEY_LEFTALT, evdev.KEY_D)

	for _, spec := range []string{
		"ctrl+alt+d",
		"Control+Alt+D",
		"<CTRL>+<ALT>+d",
		" lctrl + lalt + KEY_D ",
		"alt+ctrl+d",
	} {
		got, err := ParseCombination(spec)
		require.NoError(t, err, spec)
		assert.True(t, want.Equal(got), "%q parsed to %s", spec, FormatSet(got))
	}
}

func TestParseCombinationRejectsWhole(t *testing.T) {
	for _, spec := range []string{"", "<>", "ctrl+", "ctrl+bogus+d", "+"} {
		set, err := ParseCombination(spec)
		require.ErrorIs(t, err, ErrInvalidCombination, spec)
		assert.Nil(t, set)
	}
}

func TestParseCombinationDuplicateSegments(t *testing.T) {
	set, err := ParseCombination("ctrl+control+d")
	require.NoError(t, err)
	assert.Equal(t, 2, set.Len())
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "LEFTCTRL", DisplayName(evdev.KEY_LEFTCTRL))
	assert.Equal(t, "D", DisplayName(evdev.KEY_D))
	assert.Equal(t, "MUTE", DisplayName(evdev.KEY_MUTE))
	assert.Equal(t, "KEY_4000", DisplayName(Code(4000)))
}

func TestFormatSetPutsModifiersFirst(t *testing.T) {
	set := NewSet(evdev.KEY_D, evdev.KEY_LEFTALT, evdev.KEY_LEFTCTRL)
	assert.Equal(t, "LEFTCTRL+LEFTALT+D", FormatSet(set))
}

func TestIsModifier(t *testing.T) {
	assert.True(t, IsModifier(evdev.KEY_RIGHTMETA))
	assert.True(t, IsModifier(evdev.KEY_LEFTSHIFT))
	assert.False(t, IsModifier(evdev.KEY_CAPSLOCK))
	assert.False(t, IsModifier(evdev.KEY_D))
}
