package hotkeys

import (
	"testing"

	"github.com/holoplot/go-evdev"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bezmoradi/keygrab/internal/keys"
)

func TestRegistryAliasSpellingsShareKeys(t *testing.T) {
	r := NewRegistry()
	_, err := r.Register("ctrl+alt+d", noop, nil)
	require.NoError(t, err)
	_, err = r.Register("Control+Alt+D", noop, nil)
	require.NoError(t, err)

	sets := r.KeySets()
	require.Len(t, sets, 2)
	assert.True(t, sets[0].Equal(sets[1]))
	assert.True(t, sets[0].Equal(keys.NewSet(evdev.KEY_LEFTCTRL, evdev.KEY_LEFTALT, evdev.KEY_D)))
}

func TestRegistryIDsAreUnique(t *testing.T) {
	r := NewRegistry()
	a, err := r.Register("f9", noop, nil)
	require.NoError(t, err)
	b, err := r.Register("f9", noop, noop)
	require.NoError(t, err)

	assert.Equal(t, "f9_0", a)
	assert.Equal(t, "f9_1", b)
	assert.Equal(t, 2, r.Len())
}

func TestRegistryRejectsInvalidCombination(t *testing.T) {
	r := NewRegistry()
	_, err := r.Register("ctrl+nope", noop, nil)
	require.ErrorIs(t, err, keys.ErrInvalidCombination)
	assert.Zero(t, r.Len())
	assert.Zero(t, r.RequiredKeys().Len())
}

func TestRegistryRequiresPressCallback(t *testing.T) {
	_, err := NewRegistry().Register("f9", nil, noop)
	assert.Error(t, err)
}

func TestRegistryRequiredKeysIsUnion(t *testing.T) {
	r := NewRegistry()
	_, _ = r.Register("ctrl+d", noop, nil)
	_, _ = r.Register("ctrl+shift+f9", noop, nil)

	want := keys.NewSet(evdev.KEY_LEFTCTRL, evdev.KEY_LEFTSHIFT, evdev.KEY_D, evdev.KEY_F9)
	assert.True(t, want.Equal(r.RequiredKeys()))
}

type handler struct{ presses, releases int }

func (h *handler) OnPress()   { h.presses++ }
func (h *handler) OnRelease() { h.releases++ }

func TestHandlerCallbacks(t *testing.T) {
	h := &handler{}
	press, release := handlerCallbacks(h)
	require.NoError(t, press(t.Context()))
	require.NoError(t, release(t.Context()))
	require.NoError(t, release(t.Context()))
	assert.Equal(t, 1, h.presses)
	assert.Equal(t, 2, h.releases)
}
