package device_test

import (
	"testing"

	"github.com/holoplot/go-evdev"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/bezmoradi/keygrab/internal/device"
	"github.com/bezmoradi/keygrab/internal/device/devicetest"
	"github.com/bezmoradi/keygrab/internal/keys"
)

func TestListAvailable(t *testing.T) {
	kbd := fullKeyboard("/dev/input/event3")
	macro := devicetest.NewKeyboard("/dev/input/event7", "Macro Pad", evdev.KEY_F9)
	busy := fullKeyboard("/dev/input/event8").FailGrab(unix.EBUSY)
	lid := devicetest.NewSwitch("/dev/input/event0", "Lid Switch")
	src := devicetest.NewSource(lid, kbd, macro, busy)

	all, err := device.ListAvailable(src, nil)
	require.NoError(t, err)
	assert.Equal(t, []device.Info{
		{Name: "AT Translated Set 2 keyboard", Path: "/dev/input/event3"},
		{Name: "Macro Pad", Path: "/dev/input/event7"},
	}, all)

	filtered, err := device.ListAvailable(src, ctrlAltD)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "/dev/input/event3", filtered[0].Path)
	assert.Equal(t, "AT Translated Set 2 keyboard (/dev/input/event3)", filtered[0].DisplayName())

	for _, d := range []*devicetest.Device{kbd, macro, busy, lid} {
		assert.True(t, d.Closed(), d.Path())
		assert.False(t, d.Grabbed(), d.Path())
	}
}

func TestListAvailableEmpty(t *testing.T) {
	got, err := device.ListAvailable(devicetest.NewSource(), keys.NewSet(evdev.KEY_F12))
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestProbeAccessibility(t *testing.T) {
	kbd := fullKeyboard("/dev/input/event3")
	busy := fullKeyboard("/dev/input/event8").FailGrab(unix.EBUSY)
	lid := devicetest.NewSwitch("/dev/input/event0", "Lid Switch")
	locked := fullKeyboard("/dev/input/event9")
	src := devicetest.NewSource(lid, kbd, busy, locked)
	src.FailOpen(locked.Path(), unix.EACCES)

	report, err := device.ProbeAccessibility(src)
	require.NoError(t, err)

	assert.Equal(t, 4, report.Total)
	assert.Equal(t, []device.Info{{Name: "AT Translated Set 2 keyboard", Path: "/dev/input/event3"}}, report.Accessible)
	require.Len(t, report.Inaccessible, 2)
	assert.Equal(t, "/dev/input/event8", report.Inaccessible[0].Path)
	assert.Equal(t, "grabbed by another process", report.Inaccessible[0].Reason)
	assert.Equal(t, "/dev/input/event9", report.Inaccessible[1].Path)
	assert.Contains(t, report.Inaccessible[1].Reason, "permission denied")
}
