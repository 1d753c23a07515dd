package device_test

import (
	"errors"
	"testing"

	"github.com/holoplot/go-evdev"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/bezmoradi/keygrab/internal/device"
	"github.com/bezmoradi/keygrab/internal/device/devicetest"
	"github.com/bezmoradi/keygrab/internal/keys"
	"github.com/bezmoradi/keygrab/internal/logging"
)

var (
	ctrlAltD = keys.NewSet(evdev.KEY_LEFTCTRL, evdev.KEY_LEFTALT, evdev.KEY_D)
	f9       = keys.NewSet(evdev.KEY_F9)
)

func fullKeyboard(path string) *devicetest.Device {
	return devicetest.NewKeyboard(path, "AT Translated Set 2 keyboard",
		evdev.KEY_ESC, evdev.KEY_LEFTCTRL, evdev.KEY_LEFTALT, evdev.KEY_LEFTSHIFT,
		evdev.KEY_A, evdev.KEY_D, evdev.KEY_F9, evdev.KEY_SPACE)
}

func paths(devs []*device.Device) []string {
	out := make([]string, 0, len(devs))
	for _, d := range devs {
		out = append(out, d.Path)
	}
	return out
}

func TestDiscoverFiltersByShortcutCapability(t *testing.T) {
	kbd := fullKeyboard("/dev/input/event3")
	mouse := devicetest.NewMouse("/dev/input/event5", "Logitech USB Optical Mouse")
	lid := devicetest.NewSwitch("/dev/input/event0", "Lid Switch")
	macro := devicetest.NewKeyboard("/dev/input/event7", "Macro Pad", evdev.KEY_F9)
	volume := devicetest.NewKeyboard("/dev/input/event8", "Volume Knob", evdev.KEY_VOLUMEUP, evdev.KEY_VOLUMEDOWN)

	d := device.NewDiscoverer(devicetest.NewSource(lid, kbd, mouse, macro, volume), logging.Discard())
	found, err := d.Discover("", []keys.Set{ctrlAltD, f9})
	require.NoError(t, err)

	assert.Equal(t, []string{"/dev/input/event3", "/dev/input/event7"}, paths(found))
	assert.True(t, found[0].Capabilities.Has(evdev.KEY_D))
	assert.Equal(t, "AT Translated Set 2 keyboard", found[0].Name)

	assert.True(t, mouse.Closed())
	assert.True(t, lid.Closed())
	assert.True(t, volume.Closed())
	assert.False(t, kbd.Closed())
	assert.False(t, kbd.Grabbed(), "probe must ungrab")
	assert.Equal(t, 1, kbd.GrabCalls())
}

func TestDiscoverRequiresOneCompleteShortcut(t *testing.T) {
	partial := devicetest.NewKeyboard("/dev/input/event4", "Half Keyboard", evdev.KEY_LEFTCTRL, evdev.KEY_LEFTALT)

	d := device.NewDiscoverer(devicetest.NewSource(partial), logging.Discard())
	found, err := d.Discover("", []keys.Set{ctrlAltD})

	require.ErrorIs(t, err, device.ErrNoDevicesAvailable)
	assert.Empty(t, found)
	assert.True(t, partial.Closed())
}

func TestDiscoverDropsDevicesFailingProbe(t *testing.T) {
	busy := fullKeyboard("/dev/input/event3").FailGrab(unix.EBUSY)
	ok := fullKeyboard("/dev/input/event4")

	d := device.NewDiscoverer(devicetest.NewSource(busy, ok), logging.Discard())
	found, err := d.Discover("", []keys.Set{ctrlAltD})
	require.NoError(t, err)

	assert.Equal(t, []string{"/dev/input/event4"}, paths(found))
	assert.True(t, busy.Closed())
}

func TestDiscoverSkipsUnopenableDevices(t *testing.T) {
	locked := fullKeyboard("/dev/input/event3")
	ok := fullKeyboard("/dev/input/event4")
	src := devicetest.NewSource(locked, ok)
	src.FailOpen(locked.Path(), unix.EACCES)

	found, err := device.NewDiscoverer(src, logging.Discard()).Discover("", []keys.Set{ctrlAltD})
	require.NoError(t, err)
	assert.Equal(t, []string{"/dev/input/event4"}, paths(found))
}

func TestDiscoverWithoutShortcuts(t *testing.T) {
	d := device.NewDiscoverer(devicetest.NewSource(fullKeyboard("/dev/input/event3")), logging.Discard())
	found, err := d.Discover("", nil)
	require.ErrorIs(t, err, device.ErrNoDevicesAvailable)
	assert.Empty(t, found)
}

func TestDiscoverListFailure(t *testing.T) {
	src := devicetest.NewSource()
	src.FailList(errors.New("no /dev/input"))

	_, err := device.NewDiscoverer(src, logging.Discard()).Discover("", []keys.Set{ctrlAltD})
	require.ErrorIs(t, err, device.ErrNoDevicesAvailable)
}

func TestDiscoverExplicitPath(t *testing.T) {
	kbd := fullKeyboard("/dev/input/event3")
	other := fullKeyboard("/dev/input/event4")

	d := device.NewDiscoverer(devicetest.NewSource(kbd, other), logging.Discard())
	found, err := d.Discover("/dev/input/event4", []keys.Set{ctrlAltD})
	require.NoError(t, err)
	assert.Equal(t, []string{"/dev/input/event4"}, paths(found))
	assert.Zero(t, kbd.GrabCalls(), "unselected devices are never touched")
}

func TestDiscoverExplicitPathSkipsCapabilityFilter(t *testing.T) {
	pad := devicetest.NewKeyboard("/dev/input/event9", "Foot Pedal", evdev.KEY_B)

	found, err := device.NewDiscoverer(devicetest.NewSource(pad), logging.Discard()).
		Discover("/dev/input/event9", []keys.Set{ctrlAltD})
	require.NoError(t, err)
	assert.Equal(t, []string{"/dev/input/event9"}, paths(found))
}

func TestDiscoverExplicitPathMissing(t *testing.T) {
	kbd := fullKeyboard("/dev/input/event3")

	found, err := device.NewDiscoverer(devicetest.NewSource(kbd), logging.Discard()).
		Discover("/dev/input/event42", []keys.Set{ctrlAltD})
	require.ErrorIs(t, err, device.ErrDeviceNotFound)
	assert.Empty(t, found)
}

func TestDiscoverExplicitPathAccessDenied(t *testing.T) {
	kbd := fullKeyboard("/dev/input/event3").FailGrab(unix.EBUSY)

	found, err := device.NewDiscoverer(devicetest.NewSource(kbd), logging.Discard()).
		Discover("/dev/input/event3", []keys.Set{ctrlAltD})
	require.ErrorIs(t, err, device.ErrDeviceAccessDenied)
	assert.Empty(t, found)
	assert.True(t, kbd.Closed())
}

func TestInspectSingleDevice(t *testing.T) {
	kbd := fullKeyboard("/dev/input/event12")
	d := device.NewDiscoverer(devicetest.NewSource(kbd), logging.Discard())

	dev, err := d.Inspect("/dev/input/event12", []keys.Set{f9})
	require.NoError(t, err)
	assert.Equal(t, "/dev/input/event12", dev.Path)

	_, err = d.Inspect("/dev/input/event13", []keys.Set{f9})
	require.ErrorIs(t, err, device.ErrDeviceAccessDenied)
}

func TestReason(t *testing.T) {
	assert.Equal(t, "grabbed by another process", device.Reason(unix.EBUSY))
	assert.Contains(t, device.Reason(unix.EACCES), "input")
	assert.Equal(t, "device is gone", device.Reason(unix.ENODEV))
	assert.Equal(t, "boom", device.Reason(errors.New("boom")))
	assert.Empty(t, device.Reason(nil))
}
