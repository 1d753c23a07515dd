package device_test

import (
	"testing"
	"time"

	"github.com/holoplot/go-evdev"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/bezmoradi/keygrab/internal/device"
	"github.com/bezmoradi/keygrab/internal/logging"
)

func next(t *testing.T, m *device.Multiplexer) device.Input {
	t.Helper()
	select {
	case in := <-m.Events():
		return in
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for input")
		return device.Input{}
	}
}

func TestMultiplexerPreservesPerDeviceOrder(t *testing.T) {
	a := fullKeyboard("/dev/input/event3")
	devs := discoverAll(t, a)

	m := device.NewMultiplexer(logging.Discard())
	defer m.Close(time.Second)
	require.True(t, m.Add(devs[0]))
	require.False(t, m.Add(devs[0]), "same path twice")

	a.Press(evdev.KEY_D)
	a.Release(evdev.KEY_D)

	want := []struct {
		typ   evdev.EvType
		code  evdev.EvCode
		value int32
	}{
		{evdev.EV_KEY, evdev.KEY_D, 1},
		{evdev.EV_SYN, evdev.SYN_REPORT, 0},
		{evdev.EV_KEY, evdev.KEY_D, 0},
		{evdev.EV_SYN, evdev.SYN_REPORT, 0},
	}
	for _, w := range want {
		in := next(t, m)
		require.NoError(t, in.Err)
		assert.Same(t, devs[0], in.Device)
		assert.Equal(t, w.typ, in.Event.Type)
		assert.Equal(t, w.code, in.Event.Code)
		assert.Equal(t, w.value, in.Event.Value)
	}
}

func TestMultiplexerReportsDisconnect(t *testing.T) {
	a, b := fullKeyboard("/dev/input/event3"), fullKeyboard("/dev/input/event4")
	devs := discoverAll(t, a, b)

	m := device.NewMultiplexer(logging.Discard())
	defer m.Close(time.Second)
	m.Add(devs[0])
	m.Add(devs[1])
	require.Equal(t, 2, m.Len())

	a.Fail(unix.ENODEV)
	in := next(t, m)
	require.ErrorIs(t, in.Err, device.ErrDeviceDisconnected)
	assert.Same(t, devs[0], in.Device)

	m.Remove(in.Device)
	assert.True(t, a.Closed())
	assert.False(t, m.Has("/dev/input/event3"))
	assert.Equal(t, []*device.Device{devs[1]}, m.Devices())

	b.Press(evdev.KEY_A)
	in = next(t, m)
	require.NoError(t, in.Err)
	assert.Same(t, devs[1], in.Device)
}

func TestMultiplexerCloseStopsReaders(t *testing.T) {
	a := fullKeyboard("/dev/input/event3")
	devs := discoverAll(t, a)

	m := device.NewMultiplexer(logging.Discard())
	m.Add(devs[0])
	m.Close(time.Second)
	m.Close(time.Second)

	assert.True(t, a.Closed())
	assert.Zero(t, m.Len())
	assert.False(t, m.Add(devs[0]), "closed multiplexer accepts nothing")
}

func TestMultiplexerListsRunningReaders(t *testing.T) {
	a := fullKeyboard("/dev/input/event3")
	b := fullKeyboard("/dev/input/event5")
	devs := discoverAll(t, a, b)

	m := device.NewMultiplexer(logging.Discard())
	for _, d := range devs {
		require.True(t, m.Add(d))
	}
	assert.Equal(t, []string{"/dev/input/event3", "/dev/input/event5"}, m.Readers())

	m.Close(time.Second)
	assert.Empty(t, m.Readers())
}
