package device

import (
	"fmt"
	"sort"
	"sync"
	"time"

	clog "github.com/charmbracelet/log"
	"github.com/holoplot/go-evdev"
	"github.com/samber/lo"
)

// Input is one event, or one terminal read error, from a device.
type Input struct {
	Device *Device
	Event  *evdev.InputEvent
	Err    error
}

// Multiplexer fans events from every attached device into one channel.
// Each device has its own reader, so events of one device arrive in the
// order the kernel reported them; across devices the order is arrival order.
type Multiplexer struct {
	out  chan Input
	done chan struct{}
	log  *clog.Logger

	mu      sync.Mutex
	devices map[string]*Device
	readers map[string]int
	wg      sync.WaitGroup
	once    sync.Once
}

func NewMultiplexer(logger *clog.Logger) *Multiplexer {
	return &Multiplexer{
		out:     make(chan Input, 64),
		done:    make(chan struct{}),
		log:     logger,
		devices: make(map[string]*Device),
		readers: make(map[string]int),
	}
}

// Events is the merged stream. A record with Err set is the last one the
// device produces.
func (m *Multiplexer) Events() <-chan Input {
	return m.out
}

// Add starts reading d. It reports false when a device with the same path is
// already attached or the multiplexer is closed.
func (m *Multiplexer) Add(d *Device) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	select {
	case <-m.done:
		return false
	default:
	}
	if _, ok := m.devices[d.Path]; ok {
		return false
	}
	m.devices[d.Path] = d
	m.readers[d.Path]++
	m.wg.Add(1)
	go m.read(d)
	return true
}

// Has reports whether a device with this path is attached.
func (m *Multiplexer) Has(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.devices[path]
	return ok
}

// Remove detaches and closes d.
func (m *Multiplexer) Remove(d *Device) {
	m.mu.Lock()
	if m.devices[d.Path] == d {
		delete(m.devices, d.Path)
	}
	m.mu.Unlock()

	if err := d.Close(); err != nil {
		m.log.Debug("closing device failed", "path", d.Path, "err", err)
	}
}

// Devices returns the attached devices ordered by path.
func (m *Multiplexer) Devices() []*Device {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := lo.Values(m.devices)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func (m *Multiplexer) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.devices)
}

// Readers lists the paths whose reader goroutine has not returned yet.
func (m *Multiplexer) Readers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	paths := lo.Keys(m.readers)
	sort.Strings(paths)
	return paths
}

func (m *Multiplexer) read(d *Device) {
	defer m.wg.Done()
	defer func() {
		m.mu.Lock()
		if m.readers[d.Path]--; m.readers[d.Path] <= 0 {
			delete(m.readers, d.Path)
		}
		m.mu.Unlock()
	}()

	for {
		ev, err := d.input.ReadOne()
		if err != nil {
			if isClosed(err) {
				return
			}
			if isDisconnect(err) {
				err = fmt.Errorf("%w: %s: %v", ErrDeviceDisconnected, d.Path, err)
			}
			select {
			case m.out <- Input{Device: d, Err: err}:
			case <-m.done:
			}
			return
		}

		select {
		case m.out <- Input{Device: d, Event: ev}:
		case <-m.done:
			return
		}
	}
}

// Close stops every reader and closes every device, waiting at most timeout
// for readers to return.
func (m *Multiplexer) Close(timeout time.Duration) {
	m.once.Do(func() {
		close(m.done)

		m.mu.Lock()
		devices := lo.Values(m.devices)
		m.devices = make(map[string]*Device)
		m.mu.Unlock()

		for _, d := range devices {
			if err := d.Close(); err != nil {
				m.log.Debug("closing device failed", "path", d.Path, "err", err)
			}
		}

		finished := make(chan struct{})
		go func() {
			m.wg.Wait()
			close(finished)
		}()
		select {
		case <-finished:
		case <-time.After(timeout):
			m.log.Warn("device readers did not stop in time", "timeout", timeout, "stuck", m.Readers())
		}
	})
}
