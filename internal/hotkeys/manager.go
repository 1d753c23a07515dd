package hotkeys

import (
	"context"
	"errors"
	"sync"
	"time"

	clog "github.com/charmbracelet/log"

	"github.com/bezmoradi/keygrab/internal/device"
	"github.com/bezmoradi/keygrab/internal/keys"
	"github.com/bezmoradi/keygrab/internal/logging"
)

const stopTimeout = time.Second

// StartOptions selects the devices to capture and how.
type StartOptions struct {
	// DevicePath restricts capture to one device. Symlinks such as
	// /dev/input/by-id/... are accepted.
	DevicePath string
	// Grab takes exclusive access and re-emits non-shortcut keys through a
	// virtual keyboard. Without it devices are only observed.
	Grab bool
	// Hotplug attaches keyboards plugged in after Start. Ignored when
	// DevicePath is set.
	Hotplug bool
}

// DeviceStatus describes one attached device.
type DeviceStatus struct {
	device.Info
	Grabbed bool
}

type Option func(*Manager)

func WithLogger(l *clog.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithSource replaces the /dev/input device source.
func WithSource(s device.Source) Option {
	return func(m *Manager) { m.source = s }
}

// WithOutputFactory replaces the uinput virtual keyboard.
func WithOutputFactory(f device.OutputFactory) Option {
	return func(m *Manager) { m.newOutput = f }
}

func WithDebounce(d time.Duration) Option {
	return func(m *Manager) { m.debounce = d }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithHotplugDir watches dir instead of /dev/input and reports nodes after
// settle.
func WithHotplugDir(dir string, settle time.Duration) Option {
	return func(m *Manager) {
		m.hotplugDir = dir
		m.settle = settle
	}
}

// Manager registers shortcuts, captures keyboards and runs callbacks when
// shortcuts are pressed and released.
type Manager struct {
	registry   *Registry
	source     device.Source
	newOutput  device.OutputFactory
	log        *clog.Logger
	debounce   time.Duration
	now        func() time.Time
	hotplugDir string
	settle     time.Duration

	mu         sync.Mutex
	running    bool
	cancel     context.CancelFunc
	done       chan struct{}
	grabber    *device.Grabber
	mux        *device.Multiplexer
	dispatcher *AsyncDispatcher
	worker     *worker
	snapshots  chan chan State
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		registry:   NewRegistry(),
		source:     device.System{},
		log:        logging.Named("hotkeys"),
		debounce:   DefaultDebounce,
		now:        time.Now,
		hotplugDir: device.InputDir,
		settle:     device.HotplugSettle,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register adds a shortcut. onRelease may be nil. Shortcuts cannot change
// while the manager is running.
func (m *Manager) Register(combination string, onPress, onRelease Callback) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return "", ErrRunning
	}
	id, err := m.registry.Register(combination, onPress, onRelease)
	if err != nil {
		return "", err
	}
	m.log.Debug("shortcut registered", "id", id)
	return id, nil
}

// RegisterHandler registers h for both edges of combination.
func (m *Manager) RegisterHandler(combination string, h EventHandler) (string, error) {
	press, release := handlerCallbacks(h)
	return m.Register(combination, press, release)
}

// Shortcuts returns the registered shortcuts.
func (m *Manager) Shortcuts() []Shortcut {
	return m.registry.Shortcuts()
}

// Start discovers devices and begins capturing. Discovery and grab failures
// are returned and leave the manager stopped; the caller keeps running
// without shortcuts. Starting a running manager is a no-op; when its event
// loop already ended with its context, the old session is torn down and a
// new one started.
func (m *Manager) Start(ctx context.Context, opts StartOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		select {
		case <-m.done:
			m.log.Info("event loop has ended, restarting capture")
			m.stopLocked()
		default:
			return nil
		}
	}

	keySets := m.registry.KeySets()
	discoverer := device.NewDiscoverer(m.source, m.log)
	devices, err := discoverer.Discover(opts.DevicePath, keySets)
	if err != nil {
		m.log.Error("global shortcuts are inactive", "err", err)
		return err
	}

	grabber := device.NewGrabber(m.newOutput, m.log)
	if opts.Grab {
		if _, err := grabber.GrabAll(devices); err != nil {
			if errors.Is(err, device.ErrNoDevicesGrabbed) {
				for _, d := range devices {
					_ = d.Close()
				}
				return err
			}
			m.log.Warn("continuing without grabbing, shortcut keys will also reach the focused application")
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	mux := device.NewMultiplexer(m.log)
	for _, d := range devices {
		mux.Add(d)
	}

	var plugged <-chan string
	if opts.Hotplug && opts.DevicePath == "" {
		plugged, err = device.WatchHotplug(runCtx, m.hotplugDir, m.settle, m.log)
		if err != nil {
			m.log.Warn("hotplug detection unavailable", "dir", m.hotplugDir, "err", err)
		}
	}

	dispatcher := NewAsyncDispatcher(runCtx, m.log)
	w := &worker{
		engine:     NewEngine(m.registry.Shortcuts(), dispatcher, m.debounce, m.now),
		mux:        mux,
		grabber:    grabber,
		discoverer: discoverer,
		keySets:    keySets,
		grab:       opts.Grab,
		plugged:    plugged,
		snapshots:  make(chan chan State),
		held:       make(map[*device.Device]keys.Set),
		log:        m.log,
	}

	m.cancel = cancel
	m.done = make(chan struct{})
	m.grabber = grabber
	m.mux = mux
	m.dispatcher = dispatcher
	m.worker = w
	m.snapshots = w.snapshots
	m.running = true

	go w.run(runCtx, m.done)

	m.log.Info("global shortcuts active", "shortcuts", m.registry.Len(), "devices", mux.Len(), "grabbed", grabber.Count())
	return nil
}

// Stop ends capture, ungrabs every device and destroys the virtual keyboard.
// It is safe to call more than once.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	m.stopLocked()
}

func (m *Manager) stopLocked() {
	m.cancel()

	select {
	case <-m.done:
	case <-time.After(stopTimeout):
		m.log.Warn("event loop did not stop in time, releasing devices anyway",
			"timeout", stopTimeout,
			"handling", m.worker.busyPath(),
			"readers", m.mux.Readers(),
			"callbacks", m.dispatcher.Pending())
	}

	m.grabber.ReleaseAll()
	m.mux.Close(stopTimeout)

	m.running = false
	m.cancel = nil
	m.grabber = nil
	m.mux = nil
	m.dispatcher = nil
	m.worker = nil
	m.snapshots = nil
	m.log.Info("global shortcuts stopped")
}

// Running reports whether the event loop is alive. It turns false on its
// own when the parent context of Start ends.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return false
	}
	select {
	case <-m.done:
		return false
	default:
		return true
	}
}

// Wait blocks until every callback dispatched so far has returned.
func (m *Manager) Wait() {
	m.mu.Lock()
	d := m.dispatcher
	m.mu.Unlock()
	if d != nil {
		d.Wait()
	}
}

// Snapshot returns the matching state as seen by the event loop. It is the
// zero State when the manager is not running.
func (m *Manager) Snapshot() State {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return State{}
	}
	requests, done := m.snapshots, m.done
	m.mu.Unlock()

	reply := make(chan State, 1)
	select {
	case requests <- reply:
	case <-done:
		return State{}
	}
	select {
	case s := <-reply:
		return s
	case <-done:
		return State{}
	}
}

// Devices lists the attached devices.
func (m *Manager) Devices() []DeviceStatus {
	m.mu.Lock()
	mux := m.mux
	m.mu.Unlock()
	if mux == nil {
		return nil
	}

	attached := mux.Devices()
	out := make([]DeviceStatus, 0, len(attached))
	for _, d := range attached {
		out = append(out, DeviceStatus{
			Info:    device.Info{Name: d.Name, Path: d.Path},
			Grabbed: d.Grabbed(),
		})
	}
	return out
}

// ListAvailableDevices lists accessible keyboards. With combination set,
// only devices able to emit all of its keys are listed.
func (m *Manager) ListAvailableDevices(combination string) ([]device.Info, error) {
	var filter keys.Set
	if combination != "" {
		target, err := keys.ParseCombination(combination)
		if err != nil {
			return nil, err
		}
		filter = target
	}
	return device.ListAvailable(m.source, filter)
}

// ProbeDeviceAccessibility reports which input devices can be grabbed.
func (m *Manager) ProbeDeviceAccessibility() (device.Report, error) {
	return device.ProbeAccessibility(m.source)
}
