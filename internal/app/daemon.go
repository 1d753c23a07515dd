// Package app wires configuration, global shortcuts and their actions into
// the long-running daemon.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	clog "github.com/charmbracelet/log"

	"github.com/bezmoradi/keygrab/internal/action"
	"github.com/bezmoradi/keygrab/internal/config"
	"github.com/bezmoradi/keygrab/internal/device"
	"github.com/bezmoradi/keygrab/internal/events"
	"github.com/bezmoradi/keygrab/internal/feedback"
	"github.com/bezmoradi/keygrab/internal/hotkeys"
	"github.com/bezmoradi/keygrab/internal/keys"
	"github.com/bezmoradi/keygrab/internal/logging"
	"github.com/bezmoradi/keygrab/internal/metrics"
	"github.com/bezmoradi/keygrab/internal/terminal"
)

const appName = "keygrab"

type Option func(*Daemon)

// WithHotkeyOptions passes options through to the hotkey manager.
func WithHotkeyOptions(opts ...hotkeys.Option) Option {
	return func(d *Daemon) { d.hotkeyOpts = append(d.hotkeyOpts, opts...) }
}

// WithOutput sends the banner and session summaries to w instead of stdout.
func WithOutput(w io.Writer) Option {
	return func(d *Daemon) { d.out = w }
}

func WithNotifier(n *feedback.Notifier) Option {
	return func(d *Daemon) { d.notifier = n }
}

func WithLogger(l *clog.Logger) Option {
	return func(d *Daemon) { d.log = l }
}

// WithMetricsDir stores activation statistics under dir instead of the user
// config directory.
func WithMetricsDir(dir string) Option {
	return func(d *Daemon) { d.metricsDir = dir }
}

type Daemon struct {
	config          *config.Config
	log             *clog.Logger
	out             io.Writer
	hotkeyOpts      []hotkeys.Option
	metricsDir      string
	hotkeyManager   *hotkeys.Manager
	metricsManager  *metrics.MetricsManager
	terminalControl *terminal.Control
	formatter       *metrics.StatsFormatter
	notifier        *feedback.Notifier
	publisher       *events.Publisher
	now             func() time.Time

	mu            sync.Mutex
	sessionActive bool
	sessionStart  time.Time
	pressTimes    map[string]time.Time

	displayMu sync.Mutex
}

func NewDaemon(cfg *config.Config, opts ...Option) *Daemon {
	d := &Daemon{
		config:     cfg,
		log:        logging.Named("daemon"),
		out:        os.Stdout,
		formatter:  metrics.NewStatsFormatter(),
		now:        time.Now,
		pressTimes: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.notifier == nil {
		d.notifier = feedback.New(cfg.Feedback, d.log)
	}
	return d
}

// Initialize validates the configuration and registers every shortcut.
func (d *Daemon) Initialize() error {
	if err := d.config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if d.metricsDir == "" {
		dir, err := config.MetricsDir()
		if err != nil {
			return err
		}
		d.metricsDir = dir
	}
	var err error
	d.metricsManager, err = metrics.NewMetricsManager(d.metricsDir)
	if err != nil {
		return fmt.Errorf("failed to initialize metrics manager: %w", err)
	}

	d.terminalControl = terminal.NewControlFor(d.out)

	if d.config.EventURL != "" {
		d.publisher = events.NewPublisher(d.config.EventURL, d.log.WithPrefix("events"))
	}

	opts := []hotkeys.Option{
		hotkeys.WithLogger(d.log.WithPrefix("hotkeys")),
		hotkeys.WithDebounce(d.config.Debounce),
	}
	d.hotkeyManager = hotkeys.NewManager(append(opts, d.hotkeyOpts...)...)

	for _, s := range d.config.Shortcuts {
		if err := d.registerAction(s); err != nil {
			return err
		}
	}
	if d.config.PrimaryShortcut != "" {
		if _, err := d.hotkeyManager.RegisterHandler(d.config.PrimaryShortcut, d); err != nil {
			return fmt.Errorf("primary shortcut: %w", err)
		}
	}
	if len(d.hotkeyManager.Shortcuts()) == 0 {
		return errors.New("no shortcuts configured, run 'keygrab config init' to create a starter config")
	}
	return nil
}

// registerAction binds a configured shortcut to its commands. Commands see
// KEYGRAB_SHORTCUT and KEYGRAB_PHASE in their environment.
func (d *Daemon) registerAction(s config.Shortcut) error {
	env := "KEYGRAB_SHORTCUT=" + s.Shortcut
	press := action.NewCommand(s.OnPress, d.log).With(env, "KEYGRAB_PHASE=press")
	release := action.NewCommand(s.OnRelease, d.log).With(env, "KEYGRAB_PHASE=release")

	var id string
	onPress := func(ctx context.Context) error {
		d.markPressed(id)
		d.log.Info("shortcut pressed", "shortcut", s.Shortcut)
		d.publish(ctx, events.Event{Type: events.TypePress, Shortcut: s.Shortcut})
		return press.Run(ctx)
	}
	onRelease := func(ctx context.Context) error {
		held := d.markReleased(id)
		d.log.Debug("shortcut released", "shortcut", s.Shortcut, "held", held)
		if _, err := d.metricsManager.RecordActivation(s.Shortcut, held); err != nil {
			d.log.Warn("failed to record activation", "shortcut", s.Shortcut, "err", err)
		}
		d.publish(ctx, events.Event{Type: events.TypeRelease, Shortcut: s.Shortcut, HeldMs: held.Milliseconds()})
		return release.Run(ctx)
	}

	var err error
	id, err = d.hotkeyManager.Register(s.Shortcut, onPress, onRelease)
	if err != nil {
		return fmt.Errorf("shortcut %q: %w", s.Shortcut, err)
	}
	return nil
}

func (d *Daemon) markPressed(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pressTimes[id] = d.now()
}

// markReleased returns how long the shortcut was held. Callbacks run
// concurrently, so a release can be seen before its press; that counts as
// zero.
func (d *Daemon) markReleased(id string) time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	pressed, ok := d.pressTimes[id]
	if !ok {
		return 0
	}
	delete(d.pressTimes, id)
	return d.now().Sub(pressed)
}

// Run starts capturing shortcuts and blocks until ctx is done or the process
// receives SIGINT/SIGTERM. Failing to capture shortcuts is reported but not
// fatal.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := d.hotkeyManager.Start(ctx, hotkeys.StartOptions{
		DevicePath: d.config.DevicePath,
		Grab:       d.config.GrabKeys,
		Hotplug:    d.config.Hotplug,
	})
	if err != nil {
		d.log.Error("global shortcuts are inactive", "err", err)
		if hint := Hint(err); hint != "" {
			d.log.Info(hint)
		}
		d.notifier.Play(feedback.ToneError)
		d.notifier.Alert(appName, "Global shortcuts are inactive: "+err.Error())
	}

	d.printBanner(err == nil)

	<-ctx.Done()
	fmt.Fprintln(d.out, "\n🛑 Shutting down...")
	d.Cleanup()
	return nil
}

func (d *Daemon) printBanner(active bool) {
	fmt.Fprintf(d.out, "⌨️  keygrab - Global Shortcut Daemon Started\n")
	if active {
		for _, s := range d.hotkeyManager.Shortcuts() {
			fmt.Fprintf(d.out, "📋 %s\n", d.describe(s))
		}
	} else {
		fmt.Fprintln(d.out, "⚠️  Shortcuts are inactive, see the log above")
	}
	fmt.Fprintln(d.out, "🛑 Press Ctrl+C to exit")
	fmt.Fprintln(d.out)
}

func (d *Daemon) describe(s hotkeys.Shortcut) string {
	label := keys.FormatSet(s.Keys)
	if s.Combination != d.config.PrimaryShortcut {
		return label
	}
	if d.config.PushToTalk {
		return fmt.Sprintf("Hold %s for a session, release to end it", label)
	}
	return fmt.Sprintf("Press %s to start or stop a session", label)
}

// Cleanup stops capturing and ends a session that is still active.
func (d *Daemon) Cleanup() {
	if d.hotkeyManager != nil {
		d.hotkeyManager.Stop()
	}
	d.stopSession()
	if d.publisher != nil {
		d.publisher.Close()
	}
}

// OnPress implements hotkeys.EventHandler for the primary shortcut.
func (d *Daemon) OnPress() {
	if d.config.PushToTalk {
		d.startSession()
		return
	}

	d.mu.Lock()
	active := d.sessionActive
	d.mu.Unlock()
	if active {
		d.stopSession()
	} else {
		d.startSession()
	}
}

// OnRelease implements hotkeys.EventHandler for the primary shortcut.
func (d *Daemon) OnRelease() {
	if d.config.PushToTalk {
		d.stopSession()
	}
}

func (d *Daemon) startSession() {
	d.mu.Lock()
	if d.sessionActive {
		d.mu.Unlock()
		d.log.Debug("session already active, ignoring press")
		return
	}
	d.sessionActive = true
	d.sessionStart = d.now()
	d.mu.Unlock()

	d.log.Info("session started")
	d.notifier.Play(feedback.ToneStart)
	ctx := context.Background()
	d.publish(ctx, events.Event{Type: events.TypeSessionStart, Shortcut: d.config.PrimaryShortcut})
	d.runSessionCommand(ctx, d.config.SessionStart, "start")
}

func (d *Daemon) stopSession() {
	d.mu.Lock()
	if !d.sessionActive {
		d.mu.Unlock()
		return
	}
	d.sessionActive = false
	held := d.now().Sub(d.sessionStart)
	d.mu.Unlock()

	d.log.Info("session stopped", "held", held.Round(time.Millisecond))
	d.notifier.Play(feedback.ToneStop)
	d.displaySessionMetrics(held)
	ctx := context.Background()
	d.publish(ctx, events.Event{Type: events.TypeSessionStop, Shortcut: d.config.PrimaryShortcut, HeldMs: held.Milliseconds()})
	d.runSessionCommand(ctx, d.config.SessionStop, "stop")
}

func (d *Daemon) runSessionCommand(ctx context.Context, line, phase string) {
	cmd := action.NewCommand(line, d.log).With(
		"KEYGRAB_SHORTCUT="+d.config.PrimaryShortcut,
		"KEYGRAB_PHASE=session_"+phase,
	)
	if err := cmd.Run(ctx); err != nil {
		d.log.Error("session command failed", "phase", phase, "err", err)
		d.notifier.Play(feedback.ToneError)
	}
}

func (d *Daemon) displaySessionMetrics(held time.Duration) {
	if d.metricsManager == nil {
		return
	}
	activation, err := d.metricsManager.RecordActivation(d.config.PrimaryShortcut, held)
	if err != nil {
		d.log.Warn("failed to record session metrics", "err", err)
		return
	}

	today, err := d.metricsManager.GetTodayMetrics()
	if err != nil {
		d.log.Warn("failed to get today's metrics", "err", err)
		today = nil
	}

	d.displayMu.Lock()
	defer d.displayMu.Unlock()
	d.terminalControl.UpdateInPlace(d.formatter.FormatActivationLines(activation, today))
}

// publish forwards ev to the event stream, if one is configured. Failures
// never affect shortcut handling.
func (d *Daemon) publish(ctx context.Context, ev events.Event) {
	if d.publisher == nil {
		return
	}
	ev.Timestamp = d.now()
	if err := d.publisher.Publish(ctx, ev); err != nil {
		d.log.Warn("failed to publish event", "type", ev.Type, "err", err)
	}
}

// Hint suggests a fix for a shortcut capture failure.
func Hint(err error) string {
	switch {
	case errors.Is(err, device.ErrDeviceAccessDenied):
		return "add your user to the 'input' group (then log in again) or run keygrab with sudo"
	case errors.Is(err, device.ErrNoDevicesGrabbed):
		return "another program holds the keyboard exclusively; close it or set grab_keys = false"
	case errors.Is(err, device.ErrDeviceNotFound):
		return "check device_path; 'keygrab devices' lists usable keyboards"
	case errors.Is(err, device.ErrNoDevicesAvailable):
		return "no keyboard exposes the configured keys; run 'keygrab probe' to check access"
	}
	return ""
}
