package device

import (
	"fmt"
	"path/filepath"

	clog "github.com/charmbracelet/log"
	"github.com/holoplot/go-evdev"
	"github.com/samber/lo"

	"github.com/bezmoradi/keygrab/internal/keys"
)

// Discoverer selects the devices worth grabbing for a set of shortcuts.
type Discoverer struct {
	source Source
	log    *clog.Logger
}

func NewDiscoverer(source Source, logger *clog.Logger) *Discoverer {
	return &Discoverer{source: source, log: logger}
}

// Discover returns the devices that can produce at least one complete
// shortcut and survive an exclusive-access probe. With explicitPath set only
// that device is considered, without capability filtering.
//
// Returned errors wrap ErrDeviceNotFound, ErrDeviceAccessDenied or
// ErrNoDevicesAvailable; none of them is fatal to the caller.
func (d *Discoverer) Discover(explicitPath string, shortcuts []keys.Set) ([]*Device, error) {
	if len(shortcuts) == 0 {
		d.log.Warn("no shortcuts registered before device discovery")
		return nil, ErrNoDevicesAvailable
	}

	paths, err := d.source.List()
	if err != nil {
		return nil, fmt.Errorf("%w: listing input devices: %v", ErrNoDevicesAvailable, err)
	}

	if explicitPath != "" {
		dev, err := d.openExplicit(explicitPath, paths, shortcuts)
		if err != nil {
			return nil, err
		}
		return []*Device{dev}, nil
	}

	var found []*Device
	for _, path := range paths {
		dev, err := d.Inspect(path, shortcuts)
		if err != nil {
			continue
		}
		found = append(found, dev)
	}

	if len(found) == 0 {
		d.log.Error("no accessible devices can emit the configured shortcuts")
		return nil, ErrNoDevicesAvailable
	}
	return found, nil
}

// Inspect opens one device and keeps it only if it reports key events, can
// emit every key of some shortcut and can be grabbed. Rejected devices are
// closed.
func (d *Discoverer) Inspect(path string, shortcuts []keys.Set) (*Device, error) {
	input, err := d.source.Open(path)
	if err != nil {
		d.log.Warn("cannot open device", "path", path, "reason", Reason(err))
		return nil, fmt.Errorf("%w: %s: %v", ErrDeviceAccessDenied, path, err)
	}

	if !lo.Contains(input.CapableTypes(), evdev.EV_KEY) {
		_ = input.Close()
		return nil, errNotKeyboard
	}

	dev := newDevice(path, input)
	if !canEmitAny(dev.Capabilities, shortcuts) {
		d.log.Debug("skipping device without shortcut keys", "path", path, "name", dev.Name)
		_ = dev.Close()
		return nil, errCannotEmit
	}

	if err := probe(input); err != nil {
		d.log.Warn("cannot access device", "path", path, "name", dev.Name, "reason", Reason(err))
		_ = dev.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrDeviceAccessDenied, path, err)
	}

	d.log.Debug("device selected", "path", path, "name", dev.Name)
	return dev, nil
}

func (d *Discoverer) openExplicit(explicitPath string, paths []string, shortcuts []keys.Set) (*Device, error) {
	path, ok := matchPath(explicitPath, paths)
	if !ok {
		d.log.Warn("selected device not found", "path", explicitPath)
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, explicitPath)
	}

	input, err := d.source.Open(path)
	if err != nil {
		d.log.Error("cannot open selected device", "path", path, "reason", Reason(err))
		return nil, fmt.Errorf("%w: %s: %v", ErrDeviceAccessDenied, path, err)
	}

	dev := newDevice(path, input)
	if !canEmitAny(dev.Capabilities, shortcuts) {
		d.log.Warn("selected device does not support all keys of any configured shortcut", "path", path, "name", dev.Name)
	}

	if err := probe(input); err != nil {
		d.log.Error("cannot access selected device", "path", path, "name", dev.Name, "reason", Reason(err))
		_ = dev.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrDeviceAccessDenied, path, err)
	}
	return dev, nil
}

// matchPath finds explicit among the enumerated paths, following symlinks
// such as /dev/input/by-id/... to their event node.
func matchPath(explicit string, paths []string) (string, bool) {
	if lo.Contains(paths, explicit) {
		return explicit, true
	}
	resolved, err := filepath.EvalSymlinks(explicit)
	if err != nil {
		return "", false
	}
	return resolved, lo.Contains(paths, resolved)
}

func canEmitAny(caps keys.Set, shortcuts []keys.Set) bool {
	return lo.SomeBy(shortcuts, func(target keys.Set) bool {
		return target.SubsetOf(caps)
	})
}

// probe checks that exclusive access is possible right now.
func probe(input InputDevice) error {
	if err := input.Grab(); err != nil {
		return err
	}
	return input.Ungrab()
}
