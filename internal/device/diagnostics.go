package device

import (
	"fmt"

	"github.com/holoplot/go-evdev"
	"github.com/samber/lo"

	"github.com/bezmoradi/keygrab/internal/keys"
)

// Info describes a device for diagnostics output.
type Info struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Reason string `json:"reason,omitempty"`
}

func (i Info) DisplayName() string {
	return fmt.Sprintf("%s (%s)", i.Name, i.Path)
}

// Report is the result of ProbeAccessibility.
type Report struct {
	Accessible   []Info `json:"accessible"`
	Inaccessible []Info `json:"inaccessible"`
	Total        int    `json:"total"`
}

// ListAvailable returns key-capable devices that can currently be grabbed.
// A non-empty filter additionally requires the device to emit all its keys.
// Devices that cannot be opened are skipped.
func ListAvailable(source Source, filter keys.Set) ([]Info, error) {
	paths, err := source.List()
	if err != nil {
		return nil, err
	}

	available := []Info{}
	for _, path := range paths {
		input, err := source.Open(path)
		if err != nil {
			continue
		}
		info, ok := inspectForListing(path, input, filter)
		_ = input.Close()
		if ok {
			available = append(available, info)
		}
	}
	return available, nil
}

func inspectForListing(path string, input InputDevice, filter keys.Set) (Info, bool) {
	if !lo.Contains(input.CapableTypes(), evdev.EV_KEY) {
		return Info{}, false
	}
	caps := keys.NewSet(input.CapableEvents(evdev.EV_KEY)...)
	if filter.Len() > 0 && !filter.SubsetOf(caps) {
		return Info{}, false
	}
	if probe(input) != nil {
		return Info{}, false
	}
	return Info{Name: deviceName(path, input), Path: path}, true
}

// ProbeAccessibility sorts every key-capable device into accessible and
// inaccessible by attempting a grab. Total counts all enumerated devices.
func ProbeAccessibility(source Source) (Report, error) {
	report := Report{Accessible: []Info{}, Inaccessible: []Info{}}

	paths, err := source.List()
	if err != nil {
		return report, err
	}
	report.Total = len(paths)

	for _, path := range paths {
		input, err := source.Open(path)
		if err != nil {
			report.Inaccessible = append(report.Inaccessible, Info{Name: path, Path: path, Reason: Reason(err)})
			continue
		}
		if lo.Contains(input.CapableTypes(), evdev.EV_KEY) {
			info := Info{Name: deviceName(path, input), Path: path}
			if err := probe(input); err != nil {
				info.Reason = Reason(err)
				report.Inaccessible = append(report.Inaccessible, info)
			} else {
				report.Accessible = append(report.Accessible, info)
			}
		}
		_ = input.Close()
	}
	return report, nil
}

func deviceName(path string, input InputDevice) string {
	name, err := input.Name()
	if err != nil || name == "" {
		return path
	}
	return name
}
