package device

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bep/debounce"
	clog "github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// InputDir is where the kernel exposes event nodes.
const InputDir = "/dev/input"

// HotplugSettle is how long a burst of node events must be quiet before the
// new nodes are reported; udev fixes permissions shortly after creation.
const HotplugSettle = 250 * time.Millisecond

// WatchHotplug reports newly created event nodes under dir until ctx ends.
// Bursts are coalesced; each path is reported once per burst.
func WatchHotplug(ctx context.Context, dir string, settle time.Duration, logger *clog.Logger) (<-chan string, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, err
	}

	out := make(chan string, 16)
	settled := make(chan struct{}, 1)
	debounced := debounce.New(settle)
	notify := func() {
		select {
		case settled <- struct{}{}:
		default:
		}
	}

	go func() {
		defer close(out)
		defer w.Close()

		pending := make(map[string]struct{})
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !ev.Has(fsnotify.Create) || !strings.HasPrefix(filepath.Base(ev.Name), "event") {
					continue
				}
				logger.Debug("input node appeared", "path", ev.Name)
				pending[ev.Name] = struct{}{}
				debounced(notify)
			case <-settled:
				paths := make([]string, 0, len(pending))
				for p := range pending {
					paths = append(paths, p)
				}
				pending = make(map[string]struct{})
				sort.Strings(paths)
				for _, p := range paths {
					select {
					case out <- p:
					case <-ctx.Done():
						return
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("hotplug watcher error", "err", err)
			}
		}
	}()
	return out, nil
}
