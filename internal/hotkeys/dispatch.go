package hotkeys

import (
	"context"
	"fmt"
	"sort"
	"sync"

	clog "github.com/charmbracelet/log"
	"github.com/samber/lo"
)

// Phase says which edge of a shortcut a callback belongs to.
type Phase int

const (
	Press Phase = iota
	Release
)

func (p Phase) String() string {
	if p == Release {
		return "release"
	}
	return "press"
}

// Dispatcher runs shortcut callbacks off the event path.
type Dispatcher interface {
	Dispatch(s Shortcut, phase Phase)
}

// AsyncDispatcher runs every callback on its own goroutine. Panics and
// returned errors are logged and never reach the event loop.
type AsyncDispatcher struct {
	ctx context.Context
	log *clog.Logger
	wg  sync.WaitGroup

	mu       sync.Mutex
	inFlight map[string]int
}

func NewAsyncDispatcher(ctx context.Context, logger *clog.Logger) *AsyncDispatcher {
	return &AsyncDispatcher{ctx: ctx, log: logger, inFlight: make(map[string]int)}
}

func (d *AsyncDispatcher) Dispatch(s Shortcut, phase Phase) {
	cb := s.OnPress
	if phase == Release {
		cb = s.OnRelease
	}
	if cb == nil {
		return
	}

	name := s.Combination + " (" + phase.String() + ")"
	d.track(name, 1)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer d.track(name, -1)
		if err := invoke(d.ctx, cb); err != nil {
			d.log.Error("shortcut callback failed", "shortcut", s.Combination, "phase", phase, "err", err)
		}
	}()
}

func (d *AsyncDispatcher) track(name string, delta int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inFlight[name] += delta; d.inFlight[name] <= 0 {
		delete(d.inFlight, name)
	}
}

// Pending lists the callbacks that have not returned yet, such as
// "ctrl+d (release)".
func (d *AsyncDispatcher) Pending() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	pending := lo.Keys(d.inFlight)
	sort.Strings(pending)
	return pending
}

// Wait blocks until every dispatched callback has returned.
func (d *AsyncDispatcher) Wait() {
	d.wg.Wait()
}

func invoke(ctx context.Context, cb Callback) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return cb(ctx)
}
