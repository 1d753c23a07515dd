// Package action runs the shell commands bound to shortcuts.
package action

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	clog "github.com/charmbracelet/log"
)

const (
	defaultShell = "/bin/sh"
	// waitDelay bounds how long output is collected from background children
	// that inherited the command's stdout.
	waitDelay = 500 * time.Millisecond
)

// Command is one shell command line. Commands are not tied to the lifetime
// of the daemon; a launched program keeps running after shutdown.
type Command struct {
	Line string
	// Env entries ("KEY=value") added to the process environment.
	Env []string
	// Timeout kills the command when it runs longer. Zero means no limit.
	Timeout time.Duration

	log *clog.Logger
}

func NewCommand(line string, logger *clog.Logger) *Command {
	return &Command{Line: strings.TrimSpace(line), log: logger}
}

// Empty reports whether there is nothing to run.
func (c *Command) Empty() bool {
	return c == nil || c.Line == ""
}

// With returns a copy with extra environment entries.
func (c *Command) With(env ...string) *Command {
	cp := *c
	cp.Env = append(append([]string(nil), c.Env...), env...)
	return &cp
}

// Run executes the command through /bin/sh -c and waits for it. ctx only
// supplies values; cancellation does not kill the command.
func (c *Command) Run(ctx context.Context) error {
	if c.Empty() {
		return nil
	}

	runCtx := context.WithoutCancel(ctx)
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, c.Timeout)
		defer cancel()
	}

	start := time.Now()
	cmd := exec.CommandContext(runCtx, defaultShell, "-c", c.Line)
	cmd.Env = append(os.Environ(), c.Env...)
	cmd.WaitDelay = waitDelay
	output, err := cmd.CombinedOutput()
	out := strings.TrimSpace(string(output))
	if err != nil && !errors.Is(err, exec.ErrWaitDelay) {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("command %q timed out after %s", c.Line, c.Timeout)
		}
		return fmt.Errorf("command %q failed: %w, output: %s", c.Line, err, out)
	}

	c.log.Debug("command finished", "cmd", c.Line, "took", time.Since(start).Round(time.Millisecond), "output", out)
	return nil
}
