// Package logging configures the charmbracelet logger shared by the daemon
// and its components.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	clog "github.com/charmbracelet/log"
)

// L is the process-wide logger. Components derive prefixed children from it.
var L = New(os.Stderr, "info")

// New builds a logger writing to w at the named level. Unknown levels fall
// back to info.
func New(w io.Writer, level string) *clog.Logger {
	l := clog.NewWithOptions(w, clog.Options{
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	})
	l.SetLevel(ParseLevel(level))
	return l
}

// ParseLevel maps "debug", "warn", ... to a log level.
func ParseLevel(level string) clog.Level {
	lvl, err := clog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return clog.InfoLevel
	}
	return lvl
}

// Named returns a child of L tagged with the component prefix.
func Named(component string) *clog.Logger {
	return L.WithPrefix(component)
}

// Discard returns a logger that drops everything; used by tests and by
// one-shot CLI commands that print their own output.
func Discard() *clog.Logger {
	return clog.New(io.Discard)
}
