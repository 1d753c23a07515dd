package terminal

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/x/ansi"
	"golang.org/x/term"
)

// Control rewrites a block of lines in place on a terminal and degrades to
// plain printing elsewhere.
type Control struct {
	out     io.Writer
	fd      int
	isTTY   bool
	printed int
}

// NewControl writes to stdout.
func NewControl() *Control {
	return NewControlFor(os.Stdout)
}

// NewControlFor writes to w. In-place updates are only used when w is a
// terminal.
func NewControlFor(w io.Writer) *Control {
	c := &Control{out: w, fd: -1}
	if f, ok := w.(*os.File); ok {
		c.fd = int(f.Fd())
		c.isTTY = term.IsTerminal(c.fd)
	}
	return c
}

// IsTerminal checks if output is going to a terminal
func (c *Control) IsTerminal() bool {
	return c.isTTY
}

// Width returns the terminal width, or 0 when unknown.
func (c *Control) Width() int {
	if !c.isTTY {
		return 0
	}
	w, _, err := term.GetSize(c.fd)
	if err != nil {
		return 0
	}
	return w
}

// MoveCursorUp moves the cursor up by the specified number of lines
func (c *Control) MoveCursorUp(lines int) {
	if lines <= 0 {
		return
	}
	fmt.Fprintf(c.out, "\033[%dA", lines)
}

// ClearLine clears the current line
func (c *Control) ClearLine() {
	fmt.Fprint(c.out, "\033[2K\r")
}

// UpdateInPlace replaces the block printed by the previous call with lines.
func (c *Control) UpdateInPlace(lines []string) {
	if !c.isTTY {
		for _, line := range lines {
			fmt.Fprintln(c.out, line)
		}
		return
	}

	c.MoveCursorUp(c.printed)
	width := c.Width()
	for _, line := range lines {
		c.ClearLine()
		fmt.Fprintln(c.out, truncate(line, width))
	}
	// Leftover lines from a taller previous block.
	for i := len(lines); i < c.printed; i++ {
		c.ClearLine()
		fmt.Fprintln(c.out)
	}
	if extra := c.printed - len(lines); extra > 0 {
		c.MoveCursorUp(extra)
	}
	c.printed = len(lines)
}

// Reset forgets the previous block so the next update starts below it.
func (c *Control) Reset() {
	c.printed = 0
}

// HideCursor hides the terminal cursor
func (c *Control) HideCursor() {
	if c.isTTY {
		fmt.Fprint(c.out, "\033[?25l")
	}
}

// ShowCursor shows the terminal cursor
func (c *Control) ShowCursor() {
	if c.isTTY {
		fmt.Fprint(c.out, "\033[?25h")
	}
}

// truncate cuts line to width visible cells, keeping escape sequences
// intact.
func truncate(line string, width int) string {
	if width <= 0 {
		return line
	}
	return ansi.Truncate(line, width, "")
}
