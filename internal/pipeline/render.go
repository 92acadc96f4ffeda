package pipeline

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

const (
	symbolRunning = "›"
	symbolGroup   = "❯"
	symbolDone    = "✔"
	symbolSkipped = "↓"
	symbolFailed  = "✖"
	symbolWarning = "⚠"
	clearLine     = "\r\x1b[K"
)

// ConsoleRenderer draws the stage list for humans. On a terminal the running
// stage's latest output line is redrawn in place and symbols are coloured;
// otherwise every event is written as its own plain line.
type ConsoleRenderer struct {
	mu       sync.Mutex
	out      io.Writer
	live     bool
	colorize bool

	pending      bool
	pendingTitle string
	pendingDepth int
}

// NewConsoleRenderer constructs a renderer writing to w, enabling live
// updates and colour when w is a terminal and NO_COLOR is unset.
func NewConsoleRenderer(w io.Writer) *ConsoleRenderer {
	tty := isTerminal(w)
	_, noColor := os.LookupEnv("NO_COLOR")
	return &ConsoleRenderer{out: w, live: tty, colorize: tty && !noColor}
}

// NewPlainRenderer constructs a renderer that never rewrites lines or emits
// escape sequences.
func NewPlainRenderer(w io.Writer) *ConsoleRenderer {
	return &ConsoleRenderer{out: w}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (c *ConsoleRenderer) Observe(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	indent := strings.Repeat("  ", e.Depth)
	switch e.Kind {
	case EventStarted:
		c.settle()
		if e.Group || !c.live {
			symbol := symbolRunning
			if e.Group {
				symbol = symbolGroup
			}
			c.printf("%s%s %s\n", indent, c.paint(symbol, text.FgCyan), e.Stage)
			return
		}
		c.printf("%s%s %s", indent, c.paint(symbolRunning, text.FgYellow), e.Stage)
		c.pending, c.pendingTitle, c.pendingDepth = true, e.Stage, e.Depth
	case EventOutput:
		if c.live && c.pending {
			c.printf("%s%s%s %s %s", clearLine, indent, c.paint(symbolRunning, text.FgYellow), e.Stage, c.paint("→ "+e.Message, text.Faint))
			return
		}
		c.printf("%s  → %s\n", indent, e.Message)
	case EventWarning:
		c.settle()
		msg := e.Message
		if e.Err != nil {
			msg += ": " + e.Err.Error()
		}
		c.printf("%s  %s\n", indent, c.paint(symbolWarning+" "+msg, text.FgYellow))
		c.resume()
	case EventSkipped:
		c.clearPending()
		note := "skipped"
		if e.Message != "" {
			note = e.Message
		}
		c.printf("%s%s %s %s\n", indent, c.paint(symbolSkipped, text.FgYellow), e.Stage, c.paint("["+note+"]", text.Faint))
	case EventCompleted:
		c.clearPending()
		c.printf("%s%s %s\n", indent, c.paint(symbolDone, text.FgGreen), e.Stage)
	case EventFailed:
		c.clearPending()
		c.printf("%s%s %s\n", indent, c.paint(symbolFailed, text.FgRed), e.Stage)
		if !e.Group && e.Err != nil {
			c.printf("%s  %s\n", indent, c.paint("→ "+e.Err.Error(), text.FgRed))
		}
	}
}

// settle terminates an in-place status line so the next write starts on a
// fresh line.
func (c *ConsoleRenderer) settle() {
	if c.pending {
		c.printf("\n")
		c.pending = false
	}
}

// resume redraws the running stage after an interleaved line.
func (c *ConsoleRenderer) resume() {
	if !c.live || c.pendingTitle == "" {
		return
	}
	c.printf("%s%s %s", strings.Repeat("  ", c.pendingDepth), c.paint(symbolRunning, text.FgYellow), c.pendingTitle)
	c.pending = true
}

func (c *ConsoleRenderer) clearPending() {
	if c.pending {
		c.printf("%s", clearLine)
		c.pending = false
	}
	c.pendingTitle = ""
}

func (c *ConsoleRenderer) paint(s string, colors ...text.Color) string {
	if !c.colorize {
		return s
	}
	return text.Colors(colors).Sprint(s)
}

func (c *ConsoleRenderer) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}
