package checkpoint

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// Terminal is the input side of the console a checkpoint waits on.
type Terminal interface {
	io.Reader
	// EnterRaw switches input to raw mode and returns a function that restores
	// the previous mode. Inputs that are not terminals return a no-op restore.
	EnterRaw() (restore func() error, err error)
}

// Console adapts an *os.File, normally os.Stdin, to Terminal.
type Console struct {
	File *os.File
}

// Stdin returns a Console reading from the process's standard input.
func Stdin() Console {
	return Console{File: os.Stdin}
}

func (c Console) Read(p []byte) (int, error) {
	return c.File.Read(p)
}

// IsTerminal reports whether the underlying file is an interactive terminal.
func (c Console) IsTerminal() bool {
	if c.File == nil {
		return false
	}
	fd := c.File.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (c Console) EnterRaw() (func() error, error) {
	if !c.IsTerminal() {
		return func() error { return nil }, nil
	}
	fd := int(c.File.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	return func() error { return term.Restore(fd, state) }, nil
}

// SetReadDeadline forwards to the underlying file. Files without deadline
// support, including blocking terminals, return an error.
func (c Console) SetReadDeadline(t time.Time) error {
	if c.File == nil {
		return os.ErrInvalid
	}
	return c.File.SetReadDeadline(t)
}

var _ Terminal = Console{}
