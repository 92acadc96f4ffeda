package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"apkmitm/internal/services"
)

const (
	// Prompt is shown while the checkpoint waits.
	Prompt = "Press any key to continue."
	// CookedPrompt is shown when raw mode is unavailable and a full line is
	// needed before input arrives.
	CookedPrompt = "Press Enter to continue."

	ctrlC = 0x03

	releaseTimeout = time.Second
)

// deadliner is implemented by inputs whose pending read can be interrupted.
type deadliner interface {
	SetReadDeadline(t time.Time) error
}

// Wait blocks until one input event arrives on t or ctx is cancelled. End of
// input counts as the event. Ctrl+C, which raw mode delivers as a byte rather
// than a signal, interrupts the run.
//
// On cancellation the pending read is interrupted through SetReadDeadline when
// t supports it, so no later keystroke is consumed. Inputs without deadline
// support, such as a terminal in blocking mode, leave the read pending until
// the next byte arrives; callers cancel only when the process is exiting.
func Wait(ctx context.Context, t Terminal, emit func(string)) error {
	if t == nil {
		return errors.New("checkpoint requires a terminal")
	}
	if emit == nil {
		emit = func(string) {}
	}

	prompt := Prompt
	restore, err := t.EnterRaw()
	if err != nil {
		prompt = CookedPrompt
		restore = nil
	}
	if restore != nil {
		defer func() { _ = restore() }()
	}

	emit(prompt)

	input := make(chan readResult, 1)
	go readOne(t, input)

	select {
	case res := <-input:
		if res.err != nil && !errors.Is(res.err, io.EOF) {
			return fmt.Errorf("read input: %w", res.err)
		}
		if res.b == ctrlC {
			return services.Wrap(services.ErrInterrupted, "", "checkpoint", "cancelled from keyboard", nil)
		}
		return nil
	case <-ctx.Done():
		releaseReader(t, input)
		return ctx.Err()
	}
}

// releaseReader interrupts the read started by Wait and waits briefly for it
// to finish.
func releaseReader(t Terminal, input <-chan readResult) {
	d, ok := t.(deadliner)
	if !ok || d.SetReadDeadline(time.Now()) != nil {
		return
	}
	defer func() { _ = d.SetReadDeadline(time.Time{}) }()
	select {
	case <-input:
	case <-time.After(releaseTimeout):
	}
}

type readResult struct {
	b   byte
	err error
}

// readOne delivers the first byte read from r, or the error that ended the
// read.
func readOne(r io.Reader, out chan<- readResult) {
	buf := make([]byte, 16)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			out <- readResult{b: buf[0]}
			return
		}
		if err != nil {
			out <- readResult{err: err}
			return
		}
	}
}
