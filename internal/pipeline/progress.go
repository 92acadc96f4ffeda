package pipeline

import (
	"context"
	"iter"
	"sync"
)

const progressBuffer = 64

// Emit publishes one progress line from a running operation.
type Emit func(line string)

// Operation is work that reports progress through emit before settling.
type Operation func(ctx context.Context, emit Emit) error

// Observe runs op and forwards every line it emits, in order, to reporter.
// Lines travel through a bounded channel to a separate consumer so a slow
// renderer applies back-pressure instead of dropping lines. Observe returns
// op's result only after the last emitted line has been delivered; lines
// emitted after op has returned are discarded.
func Observe(ctx context.Context, reporter Reporter, op Operation) error {
	lines := make(chan string, progressBuffer)
	delivered := make(chan struct{})

	go func() {
		defer close(delivered)
		for line := range lines {
			reporter.Output(line)
		}
	}()

	var (
		mu     sync.Mutex
		closed bool
	)
	emit := func(line string) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		lines <- line
	}

	err := op(ctx, emit)

	mu.Lock()
	closed = true
	close(lines)
	mu.Unlock()
	<-delivered

	return err
}

// Drain relays every line produced by seq to reporter and returns the first
// error the sequence yields. The sequence is consumed to completion unless it
// fails.
func Drain(reporter Reporter, seq iter.Seq2[string, error]) error {
	for line, err := range seq {
		if err != nil {
			return err
		}
		reporter.Output(line)
	}
	return nil
}
