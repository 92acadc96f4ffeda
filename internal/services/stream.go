package services

import (
	"context"
	"iter"
)

const streamBuffer = 64

// Stream runs binary through exec and yields its output lines as they are
// produced. When the command fails, the final element carries the error with
// an empty line. Stopping iteration early cancels the command and waits for it
// to exit.
func Stream(ctx context.Context, exec Executor, binary string, args []string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		lines := make(chan string, streamBuffer)
		errc := make(chan error, 1)
		go func() {
			defer close(lines)
			errc <- exec.Run(runCtx, binary, args, func(line string) {
				select {
				case lines <- line:
				case <-runCtx.Done():
				}
			})
		}()

		for line := range lines {
			if !yield(line, nil) {
				cancel()
				for range lines {
				}
				<-errc
				return
			}
		}
		if err := <-errc; err != nil {
			yield("", err)
		}
	}
}
