package services

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
)

const outputTailLines = 20

// Executor abstracts command execution for testability. Implementations call
// onLine once per output line, in the order lines are read, and never after
// Run returns.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onLine func(string)) error
}

// CommandError reports a failed external command along with the last lines it
// printed. StderrTail holds only the diagnostic stream and is preferred when
// describing the failure; Tail holds both streams.
type CommandError struct {
	Binary     string
	Args       []string
	Err        error
	Tail       []string
	StderrTail []string
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Binary, e.Err)
	last := lastMeaningful(e.StderrTail)
	if last == "" {
		last = lastMeaningful(e.Tail)
	}
	if last != "" {
		msg += ": " + last
	}
	return msg
}

func (e *CommandError) Unwrap() error { return e.Err }

// Output returns the captured tail of the command output.
func (e *CommandError) Output() string {
	return strings.Join(e.Tail, "\n")
}

// CommandExecutor runs binaries via os/exec, merging stdout and stderr into a
// single ordered line stream.
type CommandExecutor struct {
	Dir string
	Env []string
}

// Run starts binary and forwards every output line to onLine.
func (c CommandExecutor) Run(ctx context.Context, binary string, args []string, onLine func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(cmd.Environ(), c.Env...)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", binary, err)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		scanErr error
		once    sync.Once
		tail    = make([]string, 0, outputTailLines)
		errTail = make([]string, 0, outputTailLines)
	)

	forward := func(line string, fromStderr bool) {
		mu.Lock()
		defer mu.Unlock()
		tail = appendTail(tail, line)
		if fromStderr {
			errTail = appendTail(errTail, line)
		}
		if onLine != nil {
			onLine(line)
		}
	}

	scan := func(r io.Reader, fromStderr bool) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			forward(scanner.Text(), fromStderr)
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() {
				scanErr = err
			})
		}
	}

	wg.Add(2)
	go scan(stdout, false)
	go scan(stderr, true)
	wg.Wait()

	if scanErr != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return fmt.Errorf("scan output: %w", scanErr)
	}

	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &CommandError{
			Binary:     binary,
			Args:       append([]string(nil), args...),
			Err:        err,
			Tail:       tail,
			StderrTail: errTail,
		}
	}
	return nil
}

func appendTail(tail []string, line string) []string {
	if len(tail) == outputTailLines {
		tail = append(tail[:0], tail[1:]...)
	}
	return append(tail, line)
}

func lastMeaningful(lines []string) string {
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

// IsCommandError reports whether err carries a CommandError.
func IsCommandError(err error) bool {
	var cmdErr *CommandError
	return errors.As(err, &cmdErr)
}

var _ Executor = CommandExecutor{}
