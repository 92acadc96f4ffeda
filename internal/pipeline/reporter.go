package pipeline

import (
	"strings"
	"sync"
)

// Reporter is the per-stage handle a running stage uses to publish status.
// Implementations are safe for use from the goroutine that forwards progress
// lines on the stage's behalf.
type Reporter interface {
	// Output publishes the latest human-readable status line.
	Output(line string)
	// Skip marks the running stage as skipped. A stage that calls Skip and
	// returns nil has recovered locally; the run continues.
	Skip(reason string)
	// Warn surfaces a problem the stage recovered from.
	Warn(message string, err error)
}

type stageReporter struct {
	runner *Runner
	pc     *Context
	title  string
	depth  int

	mu         sync.Mutex
	skipped    bool
	skipReason string
}

func (r *stageReporter) Output(line string) {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return
	}
	r.runner.emit(Event{Kind: EventOutput, Stage: r.title, Depth: r.depth, Message: line})
}

func (r *stageReporter) Skip(reason string) {
	r.mu.Lock()
	r.skipped = true
	r.skipReason = strings.TrimSpace(reason)
	r.mu.Unlock()
}

func (r *stageReporter) Warn(message string, err error) {
	msg := strings.TrimSpace(message)
	if err != nil {
		msg += ": " + err.Error()
	}
	if r.pc != nil {
		r.pc.AddWarning(r.title + ": " + msg)
	}
	r.runner.emit(Event{Kind: EventWarning, Stage: r.title, Depth: r.depth, Message: message, Err: err})
}

func (r *stageReporter) skipState() (bool, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.skipped, r.skipReason
}
