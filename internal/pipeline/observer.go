package pipeline

import (
	"log/slog"
	"time"

	"apkmitm/internal/logging"
)

// EventKind identifies a stage lifecycle event.
type EventKind int

const (
	EventStarted EventKind = iota
	EventOutput
	EventWarning
	EventSkipped
	EventCompleted
	EventFailed
)

func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "stage_start"
	case EventOutput:
		return "stage_output"
	case EventWarning:
		return "stage_warning"
	case EventSkipped:
		return "stage_skipped"
	case EventCompleted:
		return "stage_complete"
	case EventFailed:
		return "stage_failure"
	default:
		return "unknown"
	}
}

// Event is delivered to an Observer for every stage transition and progress
// line. Depth is 0 for top-level stages.
type Event struct {
	Kind    EventKind
	Stage   string
	Depth   int
	Group   bool
	Message string
	Err     error
	Elapsed time.Duration
}

// Observer receives pipeline events in the order they occur.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

// MultiObserver fans events out to every observer in order.
type MultiObserver []Observer

func (m MultiObserver) Observe(e Event) {
	for _, o := range m {
		if o != nil {
			o.Observe(e)
		}
	}
}

// LogObserver records pipeline events as structured log lines. Progress
// output is logged at debug level.
type LogObserver struct {
	Logger *slog.Logger
}

func (o LogObserver) Observe(e Event) {
	logger := o.Logger
	if logger == nil {
		return
	}
	attrs := []logging.Attr{
		logging.String(logging.FieldStage, e.Stage),
		logging.String(logging.FieldEventType, e.Kind.String()),
	}
	switch e.Kind {
	case EventStarted:
		logger.Info("stage started", logging.Args(attrs...)...)
	case EventOutput:
		logger.Debug(e.Message, logging.Args(attrs...)...)
	case EventWarning:
		if e.Err != nil {
			attrs = append(attrs, logging.Error(e.Err))
		}
		logging.WarnWithContext(logger, e.Message, e.Kind.String(), attrs...)
	case EventSkipped:
		attrs = append(attrs, logging.String("reason", e.Message))
		logger.Info("stage skipped", logging.Args(attrs...)...)
	case EventCompleted:
		attrs = append(attrs, logging.Duration("stage_duration", e.Elapsed))
		logger.Info("stage completed", logging.Args(attrs...)...)
	case EventFailed:
		attrs = append(attrs, logging.Duration("stage_duration", e.Elapsed), logging.Error(e.Err))
		logger.Error("stage failed", logging.Args(attrs...)...)
	}
}
