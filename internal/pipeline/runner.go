package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"apkmitm/internal/logging"
	"apkmitm/internal/services"
)

// Status is the terminal state of one stage in a run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// StageRecord summarizes one stage that was reached during a run. Disabled
// stages and stages after a failure have no record.
type StageRecord struct {
	Title    string
	Depth    int
	Group    bool
	Status   Status
	Note     string
	Duration time.Duration
}

// StageError identifies the stage that aborted a run.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Outcome is the terminal value of a run. Err is nil on success; otherwise it
// is a *StageError naming FailedStage and wrapping the unmodified cause.
type Outcome struct {
	FailedStage string
	Err         error
	Records     []StageRecord
}

// Success reports whether every reached stage completed or was skipped.
func (o Outcome) Success() bool {
	return o.Err == nil
}

// Cause returns the underlying stage error without the stage annotation.
func (o Outcome) Cause() error {
	var stageErr *StageError
	if errors.As(o.Err, &stageErr) {
		return stageErr.Err
	}
	return o.Err
}

// Option configures a Runner.
type Option func(*Runner)

// WithObserver routes stage events to o.
func WithObserver(o Observer) Option {
	return func(r *Runner) {
		if o != nil {
			r.observer = o
		}
	}
}

// WithLogger sets the logger handed to stages through their context fields.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Runner executes stages strictly sequentially.
type Runner struct {
	stages   []Stage
	observer Observer
	logger   *slog.Logger
	now      func() time.Time
	records  []StageRecord
}

// New constructs a Runner for the given stages.
func New(stages []Stage, opts ...Option) *Runner {
	r := &Runner{
		stages:   stages,
		observer: MultiObserver(nil),
		logger:   logging.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes every enabled stage in declaration order against pc and stops
// at the first unrecovered failure. A nil pc is replaced with a fresh Context.
func (r *Runner) Run(ctx context.Context, pc *Context) Outcome {
	if pc == nil {
		pc = &Context{}
	}
	r.records = nil

	failed, err := r.runStages(ctx, pc, r.stages, 0)
	outcome := Outcome{Records: append([]StageRecord(nil), r.records...)}
	if err != nil {
		outcome.FailedStage = failed
		outcome.Err = &StageError{Stage: failed, Err: err}
	}
	return outcome
}

func (r *Runner) runStages(ctx context.Context, pc *Context, stages []Stage, depth int) (string, error) {
	for _, st := range stages {
		if !st.isEnabled() {
			continue
		}
		if err := ctx.Err(); err != nil {
			// The interrupted stage is recorded so the outcome never names a
			// stage missing from the summary.
			group := st.Kind() == KindGroup
			r.records = append(r.records, StageRecord{Title: st.Title, Depth: depth, Group: group, Status: StatusFailed, Note: "not started: " + err.Error()})
			r.emit(Event{Kind: EventFailed, Stage: st.Title, Depth: depth, Group: group, Err: err})
			return st.Title, err
		}
		if st.shouldSkip() {
			r.records = append(r.records, StageRecord{Title: st.Title, Depth: depth, Group: st.Kind() == KindGroup, Status: StatusSkipped})
			r.emit(Event{Kind: EventSkipped, Stage: st.Title, Depth: depth, Group: st.Kind() == KindGroup})
			continue
		}
		if failed, err := r.runStage(ctx, pc, st, depth); err != nil {
			return failed, err
		}
	}
	return "", nil
}

func (r *Runner) runStage(ctx context.Context, pc *Context, st Stage, depth int) (string, error) {
	group := st.Kind() == KindGroup
	idx := len(r.records)
	r.records = append(r.records, StageRecord{Title: st.Title, Depth: depth, Group: group})

	stageCtx := services.WithStage(ctx, st.Title)
	start := r.now()
	r.emit(Event{Kind: EventStarted, Stage: st.Title, Depth: depth, Group: group})

	var (
		failed string
		err    error
		rep    *stageReporter
	)
	switch st.Kind() {
	case KindGroup:
		failed, err = r.runStages(stageCtx, pc, st.Children, depth+1)
	default:
		rep = &stageReporter{runner: r, pc: pc, title: st.Title, depth: depth}
		failed = st.Title
		if st.Run == nil {
			err = fmt.Errorf("stage %q has no run function", st.Title)
		} else {
			err = st.Run(stageCtx, pc, rep)
		}
	}

	elapsed := r.now().Sub(start)
	record := &r.records[idx]
	record.Duration = elapsed

	if err != nil {
		record.Status = StatusFailed
		record.Note = err.Error()
		r.emit(Event{Kind: EventFailed, Stage: st.Title, Depth: depth, Group: group, Err: err, Elapsed: elapsed})
		logging.WithContext(stageCtx, r.logger).Debug("stage aborted run",
			logging.String("failed_stage", failed),
			logging.String("error_kind", services.Kind(err)),
		)
		return failed, err
	}

	if rep != nil {
		if skipped, reason := rep.skipState(); skipped {
			record.Status = StatusSkipped
			record.Note = reason
			r.emit(Event{Kind: EventSkipped, Stage: st.Title, Depth: depth, Message: reason, Elapsed: elapsed})
			return "", nil
		}
	}
	record.Status = StatusCompleted
	r.emit(Event{Kind: EventCompleted, Stage: st.Title, Depth: depth, Group: group, Elapsed: elapsed})
	return "", nil
}

func (r *Runner) emit(e Event) {
	if r.observer != nil {
		r.observer.Observe(e)
	}
}
