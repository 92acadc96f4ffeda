package pipeline_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"

	"apkmitm/internal/pipeline"
	"apkmitm/internal/services"
)

type recordingObserver struct {
	mu     sync.Mutex
	events []pipeline.Event
}

func (r *recordingObserver) Observe(e pipeline.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingObserver) kinds(stage string) []pipeline.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kinds []pipeline.EventKind
	for _, e := range r.events {
		if e.Stage == stage {
			kinds = append(kinds, e.Kind)
		}
	}
	return kinds
}

func (r *recordingObserver) outputs(stage string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var lines []string
	for _, e := range r.events {
		if e.Stage == stage && e.Kind == pipeline.EventOutput {
			lines = append(lines, e.Message)
		}
	}
	return lines
}

func appendTitle(order *[]string, title string) pipeline.Stage {
	return pipeline.Leaf(title, func(context.Context, *pipeline.Context, pipeline.Reporter) error {
		*order = append(*order, title)
		return nil
	})
}

func TestRunExecutesStagesInOrder(t *testing.T) {
	var order []string
	runner := pipeline.New([]pipeline.Stage{
		appendTitle(&order, "one"),
		appendTitle(&order, "two"),
		pipeline.Group("group", appendTitle(&order, "three"), appendTitle(&order, "four")),
		appendTitle(&order, "five"),
	})

	outcome := runner.Run(context.Background(), nil)
	if !outcome.Success() {
		t.Fatalf("expected success, got %v", outcome.Err)
	}
	want := []string{"one", "two", "three", "four", "five"}
	if !slices.Equal(order, want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	if len(outcome.Records) != 6 {
		t.Fatalf("expected 6 records, got %d", len(outcome.Records))
	}
	if outcome.Records[2].Title != "group" || !outcome.Records[2].Group || outcome.Records[3].Depth != 1 {
		t.Fatalf("unexpected group records: %+v", outcome.Records[2:4])
	}
}

func TestRunOmitsDisabledStages(t *testing.T) {
	var order []string
	obs := &recordingObserver{}
	runner := pipeline.New([]pipeline.Stage{
		appendTitle(&order, "first"),
		appendTitle(&order, "hidden").When(func() bool { return false }),
		appendTitle(&order, "last"),
	}, pipeline.WithObserver(obs))

	outcome := runner.Run(context.Background(), &pipeline.Context{})
	if !outcome.Success() {
		t.Fatalf("unexpected failure: %v", outcome.Err)
	}
	if !slices.Equal(order, []string{"first", "last"}) {
		t.Fatalf("unexpected order %v", order)
	}
	if kinds := obs.kinds("hidden"); len(kinds) != 0 {
		t.Fatalf("disabled stage produced events: %v", kinds)
	}
	for _, rec := range outcome.Records {
		if rec.Title == "hidden" {
			t.Fatal("disabled stage must not appear in records")
		}
	}
}

func TestRunEvaluatesPredicatesWhenReached(t *testing.T) {
	flag := false
	var order []string
	runner := pipeline.New([]pipeline.Stage{
		pipeline.Leaf("set", func(context.Context, *pipeline.Context, pipeline.Reporter) error {
			flag = true
			return nil
		}),
		appendTitle(&order, "guarded").SkipIf(func() bool { return !flag }),
		appendTitle(&order, "enabled").When(func() bool { return flag }),
	})

	if outcome := runner.Run(context.Background(), nil); !outcome.Success() {
		t.Fatalf("unexpected failure: %v", outcome.Err)
	}
	if !slices.Equal(order, []string{"guarded", "enabled"}) {
		t.Fatalf("predicates evaluated too early: %v", order)
	}
}

func TestRunRecordsPredicateSkip(t *testing.T) {
	var order []string
	obs := &recordingObserver{}
	runner := pipeline.New([]pipeline.Stage{
		appendTitle(&order, "skipped").SkipIf(func() bool { return true }),
	}, pipeline.WithObserver(obs))

	outcome := runner.Run(context.Background(), nil)
	if !outcome.Success() {
		t.Fatalf("unexpected failure: %v", outcome.Err)
	}
	if len(order) != 0 {
		t.Fatal("skipped stage must not run")
	}
	if got := obs.kinds("skipped"); !slices.Equal(got, []pipeline.EventKind{pipeline.EventSkipped}) {
		t.Fatalf("unexpected events %v", got)
	}
	if outcome.Records[0].Status != pipeline.StatusSkipped {
		t.Fatalf("expected skipped record, got %+v", outcome.Records[0])
	}
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	boom := errors.New("boom")
	var order []string
	runner := pipeline.New([]pipeline.Stage{
		appendTitle(&order, "ok"),
		pipeline.Group("group",
			pipeline.Leaf("bad", func(context.Context, *pipeline.Context, pipeline.Reporter) error { return boom }),
			appendTitle(&order, "after in group"),
		),
		appendTitle(&order, "after"),
	})

	outcome := runner.Run(context.Background(), nil)
	if outcome.Success() {
		t.Fatal("expected failure")
	}
	if outcome.FailedStage != "bad" {
		t.Fatalf("expected failing leaf title, got %q", outcome.FailedStage)
	}
	if !errors.Is(outcome.Err, boom) || outcome.Cause() != boom {
		t.Fatalf("cause not preserved: %v", outcome.Err)
	}
	if !slices.Equal(order, []string{"ok"}) {
		t.Fatalf("stages ran after failure: %v", order)
	}
	var statuses []pipeline.Status
	for _, rec := range outcome.Records {
		statuses = append(statuses, rec.Status)
	}
	want := []pipeline.Status{pipeline.StatusCompleted, pipeline.StatusFailed, pipeline.StatusFailed}
	if !slices.Equal(statuses, want) {
		t.Fatalf("statuses = %v, want %v", statuses, want)
	}
}

func TestRunLocalSkipRecovers(t *testing.T) {
	obs := &recordingObserver{}
	var order []string
	runner := pipeline.New([]pipeline.Stage{
		pipeline.Leaf("try", func(_ context.Context, _ *pipeline.Context, r pipeline.Reporter) error {
			r.Skip("Failed, trying something else")
			return nil
		}),
		appendTitle(&order, "next"),
	}, pipeline.WithObserver(obs))

	outcome := runner.Run(context.Background(), nil)
	if !outcome.Success() {
		t.Fatalf("local skip must not fail the run: %v", outcome.Err)
	}
	if !slices.Equal(order, []string{"next"}) {
		t.Fatalf("run did not continue: %v", order)
	}
	if outcome.Records[0].Status != pipeline.StatusSkipped || outcome.Records[0].Note != "Failed, trying something else" {
		t.Fatalf("unexpected record %+v", outcome.Records[0])
	}
	if got := obs.kinds("try"); !slices.Equal(got, []pipeline.EventKind{pipeline.EventStarted, pipeline.EventSkipped}) {
		t.Fatalf("unexpected events %v", got)
	}
}

func TestRunWarningsReachContext(t *testing.T) {
	pc := &pipeline.Context{}
	runner := pipeline.New([]pipeline.Stage{
		pipeline.Leaf("warns", func(_ context.Context, _ *pipeline.Context, r pipeline.Reporter) error {
			r.Warn("recovered", errors.New("cause"))
			return nil
		}),
	})
	if outcome := runner.Run(context.Background(), pc); !outcome.Success() {
		t.Fatalf("unexpected failure: %v", outcome.Err)
	}
	if len(pc.Warnings) != 1 || pc.Warnings[0] != "warns: recovered: cause" {
		t.Fatalf("unexpected warnings %v", pc.Warnings)
	}
}

func TestRunSharesContextAcrossStages(t *testing.T) {
	pc := &pipeline.Context{}
	var seen bool
	runner := pipeline.New([]pipeline.Stage{
		pipeline.Leaf("write", func(_ context.Context, pc *pipeline.Context, _ pipeline.Reporter) error {
			pc.UsesAppBundle = true
			return nil
		}),
		pipeline.Leaf("read", func(_ context.Context, pc *pipeline.Context, _ pipeline.Reporter) error {
			seen = pc.UsesAppBundle
			return nil
		}),
	})
	runner.Run(context.Background(), pc)
	if !seen || !pc.UsesAppBundle {
		t.Fatal("context mutation not visible to later stage or caller")
	}
}

func TestRunStopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var order []string
	runner := pipeline.New([]pipeline.Stage{
		pipeline.Leaf("cancel", func(context.Context, *pipeline.Context, pipeline.Reporter) error {
			cancel()
			return nil
		}),
		appendTitle(&order, "never"),
	})

	outcome := runner.Run(ctx, nil)
	if outcome.Success() {
		t.Fatal("expected cancellation to fail the run")
	}
	if outcome.FailedStage != "never" || !errors.Is(outcome.Err, context.Canceled) {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if services.Kind(outcome.Err) != "interrupted" {
		t.Fatalf("expected interrupted kind, got %q", services.Kind(outcome.Err))
	}
	if len(order) != 0 {
		t.Fatal("stage ran after cancellation")
	}
	if len(outcome.Records) != 2 {
		t.Fatalf("expected a record for the interrupted stage, got %+v", outcome.Records)
	}
	last := outcome.Records[1]
	if last.Title != outcome.FailedStage || last.Status != pipeline.StatusFailed || last.Duration != 0 {
		t.Fatalf("unexpected record for interrupted stage: %+v", last)
	}
	if !strings.HasPrefix(last.Note, "not started") {
		t.Fatalf("expected not-started note, got %q", last.Note)
	}
}

func TestRunPassesStageTitleInContext(t *testing.T) {
	var got string
	runner := pipeline.New([]pipeline.Stage{
		pipeline.Group("outer", pipeline.Leaf("inner", func(ctx context.Context, _ *pipeline.Context, _ pipeline.Reporter) error {
			got, _ = services.StageFromContext(ctx)
			return nil
		})),
	})
	runner.Run(context.Background(), nil)
	if got != "inner" {
		t.Fatalf("stage in context = %q", got)
	}
}

func TestRunFailsLeafWithoutRunFunc(t *testing.T) {
	outcome := pipeline.New([]pipeline.Stage{{Title: "empty"}}).Run(context.Background(), nil)
	if outcome.FailedStage != "empty" || !strings.Contains(outcome.Err.Error(), "no run function") {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
}
