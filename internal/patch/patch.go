package patch

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"apkmitm/internal/logging"
	"apkmitm/internal/pipeline"
	"apkmitm/internal/services"
)

// Run executes the patch pipeline and returns its outcome together with the
// context the stages populated.
func Run(ctx context.Context, opts Options) (pipeline.Outcome, *pipeline.Context) {
	pc := &pipeline.Context{}
	if err := opts.validate(); err != nil {
		return pipeline.Outcome{Err: err}, pc
	}
	opts = opts.withDefaults()

	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := opts.Logger.With(
		logging.String(logging.FieldRunID, runID),
		logging.String(logging.FieldComponent, "patch"),
	)

	if err := os.MkdirAll(opts.TmpDir, 0o755); err != nil {
		return pipeline.Outcome{Err: services.Wrap(services.ErrConfiguration, "", "prepare", "create temporary directory", err)}, pc
	}

	unlock, err := lockOutput(opts.OutputPath)
	if err != nil {
		return pipeline.Outcome{Err: err}, pc
	}
	defer unlock()

	logger.Info("patch started",
		logging.String("input", opts.InputPath),
		logging.String("output", opts.OutputPath),
		logging.String("tmp_dir", opts.TmpDir),
		logging.Bool("wait", opts.Wait),
	)

	observers := pipeline.MultiObserver{pipeline.LogObserver{Logger: logger}}
	if opts.Observer != nil {
		observers = append(observers, opts.Observer)
	}
	runner := pipeline.New(buildStages(opts),
		pipeline.WithObserver(observers),
		pipeline.WithLogger(logger),
	)

	start := time.Now()
	outcome := runner.Run(ctx, pc)
	elapsed := time.Since(start)

	if outcome.Success() {
		logger.Info("patch completed",
			logging.String("output", opts.OutputPath),
			logging.Duration("duration", elapsed),
			logging.Bool("uses_app_bundle", pc.UsesAppBundle),
			logging.Int("patched_classes", len(pc.PatchedClasses)),
			logging.Int("warnings", len(pc.Warnings)),
		)
	} else {
		logger.Error("patch failed",
			logging.String("failed_stage", outcome.FailedStage),
			logging.String("error_kind", services.Kind(outcome.Err)),
			logging.Duration("duration", elapsed),
			logging.Error(outcome.Cause()),
		)
	}
	return outcome, pc
}

// lockOutput takes an exclusive lock beside the output path so concurrent
// runs cannot finalize the same artifact.
func lockOutput(outputPath string) (func(), error) {
	lockPath := outputPath + ".lock"
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "lock output", lockPath, err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrValidation, "", "lock output", fmt.Sprintf("another run is writing %s", outputPath), nil)
	}
	return func() {
		_ = lock.Unlock()
		_ = os.Remove(lockPath)
	}, nil
}
