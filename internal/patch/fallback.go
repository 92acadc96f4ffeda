package patch

import (
	"context"

	"apkmitm/internal/pipeline"
)

// encodeFallback drives the encode group. It starts in the primary state,
// where AAPT2 is tried; a primary failure moves it to the fallback state, in
// which the legacy AAPT encode runs against the same tree and output path.
// The transition happens at most once per run and is never undone.
type encodeFallback struct {
	encoder    Encoder
	decodedDir string
	output     string
	fellBack   bool
}

func (f *encodeFallback) primary() pipeline.Stage {
	return pipeline.Leaf(StageEncodeAAPT2, func(ctx context.Context, _ *pipeline.Context, r pipeline.Reporter) error {
		err := pipeline.Drain(r, f.encoder.Encode(ctx, f.decodedDir, f.output, true))
		if err == nil {
			return nil
		}
		// An interrupted run must stop here rather than start the fallback.
		if ctx.Err() != nil {
			return err
		}
		f.fellBack = true
		r.Skip(FallbackNote)
		r.Warn("AAPT2 encoding failed", err)
		return nil
	})
}

func (f *encodeFallback) legacy() pipeline.Stage {
	return pipeline.Leaf(StageEncodeAAPT, func(ctx context.Context, _ *pipeline.Context, r pipeline.Reporter) error {
		return pipeline.Drain(r, f.encoder.Encode(ctx, f.decodedDir, f.output, false))
	}).SkipIf(func() bool { return !f.fellBack })
}
