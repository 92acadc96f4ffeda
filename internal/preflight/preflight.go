package preflight

import (
	"context"

	"apkmitm/internal/config"
	"apkmitm/internal/deps"
	"apkmitm/internal/services"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the environment checks shown by the doctor command.
func RunAll(ctx context.Context, cfg *config.Config, exec services.Executor) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir)}
	if cfg.Logging.ToFile {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	if cfg.Patch.Certificate != "" {
		results = append(results, CheckFileReadable("Certificate", cfg.Patch.Certificate))
	}
	results = append(results, FromStatuses(deps.Check(deps.ForTools(cfg.Tools)))...)
	results = append(results, CheckJava(ctx, exec, cfg.Tools.Java))
	return results
}

// ForRun checks what a single patch run touches: the input package, the
// directory receiving the output, the work directory, and the tools.
func ForRun(cfg *config.Config, inputPath, outputDir string) []Result {
	results := []Result{
		CheckFileReadable("Input package", inputPath),
		CheckDirectoryAccess("Output directory", outputDir),
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
	}
	if cfg.Patch.Certificate != "" {
		results = append(results, CheckFileReadable("Certificate", cfg.Patch.Certificate))
	}
	return append(results, FromStatuses(deps.Check(deps.ForTools(cfg.Tools)))...)
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

// FromStatuses converts dependency statuses into check results. Optional
// dependencies always pass.
func FromStatuses(statuses []deps.Status) []Result {
	results := make([]Result, 0, len(statuses))
	for _, status := range statuses {
		detail := status.Command
		if !status.Available {
			detail = status.Detail
		}
		results = append(results, Result{
			Name:   status.Name,
			Passed: status.Available || status.Optional,
			Detail: detail,
		})
	}
	return results
}
