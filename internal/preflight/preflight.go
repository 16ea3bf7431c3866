package preflight

import (
	"context"
	"path/filepath"

	"echodl/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the readiness checks for a download into outputDir.
func RunAll(ctx context.Context, cfg *config.Config, outputDir string) []Result {
	if cfg == nil {
		return nil
	}
	if outputDir == "" {
		outputDir = cfg.Paths.OutputDir
	}
	return []Result{
		CheckDirectoryAccess("Output directory", outputDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Bin directory parent", filepath.Dir(cfg.Paths.BinDir)),
		CheckPortal(ctx, cfg.Portal.BaseURL),
	}
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
