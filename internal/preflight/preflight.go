package preflight

import (
	"context"

	"eventsift/internal/config"
	"eventsift/internal/linkcheck"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
	// Optional failures are reported but do not fail the run.
	Optional bool
}

// Options selects the checks RunAll performs.
type Options struct {
	// Classifier pings the classification service with the configured key.
	Classifier bool
	// Sources issues a link check against every configured source URL.
	Sources bool
}

// RunAll executes the selected checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckStore(ctx, cfg),
	}

	if opts.Classifier {
		results = append(results, CheckClassifier(ctx, cfg.GetLLM()))
	} else {
		results = append(results, CheckClassifierCredential(cfg))
	}

	if opts.Sources {
		checker := linkcheck.NewChecker(cfg.LinkTimeout(), cfg.Links.UserAgent)
		for _, src := range cfg.Sources {
			results = append(results, CheckSource(ctx, checker, src))
		}
	}
	return results
}

// Failed returns the number of required checks that did not pass.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.Passed && !r.Optional {
			n++
		}
	}
	return n
}
