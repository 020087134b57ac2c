package preflight

import (
	"context"
	"fmt"
	"strings"

	"dropsort/internal/config"
	"dropsort/internal/services"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	// Optional results are informational and never block startup.
	Optional bool
	Detail   string
}

// RunAll executes all preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Watch root", cfg.Paths.WatchRoot),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	if ctx.Err() != nil {
		return results
	}
	results = append(results, CheckInotifyWatches())
	return results
}

// Err folds failed required checks into one configuration error, or nil.
func Err(results []Result) error {
	var failures []string
	for _, result := range results {
		if result.Passed || result.Optional {
			continue
		}
		failures = append(failures, fmt.Sprintf("%s: %s", result.Name, result.Detail))
	}
	if len(failures) == 0 {
		return nil
	}
	return services.Wrap(services.ErrConfiguration, "preflight", "check", strings.Join(failures, "; "), nil)
}
