package preflight

import (
	"context"

	"cinematch/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Pinger is anything that can prove it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Targets are the live connections RunAll checks. A nil target is reported
// as not configured.
type Targets struct {
	Catalog Pinger
	Store   Pinger
}

// RunAll executes every preflight check for the given config.
func RunAll(ctx context.Context, cfg *config.Config, targets Targets) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Reports directory", cfg.Paths.ReportsDir),
	}
	if cfg.Paths.StateDir != "" && cfg.Paths.StateDir != cfg.Paths.ReportsDir {
		results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	}

	if targets.Store == nil {
		results = append(results, Result{Name: "Database", Detail: "not configured (set DATABASE_URL)"})
	} else {
		results = append(results, CheckPing(ctx, "Database", cfg.Database.Driver, targets.Store))
	}

	if targets.Catalog == nil {
		results = append(results, Result{Name: "TMDB", Detail: "credentials missing (set TMDB_API_KEY or TMDB_ACCESS_TOKEN)"})
	} else {
		results = append(results, CheckPing(ctx, "TMDB", cfg.TMDB.BaseURL, targets.Catalog))
	}

	results = append(results, CheckLLM(ctx, "Name oracle LLM", cfg.LLM))
	return results
}

// Failed counts the checks that did not pass.
func Failed(results []Result) int {
	failed := 0
	for _, r := range results {
		if !r.Passed {
			failed++
		}
	}
	return failed
}
