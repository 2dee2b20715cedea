package checks

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RunParallel executes n independent checks concurrently — an optimization
// spec §5 explicitly permits — while preserving the constraints it
// imposes: each check gets its own scratch sub-directory (already
// guaranteed by Probe.scratchSubdir's per-call sequence number), and the
// log is serialized in call order regardless of completion order (each
// result is recorded into results[i], not printed from inside the
// goroutine, and the caller logs results in slice order after Wait
// returns).
func RunParallel(ctx context.Context, limit int, checks []func(ctx context.Context) Result) []Result {
	results := make([]Result, len(checks))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, check := range checks {
		i, check := i, check
		g.Go(func() error {
			results[i] = check(gctx)
			return nil
		})
	}
	_ = g.Wait()
	return results
}
