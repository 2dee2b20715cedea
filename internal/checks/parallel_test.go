package checks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunParallelPreservesOrderAndRunsAll(t *testing.T) {
	checks := make([]func(ctx context.Context) Result, 5)
	for i := range checks {
		i := i
		checks[i] = func(ctx context.Context) Result {
			return Result{Value: int64(i)}
		}
	}

	results := RunParallel(context.Background(), 2, checks)
	require.Len(t, results, 5)
	for i, r := range results {
		require.Equal(t, int64(i), r.Value, "result[i] must correspond to checks[i] regardless of completion order")
	}
}

func TestRunParallelEmpty(t *testing.T) {
	results := RunParallel(context.Background(), 0, nil)
	require.Empty(t, results)
}
