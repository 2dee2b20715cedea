package checks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/mesongo/internal/diag"
)

func newTestProbe(t *testing.T) *Probe {
	t.Helper()
	return NewProbe(t.TempDir(), nil, "c", nil, NewCache(), diag.NewSink(false))
}

func TestCompilesFailsWithoutACompiler(t *testing.T) {
	p := newTestProbe(t)
	require.False(t, p.Compiles(context.Background(), "int main(void) { return 0; }\n", "trivial"))
}

func TestCompilesMemoizesIdenticalProbe(t *testing.T) {
	p := newTestProbe(t)
	code := "int main(void) { return 0; }\n"

	p.Compiles(context.Background(), code, "first")
	p.Compiles(context.Background(), code, "first")
	require.Equal(t, 1, p.seq, "a cache hit must never create a second scratch sub-directory")
}

func TestHasHeaderFailsWithoutACompiler(t *testing.T) {
	p := newTestProbe(t)
	require.False(t, p.HasHeader(context.Background(), "stdio.h"))
}

func TestSizeofReturnsMinusOneWhenProbeFails(t *testing.T) {
	p := newTestProbe(t)
	require.Equal(t, int64(-1), p.Sizeof(context.Background(), "int", ""))
}

func TestAlignmentReturnsMinusOneWhenProbeFails(t *testing.T) {
	p := newTestProbe(t)
	require.Equal(t, int64(-1), p.Alignment(context.Background(), "int"))
}

func TestSafeLabelSanitizesAndHandlesEmpty(t *testing.T) {
	require.Equal(t, "anon", safeLabel(""))
	require.Equal(t, "a_b_c", safeLabel("a/b c"))
}
