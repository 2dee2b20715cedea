package interp

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/mesongo/internal/ast"
	"github.com/standardbeagle/mesongo/internal/coredata"
	"github.com/standardbeagle/mesongo/internal/diag"
	"github.com/standardbeagle/mesongo/internal/graph"
	"github.com/standardbeagle/mesongo/internal/options"
	"github.com/standardbeagle/mesongo/internal/toolchain"
)

func newTestInterpreter(t *testing.T) *Interpreter {
	t.Helper()
	warn := diag.NewSink(false)
	store := options.NewStore(false, warn)
	require.NoError(t, coredata.SeedBuiltins(store, "/usr/local"))
	g := graph.New()
	det := toolchain.NewDetector()
	return New(t.TempDir(), t.TempDir(), g, store, det, warn)
}

func run(t *testing.T, in *Interpreter, src string) error {
	t.Helper()
	block, err := ast.Parse("meson.build", src)
	require.NoError(t, err)
	return in.Run(block)
}

func TestProjectMustBeFirstStatement(t *testing.T) {
	in := newTestInterpreter(t)
	err := run(t, in, "message('hi')\n")
	require.Error(t, err)
}

func TestProjectRegistersActiveProject(t *testing.T) {
	in := newTestInterpreter(t)
	require.NoError(t, run(t, in, "project('demo', version: '1.2.3')\n"))
	require.NotNil(t, in.activeProject)
	require.Equal(t, "demo", in.activeProject.Name)
	require.Equal(t, "1.2.3", in.activeProject.Version)
}

func TestProjectCalledTwiceFails(t *testing.T) {
	in := newTestInterpreter(t)
	err := run(t, in, "project('demo')\nproject('demo')\n")
	require.Error(t, err)
}

func TestCustomTargetAndRunTargetStayOutOfBuildTargets(t *testing.T) {
	in := newTestInterpreter(t)
	src := "project('demo')\n" +
		"gen = custom_target('gen', output: ['out.txt'], command: ['true'])\n" +
		"run_target('format', command: ['true'])\n"
	require.NoError(t, run(t, in, src))

	targets := in.Graph.Targets()
	require.Len(t, targets, 0, "custom_target/run_target are not regular build targets")
}

func TestGlobalArgumentsRecordedThroughInterpreter(t *testing.T) {
	in := newTestInterpreter(t)
	src := "project('demo')\n" +
		"add_global_arguments('-DFOO', language: ['c'])\n" +
		"custom_target('gen', output: ['out.txt'], command: ['true'])\n"
	require.NoError(t, run(t, in, src))
	require.Equal(t, []string{"-DFOO"}, in.Graph.GlobalArguments("c"))
}

func TestGetOptionReflectsSeededBuiltins(t *testing.T) {
	in := newTestInterpreter(t)
	require.NoError(t, run(t, in, "project('demo')\nx = get_option('buildtype')\n"))
	v, ok := in.variables["x"]
	require.True(t, ok)
	s, ok := v.Str()
	require.True(t, ok)
	require.NotEmpty(t, s)
}

func TestForeachBindsLoopVariableAfterLoop(t *testing.T) {
	in := newTestInterpreter(t)
	src := "project('demo')\n" +
		"total = 0\n" +
		"foreach x : [1, 2, 3]\n" +
		"  total += x\n" +
		"endforeach\n"
	require.NoError(t, run(t, in, src))
	v := in.variables["total"]
	n, ok := v.Int()
	require.True(t, ok)
	require.Equal(t, int64(6), n)

	lastX := in.variables["x"]
	n2, _ := lastX.Int()
	require.Equal(t, int64(3), n2, "the loop variable remains bound to its final value after the loop")
}

func TestUndefinedVariableFails(t *testing.T) {
	in := newTestInterpreter(t)
	err := run(t, in, "project('demo')\nx = y\n")
	require.Error(t, err)
}

func TestCannotShadowBuiltinName(t *testing.T) {
	in := newTestInterpreter(t)
	err := run(t, in, "project('demo')\nmeson = 1\n")
	require.Error(t, err)
}

func TestErrorEscapesWithSourceLocation(t *testing.T) {
	in := newTestInterpreter(t)
	err := run(t, in, "project('demo')\nerror('boom')\n")
	require.Error(t, err)
	var derr *diag.Error
	require.ErrorAs(t, err, &derr)
	require.True(t, derr.Site.HasSite(), "an error escaping a statement must carry a source location")
}
