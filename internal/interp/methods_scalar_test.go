package interp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func evalVar(t *testing.T, in *Interpreter, decl string) string {
	t.Helper()
	src := "project('demo')\n" + decl + "\n"
	require.NoError(t, run(t, in, src))
	v, ok := in.variables["x"]
	require.True(t, ok)
	s, ok := v.Str()
	require.True(t, ok)
	return s
}

func TestStringStripDefaultsToWhitespace(t *testing.T) {
	in := newTestInterpreter(t)
	require.Equal(t, "hi", evalVar(t, in, "x = '  hi \t'.strip()"))
}

func TestStringFormatSubstitutesPositionalPlaceholders(t *testing.T) {
	in := newTestInterpreter(t)
	require.Equal(t, "hello world", evalVar(t, in, "x = '@0@ @1@'.format('hello', 'world')"))
}

func TestStringToUpperToLower(t *testing.T) {
	in := newTestInterpreter(t)
	require.Equal(t, "ABC", evalVar(t, in, "x = 'abc'.to_upper()"))
	require.Equal(t, "abc", evalVar(t, in, "x = 'ABC'.to_lower()"))
}

func TestStringContainsStartsEndsWith(t *testing.T) {
	in := newTestInterpreter(t)
	src := "project('demo')\n" +
		"a = 'hello world'.contains('wor')\n" +
		"b = 'hello world'.startswith('hell')\n" +
		"c = 'hello world'.endswith('rld')\n"
	require.NoError(t, run(t, in, src))
	for _, name := range []string{"a", "b", "c"} {
		v, ok := in.variables[name]
		require.True(t, ok)
		b, ok := v.Bool()
		require.True(t, ok)
		require.True(t, b, name)
	}
}

func TestStringToIntRejectsNonNumeric(t *testing.T) {
	in := newTestInterpreter(t)
	err := run(t, in, "project('demo')\nx = 'nope'.to_int()\n")
	require.Error(t, err)
}

func TestStringReplaceAndUnderscorify(t *testing.T) {
	in := newTestInterpreter(t)
	require.Equal(t, "a-b-c", evalVar(t, in, "x = 'a.b.c'.replace('.', '-')"))
	require.Equal(t, "a_b_c", evalVar(t, in, "x = 'a.b.c'.underscorify()"))
}

func TestStringUnknownMethodFails(t *testing.T) {
	in := newTestInterpreter(t)
	err := run(t, in, "project('demo')\nx = 'abc'.frobnicate()\n")
	require.Error(t, err)
}

func TestListContainsAndLength(t *testing.T) {
	in := newTestInterpreter(t)
	src := "project('demo')\n" +
		"xs = [1, 2, 3]\n" +
		"a = xs.contains(2)\n" +
		"n = xs.length()\n"
	require.NoError(t, run(t, in, src))
	a, _ := in.variables["a"].Bool()
	require.True(t, a)
	n, _ := in.variables["n"].Int()
	require.Equal(t, int64(3), n)
}

func TestListGetWithNegativeIndexAndFallback(t *testing.T) {
	in := newTestInterpreter(t)
	src := "project('demo')\n" +
		"xs = [10, 20, 30]\n" +
		"last = xs.get(-1)\n" +
		"fallback = xs.get(99, 'missing')\n"
	require.NoError(t, run(t, in, src))
	last, _ := in.variables["last"].Int()
	require.Equal(t, int64(30), last)
	fb, _ := in.variables["fallback"].Str()
	require.Equal(t, "missing", fb)
}

func TestListGetOutOfRangeWithoutFallbackFails(t *testing.T) {
	in := newTestInterpreter(t)
	err := run(t, in, "project('demo')\nxs = [1]\ny = xs.get(5)\n")
	require.Error(t, err)
}
