package ast

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSimpleFunctionCall(t *testing.T) {
	block, err := Parse("meson.build", "project('foo', 'c')\n")
	require.NoError(t, err)
	require.Len(t, block.Lines, 1)

	fc, ok := block.Lines[0].(*FunctionCall)
	require.True(t, ok)
	require.Equal(t, "project", fc.Name)
	require.Len(t, fc.Args.Positional, 2)

	s, ok := fc.Args.Positional[0].(*Str)
	require.True(t, ok)
	require.Equal(t, "foo", s.Value)
}

func TestParseAssignmentAndPlusAssign(t *testing.T) {
	block, err := Parse("m", "x = 1\nx += 2\n")
	require.NoError(t, err)
	require.Len(t, block.Lines, 2)

	a, ok := block.Lines[0].(*Assign)
	require.True(t, ok)
	require.Equal(t, "x", a.Name)

	pa, ok := block.Lines[1].(*PlusAssign)
	require.True(t, ok)
	require.Equal(t, "x", pa.Name)
}

func TestParseKeywordArgsAfterPositional(t *testing.T) {
	block, err := Parse("m", "executable('app', 'a.c', install: true)\n")
	require.NoError(t, err)
	fc := block.Lines[0].(*FunctionCall)
	require.Len(t, fc.Args.Positional, 2)
	require.Contains(t, fc.Args.Keyword, "install")
	require.False(t, fc.Args.PositionalBeforeKeyword)
}

func TestParseFlagsPositionalAfterKeyword(t *testing.T) {
	block, err := Parse("m", "executable('app', install: true, 'a.c')\n")
	require.NoError(t, err)
	fc := block.Lines[0].(*FunctionCall)
	require.True(t, fc.Args.PositionalBeforeKeyword, "a positional arg following a keyword arg must be flagged")
}

func TestParseIfElifElse(t *testing.T) {
	src := "if x == 1\n  a()\nelif x == 2\n  b()\nelse\n  c()\nendif\n"
	block, err := Parse("m", src)
	require.NoError(t, err)
	ifNode, ok := block.Lines[0].(*If)
	require.True(t, ok)
	require.Len(t, ifNode.Branches, 2)
	require.NotNil(t, ifNode.Else)
}

func TestParseForeach(t *testing.T) {
	src := "foreach x : ['a', 'b']\n  message(x)\nendforeach\n"
	block, err := Parse("m", src)
	require.NoError(t, err)
	fe, ok := block.Lines[0].(*Foreach)
	require.True(t, ok)
	require.Equal(t, []string{"x"}, fe.Vars)
}

func TestParseMethodCallAndIndexChaining(t *testing.T) {
	block, err := Parse("m", "a.get(0)[1]\n")
	require.NoError(t, err)
	idx, ok := block.Lines[0].(*Index)
	require.True(t, ok)
	_, ok = idx.Obj.(*MethodCall)
	require.True(t, ok)
}

func TestParseOperatorPrecedence(t *testing.T) {
	block, err := Parse("m", "x = 1 + 2 * 3\n")
	require.NoError(t, err)
	a := block.Lines[0].(*Assign)
	arith, ok := a.Value.(*Arith)
	require.True(t, ok)
	require.Equal(t, ArithAdd, arith.Op)
	rhs, ok := arith.R.(*Arith)
	require.True(t, ok)
	require.Equal(t, ArithMul, rhs.Op)
}

func TestParseReportsSyntaxErrorWithLocation(t *testing.T) {
	_, err := Parse("meson.build", "executable('app',\n")
	require.Error(t, err)
	require.Contains(t, err.Error(), "meson.build")
}

func TestParseNestedArrayLiteral(t *testing.T) {
	block, err := Parse("m", "x = [1, [2, 3]]\n")
	require.NoError(t, err)
	a := block.Lines[0].(*Assign)
	arr, ok := a.Value.(*Array)
	require.True(t, ok)
	require.Len(t, arr.Items, 2)
	_, ok = arr.Items[1].(*Array)
	require.True(t, ok)
}
