package ast

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func collectKinds(t *testing.T, src string) []tokenKind {
	t.Helper()
	l := newLexer("m", src)
	var kinds []tokenKind
	for {
		tok, err := l.next()
		require.NoError(t, err)
		kinds = append(kinds, tok.kind)
		if tok.kind == tokEOF {
			return kinds
		}
	}
}

func TestLexerSkipsCommentsToEndOfLine(t *testing.T) {
	kinds := collectKinds(t, "x = 1 # trailing comment\ny = 2\n")
	require.Contains(t, kinds, tokEOL)
	require.NotContains(t, kinds, tokString)
}

func TestLexerSuppressesEOLInsideParens(t *testing.T) {
	l := newLexer("m", "f(1,\n2)\n")
	var kinds []tokenKind
	for {
		tok, err := l.next()
		require.NoError(t, err)
		kinds = append(kinds, tok.kind)
		if tok.kind == tokEOF {
			break
		}
	}
	// Only one EOL: the one after the closing paren, not the newline inside it.
	count := 0
	for _, k := range kinds {
		if k == tokEOL {
			count++
		}
	}
	require.Equal(t, 1, count)
}

func TestLexerHexNumber(t *testing.T) {
	l := newLexer("m", "0x1F\n")
	tok, err := l.next()
	require.NoError(t, err)
	require.Equal(t, tokNumber, tok.kind)
	require.Equal(t, int64(31), tok.num)
}

func TestLexerStringEscapesAndFormatSites(t *testing.T) {
	l := newLexer("m", "'a\\nb'\n")
	tok, err := l.next()
	require.NoError(t, err)
	require.Equal(t, "a\nb", tok.text)

	l2 := newLexer("m", "'hello @name@'\n")
	tok2, err := l2.next()
	require.NoError(t, err)
	require.True(t, tok2.hasFormatSites)
}

func TestLexerUnterminatedStringErrors(t *testing.T) {
	l := newLexer("m", "'abc\n")
	_, err := l.next()
	require.Error(t, err)
}

func TestLexerKeywordVsIdentifier(t *testing.T) {
	l := newLexer("m", "if foo\n")
	tok1, err := l.next()
	require.NoError(t, err)
	require.Equal(t, tokIf, tok1.kind)

	tok2, err := l.next()
	require.NoError(t, err)
	require.Equal(t, tokID, tok2.kind)
	require.Equal(t, "foo", tok2.text)
}
