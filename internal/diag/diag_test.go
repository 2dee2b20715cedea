package diag

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorFormattingWithAndWithoutSite(t *testing.T) {
	e := InvalidCode(Site{}, "bad thing: %d", 42)
	require.Equal(t, "invalid_code: bad thing: 42", e.Error())

	e2 := Parse(Site{File: "meson.build", Line: 3, Col: 1}, "unexpected token")
	require.Equal(t, "meson.build:3:1: parse: unexpected token", e2.Error())
}

func TestWithSiteDoesNotOverwriteExisting(t *testing.T) {
	e := Parse(Site{File: "a.build", Line: 1, Col: 1}, "oops")
	decorated := e.WithSite(Site{File: "b.build", Line: 9, Col: 9})
	require.Equal(t, "a.build", decorated.Site.File, "WithSite must never overwrite a diagnostic that already carries a location")
}

func TestWithSiteAttachesWhenMissing(t *testing.T) {
	e := Option("bad option")
	decorated := e.WithSite(Site{File: "meson.build", Line: 2, Col: 4})
	require.Equal(t, "meson.build", decorated.Site.File)
	require.Equal(t, "bad option", decorated.Message, "the decorated copy must keep the original message")
}

func TestExitCodeMapping(t *testing.T) {
	require.Equal(t, 2, Internal("boom").ExitCode())
	require.Equal(t, 1, Parse(Site{}, "x").ExitCode())
	require.Equal(t, 1, Option("x").ExitCode())
}

func TestErrorsAsUnwrapsKind(t *testing.T) {
	var err error = Environment("missing toolchain")
	var derr *Error
	require.True(t, errors.As(err, &derr))
	require.Equal(t, KindEnvironment, derr.Kind)
}
