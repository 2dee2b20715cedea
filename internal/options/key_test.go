package options

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyStringRoundTrip(t *testing.T) {
	k := ProjectKey("werror", "sub", MachineBuild)
	require.Equal(t, "sub:build.werror", k.String())

	parsed := ParseKey(k.String())
	require.Equal(t, "werror", parsed.Name)
	require.Equal(t, "sub", parsed.Subproject)
	require.Equal(t, MachineBuild, parsed.Machine)
	require.False(t, parsed.SystemScope)
}

func TestKeyStringSystemScope(t *testing.T) {
	k := SystemKey("prefix", MachineHost)
	require.Equal(t, "prefix", k.String())

	parsed := ParseKey("prefix")
	require.True(t, parsed.SystemScope)
	require.Equal(t, "prefix", parsed.Name)
}

func TestAsSystemVariantDropsSubproject(t *testing.T) {
	k := ProjectKey("werror", "sub", MachineHost)
	sys := k.AsSystemVariant()
	require.True(t, sys.SystemScope)
	require.Equal(t, "", sys.Subproject)
	require.Equal(t, "werror", sys.Name)
}

func TestKeyLessOrdersSystemScopeAfterNamedSubproject(t *testing.T) {
	named := ProjectKey("werror", "sub", MachineHost)
	sys := SystemKey("werror", MachineHost)
	require.True(t, named.Less(sys))
	require.False(t, sys.Less(named))
}

func TestKeyEqual(t *testing.T) {
	a := ProjectKey("x", "sub", MachineHost)
	b := ProjectKey("x", "sub", MachineHost)
	c := ProjectKey("x", "sub", MachineBuild)
	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
}
