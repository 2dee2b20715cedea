package graph

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/mesongo/internal/value"
)

func TestMakeIDDeterministic(t *testing.T) {
	require.Equal(t, ID("app@exe"), MakeID("app", TargetExecutable, ""))
	require.Equal(t, ID("app@exe@sub"), MakeID("app", TargetExecutable, "sub"))
	require.NotEqual(t, MakeID("app", TargetExecutable, ""), MakeID("app", TargetStaticLibrary, ""))
}

func TestAddTargetRejectsReservedName(t *testing.T) {
	g := New()
	err := g.AddTarget(&Target{Name: "all", Type: TargetExecutable})
	require.Error(t, err)
}

func TestAddTargetRejectsDuplicateID(t *testing.T) {
	g := New()
	require.NoError(t, g.AddTarget(&Target{Name: "app", Type: TargetExecutable}))
	err := g.AddTarget(&Target{Name: "app", Type: TargetExecutable})
	require.Error(t, err, "a second target with the same (name,type,subdir) must collide")
}

func TestGlobalArgumentsFreezeAfterFirstTarget(t *testing.T) {
	g := New()
	require.NoError(t, g.SetGlobalArguments("c", []string{"-Wall"}))
	require.NoError(t, g.AddTarget(&Target{Name: "app", Type: TargetExecutable}))

	err := g.SetGlobalArguments("c", []string{"-Werror"})
	require.Error(t, err, "global arguments must freeze once a build target exists")
	require.Equal(t, []string{"-Wall"}, g.GlobalArguments("c"))
}

func TestAddCustomTargetDoesNotFreezeGlobalArguments(t *testing.T) {
	g := New()
	require.NoError(t, g.AddCustomTarget(&CustomTarget{Name: "gen", Outputs: []string{"out.txt"}}))
	err := g.SetGlobalArguments("c", []string{"-DX"})
	require.NoError(t, err, "custom_target() must not freeze global arguments")
}

func TestFreezeGlobalArgumentsLocksWithoutAddingATarget(t *testing.T) {
	g := New()
	g.FreezeGlobalArguments()
	err := g.SetGlobalArguments("c", []string{"-DX"})
	require.Error(t, err)
}

func TestExtractObjectsRejectsCrossSubproject(t *testing.T) {
	owner := &Target{ID: "lib@static_lib", Subproject: "foo"}
	caller := &Target{Subproject: "bar"}

	_, err := ExtractObjects(caller, owner, []value.File{{Name: "a.c"}}, false)
	require.Error(t, err)
}

func TestExtractObjectsRejectsSingleObjectUnderUnityBuild(t *testing.T) {
	owner := &Target{ID: "lib@static_lib", Subproject: ""}
	caller := &Target{Subproject: ""}

	_, err := ExtractObjects(caller, owner, []value.File{{Name: "a.c"}}, true)
	require.Error(t, err)

	got, err := ExtractObjects(caller, owner, []value.File{{Name: "a.c"}, {Name: "b.c"}}, true)
	require.NoError(t, err)
	require.Equal(t, owner.ID, got.Owner)
}

func TestLangsAndHeaderClassification(t *testing.T) {
	lang, ok := Langs("main.c")
	require.True(t, ok)
	require.Equal(t, "c", lang)

	_, ok = Langs("README.md")
	require.False(t, ok)

	require.True(t, IsHeaderSuffix("foo.h"))
	require.False(t, IsHeaderSuffix("foo.c"))
}
