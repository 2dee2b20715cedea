package toolchain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	outputs map[string]string // exe -> combined stdout+stderr
	calls   []string
}

func (f *fakeRunner) Run(ctx context.Context, exe string, args ...string) (string, string, error) {
	f.calls = append(f.calls, exe)
	out, ok := f.outputs[exe]
	if !ok {
		return "", "", context.DeadlineExceeded
	}
	return out, "", nil
}

func TestDetectCompilerTriesCandidatesInOrder(t *testing.T) {
	fr := &fakeRunner{outputs: map[string]string{
		"clang": "Apple clang version 15.0.0\n",
	}}
	d := &Detector{run: fr, cache: make(map[string]*Compiler)}

	c, err := d.DetectCompiler(context.Background(), "c", false, nil, nil)
	require.NoError(t, err)
	require.Equal(t, CompilerClang, c.ID)
	require.Equal(t, []string{"cc", "gcc", "clang"}, fr.calls, "must try env > cross-file > defaults in order")
}

func TestDetectCompilerPrefersEnvOverride(t *testing.T) {
	fr := &fakeRunner{outputs: map[string]string{
		"/opt/mycc": "gcc (Free Software Foundation) 13.2\n",
		"cc":        "gcc (Free Software Foundation) 13.2\n",
	}}
	d := &Detector{run: fr, cache: make(map[string]*Compiler)}

	c, err := d.DetectCompiler(context.Background(), "c", false, []string{"/opt/mycc"}, nil)
	require.NoError(t, err)
	require.Equal(t, CompilerGCC, c.ID)
	require.Equal(t, []string{"/opt/mycc"}, fr.calls, "an env override that probes successfully must short-circuit the rest of the candidate list")
}

func TestDetectCompilerCachesPerLangAndCrossFlag(t *testing.T) {
	fr := &fakeRunner{outputs: map[string]string{"cc": "gcc (Free Software Foundation) 13.2\n"}}
	d := &Detector{run: fr, cache: make(map[string]*Compiler)}

	_, err := d.DetectCompiler(context.Background(), "c", false, nil, nil)
	require.NoError(t, err)
	_, err = d.DetectCompiler(context.Background(), "c", false, nil, nil)
	require.NoError(t, err)
	require.Len(t, fr.calls, 1, "a second probe for the same (lang,is_cross) must hit the cache")
}

func TestDetectCompilerUnknownLanguage(t *testing.T) {
	d := NewDetector()
	_, err := d.DetectCompiler(context.Background(), "fortran", false, nil, nil)
	require.Error(t, err)
}

func TestSeedPreloadsCache(t *testing.T) {
	fr := &fakeRunner{}
	d := &Detector{run: fr, cache: make(map[string]*Compiler)}
	seeded := &Compiler{ID: CompilerGCC, Version: "13.2", Exelist: []string{"cc"}, Language: "c"}
	d.Seed("c", false, seeded)

	c, err := d.DetectCompiler(context.Background(), "c", false, nil, nil)
	require.NoError(t, err)
	require.Same(t, seeded, c)
	require.Empty(t, fr.calls, "a seeded cache entry must never invoke the runner")
}

func TestNamingForPlatforms(t *testing.T) {
	require.Equal(t, ".exe", NamingFor("windows").ExeSuffix)
	require.Equal(t, ".dylib", NamingFor("darwin").SharedLibSuffix)
	require.Equal(t, ".so", NamingFor("linux").SharedLibSuffix)
}
