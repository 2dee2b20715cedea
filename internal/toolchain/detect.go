package toolchain

import (
	"bytes"
	"context"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/standardbeagle/mesongo/internal/diag"
)

// CompilerID identifies a detected compiler family.
type CompilerID string

const (
	CompilerGCC   CompilerID = "gcc"
	CompilerClang CompilerID = "clang"
	CompilerMSVC  CompilerID = "msvc"
)

// Compiler is the typed record returned by compiler discovery (spec §4.4).
type Compiler struct {
	ID        CompilerID
	Version   string
	Exelist   []string
	Language  string
	IsCross   bool
	ExeWrapper []string
}

// StaticLinker identifies an ar-family or MSVC lib.exe linker.
type StaticLinker struct {
	Kind    string // "ar" or "lib"
	Exelist []string
}

// PlatformNaming is the artifact naming table spec §4.4 describes, derived
// from the target platform when cross-compiling, else the host.
type PlatformNaming struct {
	ExeSuffix        string
	SharedLibPrefix  string
	SharedLibSuffix  string
	StaticLibPrefix  string
	StaticLibSuffix  string
	ObjectSuffix     string
	ImportLibSuffix  string
}

// NamingFor returns the artifact naming table for the given OS identifier
// ("windows", "darwin", "linux", …), matching Go's runtime.GOOS vocabulary.
func NamingFor(goos string) PlatformNaming {
	switch goos {
	case "windows":
		return PlatformNaming{
			ExeSuffix: ".exe", SharedLibPrefix: "", SharedLibSuffix: ".dll",
			StaticLibPrefix: "", StaticLibSuffix: ".lib",
			ObjectSuffix: ".obj", ImportLibSuffix: ".lib",
		}
	case "darwin":
		return PlatformNaming{
			ExeSuffix: "", SharedLibPrefix: "lib", SharedLibSuffix: ".dylib",
			StaticLibPrefix: "lib", StaticLibSuffix: ".a",
			ObjectSuffix: ".o", ImportLibSuffix: "",
		}
	default:
		return PlatformNaming{
			ExeSuffix: "", SharedLibPrefix: "lib", SharedLibSuffix: ".so",
			StaticLibPrefix: "lib", StaticLibSuffix: ".a",
			ObjectSuffix: ".o", ImportLibSuffix: "",
		}
	}
}

// candidateDefaults lists the built-in candidate executable names tried
// per language; precedence from highest to lowest is env var > cross-file >
// this list (spec §4.4).
var candidateDefaults = map[string][]string{
	"c":   {"cc", "gcc", "clang"},
	"cpp": {"c++", "g++", "clang++"},
}

type versionProbe struct {
	args    []string
	matches map[string]CompilerID // substring -> id
}

var probesByLanguage = map[string]versionProbe{
	"c": {
		args: []string{"--version"},
		matches: map[string]CompilerID{
			"clang": CompilerClang,
			"Free Software Foundation": CompilerGCC,
			"gcc": CompilerGCC,
		},
	},
	"cpp": {
		args: []string{"--version"},
		matches: map[string]CompilerID{
			"clang": CompilerClang,
			"Free Software Foundation": CompilerGCC,
			"g++": CompilerGCC,
		},
	},
}

// runner abstracts subprocess execution so detection is testable without a
// real toolchain installed.
type runner interface {
	Run(ctx context.Context, exe string, args ...string) (stdout, stderr string, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, exe string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, exe, args...)
	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf
	err := cmd.Run()
	return out.String(), errBuf.String(), err
}

// Detector discovers compilers and linkers, caching each (lang, is_cross)
// probe so it executes at most once per configure (spec §4.4 "Tie-breaks").
type Detector struct {
	run   runner
	cache map[string]*Compiler
}

func NewDetector() *Detector {
	return &Detector{run: execRunner{}, cache: make(map[string]*Compiler)}
}

// Seed preloads the (lang, is_cross) memoization slot so DetectCompiler
// returns c without probing. coredata.RestoreDetector calls it for each
// entry of a loaded compilers table; coredata.Save does not write that
// table (spec §6.5).
func (d *Detector) Seed(lang string, isCross bool, c *Compiler) {
	d.cache[lang+"|"+boolKey(isCross)] = c
}

// DetectCompiler discovers a compiler for lang, trying candidates in order:
// env override, cross-file exelist, then built-in defaults. The first
// candidate that probes successfully wins (spec §4.4).
func (d *Detector) DetectCompiler(ctx context.Context, lang string, isCross bool, envOverride, crossExelist []string) (*Compiler, error) {
	cacheKey := lang + "|" + boolKey(isCross)
	if c, ok := d.cache[cacheKey]; ok {
		return c, nil
	}

	var tried []string
	candidates := buildCandidateOrder(lang, envOverride, crossExelist)
	probe, ok := probesByLanguage[lang]
	if !ok {
		return nil, diag.Environment("no compiler probe registered for language %q", lang)
	}

	for _, exe := range candidates {
		if exe == "" {
			continue
		}
		tried = append(tried, exe)
		args := probe.args
		if runtime.GOOS == "windows" && strings.EqualFold(exe, "cl") {
			args = []string{"/?"}
		}
		cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		stdout, stderr, err := d.run.Run(cctx, exe, args...)
		cancel()
		combined := stdout + stderr
		// A probe failure is surfaced indistinguishably from a real
		// compiler error (spec §5): we only use err to decide whether the
		// executable exists at all; classification is by output content.
		if err != nil && combined == "" {
			continue
		}
		id, matched := classify(combined, probe.matches)
		if !matched {
			continue
		}
		c := &Compiler{
			ID:       id,
			Version:  extractVersion(combined),
			Exelist:  []string{exe},
			Language: lang,
			IsCross:  isCross,
		}
		d.cache[cacheKey] = c
		return c, nil
	}

	return nil, diag.Environment("unknown compiler for language %q, tried: %v", lang, tried)
}

func boolKey(b bool) string {
	if b {
		return "cross"
	}
	return "native"
}

func buildCandidateOrder(lang string, envOverride, crossExelist []string) []string {
	var out []string
	out = append(out, envOverride...)
	out = append(out, crossExelist...)
	out = append(out, candidateDefaults[lang]...)
	return out
}

func classify(output string, matches map[string]CompilerID) (CompilerID, bool) {
	for substr, id := range matches {
		if strings.Contains(output, substr) {
			return id, true
		}
	}
	return "", false
}

func extractVersion(output string) string {
	lines := strings.SplitN(output, "\n", 2)
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[0])
}

// DetectStaticLinker differentiates ar-family (returncode 0 or "usage" on
// stderr) from MSVC lib.exe ("/OUT:" in output) per spec §4.4.
func (d *Detector) DetectStaticLinker(ctx context.Context, candidates []string) (*StaticLinker, error) {
	for _, exe := range candidates {
		cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		stdout, stderr, err := d.run.Run(cctx, exe)
		cancel()
		combined := stdout + stderr
		if strings.Contains(combined, "/OUT:") {
			return &StaticLinker{Kind: "lib", Exelist: []string{exe}}, nil
		}
		if err == nil || strings.Contains(strings.ToLower(combined), "usage") {
			return &StaticLinker{Kind: "ar", Exelist: []string{exe}}, nil
		}
	}
	return nil, diag.Environment("no static linker found, tried: %v", candidates)
}
