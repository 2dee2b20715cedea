// Package graph implements the typed build graph (spec §3.4, §4.6):
// targets, generators, tests, install rules, unique-id assignment, and the
// invariants guaranteeing deterministic regeneration.
package graph

import (
	"fmt"

	"github.com/standardbeagle/mesongo/internal/diag"
	"github.com/standardbeagle/mesongo/internal/value"
)

// TargetType distinguishes the target kinds spec §3.3 lists.
type TargetType int

const (
	TargetExecutable TargetType = iota
	TargetStaticLibrary
	TargetSharedLibrary
	TargetJar
	TargetCustom
	TargetRun
)

func (t TargetType) suffix() string {
	switch t {
	case TargetExecutable:
		return "exe"
	case TargetStaticLibrary:
		return "static_lib"
	case TargetSharedLibrary:
		return "shared_lib"
	case TargetJar:
		return "jar"
	case TargetCustom:
		return "custom"
	case TargetRun:
		return "run"
	default:
		return "target"
	}
}

// reservedNames are build-step identifiers a target name may never shadow
// (spec §3.4).
var reservedNames = map[string]bool{
	"all": true, "clean": true, "test": true, "install": true,
	"build.ninja": true, "PHONY": true, "meson-test": true, "meson-benchmark": true,
}

// ID is a target's deterministic identity: a function of
// (name, target_type, subdir) (spec §3.4).
type ID string

// MakeID computes the deterministic target id.
func MakeID(name string, t TargetType, subdir string) ID {
	if subdir == "" {
		return ID(fmt.Sprintf("%s@%s", name, t.suffix()))
	}
	return ID(fmt.Sprintf("%s@%s@%s", name, t.suffix(), subdir))
}

// Target is a declared buildable artifact.
type Target struct {
	ID         ID
	Name       string
	Type       TargetType
	Subdir     string
	Subproject string
	IsCross    bool
	Sources    []value.File
	Generated  []*GeneratedList
	Objects    []ExtractedObjects
	Compilers  map[string]bool // languages used, from source-suffix classification
	Install    bool
	LinkWith   []ID
}

// ExtractedObjects is the result of target.extract_objects(files); valid
// only when the caller's subdir shares the owning target's
// project/subproject (spec §4.6).
type ExtractedObjects struct {
	Owner ID
	Files []value.File
}

// Generator is a reusable output-producing rule (spec §3.3).
type Generator struct {
	Exe             string
	ArgTemplates    []string
	OutputTemplates []string
}

// GeneratedList binds a Generator to an ordered input sequence.
type GeneratedList struct {
	Generator *Generator
	Inputs    []value.File
}

// CustomTarget is an arbitrary command line producing named outputs
// (spec §3.3).
type CustomTarget struct {
	ID           ID
	Name         string
	Subdir       string
	Command      []string
	Inputs       []value.File
	Outputs      []string
	Depfile      string
	BuildAlways  bool
	Install      bool
}

// RunTarget runs a command with no build outputs tracked.
type RunTarget struct {
	ID      ID
	Name    string
	Command []string
}

// Test is a registered test or benchmark invocation.
type Test struct {
	Name      string
	Exe       ID
	Args      []string
	Suite     []string
	IsBench   bool
	Timeout   int
}

// InstallRule covers install_headers/install_man/install_data/install_subdir.
type InstallRule struct {
	Kind    string // "headers", "man", "data", "subdir"
	Sources []value.File
	DestDir string
}

// Langs classifies a filename suffix to a language, or returns ("", false)
// for unrecognized suffixes — an evaluation error at the call site
// (spec §4.6).
func Langs(filename string) (string, bool) {
	suffixes := map[string]string{
		".c": "c", ".h": "c",
		".cc": "cpp", ".cpp": "cpp", ".cxx": "cpp", ".hpp": "cpp", ".hh": "cpp",
		".m": "objc", ".mm": "objcpp",
		".rs": "rust",
		".java": "java",
		".S": "c", ".s": "c", ".asm": "c",
	}
	for i := len(filename) - 1; i >= 0; i-- {
		if filename[i] == '.' {
			if lang, ok := suffixes[filename[i:]]; ok {
				return lang, true
			}
			return "", false
		}
	}
	return "", false
}

// IsHeaderSuffix reports whether a suffix is a header: carried as a source
// for classification but never compiled (spec §4.6).
func IsHeaderSuffix(filename string) bool {
	for _, suf := range []string{".h", ".hpp", ".hh"} {
		if len(filename) >= len(suf) && filename[len(filename)-len(suf):] == suf {
			return true
		}
	}
	return false
}

// Graph accumulates the configure run's targets, tests, and install rules
// with deterministic, insertion-ordered iteration (spec §4.6 "Target
// insertion order into the Build Graph is the order of the evaluating AST
// walk").
type Graph struct {
	targets       map[ID]*Target
	customTargets map[ID]*CustomTarget
	runTargets    map[ID]*RunTarget
	order         []ID
	tests         []*Test
	installRules  []*InstallRule

	globalArgs       map[string][]string
	globalArgsFrozen bool
}

func New() *Graph {
	return &Graph{
		targets:       make(map[ID]*Target),
		customTargets: make(map[ID]*CustomTarget),
		runTargets:    make(map[ID]*RunTarget),
		globalArgs:    make(map[string][]string),
	}
}

// AddTarget inserts t, rejecting reserved names and duplicate ids
// (spec §3.4, §8 "Unique target id").
func (g *Graph) AddTarget(t *Target) error {
	if reservedNames[t.Name] {
		return diag.InvalidCode(diag.Site{}, "target name %q is reserved", t.Name)
	}
	id := MakeID(t.Name, t.Type, t.Subdir)
	if _, exists := g.targets[id]; exists {
		return diag.InvalidCode(diag.Site{}, "duplicate target id %q", id)
	}
	t.ID = id
	g.targets[id] = t
	g.order = append(g.order, id)
	g.globalArgsFrozen = true
	return nil
}

// AddCustomTarget inserts a CustomTarget under the same id-uniqueness and
// reserved-name rules as regular targets. Unlike AddTarget, this does not
// freeze global arguments: spec §4.6/§8 scenario 6 freezes them only the
// first time a compiled build target (executable/library/jar) is declared,
// not for custom_target()/run_target().
func (g *Graph) AddCustomTarget(ct *CustomTarget) error {
	if reservedNames[ct.Name] {
		return diag.InvalidCode(diag.Site{}, "target name %q is reserved", ct.Name)
	}
	id := MakeID(ct.Name, TargetCustom, ct.Subdir)
	if _, exists := g.customTargets[id]; exists {
		return diag.InvalidCode(diag.Site{}, "duplicate target id %q", id)
	}
	ct.ID = id
	g.customTargets[id] = ct
	g.order = append(g.order, id)
	return nil
}

func (g *Graph) AddRunTarget(rt *RunTarget) error {
	id := MakeID(rt.Name, TargetRun, "")
	if _, exists := g.runTargets[id]; exists {
		return diag.InvalidCode(diag.Site{}, "duplicate target id %q", id)
	}
	rt.ID = id
	g.runTargets[id] = rt
	g.order = append(g.order, id)
	return nil
}

// FreezeGlobalArguments locks global arguments without adding a target,
// matching the freeze a subproject() call triggers (spec §4.6): once a
// subproject has been processed, the super-project can no longer change
// the arguments it saw.
func (g *Graph) FreezeGlobalArguments() { g.globalArgsFrozen = true }

func (g *Graph) AddTest(t *Test)              { g.tests = append(g.tests, t) }
func (g *Graph) AddInstallRule(r *InstallRule) { g.installRules = append(g.installRules, r) }

// SetGlobalArguments stores args for language, locking further attempts
// once any build target has been declared (spec §4.6, §8 scenario 6).
func (g *Graph) SetGlobalArguments(lang string, args []string) error {
	if g.globalArgsFrozen {
		return diag.InvalidCode(diag.Site{}, "Tried to set global arguments after a build target has been declared.")
	}
	g.globalArgs[lang] = append(g.globalArgs[lang], args...)
	return nil
}

func (g *Graph) GlobalArguments(lang string) []string {
	return append([]string(nil), g.globalArgs[lang]...)
}

// Targets returns all targets in AST-walk insertion order.
func (g *Graph) Targets() []*Target {
	out := make([]*Target, 0, len(g.targets))
	for _, id := range g.order {
		if t, ok := g.targets[id]; ok {
			out = append(out, t)
		}
	}
	return out
}

func (g *Graph) Target(id ID) (*Target, bool) {
	t, ok := g.targets[id]
	return t, ok
}

func (g *Graph) Tests() []*Test { return append([]*Test(nil), g.tests...) }

// ExtractObjects validates the cross-subdir rule and unity-build policy of
// spec §4.6 before building an ExtractedObjects value.
func ExtractObjects(caller *Target, owner *Target, files []value.File, unityBuild bool) (ExtractedObjects, error) {
	if caller.Subproject != owner.Subproject {
		return ExtractedObjects{}, diag.InvalidCode(diag.Site{}, "extract_objects: cannot extract objects across subproject boundary (%q -> %q)", caller.Subproject, owner.Subproject)
	}
	if unityBuild && len(files) == 1 {
		return ExtractedObjects{}, diag.InvalidCode(diag.Site{}, "extract_objects: single-object extraction is disallowed under a unity build policy")
	}
	return ExtractedObjects{Owner: owner.ID, Files: files}, nil
}
