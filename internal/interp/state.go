// Package interp implements the Interpreter core: AST evaluation, built-in
// dispatch, object instantiation, immutability and type enforcement, and
// subproject recursion (spec §3.3, §4.5).
package interp

import (
	"path/filepath"

	"github.com/standardbeagle/mesongo/internal/ast"
	"github.com/standardbeagle/mesongo/internal/checks"
	"github.com/standardbeagle/mesongo/internal/diag"
	"github.com/standardbeagle/mesongo/internal/graph"
	"github.com/standardbeagle/mesongo/internal/options"
	"github.com/standardbeagle/mesongo/internal/toolchain"
	"github.com/standardbeagle/mesongo/internal/value"
)

// Project is the state registered by the first project() call.
type Project struct {
	Name      string
	Version   string
	Languages []string
	SubdirName string
}

// Interpreter holds all per-instance evaluation state (spec §4.5). A
// fresh Interpreter is created per subproject, sharing the parent's Graph,
// Options store, and Detector.
type Interpreter struct {
	SourceDir string
	BuildDir  string
	Subdir    string
	Subproject string // "" for the root

	Graph    *graph.Graph
	Options  *options.Store
	Detector *toolchain.Detector
	Warnings *diag.Sink
	Checks   *checks.Cache

	variables    map[string]value.Value
	builtinVars  map[string]value.Value
	generators   map[string]*graph.Generator

	visitedSubdirs   map[string]bool
	buildDefFiles    []string
	activeProject    *Project
	subprojectStack  []string
	subprojectsCache map[string]*Interpreter

	globalArgsFrozen bool
}

func New(sourceDir, buildDir string, g *graph.Graph, store *options.Store, det *toolchain.Detector, warn *diag.Sink) *Interpreter {
	in := &Interpreter{
		SourceDir:        sourceDir,
		BuildDir:         buildDir,
		Graph:            g,
		Options:          store,
		Detector:         det,
		Warnings:         warn,
		Checks:           checks.NewCache(),
		variables:        make(map[string]value.Value),
		builtinVars:      make(map[string]value.Value),
		generators:       make(map[string]*graph.Generator),
		visitedSubdirs:   make(map[string]bool),
		subprojectsCache: make(map[string]*Interpreter),
	}
	in.builtinVars["meson"] = value.NewObject(&MesonObj{owner: in})
	return in
}

// childFor constructs a fresh Interpreter for a subproject evaluation,
// sharing the Graph/Options/Detector/Warnings/Checks so the nested
// interpreter merges its declarations into the same build (spec §4.5
// subproject()).
func (in *Interpreter) childFor(name, srcDir string) *Interpreter {
	child := New(srcDir, in.BuildDir, in.Graph, in.Options, in.Detector, in.Warnings)
	child.Checks = in.Checks
	child.Subproject = name
	child.subprojectStack = append(append([]string(nil), in.subprojectStack...), name)
	return child
}

func (in *Interpreter) site(p ast.Pos) diag.Site {
	return diag.Site{File: in.currentFile(), Line: p.Line, Col: p.Col}
}

func (in *Interpreter) currentFile() string {
	return filepath.Join(in.SourceDir, in.Subdir, "meson.build")
}

// reservedBuiltinNames can never be assigned to by scripts (spec §8
// "No variable shadowing of built-ins").
var reservedBuiltinNames = map[string]bool{
	"meson": true, "host_machine": true, "build_machine": true, "target_machine": true,
}
