package interp

import (
	"context"
	"strings"

	"github.com/standardbeagle/mesongo/internal/diag"
	"github.com/standardbeagle/mesongo/internal/graph"
	"github.com/standardbeagle/mesongo/internal/value"
)

func init() {
	register("executable", builtinSpec{handler: biBuildTargetOf(graph.TargetExecutable)})
	register("static_library", builtinSpec{handler: biBuildTargetOf(graph.TargetStaticLibrary)})
	register("shared_library", builtinSpec{handler: biBuildTargetOf(graph.TargetSharedLibrary)})
	register("jar", builtinSpec{handler: biBuildTargetOf(graph.TargetJar)})
	register("build_target", builtinSpec{handler: biBuildTarget})
	register("custom_target", builtinSpec{handler: biCustomTarget})
	register("run_target", builtinSpec{handler: biRunTarget})
	register("generator", builtinSpec{handler: biGenerator})
	register("test", builtinSpec{handler: biTestOf(false)})
	register("benchmark", builtinSpec{handler: biTestOf(true)})
	register("install_headers", builtinSpec{handler: biInstallHeaders})
	register("install_man", builtinSpec{handler: biInstallMan})
	register("install_data", builtinSpec{handler: biInstallData})
	register("install_subdir", builtinSpec{handler: biInstallSubdir})
	register("include_directories", builtinSpec{handler: biIncludeDirectories})
	register("add_global_arguments", builtinSpec{handler: biAddGlobalArguments})
	register("add_project_arguments", builtinSpec{handler: biAddProjectArguments})
	register("add_languages", builtinSpec{handler: biAddLanguages})
}

// classifySources walks sources to find the (non-header) language set a target
// compiles, the basis for the compiler-invocation plan (spec §4.6).
func classifySources(sources []value.File) map[string]bool {
	langs := make(map[string]bool)
	for _, f := range sources {
		if graph.IsHeaderSuffix(f.Name) {
			continue
		}
		if lang, ok := graph.Langs(f.Name); ok {
			langs[lang] = true
		}
	}
	return langs
}

func biBuildTargetOf(t graph.TargetType) func(*Interpreter, diag.Site, evaluatedArgs) (value.Value, error) {
	return func(in *Interpreter, site diag.Site, a evaluatedArgs) (value.Value, error) {
		return in.addBuildTarget(site, t, a)
	}
}

// biBuildTarget implements the generic build_target() entry point, whose
// target_type: keyword selects among executable/static_library/
// shared_library/jar/both_libraries (spec §3.3).
func biBuildTarget(in *Interpreter, site diag.Site, a evaluatedArgs) (value.Value, error) {
	kind := kwStr(a, "target_type", "executable")
	var t graph.TargetType
	switch kind {
	case "executable":
		t = graph.TargetExecutable
	case "static_library":
		t = graph.TargetStaticLibrary
	case "shared_library", "both_libraries":
		t = graph.TargetSharedLibrary
	case "jar":
		t = graph.TargetJar
	default:
		return value.Value{}, diag.InvalidArguments(site, "build_target() unknown target_type %q", kind)
	}
	return in.addBuildTarget(site, t, a)
}

func (in *Interpreter) addBuildTarget(site diag.Site, t graph.TargetType, a evaluatedArgs) (value.Value, error) {
	if len(a.positional) < 1 {
		return value.Value{}, diag.InvalidArguments(site, "target requires a name")
	}
	name, ok := a.positional[0].Str()
	if !ok {
		return value.Value{}, diag.InvalidArguments(site, "target name must be a string")
	}
	sources := in.sourceFiles(a.positional[1:])
	extra, err := kwStrList(a, "sources")
	if err != nil {
		return value.Value{}, err
	}
	for _, s := range extra {
		sources = append(sources, value.File{Subdir: in.Subdir, Name: s})
	}
	for _, f := range sources {
		if _, ok := graph.Langs(f.Name); !ok {
			return value.Value{}, diag.InvalidArguments(site, "target %q: unrecognized source file suffix in %q", name, f.Name)
		}
	}

	tgt := &graph.Target{
		Name:       name,
		Type:       t,
		Subdir:     in.Subdir,
		Subproject: in.Subproject,
		Sources:    sources,
		Compilers:  classifySources(sources),
		Install:    kwBool(a, "install", false),
	}

	for lang := range tgt.Compilers {
		ctx := context.Background()
		if _, err := in.Detector.DetectCompiler(ctx, lang, false, nil, nil); err != nil {
			return value.Value{}, diag.Environment("target %q: %v", name, err)
		}
	}

	if err := in.Graph.AddTarget(tgt); err != nil {
		return value.Value{}, err
	}
	return value.NewObject(&BuildTargetObj{Target: tgt, owner: in}), nil
}

// biCustomTarget implements custom_target(name, input:, output:, command:,
// depfile:, build_always_stale:, install:) per spec §3.3, §6.6.
func biCustomTarget(in *Interpreter, site diag.Site, a evaluatedArgs) (value.Value, error) {
	name := ""
	if len(a.positional) > 0 {
		name, _ = a.positional[0].Str()
	}
	outputs, err := kwStrList(a, "output")
	if err != nil {
		return value.Value{}, err
	}
	if len(outputs) == 0 {
		return value.Value{}, diag.InvalidArguments(site, "custom_target() requires at least one output:")
	}
	var inputs []value.File
	if v, ok := a.keyword["input"]; ok {
		items, err := value.Listify(v)
		if err != nil {
			return value.Value{}, err
		}
		inputs = in.sourceFiles(items)
	}
	cmd, err := kwStrList(a, "command")
	if err != nil {
		return value.Value{}, err
	}
	cmd = expandCustomTargetTemplate(cmd, inputs, outputs, in)

	ct := &graph.CustomTarget{
		Name:        name,
		Subdir:      in.Subdir,
		Command:     cmd,
		Inputs:      inputs,
		Outputs:     outputs,
		Depfile:     kwStr(a, "depfile", ""),
		BuildAlways: kwBool(a, "build_always_stale", false),
		Install:     kwBool(a, "install", false),
	}
	if err := in.Graph.AddCustomTarget(ct); err != nil {
		return value.Value{}, err
	}
	return value.NewObject(&CustomTargetObj{CT: ct}), nil
}

// expandCustomTargetTemplate substitutes @INPUT@/@OUTPUT@/@INPUT0@/
// @OUTPUT0@/@SOURCE_DIR@/@BUILD_DIR@ in command-line tokens (spec §6.6).
func expandCustomTargetTemplate(cmd []string, inputs []value.File, outputs []string, in *Interpreter) []string {
	inputNames := make([]string, len(inputs))
	for i, f := range inputs {
		inputNames[i] = f.Name
	}
	out := make([]string, len(cmd))
	for i, tok := range cmd {
		tok = strings.ReplaceAll(tok, "@INPUT@", strings.Join(inputNames, " "))
		tok = strings.ReplaceAll(tok, "@OUTPUT@", strings.Join(outputs, " "))
		tok = strings.ReplaceAll(tok, "@SOURCE_DIR@", in.SourceDir)
		tok = strings.ReplaceAll(tok, "@BUILD_DIR@", in.BuildDir)
		for n, name := range inputNames {
			tok = strings.ReplaceAll(tok, indexedPlaceholder("INPUT", n), name)
		}
		for n, name := range outputs {
			tok = strings.ReplaceAll(tok, indexedPlaceholder("OUTPUT", n), name)
		}
		out[i] = tok
	}
	return out
}

func indexedPlaceholder(base string, n int) string {
	return "@" + base + itoa(n) + "@"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func biRunTarget(in *Interpreter, site diag.Site, a evaluatedArgs) (value.Value, error) {
	if len(a.positional) < 1 {
		return value.Value{}, diag.InvalidArguments(site, "run_target() requires a name")
	}
	name, ok := a.positional[0].Str()
	if !ok {
		return value.Value{}, diag.InvalidArguments(site, "run_target() name must be a string")
	}
	cmd, err := kwStrList(a, "command")
	if err != nil {
		return value.Value{}, err
	}
	rt := &graph.RunTarget{Name: name, Command: cmd}
	if err := in.Graph.AddRunTarget(rt); err != nil {
		return value.Value{}, err
	}
	return value.NewObject(&RunTargetObj{RT: rt}), nil
}

// RunTargetObj wraps a graph.RunTarget.
type RunTargetObj struct{ RT *graph.RunTarget }

func (o *RunTargetObj) ObjectKind() string                        { return "run_target" }
func (o *RunTargetObj) Method(name string) (value.Callable, bool) { return nil, false }

// biGenerator implements generator(exe, arguments:, output:) constructing a
// reusable Generator that .process(files) later binds to inputs (spec §3.3).
func biGenerator(in *Interpreter, site diag.Site, a evaluatedArgs) (value.Value, error) {
	if len(a.positional) < 1 {
		return value.Value{}, diag.InvalidArguments(site, "generator() requires an executable")
	}
	exe := a.positional[0].ToNative()
	if obj, ok := a.positional[0].Object(); ok {
		if prog, ok := obj.(*ExternalProgramObj); ok {
			exe = prog.Path
		}
	}
	args, err := kwStrList(a, "arguments")
	if err != nil {
		return value.Value{}, err
	}
	outputs, err := kwStrList(a, "output")
	if err != nil {
		return value.Value{}, err
	}
	if len(outputs) == 0 {
		return value.Value{}, diag.InvalidArguments(site, "generator() requires output:")
	}
	gen := &graph.Generator{Exe: exe, ArgTemplates: args, OutputTemplates: outputs}
	return value.NewObject(&GeneratorObj{Gen: gen}), nil
}

func biTestOf(isBench bool) func(*Interpreter, diag.Site, evaluatedArgs) (value.Value, error) {
	return func(in *Interpreter, site diag.Site, a evaluatedArgs) (value.Value, error) {
		if len(a.positional) < 2 {
			return value.Value{}, diag.InvalidArguments(site, "test() requires (name, executable)")
		}
		name, ok := a.positional[0].Str()
		if !ok {
			return value.Value{}, diag.InvalidArguments(site, "test() name must be a string")
		}
		var exeID graph.ID
		if obj, ok := a.positional[1].Object(); ok {
			if bt, ok := obj.(*BuildTargetObj); ok {
				exeID = bt.Target.ID
			}
		}
		var args []string
		if v, ok := a.keyword["args"]; ok {
			items, err := value.Listify(v)
			if err != nil {
				return value.Value{}, err
			}
			for _, it := range items {
				args = append(args, it.ToNative())
			}
		}
		suite, err := kwStrList(a, "suite")
		if err != nil {
			return value.Value{}, err
		}
		t := &graph.Test{Name: name, Exe: exeID, Args: args, Suite: suite, IsBench: isBench}
		in.Graph.AddTest(t)
		return value.Value{}, nil
	}
}

func biInstallHeaders(in *Interpreter, site diag.Site, a evaluatedArgs) (value.Value, error) {
	files := in.sourceFiles(a.positional)
	in.Graph.AddInstallRule(&graph.InstallRule{Kind: "headers", Sources: files, DestDir: kwStr(a, "subdir", "")})
	return value.Value{}, nil
}

func biInstallMan(in *Interpreter, site diag.Site, a evaluatedArgs) (value.Value, error) {
	files := in.sourceFiles(a.positional)
	in.Graph.AddInstallRule(&graph.InstallRule{Kind: "man", Sources: files})
	return value.Value{}, nil
}

func biInstallData(in *Interpreter, site diag.Site, a evaluatedArgs) (value.Value, error) {
	files := in.sourceFiles(a.positional)
	in.Graph.AddInstallRule(&graph.InstallRule{Kind: "data", Sources: files, DestDir: kwStr(a, "install_dir", "")})
	return value.Value{}, nil
}

func biInstallSubdir(in *Interpreter, site diag.Site, a evaluatedArgs) (value.Value, error) {
	if len(a.positional) != 1 {
		return value.Value{}, diag.InvalidArguments(site, "install_subdir() requires one positional argument")
	}
	s, ok := a.positional[0].Str()
	if !ok {
		return value.Value{}, diag.InvalidArguments(site, "install_subdir() argument must be a string")
	}
	in.Graph.AddInstallRule(&graph.InstallRule{Kind: "subdir", Sources: []value.File{{Subdir: in.Subdir, Name: s}}, DestDir: kwStr(a, "install_dir", "")})
	return value.Value{}, nil
}

func biIncludeDirectories(in *Interpreter, site diag.Site, a evaluatedArgs) (value.Value, error) {
	names, err := posStrings(a)
	if err != nil {
		return value.Value{}, err
	}
	dirs := make([]string, len(names))
	for i, n := range names {
		dirs[i] = n
	}
	return value.NewObject(&IncludeDirsObj{Dirs: dirs}), nil
}

func biAddGlobalArguments(in *Interpreter, site diag.Site, a evaluatedArgs) (value.Value, error) {
	langs, err := kwStrList(a, "language")
	if err != nil {
		return value.Value{}, err
	}
	args, err := posStrings(a)
	if err != nil {
		return value.Value{}, err
	}
	for _, lang := range langs {
		if err := in.Graph.SetGlobalArguments(lang, args); err != nil {
			return value.Value{}, err
		}
	}
	return value.Value{}, nil
}

// biAddProjectArguments is equivalent to add_global_arguments for the core
// model, which does not distinguish per-subproject argument scoping from
// the global argument table (spec Non-goals: no link-time per-subproject
// isolation is modeled).
func biAddProjectArguments(in *Interpreter, site diag.Site, a evaluatedArgs) (value.Value, error) {
	return biAddGlobalArguments(in, site, a)
}

func biAddLanguages(in *Interpreter, site diag.Site, a evaluatedArgs) (value.Value, error) {
	langs, err := posStrings(a)
	if err != nil {
		return value.Value{}, err
	}
	required := true
	if v, ok := a.keyword["required"]; ok {
		if b, ok := v.Bool(); ok {
			required = b
		}
	}
	ctx := context.Background()
	allFound := true
	for _, lang := range langs {
		if _, err := in.Detector.DetectCompiler(ctx, lang, false, nil, nil); err != nil {
			allFound = false
			if required {
				return value.Value{}, diag.Environment("add_languages(): %v", err)
			}
		}
	}
	return value.NewBool(allFound), nil
}
