package interp

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/standardbeagle/mesongo/internal/diag"
	"github.com/standardbeagle/mesongo/internal/options"
	"github.com/standardbeagle/mesongo/internal/value"
)

// builtins is the complete registered surface evalFunctionCall dispatches
// against (spec §4.5). Populated by init() across this file and its
// builtins_*.go siblings so each concern's handlers stay grouped with the
// object types they construct.
var builtins = map[string]builtinSpec{}

func register(name string, spec builtinSpec) {
	if _, exists := builtins[name]; exists {
		panic("duplicate builtin registration: " + name)
	}
	builtins[name] = spec
}

func kwStr(a evaluatedArgs, name, def string) string {
	if v, ok := a.keyword[name]; ok {
		if s, ok := v.Str(); ok {
			return s
		}
	}
	return def
}

func kwBool(a evaluatedArgs, name string, def bool) bool {
	if v, ok := a.keyword[name]; ok {
		if b, ok := v.Bool(); ok {
			return b
		}
	}
	return def
}

func kwStrList(a evaluatedArgs, name string) ([]string, error) {
	v, ok := a.keyword[name]
	if !ok {
		return nil, nil
	}
	items, err := value.Listify(v)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		s, ok := it.Str()
		if !ok {
			return nil, diag.InvalidArguments(diag.Site{}, "keyword %q expects string list values", name)
		}
		out = append(out, s)
	}
	return out, nil
}

func posStrings(a evaluatedArgs) ([]string, error) {
	out := make([]string, 0, len(a.positional))
	for _, v := range a.positional {
		s, ok := v.Str()
		if !ok {
			return nil, diag.InvalidArguments(diag.Site{}, "expected a string argument, got %s", v.Kind())
		}
		out = append(out, s)
	}
	return out, nil
}

// sourceFiles turns a mix of string-literal and already-constructed File
// positional arguments into value.File entries, relative to in.Subdir
// (spec §3.2 "files()").
func (in *Interpreter) sourceFiles(vals []value.Value) []value.File {
	out := make([]value.File, 0, len(vals))
	for _, v := range vals {
		if f, ok := v.File(); ok {
			out = append(out, f)
			continue
		}
		if s, ok := v.Str(); ok {
			out = append(out, value.File{Subdir: in.Subdir, Name: s})
		}
	}
	return out
}

func init() {
	register("project", builtinSpec{handler: biProject})
	register("message", builtinSpec{handler: biMessage})
	register("warning", builtinSpec{handler: biWarning})
	register("error", builtinSpec{handler: biError})
	register("summary", builtinSpec{handler: biMessage})
	register("files", builtinSpec{handler: biFiles})
	register("set_variable", builtinSpec{handler: biSetVariable})
	register("import", builtinSpec{handler: biImport})
	register("run_command", builtinSpec{handler: biRunCommand})
	register("find_program", builtinSpec{handler: biFindProgram})
	register("find_library", builtinSpec{handler: biFindLibrary})
	register("dependency", builtinSpec{handler: biDependency})
	register("declare_dependency", builtinSpec{handler: biDeclareDependency})
	register("configuration_data", builtinSpec{noPosargs: true, noKwargs: true, handler: biConfigurationData})
	register("get_option", builtinSpec{handler: biGetOption})
}

// biProject implements project(name, languages..., version:, default_options:,
// subproject_dir:) — the mandatory first statement of every build
// description (spec §3.3, §4.5).
func biProject(in *Interpreter, site diag.Site, a evaluatedArgs) (value.Value, error) {
	if in.activeProject != nil {
		return value.Value{}, diag.InvalidCode(site, "project() may only be called once")
	}
	if len(a.positional) < 1 {
		return value.Value{}, diag.InvalidArguments(site, "project() requires a name argument")
	}
	name, ok := a.positional[0].Str()
	if !ok {
		return value.Value{}, diag.InvalidArguments(site, "project() name must be a string")
	}
	var langs []string
	for _, v := range a.positional[1:] {
		s, ok := v.Str()
		if !ok {
			return value.Value{}, diag.InvalidArguments(site, "project() language arguments must be strings")
		}
		langs = append(langs, s)
	}
	version := kwStr(a, "version", "undefined")
	subdirName := kwStr(a, "subproject_dir", "subprojects")

	in.activeProject = &Project{Name: name, Version: version, Languages: langs, SubdirName: subdirName}

	if err := in.registerDefaultOptions(a); err != nil {
		return value.Value{}, err
	}

	ctx := context.Background()
	for _, lang := range langs {
		if _, err := in.Detector.DetectCompiler(ctx, lang, false, nil, nil); err != nil {
			in.Warnings.Warn(site, "could not detect a %s compiler: %v", lang, err)
		}
	}

	return value.Value{}, nil
}

// registerDefaultOptions seeds project-scoped defaults named under
// default_options: (spec §4.3) as string-typed free options; projects that
// also ship meson_options.txt override these via AddProjectOption.
func (in *Interpreter) registerDefaultOptions(a evaluatedArgs) error {
	defaults, err := kwStrList(a, "default_options")
	if err != nil {
		return err
	}
	for _, kv := range defaults {
		idx := strings.IndexByte(kv, '=')
		if idx < 0 {
			continue
		}
		name, raw := kv[:idx], kv[idx+1:]
		k := options.ProjectKey(name, in.Subproject, options.MachineHost)
		o, oerr := options.New(name, "", options.TypeString, nil, value.NewStr(raw), false, false, options.Deprecation{})
		if oerr != nil {
			return oerr
		}
		_ = in.Options.AddProjectOption(k, o)
	}
	return nil
}

func biMessage(in *Interpreter, site diag.Site, a evaluatedArgs) (value.Value, error) {
	parts := make([]string, 0, len(a.positional))
	for _, v := range a.positional {
		parts = append(parts, v.ToNative())
	}
	in.Warnings.Info("%s", strings.Join(parts, " "))
	return value.Value{}, nil
}

func biWarning(in *Interpreter, site diag.Site, a evaluatedArgs) (value.Value, error) {
	parts := make([]string, 0, len(a.positional))
	for _, v := range a.positional {
		parts = append(parts, v.ToNative())
	}
	in.Warnings.Warn(site, "%s", strings.Join(parts, " "))
	return value.Value{}, nil
}

func biError(in *Interpreter, site diag.Site, a evaluatedArgs) (value.Value, error) {
	parts := make([]string, 0, len(a.positional))
	for _, v := range a.positional {
		parts = append(parts, v.ToNative())
	}
	return value.Value{}, diag.InvalidCode(site, "%s", strings.Join(parts, " "))
}

func biFiles(in *Interpreter, site diag.Site, a evaluatedArgs) (value.Value, error) {
	names, err := posStrings(a)
	if err != nil {
		return value.Value{}, err
	}
	out := make([]value.Value, len(names))
	for i, n := range names {
		out[i] = value.NewFile(value.File{Subdir: in.Subdir, Name: n})
	}
	return value.NewList(out), nil
}

func biSetVariable(in *Interpreter, site diag.Site, a evaluatedArgs) (value.Value, error) {
	if len(a.positional) != 2 {
		return value.Value{}, diag.InvalidArguments(site, "set_variable() requires (name, value)")
	}
	name, ok := a.positional[0].Str()
	if !ok {
		return value.Value{}, diag.InvalidArguments(site, "set_variable() name must be a string")
	}
	if reservedBuiltinNames[name] {
		return value.Value{}, diag.InvalidCode(site, "cannot assign to built-in name %q", name)
	}
	in.variables[name] = a.positional[1]
	return value.Value{}, nil
}

// biImport returns a handle naming the requested module; only "pkgconfig"
// is materially supported (pkgconfig_gen is exposed both as this module's
// .generate() and as a flat built-in for scripts that skip import()).
func biImport(in *Interpreter, site diag.Site, a evaluatedArgs) (value.Value, error) {
	if len(a.positional) != 1 {
		return value.Value{}, diag.InvalidArguments(site, "import() requires a module name")
	}
	name, ok := a.positional[0].Str()
	if !ok {
		return value.Value{}, diag.InvalidArguments(site, "import() module name must be a string")
	}
	return value.NewObject(&ModuleObj{Name: name, owner: in}), nil
}

// biRunCommand runs an external command synchronously and captures its
// output. The host/build distinction is not tracked here; cross-aware
// dispatch belongs to a full backend (spec Non-goals).
func biRunCommand(in *Interpreter, site diag.Site, a evaluatedArgs) (value.Value, error) {
	if len(a.positional) < 1 {
		return value.Value{}, diag.InvalidArguments(site, "run_command() requires a command")
	}
	cmdName, ok := a.positional[0].Str()
	if !ok {
		if f, ok := a.positional[0].File(); ok {
			cmdName = filepath.Join(in.SourceDir, f.Subdir, f.Name)
		} else {
			return value.Value{}, diag.InvalidArguments(site, "run_command() first argument must be a command name or file")
		}
	}
	var args []string
	for _, v := range a.positional[1:] {
		args = append(args, v.ToNative())
	}
	checkFail := kwBool(a, "check", false)
	stdout, stderr, err := runCapture(context.Background(), in.SourceDir, cmdName, args)
	if err != nil && checkFail {
		return value.Value{}, diag.InvalidCode(site, "run_command() %s failed: %v", cmdName, err)
	}
	return value.NewObject(&RunResultObj{Stdout: stdout, Stderr: stderr, ReturnedError: err != nil}), nil
}

func biFindProgram(in *Interpreter, site diag.Site, a evaluatedArgs) (value.Value, error) {
	names, err := posStrings(a)
	if err != nil {
		return value.Value{}, err
	}
	required := true
	if v, ok := a.keyword["required"]; ok {
		if b, ok := v.Bool(); ok {
			required = b
		}
	}
	for _, name := range names {
		if path, ok := lookPath(name); ok {
			return value.NewObject(&ExternalProgramObj{Name: name, Path: path, Found: true}), nil
		}
	}
	if required {
		return value.Value{}, diag.Environment("program(s) not found: %v", names)
	}
	return value.NewObject(&ExternalProgramObj{Found: false}), nil
}

func biFindLibrary(in *Interpreter, site diag.Site, a evaluatedArgs) (value.Value, error) {
	if len(a.positional) != 1 {
		return value.Value{}, diag.InvalidArguments(site, "find_library() requires a library name")
	}
	name, ok := a.positional[0].Str()
	if !ok {
		return value.Value{}, diag.InvalidArguments(site, "find_library() name must be a string")
	}
	required := true
	if v, ok := a.keyword["required"]; ok {
		if b, ok := v.Bool(); ok {
			required = b
		}
	}
	found := findSystemLibrary(name)
	if !found && required {
		return value.Value{}, diag.Environment("library %q not found", name)
	}
	return value.NewDependency(&DependencyObj{Name: name, Found: found}), nil
}

func biDependency(in *Interpreter, site diag.Site, a evaluatedArgs) (value.Value, error) {
	if len(a.positional) < 1 {
		return value.Value{}, diag.InvalidArguments(site, "dependency() requires a name")
	}
	name, ok := a.positional[0].Str()
	if !ok {
		return value.Value{}, diag.InvalidArguments(site, "dependency() name must be a string")
	}
	required := true
	if v, ok := a.keyword["required"]; ok {
		if b, ok := v.Bool(); ok {
			required = b
		}
	}
	version := kwStr(a, "version", "")

	found, actualVersion := probePkgConfig(name)
	if !found {
		if fallback, ok := a.keyword["fallback"]; ok {
			_ = fallback // fallback: is accepted but unused; no subproject fallback is attempted
		}
		if required {
			return value.Value{}, diag.Environment("dependency %q not found", name)
		}
		return value.NewDependency(&DependencyObj{Name: name, Found: false}), nil
	}
	if version != "" && actualVersion != "" && actualVersion != version {
		in.Warnings.Warn(site, "dependency %q version %q does not satisfy requested %q", name, actualVersion, version)
	}
	return value.NewDependency(&DependencyObj{Name: name, Found: true, Version: actualVersion}), nil
}

func biDeclareDependency(in *Interpreter, site diag.Site, a evaluatedArgs) (value.Value, error) {
	version := in.activeProject.Version
	return value.NewDependency(&DependencyObj{Name: in.activeProject.Name, Found: true, Version: version}), nil
}

func biConfigurationData(in *Interpreter, site diag.Site, a evaluatedArgs) (value.Value, error) {
	return value.NewObject(NewConfigurationData()), nil
}

func biGetOption(in *Interpreter, site diag.Site, a evaluatedArgs) (value.Value, error) {
	if len(a.positional) != 1 {
		return value.Value{}, diag.InvalidArguments(site, "get_option() requires exactly one argument")
	}
	name, ok := a.positional[0].Str()
	if !ok {
		return value.Value{}, diag.InvalidArguments(site, "get_option() argument must be a string")
	}
	sub := in.Subproject
	v, err := in.Options.GetValueFor(name, &sub)
	if err != nil {
		return value.Value{}, diag.Option("get_option(%q): %v", name, err)
	}
	return v, nil
}
