package interp

import (
	"context"
	"path/filepath"

	"github.com/standardbeagle/mesongo/internal/checks"
	"github.com/standardbeagle/mesongo/internal/diag"
	"github.com/standardbeagle/mesongo/internal/graph"
	"github.com/standardbeagle/mesongo/internal/toolchain"
	"github.com/standardbeagle/mesongo/internal/value"
)

// BuildTargetObj wraps a graph.Target with its method table (spec §3.3).
type BuildTargetObj struct {
	Target *graph.Target
	owner  *Interpreter
}

func (o *BuildTargetObj) ObjectKind() string { return "build_target" }

func (o *BuildTargetObj) Method(name string) (value.Callable, bool) {
	switch name {
	case "full_path":
		return func(pos []value.Value, kw map[string]value.Value) (value.Value, error) {
			return value.NewStr(o.Target.Name), nil
		}, true
	case "name":
		return func(pos []value.Value, kw map[string]value.Value) (value.Value, error) {
			return value.NewStr(o.Target.Name), nil
		}, true
	case "extract_objects":
		return func(pos []value.Value, kw map[string]value.Value) (value.Value, error) {
			files, err := coerceFiles(pos)
			if err != nil {
				return value.Value{}, err
			}
			caller := &graph.Target{Subproject: o.owner.Subproject}
			extracted, err := graph.ExtractObjects(caller, o.Target, files, false)
			if err != nil {
				return value.Value{}, err
			}
			return value.NewObject(&ExtractedObjectsObj{extracted}), nil
		}, true
	default:
		return nil, false
	}
}

func coerceFiles(vals []value.Value) ([]value.File, error) {
	out := make([]value.File, 0, len(vals))
	for _, v := range vals {
		f, ok := v.File()
		if !ok {
			return nil, diag.InvalidArguments(diag.Site{}, "expected a file argument")
		}
		out = append(out, f)
	}
	return out, nil
}

// ExtractedObjectsObj wraps graph.ExtractedObjects.
type ExtractedObjectsObj struct {
	Objects graph.ExtractedObjects
}

func (o *ExtractedObjectsObj) ObjectKind() string { return "extracted_objects" }
func (o *ExtractedObjectsObj) Method(name string) (value.Callable, bool) { return nil, false }

// CustomTargetObj wraps a graph.CustomTarget.
type CustomTargetObj struct {
	CT *graph.CustomTarget
}

func (o *CustomTargetObj) ObjectKind() string { return "custom_target" }

func (o *CustomTargetObj) Method(name string) (value.Callable, bool) {
	switch name {
	case "full_path":
		return func(pos []value.Value, kw map[string]value.Value) (value.Value, error) {
			return value.NewStr(o.CT.Name), nil
		}, true
	case "to_list":
		return func(pos []value.Value, kw map[string]value.Value) (value.Value, error) {
			items := make([]value.Value, len(o.CT.Outputs))
			for i, out := range o.CT.Outputs {
				items[i] = value.NewFile(value.File{IsBuilt: true, Subdir: o.CT.Subdir, Name: out})
			}
			return value.NewList(items), nil
		}, true
	default:
		return nil, false
	}
}

// GeneratorObj wraps a graph.Generator and implements process().
type GeneratorObj struct {
	Gen *graph.Generator
}

func (o *GeneratorObj) ObjectKind() string { return "generator" }

func (o *GeneratorObj) Method(name string) (value.Callable, bool) {
	if name != "process" {
		return nil, false
	}
	return func(pos []value.Value, kw map[string]value.Value) (value.Value, error) {
		files, err := coerceFiles(pos)
		if err != nil {
			return value.Value{}, err
		}
		gl := &graph.GeneratedList{Generator: o.Gen, Inputs: files}
		return value.NewObject(&GeneratedListObj{gl}), nil
	}, true
}

// GeneratedListObj wraps a graph.GeneratedList.
type GeneratedListObj struct {
	List *graph.GeneratedList
}

func (o *GeneratedListObj) ObjectKind() string                          { return "generated_list" }
func (o *GeneratedListObj) Method(name string) (value.Callable, bool)   { return nil, false }

// ConfigurationDataObj wraps an ordered key->Value configuration map and
// enforces the "used once consumed" immutability rule (spec §4.5
// configure_file): once Used is set, further Set calls raise.
type ConfigurationDataObj struct {
	Values map[string]value.Value
	Order  []string
	Used   bool
}

func NewConfigurationData() *ConfigurationDataObj {
	return &ConfigurationDataObj{Values: make(map[string]value.Value)}
}

func (o *ConfigurationDataObj) ObjectKind() string { return "configuration_data" }

func (o *ConfigurationDataObj) Method(name string) (value.Callable, bool) {
	switch name {
	case "set":
		return func(pos []value.Value, kw map[string]value.Value) (value.Value, error) {
			if o.Used {
				return value.Value{}, diag.InvalidCode(diag.Site{}, "configuration_data object has already been used and is now immutable")
			}
			if len(pos) != 2 {
				return value.Value{}, diag.InvalidArguments(diag.Site{}, "set() requires (key, value)")
			}
			key, ok := pos[0].Str()
			if !ok {
				return value.Value{}, diag.InvalidArguments(diag.Site{}, "configuration_data key must be a string")
			}
			if _, exists := o.Values[key]; !exists {
				o.Order = append(o.Order, key)
			}
			o.Values[key] = pos[1]
			return value.Value{}, nil
		}, true
	case "set10":
		return func(pos []value.Value, kw map[string]value.Value) (value.Value, error) {
			if o.Used {
				return value.Value{}, diag.InvalidCode(diag.Site{}, "configuration_data object has already been used and is now immutable")
			}
			if len(pos) != 2 {
				return value.Value{}, diag.InvalidArguments(diag.Site{}, "set10() requires (key, value)")
			}
			key, _ := pos[0].Str()
			b, ok := pos[1].Bool()
			if !ok {
				return value.Value{}, diag.InvalidArguments(diag.Site{}, "set10() value must be boolean")
			}
			n := int64(0)
			if b {
				n = 1
			}
			if _, exists := o.Values[key]; !exists {
				o.Order = append(o.Order, key)
			}
			o.Values[key] = value.NewInt(n)
			return value.Value{}, nil
		}, true
	case "get":
		return func(pos []value.Value, kw map[string]value.Value) (value.Value, error) {
			key, _ := pos[0].Str()
			if v, ok := o.Values[key]; ok {
				return v, nil
			}
			if len(pos) > 1 {
				return pos[1], nil
			}
			return value.Value{}, diag.InvalidArguments(diag.Site{}, "configuration_data has no key %q", key)
		}, true
	case "has":
		return func(pos []value.Value, kw map[string]value.Value) (value.Value, error) {
			key, _ := pos[0].Str()
			_, ok := o.Values[key]
			return value.NewBool(ok), nil
		}, true
	default:
		return nil, false
	}
}

// IncludeDirsObj wraps include_directories() results.
type IncludeDirsObj struct {
	Dirs []string
}

func (o *IncludeDirsObj) ObjectKind() string                        { return "include_directories" }
func (o *IncludeDirsObj) Method(name string) (value.Callable, bool) { return nil, false }

// ExternalProgramObj wraps find_program() results.
type ExternalProgramObj struct {
	Name  string
	Path  string
	Found bool
}

func (o *ExternalProgramObj) ObjectKind() string { return "external_program" }

func (o *ExternalProgramObj) Method(name string) (value.Callable, bool) {
	switch name {
	case "found":
		return func(pos []value.Value, kw map[string]value.Value) (value.Value, error) {
			return value.NewBool(o.Found), nil
		}, true
	case "path", "full_path":
		return func(pos []value.Value, kw map[string]value.Value) (value.Value, error) {
			return value.NewStr(o.Path), nil
		}, true
	default:
		return nil, false
	}
}

// DependencyObj wraps dependency()/declare_dependency() results.
type DependencyObj struct {
	Name    string
	Found   bool
	Version string
}

func (o *DependencyObj) ObjectKind() string { return "dependency" }

func (o *DependencyObj) Method(name string) (value.Callable, bool) {
	switch name {
	case "found":
		return func(pos []value.Value, kw map[string]value.Value) (value.Value, error) {
			return value.NewBool(o.Found), nil
		}, true
	case "version":
		return func(pos []value.Value, kw map[string]value.Value) (value.Value, error) {
			return value.NewStr(o.Version), nil
		}, true
	case "name":
		return func(pos []value.Value, kw map[string]value.Value) (value.Value, error) {
			return value.NewStr(o.Name), nil
		}, true
	default:
		return nil, false
	}
}

// RunResultObj wraps the captured output of run_command() (spec §4.5).
type RunResultObj struct {
	Stdout        string
	Stderr        string
	ReturnedError bool
}

func (o *RunResultObj) ObjectKind() string { return "run_result" }

func (o *RunResultObj) Method(name string) (value.Callable, bool) {
	switch name {
	case "stdout":
		return func(pos []value.Value, kw map[string]value.Value) (value.Value, error) {
			return value.NewStr(o.Stdout), nil
		}, true
	case "stderr":
		return func(pos []value.Value, kw map[string]value.Value) (value.Value, error) {
			return value.NewStr(o.Stderr), nil
		}, true
	case "returncode":
		return func(pos []value.Value, kw map[string]value.Value) (value.Value, error) {
			if o.ReturnedError {
				return value.NewInt(1), nil
			}
			return value.NewInt(0), nil
		}, true
	default:
		return nil, false
	}
}

// ModuleObj is the handle import() returns; only pkgconfig's generate() is
// implemented, matching SPEC_FULL.md's pkgconfig_gen wiring.
type ModuleObj struct {
	Name  string
	owner *Interpreter
}

func (o *ModuleObj) ObjectKind() string { return "module:" + o.Name }

func (o *ModuleObj) Method(name string) (value.Callable, bool) {
	if o.Name != "pkgconfig" || name != "generate" {
		return nil, false
	}
	return func(pos []value.Value, kw map[string]value.Value) (value.Value, error) {
		return biPkgconfigGenImpl(o.owner, diag.Site{}, evaluatedArgs{positional: pos, keyword: kw})
	}, true
}

// MesonObj is the "meson" built-in, exposing get_compiler() to reach the
// compiler-check protocol (spec §4.8).
type MesonObj struct {
	owner *Interpreter
}

func (o *MesonObj) ObjectKind() string { return "meson" }

func (o *MesonObj) Method(name string) (value.Callable, bool) {
	switch name {
	case "get_compiler":
		return func(pos []value.Value, kw map[string]value.Value) (value.Value, error) {
			if len(pos) < 1 {
				return value.Value{}, diag.InvalidArguments(diag.Site{}, "get_compiler() requires a language")
			}
			lang, ok := pos[0].Str()
			if !ok {
				return value.Value{}, diag.InvalidArguments(diag.Site{}, "get_compiler() language must be a string")
			}
			c, err := o.owner.Detector.DetectCompiler(context.Background(), lang, false, nil, nil)
			if err != nil {
				return value.Value{}, err
			}
			scratch := filepath.Join(o.owner.BuildDir, "meson-private", "compiler-checks")
			probe := checks.NewProbe(scratch, c.Exelist, lang, nil, o.owner.Checks, o.owner.Warnings)
			return value.NewObject(&CompilerObj{Probe: probe, Compiler: c}), nil
		}, true
	case "project_name":
		return func(pos []value.Value, kw map[string]value.Value) (value.Value, error) {
			if o.owner.activeProject == nil {
				return value.Value{}, diag.InvalidCode(diag.Site{}, "project() has not been called yet")
			}
			return value.NewStr(o.owner.activeProject.Name), nil
		}, true
	case "project_version":
		return func(pos []value.Value, kw map[string]value.Value) (value.Value, error) {
			if o.owner.activeProject == nil {
				return value.Value{}, diag.InvalidCode(diag.Site{}, "project() has not been called yet")
			}
			return value.NewStr(o.owner.activeProject.Version), nil
		}, true
	default:
		return nil, false
	}
}

// CompilerObj wraps a checks.Probe, exposing the compiler-check protocol
// (has_header, has_function, ...) to build definitions (spec §4.8).
type CompilerObj struct {
	Probe    *checks.Probe
	Compiler *toolchain.Compiler
}

func (o *CompilerObj) ObjectKind() string { return "compiler" }

func (o *CompilerObj) Method(name string) (value.Callable, bool) {
	switch name {
	case "has_header":
		return func(pos []value.Value, kw map[string]value.Value) (value.Value, error) {
			n, err := requireStr(pos, "has_header")
			if err != nil {
				return value.Value{}, err
			}
			return value.NewBool(o.Probe.HasHeader(context.Background(), n)), nil
		}, true
	case "has_function":
		return func(pos []value.Value, kw map[string]value.Value) (value.Value, error) {
			n, err := requireStr(pos, "has_function")
			if err != nil {
				return value.Value{}, err
			}
			prefix := kwStr(evaluatedArgs{keyword: kw}, "prefix", "")
			return value.NewBool(o.Probe.HasFunction(context.Background(), n, prefix)), nil
		}, true
	case "has_type":
		return func(pos []value.Value, kw map[string]value.Value) (value.Value, error) {
			n, err := requireStr(pos, "has_type")
			if err != nil {
				return value.Value{}, err
			}
			prefix := kwStr(evaluatedArgs{keyword: kw}, "prefix", "")
			return value.NewBool(o.Probe.HasType(context.Background(), n, prefix)), nil
		}, true
	case "has_member":
		return func(pos []value.Value, kw map[string]value.Value) (value.Value, error) {
			if len(pos) < 2 {
				return value.Value{}, diag.InvalidArguments(diag.Site{}, "has_member() requires (type, member)")
			}
			typ, _ := pos[0].Str()
			member, _ := pos[1].Str()
			prefix := kwStr(evaluatedArgs{keyword: kw}, "prefix", "")
			return value.NewBool(o.Probe.HasMember(context.Background(), typ, member, prefix)), nil
		}, true
	case "sizeof":
		return func(pos []value.Value, kw map[string]value.Value) (value.Value, error) {
			n, err := requireStr(pos, "sizeof")
			if err != nil {
				return value.Value{}, err
			}
			prefix := kwStr(evaluatedArgs{keyword: kw}, "prefix", "")
			return value.NewInt(o.Probe.Sizeof(context.Background(), n, prefix)), nil
		}, true
	case "alignment":
		return func(pos []value.Value, kw map[string]value.Value) (value.Value, error) {
			n, err := requireStr(pos, "alignment")
			if err != nil {
				return value.Value{}, err
			}
			return value.NewInt(o.Probe.Alignment(context.Background(), n)), nil
		}, true
	case "compiles":
		return func(pos []value.Value, kw map[string]value.Value) (value.Value, error) {
			code, err := requireStr(pos, "compiles")
			if err != nil {
				return value.Value{}, err
			}
			return value.NewBool(o.Probe.Compiles(context.Background(), code, "compiles_check")), nil
		}, true
	case "version":
		return func(pos []value.Value, kw map[string]value.Value) (value.Value, error) {
			return value.NewStr(o.Compiler.Version), nil
		}, true
	case "get_id":
		return func(pos []value.Value, kw map[string]value.Value) (value.Value, error) {
			return value.NewStr(string(o.Compiler.ID)), nil
		}, true
	default:
		return nil, false
	}
}

func requireStr(pos []value.Value, fn string) (string, error) {
	if len(pos) < 1 {
		return "", diag.InvalidArguments(diag.Site{}, "%s() requires a string argument", fn)
	}
	s, ok := pos[0].Str()
	if !ok {
		return "", diag.InvalidArguments(diag.Site{}, "%s() argument must be a string", fn)
	}
	return s, nil
}

// SubprojectObj wraps a loaded subproject's handle, the value
// subproject(name) returns to the caller.
type SubprojectObj struct {
	Name  string
	Found bool
	Inner *Interpreter
}

func (o *SubprojectObj) ObjectKind() string { return "subproject" }

func (o *SubprojectObj) Method(name string) (value.Callable, bool) {
	switch name {
	case "found":
		return func(pos []value.Value, kw map[string]value.Value) (value.Value, error) {
			return value.NewBool(o.Found), nil
		}, true
	case "get_variable":
		return func(pos []value.Value, kw map[string]value.Value) (value.Value, error) {
			if len(pos) < 1 {
				return value.Value{}, diag.InvalidArguments(diag.Site{}, "get_variable() requires a name")
			}
			key, ok := pos[0].Str()
			if !ok {
				return value.Value{}, diag.InvalidArguments(diag.Site{}, "get_variable() name must be a string")
			}
			if o.Inner == nil {
				return value.Value{}, diag.InvalidCode(diag.Site{}, "subproject %q was not found", o.Name)
			}
			if v, ok := o.Inner.variables[key]; ok {
				return v, nil
			}
			if len(pos) > 1 {
				return pos[1], nil
			}
			return value.Value{}, diag.InvalidCode(diag.Site{}, "subproject %q has no variable %q", o.Name, key)
		}, true
	default:
		return nil, false
	}
}
