package interp

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/standardbeagle/mesongo/internal/ast"
	"github.com/standardbeagle/mesongo/internal/diag"
	"github.com/standardbeagle/mesongo/internal/graph"
	"github.com/standardbeagle/mesongo/internal/value"
)

func init() {
	register("subdir", builtinSpec{noKwargs: true, handler: biSubdir})
	register("subproject", builtinSpec{handler: biSubproject})
	register("configure_file", builtinSpec{handler: biConfigureFile})
	register("vcs_tag", builtinSpec{handler: biVcsTag})
	register("gettext", builtinSpec{handler: biGettext})
	register("pkgconfig_gen", builtinSpec{handler: biPkgconfigGenImpl})
}

// biSubdir implements subdir(name): it descends into name/meson.build in
// the same interpreter (variables and the option/graph state are shared,
// only in.Subdir changes), guarding against re-visiting a directory and
// against escaping the source tree (spec §4.5, §8 "subdir() cannot
// traverse outside the project").
func biSubdir(in *Interpreter, site diag.Site, a evaluatedArgs) (value.Value, error) {
	if len(a.positional) != 1 {
		return value.Value{}, diag.InvalidArguments(site, "subdir() requires exactly one argument")
	}
	rel, ok := a.positional[0].Str()
	if !ok {
		return value.Value{}, diag.InvalidArguments(site, "subdir() argument must be a string")
	}
	if strings.Contains(rel, "..") || filepath.IsAbs(rel) {
		return value.Value{}, diag.InvalidCode(site, "subdir(): %q escapes the source tree", rel)
	}

	newSubdir := filepath.Join(in.Subdir, rel)
	abs := filepath.Clean(filepath.Join(in.SourceDir, newSubdir))
	if in.visitedSubdirs[abs] {
		return value.Value{}, diag.InvalidCode(site, "subdir(): %q has already been visited", rel)
	}
	in.visitedSubdirs[abs] = true

	buildFile := filepath.Join(abs, "meson.build")
	src, err := os.ReadFile(buildFile)
	if err != nil {
		return value.Value{}, diag.Environment("subdir(): cannot read %s: %v", buildFile, err)
	}
	in.buildDefFiles = append(in.buildDefFiles, buildFile)

	block, err := ast.Parse(buildFile, string(src))
	if err != nil {
		return value.Value{}, err
	}

	savedSubdir := in.Subdir
	in.Subdir = newSubdir
	_, err = in.evalBlock(block)
	in.Subdir = savedSubdir
	return value.Value{}, err
}

// biSubproject implements subproject(name, required:, default_options:,
// version:) per spec §4.5 and §8 scenario 3 (cycle detection). Each
// subproject gets its own Interpreter sharing Graph/Options/Detector, and
// is evaluated at most once per configure run (cached by name).
func biSubproject(in *Interpreter, site diag.Site, a evaluatedArgs) (value.Value, error) {
	if in.Subdir != "" {
		return value.Value{}, diag.InvalidCode(site, "subproject() may only be called from the top-level meson.build")
	}
	if len(a.positional) != 1 {
		return value.Value{}, diag.InvalidArguments(site, "subproject() requires a name")
	}
	name, ok := a.positional[0].Str()
	if !ok {
		return value.Value{}, diag.InvalidArguments(site, "subproject() name must be a string")
	}
	required := true
	if v, ok := a.keyword["required"]; ok {
		if b, ok := v.Bool(); ok {
			required = b
		}
	}

	for _, s := range in.subprojectStack {
		if s == name {
			return value.Value{}, diag.InvalidCode(site, "recursive subproject inclusion detected: %q", name)
		}
	}

	if cached, ok := in.subprojectsCache[name]; ok {
		return value.NewObject(&SubprojectObj{Name: name, Found: true, Inner: cached}), nil
	}

	in.Graph.FreezeGlobalArguments()

	subdirName := "subprojects"
	if in.activeProject != nil {
		subdirName = in.activeProject.SubdirName
	}
	srcDir := filepath.Join(in.SourceDir, subdirName, name)
	buildFile := filepath.Join(srcDir, "meson.build")
	src, err := os.ReadFile(buildFile)
	if err != nil {
		if required {
			return value.Value{}, diag.Environment("subproject(%q): %v", name, err)
		}
		return value.NewObject(&SubprojectObj{Name: name, Found: false}), nil
	}
	block, err := ast.Parse(buildFile, string(src))
	if err != nil {
		return value.Value{}, err
	}

	child := in.childFor(name, srcDir)
	if err := child.Run(block); err != nil {
		if required {
			return value.Value{}, diag.InvalidCode(site, "subproject(%q) failed: %v", name, err)
		}
		return value.NewObject(&SubprojectObj{Name: name, Found: false}), nil
	}

	in.Graph.FreezeGlobalArguments()
	in.subprojectsCache[name] = child
	return value.NewObject(&SubprojectObj{Name: name, Found: true, Inner: child}), nil
}

// biConfigureFile implements configure_file(input:, output:,
// configuration:) substitution of @VAR@ tokens and #mesondefine lines
// against a configuration_data() object (spec §4.5, §6.4). The write is
// atomic (dst~ then rename) and a no-op write preserves the existing
// mtime, matching the regeneration-stability invariant (spec §5).
func biConfigureFile(in *Interpreter, site diag.Site, a evaluatedArgs) (value.Value, error) {
	inputRel := kwStr(a, "input", "")
	outputRel := kwStr(a, "output", "")
	if outputRel == "" {
		return value.Value{}, diag.InvalidArguments(site, "configure_file() requires output:")
	}

	var cfg *ConfigurationDataObj
	if v, ok := a.keyword["configuration"]; ok {
		obj, ok := v.Object()
		if !ok {
			return value.Value{}, diag.InvalidArguments(site, "configure_file() configuration: must be a configuration_data object")
		}
		cd, ok := obj.(*ConfigurationDataObj)
		if !ok {
			return value.Value{}, diag.InvalidArguments(site, "configure_file() configuration: must be a configuration_data object")
		}
		cfg = cd
		cfg.Used = true
	}

	outDir := filepath.Join(in.BuildDir, in.Subdir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return value.Value{}, diag.Environment("configure_file(): %v", err)
	}
	outPath := filepath.Join(outDir, outputRel)

	var rendered []byte
	if inputRel != "" {
		inPath := filepath.Join(in.SourceDir, in.Subdir, inputRel)
		raw, err := os.ReadFile(inPath)
		if err != nil {
			return value.Value{}, diag.Environment("configure_file(): %v", err)
		}
		out, err := substituteConfig(string(raw), cfg, in.Warnings, site)
		if err != nil {
			return value.Value{}, err
		}
		rendered = []byte(out)
	} else if cfg != nil {
		rendered = []byte(renderMesonConfigHeader(cfg))
	}

	if existing, err := os.ReadFile(outPath); err == nil && string(existing) == string(rendered) {
		return value.NewFile(value.File{IsBuilt: true, Subdir: in.Subdir, Name: outputRel}), nil
	}

	tmp := outPath + "~"
	if err := os.WriteFile(tmp, rendered, 0o644); err != nil {
		return value.Value{}, diag.Environment("configure_file(): %v", err)
	}
	if err := os.Rename(tmp, outPath); err != nil {
		return value.Value{}, diag.Environment("configure_file(): %v", err)
	}
	return value.NewFile(value.File{IsBuilt: true, Subdir: in.Subdir, Name: outputRel}), nil
}

// substituteConfig replaces @VAR@ tokens and expands #mesondefine lines
// against cfg, warning once per distinct undefined variable encountered
// (spec §8 "configure_file undefined-variable warning"). A #mesondefine
// line with fewer or more than two tokens is a configuration error
// (spec §8).
func substituteConfig(src string, cfg *ConfigurationDataObj, warn *diag.Sink, site diag.Site) (string, error) {
	lines := strings.Split(src, "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "#mesondefine") {
			fields := strings.Fields(line)
			if len(fields) != 2 {
				return "", diag.InvalidCode(site, "#mesondefine takes exactly one argument: %q", strings.TrimSpace(line))
			}
			name := fields[1]
			if cfg != nil {
				if v, ok := cfg.Values[name]; ok {
					lines[i] = mesondefineLine(name, v)
					continue
				}
			}
			lines[i] = "/* undef " + name + " */"
			continue
		}
		lines[i] = substituteAtVars(line, cfg, warn, site)
	}
	return strings.Join(lines, "\n"), nil
}

func mesondefineLine(name string, v value.Value) string {
	if b, ok := v.Bool(); ok {
		if b {
			return "#define " + name
		}
		return "#undef " + name
	}
	return "#define " + name + " " + v.ToNative()
}

func substituteAtVars(line string, cfg *ConfigurationDataObj, warn *diag.Sink, site diag.Site) string {
	var sb strings.Builder
	i := 0
	for i < len(line) {
		if line[i] == '@' {
			end := strings.IndexByte(line[i+1:], '@')
			if end >= 0 {
				name := line[i+1 : i+1+end]
				if cfg != nil {
					if v, ok := cfg.Values[name]; ok {
						sb.WriteString(v.ToNative())
						i = i + 1 + end + 1
						continue
					}
				}
				if warn != nil {
					warn.Warn(site, "configure_file(): undefined variable %q referenced in substitution", name)
				}
				sb.WriteByte('@')
				i++
				continue
			}
		}
		sb.WriteByte(line[i])
		i++
	}
	return sb.String()
}

// renderMesonConfigHeader renders a configuration_data object directly as
// a header (configure_file with no input:, spec §4.5).
func renderMesonConfigHeader(cfg *ConfigurationDataObj) string {
	var sb strings.Builder
	for _, name := range cfg.Order {
		sb.WriteString(mesondefineLine(name, cfg.Values[name]))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// biVcsTag implements vcs_tag(input:, output:, command:, replace_string:,
// fallback:): it runs the VCS-describe command at configure time, writes
// output with replace_string substituted by the tag (or fallback), and
// registers a build-always custom_target for that output. The registered
// custom_target carries no command (spec §4.5).
func biVcsTag(in *Interpreter, site diag.Site, a evaluatedArgs) (value.Value, error) {
	outputRel := kwStr(a, "output", "")
	if outputRel == "" {
		return value.Value{}, diag.InvalidArguments(site, "vcs_tag() requires output:")
	}
	cmd, err := kwStrList(a, "command")
	if err != nil {
		return value.Value{}, err
	}
	if len(cmd) == 0 {
		cmd = detectVCSCommand(in.SourceDir)
	}
	fallback := kwStr(a, "fallback", in.activeProject.Version)

	stdout, _, runErr := runCapture(context.Background(), in.SourceDir, cmd[0], cmd[1:])
	tag := strings.TrimSpace(stdout)
	if runErr != nil || tag == "" {
		tag = fallback
	}

	replaceString := kwStr(a, "replace_string", "@VCS_TAG@")
	var inputRel string
	if v, ok := a.keyword["input"]; ok {
		if f, ok := v.File(); ok {
			inputRel = f.Name
		} else if s, ok := v.Str(); ok {
			inputRel = s
		}
	}

	outDir := filepath.Join(in.BuildDir, in.Subdir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return value.Value{}, diag.Environment("vcs_tag(): %v", err)
	}
	outPath := filepath.Join(outDir, outputRel)
	var rendered string
	if inputRel != "" {
		raw, err := os.ReadFile(filepath.Join(in.SourceDir, in.Subdir, inputRel))
		if err == nil {
			rendered = strings.ReplaceAll(string(raw), replaceString, tag)
		}
	}
	if err := os.WriteFile(outPath, []byte(rendered), 0o644); err != nil {
		return value.Value{}, diag.Environment("vcs_tag(): %v", err)
	}

	ct := &graph.CustomTarget{Name: "vcs-tag-" + outputRel, Subdir: in.Subdir, Outputs: []string{outputRel}, BuildAlways: true}
	if err := in.Graph.AddCustomTarget(ct); err != nil {
		return value.Value{}, err
	}
	return value.NewObject(&CustomTargetObj{CT: ct}), nil
}

// detectVCSCommand probes for git/hg/svn/bzr metadata in srcDir, the
// auto-detection vcs_tag() performs absent an explicit command:
// (spec §4.5).
func detectVCSCommand(srcDir string) []string {
	probes := []struct {
		marker string
		cmd    []string
	}{
		{".git", []string{"git", "describe", "--dirty=+", "--always"}},
		{".hg", []string{"hg", "id", "-i"}},
		{".svn", []string{"svnversion"}},
		{".bzr", []string{"bzr", "revno"}},
	}
	for _, p := range probes {
		if _, err := os.Stat(filepath.Join(srcDir, p.marker)); err == nil {
			return p.cmd
		}
	}
	return []string{"true"}
}

func biGettext(in *Interpreter, site diag.Site, a evaluatedArgs) (value.Value, error) {
	if len(a.positional) < 1 {
		return value.Value{}, diag.InvalidArguments(site, "gettext() requires a package name")
	}
	name, _ := a.positional[0].Str()
	rt := &graph.RunTarget{Name: name + "-pot", Command: []string{"true"}}
	if err := in.Graph.AddRunTarget(rt); err != nil {
		return value.Value{}, err
	}
	return value.Value{}, nil
}

// biPkgconfigGenImpl implements pkgconfig_gen(libraries:, name:, version:,
// description:), rendering a <name>.pc file into the build tree (spec
// DOMAIN STACK pkg-config wiring). Reachable both as the flat builtin and
// as pkgconfig.generate() via ModuleObj.
func biPkgconfigGenImpl(in *Interpreter, site diag.Site, a evaluatedArgs) (value.Value, error) {
	name := kwStr(a, "name", in.activeProject.Name)
	version := kwStr(a, "version", in.activeProject.Version)
	description := kwStr(a, "description", "")

	var sb strings.Builder
	sb.WriteString("prefix=")
	prefix, _ := in.Options.GetValueFor("prefix", strPtr(in.Subproject))
	if s, ok := prefix.Str(); ok {
		sb.WriteString(s)
	}
	sb.WriteString("\n\n")
	sb.WriteString("Name: " + name + "\n")
	sb.WriteString("Description: " + description + "\n")
	sb.WriteString("Version: " + version + "\n")
	if libs, err := kwStrList(a, "libraries"); err == nil && len(libs) > 0 {
		sb.WriteString("Libs: -L${libdir} " + strings.Join(libs, " ") + "\n")
	}

	outDir := filepath.Join(in.BuildDir, "meson-private")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return value.Value{}, diag.Environment("pkgconfig_gen(): %v", err)
	}
	outPath := filepath.Join(outDir, name+".pc")
	if err := os.WriteFile(outPath, []byte(sb.String()), 0o644); err != nil {
		return value.Value{}, diag.Environment("pkgconfig_gen(): %v", err)
	}
	return value.NewFile(value.File{IsBuilt: true, Subdir: "meson-private", Name: name + ".pc"}), nil
}

func strPtr(s string) *string { return &s }
