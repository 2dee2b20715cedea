package checks

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/standardbeagle/mesongo/internal/diag"
)

// Probe runs deterministic snippet compilations in a dedicated
// sub-directory of the scratch dir (spec §4.8). Flags are ExtraFlags
// followed by environment-derived flags (CPPFLAGS, CFLAGS or CXXFLAGS,
// LDFLAGS); no compiler-specific default flags and no project or global
// arguments are added.
type Probe struct {
	ScratchDir string
	Compiler   []string // exelist
	Language   string
	ExtraFlags []string
	ExeWrapper []string // for run() when cross and a wrapper is available
	Cache      *Cache
	Log        *diag.Sink
	seq        int
}

func NewProbe(scratchDir string, compiler []string, language string, extraFlags []string, cache *Cache, log *diag.Sink) *Probe {
	return &Probe{
		ScratchDir: scratchDir,
		Compiler:   compiler,
		Language:   language,
		ExtraFlags: extraFlags,
		Cache:      cache,
		Log:        log,
	}
}

func envFlags(language string) []string {
	var out []string
	out = append(out, splitEnv(os.Getenv("CPPFLAGS"))...)
	switch language {
	case "c":
		out = append(out, splitEnv(os.Getenv("CFLAGS"))...)
	case "cpp":
		out = append(out, splitEnv(os.Getenv("CXXFLAGS"))...)
	}
	out = append(out, splitEnv(os.Getenv("LDFLAGS"))...)
	return out
}

func splitEnv(v string) []string {
	if v == "" {
		return nil
	}
	return strings.Fields(v)
}

func (p *Probe) compilerID() string {
	return strings.Join(p.Compiler, " ")
}

func (p *Probe) allFlags() []string {
	var out []string
	out = append(out, p.ExtraFlags...)
	out = append(out, envFlags(p.Language)...)
	return out
}

// scratchSubdir returns a fresh dedicated sub-directory so no two checks
// may share one (spec §5).
func (p *Probe) scratchSubdir(label string) (string, error) {
	p.seq++
	dir := filepath.Join(p.ScratchDir, fmt.Sprintf("check_%d_%s", p.seq, label))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", diag.Internal("cannot create scratch sub-directory %s: %v", dir, err)
	}
	return dir, nil
}

func srcExt(language string) string {
	switch language {
	case "cpp":
		return ".cc"
	default:
		return ".c"
	}
}

// Compiles reports whether code compiles, memoized by (compiler, language,
// code, flags).
func (p *Probe) Compiles(ctx context.Context, code, name string) bool {
	r := p.Cache.GetOrCompute(p.compilerID(), p.Language, code, p.allFlags(), func() Result {
		return p.compileOnly(ctx, code, name)
	})
	p.logResult("compiles", name, r.Compiles)
	return r.Compiles
}

func (p *Probe) compileOnly(ctx context.Context, code, name string) Result {
	dir, err := p.scratchSubdir(safeLabel(name))
	if err != nil {
		return Result{Value: -1}
	}
	srcPath := filepath.Join(dir, "probe"+srcExt(p.Language))
	if err := os.WriteFile(srcPath, []byte(code), 0o644); err != nil {
		return Result{Value: -1}
	}
	outPath := filepath.Join(dir, "probe.o")
	args := append(append([]string{}, p.allFlags()...), "-c", srcPath, "-o", outPath)
	ok := p.runCompiler(ctx, args)
	return Result{Compiles: ok, Value: boolToInt(ok)}
}

// Run compiles and executes code, returning its returncode/stdout/stderr;
// meaningful only when not cross or an exe wrapper is available (spec
// §4.8).
func (p *Probe) Run(ctx context.Context, code, name string) Result {
	return p.Cache.GetOrCompute(p.compilerID(), p.Language, "RUN:"+code, p.allFlags(), func() Result {
		return p.compileAndRun(ctx, code, name)
	})
}

func (p *Probe) compileAndRun(ctx context.Context, code, name string) Result {
	dir, err := p.scratchSubdir(safeLabel(name))
	if err != nil {
		return Result{Value: -1}
	}
	srcPath := filepath.Join(dir, "probe"+srcExt(p.Language))
	if err := os.WriteFile(srcPath, []byte(code), 0o644); err != nil {
		return Result{Value: -1}
	}
	binPath := filepath.Join(dir, "probe.bin")
	args := append(append([]string{}, p.allFlags()...), srcPath, "-o", binPath)
	if !p.runCompiler(ctx, args) {
		return Result{Compiles: false, Value: -1}
	}

	runArgs := append(append([]string{}, p.ExeWrapper...), binPath)
	exe := runArgs[0]
	rest := runArgs[1:]
	cmd := exec.CommandContext(ctx, exe, rest...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	runErr := cmd.Run()
	rc := 0
	if runErr != nil {
		if ee, ok := runErr.(*exec.ExitError); ok {
			rc = ee.ExitCode()
		} else {
			return Result{Compiles: true, Value: -1}
		}
	}
	return Result{Compiles: true, RC: rc, Stdout: stdout.String(), Stderr: stderr.String(), Value: int64(rc)}
}

func (p *Probe) runCompiler(ctx context.Context, args []string) bool {
	if len(p.Compiler) == 0 {
		return false
	}
	exe := p.Compiler[0]
	full := append(append([]string{}, p.Compiler[1:]...), args...)
	cmd := exec.CommandContext(ctx, exe, full...)
	return cmd.Run() == nil
}

// HasHeader reports whether #include <name> compiles.
func (p *Probe) HasHeader(ctx context.Context, name string) bool {
	code := fmt.Sprintf("#include <%s>\nint main(void) { return 0; }\n", name)
	return p.Compiles(ctx, code, "has_header_"+name)
}

// HasFunction reports whether taking the address of name (optionally after
// prefix code) compiles. The snippet is compiled with -c and not linked.
func (p *Probe) HasFunction(ctx context.Context, name, prefix string) bool {
	code := fmt.Sprintf("%s\nvoid *volatile p = (void*)&%s;\nint main(void) { return (int)(long)p; }\n", prefix, name)
	return p.Compiles(ctx, code, "has_function_"+name)
}

// HasMember reports whether typ has a member named member.
func (p *Probe) HasMember(ctx context.Context, typ, member, prefix string) bool {
	code := fmt.Sprintf("%s\nint main(void) { %s s; (void)s.%s; return 0; }\n", prefix, typ, member)
	return p.Compiles(ctx, code, "has_member_"+typ+"_"+member)
}

// HasType reports whether typ is a recognized type.
func (p *Probe) HasType(ctx context.Context, typ, prefix string) bool {
	code := fmt.Sprintf("%s\nint main(void) { %s s; (void)s; return 0; }\n", prefix, typ)
	return p.Compiles(ctx, code, "has_type_"+typ)
}

// Sizeof returns sizeof(typ), or -1 if the probe fails (spec §4.8).
func (p *Probe) Sizeof(ctx context.Context, typ, prefix string) int64 {
	code := fmt.Sprintf("%s\n#include <stdio.h>\nint main(void) { printf(\"%%lu\", (unsigned long)sizeof(%s)); return 0; }\n", prefix, typ)
	r := p.Run(ctx, code, "sizeof_"+typ)
	if !r.Compiles || r.RC != 0 {
		return -1
	}
	n, err := strconv.ParseInt(strings.TrimSpace(r.Stdout), 10, 64)
	if err != nil {
		return -1
	}
	return n
}

// Alignment returns alignof(typ).
func (p *Probe) Alignment(ctx context.Context, typ string) int64 {
	code := fmt.Sprintf("#include <stddef.h>\n#include <stdio.h>\nstruct _align_probe { char c; %s x; };\nint main(void) { printf(\"%%lu\", (unsigned long)offsetof(struct _align_probe, x)); return 0; }\n", typ)
	r := p.Run(ctx, code, "alignof_"+typ)
	if !r.Compiles || r.RC != 0 {
		return -1
	}
	n, err := strconv.ParseInt(strings.TrimSpace(r.Stdout), 10, 64)
	if err != nil {
		return -1
	}
	return n
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func safeLabel(name string) string {
	if name == "" {
		return "anon"
	}
	var sb strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

func (p *Probe) logResult(op, name string, ok bool) {
	if p.Log == nil {
		return
	}
	verdict := "NO"
	if ok {
		verdict = "YES"
	}
	p.Log.Info("%s(%s): %s", op, name, verdict)
}
