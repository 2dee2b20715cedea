package interp

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"
)

// lookPath resolves a program name against PATH, the same mechanism
// find_program() relies on absent an explicit cross-file binaries entry
// (spec §4.5).
func lookPath(name string) (string, bool) {
	p, err := exec.LookPath(name)
	if err != nil {
		return "", false
	}
	return p, true
}

// runCapture executes cmd with args from dir, with a bounded timeout so a
// misbehaving run_command() invocation cannot hang configure indefinitely.
func runCapture(ctx context.Context, dir, cmd string, args []string) (stdout, stderr string, err error) {
	cctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	c := exec.CommandContext(cctx, cmd, args...)
	c.Dir = dir
	var out, errBuf bytes.Buffer
	c.Stdout = &out
	c.Stderr = &errBuf
	err = c.Run()
	return out.String(), errBuf.String(), err
}

// findSystemLibrary probes for a library via pkg-config, the lightweight
// substitute for full linker-search-path probing (spec Non-goals exclude a
// real linker driver).
func findSystemLibrary(name string) bool {
	_, ok := lookPath("pkg-config")
	if !ok {
		return false
	}
	_, _, err := runCapture(context.Background(), "", "pkg-config", []string{"--exists", name})
	return err == nil
}

// probePkgConfig resolves a dependency's found state and version via
// pkg-config --modversion (spec §4.5 dependency()).
func probePkgConfig(name string) (found bool, version string) {
	if _, ok := lookPath("pkg-config"); !ok {
		return false, ""
	}
	out, _, err := runCapture(context.Background(), "", "pkg-config", []string{"--modversion", name})
	if err != nil {
		return false, ""
	}
	return true, strings.TrimSpace(out)
}
