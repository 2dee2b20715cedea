package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/mesongo/internal/ast"
	"github.com/standardbeagle/mesongo/internal/coredata"
	"github.com/standardbeagle/mesongo/internal/diag"
	"github.com/standardbeagle/mesongo/internal/graph"
	"github.com/standardbeagle/mesongo/internal/interp"
	"github.com/standardbeagle/mesongo/internal/options"
	"github.com/standardbeagle/mesongo/internal/toolchain"
	"github.com/standardbeagle/mesongo/internal/value"
)

// configureArgs collects the resolved state of a `mesongo configure`
// invocation before anything is touched on disk.
type configureArgs struct {
	sourceDir string
	buildDir  string
	prefix    string
	libdir    string
	crossFile string
	nativeFile string
	backend   string
	buildtype string
	warnlevel string
	werror    bool
	defines   []string
	augments  []string
	undefines []string
}

func loadConfigureArgs(c *cli.Context) (*configureArgs, error) {
	srcDir := "."
	if c.NArg() > 0 {
		srcDir = c.Args().Get(0)
	}
	abs, err := filepath.Abs(srcDir)
	if err != nil {
		return nil, fmt.Errorf("resolving source directory %q: %w", srcDir, err)
	}
	buildDir := c.String("build-dir")
	if buildDir == "" {
		buildDir = "build"
	}
	absBuild, err := filepath.Abs(buildDir)
	if err != nil {
		return nil, fmt.Errorf("resolving build directory %q: %w", buildDir, err)
	}

	return &configureArgs{
		sourceDir:  abs,
		buildDir:   absBuild,
		prefix:     c.String("prefix"),
		libdir:     c.String("libdir"),
		crossFile:  c.String("cross-file"),
		nativeFile: c.String("native-file"),
		backend:    c.String("backend"),
		buildtype:  c.String("buildtype"),
		warnlevel:  c.String("warnlevel"),
		werror:     c.Bool("werror"),
		defines:    c.StringSlice("D"),
		augments:   c.StringSlice("A"),
		undefines:  c.StringSlice("U"),
	}, nil
}

// applyKeyValueFlags applies -D/-A/-U overrides onto store in the order
// the spec requires: defines and augments validate through SetValue/
// SetAugment, undefines clear back to the option's declared default.
func applyKeyValueFlags(store *options.Store, a *configureArgs) error {
	for _, kv := range a.defines {
		name, val, err := splitKeyValue(kv, "-D")
		if err != nil {
			return err
		}
		k := options.ParseKey(name)
		v, err := store.CoerceRaw(k, val)
		if err != nil {
			return err
		}
		if err := store.SetValue(k, v); err != nil {
			return err
		}
	}
	for _, kv := range a.augments {
		name, val, err := splitKeyValue(kv, "-A")
		if err != nil {
			return err
		}
		store.SetAugment(name, val)
	}
	for _, name := range a.undefines {
		k := options.ParseKey(name)
		def, err := store.Default(k)
		if err != nil {
			return err
		}
		if err := store.SetValue(k, def); err != nil {
			return err
		}
	}
	return nil
}

func splitKeyValue(kv, flag string) (name, val string, err error) {
	idx := strings.Index(kv, "=")
	if idx < 0 {
		return "", "", diag.Option("%s expects key=value, got %q", flag, kv)
	}
	return kv[:idx], kv[idx+1:], nil
}

func main() {
	app := &cli.App{
		Name:                   "mesongo",
		Usage:                  "a from-scratch build system configurator",
		UseShortOptionHandling: true,
		Commands: []*cli.Command{
			configureCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "mesongo:", err)
		var derr *diag.Error
		if errors.As(err, &derr) {
			os.Exit(derr.ExitCode())
		}
		os.Exit(1)
	}
}

func configureCommand() *cli.Command {
	return &cli.Command{
		Name:      "configure",
		Usage:     "read build definition files and produce build graph state",
		ArgsUsage: "[source-directory]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "build-dir", Aliases: []string{"C"}, Usage: "build directory", Value: "build"},
			&cli.StringFlag{Name: "prefix", Usage: "installation prefix"},
			&cli.StringFlag{Name: "libdir", Usage: "library install subdirectory"},
			&cli.StringFlag{Name: "cross-file", Usage: "cross-compilation definition file"},
			&cli.StringFlag{Name: "native-file", Usage: "native machine definition file"},
			&cli.StringFlag{Name: "backend", Usage: "build backend", Value: "ninja"},
			&cli.StringFlag{Name: "buildtype", Usage: "overall build type"},
			&cli.StringFlag{Name: "warnlevel", Usage: "compiler warning level"},
			&cli.BoolFlag{Name: "werror", Usage: "treat warnings as errors"},
			&cli.StringSliceFlag{Name: "D", Usage: "set an option, e.g. -Dfoo=bar"},
			&cli.StringSliceFlag{Name: "A", Usage: "set a per-subproject augment, e.g. -Asub:foo=bar"},
			&cli.StringSliceFlag{Name: "U", Usage: "reset an option to its declared default"},
		},
		Action: runConfigure,
	}
}

func runConfigure(c *cli.Context) error {
	a, err := loadConfigureArgs(c)
	if err != nil {
		return err
	}

	snap, err := coredata.Load(a.buildDir)
	if err != nil {
		return err
	}

	if a.backend != "" && a.backend != "ninja" {
		return diag.Environment("unsupported backend %q: only ninja is implemented", a.backend)
	}

	werror := a.werror
	warn := diag.NewSink(werror)
	store := options.NewStore(a.crossFile != "", warn)
	if err := coredata.SeedBuiltins(store, a.prefix); err != nil {
		return err
	}
	if err := coredata.RestoreOptions(snap, store); err != nil {
		return err
	}

	if a.libdir != "" {
		if err := store.SetValue(options.SystemKey("libdir", options.MachineHost), value.NewStr(a.libdir)); err != nil {
			return err
		}
	}
	if a.buildtype != "" {
		if err := store.SetValue(options.SystemKey("buildtype", options.MachineHost), value.NewStr(a.buildtype)); err != nil {
			return err
		}
	}
	if a.warnlevel != "" {
		if err := store.SetValue(options.SystemKey("warning_level", options.MachineHost), value.NewStr(a.warnlevel)); err != nil {
			return err
		}
	}
	if err := store.SetValue(options.SystemKey("werror", options.MachineHost), value.NewBool(werror)); err != nil {
		return err
	}

	if err := applyKeyValueFlags(store, a); err != nil {
		return err
	}

	det := toolchain.NewDetector()
	coredata.RestoreDetector(snap, det)

	if a.crossFile != "" {
		if _, err := toolchain.LoadCrossFile(a.crossFile); err != nil {
			return err
		}
	}
	if a.nativeFile != "" {
		if _, err := toolchain.LoadCrossFile(a.nativeFile); err != nil {
			return err
		}
	}

	g := graph.New()
	in := interp.New(a.sourceDir, a.buildDir, g, store, det, warn)

	src, err := os.ReadFile(filepath.Join(a.sourceDir, "meson.build"))
	if err != nil {
		return diag.Environment("reading root build definition: %v", err)
	}
	block, err := ast.Parse(filepath.Join(a.sourceDir, "meson.build"), string(src))
	if err != nil {
		return err
	}
	if err := in.Run(block); err != nil {
		return err
	}

	if err := coredata.Save(a.buildDir, store); err != nil {
		return err
	}

	if err := warn.Finish(); err != nil {
		return err
	}

	fmt.Printf("configured %d target(s) in %s\n", len(g.Targets()), a.buildDir)
	return nil
}
