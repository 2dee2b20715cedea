// Package coredata persists the configure step's resolved option values
// to build/meson-private/coredata.toml (spec §6.5). The snapshot format
// also has a compilers table, which Load reads and RestoreDetector seeds
// into a Detector, but Save does not write it: detected compilers are not
// persisted, and a subsequent configure probes the toolchain again.
package coredata

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/standardbeagle/mesongo/internal/diag"
	"github.com/standardbeagle/mesongo/internal/options"
	"github.com/standardbeagle/mesongo/internal/toolchain"
	"github.com/standardbeagle/mesongo/internal/value"
)

// FileName is the persisted coredata path, relative to the build directory.
const FileName = "meson-private/coredata.toml"

// OptionRecord is one option's wire-format value; only scalar and
// string-list shapes round-trip (spec §3.2 values storable in the option
// system never include File/Object/Dependency).
type OptionRecord struct {
	Key   string   `toml:"key"`
	Type  string   `toml:"type"`
	Str   string   `toml:"str,omitempty"`
	Bool  bool     `toml:"bool,omitempty"`
	Int   int64    `toml:"int,omitempty"`
	Array []string `toml:"array,omitempty"`
}

// CompilerRecord mirrors toolchain.Compiler for the persisted cache.
type CompilerRecord struct {
	Language string   `toml:"language"`
	IsCross  bool     `toml:"is_cross"`
	ID       string   `toml:"id"`
	Version  string   `toml:"version"`
	Exelist  []string `toml:"exelist"`
}

// Snapshot is the full persisted payload.
type Snapshot struct {
	Version   int              `toml:"version"`
	Options   []OptionRecord   `toml:"options"`
	Compilers []CompilerRecord `toml:"compilers"`
}

const schemaVersion = 1

// Save renders store's current keys to TOML and writes them atomically
// (tmp-then-rename) under buildDir, matching configure_file()'s no-partial-
// write discipline (spec §5).
func Save(buildDir string, store *options.Store) error {
	snap := Snapshot{Version: schemaVersion}
	for _, k := range store.Keys() {
		v, err := store.GetValueFor(k.Name, subprojectPtr(k))
		if err != nil {
			continue
		}
		snap.Options = append(snap.Options, toRecord(k.String(), v))
	}

	out, err := toml.Marshal(snap)
	if err != nil {
		return diag.Internal("coredata: marshal failed: %v", err)
	}

	path := filepath.Join(buildDir, FileName)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return diag.Environment("coredata: %v", err)
	}
	tmp := path + "~"
	if err := os.WriteFile(tmp, out, 0o644); err != nil {
		return diag.Environment("coredata: %v", err)
	}
	return os.Rename(tmp, path)
}

// Load reads a previously-saved snapshot; a missing file is not an error,
// it just means this is the first configure (spec §8 regeneration law).
func Load(buildDir string) (*Snapshot, error) {
	path := filepath.Join(buildDir, FileName)
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Snapshot{Version: schemaVersion}, nil
	}
	if err != nil {
		return nil, diag.Environment("coredata: %v", err)
	}
	var snap Snapshot
	if err := toml.Unmarshal(raw, &snap); err != nil {
		return nil, diag.Internal("coredata: corrupt coredata.toml: %v", err)
	}
	return &snap, nil
}

func subprojectPtr(k options.Key) *string {
	if k.SystemScope {
		s := ""
		return &s
	}
	s := k.Subproject
	return &s
}

func toRecord(key string, v value.Value) OptionRecord {
	r := OptionRecord{Key: key}
	switch v.Kind() {
	case value.KindBool:
		b, _ := v.Bool()
		r.Type, r.Bool = "bool", b
	case value.KindInt:
		n, _ := v.Int()
		r.Type, r.Int = "int", n
	case value.KindList:
		items, _ := v.List()
		for _, it := range items {
			r.Array = append(r.Array, it.ToNative())
		}
		r.Type = "array"
	default:
		r.Type, r.Str = "str", v.ToNative()
	}
	return r
}

func fromRecord(r OptionRecord) value.Value {
	switch r.Type {
	case "bool":
		return value.NewBool(r.Bool)
	case "int":
		return value.NewInt(r.Int)
	case "array":
		items := make([]value.Value, len(r.Array))
		for i, s := range r.Array {
			items[i] = value.NewStr(s)
		}
		return value.NewList(items)
	default:
		return value.NewStr(r.Str)
	}
}

// SeedBuiltins registers the system-scoped options every configure run
// carries regardless of project content (spec §3.5 "Built-in options").
func SeedBuiltins(store *options.Store, prefix string) error {
	type def struct {
		name     string
		typ      options.Type
		choices  []string
		initial  value.Value
		readonly bool
	}
	if prefix == "" {
		prefix = options.DefaultPrefix()
	}
	defs := []def{
		{"prefix", options.TypeString, nil, value.NewStr(prefix), false},
		{"libdir", options.TypeString, nil, value.NewStr("lib"), false},
		{"bindir", options.TypeString, nil, value.NewStr("bin"), false},
		{"datadir", options.TypeString, nil, value.NewStr("share"), false},
		{"includedir", options.TypeString, nil, value.NewStr("include"), false},
		{"mandir", options.TypeString, nil, value.NewStr("share/man"), false},
		{"sysconfdir", options.TypeString, nil, value.NewStr(options.PrefixDependentDefault("sysconfdir", prefix)), false},
		{"localstatedir", options.TypeString, nil, value.NewStr(options.PrefixDependentDefault("localstatedir", prefix)), false},
		{"sharedstatedir", options.TypeString, nil, value.NewStr(options.PrefixDependentDefault("sharedstatedir", prefix)), false},
		{"buildtype", options.TypeCombo, []string{"plain", "debug", "debugoptimized", "release", "minsize", "custom"}, value.NewStr("debug"), false},
		{"warning_level", options.TypeCombo, []string{"0", "1", "2", "3", "everything"}, value.NewStr("1"), false},
		{"werror", options.TypeBoolean, nil, value.NewBool(false), false},
		{"default_library", options.TypeCombo, []string{"shared", "static", "both"}, value.NewStr("shared"), false},
		{"optimization", options.TypeCombo, []string{"0", "g", "1", "2", "3", "s"}, value.NewStr("0"), false},
		{"debug", options.TypeBoolean, nil, value.NewBool(true), false},
		{"backend", options.TypeCombo, []string{"ninja"}, value.NewStr("ninja"), true},
	}
	for _, d := range defs {
		o, err := options.New(d.name, "", d.typ, d.choices, d.initial, false, d.readonly, options.Deprecation{})
		if err != nil {
			return err
		}
		if err := store.AddSystemOption(d.name, o); err != nil {
			return err
		}
	}
	return nil
}

// RestoreOptions reapplies a loaded snapshot's recorded values onto store,
// completing the save/load round trip (spec §8 regeneration law): augments
// set via -A on the very first configure must survive every subsequent one.
func RestoreOptions(snap *Snapshot, store *options.Store) error {
	for _, r := range snap.Options {
		k := options.ParseKey(r.Key)
		if err := store.SetValue(k, fromRecord(r)); err != nil {
			return err
		}
	}
	return nil
}

// RestoreDetector seeds det's memoization cache from a loaded snapshot's
// compilers table (spec §4.4 "Tie-breaks" / §6.5 persistence). Save never
// fills that table, so a snapshot written by Save seeds nothing.
func RestoreDetector(snap *Snapshot, det *toolchain.Detector) {
	for _, c := range snap.Compilers {
		det.Seed(c.Language, c.IsCross, &toolchain.Compiler{
			ID:       toolchain.CompilerID(c.ID),
			Version:  c.Version,
			Exelist:  c.Exelist,
			Language: c.Language,
			IsCross:  c.IsCross,
		})
	}
}
