package options

import (
	"path"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/standardbeagle/mesongo/internal/diag"
	"github.com/standardbeagle/mesongo/internal/value"
)

// reservedModulePrefixes mirrors the optinterpreter's protected namespaces
// (spec §4.2): an option() call in meson_options.txt cannot claim these.
var reservedModulePrefixes = []string{"c_", "cpp_", "rust_", "b_", "backend_"}

// entry is one stored option plus the insertion sequence number that makes
// iteration order reproducible (spec §4.3 "Ordering guarantee").
type entry struct {
	opt *Option
	seq int
}

// Store is the layered option system: built-ins, project options,
// subproject augments, and command-line overrides all live here keyed by
// Key (spec §4.3).
type Store struct {
	options     map[Key]*entry
	augments    map[string]string // stringified Key -> raw augment value
	insertSeq   int
	isCross     bool
	warnings    *diag.Sink
	warnedOnce  map[string]bool
}

func NewStore(isCross bool, warnings *diag.Sink) *Store {
	return &Store{
		options:    make(map[Key]*entry),
		augments:   make(map[string]string),
		isCross:    isCross,
		warnings:   warnings,
		warnedOnce: make(map[string]bool),
	}
}

func (s *Store) insert(k Key, o *Option) {
	s.insertSeq++
	s.options[k] = &entry{opt: o, seq: s.insertSeq}
}

// AddSystemOption registers a built-in option; names containing '.' belong
// to modules and must go through AddModuleOption instead (spec §4.3).
func (s *Store) AddSystemOption(name string, o *Option) error {
	if strings.Contains(name, ".") {
		return diag.Option("system option %q must not contain '.': use a module option", name)
	}
	k := SystemKey(name, MachineHost)
	s.insert(k, o)
	return nil
}

// AddModuleOption registers a dotted-namespace option belonging to a
// back-end module (e.g. "python.install_env").
func (s *Store) AddModuleOption(name string, o *Option) error {
	k := SystemKey(name, MachineHost)
	s.insert(k, o)
	return nil
}

// AddProjectOption registers a project- or subproject-scoped option;
// key.Subproject must already be set to the owning (sub)project name
// (spec §4.3).
func (s *Store) AddProjectOption(k Key, o *Option) error {
	if k.SystemScope {
		return diag.Internal("project option %q must carry a subproject scope", k.Name)
	}
	for _, pfx := range reservedModulePrefixes {
		if strings.HasPrefix(k.Name, pfx) {
			return diag.Option("option name %q uses a reserved prefix %q", k.Name, pfx)
		}
	}
	s.insert(k, o)
	return nil
}

// SetAugment records a subproject-scoped command-line override
// (`-Aprefix:key=value`), applied after yielding/fallback resolution per
// §4.3 step 5.
func (s *Store) SetAugment(key, rawValue string) {
	s.augments[key] = rawValue
}

// sanitizePrefix implements the prefix-specific validation spec §4.3
// names: must be absolute, drop a trailing separator unless the prefix is
// a single root.
func sanitizePrefix(p string) (string, error) {
	if !filepath.IsAbs(p) && !strings.HasPrefix(p, "/") {
		return "", diag.Option("prefix value %q must be an absolute path", p)
	}
	if p == "/" || isWindowsRoot(p) {
		return p, nil
	}
	return strings.TrimRight(p, "/\\"), nil
}

func isWindowsRoot(p string) bool {
	return len(p) == 3 && p[1] == ':' && (p[2] == '\\' || p[2] == '/')
}

// SetValue validates and stores a new value for key, running type
// validation and deprecation handling (spec §4.3). It never leaves a
// partial update observable: on error the prior entry is untouched
// (spec §8).
func (s *Store) SetValue(k Key, v value.Value) error {
	ent, ok := s.options[k]
	if !ok {
		return diag.Option("unknown option %q", k)
	}
	if ent.opt.Readonly {
		return diag.Option("option %q is read-only", k)
	}

	if k.Name == "prefix" {
		sv, isStr := v.Str()
		if !isStr {
			return diag.Option("prefix must be a string")
		}
		sanitized, err := sanitizePrefix(sv)
		if err != nil {
			return err
		}
		v = value.NewStr(sanitized)
	}

	if err := ent.opt.ValidateValue(v); err != nil {
		return err
	}

	v = s.applyDeprecation(k, ent.opt, v)

	s.options[k] = &entry{opt: ent.opt.Clone(v), seq: ent.seq}
	return nil
}

// applyDeprecation implements the four deprecation actions of §4.3:
// bool -> warn; list -> warn if value matches; map -> rewrite + warn;
// string -> redirect to replacement key and set both.
func (s *Store) applyDeprecation(k Key, o *Option, v value.Value) value.Value {
	dep := o.Deprecated
	switch dep.Kind {
	case DeprecationTrue:
		s.warnOnce(k, v, "option %q is deprecated", k)
	case DeprecationList:
		if sv, ok := v.Str(); ok && contains(dep.Values, sv) {
			s.warnOnce(k, v, "value %q for option %q is deprecated", sv, k)
		}
	case DeprecationMap:
		if sv, ok := v.Str(); ok {
			if repl, found := dep.ValueMap[sv]; found {
				s.warnOnce(k, v, "value %q for option %q is deprecated, using %q instead", sv, k, repl)
				return value.NewStr(repl)
			}
		}
	case DeprecationString:
		s.warnOnce(k, v, "option %q is deprecated, use %q instead", k, dep.RedirectKey)
		redirect := ParseKey(dep.RedirectKey)
		if redirect.SystemScope {
			redirect.Subproject = k.Subproject
			redirect.SystemScope = k.SystemScope
		}
		if ent, ok := s.options[redirect]; ok {
			if err := ent.opt.ValidateValue(v); err == nil {
				s.options[redirect] = &entry{opt: ent.opt.Clone(v), seq: ent.seq}
			}
		}
	}
	return v
}

func (s *Store) warnOnce(k Key, v value.Value, format string, args ...any) {
	key := k.String() + "\x00" + v.ToNative()
	if s.warnedOnce[key] {
		return
	}
	s.warnedOnce[key] = true
	if s.warnings != nil {
		s.warnings.Warn(diag.Site{}, format, args...)
	}
}

// GetValueFor resolves a key to its effective value following the §4.3
// algorithm:
//  1. full OptionKey direct lookup
//  2. else construct (name, subproject, HOST) — non-cross BUILD requests
//     fall back to HOST
//  3. yielding subproject option whose same-named root-project (subproject
//     "") option shares the concrete type returns that root option
//  4. else fall back to subproject=None (a built-in)
//  5. an augment for the stringified key overrides the result
func (s *Store) GetValueFor(name string, subproject *string) (value.Value, error) {
	var k Key
	if strings.Contains(name, ":") || strings.HasPrefix(name, "build.") {
		k = ParseKey(name)
	} else {
		k = Key{Name: name, Machine: MachineHost}
		if subproject != nil {
			k.Subproject = *subproject
		} else {
			k.SystemScope = true
		}
	}

	if k.Machine == MachineBuild && !s.isCross {
		k.Machine = MachineHost
	}

	resolved, ent, err := s.resolve(k)
	if err != nil {
		return value.Value{}, err
	}

	if aug, ok := s.augments[resolved.String()]; ok {
		v, convErr := parseAugment(ent.opt, aug)
		if convErr != nil {
			return value.Value{}, convErr
		}
		if err := ent.opt.ValidateValue(v); err != nil {
			return value.Value{}, err
		}
		return v, nil
	}

	return ent.opt.Value, nil
}

// CoerceRaw converts a raw command-line string into a value.Value typed
// per k's declared option, the same conversion -D and augment overrides
// apply (spec §4.3).
func (s *Store) CoerceRaw(k Key, raw string) (value.Value, error) {
	_, ent, err := s.resolve(k)
	if err != nil {
		return value.Value{}, err
	}
	return parseAugment(ent.opt, raw)
}

// Default returns k's declared default value, the state -U resets it to.
func (s *Store) Default(k Key) (value.Value, error) {
	_, ent, err := s.resolve(k)
	if err != nil {
		return value.Value{}, err
	}
	return ent.opt.Initial, nil
}

func (s *Store) resolve(k Key) (Key, *entry, error) {
	if ent, ok := s.options[k]; ok {
		if !k.SystemScope && k.Subproject != "" && ent.opt.Yielding {
			parentKey := k.AsRootVariant()
			if parent, ok := s.options[parentKey]; ok && parent.opt.Type == ent.opt.Type {
				return parentKey, parent, nil
			}
			// Type mismatch: yielding silently disabled (spec §9 Open Question).
		}
		return k, ent, nil
	}
	if !k.SystemScope {
		sys := k.AsSystemVariant()
		if ent, ok := s.options[sys]; ok {
			return sys, ent, nil
		}
	}
	return Key{}, nil, diag.Option("unknown option %q", k)
}

func parseAugment(o *Option, raw string) (value.Value, error) {
	switch o.Type {
	case TypeBoolean:
		return value.NewBool(raw == "true"), nil
	case TypeInteger:
		var n int64
		if _, err := fscanInt(raw, &n); err != nil {
			return value.Value{}, diag.Option("augment for integer option is not numeric: %q", raw)
		}
		return value.NewInt(n), nil
	case TypeArray:
		return value.Listify(value.NewStr(raw))
	default:
		return value.NewStr(raw), nil
	}
}

func fscanInt(s string, out *int64) (int, error) {
	var n int64
	neg := false
	i := 0
	if len(s) > 0 && s[0] == '-' {
		neg = true
		i = 1
	}
	if i == len(s) {
		return 0, diag.Internal("empty integer")
	}
	for ; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, diag.Internal("invalid digit")
		}
		n = n*10 + int64(c-'0')
	}
	if neg {
		n = -n
	}
	*out = n
	return 1, nil
}

// DefaultPrefix returns the platform default install prefix, used to seed
// prefix-dependent defaults like sysconfdir (spec §3.5).
func DefaultPrefix() string {
	if runtime.GOOS == "windows" {
		return `C:\`
	}
	return "/usr/local"
}

// PrefixDependentDefault resolves e.g. sysconfdir's default of "/etc" when
// prefix == "/usr" (spec §3.5).
func PrefixDependentDefault(name, prefix string) string {
	defaults := map[string]string{
		"sysconfdir":  "etc",
		"localstatedir": "var",
		"sharedstatedir": "com",
	}
	sub, ok := defaults[name]
	if !ok {
		return ""
	}
	if prefix == "/usr" {
		return "/" + sub
	}
	return path.Join(prefix, sub)
}

// Keys returns all stored keys in insertion order (spec §4.3 "Ordering
// guarantee").
func (s *Store) Keys() []Key {
	keys := make([]Key, 0, len(s.options))
	for k := range s.options {
		keys = append(keys, k)
	}
	// stable sort by insertion sequence
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && s.options[keys[j]].seq < s.options[keys[j-1]].seq; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}
