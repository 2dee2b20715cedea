// Package options implements the layered, key-scoped build option system
// (spec §3.5, §4.3): machine-axis resolution, subproject namespacing,
// deprecation, and command-line/default/augment precedence.
package options

import "strings"

// Machine is the host/build axis an option key is scoped to.
type Machine int

const (
	MachineHost Machine = iota
	MachineBuild
)

func (m Machine) String() string {
	if m == MachineBuild {
		return "build"
	}
	return "host"
}

// Key is the (name, subproject?, machine) triple that identifies an
// option (spec §3.5). Subproject == "" means a top-level project option;
// SystemScope == true means the subproject axis is unset entirely (a
// built-in/system option, spec's subproject=None).
type Key struct {
	Name        string
	Subproject  string
	SystemScope bool
	Machine     Machine
}

// SystemKey builds a key with subproject=None (a built-in option).
func SystemKey(name string, m Machine) Key {
	return Key{Name: name, SystemScope: true, Machine: m}
}

// ProjectKey builds a key scoped to a subproject ("" for the root project).
func ProjectKey(name, subproject string, m Machine) Key {
	return Key{Name: name, Subproject: subproject, Machine: m}
}

// Less gives the lexicographic ordering over (name, subproject, machine)
// spec §3.5 mandates for equality/ordering.
func (k Key) Less(o Key) bool {
	if k.Name != o.Name {
		return k.Name < o.Name
	}
	if k.SystemScope != o.SystemScope {
		return o.SystemScope // system (subproject=None) sorts after named subprojects
	}
	if k.Subproject != o.Subproject {
		return k.Subproject < o.Subproject
	}
	return k.Machine < o.Machine
}

func (k Key) Equal(o Key) bool {
	return k.Name == o.Name && k.Subproject == o.Subproject &&
		k.SystemScope == o.SystemScope && k.Machine == o.Machine
}

// String renders the "[subproject:][build.]name" form spec §3.5 defines.
func (k Key) String() string {
	var sb strings.Builder
	if !k.SystemScope && k.Subproject != "" {
		sb.WriteString(k.Subproject)
		sb.WriteByte(':')
	}
	if k.Machine == MachineBuild {
		sb.WriteString("build.")
	}
	sb.WriteString(k.Name)
	return sb.String()
}

// AsSystemVariant returns the subproject=None equivalent of k, the
// fallback target in resolution step 4 of §4.3.
func (k Key) AsSystemVariant() Key {
	return Key{Name: k.Name, SystemScope: true, Machine: k.Machine}
}

// AsRootVariant returns the root project's own (subproject="") equivalent
// of k, the yielding-parent target in resolution step 3 of §4.3: a
// subproject option yields to the same-named option the root project
// itself declared via option(), not to a built-in.
func (k Key) AsRootVariant() Key {
	return Key{Name: k.Name, Machine: k.Machine}
}

// ParseKey parses the "[subproject:][build.]name" string form.
func ParseKey(s string) Key {
	k := Key{}
	if idx := strings.Index(s, ":"); idx >= 0 {
		k.Subproject = s[:idx]
		s = s[idx+1:]
	} else {
		k.SystemScope = true
	}
	if strings.HasPrefix(s, "build.") {
		k.Machine = MachineBuild
		s = strings.TrimPrefix(s, "build.")
	}
	k.Name = s
	return k
}
