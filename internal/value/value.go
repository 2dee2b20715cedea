// Package value implements the runtime Value sum type scripts operate on
// (spec §3.2): strings, integers, booleans, lists, files, and wrapped
// interpreter objects. Lists are the only aggregate; there is no mapping
// value exposed to build scripts.
package value

import "fmt"

// Kind tags the dynamic type of a Value for type-checking at built-in
// boundaries.
type Kind int

const (
	KindStr Kind = iota
	KindInt
	KindBool
	KindList
	KindFile
	KindObject
	KindDependency
)

func (k Kind) String() string {
	switch k {
	case KindStr:
		return "str"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindFile:
		return "file"
	case KindObject:
		return "object"
	case KindDependency:
		return "dep"
	default:
		return "unknown"
	}
}

// Object is the narrow interface every wrapped interpreter object
// (BuildTarget, CustomTarget, Generator, …) satisfies so that Value can
// hold any of them without an import cycle into package interp.
type Object interface {
	ObjectKind() string
	Method(name string) (Callable, bool)
}

// Callable is a bound method or built-in function: it receives already
// type-checked positional and keyword values and returns a Value or error.
type Callable func(pos []Value, kw map[string]Value) (Value, error)

// File is structurally equal and hashes consistently over
// (IsBuilt, Subdir, Name) per spec §3.2.
type File struct {
	IsBuilt bool
	Subdir  string
	Name    string
}

func (f File) String() string {
	return f.Name
}

// Value is an immutable, dynamically-typed runtime value. The zero Value
// has KindStr and reads as the empty string; construct values via the New*
// helpers.
type Value struct {
	kind Kind
	str  string
	i    int64
	b    bool
	list []Value
	file File
	obj  Object
	dep  Object
}

func NewStr(s string) Value   { return Value{kind: KindStr, str: s} }
func NewInt(i int64) Value    { return Value{kind: KindInt, i: i} }
func NewBool(b bool) Value    { return Value{kind: KindBool, b: b} }
func NewFile(f File) Value    { return Value{kind: KindFile, file: f} }
func NewObject(o Object) Value {
	return Value{kind: KindObject, obj: o}
}
func NewDependency(o Object) Value {
	return Value{kind: KindDependency, dep: o}
}

// NewList copies items into a fresh backing array: lists are immutable
// once constructed (spec §3.2 "Immutability of variables").
func NewList(items []Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindList, list: cp}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) Str() (string, bool) {
	if v.kind != KindStr {
		return "", false
	}
	return v.str, true
}

func (v Value) Int() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.i, true
}

func (v Value) Bool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

func (v Value) List() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return v.list, true
}

func (v Value) File() (File, bool) {
	if v.kind != KindFile {
		return File{}, false
	}
	return v.file, true
}

func (v Value) Object() (Object, bool) {
	if v.kind != KindObject {
		return nil, false
	}
	return v.obj, true
}

func (v Value) Dependency() (Object, bool) {
	if v.kind != KindDependency {
		return nil, false
	}
	return v.dep, true
}

// ToNative renders a Value the way string.format and #mesondefine
// substitution do: bools as lowercase true/false, ints decimal, strings
// verbatim.
func (v Value) ToNative() string {
	switch v.kind {
	case KindStr:
		return v.str
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindFile:
		return v.file.Name
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Equal implements the structural equality spec §3.2 requires, including
// File's (IsBuilt, Subdir, Name) structural comparison.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindStr:
		return a.str == b.str
	case KindInt:
		return a.i == b.i
	case KindBool:
		return a.b == b.b
	case KindFile:
		return a.file == b.file
	case KindList:
		if len(a.list) != len(b.list) {
			return false
		}
		for i := range a.list {
			if !Equal(a.list[i], b.list[i]) {
				return false
			}
		}
		return true
	case KindObject:
		return a.obj == b.obj
	case KindDependency:
		return a.dep == b.dep
	default:
		return false
	}
}

// Flatten recursively inlines nested lists into a single slice, the
// positional-argument flattening rule built-ins apply by default
// (spec §4.5).
func Flatten(vals []Value) []Value {
	out := make([]Value, 0, len(vals))
	for _, v := range vals {
		if items, ok := v.List(); ok {
			out = append(out, Flatten(items)...)
			continue
		}
		out = append(out, v)
	}
	return out
}

// Listify turns a string_array-style input — either a list already, or a
// single comma-joined string — into a []Value of strings, per §7's
// "string_array values may be passed as a comma-joined string OR a list".
func Listify(v Value) ([]Value, error) {
	if items, ok := v.List(); ok {
		return items, nil
	}
	if s, ok := v.Str(); ok {
		if s == "" {
			return nil, nil
		}
		parts := splitComma(s)
		out := make([]Value, len(parts))
		for i, p := range parts {
			out[i] = NewStr(p)
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected list or comma-joined string, got %s", v.Kind())
}

func splitComma(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == ',' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}
