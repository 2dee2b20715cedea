package options

import (
	"fmt"

	"github.com/standardbeagle/mesongo/internal/diag"
	"github.com/standardbeagle/mesongo/internal/value"
)

// Type is an option's value type (spec §3.5).
type Type int

const (
	TypeString Type = iota
	TypeBoolean
	TypeInteger
	TypeCombo
	TypeArray
	TypeFeature
)

// DeprecationKind tags how Option.Deprecated should be interpreted.
type DeprecationKind int

const (
	DeprecationNone DeprecationKind = iota
	DeprecationTrue
	DeprecationList
	DeprecationMap
	DeprecationString
)

// Deprecation carries the shape of a deprecated() kwarg: a bool, a list of
// deprecated values, a value->replacement map, or a redirect key string
// (spec §3.5, §4.3 deprecation actions).
type Deprecation struct {
	Kind        DeprecationKind
	Values      []string
	ValueMap    map[string]string
	RedirectKey string
}

// Option is a fully-typed option descriptor.
type Option struct {
	Name        string
	Description string
	Type        Type
	Choices     []string // TypeCombo (an empty list fails construction); TypeArray entries are checked against it when non-nil.
	Value       value.Value
	Initial     value.Value // the value New() was constructed with; Clone never changes this
	Yielding    bool
	Deprecated  Deprecation
	Readonly    bool
}

// New constructs and validates an Option; an empty Choices list for a combo
// option fails per spec §8.
func New(name, desc string, typ Type, choices []string, initial value.Value, yielding, readonly bool, dep Deprecation) (*Option, error) {
	if typ == TypeCombo && len(choices) == 0 {
		return nil, diag.Option("combo option %q requires a non-empty choices list", name)
	}
	o := &Option{
		Name:        name,
		Description: desc,
		Type:        typ,
		Choices:     choices,
		Value:       initial,
		Initial:     initial,
		Yielding:    yielding,
		Readonly:    readonly,
		Deprecated:  dep,
	}
	if err := o.ValidateValue(initial); err != nil {
		return nil, err
	}
	return o, nil
}

// Clone returns a copy of the option with a new Value, leaving the
// receiver's Value untouched — set_value never mutates an existing option
// object in place from the store's perspective; it replaces it wholesale
// so a failed validation never leaves a partial update observable
// (spec §8 "Option validation totality").
func (o *Option) Clone(newValue value.Value) *Option {
	cp := *o
	cp.Value = newValue
	return &cp
}

// ValidateValue runs the option's type-specific constraint check. It does
// not mutate o.
func (o *Option) ValidateValue(v value.Value) error {
	switch o.Type {
	case TypeString:
		if _, ok := v.Str(); !ok {
			return diag.Option("option %q expects a string value", o.Name)
		}
	case TypeBoolean:
		if _, ok := v.Bool(); !ok {
			return diag.Option("option %q expects a boolean value", o.Name)
		}
	case TypeInteger:
		if _, ok := v.Int(); !ok {
			return diag.Option("option %q expects an integer value", o.Name)
		}
	case TypeCombo:
		s, ok := v.Str()
		if !ok {
			return diag.Option("option %q expects a string value (one of %v)", o.Name, o.Choices)
		}
		if !contains(o.Choices, s) {
			return diag.Option("Value %q for combo option %q is not one of the choices: %v", s, o.Name, o.Choices)
		}
	case TypeArray:
		items, err := value.Listify(v)
		if err != nil {
			return diag.Option("option %q expects a list or comma-joined string: %v", o.Name, err)
		}
		if o.Choices != nil {
			for _, it := range items {
				s, ok := it.Str()
				if !ok || !contains(o.Choices, s) {
					return diag.Option("array option %q value %v contains an entry not in choices %v", o.Name, it, o.Choices)
				}
			}
		}
	case TypeFeature:
		s, ok := v.Str()
		if !ok || !contains([]string{"auto", "enabled", "disabled"}, s) {
			return diag.Option("feature option %q must be one of auto/enabled/disabled", o.Name)
		}
	default:
		return diag.Internal("unknown option type for %q", o.Name)
	}
	return nil
}

func contains(xs []string, v string) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeBoolean:
		return "boolean"
	case TypeInteger:
		return "integer"
	case TypeCombo:
		return "combo"
	case TypeArray:
		return "array"
	case TypeFeature:
		return "feature"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}
