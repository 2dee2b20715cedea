package options

import (
	"regexp"

	"github.com/standardbeagle/mesongo/internal/ast"
	"github.com/standardbeagle/mesongo/internal/diag"
	"github.com/standardbeagle/mesongo/internal/value"
)

var optionNameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

var reservedOptionNames = map[string]bool{
	"prefix": true, "libdir": true, "bindir": true, "default_library": true,
}

// ParseOptionsFile parses meson_options.txt under the stricter grammar
// spec §4.2 describes: a bare sequence of option(name, kwargs) calls. Any
// other statement shape is rejected.
func ParseOptionsFile(filename, src string) ([]*Option, error) {
	block, err := ast.Parse(filename, src)
	if err != nil {
		return nil, diag.Parse(diag.Site{}, "%v", err)
	}

	var result []*Option
	for _, line := range block.Lines {
		call, ok := line.(*ast.FunctionCall)
		if !ok || call.Name != "option" {
			pos := line.Position()
			return nil, diag.Parse(diag.Site{File: filename, Line: pos.Line, Col: pos.Col},
				"meson_options.txt may only contain option() calls")
		}
		opt, err := evalOptionCall(filename, call)
		if err != nil {
			return nil, err
		}
		result = append(result, opt)
	}
	return result, nil
}

func evalOptionCall(filename string, call *ast.FunctionCall) (*Option, error) {
	pos := call.Position()
	site := diag.Site{File: filename, Line: pos.Line, Col: pos.Col}

	if len(call.Args.Positional) != 1 {
		return nil, diag.Parse(site, "option() requires exactly one positional argument: the name")
	}
	nameNode, ok := call.Args.Positional[0].(*ast.Str)
	if !ok {
		return nil, diag.Parse(site, "option() name must be a string literal")
	}
	name := nameNode.Value
	if !optionNameRe.MatchString(name) {
		return nil, diag.Option("option name %q does not match [a-zA-Z0-9_-]+", name)
	}
	for _, pfx := range reservedModulePrefixes {
		if len(name) >= len(pfx) && name[:len(pfx)] == pfx {
			return nil, diag.Option("option name %q uses a reserved prefix %q", name, pfx)
		}
	}
	if reservedOptionNames[name] {
		return nil, diag.Option("option name %q is reserved", name)
	}

	typ := TypeString
	if tn, ok := call.Args.Keyword["type"]; ok {
		s, litOK := litStr(tn)
		if !litOK {
			return nil, diag.Parse(site, "option() type must be a string literal")
		}
		switch s {
		case "string":
			typ = TypeString
		case "boolean":
			typ = TypeBoolean
		case "integer":
			typ = TypeInteger
		case "combo":
			typ = TypeCombo
		case "array":
			typ = TypeArray
		case "feature":
			typ = TypeFeature
		default:
			return nil, diag.Option("unknown option type %q", s)
		}
	}

	var choices []string
	if cn, ok := call.Args.Keyword["choices"]; ok {
		arr, litOK := cn.(*ast.Array)
		if !litOK {
			return nil, diag.Parse(site, "option() choices must be an array literal")
		}
		for _, item := range arr.Items {
			s, ok := litStr(item)
			if !ok {
				return nil, diag.Parse(site, "option() choices entries must be string literals")
			}
			choices = append(choices, s)
		}
	}

	desc := ""
	if dn, ok := call.Args.Keyword["description"]; ok {
		s, _ := litStr(dn)
		desc = s
	}

	yielding := false
	if yn, ok := call.Args.Keyword["yield"]; ok {
		if b, ok := yn.(*ast.Bool); ok {
			yielding = b.Value
		}
	}

	initial, err := defaultValueFor(typ, choices, call.Args.Keyword["value"])
	if err != nil {
		return nil, err
	}

	return New(name, desc, typ, choices, initial, yielding, false, Deprecation{})
}

func litStr(n ast.Node) (string, bool) {
	if s, ok := n.(*ast.Str); ok {
		return s.Value, true
	}
	return "", false
}

func defaultValueFor(typ Type, choices []string, valueNode ast.Node) (value.Value, error) {
	if valueNode == nil {
		switch typ {
		case TypeBoolean:
			return value.NewBool(false), nil
		case TypeInteger:
			return value.NewInt(0), nil
		case TypeArray:
			return value.NewList(nil), nil
		case TypeFeature:
			return value.NewStr("auto"), nil
		case TypeCombo:
			if len(choices) > 0 {
				return value.NewStr(choices[0]), nil
			}
			return value.Value{}, diag.Option("combo option has no choices to default from")
		default:
			return value.NewStr(""), nil
		}
	}
	switch n := valueNode.(type) {
	case *ast.Str:
		return value.NewStr(n.Value), nil
	case *ast.Bool:
		return value.NewBool(n.Value), nil
	case *ast.Num:
		return value.NewInt(n.Value), nil
	case *ast.Array:
		items := make([]value.Value, 0, len(n.Items))
		for _, it := range n.Items {
			s, ok := litStr(it)
			if !ok {
				return value.Value{}, diag.Parse(diag.Site{}, "array option default entries must be string literals")
			}
			items = append(items, value.NewStr(s))
		}
		return value.NewList(items), nil
	default:
		return value.Value{}, diag.Parse(diag.Site{}, "unsupported option() value literal")
	}
}
