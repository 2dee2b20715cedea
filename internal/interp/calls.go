package interp

import (
	"sort"

	"github.com/standardbeagle/mesongo/internal/ast"
	"github.com/standardbeagle/mesongo/internal/diag"
	"github.com/standardbeagle/mesongo/internal/value"
)

// evaluatedArgs is the positional/keyword Value list a built-in receives,
// already flattened per the default positional-flattening rule (spec
// §4.5).
type evaluatedArgs struct {
	positional []value.Value
	keyword    map[string]value.Value
}

func (in *Interpreter) evalArgs(a ast.Args, flatten bool) (evaluatedArgs, error) {
	pos := make([]value.Value, 0, len(a.Positional))
	for _, n := range a.Positional {
		v, err := in.evalExpr(n)
		if err != nil {
			return evaluatedArgs{}, err
		}
		pos = append(pos, v)
	}
	if flatten {
		pos = value.Flatten(pos)
	}
	kw := make(map[string]value.Value, len(a.Keyword))
	for name, n := range a.Keyword {
		v, err := in.evalExpr(n)
		if err != nil {
			return evaluatedArgs{}, err
		}
		kw[name] = v
	}
	return evaluatedArgs{positional: pos, keyword: kw}, nil
}

// builtinSpec describes one built-in's calling-convention guards
// (spec §4.5 decorators) alongside its handler.
type builtinSpec struct {
	noPosargs      bool
	noKwargs       bool
	stringArgs     bool
	permittedKw    map[string]bool // nil = any keyword allowed
	noFlatten      bool
	handler        func(in *Interpreter, site diag.Site, a evaluatedArgs) (value.Value, error)
}

func (in *Interpreter) evalFunctionCall(n *ast.FunctionCall) (value.Value, error) {
	site := in.site(n.Position())

	if n.Args.PositionalBeforeKeyword {
		return value.Value{}, diag.InvalidArguments(site, "positional arguments must precede keyword arguments")
	}

	switch n.Name {
	case "continue":
		return value.Value{}, loopSignal{isBreak: false}
	case "break":
		return value.Value{}, loopSignal{isBreak: true}
	}

	spec, ok := builtins[n.Name]
	if !ok {
		return value.Value{}, diag.InvalidCode(site, "unknown function %q", n.Name)
	}

	a, err := in.evalArgs(n.Args, !spec.noFlatten)
	if err != nil {
		return value.Value{}, err
	}

	if spec.noPosargs && len(a.positional) > 0 {
		return value.Value{}, diag.InvalidArguments(site, "%s() takes no positional arguments", n.Name)
	}
	if spec.noKwargs && len(a.keyword) > 0 {
		return value.Value{}, diag.InvalidArguments(site, "%s() takes no keyword arguments", n.Name)
	}
	if spec.stringArgs {
		for _, v := range a.positional {
			if _, ok := v.Str(); !ok {
				return value.Value{}, diag.InvalidArguments(site, "%s() requires string positional arguments", n.Name)
			}
		}
	}
	if spec.permittedKw != nil {
		var bad []string
		for k := range a.keyword {
			if !spec.permittedKw[k] {
				bad = append(bad, k)
			}
		}
		if len(bad) > 0 {
			sort.Strings(bad)
			return value.Value{}, diag.InvalidArguments(site, "%s() received unknown keyword argument(s): %v", n.Name, bad)
		}
	}

	return spec.handler(in, site, a)
}

func (in *Interpreter) evalMethodCall(n *ast.MethodCall) (value.Value, error) {
	site := in.site(n.Position())
	recv, err := in.evalExpr(n.Receiver)
	if err != nil {
		return value.Value{}, err
	}
	a, err := in.evalArgs(n.Args, true)
	if err != nil {
		return value.Value{}, err
	}

	switch recv.Kind() {
	case value.KindStr:
		s, _ := recv.Str()
		return callStringMethod(site, s, n.Name, a)
	case value.KindList:
		items, _ := recv.List()
		return callListMethod(site, items, n.Name, a)
	case value.KindObject, value.KindDependency:
		var obj value.Object
		if recv.Kind() == value.KindObject {
			obj, _ = recv.Object()
		} else {
			obj, _ = recv.Dependency()
		}
		m, ok := obj.Method(n.Name)
		if !ok {
			return value.Value{}, diag.InvalidCode(site, "object of type %q has no method %q", obj.ObjectKind(), n.Name)
		}
		return m(a.positional, a.keyword)
	default:
		return value.Value{}, diag.InvalidCode(site, "method calls are not supported on %s values", recv.Kind())
	}
}
