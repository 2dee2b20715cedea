package interp

import (
	"github.com/standardbeagle/mesongo/internal/ast"
	"github.com/standardbeagle/mesongo/internal/diag"
	"github.com/standardbeagle/mesongo/internal/value"
)

// Run evaluates the root CodeBlock. The first statement must be a call to
// project(...); any exception raised without a location is decorated
// with the call site before propagating (spec §4.5).
func (in *Interpreter) Run(block *ast.CodeBlock) error {
	if len(block.Lines) == 0 {
		return diag.InvalidCode(diag.Site{File: in.currentFile()}, "build description is empty; first statement must be project()")
	}
	first, ok := block.Lines[0].(*ast.FunctionCall)
	if !ok || first.Name != "project" {
		pos := block.Lines[0].Position()
		return diag.InvalidCode(in.site(pos), "first statement must be a call to project()")
	}
	_, err := in.evalBlock(block)
	return err
}

func (in *Interpreter) evalBlock(block *ast.CodeBlock) (value.Value, error) {
	var last value.Value
	for _, line := range block.Lines {
		v, err := in.evalStatement(line)
		if err != nil {
			return value.Value{}, in.decorate(line.Position(), err)
		}
		last = v
	}
	return last, nil
}

// decorate attaches a source location to any diag.Error missing one, the
// rule spec §4.5 mandates for every escaping exception.
func (in *Interpreter) decorate(p ast.Pos, err error) error {
	if de, ok := err.(*diag.Error); ok {
		return de.WithSite(in.site(p))
	}
	return err
}

func (in *Interpreter) evalStatement(n ast.Node) (value.Value, error) {
	switch node := n.(type) {
	case *ast.Assign:
		return in.evalAssign(node)
	case *ast.PlusAssign:
		return in.evalPlusAssign(node)
	case *ast.If:
		return in.evalIf(node)
	case *ast.Foreach:
		return in.evalForeach(node)
	default:
		return in.evalExpr(n)
	}
}

func (in *Interpreter) evalAssign(n *ast.Assign) (value.Value, error) {
	if reservedBuiltinNames[n.Name] {
		return value.Value{}, diag.InvalidCode(diag.Site{}, "cannot assign to built-in name %q", n.Name)
	}
	v, err := in.evalExpr(n.Value)
	if err != nil {
		return value.Value{}, err
	}
	in.variables[n.Name] = v
	return v, nil
}

func (in *Interpreter) evalPlusAssign(n *ast.PlusAssign) (value.Value, error) {
	if reservedBuiltinNames[n.Name] {
		return value.Value{}, diag.InvalidCode(diag.Site{}, "cannot assign to built-in name %q", n.Name)
	}
	cur, ok := in.variables[n.Name]
	if !ok {
		return value.Value{}, diag.InvalidCode(diag.Site{}, "undefined variable %q in += ", n.Name)
	}
	rhs, err := in.evalExpr(n.Value)
	if err != nil {
		return value.Value{}, err
	}
	// += always builds a fresh list/value and rebinds; it never mutates
	// the prior binding in place (spec §3.2 immutability).
	result, err := addValues(cur, rhs)
	if err != nil {
		return value.Value{}, err
	}
	in.variables[n.Name] = result
	return result, nil
}

func (in *Interpreter) evalIf(n *ast.If) (value.Value, error) {
	for _, br := range n.Branches {
		cv, err := in.evalExpr(br.Cond)
		if err != nil {
			return value.Value{}, err
		}
		b, ok := cv.Bool()
		if !ok {
			return value.Value{}, diag.InvalidArguments(diag.Site{}, "if condition must be boolean")
		}
		if b {
			return in.evalBlock(br.Body)
		}
	}
	if n.Else != nil {
		return in.evalBlock(n.Else)
	}
	return value.Value{}, nil
}

// loopSignal implements break/continue control flow as typed sentinel
// errors, unwound by evalForeach.
type loopSignal struct{ isBreak bool }

func (loopSignal) Error() string { return "loop control signal (internal)" }

func (in *Interpreter) evalForeach(n *ast.Foreach) (value.Value, error) {
	iterVal, err := in.evalExpr(n.Iter)
	if err != nil {
		return value.Value{}, err
	}
	items, ok := iterVal.List()
	if !ok {
		return value.Value{}, diag.InvalidArguments(diag.Site{}, "foreach requires a list")
	}

	// No new scope: the loop variable is bound in the outer scope and
	// remains bound (at its last value) after the loop (spec §4.5).
	for _, item := range items {
		if len(n.Vars) == 1 {
			in.variables[n.Vars[0]] = item
		} else {
			elems, ok := item.List()
			if !ok || len(elems) != len(n.Vars) {
				return value.Value{}, diag.InvalidArguments(diag.Site{}, "foreach multi-variable loop requires list items of matching arity")
			}
			for i, v := range n.Vars {
				in.variables[v] = elems[i]
			}
		}
		_, err := in.evalBlock(n.Body)
		if err != nil {
			if sig, ok := err.(loopSignal); ok {
				if sig.isBreak {
					break
				}
				continue
			}
			return value.Value{}, err
		}
	}
	return value.Value{}, nil
}

func (in *Interpreter) evalExpr(n ast.Node) (value.Value, error) {
	switch node := n.(type) {
	case *ast.Str:
		return value.NewStr(node.Value), nil
	case *ast.Num:
		return value.NewInt(node.Value), nil
	case *ast.Bool:
		return value.NewBool(node.Value), nil
	case *ast.Empty:
		return value.Value{}, diag.InvalidCode(diag.Site{}, "None is never assignable")
	case *ast.Array:
		items := make([]value.Value, 0, len(node.Items))
		for _, it := range node.Items {
			v, err := in.evalExpr(it)
			if err != nil {
				return value.Value{}, err
			}
			items = append(items, v)
		}
		return value.NewList(items), nil
	case *ast.Id:
		if v, ok := in.builtinVars[node.Name]; ok {
			return v, nil
		}
		v, ok := in.variables[node.Name]
		if !ok {
			return value.Value{}, diag.InvalidCode(diag.Site{}, "undefined variable %q", node.Name)
		}
		return v, nil
	case *ast.Not:
		v, err := in.evalExpr(node.V)
		if err != nil {
			return value.Value{}, err
		}
		b, ok := v.Bool()
		if !ok {
			return value.Value{}, diag.InvalidArguments(diag.Site{}, "'not' requires a boolean operand")
		}
		return value.NewBool(!b), nil
	case *ast.Neg:
		v, err := in.evalExpr(node.V)
		if err != nil {
			return value.Value{}, err
		}
		i, ok := v.Int()
		if !ok {
			return value.Value{}, diag.InvalidArguments(diag.Site{}, "unary '-' requires an integer operand")
		}
		return value.NewInt(-i), nil
	case *ast.And:
		l, err := in.evalExpr(node.L)
		if err != nil {
			return value.Value{}, err
		}
		lb, ok := l.Bool()
		if !ok {
			return value.Value{}, diag.InvalidArguments(diag.Site{}, "'and' requires boolean operands")
		}
		if !lb {
			return value.NewBool(false), nil
		}
		r, err := in.evalExpr(node.R)
		if err != nil {
			return value.Value{}, err
		}
		rb, ok := r.Bool()
		if !ok {
			return value.Value{}, diag.InvalidArguments(diag.Site{}, "'and' requires boolean operands")
		}
		return value.NewBool(rb), nil
	case *ast.Or:
		l, err := in.evalExpr(node.L)
		if err != nil {
			return value.Value{}, err
		}
		lb, ok := l.Bool()
		if !ok {
			return value.Value{}, diag.InvalidArguments(diag.Site{}, "'or' requires boolean operands")
		}
		if lb {
			return value.NewBool(true), nil
		}
		r, err := in.evalExpr(node.R)
		if err != nil {
			return value.Value{}, err
		}
		rb, ok := r.Bool()
		if !ok {
			return value.Value{}, diag.InvalidArguments(diag.Site{}, "'or' requires boolean operands")
		}
		return value.NewBool(rb), nil
	case *ast.Cmp:
		return in.evalCmp(node)
	case *ast.Arith:
		return in.evalArith(node)
	case *ast.Index:
		return in.evalIndex(node)
	case *ast.FunctionCall:
		return in.evalFunctionCall(node)
	case *ast.MethodCall:
		return in.evalMethodCall(node)
	}
	return value.Value{}, diag.Internal("unhandled AST node type %T", n)
}

func (in *Interpreter) evalCmp(n *ast.Cmp) (value.Value, error) {
	l, err := in.evalExpr(n.L)
	if err != nil {
		return value.Value{}, err
	}
	r, err := in.evalExpr(n.R)
	if err != nil {
		return value.Value{}, err
	}
	switch n.Op {
	case ast.CmpEq:
		return value.NewBool(value.Equal(l, r)), nil
	case ast.CmpNe:
		return value.NewBool(!value.Equal(l, r)), nil
	case ast.CmpIn:
		items, ok := r.List()
		if !ok {
			return value.Value{}, diag.InvalidArguments(diag.Site{}, "'in' requires a list on the right-hand side")
		}
		for _, it := range items {
			if value.Equal(it, l) {
				return value.NewBool(true), nil
			}
		}
		return value.NewBool(false), nil
	case ast.CmpNotIn:
		items, ok := r.List()
		if !ok {
			return value.Value{}, diag.InvalidArguments(diag.Site{}, "'not in' requires a list on the right-hand side")
		}
		for _, it := range items {
			if value.Equal(it, l) {
				return value.NewBool(false), nil
			}
		}
		return value.NewBool(true), nil
	default:
		li, lok := l.Int()
		ri, rok := r.Int()
		if !lok || !rok {
			return value.Value{}, diag.InvalidArguments(diag.Site{}, "ordering comparisons require integer operands")
		}
		switch n.Op {
		case ast.CmpLt:
			return value.NewBool(li < ri), nil
		case ast.CmpLe:
			return value.NewBool(li <= ri), nil
		case ast.CmpGt:
			return value.NewBool(li > ri), nil
		case ast.CmpGe:
			return value.NewBool(li >= ri), nil
		}
	}
	return value.Value{}, diag.Internal("unhandled comparison operator")
}

func (in *Interpreter) evalArith(n *ast.Arith) (value.Value, error) {
	l, err := in.evalExpr(n.L)
	if err != nil {
		return value.Value{}, err
	}
	r, err := in.evalExpr(n.R)
	if err != nil {
		return value.Value{}, err
	}
	switch n.Op {
	case ast.ArithAdd:
		return addValues(l, r)
	case ast.ArithSub, ast.ArithMul, ast.ArithDiv, ast.ArithMod:
		li, lok := l.Int()
		ri, rok := r.Int()
		if !lok || !rok {
			return value.Value{}, diag.InvalidArguments(diag.Site{}, "arithmetic operator requires integer operands")
		}
		switch n.Op {
		case ast.ArithSub:
			return value.NewInt(li - ri), nil
		case ast.ArithMul:
			return value.NewInt(li * ri), nil
		case ast.ArithDiv:
			if ri == 0 {
				return value.Value{}, diag.InvalidArguments(diag.Site{}, "division by zero")
			}
			return value.NewInt(li / ri), nil
		case ast.ArithMod:
			if ri == 0 {
				return value.Value{}, diag.InvalidArguments(diag.Site{}, "modulo by zero")
			}
			return value.NewInt(li % ri), nil
		}
	}
	return value.Value{}, diag.Internal("unhandled arithmetic operator")
}

// addValues implements the '+' overloads spec §4.5 lists: list+list =
// concat, list+scalar = append, int+int = sum, str+str = concat; mismatches
// fail.
func addValues(l, r value.Value) (value.Value, error) {
	if litems, ok := l.List(); ok {
		if ritems, ok := r.List(); ok {
			out := append(append([]value.Value{}, litems...), ritems...)
			return value.NewList(out), nil
		}
		return value.NewList(append(append([]value.Value{}, litems...), r)), nil
	}
	if li, ok := l.Int(); ok {
		if ri, ok := r.Int(); ok {
			return value.NewInt(li + ri), nil
		}
		return value.Value{}, diag.InvalidArguments(diag.Site{}, "cannot add %s to int", r.Kind())
	}
	if ls, ok := l.Str(); ok {
		if rs, ok := r.Str(); ok {
			return value.NewStr(ls + rs), nil
		}
		return value.Value{}, diag.InvalidArguments(diag.Site{}, "cannot add %s to str", r.Kind())
	}
	return value.Value{}, diag.InvalidArguments(diag.Site{}, "unsupported operand types for '+': %s and %s", l.Kind(), r.Kind())
}

// evalIndex implements a[i]: only lists; i must be integer; bounds checked;
// negative indices allowed per spec §4.5 and §8.
func (in *Interpreter) evalIndex(n *ast.Index) (value.Value, error) {
	ov, err := in.evalExpr(n.Obj)
	if err != nil {
		return value.Value{}, err
	}
	items, ok := ov.List()
	if !ok {
		return value.Value{}, diag.InvalidArguments(diag.Site{}, "indexing is only supported on lists")
	}
	iv, err := in.evalExpr(n.Idx)
	if err != nil {
		return value.Value{}, err
	}
	idx, ok := iv.Int()
	if !ok {
		return value.Value{}, diag.InvalidArguments(diag.Site{}, "list index must be an integer")
	}
	l := int64(len(items))
	if idx < 0 {
		idx += l
	}
	if idx < 0 || idx >= l {
		return value.Value{}, diag.InvalidArguments(diag.Site{}, "list index %d out of range (length %d)", idx, l)
	}
	return items[idx], nil
}
