package evaluator

import (
	"github.com/kaigouthro/pine-lang/internal/ast"
	"github.com/kaigouthro/pine-lang/internal/diagnostics"
	"github.com/kaigouthro/pine-lang/internal/library"
	"github.com/kaigouthro/pine-lang/internal/types"
)

func (e *Evaluator) evalExpr(expr ast.Expression, ctx *EvalContext) (library.Value, error) {
	switch n := expr.(type) {
	case *ast.NaLiteral:
		return library.Na(types.KindNa), nil
	case *ast.BoolLiteral:
		return library.Bool(n.Value), nil
	case *ast.IntLiteral:
		return library.Int(n.Value), nil
	case *ast.FloatLiteral:
		return library.Float(n.Value), nil
	case *ast.StringLiteral:
		return library.String(n.Value), nil
	case *ast.ColorLiteral:
		return library.Color(n.Value), nil
	case *ast.Identifier:
		vi, ok := e.res.Refs[n]
		if !ok {
			return library.Na(types.KindNa), e.runtimeErr(diagnostics.RVarNotFound, n.GetRange(), "%q has no binding", n.Name)
		}
		return ctx.Get(vi), nil
	case *ast.TupleLiteral:
		// Only the first element is observable as a scalar Value; tuples
		// are otherwise only destructured at assignment, never read back
		// as a composite runtime value; no slot ever holds a tuple.
		if len(n.Elems) == 0 {
			return library.Na(types.KindNa), nil
		}
		return e.evalExpr(n.Elems[0], ctx)
	case *ast.CastExpr:
		return e.evalCast(n, ctx)
	case *ast.MemberExpr:
		return library.Na(types.KindNa), e.runtimeErr(diagnostics.RVarNotFound, n.GetRange(), "namespace member access has no runtime binding")
	case *ast.IndexExpr:
		return e.evalIndex(n, ctx)
	case *ast.CallExpr:
		return e.evalCall(n, ctx)
	case *ast.UnaryExpr:
		return e.evalUnary(n, ctx)
	case *ast.BinaryExpr:
		return e.evalBinary(n, ctx)
	case *ast.TernaryExpr:
		return e.evalTernary(n, ctx)
	case *ast.IfStatement:
		return e.evalIf(n, ctx)
	case *ast.ForStatement:
		return e.evalFor(n, ctx)
	default:
		return library.Na(types.KindNa), diagnostics.NewInternalError("evaluator: unsupported expression node %T", expr)
	}
}

func (e *Evaluator) evalCast(c *ast.CastExpr, ctx *EvalContext) (library.Value, error) {
	v, err := e.evalExpr(c.Arg, ctx)
	if err != nil {
		return library.Na(types.KindNa), err
	}
	return library.ConvertTo(v, c.Type.Kind), nil
}

// evalIndex evaluates a series history lookup e[k]. History is kept only
// for an Identifier (its own slot's ring) and a CallExpr (the ring owned by
// that call site's ctxid); any other Series-typed target (e.g. a
// parenthesised binary expression) passes analysis but raises
// RIndexOutOfRange here.
func (e *Evaluator) evalIndex(ix *ast.IndexExpr, ctx *EvalContext) (library.Value, error) {
	// Evaluating the target first guarantees its ring has this row's push
	// applied before we read from it.
	_, err := e.evalExpr(ix.Target, ctx)
	if err != nil {
		return library.Na(types.KindNa), err
	}
	kVal, err := e.evalExpr(ix.Index, ctx)
	if err != nil {
		return library.Na(types.KindNa), err
	}
	k, ok := kVal.AsInt()
	if !ok || k < 0 {
		return library.Na(types.KindNa), e.runtimeErr(diagnostics.RIndexOutOfRange, ix.Index.GetRange(), "series index must be a non-negative integer")
	}

	targetType := e.typeMap[ix.Target]
	kind := types.KindNa
	if kk, ok := types.ScalarKind(targetType); ok {
		kind = kk
	}

	switch t := ix.Target.(type) {
	case *ast.Identifier:
		vi, ok := e.res.Refs[t]
		if !ok {
			return library.Na(kind), nil
		}
		ring := ctx.SlotHistory(vi)
		if ring == nil {
			return library.Na(kind), nil
		}
		return ring.At(int(k), kind), nil
	case *ast.CallExpr:
		binding, ok := e.res.Calls[t]
		if !ok {
			return library.Na(kind), nil
		}
		return ctx.CallRing(binding.CtxID).At(int(k), kind), nil
	default:
		return library.Na(kind), e.runtimeErr(diagnostics.RIndexOutOfRange, ix.Target.GetRange(), "cannot index this expression form")
	}
}

// evalUnary handles `+ - not`.
func (e *Evaluator) evalUnary(u *ast.UnaryExpr, ctx *EvalContext) (library.Value, error) {
	v, err := e.evalExpr(u.Operand, ctx)
	if err != nil {
		return library.Na(types.KindNa), err
	}
	switch u.Operator {
	case "not":
		if v.IsNa() {
			return library.Na(types.KindBool), nil
		}
		return library.Bool(!v.AsBool()), nil
	case "-":
		if v.IsNa() {
			return v, nil
		}
		if v.Kind == types.KindInt {
			return library.Int(-v.Int), nil
		}
		f, _ := v.AsFloat()
		return library.Float(-f), nil
	default: // "+"
		return v, nil
	}
}

// evalBinary handles the binary operator table. Na is absorbing for
// arithmetic and comparisons; division by zero yields Na rather than a
// runtime error.
func (e *Evaluator) evalBinary(b *ast.BinaryExpr, ctx *EvalContext) (library.Value, error) {
	switch b.Operator {
	case "and":
		l, err := e.evalExpr(b.Left, ctx)
		if err != nil {
			return library.Na(types.KindNa), err
		}
		if l.IsNa() || !l.AsBool() {
			return library.Bool(false), nil
		}
		r, err := e.evalExpr(b.Right, ctx)
		if err != nil {
			return library.Na(types.KindNa), err
		}
		if r.IsNa() {
			return library.Bool(false), nil
		}
		return library.Bool(r.AsBool()), nil
	case "or":
		l, err := e.evalExpr(b.Left, ctx)
		if err != nil {
			return library.Na(types.KindNa), err
		}
		if !l.IsNa() && l.AsBool() {
			return library.Bool(true), nil
		}
		r, err := e.evalExpr(b.Right, ctx)
		if err != nil {
			return library.Na(types.KindNa), err
		}
		if r.IsNa() {
			return library.Bool(!l.IsNa() && l.AsBool()), nil
		}
		return library.Bool(r.AsBool()), nil
	}

	l, err := e.evalExpr(b.Left, ctx)
	if err != nil {
		return library.Na(types.KindNa), err
	}
	r, err := e.evalExpr(b.Right, ctx)
	if err != nil {
		return library.Na(types.KindNa), err
	}

	switch b.Operator {
	case "==", "!=", "<", "<=", ">", ">=":
		return e.evalComparison(b.Operator, l, r), nil
	default:
		return e.evalArithmetic(b, l, r)
	}
}

func (e *Evaluator) evalComparison(op string, l, r library.Value) library.Value {
	// Na absorbs: any comparison against an absent value is false.
	if l.IsNa() || r.IsNa() {
		return library.Bool(false)
	}
	if l.Kind == types.KindString || l.Kind == types.KindColor || r.Kind == types.KindString || r.Kind == types.KindColor {
		switch op {
		case "==":
			return library.Bool(l.Str == r.Str)
		case "!=":
			return library.Bool(l.Str != r.Str)
		default:
			return library.Bool(false)
		}
	}
	lf, _ := l.AsFloat()
	rf, _ := r.AsFloat()
	switch op {
	case "==":
		return library.Bool(lf == rf)
	case "!=":
		return library.Bool(lf != rf)
	case "<":
		return library.Bool(lf < rf)
	case "<=":
		return library.Bool(lf <= rf)
	case ">":
		return library.Bool(lf > rf)
	default: // ">="
		return library.Bool(lf >= rf)
	}
}

func (e *Evaluator) evalArithmetic(b *ast.BinaryExpr, l, r library.Value) (library.Value, error) {
	resultType := e.typeMap[b]
	kind := types.KindFloat
	if k, ok := types.ScalarKind(resultType); ok {
		kind = k
	}

	if l.IsNa() || r.IsNa() {
		return library.Na(kind), nil
	}

	if kind == types.KindInt {
		li, _ := l.AsInt()
		ri, _ := r.AsInt()
		switch b.Operator {
		case "+":
			return library.Int(li + ri), nil
		case "-":
			return library.Int(li - ri), nil
		case "*":
			return library.Int(li * ri), nil
		case "/":
			if ri == 0 {
				return library.Na(types.KindInt), nil
			}
			return library.Int(li / ri), nil
		case "%":
			if ri == 0 {
				return library.Na(types.KindInt), nil
			}
			return library.Int(li % ri), nil
		}
	}

	lf, _ := l.AsFloat()
	rf, _ := r.AsFloat()
	switch b.Operator {
	case "+":
		return library.Float(lf + rf), nil
	case "-":
		return library.Float(lf - rf), nil
	case "*":
		return library.Float(lf * rf), nil
	case "/":
		if rf == 0 {
			return library.Na(types.KindFloat), nil
		}
		return library.Float(lf / rf), nil
	case "%":
		if rf == 0 {
			return library.Na(types.KindFloat), nil
		}
		return library.Float(float64(int64(lf)%int64(rf))), nil
	default:
		return library.Na(types.KindNa), diagnostics.NewInternalError("evaluator: unsupported binary operator %q", b.Operator)
	}
}

// evalTernary always evaluates both arms, like evalIf enters both
// branches; a ternary introduces no new scope, so "entering" here is
// simply evaluating the arm for its side effects (series pushes, stateful
// call steps) regardless of which arm is selected.
func (e *Evaluator) evalTernary(t *ast.TernaryExpr, ctx *EvalContext) (library.Value, error) {
	condVal, err := e.evalExpr(t.Cond, ctx)
	if err != nil {
		return library.Na(types.KindNa), err
	}
	thenVal, thenErr := e.evalExpr(t.Then, ctx)
	elseVal, elseErr := e.evalExpr(t.Else, ctx)

	resultType := e.typeMap[t]
	kind := types.KindNa
	if k, ok := types.ScalarKind(resultType); ok {
		kind = k
	}

	if condVal.AsBool() {
		if thenErr != nil {
			return library.Na(kind), thenErr
		}
		return library.ConvertTo(thenVal, kind), nil
	}
	if elseErr != nil {
		return library.Na(kind), elseErr
	}
	return library.ConvertTo(elseVal, kind), nil
}
