package analyzer

import (
	"github.com/kaigouthro/pine-lang/internal/ast"
	"github.com/kaigouthro/pine-lang/internal/diagnostics"
	"github.com/kaigouthro/pine-lang/internal/types"
)

// inferExpr infers the type of every expression node form, recording it in
// a.typeMap and, for identifiers and call sites, the binding information the
// evaluator needs. It is the single dispatch point every statement-level
// analysis function (analyzeAssignment, analyzeIf, ...) calls through.
func (a *Analyzer) inferExpr(expr ast.Expression) types.Type {
	var t types.Type
	switch e := expr.(type) {
	case *ast.NaLiteral:
		t = types.NaSimple
	case *ast.BoolLiteral:
		t = types.BoolSimple
	case *ast.IntLiteral:
		t = types.IntSimple
	case *ast.FloatLiteral:
		t = types.FloatSimple
	case *ast.StringLiteral:
		t = types.StringSimple
	case *ast.ColorLiteral:
		t = types.ColorSimple
	case *ast.Identifier:
		t = a.inferIdentifier(e)
	case *ast.TupleLiteral:
		elems := make([]types.Type, len(e.Elems))
		for i, sub := range e.Elems {
			elems[i] = a.inferExpr(sub)
		}
		t = types.Tuple{Elems: elems}
	case *ast.CastExpr:
		t = a.inferCast(e)
	case *ast.MemberExpr:
		t = a.inferMember(e)
	case *ast.IndexExpr:
		t = a.inferIndex(e)
	case *ast.CallExpr:
		t = a.resolveCall(e)
	case *ast.UnaryExpr:
		t = a.inferUnary(e)
	case *ast.BinaryExpr:
		t = a.inferBinary(e)
	case *ast.TernaryExpr:
		t = a.inferTernary(e)
	case *ast.IfStatement:
		a.analyzeIf(e)
		t = a.typeMap[e]
	case *ast.ForStatement:
		a.analyzeFor(e)
		t = a.typeMap[e]
	default:
		a.errorf(diagnostics.AUnknownIdent, expr.GetRange(), "unsupported expression node %T", expr)
		t = types.Any{}
	}
	a.typeMap[expr] = t
	return t
}

func (a *Analyzer) inferIdentifier(id *ast.Identifier) types.Type {
	vi, owner, ok := a.scope.ResolveScope(id.Name)
	if !ok {
		a.errorf(diagnostics.AUnknownIdent, id.GetRange(), "%q is not declared", id.Name)
		return types.Any{}
	}
	a.res.Refs[id] = vi
	t, ok := owner.TypeOf(vi.Slot)
	if !ok {
		return types.Any{}
	}
	return t
}

// inferCast handles `T(e)`: e's type must be convertible to Simple(T) or
// Series(T), the stronger of the two, preserving series-ness.
func (a *Analyzer) inferCast(c *ast.CastExpr) types.Type {
	argType := a.inferExpr(c.Arg)
	want := declKindType(c.Type.Kind, argType)
	if !types.ConvertibleTo(argType, want) {
		a.errorf(diagnostics.ATypeMismatch, c.GetRange(),
			"cannot cast %s to %s", argType.String(), want.String())
		return types.Any{}
	}
	return want
}

// inferMember walks a prefix chain `a.b.c` through nested ObjectNamespace
// types.
func (a *Analyzer) inferMember(m *ast.MemberExpr) types.Type {
	objType := a.inferExpr(m.Object)
	ns, ok := objType.(types.ObjectNamespace)
	if !ok {
		a.errorf(diagnostics.ATypeMismatch, m.GetRange(),
			"%s has no field %q: not a namespace", objType.String(), m.Field.Name)
		return types.Any{}
	}
	ft, ok := ns.Fields[m.Field.Name]
	if !ok {
		a.errorf(diagnostics.AUnknownIdent, m.Field.GetRange(), "namespace has no field %q", m.Field.Name)
		return types.Any{}
	}
	return ft
}

// inferIndex handles `e[k]`: e must be a Series, the result is the
// Simple of its kind.
func (a *Analyzer) inferIndex(ix *ast.IndexExpr) types.Type {
	targetType := a.inferExpr(ix.Target)
	idxType := a.inferExpr(ix.Index)
	if !types.ConvertibleTo(idxType, types.IntSimple) {
		a.errorf(diagnostics.ATypeMismatch, ix.Index.GetRange(), "index must be int-like, got %s", idxType.String())
	}
	series, ok := targetType.(types.Series)
	if !ok {
		a.errorf(diagnostics.ATypeMismatch, ix.Target.GetRange(), "cannot index non-series type %s", targetType.String())
		return types.Any{}
	}
	return types.Simple{K: series.K}
}

// inferUnary resolves `+ - not`: the numeric operand keeps its own
// unified kind; `not` always yields Bool.
func (a *Analyzer) inferUnary(u *ast.UnaryExpr) types.Type {
	operandType := a.inferExpr(u.Operand)
	if u.Operator == "not" {
		if !types.ConvertibleTo(operandType, types.BoolSimple) && !types.ConvertibleTo(operandType, types.BoolSeries) {
			a.errorf(diagnostics.ATypeMismatch, u.GetRange(), "'not' requires a bool-like operand, got %s", operandType.String())
		}
		if types.IsSeries(operandType) {
			return types.BoolSeries
		}
		return types.BoolSimple
	}
	// +, -
	result, ok := types.SimilarType(operandType, operandType)
	if !ok {
		a.errorf(diagnostics.ATypeMismatch, u.GetRange(), "unary %q requires a numeric operand, got %s", u.Operator, operandType.String())
		return types.Any{}
	}
	return result
}

// inferBinary resolves the binary operator table: operand types unified
// via SimilarType; boolean ops return Bool; arithmetic returns the
// unified numeric; comparisons return Bool; Series lifts over Simple
// whenever either operand is a Series.
func (a *Analyzer) inferBinary(b *ast.BinaryExpr) types.Type {
	lt := a.inferExpr(b.Left)
	rt := a.inferExpr(b.Right)

	unified, ok := types.SimilarType(lt, rt)
	if !ok {
		a.errorf(diagnostics.ATypeMismatch, b.GetRange(),
			"operator %q: incompatible operand types %s and %s", b.Operator, lt.String(), rt.String())
		return types.Any{}
	}

	series := types.IsSeries(unified)

	switch b.Operator {
	case "and", "or":
		if series {
			return types.BoolSeries
		}
		return types.BoolSimple
	case "==", "!=", "<", "<=", ">", ">=":
		if series {
			return types.BoolSeries
		}
		return types.BoolSimple
	default: // + - * / %
		return unified
	}
}

// inferTernary resolves `cond ? then : else`: the result is the common
// type of the two arms.
func (a *Analyzer) inferTernary(t *ast.TernaryExpr) types.Type {
	condType := a.inferExpr(t.Cond)
	if !types.ConvertibleTo(condType, types.BoolSimple) && !types.ConvertibleTo(condType, types.BoolSeries) {
		a.errorf(diagnostics.ATypeMismatch, t.Cond.GetRange(), "ternary condition must be bool-like, got %s", condType.String())
	}
	thenType := a.inferExpr(t.Then)
	elseType := a.inferExpr(t.Else)
	common, ok := types.CommonType(thenType, elseType)
	if !ok {
		a.errorf(diagnostics.ATypeMismatch, t.GetRange(),
			"ternary branches have incompatible types %s and %s", thenType.String(), elseType.String())
		return types.Any{}
	}
	return common
}
