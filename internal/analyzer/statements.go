package analyzer

import (
	"github.com/kaigouthro/pine-lang/internal/ast"
	"github.com/kaigouthro/pine-lang/internal/diagnostics"
	"github.com/kaigouthro/pine-lang/internal/symbols"
	"github.com/kaigouthro/pine-lang/internal/types"
)

// analyzeBlock type-checks every statement of a block in order and infers
// the type of its trailing expression, if any. The bool parameter is not
// used: whether break/continue are legal is tracked via loopDepth.
func (a *Analyzer) analyzeBlock(b *ast.Block, _ bool) types.Type {
	a.hoistFunctionDefs(b)
	for _, stmt := range b.Statements {
		a.analyzeStatement(stmt)
	}
	if b.Trailing != nil {
		return a.inferExpr(b.Trailing)
	}
	return types.NaSimple
}

func (a *Analyzer) analyzeStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.NoOpStatement:
		// nothing to check
	case *ast.BreakStatement:
		if a.loopDepth == 0 {
			a.errorf(diagnostics.ABreakOutsideFor, s.GetRange(), "'break' outside a for loop")
		}
	case *ast.ContinueStatement:
		if a.loopDepth == 0 {
			a.errorf(diagnostics.ABreakOutsideFor, s.GetRange(), "'continue' outside a for loop")
		}
	case *ast.ExpressionStatement:
		a.inferExpr(s.Expr)
	case *ast.Assignment:
		a.analyzeAssignment(s)
	case *ast.ReassignVar:
		a.analyzeReassign(s)
	case *ast.IfStatement:
		a.analyzeIf(s)
	case *ast.ForStatement:
		a.analyzeFor(s)
	case *ast.FunctionDef:
		// Body analysis is deferred to the function's first call site (see
		// ensureFuncAnalyzed in calls.go) since parameter types are
		// monomorphic and inferred from that call's arguments; an
		// uncalled function is simply never body-checked.
	default:
		a.errorf(diagnostics.AUnknownIdent, stmt.GetRange(), "unsupported statement node %T", stmt)
	}
}

// analyzeAssignment handles declaration: `a = e`, `var a = e`, and
// `type a = e` all create a slot in the innermost scope.
func (a *Analyzer) analyzeAssignment(s *ast.Assignment) {
	rhsType := a.inferExpr(s.Value)

	declType := types.Type(nil)
	if s.DeclaredType != nil {
		declType = declKindType(s.DeclaredType.Kind, rhsType)
		if !types.ConvertibleTo(rhsType, declType) {
			a.errorf(diagnostics.ATypeMismatch, s.Value.GetRange(),
				"cannot assign %s to declared type %s", rhsType.String(), declType.String())
		}
	} else {
		declType = rhsType
	}

	switch pat := s.Pattern.(type) {
	case *ast.Identifier:
		a.declareName(pat, declType)
	case *ast.TuplePattern:
		tup, ok := declType.(types.Tuple)
		if !ok {
			tup = types.Tuple{Elems: []types.Type{declType}}
		}
		for i, id := range pat.Names {
			var t types.Type = types.NaSimple
			if i < len(tup.Elems) {
				t = tup.Elems[i]
			}
			a.declareName(id, t)
		}
	}
}

func (a *Analyzer) declareName(id *ast.Identifier, t types.Type) {
	slot, ok := a.scope.Declare(id.Name)
	if !ok {
		a.errorf(diagnostics.ARedeclared, id.GetRange(), "%q is already declared in this scope", id.Name)
		vi, _ := a.scope.Resolve(id.Name)
		a.res.Decls[id] = vi
		return
	}
	a.scope.SetType(slot, t)
	vi := symbols.VarIndex{Slot: slot, Depth: 0}
	a.res.Decls[id] = vi
	a.typeMap[id] = t
}

// analyzeReassign handles `name := exp`: reassignment finds the nearest
// enclosing slot, and the rhs must convert to that slot's existing type.
func (a *Analyzer) analyzeReassign(s *ast.ReassignVar) {
	rhsType := a.inferExpr(s.Value)
	vi, owner, ok := a.scope.ResolveScope(s.Name.Name)
	if !ok {
		a.errorf(diagnostics.AUnknownIdent, s.Name.GetRange(), "%q is not declared", s.Name.Name)
		return
	}
	declType, _ := owner.TypeOf(vi.Slot)
	if !types.ConvertibleTo(rhsType, declType) {
		a.errorf(diagnostics.ATypeMismatch, s.Value.GetRange(),
			"cannot reassign %s with value of type %s", declType.String(), rhsType.String())
	}
	a.res.Reassigns[s] = vi
	a.typeMap[s.Name] = declType
}

// analyzeIf resolves `if cond <then> (else <else>)?`, assigning a ctxid to
// each branch present so their series/state persist across rows
// independently of whether the branch is the one taken on a given row.
func (a *Analyzer) analyzeIf(s *ast.IfStatement) {
	condType := a.inferExpr(s.Cond)
	if !types.ConvertibleTo(condType, types.BoolSimple) && !types.ConvertibleTo(condType, types.BoolSeries) {
		a.errorf(diagnostics.ATypeMismatch, s.Cond.GetRange(), "if condition must be bool-like, got %s", condType.String())
	}

	thenCtx := a.ctxAlloc.Next()
	a.res.CtxIDs[s.Then] = thenCtx
	var thenType types.Type
	a.pushScope(func() {
		thenType = a.analyzeBlock(s.Then, false)
		a.res.CtxSlots[thenCtx] = a.scope.SlotCount()
	})

	var elseType types.Type = types.NaSimple
	if s.Else != nil {
		elseCtx := a.ctxAlloc.Next()
		a.res.CtxIDs[s.Else] = elseCtx
		a.pushScope(func() {
			elseType = a.analyzeBlock(s.Else, false)
			a.res.CtxSlots[elseCtx] = a.scope.SlotCount()
		})
	}

	common, ok := types.CommonType(thenType, elseType)
	if !ok {
		a.errorf(diagnostics.ATypeMismatch, s.GetRange(),
			"if branches have incompatible types %s and %s", thenType.String(), elseType.String())
		common = types.Any{}
	}
	a.typeMap[s] = common
}

// analyzeFor resolves `for id = start to end (by step)? <body>`. The body
// gets its own scope (the induction variable lives there) and a single
// ctxid shared by every iteration within a row.
func (a *Analyzer) analyzeFor(s *ast.ForStatement) {
	startType := a.inferExpr(s.Start)
	endType := a.inferExpr(s.End)
	if !types.ConvertibleTo(startType, types.IntSimple) {
		a.errorf(diagnostics.ATypeMismatch, s.Start.GetRange(), "for-range start must be int-like, got %s", startType.String())
	}
	if !types.ConvertibleTo(endType, types.IntSimple) {
		a.errorf(diagnostics.ATypeMismatch, s.End.GetRange(), "for-range end must be int-like, got %s", endType.String())
	}
	if s.Step != nil {
		stepType := a.inferExpr(s.Step)
		if !types.ConvertibleTo(stepType, types.IntSimple) {
			a.errorf(diagnostics.ATypeMismatch, s.Step.GetRange(), "for-range step must be int-like, got %s", stepType.String())
		}
	}

	bodyCtx := a.ctxAlloc.Next()
	a.res.CtxIDs[s.Body] = bodyCtx

	a.loopDepth++
	var bodyType types.Type
	a.pushScope(func() {
		slot, _ := a.scope.Declare(s.Var.Name)
		a.scope.SetType(slot, types.IntSimple)
		a.res.Decls[s.Var] = symbols.VarIndex{Slot: slot, Depth: 0}
		a.typeMap[s.Var] = types.IntSimple
		bodyType = a.analyzeBlock(s.Body, true)
		a.res.CtxSlots[bodyCtx] = a.scope.SlotCount()
	})
	a.loopDepth--

	a.typeMap[s] = bodyType
}

// declKindType resolves a declared-type keyword to the lattice type it
// denotes, preserving series-ness of the rhs.
func declKindType(k types.Kind, rhsType types.Type) types.Type {
	if types.IsSeries(rhsType) {
		return types.Series{K: k}
	}
	return types.Simple{K: k}
}
