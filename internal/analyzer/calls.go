package analyzer

import (
	"github.com/kaigouthro/pine-lang/internal/ast"
	"github.com/kaigouthro/pine-lang/internal/diagnostics"
	"github.com/kaigouthro/pine-lang/internal/library"
	"github.com/kaigouthro/pine-lang/internal/symbols"
	"github.com/kaigouthro/pine-lang/internal/types"
)

// ensureFuncAnalyzed analyses a function body against the argument types of
// its call site, the first time it is called (user-defined functions are
// monomorphic — the only overload set a function gets is the one implied by
// its first call). Later calls reuse the cached ParamTypes/ReturnType
// without re-walking the body; the analyser does not re-check that later
// call sites agree, since conversion compatibility is checked argument by
// argument at every call site regardless (see resolveCall).
func (a *Analyzer) ensureFuncAnalyzed(def *ast.FunctionDef, argTypes []types.Type) *symbols.FuncInfo {
	info := a.res.Funcs[def]
	if info == nil {
		info = &symbols.FuncInfo{CtxID: a.ctxAlloc.Next()}
		a.res.Funcs[def] = info
		a.res.CtxIDs[def] = info.CtxID
	}
	if info.BodyAnalyzed {
		return info
	}
	info.BodyAnalyzed = true
	info.ParamTypes = append([]types.Type(nil), argTypes...)

	a.pushScopeOn(a.rootScope, func() {
		for i, param := range def.Params {
			slot, ok := a.scope.Declare(param.Name.Name)
			if !ok {
				a.errorf(diagnostics.ARedeclared, param.Name.GetRange(), "duplicate parameter %q", param.Name.Name)
				continue
			}
			pt := types.Type(types.NaSimple)
			if i < len(argTypes) {
				pt = argTypes[i]
			}
			a.scope.SetType(slot, pt)
			a.res.Decls[param.Name] = symbols.VarIndex{Slot: slot, Depth: 0}
			info.ParamSlots = append(info.ParamSlots, slot)
		}
		info.ReturnType = a.analyzeBlock(def.Body, false)
		info.Slots = a.scope.SlotCount()
	})
	return info
}

// resolveCall type-checks one call expression's arguments and records its
// CallBinding: which overload (built-in) or which FuncInfo (user-defined)
// it selected, plus the per-argument adapters the evaluator must apply.
// Returns the call's result type.
func (a *Analyzer) resolveCall(call *ast.CallExpr) types.Type {
	name, ok := call.Callee.(*ast.Identifier)
	if !ok {
		a.errorf(diagnostics.AUnknownIdent, call.Callee.GetRange(), "call target must be a name")
		return types.Any{}
	}

	argTypes := make([]types.Type, len(call.Args))
	for i, arg := range call.Args {
		argTypes[i] = a.inferExpr(arg)
	}

	if b, ok := a.libInfo.Builtins.Lookup(name.Name); ok {
		return a.resolveBuiltinCall(call, b, argTypes)
	}
	if def, ok := a.funcScope.lookup(name.Name); ok {
		return a.resolveUserCall(call, def, argTypes)
	}

	a.errorf(diagnostics.AUnknownIdent, name.GetRange(), "%q is not a built-in or a defined function", name.Name)
	return types.Any{}
}

func (a *Analyzer) resolveBuiltinCall(call *ast.CallExpr, b *library.Builtin, argTypes []types.Type) types.Type {
	sig, adapters, ok := selectOverload(b.Signatures, argTypes)
	if !ok {
		a.errorf(diagnostics.ANoMatchingOverload, call.GetRange(),
			"no overload of %q matches argument types %s", b.Name, typeListString(argTypes))
		return types.Any{}
	}

	ctxID := a.ctxAlloc.Next()
	a.res.CtxIDs[call] = ctxID
	a.res.Calls[call] = &symbols.CallBinding{
		Builtin:     b,
		Signature:   sig,
		ArgAdapters: adapters,
		Stateful:    true,
		CtxID:       ctxID,
	}
	return sig.Return
}

func (a *Analyzer) resolveUserCall(call *ast.CallExpr, def *ast.FunctionDef, argTypes []types.Type) types.Type {
	if len(argTypes) != len(def.Params) {
		a.errorf(diagnostics.ANoMatchingOverload, call.GetRange(),
			"%q takes %d argument(s), got %d", def.Name.Name, len(def.Params), len(argTypes))
	}

	info := a.ensureFuncAnalyzed(def, argTypes)
	for i, pt := range info.ParamTypes {
		if i >= len(argTypes) {
			break
		}
		if !types.ConvertibleTo(argTypes[i], pt) {
			a.errorf(diagnostics.ATypeMismatch, call.Args[i].GetRange(),
				"argument %d of %q: cannot convert %s to %s", i+1, def.Name.Name, argTypes[i].String(), pt.String())
		}
	}

	a.res.Calls[call] = &symbols.CallBinding{
		Func:      def,
		Signature: types.Signature{Name: def.Name.Name, Params: info.ParamTypes, Return: info.ReturnType},
		CtxID:     info.CtxID,
	}
	return info.ReturnType
}

func typeListString(ts []types.Type) string {
	s := "("
	for i, t := range ts {
		if i > 0 {
			s += ", "
		}
		s += t.String()
	}
	return s + ")"
}
