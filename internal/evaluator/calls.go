package evaluator

import (
	"github.com/kaigouthro/pine-lang/internal/ast"
	"github.com/kaigouthro/pine-lang/internal/diagnostics"
	"github.com/kaigouthro/pine-lang/internal/library"
	"github.com/kaigouthro/pine-lang/internal/symbols"
	"github.com/kaigouthro/pine-lang/internal/types"
)

// evalCall dispatches a call expression to either a built-in's Stepper or a
// user-defined function's body, using the CallBinding the analyser recorded
// for this exact call site.
func (e *Evaluator) evalCall(call *ast.CallExpr, ctx *EvalContext) (library.Value, error) {
	binding, ok := e.res.Calls[call]
	if !ok {
		return library.Na(types.KindNa), diagnostics.NewInternalError("evaluator: call %q has no binding", call.TokenLiteral())
	}

	args := make([]library.Value, len(call.Args))
	for i, argExpr := range call.Args {
		v, err := e.evalExpr(argExpr, ctx)
		if err != nil {
			return library.Na(types.KindNa), err
		}
		args[i] = v
	}

	if binding.Builtin != nil {
		return e.evalBuiltinCall(call, binding, args, ctx)
	}
	return e.evalUserCall(call, binding, args)
}

// sigParamAt returns a signature's i'th parameter type, accounting for a
// variadic signature whose last parameter repeats past its declared length.
func sigParamAt(sig types.Signature, i int) types.Type {
	if i < len(sig.Params) {
		return sig.Params[i]
	}
	if sig.Variadic && len(sig.Params) > 0 {
		return sig.Params[len(sig.Params)-1]
	}
	return types.Any{}
}

// evalBuiltinCall applies each argument's adapter, steps the call site's
// persistent Stepper, and — for a Series-typed result — pushes the row's
// result onto the call site's history ring so index expressions on this
// call can read it back.
func (e *Evaluator) evalBuiltinCall(call *ast.CallExpr, binding *symbols.CallBinding, args []library.Value, ctx *EvalContext) (library.Value, error) {
	for i := range args {
		paramKind := types.KindNa
		if k, ok := types.ScalarKind(sigParamAt(binding.Signature, i)); ok {
			paramKind = k
		}
		if i < len(binding.ArgAdapters) {
			args[i] = binding.ArgAdapters[i].Apply(args[i], paramKind)
		}
	}

	stepper := ctx.Stepper(binding.CtxID, binding.Builtin.Factory)
	result, err := stepper.Step(stepContext{row: e.row}, args, binding.Signature)
	if err != nil {
		if de, ok := err.(*diagnostics.Error); ok {
			return library.Na(types.KindNa), de
		}
		return library.Na(types.KindNa), e.runtimeErr(diagnostics.RDomainError, call.GetRange(), "%s: %v", binding.Builtin.Name, err)
	}

	if types.IsSeries(binding.Signature.Return) {
		ctx.CallRing(binding.CtxID).Push(result)
	}
	return result, nil
}

// evalUserCall runs a user-defined function's body in a context parented on
// the program root (functions have no free-variable capture, only
// parameters — see analyzer.ensureFuncAnalyzed), guarding against direct or
// indirect recursion since the evaluator has no call stack to bound it.
func (e *Evaluator) evalUserCall(call *ast.CallExpr, binding *symbols.CallBinding, args []library.Value) (library.Value, error) {
	info := e.res.Funcs[binding.Func]
	if info == nil {
		return library.Na(types.KindNa), diagnostics.NewInternalError("evaluator: function %q has no FuncInfo", binding.Func.Name.Name)
	}

	if e.activeFuncCtx[info.CtxID] {
		return library.Na(types.KindNa), e.runtimeErr(diagnostics.RRecursionDetected, call.GetRange(),
			"%q is already active on the call stack", binding.Func.Name.Name)
	}
	e.activeFuncCtx[info.CtxID] = true
	defer delete(e.activeFuncCtx, info.CtxID)

	fnCtx := e.root.SubContext(info.CtxID, info.Slots)
	for i, slot := range info.ParamSlots {
		v := library.Na(types.KindNa)
		if i < len(args) {
			v = args[i]
		}
		if i < len(info.ParamTypes) {
			if k, ok := types.ScalarKind(info.ParamTypes[i]); ok {
				v = library.ConvertTo(v, k)
			}
		}
		vi := symbols.VarIndex{Slot: slot, Depth: 0}
		fnCtx.Set(vi, v)
		if i < len(info.ParamTypes) && types.IsSeries(info.ParamTypes[i]) {
			fnCtx.PushSlotHistory(vi, v)
		}
	}

	result, err := e.evalBlock(binding.Func.Body, fnCtx)
	if err != nil {
		return library.Na(types.KindNa), err
	}
	if k, ok := types.ScalarKind(info.ReturnType); ok {
		result = library.ConvertTo(result, k)
	}
	return result, nil
}
