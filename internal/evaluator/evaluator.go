package evaluator

import (
	"github.com/kaigouthro/pine-lang/internal/ast"
	"github.com/kaigouthro/pine-lang/internal/diagnostics"
	"github.com/kaigouthro/pine-lang/internal/library"
	"github.com/kaigouthro/pine-lang/internal/symbols"
	"github.com/kaigouthro/pine-lang/internal/types"
)

// ctrlSignal is an internal, non-diagnostic control-flow signal
// (break/continue) threaded through evalBlock/execStmt the same way a
// *diagnostics.Error is, and intercepted only at the nearest enclosing
// for-loop.
type ctrlSignal struct{ continue_ bool }

func (c *ctrlSignal) Error() string {
	if c.continue_ {
		return "continue"
	}
	return "break"
}

var breakSignal = &ctrlSignal{continue_: false}
var continueSignal = &ctrlSignal{continue_: true}

// stepContext is the narrow view a library.Stepper is handed each row.
type stepContext struct{ row int }

func (s stepContext) Row() int { return s.row }

// Evaluator steps a resolved program once per input row. It
// owns the root EvalContext and every retained sub-context descending from
// it, plus the recursion guard for user-defined function calls.
type Evaluator struct {
	res     *symbols.Resolution
	typeMap map[ast.Node]types.Type
	libInfo library.LibInfo

	root *EvalContext
	row  int

	activeFuncCtx map[int]bool
}

// New builds an Evaluator for one resolved program. Call Step once per
// input row.
func New(res *symbols.Resolution, typeMap map[ast.Node]types.Type, libInfo library.LibInfo) *Evaluator {
	retention := libInfo.Retention
	if retention <= 0 {
		retention = library.DefaultRetention
	}
	return &Evaluator{
		res:           res,
		typeMap:       typeMap,
		libInfo:       libInfo,
		root:          NewEvalContext(nil, res.ProgramSlots, retention),
		activeFuncCtx: make(map[int]bool),
	}
}

// Row returns the number of rows stepped so far.
func (e *Evaluator) Row() int { return e.row }

// Value reads a program-root slot's current value.
func (e *Evaluator) Value(slot int) library.Value {
	return e.root.slots[slot]
}

func (e *Evaluator) columnKind(name string) types.Kind {
	for _, c := range e.libInfo.Columns {
		if c.Name == name {
			return c.Kind
		}
	}
	return types.KindNa
}

// Step feeds one row of input, evaluates the program body once, and
// returns the first runtime error encountered (nil on success).
func (e *Evaluator) Step(row map[string]library.Value) *diagnostics.Error {
	e.row++

	for name, vi := range e.res.ColumnSlots {
		v, ok := row[name]
		if !ok {
			v = library.Na(e.columnKind(name))
		}
		e.root.Set(vi, v)
		e.root.PushSlotHistory(vi, v)
	}

	_, err := e.evalBlock(e.res.Program.Body, e.root)
	if err == nil {
		return nil
	}
	if de, ok := err.(*diagnostics.Error); ok {
		return de
	}
	// A bare break/continue reaching the program root is an analyser
	// defect (break/continue outside a for is rejected at analysis time);
	// surface it rather than silently drop the row.
	return diagnostics.NewRuntimeError(diagnostics.IInvariantViolation, ast.Range{}, e.row,
		"%s reached the program root outside any for loop", err.Error())
}

func (e *Evaluator) runtimeErr(code string, r ast.Range, format string, args ...interface{}) error {
	return diagnostics.NewRuntimeError(code, r, e.row, format, args...)
}

// evalBlock runs every statement of a block in order, then evaluates its
// trailing expression if present. A non-nil error (sentinel or
// diagnostics.Error) aborts the block immediately and propagates to the
// caller.
func (e *Evaluator) evalBlock(b *ast.Block, ctx *EvalContext) (library.Value, error) {
	for _, stmt := range b.Statements {
		if err := e.execStmt(stmt, ctx); err != nil {
			return library.Na(types.KindNa), err
		}
	}
	if b.Trailing != nil {
		return e.evalExpr(b.Trailing, ctx)
	}
	return library.Na(types.KindNa), nil
}

func (e *Evaluator) execStmt(stmt ast.Statement, ctx *EvalContext) error {
	switch s := stmt.(type) {
	case *ast.NoOpStatement:
		return nil
	case *ast.BreakStatement:
		return breakSignal
	case *ast.ContinueStatement:
		return continueSignal
	case *ast.ExpressionStatement:
		_, err := e.evalExpr(s.Expr, ctx)
		return err
	case *ast.Assignment:
		return e.execAssignment(s, ctx)
	case *ast.ReassignVar:
		return e.execReassign(s, ctx)
	case *ast.IfStatement:
		_, err := e.evalIf(s, ctx)
		return err
	case *ast.ForStatement:
		_, err := e.evalFor(s, ctx)
		return err
	case *ast.FunctionDef:
		return nil
	default:
		return diagnostics.NewInternalError("evaluator: unsupported statement node %T", stmt)
	}
}

func (e *Evaluator) execAssignment(s *ast.Assignment, ctx *EvalContext) error {
	val, err := e.evalExpr(s.Value, ctx)
	if err != nil {
		return err
	}

	switch pat := s.Pattern.(type) {
	case *ast.Identifier:
		vi := e.res.Decls[pat]
		declType := e.typeMap[pat]
		e.bindSlot(ctx, vi, val, declType)
	case *ast.TuplePattern:
		for i, id := range pat.Names {
			vi := e.res.Decls[id]
			declType := e.typeMap[id]
			v := val
			if i > 0 {
				// A non-tuple rhs assigned to a multi-name pattern only
				// fills the first name with a value; the analyser already
				// typed the rest Na in that case.
				v = library.Na(types.KindNa)
			}
			e.bindSlot(ctx, vi, v, declType)
		}
	}
	return nil
}

// bindSlot writes val (converted to declType's kind if declType is known)
// into the slot vi resolves to, pushing its history ring when declType is
// a Series.
func (e *Evaluator) bindSlot(ctx *EvalContext, vi symbols.VarIndex, val library.Value, declType types.Type) {
	if declType != nil {
		if k, ok := types.ScalarKind(declType); ok {
			val = library.ConvertTo(val, k)
		}
	}
	ctx.Set(vi, val)
	if declType != nil && types.IsSeries(declType) {
		ctx.PushSlotHistory(vi, val)
	}
}

func (e *Evaluator) execReassign(s *ast.ReassignVar, ctx *EvalContext) error {
	val, err := e.evalExpr(s.Value, ctx)
	if err != nil {
		return err
	}
	vi, ok := e.res.Reassigns[s]
	if !ok {
		return diagnostics.NewInternalError("evaluator: reassignment %q has no binding", s.Name.Name)
	}
	e.bindSlot(ctx, vi, val, e.typeMap[s.Name])
	return nil
}

// evalIf always evaluates both branches present: each branch's local
// series must advance even when not selected, so a value that has
// accumulated history stays addressable after control returns. Only the
// taken branch's error (if any) propagates; the untaken branch's error is
// discarded along with its value.
func (e *Evaluator) evalIf(s *ast.IfStatement, ctx *EvalContext) (library.Value, error) {
	condVal, err := e.evalExpr(s.Cond, ctx)
	if err != nil {
		return library.Na(types.KindNa), err
	}

	thenCtxID := e.res.CtxIDs[s.Then]
	thenCtx := ctx.SubContext(thenCtxID, e.res.CtxSlots[thenCtxID])
	thenVal, thenErr := e.evalBlock(s.Then, thenCtx)

	elseVal := library.Na(types.KindNa)
	var elseErr error
	if s.Else != nil {
		elseCtxID := e.res.CtxIDs[s.Else]
		elseCtx := ctx.SubContext(elseCtxID, e.res.CtxSlots[elseCtxID])
		elseVal, elseErr = e.evalBlock(s.Else, elseCtx)
	}

	result := library.Na(types.KindNa)
	var resultErr error
	if condVal.AsBool() {
		result, resultErr = thenVal, thenErr
	} else {
		result, resultErr = elseVal, elseErr
	}

	resultType := e.typeMap[s]
	if resultType != nil {
		if k, ok := types.ScalarKind(resultType); ok {
			result = library.ConvertTo(result, k)
		}
	}
	return result, resultErr
}

// evalFor runs the body once per i in [start, end). break
// stops the loop immediately; continue skips to the next iteration; both
// preserve whatever the loop's yielded value already was from the last
// iteration that ran to completion.
func (e *Evaluator) evalFor(s *ast.ForStatement, ctx *EvalContext) (library.Value, error) {
	startVal, err := e.evalExpr(s.Start, ctx)
	if err != nil {
		return library.Na(types.KindNa), err
	}
	endVal, err := e.evalExpr(s.End, ctx)
	if err != nil {
		return library.Na(types.KindNa), err
	}
	step := int64(1)
	if s.Step != nil {
		stepVal, err := e.evalExpr(s.Step, ctx)
		if err != nil {
			return library.Na(types.KindNa), err
		}
		if sv, ok := stepVal.AsInt(); ok {
			step = sv
		}
	}

	start, _ := startVal.AsInt()
	end, _ := endVal.AsInt()
	if step == 0 {
		return library.Na(types.KindNa), e.runtimeErr(diagnostics.RDomainError, s.GetRange(), "for-loop step must not be zero")
	}

	bodyCtxID := e.res.CtxIDs[s.Body]
	bodyCtx := ctx.SubContext(bodyCtxID, e.res.CtxSlots[bodyCtxID])
	varVi := e.res.Decls[s.Var]

	lastVal := library.Na(types.KindNa)
	for i := start; (step > 0 && i < end) || (step < 0 && i > end); i += step {
		bodyCtx.Set(varVi, library.Int(i))
		val, err := e.evalBlock(s.Body, bodyCtx)
		if err == breakSignal {
			break
		}
		if err == continueSignal {
			continue
		}
		if err != nil {
			return library.Na(types.KindNa), err
		}
		lastVal = val
	}

	resultType := e.typeMap[s]
	if resultType != nil {
		if k, ok := types.ScalarKind(resultType); ok {
			lastVal = library.ConvertTo(lastVal, k)
		}
	}
	return lastVal, nil
}
