package symbols

import (
	"github.com/kaigouthro/pine-lang/internal/ast"
	"github.com/kaigouthro/pine-lang/internal/library"
	"github.com/kaigouthro/pine-lang/internal/types"
)

// CallBinding is what the analyser records on a single *ast.CallExpr: the
// overload it selected, one adapter per argument, and (for built-ins whose
// factory is stateful) the ctxid its stepper is keyed by.
type CallBinding struct {
	Builtin     *library.Builtin // nil for a call to a user-defined function
	Func        *ast.FunctionDef // nil for a call to a built-in
	Signature   types.Signature
	ArgAdapters []library.Adapter
	Stateful    bool
	CtxID       int
}

// FuncInfo is what the analyser records about one *ast.FunctionDef: the
// slot count its body scope needs, the VarIndex of each parameter within
// that scope (always Depth 0 relative to the body itself), and the
// monomorphic signature inferred from its first call site (user-defined
// functions are not generic — every call must agree with the first).
type FuncInfo struct {
	Slots       int
	ParamSlots  []int
	ParamTypes  []types.Type
	ReturnType   types.Type
	CtxID        int
	BodyAnalyzed bool
}

// Resolution is the complete output of name/type/overload resolution for
// one program: everything the evaluator needs that isn't already recorded
// directly on the AST. Keyed by AST node identity (node pointers are
// stable for the program's lifetime), so every history-owning identity is
// fixed during analysis and never depends on evaluation order.
type Resolution struct {
	Program *ast.Program

	// Refs resolves every identifier used as a value (a read) to its
	// binding. ReassignVar's target identifier is resolved into Reassigns
	// instead, since reassignment must find an *existing* slot.
	Refs map[*ast.Identifier]VarIndex

	// Decls resolves every identifier bound by a declaration (Assignment's
	// pattern, a function's parameters, a for-loop's induction variable) to
	// the slot it occupies in its own (innermost) scope.
	Decls map[*ast.Identifier]VarIndex

	Reassigns map[*ast.ReassignVar]VarIndex

	// CtxIDs assigns a ctxid to every IfStatement, ForStatement, and
	// stateful CallExpr.
	CtxIDs map[ast.Node]int

	// CtxSlots records the slot count of the scope opened for a
	// block-owning ctxid (an if-branch or for-body), so the evaluator can
	// size that ctxid's EvalContext. Stateful call-site ctxids have no
	// entry here — they own a Stepper and a history ring, not a scope.
	CtxSlots map[int]int

	Calls map[*ast.CallExpr]*CallBinding

	Funcs map[*ast.FunctionDef]*FuncInfo

	// ProgramSlots is the slot count of the depth-0 (program) scope.
	ProgramSlots int

	// ColumnSlots maps a declared input column name to its program-scope
	// slot, assigned the same way a var declaration would be, so input
	// rows can be written into the same slot table ordinary variables live
	// in.
	ColumnSlots map[string]VarIndex
}

func NewResolution(program *ast.Program) *Resolution {
	return &Resolution{
		Program:     program,
		Refs:        make(map[*ast.Identifier]VarIndex),
		Decls:       make(map[*ast.Identifier]VarIndex),
		Reassigns:   make(map[*ast.ReassignVar]VarIndex),
		CtxIDs:      make(map[ast.Node]int),
		CtxSlots:    make(map[int]int),
		Calls:       make(map[*ast.CallExpr]*CallBinding),
		Funcs:       make(map[*ast.FunctionDef]*FuncInfo),
		ColumnSlots: make(map[string]VarIndex),
	}
}
