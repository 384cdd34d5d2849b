// Package analyzer implements Pine's semantic analyser: it walks the
// AST produced by package parser, resolves every identifier to a stable
// symbols.VarIndex, assigns ctxids to branches/loops/stateful call sites,
// infers and checks types per the lattice in package types, and selects an
// overload for every call site, recording the chosen signature and its
// per-argument implicit-conversion adapters.
//
// Pine's lattice is closed and finite, so overload selection and type
// inference are simple table lookups rather than unification over type
// variables.
package analyzer

import (
	"github.com/kaigouthro/pine-lang/internal/ast"
	"github.com/kaigouthro/pine-lang/internal/diagnostics"
	"github.com/kaigouthro/pine-lang/internal/library"
	"github.com/kaigouthro/pine-lang/internal/symbols"
	"github.com/kaigouthro/pine-lang/internal/types"
)

// funcScope is a parallel scope stack for function definitions, kept
// separate from symbols.Scope's variable slots since a function name is
// resolved by the analyser directly to its *ast.FunctionDef (call sites
// need the body and parameter list, not just a VarIndex).
type funcScope struct {
	parent *funcScope
	defs   map[string]*ast.FunctionDef
}

func newFuncScope(parent *funcScope) *funcScope {
	return &funcScope{parent: parent, defs: make(map[string]*ast.FunctionDef)}
}

func (f *funcScope) declare(name string, def *ast.FunctionDef) {
	f.defs[name] = def
}

func (f *funcScope) lookup(name string) (*ast.FunctionDef, bool) {
	for cur := f; cur != nil; cur = cur.parent {
		if def, ok := cur.defs[name]; ok {
			return def, true
		}
	}
	return nil, false
}

// Analyzer carries all state for one analysis pass over a single program.
type Analyzer struct {
	filePath string

	scope     *symbols.Scope
	rootScope *symbols.Scope
	funcScope *funcScope

	res     *symbols.Resolution
	typeMap map[ast.Node]types.Type
	errors  []*diagnostics.Error

	libInfo  library.LibInfo
	ctxAlloc symbols.CtxIDAllocator

	loopDepth int
}

// New constructs an Analyzer for the given file path and library/column
// info. Call Analyze once per *ast.Program.
func New(filePath string, libInfo library.LibInfo) *Analyzer {
	return &Analyzer{
		filePath:  filePath,
		libInfo:   libInfo,
		typeMap:   make(map[ast.Node]types.Type),
		funcScope: newFuncScope(nil),
	}
}

// Errors returns every analysis error collected so far, in source order.
func (a *Analyzer) Errors() []*diagnostics.Error { return a.errors }

// TypeMap returns the inferred type of every expression node visited.
func (a *Analyzer) TypeMap() map[ast.Node]types.Type { return a.typeMap }

func (a *Analyzer) errorf(code string, r ast.Range, format string, args ...interface{}) {
	a.errors = append(a.errors, diagnostics.NewAnalysisError(code, r, format, args...))
}

// Analyze resolves and type-checks program, returning the Resolution the
// evaluator will drive against. Declared input columns from libInfo.Columns
// are pre-declared as program-scope slots before the first statement.
func (a *Analyzer) Analyze(program *ast.Program) *symbols.Resolution {
	a.res = symbols.NewResolution(program)
	a.scope = symbols.NewScope(nil)
	a.rootScope = a.scope

	for _, col := range a.libInfo.Columns {
		slot, ok := a.scope.Declare(col.Name)
		if !ok {
			a.errorf(diagnostics.ARedeclared, ast.Range{}, "input column %q declared more than once", col.Name)
			continue
		}
		vi := symbols.VarIndex{Slot: slot, Depth: 0}
		a.res.ColumnSlots[col.Name] = vi
		a.scope.SetType(slot, types.Series{K: col.Kind})
	}

	a.hoistFunctionDefs(program.Body)
	a.analyzeBlock(program.Body, false)

	a.res.ProgramSlots = a.scope.SlotCount()
	return a.res
}

// hoistFunctionDefs registers every function defined directly in a block's
// statement list before any statement is analysed, so calls anywhere in
// the block can reach a function defined later in source order.
func (a *Analyzer) hoistFunctionDefs(block *ast.Block) {
	for _, stmt := range block.Statements {
		if fn, ok := stmt.(*ast.FunctionDef); ok {
			a.funcScope.declare(fn.Name.Name, fn)
			if _, exists := a.res.Funcs[fn]; !exists {
				a.res.Funcs[fn] = &symbols.FuncInfo{CtxID: a.ctxAlloc.Next()}
				a.res.CtxIDs[fn] = a.res.Funcs[fn].CtxID
			}
		}
	}
}

// pushScope opens a new variable and function scope nested in the current
// one, runs fn, then restores the previous scopes.
func (a *Analyzer) pushScope(fn func()) {
	a.pushScopeOn(a.scope, fn)
}

// pushScopeOn is pushScope with an explicit parent scope. Function bodies
// use this with a.rootScope rather than the call site's scope: Pine
// functions take no free-variable capture (parameters are a body's only
// bindings), so parenting a body on its call site's
// scope would let it accidentally observe whatever locals happen to be in
// scope at its first call — parenting on the program root instead makes a
// function body's only visible names its own parameters, regardless of
// where it is defined or first called.
func (a *Analyzer) pushScopeOn(parent *symbols.Scope, fn func()) {
	savedScope, savedFuncs := a.scope, a.funcScope
	a.scope = symbols.NewScope(parent)
	a.funcScope = newFuncScope(savedFuncs)
	fn()
	a.scope, a.funcScope = savedScope, savedFuncs
}
