// Package driver wires the compiler pipeline (parse, analyse) and the
// streaming evaluator into one Program API: Parse, Analyse, and
// Run/RunReport. It is also where every built-in package registers itself
// into a shared library.Registry, the one place in the module that names
// every concrete built-in by package.
package driver

import (
	"github.com/google/uuid"

	"github.com/kaigouthro/pine-lang/internal/analyzer"
	"github.com/kaigouthro/pine-lang/internal/ast"
	"github.com/kaigouthro/pine-lang/internal/builtins"
	"github.com/kaigouthro/pine-lang/internal/diagnostics"
	"github.com/kaigouthro/pine-lang/internal/evaluator"
	"github.com/kaigouthro/pine-lang/internal/library"
	"github.com/kaigouthro/pine-lang/internal/parser"
	"github.com/kaigouthro/pine-lang/internal/pipeline"
	"github.com/kaigouthro/pine-lang/internal/symbols"
)

// StandardLibrary builds the registry every Program uses unless a caller
// substitutes its own: every built-in function package in internal/builtins
// registered into one table, trig family first, then the stateful
// running/windowed functions.
func StandardLibrary() *library.Registry {
	reg := library.NewRegistry()
	builtins.RegisterMath(reg)
	builtins.RegisterSum(reg)
	builtins.RegisterEma(reg)
	builtins.RegisterRsi(reg)
	builtins.RegisterHma(reg)
	return reg
}

// Program is one compiled-and-ready-to-run Pine script: the outcome of
// Parse+Analyse, held so Run can be called once per input row without
// repeating those stages.
type Program struct {
	FilePath string
	LibInfo  library.LibInfo

	ctx *pipeline.Context
	res *symbols.Resolution
	ev  *evaluator.Evaluator

	runID uuid.UUID
}

// Parse runs only the lexer/parser stage, returning a Context whose
// AstRoot and Errors are populated. Useful on its own for callers — like
// cmd/pine-ls — that only need syntax diagnostics.
func Parse(filePath, source string) *pipeline.Context {
	ctx := pipeline.New(filePath, source)
	pl := pipeline.NewPipeline(parser.Processor{})
	return pl.Run(ctx)
}

// Analyse runs the parse and analysis stages and returns the Context,
// whose Resolution field (if AstRoot parsed successfully) holds a
// *symbols.Resolution an evaluator can be built from.
func Analyse(filePath, source string, libInfo library.LibInfo) *pipeline.Context {
	ctx := pipeline.New(filePath, source)
	pl := pipeline.NewPipeline(
		parser.Processor{},
		analyzer.Processor{FilePath: filePath, LibInfo: libInfo},
	)
	return pl.Run(ctx)
}

// NewProgram runs Parse+Analyse and, if both stages succeeded, builds the
// Evaluator that Run steps thereafter. It returns the Context even on
// failure so the caller can report every diagnostic collected.
func NewProgram(filePath, source string, libInfo library.LibInfo) (*Program, *pipeline.Context) {
	ctx := Analyse(filePath, source, libInfo)
	if ctx.AstRoot == nil || ctx.Resolution == nil || ctx.HasErrors() {
		return nil, ctx
	}
	res := ctx.Resolution.(*symbols.Resolution)
	return &Program{
		FilePath: filePath,
		LibInfo:  libInfo,
		ctx:      ctx,
		res:      res,
		ev:       evaluator.New(res, ctx.TypeMap, libInfo),
		runID:    uuid.New(),
	}, ctx
}

// RunID identifies this program instance for the life of the process,
// for log correlation across feeds and reports.
func (p *Program) RunID() uuid.UUID { return p.runID }

// Row is one step's worth of named input column values.
type Row = map[string]library.Value

// Run feeds one input row through the evaluator. It returns the first
// runtime diagnostic the row produced, if any; Value can still be called
// afterward to inspect whatever the program-root slots held at the point
// evaluation stopped; there is no row-level rollback.
func (p *Program) Run(row Row) *diagnostics.Error {
	return p.ev.Step(row)
}

// Value reads the current value of a program-root slot.
func (p *Program) Value(slot int) library.Value {
	return p.ev.Value(slot)
}

// ColumnSlot resolves a declared input column's name to its program-root
// slot index, for callers that only know column names.
func (p *Program) ColumnSlot(name string) (int, bool) {
	vi, ok := p.res.ColumnSlots[name]
	if !ok {
		return 0, false
	}
	return vi.Slot, true
}

// NamedSlot pairs a top-level declared name with its program-scope slot.
type NamedSlot struct {
	Name string
	Slot int
}

// Slots enumerates every top-level declared variable in source order,
// tuple-destructured names element by element. Shadowed or nested
// declarations are not visible this way; program scope is the only scope
// a caller can observe after Run returns.
func (p *Program) Slots() []NamedSlot {
	var out []NamedSlot
	add := func(id *ast.Identifier) {
		if vi, ok := p.res.Decls[id]; ok {
			out = append(out, NamedSlot{Name: id.Name, Slot: vi.Slot})
		}
	}
	for _, stmt := range p.res.Program.Body.Statements {
		a, ok := stmt.(*ast.Assignment)
		if !ok {
			continue
		}
		switch pat := a.Pattern.(type) {
		case *ast.Identifier:
			add(pat)
		case *ast.TuplePattern:
			for _, id := range pat.Names {
				add(id)
			}
		}
	}
	return out
}

// SlotOf resolves a top-level declared variable's name to its slot index.
func (p *Program) SlotOf(name string) (int, bool) {
	for _, ns := range p.Slots() {
		if ns.Name == name {
			return ns.Slot, true
		}
	}
	return 0, false
}

// RunReport summarizes a finished (or aborted) multi-row run: the run's
// correlation id, how many rows were stepped, and the first error
// encountered, if the caller chose to stop there.
type RunReport struct {
	RunID    uuid.UUID
	RowsRun  int
	FirstErr *diagnostics.Error
}

// RunAll feeds every row in rows through the program in order, stopping at
// the first runtime error if stopOnError is set (otherwise it keeps
// stepping past errors the same way pipeline.Pipeline keeps running past a
// stage's errors).
func (p *Program) RunAll(rows []Row, stopOnError bool) RunReport {
	report := RunReport{RunID: p.runID}
	for _, row := range rows {
		if err := p.Run(row); err != nil {
			report.RowsRun++
			if report.FirstErr == nil {
				report.FirstErr = err
			}
			if stopOnError {
				return report
			}
			continue
		}
		report.RowsRun++
	}
	return report
}
