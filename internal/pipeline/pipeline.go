// Package pipeline chains the compiler stages (lex+parse, analyse;
// evaluation runs outside the pipeline): every stage runs in turn over a shared Context and keeps
// running even after a stage reports errors, so a single pass collects
// every diagnostic a caller like the language server needs (parse errors
// *and* analysis errors) instead of aborting at the first failure.
package pipeline

import (
	"github.com/kaigouthro/pine-lang/internal/ast"
	"github.com/kaigouthro/pine-lang/internal/diagnostics"
	"github.com/kaigouthro/pine-lang/internal/types"
)

// Processor is one stage of the pipeline.
type Processor interface {
	Process(ctx *Context) *Context
}

// Context carries every stage's inputs and outputs. Fields are populated
// incrementally: Source/FilePath are set by the caller, AstRoot by the
// parser stage, TypeMap/Resolution by the analyser stage.
type Context struct {
	FilePath string
	Source   string

	AstRoot *ast.Program
	Errors  []*diagnostics.Error

	// TypeMap records the inferred type of every expression node, keyed
	// by node identity (node pointers are stable for the life of the tree).
	TypeMap map[ast.Node]types.Type

	// Opaque payload set by the analyser stage (a *symbols.Resolution);
	// declared as interface{} here so package pipeline does not need to
	// import package symbols.
	Resolution interface{}
}

// New constructs an empty Context for a single source file/script.
func New(filePath, source string) *Context {
	return &Context{
		FilePath: filePath,
		Source:   source,
		TypeMap:  make(map[ast.Node]types.Type),
	}
}

// HasErrors reports whether any stage has recorded a diagnostic.
func (c *Context) HasErrors() bool { return len(c.Errors) > 0 }

// Pipeline runs a fixed sequence of Processors over a Context.
type Pipeline struct {
	stages []Processor
}

// NewPipeline builds a Pipeline from an ordered list of stages.
func NewPipeline(stages ...Processor) *Pipeline {
	return &Pipeline{stages: stages}
}

// Run executes every stage in order, continuing even if a stage appended
// errors to ctx.Errors; no stage is skipped.
func (p *Pipeline) Run(ctx *Context) *Context {
	for _, stage := range p.stages {
		ctx = stage.Process(ctx)
	}
	return ctx
}
