package parser

import "github.com/kaigouthro/pine-lang/internal/pipeline"

// Processor is the parse stage of the compiler pipeline: it turns
// ctx.Source into ctx.AstRoot and appends any parse errors to ctx.Errors,
// leaving later stages to run regardless (pipeline.Pipeline keeps going
// past a stage that reports errors).
type Processor struct{}

func (Processor) Process(ctx *pipeline.Context) *pipeline.Context {
	p := New(ctx.FilePath, ctx.Source)
	ctx.AstRoot = p.ParseProgram()
	for _, err := range p.Errors() {
		err.File = ctx.FilePath
		ctx.Errors = append(ctx.Errors, err)
	}
	return ctx
}
