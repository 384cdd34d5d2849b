package analyzer

import (
	"github.com/kaigouthro/pine-lang/internal/library"
	"github.com/kaigouthro/pine-lang/internal/pipeline"
)

// Processor is the analysis stage of the compiler pipeline: it resolves
// ctx.AstRoot into a *symbols.Resolution (stashed in ctx.Resolution, opaque
// to package pipeline to avoid an import cycle) and merges its type map and
// errors into ctx.
type Processor struct {
	FilePath string
	LibInfo  library.LibInfo
}

func (p Processor) Process(ctx *pipeline.Context) *pipeline.Context {
	if ctx.AstRoot == nil {
		return ctx
	}

	a := New(p.FilePath, p.LibInfo)
	res := a.Analyze(ctx.AstRoot)

	ctx.Resolution = res
	for node, t := range a.TypeMap() {
		ctx.TypeMap[node] = t
	}
	for _, err := range a.Errors() {
		err.File = ctx.FilePath
		ctx.Errors = append(ctx.Errors, err)
	}
	return ctx
}
