// Package builtins implements the concrete library functions LibInfo
// enumerates for a running program: the trigonometric family, `sum`,
// `ema`, `rma`, `rsi`, and `hma`. Each is a thin specialisation of the
// library contract: a Factory producing a Stepper whose state (windows,
// running recurrences) lives per call site.
package builtins

import (
	"math"

	"github.com/kaigouthro/pine-lang/internal/library"
	"github.com/kaigouthro/pine-lang/internal/types"
)

// mathStepper wraps a stateless unary float function (cos, sin, ...) as a
// Stepper. It carries no state of its own; Na in, Na out.
type mathStepper struct {
	fn func(float64) float64
}

func (m *mathStepper) Step(_ library.StepContext, args []library.Value, sig types.Signature) (library.Value, error) {
	x := args[0]
	if x.IsNa() {
		return library.Na(types.KindFloat), nil
	}
	f, _ := x.AsFloat()
	return library.Float(m.fn(f)), nil
}

func (m *mathStepper) Clone() library.Stepper { return &mathStepper{fn: m.fn} }

func mathBuiltin(name string, fn func(float64) float64) *library.Builtin {
	return &library.Builtin{
		Name: name,
		Signatures: []types.Signature{
			{Name: name, Params: []types.Type{types.FloatSimple}, Return: types.FloatSimple},
			{Name: name, Params: []types.Type{types.FloatSeries}, Return: types.FloatSeries},
		},
		Factory: func() library.Stepper { return &mathStepper{fn: fn} },
	}
}

// RegisterMath adds the trigonometric family to reg.
func RegisterMath(reg *library.Registry) {
	reg.Register(mathBuiltin("cos", math.Cos))
	reg.Register(mathBuiltin("acos", math.Acos))
	reg.Register(mathBuiltin("sin", math.Sin))
	reg.Register(mathBuiltin("asin", math.Asin))
	reg.Register(mathBuiltin("tan", math.Tan))
	reg.Register(mathBuiltin("atan", math.Atan))
}
