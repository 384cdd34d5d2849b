package builtins

import (
	"github.com/kaigouthro/pine-lang/internal/library"
	"github.com/kaigouthro/pine-lang/internal/types"
)

// sumStepper keeps the last `length` raw source values it has seen, per
// call site, and sums them. A Stepper never sees history (only the
// current row's argument value), so the window is maintained as the
// Stepper's own state instead of read back off a ring.
type sumStepper struct {
	window []library.Value
}

func (s *sumStepper) Step(_ library.StepContext, args []library.Value, _ types.Signature) (library.Value, error) {
	length, ok := args[1].AsInt()
	if !ok || length <= 0 {
		return library.Na(types.KindFloat), nil
	}

	s.window = append(s.window, args[0])
	if int64(len(s.window)) > length {
		s.window = s.window[int64(len(s.window))-length:]
	}
	if int64(len(s.window)) < length {
		return library.Na(types.KindFloat), nil
	}

	total := 0.0
	for _, v := range s.window {
		if v.IsNa() {
			return library.Na(types.KindFloat), nil
		}
		f, _ := v.AsFloat()
		total += f
	}
	return library.Float(total), nil
}

func (s *sumStepper) Clone() library.Stepper {
	cp := make([]library.Value, len(s.window))
	copy(cp, s.window)
	return &sumStepper{window: cp}
}

// RegisterSum adds `sum(source, length)` to reg.
func RegisterSum(reg *library.Registry) {
	reg.Register(&library.Builtin{
		Name: "sum",
		Signatures: []types.Signature{
			{Name: "sum", Params: []types.Type{types.FloatSeries, types.IntSimple}, Return: types.FloatSeries},
		},
		Factory: func() library.Stepper { return &sumStepper{} },
	})
}
