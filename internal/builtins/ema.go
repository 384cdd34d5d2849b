package builtins

import (
	"github.com/kaigouthro/pine-lang/internal/library"
	"github.com/kaigouthro/pine-lang/internal/types"
)

// emaStepper keeps a running `prev` scalar and updates it each row.
// Seeded with the first non-na value it sees; an exponential average has
// no window to fill first.
type emaStepper struct {
	prev Value64
}

// Value64 is a nilable float used by the running-recurrence steppers
// (ema/rma) to track whether `prev` has been seeded yet.
type Value64 struct {
	set bool
	v   float64
}

func emaFunc(val float64, length int64, prev Value64) (float64, Value64) {
	if !prev.set {
		return val, Value64{set: true, v: val}
	}
	alpha := 2.0 / (float64(length) + 1.0)
	out := prev.v + alpha*(val-prev.v)
	return out, Value64{set: true, v: out}
}

// rmaFunc is Wilder's smoothing: seeded with the first value, then
// `(prev*(length-1)+val)/length`.
func rmaFunc(val float64, length int64, prev Value64) (float64, Value64) {
	if !prev.set {
		return val, Value64{set: true, v: val}
	}
	out := (prev.v*(float64(length)-1) + val) / float64(length)
	return out, Value64{set: true, v: out}
}

func (s *emaStepper) Step(_ library.StepContext, args []library.Value, _ types.Signature) (library.Value, error) {
	length, ok := args[1].AsInt()
	if !ok || length <= 0 {
		return library.Na(types.KindFloat), nil
	}
	f, ok := args[0].AsFloat()
	if !ok {
		s.prev = Value64{}
		return library.Na(types.KindFloat), nil
	}
	out, next := emaFunc(f, length, s.prev)
	s.prev = next
	return library.Float(out), nil
}

func (s *emaStepper) Clone() library.Stepper { return &emaStepper{prev: s.prev} }

type rmaStepper struct {
	prev Value64
}

func (s *rmaStepper) Step(_ library.StepContext, args []library.Value, _ types.Signature) (library.Value, error) {
	length, ok := args[1].AsInt()
	if !ok || length <= 0 {
		return library.Na(types.KindFloat), nil
	}
	f, ok := args[0].AsFloat()
	if !ok {
		s.prev = Value64{}
		return library.Na(types.KindFloat), nil
	}
	out, next := rmaFunc(f, length, s.prev)
	s.prev = next
	return library.Float(out), nil
}

func (s *rmaStepper) Clone() library.Stepper { return &rmaStepper{prev: s.prev} }

// RegisterEma adds `ema(source, length)` and `rma(source, length)` to reg.
func RegisterEma(reg *library.Registry) {
	reg.Register(&library.Builtin{
		Name: "ema",
		Signatures: []types.Signature{
			{Name: "ema", Params: []types.Type{types.FloatSeries, types.IntSimple}, Return: types.FloatSeries},
		},
		Factory: func() library.Stepper { return &emaStepper{} },
	})
	reg.Register(&library.Builtin{
		Name: "rma",
		Signatures: []types.Signature{
			{Name: "rma", Params: []types.Type{types.FloatSeries, types.IntSimple}, Return: types.FloatSeries},
		},
		Factory: func() library.Stepper { return &rmaStepper{} },
	})
}
