package builtins

import (
	"github.com/kaigouthro/pine-lang/internal/library"
	"github.com/kaigouthro/pine-lang/internal/types"
)

// rsiStepper implements the two-overload `rsi` built-in: the int-length
// overload keeps a running Wilder's average of upward/downward moves; the
// series/series overload is stateless arithmetic on the two current-row
// arguments.
type rsiStepper struct {
	prevUpward   Value64
	prevDownward Value64
	prevSource   Value64
}

func (s *rsiStepper) Step(_ library.StepContext, args []library.Value, sig types.Signature) (library.Value, error) {
	if _, isInt := sig.Params[1].(types.Simple); isInt {
		return s.stepIntLength(args)
	}
	return s.stepSeriesSeries(args)
}

func (s *rsiStepper) stepIntLength(args []library.Value) (library.Value, error) {
	length, ok := args[1].AsInt()
	if !ok || length <= 0 {
		return library.Na(types.KindFloat), nil
	}
	cur, curOk := args[0].AsFloat()
	prevSrc := s.prevSource
	s.prevSource = Value64{set: curOk, v: cur}
	if !curOk || !prevSrc.set {
		s.prevUpward = Value64{}
		s.prevDownward = Value64{}
		return library.Na(types.KindFloat), nil
	}

	upward := max0(cur - prevSrc.v)
	downward := max0(prevSrc.v - cur)

	rma1, nextUp := rmaFunc(upward, length, s.prevUpward)
	rma2, nextDown := rmaFunc(downward, length, s.prevDownward)
	s.prevUpward = nextUp
	s.prevDownward = nextDown

	if rma2 == 0 {
		return library.Na(types.KindFloat), nil
	}
	rs := rma1 / rma2
	res := 100 - 100/(1+rs)
	return library.Float(res), nil
}

func (s *rsiStepper) stepSeriesSeries(args []library.Value) (library.Value, error) {
	x, xOk := args[0].AsFloat()
	y, yOk := args[1].AsFloat()
	if !xOk || !yOk || y == 0 {
		return library.Na(types.KindFloat), nil
	}
	rs := x / y
	res := 100 - 100/(1+rs)
	return library.Float(res), nil
}

func max0(v float64) float64 {
	if v > 0 {
		return v
	}
	return 0
}

func (s *rsiStepper) Clone() library.Stepper {
	return &rsiStepper{prevUpward: s.prevUpward, prevDownward: s.prevDownward, prevSource: s.prevSource}
}

// RegisterRsi adds `rsi(source, length)` (int length, Wilder's smoothing)
// and `rsi(source, source)` (stateless series/series ratio) to reg.
func RegisterRsi(reg *library.Registry) {
	reg.Register(&library.Builtin{
		Name: "rsi",
		Signatures: []types.Signature{
			{Name: "rsi", Params: []types.Type{types.FloatSeries, types.IntSimple}, Return: types.FloatSeries},
			{Name: "rsi", Params: []types.Type{types.FloatSeries, types.FloatSeries}, Return: types.FloatSeries},
		},
		Factory: func() library.Stepper { return &rsiStepper{} },
	})
}
