package builtins

import (
	"math"

	"github.com/kaigouthro/pine-lang/internal/library"
	"github.com/kaigouthro/pine-lang/internal/types"
)

// hmaStepper implements the Hull moving average:
// X = 2*WMA(source, round(length/2)) - WMA(source, length), then
// HMA = WMA(X-history, round(sqrt(length))).
//
// `sourceWindow` holds the last `length` raw source values (oldest-first,
// so window[len-1] is the current row) so the stepper can compute both WMA lengths
// without reading back through the evaluator's own series history.
// `xHistory` is the ever-growing, oldest-first list of X values, and
// `wmaFromStart` reads its *first* `sqrt_n` entries, not its most recent
// ones. The earliest X values, computed before `sourceWindow` had filled,
// are Na and never age out of that leading slice, so hma's result never
// leaves Na for a length whose sqrt-window sits inside the series'
// initial warm-up.
type hmaStepper struct {
	sourceWindow []library.Value
	xHistory     []library.Value
}

// wmaFromEnd computes a weighted moving average reading the most recent
// `length` entries of window (window[len-1] is the current row).
func wmaFromEnd(window []library.Value, length int64) library.Value {
	if int64(len(window)) < length {
		return library.Na(types.KindFloat)
	}
	var sum, norm float64
	for i := int64(0); i < length; i++ {
		v := window[int64(len(window))-1-i]
		if v.IsNa() {
			return library.Na(types.KindFloat)
		}
		f, _ := v.AsFloat()
		weight := float64((length - i) * length)
		norm += weight
		sum += f * weight
	}
	return library.Float(sum / norm)
}

// wmaFromStart computes a weighted moving average reading entries [0, length)
// of history in the order they were appended (oldest first) — see the
// hmaStepper doc comment for why this, not wmaFromEnd, is used for the
// outer WMA.
func wmaFromStart(history []library.Value, length int64) library.Value {
	if int64(len(history)) < length {
		return library.Na(types.KindFloat)
	}
	var sum, norm float64
	for i := int64(0); i < length; i++ {
		v := history[i]
		if v.IsNa() {
			return library.Na(types.KindFloat)
		}
		f, _ := v.AsFloat()
		weight := float64((length - i) * length)
		norm += weight
		sum += f * weight
	}
	return library.Float(sum / norm)
}

func (s *hmaStepper) Step(_ library.StepContext, args []library.Value, _ types.Signature) (library.Value, error) {
	length, ok := args[1].AsInt()
	if !ok || length <= 0 {
		return library.Na(types.KindFloat), nil
	}

	s.sourceWindow = append(s.sourceWindow, args[0])
	if int64(len(s.sourceWindow)) > length {
		s.sourceWindow = s.sourceWindow[int64(len(s.sourceWindow))-length:]
	}

	halfLen := int64(math.Round(float64(length) / 2))
	val1 := wmaFromEnd(s.sourceWindow, halfLen)
	val2 := wmaFromEnd(s.sourceWindow, length)

	var xval library.Value
	if val1.IsNa() || val2.IsNa() {
		xval = library.Na(types.KindFloat)
	} else {
		f1, _ := val1.AsFloat()
		f2, _ := val2.AsFloat()
		xval = library.Float(2*f1 - f2)
	}
	s.xHistory = append(s.xHistory, xval)

	sqrtN := int64(math.Round(math.Sqrt(float64(length))))
	if sqrtN < 1 {
		sqrtN = 1
	}
	return wmaFromStart(s.xHistory, sqrtN), nil
}

func (s *hmaStepper) Clone() library.Stepper {
	window := make([]library.Value, len(s.sourceWindow))
	copy(window, s.sourceWindow)
	history := make([]library.Value, len(s.xHistory))
	copy(history, s.xHistory)
	return &hmaStepper{sourceWindow: window, xHistory: history}
}

// RegisterHma adds `hma(source, length)` to reg.
func RegisterHma(reg *library.Registry) {
	reg.Register(&library.Builtin{
		Name: "hma",
		Signatures: []types.Signature{
			{Name: "hma", Params: []types.Type{types.FloatSeries, types.IntSimple}, Return: types.FloatSeries},
		},
		Factory: func() library.Stepper { return &hmaStepper{} },
	})
}
