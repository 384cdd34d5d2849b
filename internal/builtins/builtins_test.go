package builtins

import (
	"math"
	"testing"

	"github.com/kaigouthro/pine-lang/internal/library"
	"github.com/kaigouthro/pine-lang/internal/types"
)

func stepArgs(source float64, length int64) []library.Value {
	return []library.Value{library.Float(source), library.Int(length)}
}

func wantFloat(t *testing.T, v library.Value, want float64) {
	t.Helper()
	if v.IsNa() {
		t.Fatalf("expected %g, got na", want)
	}
	f, _ := v.AsFloat()
	if math.Abs(f-want) > 1e-9 {
		t.Fatalf("expected %g, got %g", want, f)
	}
}

func wantNa(t *testing.T, v library.Value) {
	t.Helper()
	if !v.IsNa() {
		t.Fatalf("expected na, got %v", v)
	}
}

func TestMathStepperNaAbsorbs(t *testing.T) {
	s := &mathStepper{fn: math.Cos}

	v, err := s.Step(nil, []library.Value{library.Na(types.KindFloat)}, types.Signature{})
	if err != nil {
		t.Fatal(err)
	}
	wantNa(t, v)

	v, _ = s.Step(nil, []library.Value{library.Float(0)}, types.Signature{})
	wantFloat(t, v, 1)
}

func TestSumWindowFillsThenSlides(t *testing.T) {
	s := &sumStepper{}

	v, _ := s.Step(nil, stepArgs(1, 2), types.Signature{})
	wantNa(t, v)
	v, _ = s.Step(nil, stepArgs(2, 2), types.Signature{})
	wantFloat(t, v, 3)
	v, _ = s.Step(nil, stepArgs(3, 2), types.Signature{})
	wantFloat(t, v, 5)
}

func TestSumNaInWindowYieldsNa(t *testing.T) {
	s := &sumStepper{}

	s.Step(nil, stepArgs(1, 2), types.Signature{})
	v, _ := s.Step(nil, []library.Value{library.Na(types.KindFloat), library.Int(2)}, types.Signature{})
	wantNa(t, v)
	// The na is still inside the window on the next row.
	v, _ = s.Step(nil, stepArgs(3, 2), types.Signature{})
	wantNa(t, v)
	v, _ = s.Step(nil, stepArgs(4, 2), types.Signature{})
	wantFloat(t, v, 7)
}

func TestEmaSeedsThenSmooths(t *testing.T) {
	s := &emaStepper{}

	v, _ := s.Step(nil, stepArgs(10, 3), types.Signature{})
	wantFloat(t, v, 10)
	// alpha = 2/(3+1) = 0.5
	v, _ = s.Step(nil, stepArgs(13, 3), types.Signature{})
	wantFloat(t, v, 11.5)
}

func TestRmaUsesWildersSmoothing(t *testing.T) {
	s := &rmaStepper{}

	v, _ := s.Step(nil, stepArgs(10, 3), types.Signature{})
	wantFloat(t, v, 10)
	// (10*(3-1) + 13) / 3
	v, _ = s.Step(nil, stepArgs(13, 3), types.Signature{})
	wantFloat(t, v, 11)
}

func TestRsiIntLengthWarmsUpThenHitsZero(t *testing.T) {
	intSig := types.Signature{Params: []types.Type{types.FloatSeries, types.IntSimple}}
	s := &rsiStepper{}

	v, _ := s.Step(nil, stepArgs(20, 2), intSig)
	wantNa(t, v)
	// Purely downward movement drives rsi to 0.
	v, _ = s.Step(nil, stepArgs(10, 2), intSig)
	wantFloat(t, v, 0)
}

func TestRsiSeriesSeriesRatio(t *testing.T) {
	seriesSig := types.Signature{Params: []types.Type{types.FloatSeries, types.FloatSeries}}
	s := &rsiStepper{}

	// rs = 20/20 = 1 so rsi = 100 - 100/2.
	v, _ := s.Step(nil, []library.Value{library.Float(20), library.Float(20)}, seriesSig)
	wantFloat(t, v, 50)
}

// TestHmaLengthOneRepeatsFirstValue pins the outer WMA's read-from-start
// behaviour: with length 1 every X equals its source value, but the outer
// WMA keeps reading xHistory[0], so the first source value is returned on
// every row.
func TestHmaLengthOneRepeatsFirstValue(t *testing.T) {
	s := &hmaStepper{}

	for _, src := range []float64{6, 12, 9} {
		v, _ := s.Step(nil, stepArgs(src, 1), types.Signature{})
		wantFloat(t, v, 6)
	}
}

func TestHmaWarmupNeverLeavesNaForShortLength(t *testing.T) {
	s := &hmaStepper{}

	for _, src := range []float64{6, 12, 6, 12} {
		v, _ := s.Step(nil, stepArgs(src, 2), types.Signature{})
		wantNa(t, v)
	}
}

func TestCloneDoesNotShareWindow(t *testing.T) {
	s := &sumStepper{}
	s.Step(nil, stepArgs(1, 2), types.Signature{})

	c := s.Clone()
	s.Step(nil, stepArgs(2, 2), types.Signature{})

	// The clone's window still holds only the first value, so its next
	// step completes its own window independently of s.
	v, _ := c.Step(nil, stepArgs(5, 2), types.Signature{})
	wantFloat(t, v, 6)
}
