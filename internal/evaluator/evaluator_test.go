package evaluator

import (
	"math"
	"testing"

	"github.com/kaigouthro/pine-lang/internal/analyzer"
	"github.com/kaigouthro/pine-lang/internal/ast"
	"github.com/kaigouthro/pine-lang/internal/builtins"
	"github.com/kaigouthro/pine-lang/internal/diagnostics"
	"github.com/kaigouthro/pine-lang/internal/library"
	"github.com/kaigouthro/pine-lang/internal/parser"
	"github.com/kaigouthro/pine-lang/internal/types"
)

// compile parses and analyzes src against the standard built-ins plus the
// given input columns, failing the test on any diagnostic, and returns an
// Evaluator ready to step.
func compile(t *testing.T, src string, cols ...library.ColumnSpec) *Evaluator {
	t.Helper()
	p := parser.New("test.pine", src)
	prog := p.ParseProgram()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}

	reg := library.NewRegistry()
	builtins.RegisterMath(reg)
	builtins.RegisterSum(reg)
	builtins.RegisterEma(reg)
	builtins.RegisterRsi(reg)
	builtins.RegisterHma(reg)

	li := library.LibInfo{Builtins: reg, Columns: cols}
	a := analyzer.New("test.pine", li)
	res := a.Analyze(prog)
	if len(a.Errors()) > 0 {
		t.Fatalf("analysis errors: %v", a.Errors())
	}
	return New(res, a.TypeMap(), li)
}

// slotOf finds the program-scope slot a top-level declaration bound name to.
func slotOf(t *testing.T, e *Evaluator, name string) int {
	t.Helper()
	for _, stmt := range e.res.Program.Body.Statements {
		a, ok := stmt.(*ast.Assignment)
		if !ok {
			continue
		}
		id, ok := a.Pattern.(*ast.Identifier)
		if !ok || id.Name != name {
			continue
		}
		if vi, ok := e.res.Decls[id]; ok {
			return vi.Slot
		}
	}
	t.Fatalf("no program-scope slot for %q", name)
	return 0
}

func mustStep(t *testing.T, e *Evaluator, row map[string]library.Value) {
	t.Helper()
	if err := e.Step(row); err != nil {
		t.Fatalf("row %d: %v", e.Row(), err)
	}
}

func wantFloat(t *testing.T, v library.Value, want float64) {
	t.Helper()
	if v.IsNa() {
		t.Fatalf("expected %g, got na", want)
	}
	f, ok := v.AsFloat()
	if !ok || math.Abs(f-want) > 1e-9 {
		t.Fatalf("expected %g, got %v", want, v)
	}
}

func wantNa(t *testing.T, v library.Value) {
	t.Helper()
	if !v.IsNa() {
		t.Fatalf("expected na, got %v", v)
	}
}

func closeRow(v float64) map[string]library.Value {
	return map[string]library.Value{"close": library.Float(v)}
}

var closeCol = library.ColumnSpec{Name: "close", Kind: types.KindFloat}

func TestSeriesIndexZeroIsCurrentRow(t *testing.T) {
	e := compile(t, "m = close[0]\n", closeCol)
	slot := slotOf(t, e, "m")

	for _, v := range []float64{3, 7, 11} {
		mustStep(t, e, closeRow(v))
		wantFloat(t, e.Value(slot), v)
	}
}

func TestSeriesIndexWalksBackward(t *testing.T) {
	e := compile(t, "m = close[1]\n", closeCol)
	slot := slotOf(t, e, "m")

	mustStep(t, e, closeRow(1))
	wantNa(t, e.Value(slot))
	mustStep(t, e, closeRow(2))
	wantFloat(t, e.Value(slot), 1)
	mustStep(t, e, closeRow(3))
	wantFloat(t, e.Value(slot), 2)
}

// TestUntakenBranchStillAdvances checks the always-enter-both-branches
// rule: the sum window inside the then-branch must fill during the rows
// the else-branch is taken, so the first row the then-branch is selected
// already sees a full window.
func TestUntakenBranchStillAdvances(t *testing.T) {
	src := "m = if flag\n" +
		"    sum(close, 2)\n" +
		"else\n" +
		"    0.0\n"
	flagCol := library.ColumnSpec{Name: "flag", Kind: types.KindBool}
	e := compile(t, src, flagCol, closeCol)
	slot := slotOf(t, e, "m")

	row := func(flag bool, close float64) map[string]library.Value {
		return map[string]library.Value{
			"flag":  library.Bool(flag),
			"close": library.Float(close),
		}
	}

	mustStep(t, e, row(false, 1))
	wantFloat(t, e.Value(slot), 0)
	mustStep(t, e, row(false, 2))
	wantFloat(t, e.Value(slot), 0)
	mustStep(t, e, row(true, 3))
	wantFloat(t, e.Value(slot), 5)
}

func TestForBreakYieldsLastCompletedIteration(t *testing.T) {
	src := "m = for i = 0 to 5\n" +
		"    if i == 3\n" +
		"        break\n" +
		"    i\n"
	e := compile(t, src)
	slot := slotOf(t, e, "m")

	mustStep(t, e, nil)
	v := e.Value(slot)
	if i, ok := v.AsInt(); !ok || i != 2 {
		t.Fatalf("expected 2, got %v", v)
	}
}

func TestForEmptyRangeYieldsNa(t *testing.T) {
	e := compile(t, "m = for i = 0 to 0\n    i\n")
	slot := slotOf(t, e, "m")

	mustStep(t, e, nil)
	wantNa(t, e.Value(slot))
}

func TestForContinueSkipsIteration(t *testing.T) {
	src := "var int total = 0\n" +
		"for i = 0 to 5\n" +
		"    if i == 2\n" +
		"        continue\n" +
		"    total := total + i\n"
	e := compile(t, src)
	slot := slotOf(t, e, "total")

	mustStep(t, e, nil)
	v := e.Value(slot)
	if i, ok := v.AsInt(); !ok || i != 8 {
		t.Fatalf("expected 0+1+3+4 = 8, got %v", v)
	}
}

func TestForNegativeStep(t *testing.T) {
	e := compile(t, "m = for i = 3 to 0 by -1\n    i\n")
	slot := slotOf(t, e, "m")

	mustStep(t, e, nil)
	v := e.Value(slot)
	if i, ok := v.AsInt(); !ok || i != 1 {
		t.Fatalf("expected last iteration yield 1, got %v", v)
	}
}

func TestDivisionByZeroYieldsNa(t *testing.T) {
	e := compile(t, "m = 1 / 0\nf = 1.0 / 0.0\n")

	mustStep(t, e, nil)
	wantNa(t, e.Value(slotOf(t, e, "m")))
	wantNa(t, e.Value(slotOf(t, e, "f")))
}

func TestNaAbsorbsThroughArithmetic(t *testing.T) {
	e := compile(t, "a = na\nm = a + 1\nc = a == 1\n")

	mustStep(t, e, nil)
	wantNa(t, e.Value(slotOf(t, e, "m")))
	v := e.Value(slotOf(t, e, "c"))
	if v.IsNa() || v.AsBool() {
		t.Fatalf("na == 1 should compare false, got %v", v)
	}
}

func TestUserFunctionCall(t *testing.T) {
	e := compile(t, "double(x) => x * 2\nm = double(21)\n")
	slot := slotOf(t, e, "m")

	mustStep(t, e, nil)
	v := e.Value(slot)
	if i, ok := v.AsInt(); !ok || i != 42 {
		t.Fatalf("expected 42, got %v", v)
	}
}

func TestRecursionDetected(t *testing.T) {
	e := compile(t, "f(x) => f(x)\nm = f(1)\n")

	err := e.Step(nil)
	if err == nil {
		t.Fatal("expected a runtime error")
	}
	if err.Code != diagnostics.RRecursionDetected {
		t.Fatalf("expected %s, got %s: %v", diagnostics.RRecursionDetected, err.Code, err)
	}
	if err.Row == nil || *err.Row != 1 {
		t.Fatalf("expected the error stamped with row 1, got %v", err.Row)
	}
}

func TestMissingColumnValueIsNa(t *testing.T) {
	e := compile(t, "m = close\n", closeCol)
	slot := slotOf(t, e, "m")

	mustStep(t, e, map[string]library.Value{})
	wantNa(t, e.Value(slot))
}

func TestRingRetentionDropsOldest(t *testing.T) {
	r := NewRing(3)
	for i := 1; i <= 5; i++ {
		r.Push(library.Int(int64(i)))
	}
	if r.Len() != 3 {
		t.Fatalf("expected 3 retained entries, got %d", r.Len())
	}
	if v, _ := r.At(0, types.KindInt).AsInt(); v != 5 {
		t.Fatalf("At(0) = %v, want 5", r.At(0, types.KindInt))
	}
	if v, _ := r.At(2, types.KindInt).AsInt(); v != 3 {
		t.Fatalf("At(2) = %v, want 3", r.At(2, types.KindInt))
	}
	wantNa(t, r.At(3, types.KindInt))
}
