package driver_test

import (
	"math"
	"testing"

	"github.com/kaigouthro/pine-lang/internal/driver"
	"github.com/kaigouthro/pine-lang/internal/library"
	"github.com/kaigouthro/pine-lang/internal/types"
)

// End-to-end scenarios through the public Program API: each compiles a
// whole script, feeds rows, and reads a named slot back.

func closeColumnLib() library.LibInfo {
	return library.LibInfo{
		Builtins: driver.StandardLibrary(),
		Columns:  []library.ColumnSpec{{Name: "close", Kind: types.KindFloat}},
	}
}

func mustProgram(t *testing.T, src string, libInfo library.LibInfo) *driver.Program {
	t.Helper()
	prog, ctx := driver.NewProgram("test.pine", src, libInfo)
	if prog == nil {
		t.Fatalf("program failed to compile: %+v", ctx.Errors)
	}
	return prog
}

func mVal(t *testing.T, prog *driver.Program) library.Value {
	t.Helper()
	slot, ok := prog.SlotOf("m")
	if !ok {
		t.Fatalf("no slot for m")
	}
	return prog.Value(slot)
}

func wantFloat(t *testing.T, v library.Value, want float64) {
	t.Helper()
	if v.IsNa() {
		t.Fatalf("expected %g, got na", want)
	}
	f, ok := v.AsFloat()
	if !ok {
		t.Fatalf("expected float, got %v", v)
	}
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

func TestTernaryAndNa(t *testing.T) {
	libInfo := library.LibInfo{Builtins: driver.StandardLibrary()}

	prog := mustProgram(t, "a = true\nb = 1\nc = na\nm = a ? b : c\n", libInfo)
	if err := prog.Run(nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	wantFloat(t, mVal(t, prog), 1)

	prog2 := mustProgram(t, "a = false\nb = 1\nc = na\nm = a ? b : c\n", libInfo)
	if err := prog2.Run(nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	wantNa(t, mVal(t, prog2))
}

func TestCosine(t *testing.T) {
	libInfo := library.LibInfo{Builtins: driver.StandardLibrary()}
	prog := mustProgram(t, "m = cos(0)\n", libInfo)
	if err := prog.Run(nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	wantFloat(t, mVal(t, prog), 1.0)
}

func TestSummationWindow(t *testing.T) {
	libInfo := closeColumnLib()
	prog := mustProgram(t, "m = sum(close, 2)\n", libInfo)

	rows := []driver.Row{
		{"close": library.Float(12)},
		{"close": library.Float(6)},
	}
	want := []float64{math.NaN(), 18}
	for i, row := range rows {
		if err := prog.Run(row); err != nil {
			t.Fatalf("row %d: %v", i, err)
		}
		v := mVal(t, prog)
		if math.IsNaN(want[i]) {
			wantNa(t, v)
		} else {
			wantFloat(t, v, want[i])
		}
	}
}

func TestRsiIntegerLength(t *testing.T) {
	libInfo := closeColumnLib()
	prog := mustProgram(t, "m = rsi(close, 2)\n", libInfo)

	rows := []driver.Row{
		{"close": library.Float(20)},
		{"close": library.Float(10)},
	}
	want := []float64{math.NaN(), 0.0}
	for i, row := range rows {
		if err := prog.Run(row); err != nil {
			t.Fatalf("row %d: %v", i, err)
		}
		v := mVal(t, prog)
		if math.IsNaN(want[i]) {
			wantNa(t, v)
		} else {
			wantFloat(t, v, want[i])
		}
	}
}

func TestRsiSeriesSeries(t *testing.T) {
	libInfo := closeColumnLib()
	prog := mustProgram(t, "m = rsi(close, close)\n", libInfo)

	rows := []driver.Row{
		{"close": library.Float(20)},
		{"close": library.Float(10)},
	}
	for i, row := range rows {
		if err := prog.Run(row); err != nil {
			t.Fatalf("row %d: %v", i, err)
		}
		wantFloat(t, mVal(t, prog), 50.0)
	}
}

func TestHmaWarmup(t *testing.T) {
	libInfo := closeColumnLib()
	prog := mustProgram(t, "m = hma(close, 2)\n", libInfo)

	rows := []driver.Row{
		{"close": library.Float(6)},
		{"close": library.Float(12)},
		{"close": library.Float(6)},
		{"close": library.Float(12)},
	}
	for i, row := range rows {
		if err := prog.Run(row); err != nil {
			t.Fatalf("row %d: %v", i, err)
		}
		wantNa(t, mVal(t, prog))
	}
}

func TestPrefixAndNestedIfExpr(t *testing.T) {
	libInfo := library.LibInfo{Builtins: driver.StandardLibrary()}
	src := "a = true\nb = false\nc = 1\nd = 2\n" +
		"m = if a\n" +
		"    if b\n" +
		"        c\n" +
		"    else\n" +
		"        d\n"
	prog := mustProgram(t, src, libInfo)
	if err := prog.Run(nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	wantFloat(t, mVal(t, prog), 2)
}

func TestRunAllWithStopOnErrorRunsEveryRowWhenNoneFail(t *testing.T) {
	libInfo := closeColumnLib()
	prog := mustProgram(t, "m = sum(close, 1)\n", libInfo)

	report := prog.RunAll([]driver.Row{
		{"close": library.Float(1)},
		{"close": library.Float(2)},
	}, true)
	if report.RowsRun != 2 {
		t.Fatalf("expected 2 rows run, got %d", report.RowsRun)
	}
	if report.FirstErr != nil {
		t.Fatalf("unexpected error: %v", report.FirstErr)
	}
}
