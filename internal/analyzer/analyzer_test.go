package analyzer

import (
	"strings"
	"testing"

	"github.com/kaigouthro/pine-lang/internal/ast"
	"github.com/kaigouthro/pine-lang/internal/builtins"
	"github.com/kaigouthro/pine-lang/internal/diagnostics"
	"github.com/kaigouthro/pine-lang/internal/library"
	"github.com/kaigouthro/pine-lang/internal/parser"
	"github.com/kaigouthro/pine-lang/internal/symbols"
	"github.com/kaigouthro/pine-lang/internal/types"
)

// analyzeSource lexes, parses, and analyzes input against a registry
// holding the standard built-ins and the given input columns, returning
// the analysis errors and the resolution.
func analyzeSource(input string, cols ...library.ColumnSpec) ([]*diagnostics.Error, *symbols.Resolution) {
	p := parser.New("test.pine", input)
	prog := p.ParseProgram()

	reg := library.NewRegistry()
	builtins.RegisterMath(reg)
	builtins.RegisterSum(reg)
	builtins.RegisterRsi(reg)

	a := New("test.pine", library.LibInfo{Builtins: reg, Columns: cols})
	res := a.Analyze(prog)
	return a.Errors(), res
}

// expectError asserts that analysis of input produces at least one error
// with the given code.
func expectError(t *testing.T, input, code string, cols ...library.ColumnSpec) {
	t.Helper()
	errs, _ := analyzeSource(input, cols...)
	for _, e := range errs {
		if e.Code == code {
			return
		}
	}
	var msgs []string
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	t.Fatalf("expected error %s, got:\n%s\ninput: %s", code, strings.Join(msgs, "\n"), input)
}

func expectNoErrors(t *testing.T, input string, cols ...library.ColumnSpec) *symbols.Resolution {
	t.Helper()
	errs, res := analyzeSource(input, cols...)
	if len(errs) > 0 {
		var msgs []string
		for _, e := range errs {
			msgs = append(msgs, e.Error())
		}
		t.Fatalf("expected no errors, got:\n%s\ninput: %s", strings.Join(msgs, "\n"), input)
	}
	return res
}

func closeColumn() library.ColumnSpec {
	return library.ColumnSpec{Name: "close", Kind: types.KindFloat}
}

func TestUnknownIdentifier(t *testing.T) {
	expectError(t, "m = zzz\n", diagnostics.AUnknownIdent)
}

func TestUnknownFunction(t *testing.T) {
	expectError(t, "m = foo(1)\n", diagnostics.AUnknownIdent)
}

func TestRedeclaredInSameScope(t *testing.T) {
	expectError(t, "a = 1\na = 2\n", diagnostics.ARedeclared)
}

func TestShadowingAcrossScopesAllowed(t *testing.T) {
	expectNoErrors(t, "a = 1\nif true\n    a = 2\n")
}

func TestBreakOutsideFor(t *testing.T) {
	expectError(t, "break\n", diagnostics.ABreakOutsideFor)
	expectError(t, "continue\n", diagnostics.ABreakOutsideFor)
}

func TestBreakInsideForIsLegal(t *testing.T) {
	src := "m = for i = 0 to 5\n" +
		"    if i == 3\n" +
		"        break\n" +
		"    i\n"
	expectNoErrors(t, src)
}

func TestReassignUndeclared(t *testing.T) {
	expectError(t, "a := 1\n", diagnostics.AUnknownIdent)
}

func TestReassignTypeMismatch(t *testing.T) {
	expectError(t, "a = 1\na := \"s\"\n", diagnostics.ATypeMismatch)
}

func TestReassignWidensIntToFloatSlot(t *testing.T) {
	expectNoErrors(t, "a = 1.5\na := 2\n")
}

func TestDeclaredTypeMismatch(t *testing.T) {
	expectError(t, "int a = \"s\"\n", diagnostics.ATypeMismatch)
}

func TestTernaryIncompatibleArms(t *testing.T) {
	expectError(t, "m = true ? 1 : \"s\"\n", diagnostics.ATypeMismatch)
}

func TestNoMatchingOverload(t *testing.T) {
	expectError(t, "m = sum(\"x\", 2)\n", diagnostics.ANoMatchingOverload)
}

func TestIndexRequiresSeries(t *testing.T) {
	expectError(t, "a = 1\nm = a[1]\n", diagnostics.ATypeMismatch)
}

func TestIndexOnColumnSeries(t *testing.T) {
	res := expectNoErrors(t, "m = close[1]\n", closeColumn())
	if _, ok := res.ColumnSlots["close"]; !ok {
		t.Fatalf("expected a column slot for close")
	}
}

// soleCall digs the single resolved call binding out of a resolution.
func soleCall(t *testing.T, res *symbols.Resolution) *symbols.CallBinding {
	t.Helper()
	if len(res.Calls) != 1 {
		t.Fatalf("expected exactly one resolved call, got %d", len(res.Calls))
	}
	for _, b := range res.Calls {
		return b
	}
	return nil
}

func TestOverloadFirstMatchSelectsIntLength(t *testing.T) {
	res := expectNoErrors(t, "m = rsi(close, 2)\n", closeColumn())
	b := soleCall(t, res)
	if _, ok := b.Signature.Params[1].(types.Simple); !ok {
		t.Fatalf("expected the int-length overload, got %s", b.Signature)
	}
}

func TestOverloadFallsThroughToSeriesSeries(t *testing.T) {
	res := expectNoErrors(t, "m = rsi(close, close)\n", closeColumn())
	b := soleCall(t, res)
	if _, ok := b.Signature.Params[1].(types.Series); !ok {
		t.Fatalf("expected the series/series overload, got %s", b.Signature)
	}
}

func TestIntToFloatAdapterRecorded(t *testing.T) {
	res := expectNoErrors(t, "m = cos(0)\n")
	b := soleCall(t, res)
	if len(b.ArgAdapters) != 1 || b.ArgAdapters[0] != library.AdapterIntToFloat {
		t.Fatalf("expected an IntToFloat adapter on the argument, got %v", b.ArgAdapters)
	}
}

func TestBranchCtxIDsAreDistinct(t *testing.T) {
	src := "if true\n    a = 1\nelse\n    b = 2\n"
	res := expectNoErrors(t, src)

	var ids []int
	for node, id := range res.CtxIDs {
		if _, ok := node.(*ast.Block); ok {
			ids = append(ids, id)
		}
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 branch ctxids, got %d", len(ids))
	}
	if ids[0] == ids[1] || ids[0] == 0 || ids[1] == 0 {
		t.Fatalf("expected distinct nonzero ctxids, got %v", ids)
	}
}

func TestUserFunctionInfersMonomorphicSignature(t *testing.T) {
	res := expectNoErrors(t, "double(x) => x * 2\nm = double(21)\n")
	if len(res.Funcs) != 1 {
		t.Fatalf("expected 1 function, got %d", len(res.Funcs))
	}
	for _, info := range res.Funcs {
		if !info.BodyAnalyzed {
			t.Fatal("expected the body to be analyzed at the first call site")
		}
		if len(info.ParamTypes) != 1 || !types.Equal(info.ParamTypes[0], types.IntSimple) {
			t.Fatalf("expected param type int, got %v", info.ParamTypes)
		}
		if !types.Equal(info.ReturnType, types.IntSimple) {
			t.Fatalf("expected return type int, got %v", info.ReturnType)
		}
	}
}

func TestProgramSlotsAreDense(t *testing.T) {
	res := expectNoErrors(t, "a = 1\nb = 2\nc = a + b\n")
	if res.ProgramSlots != 3 {
		t.Fatalf("expected 3 program slots, got %d", res.ProgramSlots)
	}
}

func TestColumnSlotsCountTowardProgramScope(t *testing.T) {
	res := expectNoErrors(t, "m = close\n", closeColumn())
	if res.ProgramSlots != 2 {
		t.Fatalf("expected 2 program slots (close + m), got %d", res.ProgramSlots)
	}
}
