package parser

import (
	"testing"

	"github.com/kaigouthro/pine-lang/internal/ast"
)

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	p := New("test.pine", src)
	prog := p.ParseProgram()
	if len(p.Errors()) != 0 {
		t.Fatalf("unexpected parse errors for %q: %v", src, p.Errors())
	}
	return prog
}

func soleAssignment(t *testing.T, prog *ast.Program) *ast.Assignment {
	t.Helper()
	if len(prog.Body.Statements) != 1 {
		t.Fatalf("expected exactly one statement, got %d", len(prog.Body.Statements))
	}
	a, ok := prog.Body.Statements[0].(*ast.Assignment)
	if !ok {
		t.Fatalf("expected *ast.Assignment, got %T", prog.Body.Statements[0])
	}
	return a
}

func TestTernaryAndNa(t *testing.T) {
	prog := mustParse(t, "m = a ? b : c\n")
	a := soleAssignment(t, prog)
	tern, ok := a.Value.(*ast.TernaryExpr)
	if !ok {
		t.Fatalf("expected *ast.TernaryExpr, got %T", a.Value)
	}
	if _, ok := tern.Cond.(*ast.Identifier); !ok {
		t.Errorf("expected condition to be an identifier, got %T", tern.Cond)
	}
}

func TestCosineCall(t *testing.T) {
	prog := mustParse(t, "m = cos(0)\n")
	a := soleAssignment(t, prog)
	call, ok := a.Value.(*ast.CallExpr)
	if !ok {
		t.Fatalf("expected *ast.CallExpr, got %T", a.Value)
	}
	if callee, ok := call.Callee.(*ast.Identifier); !ok || callee.Name != "cos" {
		t.Errorf("expected callee 'cos', got %#v", call.Callee)
	}
	if len(call.Args) != 1 {
		t.Fatalf("expected 1 arg, got %d", len(call.Args))
	}
}

func TestSummationWindowCall(t *testing.T) {
	prog := mustParse(t, "m = sum(close, 2)\n")
	a := soleAssignment(t, prog)
	call, ok := a.Value.(*ast.CallExpr)
	if !ok {
		t.Fatalf("expected *ast.CallExpr, got %T", a.Value)
	}
	if len(call.Args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(call.Args))
	}
	if lit, ok := call.Args[1].(*ast.IntLiteral); !ok || lit.Value != 2 {
		t.Errorf("expected second arg to be int literal 2, got %#v", call.Args[1])
	}
}

// TestPrefixAndNestedIfExpr parses a nested if-as-expression promoted
// through two levels of block-return promotion.
func TestPrefixAndNestedIfExpr(t *testing.T) {
	src := "m = if a\n" +
		"    if b\n" +
		"        c\n" +
		"    else\n" +
		"        d\n"
	prog := mustParse(t, src)
	a := soleAssignment(t, prog)
	outer, ok := a.Value.(*ast.IfStatement)
	if !ok {
		t.Fatalf("expected outer *ast.IfStatement, got %T", a.Value)
	}
	if outer.Else != nil {
		t.Fatalf("outer if should have no else clause")
	}
	inner, ok := outer.Then.Trailing.(*ast.IfStatement)
	if !ok {
		t.Fatalf("expected inner if to be promoted to the then-block's trailing expression, got %#v", outer.Then.Trailing)
	}
	if inner.Else == nil {
		t.Fatalf("inner if should have an else clause")
	}
	thenID, ok := inner.Then.Trailing.(*ast.Identifier)
	if !ok || thenID.Name != "c" {
		t.Errorf("expected inner then-branch to promote identifier 'c', got %#v", inner.Then.Trailing)
	}
	elseID, ok := inner.Else.Trailing.(*ast.Identifier)
	if !ok || elseID.Name != "d" {
		t.Errorf("expected inner else-branch to promote identifier 'd', got %#v", inner.Else.Trailing)
	}
}

func TestForRangeWithStep(t *testing.T) {
	src := "for i = 0 to 10 by 2\n    total := total + i\n"
	prog := mustParse(t, src)
	// The program's only statement is a for, so block-return promotion
	// moves it into the program block's Trailing.
	if len(prog.Body.Statements) != 0 {
		t.Fatalf("expected 0 statements after promotion, got %d", len(prog.Body.Statements))
	}
	fs, ok := prog.Body.Trailing.(*ast.ForStatement)
	if !ok {
		t.Fatalf("expected *ast.ForStatement, got %T", prog.Body.Trailing)
	}
	if fs.Step == nil {
		t.Fatalf("expected a by-clause step expression")
	}
	if len(fs.Body.Statements) != 1 {
		t.Fatalf("expected 1 body statement, got %d", len(fs.Body.Statements))
	}
	if _, ok := fs.Body.Statements[0].(*ast.ReassignVar); !ok {
		t.Errorf("expected body statement to be a reassignment, got %T", fs.Body.Statements[0])
	}
}

func TestForRangeDefaultStep(t *testing.T) {
	prog := mustParse(t, "for i = 0 to 5\n    x := i\n")
	fs := prog.Body.Trailing.(*ast.ForStatement)
	if fs.Step != nil {
		t.Errorf("expected nil step when no by-clause is present, got %#v", fs.Step)
	}
}

func TestFunctionDefInlineBody(t *testing.T) {
	prog := mustParse(t, "double(x) => x * 2\n")
	fd, ok := prog.Body.Statements[0].(*ast.FunctionDef)
	if !ok {
		t.Fatalf("expected *ast.FunctionDef, got %T", prog.Body.Statements[0])
	}
	if len(fd.Params) != 1 || fd.Params[0].Name.Name != "x" {
		t.Fatalf("expected single param 'x', got %#v", fd.Params)
	}
	if fd.Body.Trailing == nil {
		t.Fatalf("expected inline body to set Trailing")
	}
}

func TestFunctionDefBlockBody(t *testing.T) {
	src := "average(x, y) =>\n    total = x + y\n    total / 2\n"
	prog := mustParse(t, src)
	fd := prog.Body.Statements[0].(*ast.FunctionDef)
	if len(fd.Body.Statements) != 1 {
		t.Fatalf("expected 1 statement in block body, got %d", len(fd.Body.Statements))
	}
	if fd.Body.Trailing == nil {
		t.Fatalf("expected a trailing expression in block body")
	}
}

func TestTupleDeclarationAndReassignment(t *testing.T) {
	prog := mustParse(t, "[a, b] = (1, 2)\na := a + 1\n")
	if len(prog.Body.Statements) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(prog.Body.Statements))
	}
	assign, ok := prog.Body.Statements[0].(*ast.Assignment)
	if !ok {
		t.Fatalf("expected *ast.Assignment, got %T", prog.Body.Statements[0])
	}
	tp, ok := assign.Pattern.(*ast.TuplePattern)
	if !ok || len(tp.Names) != 2 {
		t.Fatalf("expected a 2-element tuple pattern, got %#v", assign.Pattern)
	}
	if _, ok := prog.Body.Statements[1].(*ast.ReassignVar); !ok {
		t.Errorf("expected second statement to be a reassignment, got %T", prog.Body.Statements[1])
	}
}

func TestTypedDeclaration(t *testing.T) {
	prog := mustParse(t, "float threshold = 0.5\n")
	a := soleAssignment(t, prog)
	if a.DeclaredType == nil || a.DeclaredType.Tok.Lexeme != "float" {
		t.Fatalf("expected declared type 'float', got %#v", a.DeclaredType)
	}
}

func TestReservedIdentifierIsRejected(t *testing.T) {
	p := New("test.pine", "for na = 0 to 2\n    x := 1\n")
	p.ParseProgram()
	found := false
	for _, e := range p.Errors() {
		if e.Code == "P006" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a P006 reserved-identifier error, got %v", p.Errors())
	}
}

func TestUnexpectedIndentIsReported(t *testing.T) {
	p := New("test.pine", "a = 1\n    b = 2\n")
	p.ParseProgram()
	if len(p.Errors()) == 0 {
		t.Fatalf("expected an unexpected-indent error")
	}
	if p.Errors()[0].Code != "P002" {
		t.Errorf("expected code P002, got %s", p.Errors()[0].Code)
	}
}

func TestOperatorPrecedence(t *testing.T) {
	// `a + b * c` should bind as `a + (b * c)`.
	prog := mustParse(t, "m = a + b * c\n")
	a := soleAssignment(t, prog)
	bin, ok := a.Value.(*ast.BinaryExpr)
	if !ok || bin.Operator != "+" {
		t.Fatalf("expected top-level '+', got %#v", a.Value)
	}
	rhs, ok := bin.Right.(*ast.BinaryExpr)
	if !ok || rhs.Operator != "*" {
		t.Fatalf("expected right operand to be a '*' expression, got %#v", bin.Right)
	}
}

func TestMemberAndIndexPostfix(t *testing.T) {
	prog := mustParse(t, "m = ta.sma(close, 5)[1]\n")
	a := soleAssignment(t, prog)
	idx, ok := a.Value.(*ast.IndexExpr)
	if !ok {
		t.Fatalf("expected *ast.IndexExpr, got %T", a.Value)
	}
	call, ok := idx.Target.(*ast.CallExpr)
	if !ok {
		t.Fatalf("expected call target, got %T", idx.Target)
	}
	member, ok := call.Callee.(*ast.MemberExpr)
	if !ok || member.Field.Name != "sma" {
		t.Fatalf("expected callee ta.sma, got %#v", call.Callee)
	}
}

func TestIfWithoutElseHasNilElse(t *testing.T) {
	prog := mustParse(t, "if a\n    x = 1\n")
	ifs := prog.Body.Trailing.(*ast.IfStatement)
	if ifs.Else != nil {
		t.Errorf("expected nil else, got %#v", ifs.Else)
	}
}

func TestCastExpression(t *testing.T) {
	prog := mustParse(t, "m = int(price)\n")
	a := soleAssignment(t, prog)
	cast, ok := a.Value.(*ast.CastExpr)
	if !ok {
		t.Fatalf("expected *ast.CastExpr, got %T", a.Value)
	}
	if cast.Type.Tok.Lexeme != "int" {
		t.Errorf("expected cast to int, got %s", cast.Type.Tok.Lexeme)
	}
}

func TestEmptyProgramIsValid(t *testing.T) {
	prog := mustParse(t, "// just a comment\n\n")
	if len(prog.Body.Statements) != 0 || prog.Body.Trailing != nil {
		t.Errorf("expected an empty program, got %#v", prog.Body)
	}
}
