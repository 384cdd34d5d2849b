package parser

import (
	"github.com/kaigouthro/pine-lang/internal/ast"
	"github.com/kaigouthro/pine-lang/internal/diagnostics"
	"github.com/kaigouthro/pine-lang/internal/token"
)

// parseStatement dispatches on the current token to one of the statement
// forms the grammar permits at this depth. It never advances past the
// statement's own terminating NEWLINE except where a nested block already
// did so on its behalf (if/for/function-def bodies).
//
// It returns either a Statement, or — when the line turns out to be a
// bare (non-call) expression — that Expression as the second result. The
// caller (parseBlock) decides whether a bare expression is acceptable:
// only a block's last line may supply the block's trailing value.
func (p *Parser) parseStatement(depth int) (ast.Statement, ast.Expression) {
	switch p.curTok.Type {
	case token.BREAK:
		tok := p.curTok
		p.advance()
		return &ast.BreakStatement{TokRange: p.tokRange(tok), Tok: tok}, nil
	case token.CONTINUE:
		tok := p.curTok
		p.advance()
		return &ast.ContinueStatement{TokRange: p.tokRange(tok), Tok: tok}, nil
	case token.IF:
		return p.parseIfStatement(depth), nil
	case token.FOR:
		return p.parseForStatement(depth), nil
	case token.VAR:
		return p.parseVarDeclaration(), nil
	case token.TYPE_FLOAT, token.TYPE_INT, token.TYPE_BOOL, token.TYPE_COLOR, token.TYPE_STRING:
		return p.parseTypedDeclaration(), nil
	case token.LBRACK:
		return p.parseTupleDeclaration(nil), nil
	case token.IDENT:
		return p.parseIdentLeadStatement(depth)
	default:
		expr := p.parseExpression()
		return p.classifyExprStatement(expr)
	}
}

// classifyExprStatement turns a parsed expression into an
// *ast.ExpressionStatement when it is a call, or hands it back unwrapped
// as a trailing-expression candidate otherwise.
func (p *Parser) classifyExprStatement(expr ast.Expression) (ast.Statement, ast.Expression) {
	if call, ok := expr.(*ast.CallExpr); ok {
		return &ast.ExpressionStatement{TokRange: call.GetRange(), Expr: call}, nil
	}
	return nil, expr
}

// parseVarDeclaration handles `var [type] pattern = exp`.
func (p *Parser) parseVarDeclaration() ast.Statement {
	start := p.tokRange(p.curTok)
	p.advance() // consume 'var'
	var dt *ast.DeclaredType
	switch p.curTok.Type {
	case token.TYPE_FLOAT, token.TYPE_INT, token.TYPE_BOOL, token.TYPE_COLOR, token.TYPE_STRING:
		dt = &ast.DeclaredType{TokRange: p.tokRange(p.curTok), Tok: p.curTok, Kind: declaredKind(p.curTok.Type)}
		p.advance()
	}
	if p.curIs(token.LBRACK) {
		return p.parseTupleDeclarationFrom(start, dt)
	}
	return p.parseSimpleDeclarationFrom(start, dt)
}

// parseTypedDeclaration handles `type pattern = exp` where a declared-type
// keyword leads the statement without a preceding `var`.
func (p *Parser) parseTypedDeclaration() ast.Statement {
	start := p.tokRange(p.curTok)
	dt := &ast.DeclaredType{TokRange: start, Tok: p.curTok, Kind: declaredKind(p.curTok.Type)}
	p.advance()
	if p.curIs(token.LBRACK) {
		return p.parseTupleDeclarationFrom(start, dt)
	}
	return p.parseSimpleDeclarationFrom(start, dt)
}

// parseTupleDeclaration handles a bare `[id, id] = exp` with no leading
// `var` or type keyword.
func (p *Parser) parseTupleDeclaration(dt *ast.DeclaredType) ast.Statement {
	start := p.tokRange(p.curTok)
	return p.parseTupleDeclarationFrom(start, dt)
}

func (p *Parser) parseTupleDeclarationFrom(start ast.Range, dt *ast.DeclaredType) ast.Statement {
	pattern := p.parseTuplePattern()
	p.expect(token.ASSIGN)
	value := p.parseExpression()
	return &ast.Assignment{
		TokRange: ast.Span(start, value.GetRange()), Pattern: pattern, DeclaredType: dt, Value: value,
	}
}

func (p *Parser) parseTuplePattern() *ast.TuplePattern {
	start := p.tokRange(p.curTok)
	p.advance() // consume '['
	tp := &ast.TuplePattern{TokRange: start}
	if p.curIs(token.RBRACK) {
		p.errorf(diagnostics.PEmptyLvalueTuple, start, "tuple pattern must name at least one identifier")
		p.advance()
		return tp
	}
	for {
		tp.Names = append(tp.Names, p.expectIdent())
		if !p.curIs(token.COMMA) {
			break
		}
		p.advance()
	}
	end := p.tokRange(p.curTok)
	p.expect(token.RBRACK)
	tp.TokRange = ast.Span(start, end)
	return tp
}

// parseSimpleDeclarationFrom handles `pattern = exp` once any leading
// `var`/type keyword has already been consumed by the caller.
func (p *Parser) parseSimpleDeclarationFrom(start ast.Range, dt *ast.DeclaredType) ast.Statement {
	name := p.expectIdent()
	p.expect(token.ASSIGN)
	value := p.parseExpression()
	return &ast.Assignment{
		TokRange: ast.Span(start, value.GetRange()), Pattern: name, DeclaredType: dt, Value: value,
	}
}

// parseIdentLeadStatement resolves the three statement forms that can
// start with a bare identifier: declaration (`a = e`), reassignment
// (`a := e`), and either a call statement or a function definition
// (`a(...)`/`a(...) => body`) — the two are indistinguishable until the
// token after the closing paren is checked.
func (p *Parser) parseIdentLeadStatement(depth int) (ast.Statement, ast.Expression) {
	start := p.tokRange(p.curTok)
	idTok := p.curTok
	name := &ast.Identifier{TokRange: start, Tok: idTok, Name: idTok.Lexeme}
	p.advance()

	switch p.curTok.Type {
	case token.ASSIGN:
		p.advance()
		value := p.parseExpression()
		return &ast.Assignment{TokRange: ast.Span(start, value.GetRange()), Pattern: name, Value: value}, nil
	case token.REASSIGN:
		p.advance()
		value := p.parseExpression()
		return &ast.ReassignVar{TokRange: ast.Span(start, value.GetRange()), Name: name, Value: value}, nil
	case token.LPAREN:
		p.advance()
		args := p.parseArgList()
		closeRange := p.tokRange(p.curTok)
		p.expect(token.RPAREN)
		if p.curIs(token.ARROW) {
			return p.finishFunctionDef(start, name, args, depth), nil
		}
		call := &ast.CallExpr{TokRange: ast.Span(start, closeRange), Callee: name, Args: args}
		seed := p.continuePostfix(call)
		expr := p.finishExpressionFrom(seed)
		return p.classifyExprStatement(expr)
	default:
		// A bare reference (`a`) might still grow into a larger expression
		// (`a.b`, `a[i]`, a binary chain via the operator levels above this
		// one) — let the full expression grammar take over from here.
		seed := p.continuePostfix(ast.Expression(name))
		rest := p.finishExpressionFrom(seed)
		return p.classifyExprStatement(rest)
	}
}

// continuePostfix lets a statement-lead identifier (already parsed as a
// primary) pick up any further postfix chain (`.field`, `[idx]`, `(args)`)
// the way parsePostfix would if it had started there.
func (p *Parser) continuePostfix(expr ast.Expression) ast.Expression {
	for {
		switch {
		case p.curIs(token.DOT):
			p.advance()
			fieldTok := p.curTok
			field := &ast.Identifier{TokRange: p.tokRange(fieldTok), Tok: fieldTok, Name: fieldTok.Lexeme}
			p.advance()
			expr = &ast.MemberExpr{TokRange: ast.Span(expr.GetRange(), field.GetRange()), Object: expr, Field: field}
		case p.curIs(token.LBRACK):
			p.advance()
			idx := p.parseExpression()
			end := p.tokRange(p.curTok)
			p.expect(token.RBRACK)
			expr = &ast.IndexExpr{TokRange: ast.Span(expr.GetRange(), end), Target: expr, Index: idx}
		case p.curIs(token.LPAREN):
			p.advance()
			args := p.parseArgList()
			end := p.tokRange(p.curTok)
			p.expect(token.RPAREN)
			expr = &ast.CallExpr{TokRange: ast.Span(expr.GetRange(), end), Callee: expr, Args: args}
		default:
			return expr
		}
	}
}

// finishFunctionDef completes `name(params) => body` once the argument
// list has already been parsed generically (it is, syntactically,
// identical to a call's argument list up to this point) and the `=>` has
// been spotted. Every argument must turn out to have been a bare
// identifier, i.e. a parameter name.
func (p *Parser) finishFunctionDef(start ast.Range, name *ast.Identifier, args []ast.Expression, depth int) ast.Statement {
	params := make([]*ast.Param, 0, len(args))
	for _, a := range args {
		id, ok := a.(*ast.Identifier)
		if !ok {
			p.errorf(diagnostics.PUnexpectedToken, a.GetRange(), "function parameters must be plain identifiers")
			continue
		}
		params = append(params, &ast.Param{Name: id})
	}
	p.advance() // consume '=>'
	body := p.parseFunctionBody(depth)
	return &ast.FunctionDef{TokRange: ast.Span(start, body.GetRange()), Name: name, Params: params, Body: body}
}

// parseFunctionBody parses either a single trailing expression on the
// same line, or a newline-introduced indented block.
func (p *Parser) parseFunctionBody(depth int) *ast.Block {
	if p.curIs(token.NEWLINE) {
		p.advance()
		return p.parseBlock(depth+1, true)
	}
	expr := p.parseExpression()
	return &ast.Block{Range: expr.GetRange(), Trailing: expr}
}

// parseIfStatement parses `if cond <nl> block (else <nl> block)?`. `else`,
// when present, must sit at the same depth as the `if` itself.
func (p *Parser) parseIfStatement(depth int) ast.Statement {
	start := p.tokRange(p.curTok)
	tok := p.curTok
	p.advance() // consume 'if'
	cond := p.parseExpression()
	if !p.curIs(token.NEWLINE) {
		p.errorf(diagnostics.PUnexpectedToken, p.tokRange(p.curTok), "expected newline after if condition")
	} else {
		p.advance()
	}
	then := p.parseBlock(depth+1, true)

	stmt := &ast.IfStatement{TokRange: start, Tok: tok, Cond: cond, Then: then}

	if p.curIndent == depth && p.curIs(token.ELSE) {
		p.advance()
		if !p.curIs(token.NEWLINE) {
			p.errorf(diagnostics.PUnexpectedToken, p.tokRange(p.curTok), "expected newline after else")
		} else {
			p.advance()
		}
		stmt.Else = p.parseBlock(depth+1, true)
		stmt.TokRange = ast.Span(start, stmt.Else.GetRange())
	} else {
		stmt.TokRange = ast.Span(start, then.GetRange())
	}
	return stmt
}

// parseForStatement parses `for id = start to end (by step)? <nl> block`.
func (p *Parser) parseForStatement(depth int) ast.Statement {
	start := p.tokRange(p.curTok)
	tok := p.curTok
	p.advance() // consume 'for'

	loopVar := p.expectIdent()

	p.expect(token.ASSIGN)
	from := p.parseExpression()
	if !p.curIs(token.TO) {
		p.errorf(diagnostics.PUnexpectedToken, p.tokRange(p.curTok), "expected 'to' in for-range")
	} else {
		p.advance()
	}
	to := p.parseExpression()

	var step ast.Expression
	if p.curIs(token.BY) {
		p.advance()
		step = p.parseExpression()
	}

	if !p.curIs(token.NEWLINE) {
		p.errorf(diagnostics.PUnexpectedToken, p.tokRange(p.curTok), "expected newline after for-range header")
	} else {
		p.advance()
	}
	body := p.parseBlock(depth+1, true)

	return &ast.ForStatement{
		TokRange: ast.Span(start, body.GetRange()), Tok: tok,
		Var: loopVar, Start: from, End: to, Step: step, Body: body,
	}
}
