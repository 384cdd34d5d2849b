package parser

import (
	"github.com/kaigouthro/pine-lang/internal/ast"
	"github.com/kaigouthro/pine-lang/internal/diagnostics"
	"github.com/kaigouthro/pine-lang/internal/token"
	"github.com/kaigouthro/pine-lang/internal/types"
)

// parseExpression is the entry point for the whole operator grammar:
// ternary wraps around a fully parsed operator-expression (precedence
// level 1, lowest and right-associative), everything else cascades
// through the levels below it.
func (p *Parser) parseExpression() ast.Expression {
	p.exprDepth++
	defer func() { p.exprDepth-- }()
	if p.exprDepth > maxRecursionDepth {
		p.errorf(diagnostics.PUnexpectedToken, p.tokRange(p.curTok), "expression nested too deeply")
		return &ast.NaLiteral{TokRange: p.tokRange(p.curTok), Tok: p.curTok}
	}

	cond := p.parseOr(nil)
	if !p.curIs(token.QUESTION) {
		return cond
	}
	start := cond.GetRange()
	p.advance() // consume '?'
	thenExpr := p.parseExpression()
	p.expect(token.COLON)
	elseExpr := p.parseExpression()
	return &ast.TernaryExpr{
		TokRange: ast.Span(start, elseExpr.GetRange()),
		Cond:     cond, Then: thenExpr, Else: elseExpr,
	}
}

// finishExpressionFrom resumes the operator-precedence cascade from an
// already-parsed primary-and-postfix expression (seed), letting a
// statement-leading identifier that turns out not to start a
// declaration/reassignment/call grow into a full binary expression — e.g.
// a block's trailing line `total / 2`, where `total` was peeked at before
// any of ASSIGN/REASSIGN/LPAREN matched.
func (p *Parser) finishExpressionFrom(seed ast.Expression) ast.Expression {
	cond := p.parseOr(seed)
	if !p.curIs(token.QUESTION) {
		return cond
	}
	start := cond.GetRange()
	p.advance()
	thenExpr := p.parseExpression()
	p.expect(token.COLON)
	elseExpr := p.parseExpression()
	return &ast.TernaryExpr{
		TokRange: ast.Span(start, elseExpr.GetRange()),
		Cond:     cond, Then: thenExpr, Else: elseExpr,
	}
}

// Each cascade level takes an optional seed: when non-nil, it stands in
// for that level's usual first call to the next level down (used only on
// the outermost, leftmost operand — every recursive call below passes
// nil).
func (p *Parser) parseOr(seed ast.Expression) ast.Expression {
	left := p.parseAnd(seed)
	for p.curIs(token.OR) {
		left = p.parseBinaryStep(left, "or", func() ast.Expression { return p.parseAnd(nil) })
	}
	return left
}

func (p *Parser) parseAnd(seed ast.Expression) ast.Expression {
	left := p.parseEquality(seed)
	for p.curIs(token.AND) {
		left = p.parseBinaryStep(left, "and", func() ast.Expression { return p.parseEquality(nil) })
	}
	return left
}

func (p *Parser) parseEquality(seed ast.Expression) ast.Expression {
	left := p.parseRelational(seed)
	for p.curIs(token.EQ) || p.curIs(token.NOT_EQ) {
		op := opLexeme(p.curTok)
		left = p.parseBinaryStep(left, op, func() ast.Expression { return p.parseRelational(nil) })
	}
	return left
}

func (p *Parser) parseRelational(seed ast.Expression) ast.Expression {
	left := p.parseAdditive(seed)
	for p.curIs(token.LT) || p.curIs(token.LTE) || p.curIs(token.GT) || p.curIs(token.GTE) {
		op := opLexeme(p.curTok)
		left = p.parseBinaryStep(left, op, func() ast.Expression { return p.parseAdditive(nil) })
	}
	return left
}

func (p *Parser) parseAdditive(seed ast.Expression) ast.Expression {
	left := p.parseMultiplicative(seed)
	for p.curIs(token.PLUS) || p.curIs(token.MINUS) {
		op := opLexeme(p.curTok)
		left = p.parseBinaryStep(left, op, func() ast.Expression { return p.parseMultiplicative(nil) })
	}
	return left
}

func (p *Parser) parseMultiplicative(seed ast.Expression) ast.Expression {
	left := seed
	if left == nil {
		left = p.parseUnary()
	}
	for p.curIs(token.ASTERISK) || p.curIs(token.SLASH) || p.curIs(token.PERCENT) {
		op := opLexeme(p.curTok)
		left = p.parseBinaryStep(left, op, func() ast.Expression { return p.parseUnary() })
	}
	return left
}

// parseBinaryStep consumes the operator token already matched by the
// caller's loop guard, parses the right-hand operand at the next
// precedence level, and builds the left-associated node.
func (p *Parser) parseBinaryStep(left ast.Expression, op string, next func() ast.Expression) ast.Expression {
	tok := p.curTok
	p.advance()
	right := next()
	return &ast.BinaryExpr{
		TokRange: ast.Span(left.GetRange(), right.GetRange()),
		Tok:      tok, Operator: op, Left: left, Right: right,
	}
}

func opLexeme(t token.Token) string { return t.Lexeme }

func (p *Parser) parseUnary() ast.Expression {
	switch p.curTok.Type {
	case token.PLUS, token.MINUS, token.NOT:
		tok := p.curTok
		op := opLexeme(tok)
		start := p.tokRange(tok)
		p.advance()
		operand := p.parseUnary()
		return &ast.UnaryExpr{TokRange: ast.Span(start, operand.GetRange()), Tok: tok, Operator: op, Operand: operand}
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parsePostfix() ast.Expression {
	expr := p.parsePrimary()
	for {
		switch {
		case p.curIs(token.DOT):
			p.advance()
			fieldTok := p.curTok
			if !p.curIs(token.IDENT) {
				p.errorf(diagnostics.PUnexpectedToken, p.tokRange(fieldTok), "expected field name after '.'")
			}
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

// parseArgList parses a comma-separated expression list up to (but not
// consuming) the closing RPAREN. Caller has already consumed the opening
// paren.
func (p *Parser) parseArgList() []ast.Expression {
	var args []ast.Expression
	if p.curIs(token.RPAREN) {
		return args
	}
	args = append(args, p.parseExpression())
	for p.curIs(token.COMMA) {
		p.advance()
		args = append(args, p.parseExpression())
	}
	return args
}

func (p *Parser) parsePrimary() ast.Expression {
	tok := p.curTok
	r := p.tokRange(tok)
	switch tok.Type {
	case token.NA:
		p.advance()
		return &ast.NaLiteral{TokRange: r, Tok: tok}
	case token.TRUE, token.FALSE:
		p.advance()
		return &ast.BoolLiteral{TokRange: r, Tok: tok, Value: tok.Type == token.TRUE}
	case token.INT:
		p.advance()
		return &ast.IntLiteral{TokRange: r, Tok: tok, Value: parseInt(tok.Lexeme)}
	case token.FLOAT:
		p.advance()
		return &ast.FloatLiteral{TokRange: r, Tok: tok, Value: parseFloat(tok.Lexeme)}
	case token.STRING:
		p.advance()
		return &ast.StringLiteral{TokRange: r, Tok: tok, Value: tok.Lexeme}
	case token.COLOR:
		p.advance()
		return &ast.ColorLiteral{TokRange: r, Tok: tok, Value: tok.Lexeme}
	case token.IDENT:
		p.advance()
		return &ast.Identifier{TokRange: r, Tok: tok, Name: tok.Lexeme}
	case token.TYPE_FLOAT, token.TYPE_INT, token.TYPE_BOOL, token.TYPE_COLOR, token.TYPE_STRING:
		return p.parseCast()
	case token.LPAREN:
		return p.parseParenGroup()
	case token.LBRACK:
		return p.parseBracketTupleLiteral()
	case token.IF:
		return p.parseIfStatement(p.blockDepth).(ast.Expression)
	case token.FOR:
		return p.parseForStatement(p.blockDepth).(ast.Expression)
	default:
		p.errorf(diagnostics.PUnexpectedToken, r, "unexpected token %s %q in expression", tok.Type, tok.Lexeme)
		p.advance()
		return &ast.NaLiteral{TokRange: r}
	}
}

func (p *Parser) parseCast() ast.Expression {
	start := p.tokRange(p.curTok)
	dt := &ast.DeclaredType{TokRange: start, Tok: p.curTok, Kind: declaredKind(p.curTok.Type)}
	p.advance()
	if !p.curIs(token.LPAREN) {
		p.errorf(diagnostics.PPrefixMissingTail, start, "cast %q must be followed by '(' expression ')'", dt.Tok.Lexeme)
		return declaredTypeNaLiteral(dt)
	}
	p.advance()
	arg := p.parseExpression()
	end := p.tokRange(p.curTok)
	p.expect(token.RPAREN)
	return &ast.CastExpr{TokRange: ast.Span(start, end), Type: dt, Arg: arg}
}

// declaredTypeNaLiteral produces a placeholder so callers that fail to find the
// cast's required parenthesised argument can still return *some*
// expression and let parsing continue.
func declaredTypeNaLiteral(d *ast.DeclaredType) *ast.NaLiteral {
	return &ast.NaLiteral{TokRange: d.TokRange, Tok: d.Tok}
}

func declaredKind(t token.Type) types.Kind {
	switch t {
	case token.TYPE_FLOAT:
		return types.KindFloat
	case token.TYPE_INT:
		return types.KindInt
	case token.TYPE_BOOL:
		return types.KindBool
	case token.TYPE_COLOR:
		return types.KindColor
	case token.TYPE_STRING:
		return types.KindString
	default:
		return types.KindNa
	}
}

// parseParenGroup parses `(e)` (a plain grouped expression, unwrapped) or
// `(e, e, ...)` (a tuple literal value).
func (p *Parser) parseParenGroup() ast.Expression {
	start := p.tokRange(p.curTok)
	p.advance() // consume '('
	if p.curIs(token.RPAREN) {
		p.errorf(diagnostics.PEmptyLvalueTuple, start, "empty parenthesised expression")
		end := p.tokRange(p.curTok)
		p.advance()
		return &ast.TupleLiteral{TokRange: ast.Span(start, end)}
	}
	first := p.parseExpression()
	if p.curIs(token.COMMA) {
		elems := []ast.Expression{first}
		for p.curIs(token.COMMA) {
			p.advance()
			elems = append(elems, p.parseExpression())
		}
		end := p.tokRange(p.curTok)
		p.expect(token.RPAREN)
		return &ast.TupleLiteral{TokRange: ast.Span(start, end), Elems: elems}
	}
	p.expect(token.RPAREN)
	return first
}

// parseBracketTupleLiteral parses `[e, e, ...]` as a tuple value (the
// same bracket syntax a tuple-destructuring pattern uses on the left of a
// declaration, here on the right as a value).
func (p *Parser) parseBracketTupleLiteral() ast.Expression {
	start := p.tokRange(p.curTok)
	p.advance() // consume '['
	if p.curIs(token.RBRACK) {
		p.errorf(diagnostics.PEmptyLvalueTuple, start, "empty tuple literal")
		end := p.tokRange(p.curTok)
		p.advance()
		return &ast.TupleLiteral{TokRange: ast.Span(start, end)}
	}
	elems := []ast.Expression{p.parseExpression()}
	for p.curIs(token.COMMA) {
		p.advance()
		elems = append(elems, p.parseExpression())
	}
	end := p.tokRange(p.curTok)
	p.expect(token.RBRACK)
	return &ast.TupleLiteral{TokRange: ast.Span(start, end), Elems: elems}
}
