// Package parser turns a token stream into an AST: a recursive-descent
// reader parameterised by indent depth at every block boundary, following
// a curToken/peekToken/nextToken cursor rather than a buffered token
// stream with arbitrary lookahead, since Pine's newlines always terminate
// a statement rather than sometimes continuing one.
package parser

import (
	"github.com/kaigouthro/pine-lang/internal/ast"
	"github.com/kaigouthro/pine-lang/internal/diagnostics"
	"github.com/kaigouthro/pine-lang/internal/lexer"
	"github.com/kaigouthro/pine-lang/internal/token"
)

// maxRecursionDepth guards against pathological input driving the
// recursive-descent expression parser into a stack overflow.
const maxRecursionDepth = 250

// Parser reads tokens from a Lexer and builds an *ast.Program. A Parser is
// single-use: construct one per source file with New.
type Parser struct {
	l *lexer.Lexer

	curTok  token.Token
	peekTok token.Token

	curIndent  int
	peekIndent int

	filePath string
	errors   []*diagnostics.Error

	exprDepth int

	// blockDepth is the indent depth of the block currently being parsed.
	// Expression parsing consults it when `if`/`for` appears directly in a
	// value position (e.g. `m = if a ... `): both are grammatically
	// statements, but the block-return-promotion rule lets either stand in
	// for a value anywhere, not just as a block's final statement, so
	// parsePrimary dispatches to the very same parseIfStatement/
	// parseForStatement used for the statement form.
	blockDepth int
}

// New constructs a Parser positioned before the first token of src.
func New(filePath, src string) *Parser {
	p := &Parser{l: lexer.New(src), filePath: filePath}
	// Prime both lookahead slots.
	p.advance()
	p.advance()
	return p
}

// Errors returns every parse error collected so far, in source order.
func (p *Parser) Errors() []*diagnostics.Error { return p.errors }

func (p *Parser) advance() {
	p.curTok = p.peekTok
	p.curIndent = p.peekIndent
	p.peekTok = p.l.NextToken()
	p.peekIndent = p.l.CurrentIndent()
	if p.curTok.Type == token.ILLEGAL {
		p.errors = append(p.errors, diagnostics.NewParseError(
			diagnostics.PUnexpectedToken, p.tokRange(p.curTok), "%s", p.curTok.Lexeme))
	}
}

func (p *Parser) tokRange(t token.Token) ast.Range {
	start := ast.Position{Line: t.Line, Column: t.Column, Offset: t.Offset}
	end := ast.Position{Line: t.Line, Column: t.Column + len(t.Lexeme), Offset: t.Offset + len(t.Lexeme)}
	return ast.Range{Start: start, End: end}
}

func (p *Parser) curIs(t token.Type) bool  { return p.curTok.Type == t }
func (p *Parser) peekIs(t token.Type) bool { return p.peekTok.Type == t }

// expect checks the current token's type, records a parse error if it
// doesn't match, and always advances past it (error recovery keeps going
// rather than getting stuck).
func (p *Parser) expect(t token.Type) bool {
	if p.curIs(t) {
		p.advance()
		return true
	}
	p.errors = append(p.errors, diagnostics.NewParseError(
		diagnostics.PUnexpectedToken, p.tokRange(p.curTok),
		"expected %s, got %s %q", t, p.curTok.Type, p.curTok.Lexeme))
	p.advance()
	return false
}

func (p *Parser) errorf(code string, r ast.Range, format string, args ...interface{}) {
	p.errors = append(p.errors, diagnostics.NewParseError(code, r, format, args...))
}

// expectIdent requires the current token to be a plain identifier,
// reporting a ReservedIdentifier error (rather than a generic
// UnexpectedToken) when the offending token is one of the lexer's
// keyword spellings — a clearer diagnostic for the common mistake of
// naming a loop variable, parameter, or pattern element after a reserved
// word. Always advances, successful or not, so callers can keep parsing.
func (p *Parser) expectIdent() *ast.Identifier {
	tok := p.curTok
	r := p.tokRange(tok)
	if p.curIs(token.IDENT) {
		p.advance()
		return &ast.Identifier{TokRange: r, Tok: tok, Name: tok.Lexeme}
	}
	if token.IsReserved(tok.Lexeme) {
		p.errorf(diagnostics.PReservedIdentifier, r, "%q is a reserved word and cannot be used as an identifier", tok.Lexeme)
	} else {
		p.errorf(diagnostics.PUnexpectedToken, r, "expected identifier, got %s %q", tok.Type, tok.Lexeme)
	}
	p.advance()
	return &ast.Identifier{TokRange: r, Tok: tok, Name: tok.Lexeme}
}

// ParseProgram parses the whole source as a depth-0 block. A script
// containing nothing but blank and comment lines is valid and yields an
// empty program.
func (p *Parser) ParseProgram() *ast.Program {
	body := p.parseBlock(0, false)
	return &ast.Program{Body: body}
}

// parseBlock reads statements at exactly indent depth d until the stream
// dedents below d or hits EOF. requireNonEmpty is set for nested blocks
// (if/for/function bodies), which the grammar forbids being empty.
func (p *Parser) parseBlock(depth int, requireNonEmpty bool) *ast.Block {
	savedDepth := p.blockDepth
	p.blockDepth = depth
	defer func() { p.blockDepth = savedDepth }()

	start := p.tokRange(p.curTok)
	block := &ast.Block{Range: start}

	for !p.curIs(token.EOF) && p.curIndent >= depth {
		if p.curIndent > depth {
			p.errorf(diagnostics.PUnexpectedIndent, p.tokRange(p.curTok),
				"unexpected indent: statement starts %d levels deep, expected %d", p.curIndent, depth)
			p.skipToLineEnd()
			continue
		}
		stmt, exprCandidate := p.parseStatement(depth)

		if p.curIs(token.NEWLINE) {
			p.advance()
		}

		// A line that parsed as a bare (non-call) expression is only valid
		// as the block's trailing value, which only the block's last line
		// may supply; everywhere else it's the "expression statement:
		// function call only" rule rejecting it.
		isLastLine := p.curIs(token.EOF) || p.curIndent < depth
		// A call on the block's last line is the block's yielded value.
		if es, ok := stmt.(*ast.ExpressionStatement); ok && isLastLine {
			stmt, exprCandidate = nil, es.Expr
		}
		switch {
		case exprCandidate != nil && isLastLine:
			block.Trailing = exprCandidate
		case exprCandidate != nil:
			p.errorf(diagnostics.PUnexpectedToken, exprCandidate.GetRange(),
				"a bare expression is not a valid statement; only function calls are")
		case stmt != nil:
			block.Statements = append(block.Statements, stmt)
		}

		if isLastLine {
			break
		}
	}

	promoteTrailing(block)

	if requireNonEmpty && len(block.Statements) == 0 && block.Trailing == nil {
		p.errorf(diagnostics.PBlockEmpty, start, "block must contain at least one statement")
	}

	end := p.tokRange(p.curTok)
	block.Range = ast.Span(start, end)
	return block
}

// promoteTrailing re-labels a block's final if/for statement as its
// trailing expression when the block has no other trailing value,
// recursing into that statement's own branches so nested blocks promote
// too.
func promoteTrailing(b *ast.Block) {
	if b.Trailing != nil || len(b.Statements) == 0 {
		return
	}
	last := b.Statements[len(b.Statements)-1]
	switch s := last.(type) {
	case *ast.IfStatement:
		b.Statements = b.Statements[:len(b.Statements)-1]
		b.Trailing = s
		promoteTrailing(s.Then)
		if s.Else != nil {
			promoteTrailing(s.Else)
		}
	case *ast.ForStatement:
		b.Statements = b.Statements[:len(b.Statements)-1]
		b.Trailing = s
		promoteTrailing(s.Body)
	}
}

// skipToLineEnd discards tokens up to and including the next NEWLINE (or
// EOF), used to resume parsing after an unrecoverable statement error.
func (p *Parser) skipToLineEnd() {
	for !p.curIs(token.NEWLINE) && !p.curIs(token.EOF) {
		p.advance()
	}
	if p.curIs(token.NEWLINE) {
		p.advance()
	}
}
