package ast

import "github.com/kaigouthro/pine-lang/internal/token"

// ExpressionStatement wraps a bare call expression used as a statement —
// the grammar rejects any other bare expression as a statement.
type ExpressionStatement struct {
	TokRange Range
	Expr     *CallExpr
}

func (e *ExpressionStatement) TokenLiteral() string { return e.Expr.TokenLiteral() }
func (e *ExpressionStatement) GetRange() Range      { return e.TokRange }
func (e *ExpressionStatement) Accept(v Visitor)     { v.VisitExpressionStatement(e) }
func (e *ExpressionStatement) statementNode()       {}

// BreakStatement is `break`; valid only inside a ForStatement body
// (checked by the analyser, not the parser).
type BreakStatement struct {
	TokRange Range
	Tok      token.Token
}

func (b *BreakStatement) TokenLiteral() string { return b.Tok.Lexeme }
func (b *BreakStatement) GetRange() Range      { return b.TokRange }
func (b *BreakStatement) Accept(v Visitor)     { v.VisitBreakStatement(b) }
func (b *BreakStatement) statementNode()       {}

// ContinueStatement is `continue`.
type ContinueStatement struct {
	TokRange Range
	Tok      token.Token
}

func (c *ContinueStatement) TokenLiteral() string { return c.Tok.Lexeme }
func (c *ContinueStatement) GetRange() Range      { return c.TokRange }
func (c *ContinueStatement) Accept(v Visitor)     { v.VisitContinueStatement(c) }
func (c *ContinueStatement) statementNode()       {}

// NoOpStatement is an empty or comment-only line that still needs a slot
// in a Block's Statements for range-coverage purposes.
type NoOpStatement struct {
	TokRange Range
}

func (n *NoOpStatement) TokenLiteral() string { return "" }
func (n *NoOpStatement) GetRange() Range      { return n.TokRange }
func (n *NoOpStatement) Accept(v Visitor)     { v.VisitNoOpStatement(n) }
func (n *NoOpStatement) statementNode()       {}

// Assignment is a declaration: `[var] [type] pattern = exp`. Declare is
// true for both bare `name = exp` and `var name = exp` forms — both
// create a new slot; DeclaredType is nil unless a type
// keyword preceded the pattern.
type Assignment struct {
	TokRange     Range
	Pattern      Pattern
	DeclaredType *DeclaredType
	Value        Expression
}

func (a *Assignment) TokenLiteral() string { return a.Pattern.TokenLiteral() }
func (a *Assignment) GetRange() Range      { return a.TokRange }
func (a *Assignment) Accept(v Visitor)     { v.VisitAssignment(a) }
func (a *Assignment) statementNode()       {}

// ReassignVar is `name := exp`: the slot must already exist.
type ReassignVar struct {
	TokRange Range
	Name     *Identifier
	Value    Expression
}

func (r *ReassignVar) TokenLiteral() string { return r.Name.TokenLiteral() }
func (r *ReassignVar) GetRange() Range      { return r.TokRange }
func (r *ReassignVar) Accept(v Visitor)     { v.VisitReassignVar(r) }
func (r *ReassignVar) statementNode()       {}

// IfStatement is `if cond \n block (else \n block)?`. It doubles as an
// expression: the block-return-promotion rule re-labels a
// block's final IfStatement as the block's Trailing expression instead of
// wrapping it, so IfStatement implements both statementNode and
// expressionNode.
type IfStatement struct {
	TokRange Range
	Tok      token.Token
	Cond     Expression
	Then     *Block
	Else     *Block // nil if no else clause
}

func (i *IfStatement) TokenLiteral() string { return i.Tok.Lexeme }
func (i *IfStatement) GetRange() Range      { return i.TokRange }
func (i *IfStatement) Accept(v Visitor)     { v.VisitIfStatement(i) }
func (i *IfStatement) statementNode()       {}
func (i *IfStatement) expressionNode()      {}

// ForStatement is `for id = start to end (by step)? \n block`. Like
// IfStatement, it doubles as an expression via block-return-promotion.
type ForStatement struct {
	TokRange Range
	Tok      token.Token
	Var      *Identifier
	Start    Expression
	End      Expression
	Step     Expression // nil if no `by` clause (defaults to 1)
	Body     *Block
}

func (f *ForStatement) TokenLiteral() string { return f.Tok.Lexeme }
func (f *ForStatement) GetRange() Range      { return f.TokRange }
func (f *ForStatement) Accept(v Visitor)     { v.VisitForStatement(f) }
func (f *ForStatement) statementNode()       {}
func (f *ForStatement) expressionNode()      {}

// Param is one parameter of a FunctionDef.
type Param struct {
	Name *Identifier
}

// FunctionDef is `name(param, ...) => body`, where body is either a
// single expression on the same line or an indented block.
type FunctionDef struct {
	TokRange Range
	Name     *Identifier
	Params   []*Param
	Body     *Block
}

func (f *FunctionDef) TokenLiteral() string { return f.Name.TokenLiteral() }
func (f *FunctionDef) GetRange() Range      { return f.TokRange }
func (f *FunctionDef) Accept(v Visitor)     { v.VisitFunctionDef(f) }
func (f *FunctionDef) statementNode()       {}
