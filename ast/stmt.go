package ast

import "streamc/report"

// Stmt represents a statement.  Like expressions, the set of statements is
// closed.
type Stmt interface {
	Position() *report.TextPosition

	isStmt()
}

// StmtBase is the base struct for all statements other than VarDecl.
type StmtBase struct {
	Pos *report.TextPosition
}

func (sb *StmtBase) Position() *report.TextPosition {
	return sb.Pos
}

func (sb *StmtBase) isStmt() {}

// -----------------------------------------------------------------------------

// ExprStmt is an expression evaluated for its side effects.
type ExprStmt struct {
	StmtBase

	Expr Expr
}

// Block is a compound statement.
type Block struct {
	StmtBase

	Stmts []Stmt
}

// If is an if statement.  Else may be nil.
type If struct {
	StmtBase

	Cond Expr
	Then Stmt
	Else Stmt
}

// For is a C-style for loop.  Each of the header clauses may be nil.
type For struct {
	StmtBase

	Init Stmt
	Cond Expr
	Post Expr
	Body Stmt
}

// While is a while loop.
type While struct {
	StmtBase

	Cond Expr
	Body Stmt
}

// Break exits the innermost enclosing loop.
type Break struct {
	StmtBase
}

// Continue jumps to the next iteration of the innermost enclosing loop.
type Continue struct {
	StmtBase
}

// Return returns from the enclosing function.  Value is nil for void returns.
type Return struct {
	StmtBase

	Value Expr
}

// Push pushes Value onto the filter's output channel.
type Push struct {
	StmtBase

	Value Expr
}
