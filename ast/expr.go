package ast

import (
	"streamc/report"
	"streamc/typing"
)

// Expr represents an expression simple or complex. All expression nodes
// implement the `Expr` interface.  The set of expression nodes is closed: code
// generation switches over each of the types in this file.
type Expr interface {
	// Type is the yielded type of the expression.  It is never nil for a tree
	// that has passed semantic analysis.
	Type() typing.DataType

	// Position returns the spanning position of the whole expression.
	Position() *report.TextPosition

	isExpr()
}

// ExprBase is the base struct for all expressions.
type ExprBase struct {
	typ typing.DataType
	Pos *report.TextPosition
}

// NewExprBase creates a new expression base of the given type.
func NewExprBase(typ typing.DataType) ExprBase {
	return ExprBase{typ: typ}
}

func (eb *ExprBase) Type() typing.DataType {
	return eb.typ
}

func (eb *ExprBase) Position() *report.TextPosition {
	return eb.Pos
}

func (eb *ExprBase) isExpr() {}

// -----------------------------------------------------------------------------

// IntLit is an integer literal.  Its type is `int` or an `apint<N>`.
type IntLit struct {
	ExprBase

	Value int64
}

// BoolLit is a boolean literal.  Its type is `bool` or `bit`.
type BoolLit struct {
	ExprBase

	Value bool
}

// FloatLit is a floating-point literal.
type FloatLit struct {
	ExprBase

	Value float64
}

// Identifier is a reference to a named declaration.  Decl is filled in by
// name resolution.
type Identifier struct {
	ExprBase

	Name string
	Decl Decl
}

// Index is an array subscript: `Array[Index]`.
type Index struct {
	ExprBase

	Array, Index Expr
}

// Comma evaluates its left operand for its side effects and yields its right.
type Comma struct {
	ExprBase

	Lhs, Rhs Expr
}

// -----------------------------------------------------------------------------

// Assign is a simple (`=`) or compound (`+=` etc.) assignment.  For compound
// assignment Op is the binary operator applied; for simple assignment it is
// OpNone.
type Assign struct {
	ExprBase

	Op       int
	Lhs, Rhs Expr
}

// Unary is a unary operator application.  Op must be one of the enumerated
// unary operators.
type Unary struct {
	ExprBase

	Op      int
	Operand Expr
}

// Binary is an arithmetic or bitwise binary operator application.  Both
// operands share the expression's type.
type Binary struct {
	ExprBase

	Op       int
	Lhs, Rhs Expr
}

// Relational is a comparison.  Its type is `bool`; both operands share a common
// type which is the type of the left operand.
type Relational struct {
	ExprBase

	Op       int
	Lhs, Rhs Expr
}

// Logical is a short-circuiting `&&` or `||`.
type Logical struct {
	ExprBase

	Op       int
	Lhs, Rhs Expr
}

// -----------------------------------------------------------------------------

// Call is a call to a resolved function.
type Call struct {
	ExprBase

	Func *FuncDecl
	Args []Expr
}

// Cast represents a type cast.  The destination type is stored in the ExprBase.
type Cast struct {
	ExprBase

	Src Expr
}

// Pop removes and yields the head of the filter's input channel.
type Pop struct {
	ExprBase
}

// Peek yields the element Index positions from the head of the filter's input
// channel without removing anything.
type Peek struct {
	ExprBase

	Index Expr
}

// InitList is a brace initializer for an array.  It only appears as the
// initializer of a declaration.
type InitList struct {
	ExprBase

	Elems []Expr
}
