package ast

// Enumeration of binary operators.  These are shared by Binary, Relational,
// Logical and compound Assign nodes.
const (
	OpNone = iota

	// arithmetic
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod

	// bitwise
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr

	// relational
	OpLT
	OpLE
	OpGT
	OpGE
	OpEq
	OpNE

	// logical
	OpLogAnd
	OpLogOr
)

// Enumeration of unary operators.
const (
	OpPreInc = iota
	OpPreDec
	OpPostInc
	OpPostDec
	OpPos
	OpNeg
	OpLogNot
	OpBitNot
)

// BinaryOpNames maps the textual spelling of each binary operator to its
// value.
var BinaryOpNames = map[string]int{
	"+":  OpAdd,
	"-":  OpSub,
	"*":  OpMul,
	"/":  OpDiv,
	"%":  OpMod,
	"&":  OpBitAnd,
	"|":  OpBitOr,
	"^":  OpBitXor,
	"<<": OpShl,
	">>": OpShr,
	"<":  OpLT,
	"<=": OpLE,
	">":  OpGT,
	">=": OpGE,
	"==": OpEq,
	"!=": OpNE,
	"&&": OpLogAnd,
	"||": OpLogOr,
}

// UnaryOpNames maps the textual spelling of each unary operator to its value.
// Postfix operators are written after a placeholder underscore.
var UnaryOpNames = map[string]int{
	"++_": OpPreInc,
	"--_": OpPreDec,
	"_++": OpPostInc,
	"_--": OpPostDec,
	"+":   OpPos,
	"-":   OpNeg,
	"!":   OpLogNot,
	"~":   OpBitNot,
}

// IsArithOp returns whether op is an arithmetic or bitwise operator.
func IsArithOp(op int) bool {
	return OpAdd <= op && op <= OpShr
}

// IsRelOp returns whether op is a relational operator.
func IsRelOp(op int) bool {
	return OpLT <= op && op <= OpNE
}

// IsLogicalOp returns whether op is a short-circuiting logical operator.
func IsLogicalOp(op int) bool {
	return op == OpLogAnd || op == OpLogOr
}
