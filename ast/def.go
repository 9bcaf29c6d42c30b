package ast

import (
	"streamc/report"
	"streamc/typing"
)

// Decl is a named declaration that identifiers can resolve to.  Declarations
// are compared by identity: two distinct declarations with the same name are
// different variables.
type Decl interface {
	DeclName() string
	DeclType() typing.DataType
	Position() *report.TextPosition
}

// VarDecl is a variable declaration: a local, a filter state variable, or a
// filter parameter.  It doubles as a statement when it appears in a block.
type VarDecl struct {
	Name string
	Typ  typing.DataType

	// Init is the initializer, if any.
	Init Expr

	// Constant indicates an immutable declaration.  Constant declarations with
	// an initializer get no storage: uses are replaced by the folded value.
	Constant bool

	Pos *report.TextPosition
}

func (vd *VarDecl) DeclName() string               { return vd.Name }
func (vd *VarDecl) DeclType() typing.DataType      { return vd.Typ }
func (vd *VarDecl) Position() *report.TextPosition { return vd.Pos }
func (vd *VarDecl) isStmt()                        {}

// ParamDecl is a formal parameter of a function.
type ParamDecl struct {
	Name string
	Typ  typing.DataType
	Pos  *report.TextPosition
}

func (pd *ParamDecl) DeclName() string               { return pd.Name }
func (pd *ParamDecl) DeclType() typing.DataType      { return pd.Typ }
func (pd *ParamDecl) Position() *report.TextPosition { return pd.Pos }

// FuncDecl is a function declaration.  External functions have no body and
// are only ever declared in the produced module.
type FuncDecl struct {
	Name string

	// Symbol is the executable symbol name used in the produced module.  When
	// empty, Name is used.
	Symbol string

	Sig    *typing.FuncType
	Params []*ParamDecl
	Body   *Block

	Pos *report.TextPosition
}

func (fd *FuncDecl) DeclName() string               { return fd.Name }
func (fd *FuncDecl) DeclType() typing.DataType      { return fd.Sig }
func (fd *FuncDecl) Position() *report.TextPosition { return fd.Pos }

// SymbolName returns the name the function is emitted under.
func (fd *FuncDecl) SymbolName() string {
	if fd.Symbol != "" {
		return fd.Symbol
	}

	return fd.Name
}

// External returns whether the function is only a declaration.
func (fd *FuncDecl) External() bool {
	return fd.Body == nil
}

// -----------------------------------------------------------------------------

// FilterDecl is a single filter of a stream program.  InputType and OutputType
// are the element types of its channels; either may be `void` for sources and
// sinks.
type FilterDecl struct {
	Name string

	InputType, OutputType typing.DataType

	// Stateless filters may not write their state variables from the init
	// block.
	Stateless bool

	Params []*VarDecl
	State  []*VarDecl

	// Init, Prework and Work are the bodies of the three filter functions.
	// Init and Prework may be nil.
	Init, Prework, Work *Block

	Pos *report.TextPosition
}

// Program is a whole stream program: its filters and the functions they call.
type Program struct {
	Name      string
	Filters   []*FilterDecl
	Functions []*FuncDecl
}
