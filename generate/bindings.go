package generate

import (
	"streamc/ast"
	"streamc/typing"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

var voidType typing.DataType = typing.PrimVoid

// Bindings are the declarations visible to a filter function beyond its own
// locals: filter parameters bound to constants and state variables bound to
// their globals.
type Bindings struct {
	vars   map[ast.Decl]slot
	consts map[ast.Decl]constant.Constant
}

// NewBindings creates an empty set of bindings.
func NewBindings() *Bindings {
	return &Bindings{
		vars:   make(map[ast.Decl]slot),
		consts: make(map[ast.Decl]constant.Constant),
	}
}

// AddVariable binds decl to existing storage.
func (b *Bindings) AddVariable(decl ast.Decl, addr value.Value, elemType types.Type) {
	b.vars[decl] = slot{addr: addr, elemType: elemType}
}

// BindConstant binds decl to a constant.
func (b *Bindings) BindConstant(decl ast.Decl, c constant.Constant) {
	b.consts[decl] = c
}

// Constants returns the constant bindings.
func (b *Bindings) Constants() map[ast.Decl]constant.Constant {
	return b.consts
}

// copy returns an independent copy of the bindings.
func (b *Bindings) copy() *Bindings {
	nb := NewBindings()
	for decl, s := range b.vars {
		nb.vars[decl] = s
	}

	for decl, c := range b.consts {
		nb.consts[decl] = c
	}

	return nb
}

func (b *Bindings) apply(fb *FuncBuilder) {
	if b == nil {
		return
	}

	for decl, s := range b.vars {
		fb.AddVariable(decl, s.addr, s.elemType)
	}

	for decl, c := range b.consts {
		fb.BindConstant(decl, c)
	}
}
