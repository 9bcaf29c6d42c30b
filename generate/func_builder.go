package generate

import (
	"fmt"

	"streamc/ast"
	"streamc/report"
	"streamc/typing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// slot is the storage of a mutable declaration.
type slot struct {
	addr     value.Value
	elemType types.Type
}

// FuncBuilder holds the state of lowering a single function body: the block
// cursor, the storage created for each declaration, the constants bound to
// immutable declarations and the targets of break and continue.  A function
// builder is owned by a single traversal and is discarded once the function is
// finished.
type FuncBuilder struct {
	ctx  *Context
	fn   *ir.Func
	frag Fragment

	// retType is the source return type of the function.
	retType typing.DataType

	// entry is the function's entry block.  All storage is allocated at its
	// start.
	entry *ir.Block

	// nAllocas is the number of allocations at the start of the entry block.
	nAllocas int

	// cur is the block instructions are currently appended to.
	cur *ir.Block

	vars   map[ast.Decl]slot
	consts map[ast.Decl]constant.Constant

	breakStack    []*ir.Block
	continueStack []*ir.Block
}

// NewFuncBuilder creates a function builder for fn which must not have any
// blocks yet.  The entry block is created and selected.
func NewFuncBuilder(ctx *Context, fn *ir.Func, frag Fragment, retType typing.DataType) *FuncBuilder {
	report.Assert(len(fn.Blocks) == 0, "function `%s` already has a body", fn.Name())

	if frag == nil {
		frag = NullFragment{}
	}

	fb := &FuncBuilder{
		ctx:     ctx,
		fn:      fn,
		frag:    frag,
		retType: retType,
		vars:    make(map[ast.Decl]slot),
		consts:  make(map[ast.Decl]constant.Constant),
	}

	fb.entry = fn.NewBlock("entry")
	fb.cur = fb.entry
	return fb
}

// Block returns the current block.
func (fb *FuncBuilder) Block() *ir.Block {
	return fb.cur
}

// NewBlock adds a new basic block to the function.  It does *not* set the
// current block to this new block.
func (fb *FuncBuilder) NewBlock() *ir.Block {
	return fb.fn.NewBlock(fmt.Sprintf("bb%d", len(fb.fn.Blocks)))
}

// isTerminated returns whether the current block already has a terminator.
func (fb *FuncBuilder) isTerminated() bool {
	return fb.cur.Term != nil
}

// branchTo terminates the current block with a branch to target unless it is
// already terminated.
func (fb *FuncBuilder) branchTo(target *ir.Block) {
	if !fb.isTerminated() {
		fb.cur.NewBr(target)
	}
}

// deadBlock switches to a fresh block after an unconditional transfer of
// control.  Statements that follow go there; the block has no predecessors.
func (fb *FuncBuilder) deadBlock() {
	fb.cur = fb.NewBlock()
}

// -----------------------------------------------------------------------------

// AddVariable registers existing storage, such as a global, for decl.
func (fb *FuncBuilder) AddVariable(decl ast.Decl, addr value.Value, elemType types.Type) {
	fb.vars[decl] = slot{addr: addr, elemType: elemType}
}

// BindConstant binds an immutable declaration to a constant value.
func (fb *FuncBuilder) BindConstant(decl ast.Decl, c constant.Constant) {
	fb.consts[decl] = c
}

// Constants returns the constants bound in this builder.
func (fb *FuncBuilder) Constants() map[ast.Decl]constant.Constant {
	return fb.consts
}

// CreateVariable allocates storage for decl at the start of the entry block.
// The same declaration cannot be given storage twice.
func (fb *FuncBuilder) CreateVariable(decl ast.Decl) value.Value {
	if _, ok := fb.vars[decl]; ok {
		report.ICE("variable `%s` declared twice", decl.DeclName())
	}

	elemType := fb.ctx.ConvType(decl.DeclType())
	alloca := fb.allocate(elemType)

	fb.vars[decl] = slot{addr: alloca, elemType: elemType}
	return alloca
}

// allocate adds a stack allocation of typ after the existing allocations at the
// start of the entry block.
func (fb *FuncBuilder) allocate(typ types.Type) *ir.InstAlloca {
	alloca := ir.NewAlloca(typ)

	insts := make([]ir.Instruction, 0, len(fb.entry.Insts)+1)
	insts = append(insts, fb.entry.Insts[:fb.nAllocas]...)
	insts = append(insts, alloca)
	insts = append(insts, fb.entry.Insts[fb.nAllocas:]...)
	fb.entry.Insts = insts
	fb.nAllocas++

	return alloca
}

// Variable returns the storage of decl.
func (fb *FuncBuilder) Variable(decl ast.Decl) (value.Value, types.Type, bool) {
	s, ok := fb.vars[decl]
	return s.addr, s.elemType, ok
}

// CreateParameterVariables gives every formal parameter storage initialized
// from the corresponding argument.  This must be called before any statement
// is lowered.
func (fb *FuncBuilder) CreateParameterVariables(params []*ast.ParamDecl) {
	report.Assert(len(params) == len(fb.fn.Params), "function `%s` has %d parameters, expected %d", fb.fn.Name(), len(fb.fn.Params), len(params))

	for i, param := range params {
		addr := fb.CreateVariable(param)
		fb.entry.NewStore(fb.fn.Params[i], addr)
	}
}

// -----------------------------------------------------------------------------

func (fb *FuncBuilder) pushLoop(breakBlock, continueBlock *ir.Block) {
	fb.breakStack = append(fb.breakStack, breakBlock)
	fb.continueStack = append(fb.continueStack, continueBlock)
}

func (fb *FuncBuilder) popLoop() {
	fb.breakStack = fb.breakStack[:len(fb.breakStack)-1]
	fb.continueStack = fb.continueStack[:len(fb.continueStack)-1]
}

// -----------------------------------------------------------------------------

// Finish terminates every block without a terminator: with `ret void` for void
// functions and `unreachable` otherwise.
func (fb *FuncBuilder) Finish() {
	for _, block := range fb.fn.Blocks {
		if block.Term == nil {
			if typing.IsVoid(fb.retType) {
				block.NewRet(nil)
			} else {
				block.NewUnreachable()
			}
		}
	}
}
