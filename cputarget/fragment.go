package cputarget

import (
	"streamc/ast"
	"streamc/generate"
	"streamc/typing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// Fragment accesses a filter's channels by calling the runtime functions
// `<instance>_pop`, `<instance>_peek` and `<instance>_push`.  Functions for a
// void channel are not declared and the corresponding operations cannot be
// built.
type Fragment struct {
	pop, peek, push *ir.Func
}

// NewFragment declares the channel functions of a filter instance.
func NewFragment(ctx *generate.Context, instance string, filter *ast.FilterDecl) (*Fragment, error) {
	frag := &Fragment{}

	if !typing.IsVoid(filter.InputType) {
		inType := ctx.ConvType(filter.InputType)

		var err error
		if frag.peek, err = ctx.GetOrInsertFunc(instance+"_peek", inType, types.I32); err != nil {
			return nil, err
		}

		if frag.pop, err = ctx.GetOrInsertFunc(instance+"_pop", inType); err != nil {
			return nil, err
		}
	}

	if !typing.IsVoid(filter.OutputType) {
		var err error
		if frag.push, err = ctx.GetOrInsertFunc(instance+"_push", types.Void, ctx.ConvType(filter.OutputType)); err != nil {
			return nil, err
		}
	}

	return frag, nil
}

func (f *Fragment) BuildPop(block *ir.Block) value.Value {
	if f.pop == nil {
		return nil
	}

	return block.NewCall(f.pop)
}

func (f *Fragment) BuildPeek(block *ir.Block, index value.Value) value.Value {
	if f.peek == nil {
		return nil
	}

	return block.NewCall(f.peek, toI32(block, index))
}

func (f *Fragment) BuildPush(block *ir.Block, val value.Value) bool {
	if f.push == nil {
		return false
	}

	block.NewCall(f.push, val)
	return true
}

// toI32 converts a peek offset to the `i32` the runtime expects.
func toI32(block *ir.Block, index value.Value) value.Value {
	it, ok := index.Type().(*types.IntType)
	if !ok || it.BitSize == 32 {
		return index
	}

	if it.BitSize > 32 {
		return block.NewTrunc(index, types.I32)
	}

	return block.NewSExt(index, types.I32)
}

var _ generate.Fragment = (*Fragment)(nil)
