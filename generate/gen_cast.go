package generate

import (
	"streamc/report"
	"streamc/typing"

	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// genCast generates a type cast of srcVal from srcType to dstType.  Casts
// between types with the same IR type are free.
func (fb *FuncBuilder) genCast(srcVal value.Value, srcType, dstType typing.DataType) value.Value {
	srcLLType := fb.ctx.ConvType(srcType)
	dstLLType := fb.ctx.ConvType(dstType)

	// types are equal: no cast necessary
	if srcLLType.Equal(dstLLType) {
		return srcVal
	}

	srcInt, srcIsInt := srcLLType.(*types.IntType)
	dstInt, dstIsInt := dstLLType.(*types.IntType)
	srcFloat, srcIsFloat := srcLLType.(*types.FloatType)
	dstFloat, dstIsFloat := dstLLType.(*types.FloatType)

	switch {
	case srcIsInt && dstIsInt:
		// booleans are never signed
		if srcInt.BitSize == 1 {
			return fb.cur.NewZExt(srcVal, dstInt)
		}

		if srcInt.BitSize > dstInt.BitSize {
			return fb.cur.NewTrunc(srcVal, dstInt)
		}

		return fb.cur.NewSExt(srcVal, dstInt)
	case srcIsInt && dstIsFloat:
		if srcInt.BitSize == 1 {
			return fb.cur.NewUIToFP(srcVal, dstFloat)
		}

		return fb.cur.NewSIToFP(srcVal, dstFloat)
	case srcIsFloat && dstIsInt:
		return fb.cur.NewFPToSI(srcVal, dstInt)
	case srcIsFloat && dstIsFloat:
		if floatBits(srcFloat) < floatBits(dstFloat) {
			return fb.cur.NewFPExt(srcVal, dstFloat)
		}

		return fb.cur.NewFPTrunc(srcVal, dstFloat)
	}

	report.ICE("no cast from `%s` to `%s`", srcType.Repr(), dstType.Repr())
	return nil
}

// floatBits returns the width of a floating-point type.
func floatBits(ft *types.FloatType) int {
	switch ft.Kind {
	case types.FloatKindHalf:
		return 16
	case types.FloatKindFloat:
		return 32
	case types.FloatKindDouble:
		return 64
	default:
		return 128
	}
}
