package generate

import (
	"streamc/report"
	"streamc/typing"

	"github.com/llir/llvm/ir/types"
)

// ConvType converts a source type into an IR type.  Within a build use
// Context.ConvType which caches the result.
func ConvType(dt typing.DataType) types.Type {
	switch v := dt.(type) {
	case typing.PrimType:
		return convPrimType(v)
	case *typing.APIntType:
		return types.NewInt(uint64(v.Bits))
	case *typing.ArrayType:
		return types.NewArray(uint64(v.Len), ConvType(v.ElemType))
	case *typing.FuncType:
		params := make([]types.Type, len(v.Params))
		for i, pt := range v.Params {
			params[i] = ConvType(pt)
		}

		return types.NewFunc(ConvType(v.ReturnType), params...)
	}

	report.ICE("no IR type for source type `%s`", dt.Repr())
	return nil
}

func convPrimType(pt typing.PrimType) types.Type {
	switch pt {
	case typing.PrimBool, typing.PrimBit:
		return types.I1
	case typing.PrimInt:
		return types.I32
	case typing.PrimFloat:
		return types.Double
	default:
		return types.Void
	}
}

// intType asserts that an IR type is an integer type.
func intType(t types.Type) *types.IntType {
	it, ok := t.(*types.IntType)
	if !ok {
		report.ICE("expected integer type, got %s", t)
	}

	return it
}
