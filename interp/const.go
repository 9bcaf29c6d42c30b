package interp

import (
	"fmt"
	"math"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
)

// ConstValue evaluates a constant.  Globals and functions are not values in
// their own right and are rejected.
func ConstValue(c constant.Constant) (Value, error) {
	switch c := c.(type) {
	case *constant.Int:
		return IntValue(c.X.Int64(), c.Typ.BitSize), nil
	case *constant.Float:
		f, _ := c.X.Float64()
		return FloatValue(f), nil
	case *constant.Array:
		elems := make([]Value, len(c.Elems))
		for i, elem := range c.Elems {
			var err error
			if elems[i], err = ConstValue(elem); err != nil {
				return Value{}, err
			}
		}

		return Value{Kind: KindAggregate, Elems: elems}, nil
	case *constant.ZeroInitializer:
		return Zero(c.Type()), nil
	case *constant.Undef:
		return Zero(c.Type()), nil
	case *constant.Null:
		return Value{Kind: KindPtr}, nil
	}

	return Value{}, fmt.Errorf("unsupported constant %s", c.Ident())
}

// ToConstant converts a runtime value of type t back into a constant.
func ToConstant(v Value, t types.Type) (constant.Constant, error) {
	switch tt := t.(type) {
	case *types.IntType:
		if tt.BitSize == 1 {
			return constant.NewBool(v.Bool()), nil
		}

		return constant.NewInt(tt, WrapInt(v.Int, tt.BitSize)), nil
	case *types.FloatType:
		if math.IsNaN(v.Float) {
			return nil, fmt.Errorf("NaN has no constant representation")
		}

		return constant.NewFloat(tt, v.Float), nil
	case *types.ArrayType:
		if isZero(v) {
			return constant.NewZeroInitializer(tt), nil
		}

		elems := make([]constant.Constant, tt.Len)
		for i := range elems {
			elem := Zero(tt.ElemType)
			if i < len(v.Elems) {
				elem = v.Elems[i]
			}

			c, err := ToConstant(elem, tt.ElemType)
			if err != nil {
				return nil, err
			}

			elems[i] = c
		}

		return constant.NewArray(tt, elems...), nil
	}

	return nil, fmt.Errorf("values of type %s have no constant representation", t)
}

// isZero returns whether v is the zero value, recursively.
func isZero(v Value) bool {
	switch v.Kind {
	case KindInt:
		return v.Int == 0
	case KindFloat:
		return v.Float == 0 && !math.Signbit(v.Float)
	case KindPtr:
		return v.Ptr.IsNil()
	case KindAggregate:
		for _, elem := range v.Elems {
			if !isZero(elem) {
				return false
			}
		}
	}

	return true
}
