package typing

import (
	"fmt"
	"strings"
)

// DataType represents a resolved source-language type.  Every expression handed
// to code generation carries one of these.
type DataType interface {
	// Repr returns the representative string for this type.  It is also the
	// form read back by Parse.
	Repr() string

	// Equiv returns whether this type is equivalent to the other type.
	Equiv(other DataType) bool
}

// -----------------------------------------------------------------------------

// PrimType represents a primitive type.  This must be one of the enumerated
// primitive type values below.
type PrimType int

// Enumeration of the different primitive types.
const (
	PrimVoid PrimType = iota
	PrimBool
	PrimBit
	PrimInt
	PrimFloat
)

func (pt PrimType) Repr() string {
	switch pt {
	case PrimVoid:
		return "void"
	case PrimBool:
		return "bool"
	case PrimBit:
		return "bit"
	case PrimInt:
		return "int"
	default:
		return "float"
	}
}

func (pt PrimType) Equiv(other DataType) bool {
	if opt, ok := other.(PrimType); ok {
		return pt == opt
	}

	return false
}

// APIntType is a fixed-width integer type with a user-chosen bit width.  Like
// all integer types in the language, it is signed.
type APIntType struct {
	Bits int
}

func (at *APIntType) Repr() string {
	return fmt.Sprintf("apint<%d>", at.Bits)
}

func (at *APIntType) Equiv(other DataType) bool {
	if oat, ok := other.(*APIntType); ok {
		return at.Bits == oat.Bits
	}

	return false
}

// ArrayType is a fixed-length array.  Multi-dimensional arrays are arrays of
// arrays: `int[4][2]` is an array of four `int[2]`.
type ArrayType struct {
	ElemType DataType
	Len      int
}

func (at *ArrayType) Repr() string {
	var dims strings.Builder
	var elem DataType = at
	for {
		if arr, ok := elem.(*ArrayType); ok {
			fmt.Fprintf(&dims, "[%d]", arr.Len)
			elem = arr.ElemType
		} else {
			break
		}
	}

	return elem.Repr() + dims.String()
}

func (at *ArrayType) Equiv(other DataType) bool {
	if oat, ok := other.(*ArrayType); ok {
		return at.Len == oat.Len && at.ElemType.Equiv(oat.ElemType)
	}

	return false
}

// FuncType is the signature of a function.
type FuncType struct {
	ReturnType DataType
	Params     []DataType
}

func (ft *FuncType) Repr() string {
	params := make([]string, len(ft.Params))
	for i, p := range ft.Params {
		params[i] = p.Repr()
	}

	return fmt.Sprintf("(%s) -> %s", strings.Join(params, ", "), ft.ReturnType.Repr())
}

func (ft *FuncType) Equiv(other DataType) bool {
	oft, ok := other.(*FuncType)
	if !ok || len(ft.Params) != len(oft.Params) || !ft.ReturnType.Equiv(oft.ReturnType) {
		return false
	}

	for i, p := range ft.Params {
		if !p.Equiv(oft.Params[i]) {
			return false
		}
	}

	return true
}

// -----------------------------------------------------------------------------

// IsVoid returns whether dt is the void type.
func IsVoid(dt DataType) bool {
	return dt == PrimVoid
}

// IsBoolean returns whether dt is one of the single-bit types.
func IsBoolean(dt DataType) bool {
	return dt == PrimBool || dt == PrimBit
}

// IsInt returns whether dt is an integer type of any width.
func IsInt(dt DataType) bool {
	if dt == PrimInt {
		return true
	}

	_, ok := dt.(*APIntType)
	return ok
}

// IsFloat returns whether dt is the floating-point type.
func IsFloat(dt DataType) bool {
	return dt == PrimFloat
}

// BitWidth returns the number of bits used to represent values of a scalar
// type.  It returns 0 for types without a scalar width.
func BitWidth(dt DataType) int {
	switch v := dt.(type) {
	case PrimType:
		switch v {
		case PrimBool, PrimBit:
			return 1
		case PrimInt:
			return 32
		case PrimFloat:
			return 64
		}
	case *APIntType:
		return v.Bits
	}

	return 0
}
