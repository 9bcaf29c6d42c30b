package interp

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/llir/llvm/ir/types"
)

// Kind is the kind of a runtime value.
type Kind int

// Enumeration of value kinds.
const (
	KindVoid Kind = iota
	KindInt
	KindFloat
	KindPtr
	KindAggregate
)

// Value is a runtime value.  Integers of every width are held sign-extended in
// Int: an `i1` true is -1.
type Value struct {
	Kind  Kind
	Int   int64
	Float float64
	Ptr   Pointer
	Elems []Value
}

// IntValue creates an integer value of the given width.
func IntValue(x int64, bits uint64) Value {
	return Value{Kind: KindInt, Int: WrapInt(x, bits)}
}

// BoolValue creates an `i1` value.
func BoolValue(b bool) Value {
	if b {
		return Value{Kind: KindInt, Int: -1}
	}

	return Value{Kind: KindInt}
}

// FloatValue creates a floating-point value.
func FloatValue(f float64) Value {
	return Value{Kind: KindFloat, Float: f}
}

// Bool returns whether an integer value is non-zero.
func (v Value) Bool() bool {
	return v.Int != 0
}

// Uint returns the value of an integer of the given width read as unsigned.
func (v Value) Uint(bits uint64) uint64 {
	if bits >= 64 {
		return uint64(v.Int)
	}

	return uint64(v.Int) & (1<<bits - 1)
}

// WrapInt truncates x to bits and sign-extends the result back to 64 bits.
func WrapInt(x int64, bits uint64) int64 {
	if bits >= 64 || bits == 0 {
		return x
	}

	shift := 64 - bits
	return (x << shift) >> shift
}

// Zero returns the zero value of an IR type.
func Zero(t types.Type) Value {
	switch v := t.(type) {
	case *types.IntType:
		return Value{Kind: KindInt}
	case *types.FloatType:
		return Value{Kind: KindFloat}
	case *types.PointerType:
		return Value{Kind: KindPtr}
	case *types.ArrayType:
		elems := make([]Value, v.Len)
		for i := range elems {
			elems[i] = Zero(v.ElemType)
		}

		return Value{Kind: KindAggregate, Elems: elems}
	}

	return Value{}
}

// Format returns the textual form of a value of type t: integers in decimal,
// `i1` as true/false, arrays in braces.
func Format(v Value, t types.Type) string {
	switch tt := t.(type) {
	case *types.IntType:
		if tt.BitSize == 1 {
			return strconv.FormatBool(v.Bool())
		}

		return strconv.FormatInt(v.Int, 10)
	case *types.FloatType:
		if math.IsNaN(v.Float) {
			return "nan"
		}

		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case *types.ArrayType:
		elems := make([]string, len(v.Elems))
		for i, elem := range v.Elems {
			elems[i] = Format(elem, tt.ElemType)
		}

		return "{" + strings.Join(elems, ", ") + "}"
	case *types.PointerType:
		return fmt.Sprintf("<ptr %p+%d>", v.Ptr.obj, v.Ptr.off)
	}

	return "void"
}
