package interp

import (
	"fmt"

	"github.com/llir/llvm/ir/types"
)

// object is a single allocation: a flat sequence of scalar cells.  Arrays are
// laid out in row-major order.
type object struct {
	cells []Value

	// channel objects behave like a FIFO port: loads through the base pointer
	// consume the head, loads through a derived pointer read without consuming
	// and every store appends.
	channel bool
}

// Pointer is an address: an object and a cell offset into it.
type Pointer struct {
	obj *object
	off int

	// derived is set for pointers produced by getelementptr.
	derived bool
}

// IsNil returns whether the pointer refers to no object.
func (p Pointer) IsNil() bool {
	return p.obj == nil
}

// cellCount returns the number of scalar cells used by a value of type t.
func cellCount(t types.Type) int {
	if at, ok := t.(*types.ArrayType); ok {
		return int(at.Len) * cellCount(at.ElemType)
	}

	return 1
}

func newObject(t types.Type) *object {
	obj := &object{cells: make([]Value, cellCount(t))}
	writeCells(obj.cells, Zero(t), t)
	return obj
}

// writeCells flattens v of type t into cells.
func writeCells(cells []Value, v Value, t types.Type) {
	if at, ok := t.(*types.ArrayType); ok {
		n := cellCount(at.ElemType)
		for i := 0; i < int(at.Len); i++ {
			var elem Value
			if i < len(v.Elems) {
				elem = v.Elems[i]
			} else {
				elem = Zero(at.ElemType)
			}

			writeCells(cells[i*n:(i+1)*n], elem, at.ElemType)
		}

		return
	}

	cells[0] = v
}

// readCells rebuilds a value of type t from cells.
func readCells(cells []Value, t types.Type) Value {
	if at, ok := t.(*types.ArrayType); ok {
		n := cellCount(at.ElemType)
		elems := make([]Value, at.Len)
		for i := range elems {
			elems[i] = readCells(cells[i*n:(i+1)*n], at.ElemType)
		}

		return Value{Kind: KindAggregate, Elems: elems}
	}

	return cells[0]
}

// load reads a value of type t from p.
func load(p Pointer, t types.Type) (Value, error) {
	if p.IsNil() {
		return Value{}, fmt.Errorf("load through null pointer")
	}

	n := cellCount(t)
	if p.obj.channel {
		if p.off < 0 || p.off >= len(p.obj.cells) {
			return Value{}, fmt.Errorf("read of element %d from a channel holding %d", p.off, len(p.obj.cells))
		}

		v := p.obj.cells[p.off]
		if !p.derived {
			p.obj.cells = p.obj.cells[1:]
		}

		return v, nil
	}

	if p.off < 0 || p.off+n > len(p.obj.cells) {
		return Value{}, fmt.Errorf("load of %d cells at offset %d is out of bounds of an object of %d", n, p.off, len(p.obj.cells))
	}

	return readCells(p.obj.cells[p.off:p.off+n], t), nil
}

// store writes v of type t to p.
func store(p Pointer, v Value, t types.Type) error {
	if p.IsNil() {
		return fmt.Errorf("store through null pointer")
	}

	if p.obj.channel {
		p.obj.cells = append(p.obj.cells, v)
		return nil
	}

	n := cellCount(t)
	if p.off < 0 || p.off+n > len(p.obj.cells) {
		return fmt.Errorf("store of %d cells at offset %d is out of bounds of an object of %d", n, p.off, len(p.obj.cells))
	}

	writeCells(p.obj.cells[p.off:p.off+n], v, t)
	return nil
}

// -----------------------------------------------------------------------------

// NewChannel creates a channel holding the given elements and returns a
// pointer to it.  It is used to run functions which access their channels
// through pointer parameters.
func NewChannel(elems ...Value) Value {
	obj := &object{cells: append([]Value(nil), elems...), channel: true}
	return Value{Kind: KindPtr, Ptr: Pointer{obj: obj}}
}

// ChannelContents returns the elements currently held by a channel created by
// NewChannel.
func ChannelContents(ch Value) []Value {
	if ch.Kind != KindPtr || ch.Ptr.IsNil() || !ch.Ptr.obj.channel {
		return nil
	}

	return append([]Value(nil), ch.Ptr.obj.cells...)
}
