package generate

import (
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// Result is the outcome of lowering an expression.  It holds a computed value,
// an address of storage holding the value, or both.  An address-only result
// materializes its value by a load the first time the value is requested; the
// load is remembered so repeated requests do not emit another one.
type Result struct {
	val  value.Value
	addr value.Value

	// elemType is the type of the value stored at addr.
	elemType types.Type
}

// ValueResult creates a value-only result.
func ValueResult(val value.Value) *Result {
	return &Result{val: val}
}

// AddressResult creates an address-only result for storage of type elemType.
func AddressResult(addr value.Value, elemType types.Type) *Result {
	return &Result{addr: addr, elemType: elemType}
}

// EmptyResult creates a result with no value: the result of a call to a void
// function.
func EmptyResult() *Result {
	return &Result{}
}

// IsAddress returns whether the result refers to storage.
func (r *Result) IsAddress() bool {
	return r.addr != nil
}

// HasValue returns whether a value can be produced from this result.
func (r *Result) HasValue() bool {
	return r.val != nil || r.addr != nil
}

// Address returns the address of the result or nil for value-only results.
func (r *Result) Address() value.Value {
	return r.addr
}

// ElemType returns the type of the storage an address result refers to.
func (r *Result) ElemType() types.Type {
	return r.elemType
}

// Value returns the value of the result, loading it in the builder's current
// block if this is the first request on an address-only result.
func (r *Result) Value(fb *FuncBuilder) value.Value {
	if r.val == nil && r.addr != nil {
		r.val = fb.cur.NewLoad(r.elemType, r.addr)
	}

	return r.val
}
