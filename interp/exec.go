package interp

import (
	"fmt"
	"math"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// frame is the activation of a single function.
type frame struct {
	m      *Machine
	fn     *ir.Func
	locals map[value.Value]Value
}

// run executes the function from its entry block until it returns.
func (fr *frame) run() (Value, error) {
	var prev *ir.Block
	block := fr.fn.Blocks[0]

	for {
		if err := fr.enterBlock(block, prev); err != nil {
			return Value{}, err
		}

		for _, inst := range block.Insts {
			if err := fr.m.step(); err != nil {
				return Value{}, err
			}

			if _, ok := inst.(*ir.InstPhi); ok {
				continue
			}

			if err := fr.exec(inst); err != nil {
				return Value{}, fmt.Errorf("%s: %w", block.Name(), err)
			}
		}

		if err := fr.m.step(); err != nil {
			return Value{}, err
		}

		next, ret, done, err := fr.terminate(block)
		if err != nil {
			return Value{}, fmt.Errorf("%s: %w", block.Name(), err)
		}

		if done {
			return ret, nil
		}

		prev, block = block, next
	}
}

// enterBlock evaluates the phi nodes at the start of block.  All incoming
// values are read before any phi is assigned.
func (fr *frame) enterBlock(block, prev *ir.Block) error {
	type phiValue struct {
		phi *ir.InstPhi
		val Value
	}

	var phis []phiValue
	for _, inst := range block.Insts {
		phi, ok := inst.(*ir.InstPhi)
		if !ok {
			continue
		}

		found := false
		for _, inc := range phi.Incs {
			if asBlock(inc.Pred) == prev {
				v, err := fr.operand(inc.X)
				if err != nil {
					return err
				}

				phis = append(phis, phiValue{phi, v})
				found = true
				break
			}
		}

		if !found {
			return fmt.Errorf("%s: phi has no incoming value for the previous block", block.Name())
		}
	}

	for _, pv := range phis {
		fr.locals[pv.phi] = pv.val
	}

	return nil
}

// terminate executes the terminator of block.  It returns the next block or,
// when done is set, the function's result.
func (fr *frame) terminate(block *ir.Block) (next *ir.Block, ret Value, done bool, err error) {
	switch term := block.Term.(type) {
	case *ir.TermRet:
		if term.X == nil {
			return nil, Value{}, true, nil
		}

		ret, err = fr.operand(term.X)
		return nil, ret, true, err
	case *ir.TermBr:
		return asBlock(term.Target), Value{}, false, nil
	case *ir.TermCondBr:
		cond, err := fr.operand(term.Cond)
		if err != nil {
			return nil, Value{}, false, err
		}

		if cond.Bool() {
			return asBlock(term.TargetTrue), Value{}, false, nil
		}

		return asBlock(term.TargetFalse), Value{}, false, nil
	case *ir.TermUnreachable:
		return nil, Value{}, false, fmt.Errorf("reached unreachable")
	case nil:
		return nil, Value{}, false, fmt.Errorf("block has no terminator")
	}

	return nil, Value{}, false, fmt.Errorf("unsupported terminator %T", block.Term)
}

// asBlock converts a branch target to a block.
func asBlock(v interface{}) *ir.Block {
	b, _ := v.(*ir.Block)
	return b
}

// -----------------------------------------------------------------------------

// operand evaluates an instruction operand.
func (fr *frame) operand(v value.Value) (Value, error) {
	switch v := v.(type) {
	case *ir.Global:
		obj, err := fr.m.globalObject(v)
		if err != nil {
			return Value{}, err
		}

		return Value{Kind: KindPtr, Ptr: Pointer{obj: obj}}, nil
	case constant.Constant:
		if _, ok := v.(*ir.Func); !ok {
			return ConstValue(v)
		}
	}

	if val, ok := fr.locals[v]; ok {
		return val, nil
	}

	return Value{}, fmt.Errorf("use of undefined value %s", v.Ident())
}

// operands evaluates a list of operands.
func (fr *frame) operands(vs ...value.Value) ([]Value, error) {
	vals := make([]Value, len(vs))
	for i, v := range vs {
		var err error
		if vals[i], err = fr.operand(v); err != nil {
			return nil, err
		}
	}

	return vals, nil
}

// exec executes a single non-phi instruction.
func (fr *frame) exec(inst ir.Instruction) error {
	result, err := fr.eval(inst)
	if err != nil {
		return err
	}

	if result.Kind != KindVoid {
		if v, ok := inst.(value.Value); ok {
			fr.locals[v] = result
		}
	}

	return nil
}

// eval computes the result of an instruction.
func (fr *frame) eval(inst ir.Instruction) (Value, error) {
	switch inst := inst.(type) {
	// memory
	case *ir.InstAlloca:
		return Value{Kind: KindPtr, Ptr: Pointer{obj: newObject(inst.ElemType)}}, nil
	case *ir.InstLoad:
		src, err := fr.operand(inst.Src)
		if err != nil {
			return Value{}, err
		}

		return load(src.Ptr, inst.ElemType)
	case *ir.InstStore:
		vals, err := fr.operands(inst.Src, inst.Dst)
		if err != nil {
			return Value{}, err
		}

		return Value{}, store(vals[1].Ptr, vals[0], inst.Src.Type())
	case *ir.InstGetElementPtr:
		return fr.evalGEP(inst)

	// integer arithmetic
	case *ir.InstAdd:
		return fr.intBinary(inst.X, inst.Y, func(x, y int64) (int64, error) { return x + y, nil })
	case *ir.InstSub:
		return fr.intBinary(inst.X, inst.Y, func(x, y int64) (int64, error) { return x - y, nil })
	case *ir.InstMul:
		return fr.intBinary(inst.X, inst.Y, func(x, y int64) (int64, error) { return x * y, nil })
	case *ir.InstSDiv:
		return fr.intBinary(inst.X, inst.Y, func(x, y int64) (int64, error) {
			if y == 0 {
				return 0, fmt.Errorf("integer division by zero")
			}

			return x / y, nil
		})
	case *ir.InstSRem:
		return fr.intBinary(inst.X, inst.Y, func(x, y int64) (int64, error) {
			if y == 0 {
				return 0, fmt.Errorf("integer division by zero")
			}

			return x % y, nil
		})
	case *ir.InstAnd:
		return fr.intBinary(inst.X, inst.Y, func(x, y int64) (int64, error) { return x & y, nil })
	case *ir.InstOr:
		return fr.intBinary(inst.X, inst.Y, func(x, y int64) (int64, error) { return x | y, nil })
	case *ir.InstXor:
		return fr.intBinary(inst.X, inst.Y, func(x, y int64) (int64, error) { return x ^ y, nil })
	case *ir.InstShl:
		return fr.intBinary(inst.X, inst.Y, func(x, y int64) (int64, error) { return x << uint64(y), nil })
	case *ir.InstAShr:
		return fr.intBinary(inst.X, inst.Y, func(x, y int64) (int64, error) { return x >> uint64(y), nil })

	// floating-point arithmetic
	case *ir.InstFAdd:
		return fr.floatBinary(inst.X, inst.Y, func(x, y float64) float64 { return x + y })
	case *ir.InstFSub:
		return fr.floatBinary(inst.X, inst.Y, func(x, y float64) float64 { return x - y })
	case *ir.InstFMul:
		return fr.floatBinary(inst.X, inst.Y, func(x, y float64) float64 { return x * y })
	case *ir.InstFDiv:
		return fr.floatBinary(inst.X, inst.Y, func(x, y float64) float64 { return x / y })
	case *ir.InstFRem:
		return fr.floatBinary(inst.X, inst.Y, math.Mod)
	case *ir.InstFNeg:
		x, err := fr.operand(inst.X)
		if err != nil {
			return Value{}, err
		}

		return FloatValue(-x.Float), nil

	// comparisons
	case *ir.InstICmp:
		vals, err := fr.operands(inst.X, inst.Y)
		if err != nil {
			return Value{}, err
		}

		return BoolValue(icmp(inst.Pred, vals[0], vals[1], intBits(inst.X.Type()))), nil
	case *ir.InstFCmp:
		vals, err := fr.operands(inst.X, inst.Y)
		if err != nil {
			return Value{}, err
		}

		return BoolValue(fcmp(inst.Pred, vals[0].Float, vals[1].Float)), nil

	// conversions
	case *ir.InstTrunc:
		return fr.intConv(inst.From, inst.To, func(x Value, from uint64) int64 { return x.Int })
	case *ir.InstSExt:
		return fr.intConv(inst.From, inst.To, func(x Value, from uint64) int64 { return x.Int })
	case *ir.InstZExt:
		return fr.intConv(inst.From, inst.To, func(x Value, from uint64) int64 { return int64(x.Uint(from)) })
	case *ir.InstSIToFP:
		x, err := fr.operand(inst.From)
		if err != nil {
			return Value{}, err
		}

		return FloatValue(float64(x.Int)), nil
	case *ir.InstUIToFP:
		x, err := fr.operand(inst.From)
		if err != nil {
			return Value{}, err
		}

		return FloatValue(float64(x.Uint(intBits(inst.From.Type())))), nil
	case *ir.InstFPToSI:
		x, err := fr.operand(inst.From)
		if err != nil {
			return Value{}, err
		}

		return IntValue(int64(x.Float), intBits(inst.To)), nil
	case *ir.InstFPExt:
		return fr.operand(inst.From)
	case *ir.InstFPTrunc:
		x, err := fr.operand(inst.From)
		if err != nil {
			return Value{}, err
		}

		if ft, ok := inst.To.(*types.FloatType); ok && ft.Kind == types.FloatKindFloat {
			return FloatValue(float64(float32(x.Float))), nil
		}

		return x, nil
	case *ir.InstBitCast:
		return fr.operand(inst.From)

	// calls
	case *ir.InstCall:
		callee, ok := inst.Callee.(*ir.Func)
		if !ok {
			return Value{}, fmt.Errorf("indirect calls are not supported")
		}

		args, err := fr.operands(inst.Args...)
		if err != nil {
			return Value{}, err
		}

		return fr.m.Call(callee, args...)
	}

	return Value{}, fmt.Errorf("unsupported instruction %T", inst)
}

// evalGEP computes the address of an element.
func (fr *frame) evalGEP(inst *ir.InstGetElementPtr) (Value, error) {
	src, err := fr.operand(inst.Src)
	if err != nil {
		return Value{}, err
	}

	indices, err := fr.operands(inst.Indices...)
	if err != nil {
		return Value{}, err
	}

	p := src.Ptr
	if len(indices) == 0 {
		return src, nil
	}

	p.off += int(indices[0].Int) * cellCount(inst.ElemType)

	t := inst.ElemType
	for _, ndx := range indices[1:] {
		at, ok := t.(*types.ArrayType)
		if !ok {
			return Value{}, fmt.Errorf("getelementptr into non-array type %s", t)
		}

		p.off += int(ndx.Int) * cellCount(at.ElemType)
		t = at.ElemType
	}

	p.derived = true
	return Value{Kind: KindPtr, Ptr: p}, nil
}

// -----------------------------------------------------------------------------

// intBits returns the bit width of an integer type.
func intBits(t types.Type) uint64 {
	if it, ok := t.(*types.IntType); ok {
		return it.BitSize
	}

	return 64
}

func (fr *frame) intBinary(x, y value.Value, f func(x, y int64) (int64, error)) (Value, error) {
	vals, err := fr.operands(x, y)
	if err != nil {
		return Value{}, err
	}

	bits := intBits(x.Type())
	r, err := f(vals[0].Int, vals[1].Int)
	if err != nil {
		return Value{}, err
	}

	return IntValue(r, bits), nil
}

func (fr *frame) floatBinary(x, y value.Value, f func(x, y float64) float64) (Value, error) {
	vals, err := fr.operands(x, y)
	if err != nil {
		return Value{}, err
	}

	return FloatValue(f(vals[0].Float, vals[1].Float)), nil
}

func (fr *frame) intConv(from value.Value, to types.Type, f func(x Value, fromBits uint64) int64) (Value, error) {
	x, err := fr.operand(from)
	if err != nil {
		return Value{}, err
	}

	return IntValue(f(x, intBits(from.Type())), intBits(to)), nil
}

// icmp evaluates an integer comparison.
func icmp(pred enum.IPred, x, y Value, bits uint64) bool {
	switch pred {
	case enum.IPredEQ:
		return x.Int == y.Int
	case enum.IPredNE:
		return x.Int != y.Int
	case enum.IPredSLT:
		return x.Int < y.Int
	case enum.IPredSLE:
		return x.Int <= y.Int
	case enum.IPredSGT:
		return x.Int > y.Int
	case enum.IPredSGE:
		return x.Int >= y.Int
	case enum.IPredULT:
		return x.Uint(bits) < y.Uint(bits)
	case enum.IPredULE:
		return x.Uint(bits) <= y.Uint(bits)
	case enum.IPredUGT:
		return x.Uint(bits) > y.Uint(bits)
	case enum.IPredUGE:
		return x.Uint(bits) >= y.Uint(bits)
	}

	return false
}

// fcmp evaluates a floating-point comparison.  Ordered predicates are false
// when either operand is NaN; unordered predicates are true.
func fcmp(pred enum.FPred, x, y float64) bool {
	unordered := math.IsNaN(x) || math.IsNaN(y)

	switch pred {
	case enum.FPredFalse:
		return false
	case enum.FPredTrue:
		return true
	case enum.FPredOEQ:
		return !unordered && x == y
	case enum.FPredOGT:
		return !unordered && x > y
	case enum.FPredOGE:
		return !unordered && x >= y
	case enum.FPredOLT:
		return !unordered && x < y
	case enum.FPredOLE:
		return !unordered && x <= y
	case enum.FPredONE:
		return !unordered && x != y
	case enum.FPredORD:
		return !unordered
	case enum.FPredUEQ:
		return unordered || x == y
	case enum.FPredUGT:
		return unordered || x > y
	case enum.FPredUGE:
		return unordered || x >= y
	case enum.FPredULT:
		return unordered || x < y
	case enum.FPredULE:
		return unordered || x <= y
	case enum.FPredUNE:
		return unordered || x != y
	case enum.FPredUNO:
		return unordered
	}

	return false
}
