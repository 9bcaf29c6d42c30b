package generate

import (
	"math"

	"streamc/ast"
	"streamc/interp"
	"streamc/typing"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
)

// FoldConstant evaluates an expression whose operands are all constant.  The
// boolean is false if the expression cannot be folded: it reads storage, calls
// a function, touches a channel or divides by zero.
func (c *Context) FoldConstant(expr ast.Expr, consts map[ast.Decl]constant.Constant) (constant.Constant, bool) {
	cb := &constBuilder{ctx: c, consts: consts, visiting: make(map[ast.Decl]struct{})}

	v, ok := cb.fold(expr)
	if !ok {
		return nil, false
	}

	cst, err := interp.ToConstant(v, c.ConvType(expr.Type()))
	if err != nil {
		return nil, false
	}

	return cst, true
}

// constBuilder folds constant expressions.
type constBuilder struct {
	ctx    *Context
	consts map[ast.Decl]constant.Constant

	// visiting guards against constants defined in terms of themselves.
	visiting map[ast.Decl]struct{}
}

func (cb *constBuilder) bits(dt typing.DataType) uint64 {
	if it, ok := cb.ctx.ConvType(dt).(*types.IntType); ok {
		return it.BitSize
	}

	return 64
}

func (cb *constBuilder) fold(expr ast.Expr) (interp.Value, bool) {
	switch v := expr.(type) {
	case *ast.IntLit:
		return interp.IntValue(v.Value, cb.bits(v.Type())), true
	case *ast.BoolLit:
		return interp.BoolValue(v.Value), true
	case *ast.FloatLit:
		return interp.FloatValue(v.Value), true
	case *ast.Identifier:
		return cb.foldIdentifier(v)
	case *ast.Cast:
		src, ok := cb.fold(v.Src)
		if !ok {
			return interp.Value{}, false
		}

		return cb.foldCast(src, v.Src.Type(), v.Type())
	case *ast.Unary:
		return cb.foldUnary(v)
	case *ast.Binary:
		lhs, ok := cb.fold(v.Lhs)
		if !ok {
			return interp.Value{}, false
		}

		rhs, ok := cb.fold(v.Rhs)
		if !ok {
			return interp.Value{}, false
		}

		return cb.foldArith(v.Op, lhs, rhs, v.Type())
	case *ast.Relational:
		lhs, ok := cb.fold(v.Lhs)
		if !ok {
			return interp.Value{}, false
		}

		rhs, ok := cb.fold(v.Rhs)
		if !ok {
			return interp.Value{}, false
		}

		return foldRelational(v.Op, lhs, rhs, v.Lhs.Type())
	case *ast.Logical:
		lhs, ok := cb.fold(v.Lhs)
		if !ok {
			return interp.Value{}, false
		}

		// the right operand need not be constant when it is never evaluated
		if v.Op == ast.OpLogAnd && !lhs.Bool() {
			return interp.BoolValue(false), true
		} else if v.Op == ast.OpLogOr && lhs.Bool() {
			return interp.BoolValue(true), true
		}

		return cb.fold(v.Rhs)
	case *ast.InitList:
		arrType, ok := v.Type().(*typing.ArrayType)
		if !ok {
			return interp.Value{}, false
		}

		elems := make([]interp.Value, arrType.Len)
		for i := range elems {
			if i < len(v.Elems) {
				if elems[i], ok = cb.fold(v.Elems[i]); !ok {
					return interp.Value{}, false
				}
			} else {
				elems[i] = interp.Zero(cb.ctx.ConvType(arrType.ElemType))
			}
		}

		return interp.Value{Kind: interp.KindAggregate, Elems: elems}, true
	}

	return interp.Value{}, false
}

func (cb *constBuilder) foldIdentifier(ident *ast.Identifier) (interp.Value, bool) {
	if c, ok := cb.consts[ident.Decl]; ok {
		v, err := interp.ConstValue(c)
		return v, err == nil
	}

	vd, ok := ident.Decl.(*ast.VarDecl)
	if !ok || !vd.Constant || vd.Init == nil {
		return interp.Value{}, false
	}

	if _, ok := cb.visiting[vd]; ok {
		return interp.Value{}, false
	}

	cb.visiting[vd] = struct{}{}
	defer delete(cb.visiting, vd)

	return cb.fold(vd.Init)
}

// foldCast follows the same conversion rules as genCast.
func (cb *constBuilder) foldCast(src interp.Value, srcType, dstType typing.DataType) (interp.Value, bool) {
	srcLLType := cb.ctx.ConvType(srcType)
	dstLLType := cb.ctx.ConvType(dstType)
	if srcLLType.Equal(dstLLType) {
		return src, true
	}

	srcInt, srcIsInt := srcLLType.(*types.IntType)
	dstInt, dstIsInt := dstLLType.(*types.IntType)
	_, dstIsFloat := dstLLType.(*types.FloatType)

	switch {
	case srcIsInt && dstIsInt:
		if srcInt.BitSize == 1 {
			return interp.IntValue(int64(src.Uint(1)), dstInt.BitSize), true
		}

		return interp.IntValue(src.Int, dstInt.BitSize), true
	case srcIsInt && dstIsFloat:
		if srcInt.BitSize == 1 {
			return interp.FloatValue(float64(src.Uint(1))), true
		}

		return interp.FloatValue(float64(src.Int)), true
	case !srcIsInt && dstIsInt:
		if math.IsNaN(src.Float) || math.IsInf(src.Float, 0) {
			return interp.Value{}, false
		}

		return interp.IntValue(int64(src.Float), dstInt.BitSize), true
	}

	return interp.Value{}, false
}

func (cb *constBuilder) foldUnary(unary *ast.Unary) (interp.Value, bool) {
	switch unary.Op {
	case ast.OpPos, ast.OpNeg, ast.OpLogNot, ast.OpBitNot:
	default:
		// increments write storage
		return interp.Value{}, false
	}

	x, ok := cb.fold(unary.Operand)
	if !ok {
		return interp.Value{}, false
	}

	dt := unary.Operand.Type()
	bits := cb.bits(dt)
	switch unary.Op {
	case ast.OpNeg:
		if typing.IsFloat(dt) {
			return interp.FloatValue(-x.Float), true
		}

		return interp.IntValue(-x.Int, bits), true
	case ast.OpLogNot:
		return interp.BoolValue(!x.Bool()), true
	case ast.OpBitNot:
		if typing.IsFloat(dt) {
			return interp.Value{}, false
		}

		return interp.IntValue(^x.Int, bits), true
	}

	return x, true
}

func (cb *constBuilder) foldArith(op int, x, y interp.Value, dt typing.DataType) (interp.Value, bool) {
	if typing.IsFloat(dt) {
		var r float64
		switch op {
		case ast.OpAdd:
			r = x.Float + y.Float
		case ast.OpSub:
			r = x.Float - y.Float
		case ast.OpMul:
			r = x.Float * y.Float
		case ast.OpDiv:
			r = x.Float / y.Float
		case ast.OpMod:
			r = math.Mod(x.Float, y.Float)
		default:
			return interp.Value{}, false
		}

		return interp.FloatValue(r), !math.IsNaN(r)
	}

	bits := cb.bits(dt)
	var r int64
	switch op {
	case ast.OpAdd:
		r = x.Int + y.Int
	case ast.OpSub:
		r = x.Int - y.Int
	case ast.OpMul:
		r = x.Int * y.Int
	case ast.OpDiv, ast.OpMod:
		if y.Int == 0 {
			return interp.Value{}, false
		}

		if op == ast.OpDiv {
			r = x.Int / y.Int
		} else {
			r = x.Int % y.Int
		}
	case ast.OpBitAnd:
		r = x.Int & y.Int
	case ast.OpBitOr:
		r = x.Int | y.Int
	case ast.OpBitXor:
		r = x.Int ^ y.Int
	case ast.OpShl:
		r = x.Int << uint64(y.Int)
	case ast.OpShr:
		r = x.Int >> uint64(y.Int)
	default:
		return interp.Value{}, false
	}

	return interp.IntValue(r, bits), true
}

func foldRelational(op int, x, y interp.Value, operandType typing.DataType) (interp.Value, bool) {
	if typing.IsFloat(operandType) {
		a, b := x.Float, y.Float
		unordered := math.IsNaN(a) || math.IsNaN(b)

		switch op {
		case ast.OpLT:
			return interp.BoolValue(!unordered && a < b), true
		case ast.OpLE:
			return interp.BoolValue(!unordered && a <= b), true
		case ast.OpGT:
			return interp.BoolValue(!unordered && a > b), true
		case ast.OpGE:
			return interp.BoolValue(!unordered && a >= b), true
		case ast.OpEq:
			return interp.BoolValue(!unordered && a == b), true
		case ast.OpNE:
			return interp.BoolValue(unordered || a != b), true
		}

		return interp.Value{}, false
	}

	a, b := x.Int, y.Int
	switch op {
	case ast.OpLT:
		return interp.BoolValue(a < b), true
	case ast.OpLE:
		return interp.BoolValue(a <= b), true
	case ast.OpGT:
		return interp.BoolValue(a > b), true
	case ast.OpGE:
		return interp.BoolValue(a >= b), true
	case ast.OpEq:
		return interp.BoolValue(a == b), true
	case ast.OpNE:
		return interp.BoolValue(a != b), true
	}

	return interp.Value{}, false
}
