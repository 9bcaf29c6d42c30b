package generate

import (
	"streamc/ast"
	"streamc/report"
	"streamc/typing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// LowerExpr lowers an expression in the builder's current block.  The block
// cursor may move: short-circuit operators add blocks.  A non-nil error means
// an environment failure has already been reported.
func (fb *FuncBuilder) LowerExpr(expr ast.Expr) (*Result, error) {
	switch v := expr.(type) {
	case *ast.IntLit:
		return ValueResult(constant.NewInt(intType(fb.ctx.ConvType(v.Type())), v.Value)), nil
	case *ast.BoolLit:
		return ValueResult(constant.NewBool(v.Value)), nil
	case *ast.FloatLit:
		return ValueResult(constant.NewFloat(types.Double, v.Value)), nil
	case *ast.Identifier:
		return fb.genIdentifier(v), nil
	case *ast.Index:
		return fb.genIndex(v)
	case *ast.Comma:
		if _, err := fb.LowerExpr(v.Lhs); err != nil {
			return nil, err
		}

		return fb.LowerExpr(v.Rhs)
	case *ast.Assign:
		return fb.genAssign(v)
	case *ast.Unary:
		return fb.genUnary(v)
	case *ast.Binary:
		return fb.genBinary(v)
	case *ast.Relational:
		return fb.genRelational(v)
	case *ast.Logical:
		return fb.genLogical(v)
	case *ast.Call:
		return fb.genCall(v)
	case *ast.Cast:
		src, err := fb.lowerValue(v.Src)
		if err != nil {
			return nil, err
		}

		return ValueResult(fb.genCast(src, v.Src.Type(), v.Type())), nil
	case *ast.Pop:
		val := fb.frag.BuildPop(fb.cur)
		if val == nil {
			report.ICE("pop is not available in function `%s`", fb.fn.Name())
		}

		return ValueResult(val), nil
	case *ast.Peek:
		index, err := fb.lowerValue(v.Index)
		if err != nil {
			return nil, err
		}

		val := fb.frag.BuildPeek(fb.cur, index)
		if val == nil {
			report.ICE("peek is not available in function `%s`", fb.fn.Name())
		}

		return ValueResult(val), nil
	case *ast.InitList:
		report.ICE("initializer list outside of a declaration")
	}

	report.ICE("unsupported expression node %T", expr)
	return nil, nil
}

// lowerValue lowers an expression and materializes its value.
func (fb *FuncBuilder) lowerValue(expr ast.Expr) (value.Value, error) {
	res, err := fb.LowerExpr(expr)
	if err != nil {
		return nil, err
	}

	if !res.HasValue() {
		report.ICE("expression of type `%s` has no value", expr.Type().Repr())
	}

	return res.Value(fb), nil
}

// lowerAddress lowers an expression which must produce an address.
func (fb *FuncBuilder) lowerAddress(expr ast.Expr, what string) (*Result, error) {
	res, err := fb.LowerExpr(expr)
	if err != nil {
		return nil, err
	}

	if !res.IsAddress() {
		report.ICE("%s requires an addressable operand", what)
	}

	return res, nil
}

// checkOperand re-validates the type of an operand against the type an
// operator expects.
func checkOperand(operand ast.Expr, expected typing.DataType, what string) {
	if !operand.Type().Equiv(expected) {
		report.ICE("%s operand has type `%s`, expected `%s`", what, operand.Type().Repr(), expected.Repr())
	}
}

// -----------------------------------------------------------------------------

// genIdentifier generates a reference to a declaration.  Immutable declarations
// yield their constant value; everything else yields the address of its
// storage.
func (fb *FuncBuilder) genIdentifier(ident *ast.Identifier) *Result {
	if ident.Decl == nil {
		report.ICE("identifier `%s` was not resolved", ident.Name)
	}

	if c, ok := fb.consts[ident.Decl]; ok {
		return ValueResult(c)
	}

	if addr, elemType, ok := fb.Variable(ident.Decl); ok {
		return AddressResult(addr, elemType)
	}

	if vd, ok := ident.Decl.(*ast.VarDecl); ok && vd.Constant && vd.Init != nil {
		if c, ok := fb.ctx.FoldConstant(vd.Init, fb.consts); ok {
			fb.consts[vd] = c
			return ValueResult(c)
		}
	}

	report.ICE("no storage for `%s`", ident.Name)
	return nil
}

// genIndex generates an array subscript.  The result is the address of the
// element: no bounds check is performed.
func (fb *FuncBuilder) genIndex(index *ast.Index) (*Result, error) {
	arr, err := fb.LowerExpr(index.Array)
	if err != nil {
		return nil, err
	}

	arrType := fb.ctx.ConvType(index.Array.Type())

	// constant arrays are spilled so they can be indexed
	var arrAddr value.Value
	if arr.IsAddress() {
		arrAddr = arr.Address()
	} else if arr.HasValue() {
		arrAddr = fb.spill(arr.Value(fb), arrType)
	} else {
		report.ICE("indexed expression has no value")
	}

	ndx, err := fb.lowerValue(index.Index)
	if err != nil {
		return nil, err
	}

	gep := fb.cur.NewGetElementPtr(arrType, arrAddr, constant.NewInt(types.I32, 0), ndx)
	gep.InBounds = true
	return AddressResult(gep, fb.ctx.ConvType(index.Type())), nil
}

// spill stores val into fresh storage and returns its address.
func (fb *FuncBuilder) spill(val value.Value, typ types.Type) value.Value {
	alloca := fb.allocate(typ)
	fb.cur.NewStore(val, alloca)
	return alloca
}

// genAssign generates a simple or compound assignment.  The result is the
// address that was written.
func (fb *FuncBuilder) genAssign(assign *ast.Assign) (*Result, error) {
	checkOperand(assign.Rhs, assign.Lhs.Type(), "assignment")

	rhs, err := fb.lowerValue(assign.Rhs)
	if err != nil {
		return nil, err
	}

	lhs, err := fb.lowerAddress(assign.Lhs, "assignment")
	if err != nil {
		return nil, err
	}

	newVal := rhs
	if assign.Op != ast.OpNone {
		old := fb.cur.NewLoad(lhs.ElemType(), lhs.Address())
		newVal = fb.genArith(assign.Op, old, rhs, assign.Lhs.Type())
	}

	fb.cur.NewStore(newVal, lhs.Address())
	return AddressResult(lhs.Address(), lhs.ElemType()), nil
}

// genUnary generates a unary operator application.
func (fb *FuncBuilder) genUnary(unary *ast.Unary) (*Result, error) {
	switch unary.Op {
	case ast.OpPreInc, ast.OpPreDec, ast.OpPostInc, ast.OpPostDec:
		operand, err := fb.lowerAddress(unary.Operand, "increment or decrement")
		if err != nil {
			return nil, err
		}

		if !typing.IsInt(unary.Operand.Type()) {
			report.ICE("increment and decrement are not supported on `%s`", unary.Operand.Type().Repr())
		}

		old := operand.Value(fb)
		one := constant.NewInt(intType(operand.ElemType()), 1)

		var newVal value.Value
		if unary.Op == ast.OpPreInc || unary.Op == ast.OpPostInc {
			add := fb.cur.NewAdd(old, one)
			add.OverflowFlags = []enum.OverflowFlag{enum.OverflowFlagNSW}
			newVal = add
		} else {
			sub := fb.cur.NewSub(old, one)
			sub.OverflowFlags = []enum.OverflowFlag{enum.OverflowFlagNSW}
			newVal = sub
		}

		fb.cur.NewStore(newVal, operand.Address())

		if unary.Op == ast.OpPostInc || unary.Op == ast.OpPostDec {
			return ValueResult(old), nil
		}

		return ValueResult(newVal), nil
	}

	operand, err := fb.lowerValue(unary.Operand)
	if err != nil {
		return nil, err
	}

	dt := unary.Operand.Type()
	switch unary.Op {
	case ast.OpPos:
		return ValueResult(operand), nil
	case ast.OpNeg:
		if typing.IsFloat(dt) {
			return ValueResult(fb.cur.NewFNeg(operand)), nil
		}

		zero := constant.NewInt(intType(operand.Type()), 0)
		sub := fb.cur.NewSub(zero, operand)
		sub.OverflowFlags = []enum.OverflowFlag{enum.OverflowFlagNSW}
		return ValueResult(sub), nil
	case ast.OpLogNot:
		if !typing.IsBoolean(dt) {
			report.ICE("logical not of non-boolean `%s`", dt.Repr())
		}

		return ValueResult(fb.cur.NewXor(operand, constant.True)), nil
	case ast.OpBitNot:
		if typing.IsFloat(dt) {
			report.ICE("bitwise not of `%s`", dt.Repr())
		}

		return ValueResult(fb.cur.NewXor(operand, constant.NewInt(intType(operand.Type()), -1))), nil
	}

	report.ICE("unknown unary operator %d", unary.Op)
	return nil, nil
}

// genBinary generates an arithmetic or bitwise operator application.
func (fb *FuncBuilder) genBinary(binary *ast.Binary) (*Result, error) {
	checkOperand(binary.Lhs, binary.Type(), "binary")
	checkOperand(binary.Rhs, binary.Type(), "binary")

	lhs, err := fb.lowerValue(binary.Lhs)
	if err != nil {
		return nil, err
	}

	rhs, err := fb.lowerValue(binary.Rhs)
	if err != nil {
		return nil, err
	}

	return ValueResult(fb.genArith(binary.Op, lhs, rhs, binary.Type())), nil
}

// genArith generates a single arithmetic or bitwise instruction on operands of
// type dt.
func (fb *FuncBuilder) genArith(op int, lhs, rhs value.Value, dt typing.DataType) value.Value {
	nsw := []enum.OverflowFlag{enum.OverflowFlagNSW}

	if typing.IsFloat(dt) {
		switch op {
		case ast.OpAdd:
			return fb.cur.NewFAdd(lhs, rhs)
		case ast.OpSub:
			return fb.cur.NewFSub(lhs, rhs)
		case ast.OpMul:
			return fb.cur.NewFMul(lhs, rhs)
		case ast.OpDiv:
			return fb.cur.NewFDiv(lhs, rhs)
		case ast.OpMod:
			return fb.cur.NewFRem(lhs, rhs)
		}

		report.ICE("operator %d is not defined on `%s`", op, dt.Repr())
	}

	switch op {
	case ast.OpAdd:
		add := fb.cur.NewAdd(lhs, rhs)
		add.OverflowFlags = nsw
		return add
	case ast.OpSub:
		sub := fb.cur.NewSub(lhs, rhs)
		sub.OverflowFlags = nsw
		return sub
	case ast.OpMul:
		mul := fb.cur.NewMul(lhs, rhs)
		mul.OverflowFlags = nsw
		return mul
	case ast.OpDiv:
		return fb.cur.NewSDiv(lhs, rhs)
	case ast.OpMod:
		return fb.cur.NewSRem(lhs, rhs)
	case ast.OpBitAnd:
		return fb.cur.NewAnd(lhs, rhs)
	case ast.OpBitOr:
		return fb.cur.NewOr(lhs, rhs)
	case ast.OpBitXor:
		return fb.cur.NewXor(lhs, rhs)
	case ast.OpShl:
		return fb.cur.NewShl(lhs, rhs)
	case ast.OpShr:
		return fb.cur.NewAShr(lhs, rhs)
	}

	report.ICE("unknown binary operator %d", op)
	return nil
}

// -----------------------------------------------------------------------------

var intPredicates = map[int]enum.IPred{
	ast.OpLT: enum.IPredSLT,
	ast.OpLE: enum.IPredSLE,
	ast.OpGT: enum.IPredSGT,
	ast.OpGE: enum.IPredSGE,
	ast.OpEq: enum.IPredEQ,
	ast.OpNE: enum.IPredNE,
}

// `!=` is unordered so that NaN compares unequal to everything
var floatPredicates = map[int]enum.FPred{
	ast.OpLT: enum.FPredOLT,
	ast.OpLE: enum.FPredOLE,
	ast.OpGT: enum.FPredOGT,
	ast.OpGE: enum.FPredOGE,
	ast.OpEq: enum.FPredOEQ,
	ast.OpNE: enum.FPredUNE,
}

// genRelational generates a comparison.  The operands are compared in the type
// of the left operand.
func (fb *FuncBuilder) genRelational(rel *ast.Relational) (*Result, error) {
	commonType := rel.Lhs.Type()
	checkOperand(rel.Rhs, commonType, "comparison")

	lhs, err := fb.lowerValue(rel.Lhs)
	if err != nil {
		return nil, err
	}

	rhs, err := fb.lowerValue(rel.Rhs)
	if err != nil {
		return nil, err
	}

	if typing.IsFloat(commonType) {
		pred, ok := floatPredicates[rel.Op]
		if !ok {
			report.ICE("unknown relational operator %d", rel.Op)
		}

		return ValueResult(fb.cur.NewFCmp(pred, lhs, rhs)), nil
	}

	pred, ok := intPredicates[rel.Op]
	if !ok {
		report.ICE("unknown relational operator %d", rel.Op)
	}

	return ValueResult(fb.cur.NewICmp(pred, lhs, rhs)), nil
}

// genLogical generates a short-circuiting `&&` or `||`.  The right operand is
// evaluated in its own block and the two paths meet at a merge block where a
// phi selects the result.  The builder is left positioned on the merge block.
func (fb *FuncBuilder) genLogical(logical *ast.Logical) (*Result, error) {
	if !typing.IsBoolean(logical.Lhs.Type()) || !typing.IsBoolean(logical.Rhs.Type()) {
		report.ICE("logical operator on non-boolean operands")
	}

	lhs, err := fb.lowerValue(logical.Lhs)
	if err != nil {
		return nil, err
	}

	lhsEnd := fb.cur
	rhsBlock := fb.NewBlock()
	mergeBlock := fb.NewBlock()

	var shortCircuit constant.Constant
	switch logical.Op {
	case ast.OpLogAnd:
		// only evaluate the right operand if the left is true
		lhsEnd.NewCondBr(lhs, rhsBlock, mergeBlock)
		shortCircuit = constant.False
	case ast.OpLogOr:
		// only evaluate the right operand if the left is false
		lhsEnd.NewCondBr(lhs, mergeBlock, rhsBlock)
		shortCircuit = constant.True
	default:
		report.ICE("unknown logical operator %d", logical.Op)
	}

	fb.cur = rhsBlock
	rhs, err := fb.lowerValue(logical.Rhs)
	if err != nil {
		return nil, err
	}

	rhsEnd := fb.cur
	rhsEnd.NewBr(mergeBlock)

	fb.cur = mergeBlock
	phi := fb.cur.NewPhi(ir.NewIncoming(shortCircuit, lhsEnd), ir.NewIncoming(rhs, rhsEnd))
	return ValueResult(phi), nil
}

// -----------------------------------------------------------------------------

// genCall generates a function call.  The callee prototype is declared in the
// module if it does not exist yet.
func (fb *FuncBuilder) genCall(call *ast.Call) (*Result, error) {
	if call.Func == nil {
		report.ICE("call was not resolved")
	}

	callee, err := fb.ctx.DeclareFunc(call.Func)
	if err != nil {
		return nil, err
	}

	if len(call.Args) != len(call.Func.Sig.Params) {
		report.ICE("call to `%s` has %d arguments, expected %d", call.Func.Name, len(call.Args), len(call.Func.Sig.Params))
	}

	args := make([]value.Value, len(call.Args))
	for i, arg := range call.Args {
		checkOperand(arg, call.Func.Sig.Params[i], "argument")

		if args[i], err = fb.lowerValue(arg); err != nil {
			return nil, err
		}
	}

	callInst := fb.cur.NewCall(callee, args...)
	if typing.IsVoid(call.Func.Sig.ReturnType) {
		return EmptyResult(), nil
	}

	return ValueResult(callInst), nil
}
