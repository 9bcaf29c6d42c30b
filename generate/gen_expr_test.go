package generate

import (
	"math"
	"testing"

	"streamc/ast"
	"streamc/interp"
	"streamc/typing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
)

// newVoidBuilder creates a builder for an empty void function.
func newVoidBuilder() *FuncBuilder {
	ctx := NewContext("test", &recordSink{})
	fn := ctx.Mod.NewFunc("f", types.Void)
	return NewFuncBuilder(ctx, fn, NullFragment{}, typing.PrimVoid)
}

func countInsts(block *ir.Block, match func(ir.Instruction) bool) int {
	n := 0
	for _, inst := range block.Insts {
		if match(inst) {
			n++
		}
	}

	return n
}

func TestLiteralWidths(t *testing.T) {
	fb := newVoidBuilder()

	tests := []struct {
		lit  ast.Expr
		bits uint64
	}{
		{&ast.IntLit{ExprBase: ast.NewExprBase(&typing.APIntType{Bits: 8}), Value: 12}, 8},
		{&ast.IntLit{ExprBase: ast.NewExprBase(&typing.APIntType{Bits: 17}), Value: 12}, 17},
		{intLit(12), 32},
		{boolLit(true), 1},
		{&ast.BoolLit{ExprBase: ast.NewExprBase(typing.PrimBit), Value: false}, 1},
	}

	for _, tt := range tests {
		res, err := fb.LowerExpr(tt.lit)
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if res.IsAddress() {
			t.Errorf("expected literal of type %s to lower to a value", tt.lit.Type().Repr())
		}

		c, ok := res.Value(fb).(*constant.Int)
		if !ok {
			t.Fatalf("expected integer constant for %s, got %T", tt.lit.Type().Repr(), res.Value(fb))
		}
		if c.Typ.BitSize != tt.bits {
			t.Errorf("expected %s literal of width %d, got %d", tt.lit.Type().Repr(), tt.bits, c.Typ.BitSize)
		}
	}

	if n := len(fb.Block().Insts); n != 0 {
		t.Errorf("expected literals to emit no instructions, got %d", n)
	}
}

func TestIdentifierLoadsOnce(t *testing.T) {
	fb := newVoidBuilder()

	x := local("x", tInt, nil)
	fb.CreateVariable(x)

	res, err := fb.LowerExpr(ref(x))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if !res.IsAddress() {
		t.Fatalf("expected variable reference to lower to an address")
	}

	first, second := res.Value(fb), res.Value(fb)
	if first != second {
		t.Errorf("expected repeated value requests to yield the same load")
	}

	loads := countInsts(fb.Block(), func(inst ir.Instruction) bool {
		_, ok := inst.(*ir.InstLoad)
		return ok
	})
	if loads != 1 {
		t.Errorf("expected 1 load, got %d", loads)
	}
}

func TestVariableRedeclared(t *testing.T) {
	fb := newVoidBuilder()

	x := local("x", tInt, nil)
	fb.CreateVariable(x)

	expectICE(t, "declared twice", func() {
		fb.CreateVariable(x)
	})
}

func TestAssignRoundTrip(t *testing.T) {
	a := local("a", tInt, intLit(0))
	b := local("b", tInt, intLit(7))

	// int f() { int a = 0; int b = 7; a = b; return (a = a + 1) + a; }
	fd := function("f", tInt, nil, block(
		a, b,
		exprStmt(assign(ast.OpNone, ref(a), ref(b))),
		ret(binary(ast.OpAdd, assign(ast.OpNone, ref(a), binary(ast.OpAdd, ref(a), intLit(1))), ref(a))),
	))

	ctx, fn := buildFunc(t, fd)
	v := callFunc(t, interp.NewMachine(ctx.Mod), fn)
	if v.Int != 16 {
		t.Fatalf("expected 16, got %d", v.Int)
	}
}

func TestCompoundAssign(t *testing.T) {
	tests := []struct {
		op   int
		want int64
	}{
		{ast.OpAdd, 13},
		{ast.OpSub, 7},
		{ast.OpMul, 30},
		{ast.OpDiv, 3},
		{ast.OpMod, 1},
		{ast.OpShl, 80},
		{ast.OpShr, 1},
		{ast.OpBitXor, 9},
	}

	for _, tt := range tests {
		x := local("x", tInt, intLit(10))
		fd := function("f", tInt, nil, block(
			x,
			exprStmt(assign(tt.op, ref(x), intLit(3))),
			ret(ref(x)),
		))

		ctx, fn := buildFunc(t, fd)
		if v := callFunc(t, interp.NewMachine(ctx.Mod), fn); v.Int != tt.want {
			t.Errorf("expected op %d to yield %d, got %d", tt.op, tt.want, v.Int)
		}
	}
}

func TestIncrementDecrement(t *testing.T) {
	tests := []struct {
		name string
		op   int
		want int64
	}{
		{"x++", ast.OpPostInc, 506},
		{"++x", ast.OpPreInc, 606},
		{"x--", ast.OpPostDec, 504},
		{"--x", ast.OpPreDec, 404},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := local("x", tInt, intLit(5))
			y := local("y", tInt, unary(tt.op, ref(x)))

			// int f() { int x = 5; int y = <op>; return y * 100 + x; }
			fd := function("f", tInt, nil, block(
				x, y,
				ret(binary(ast.OpAdd, binary(ast.OpMul, ref(y), intLit(100)), ref(x))),
			))

			ctx, fn := buildFunc(t, fd)
			if v := callFunc(t, interp.NewMachine(ctx.Mod), fn); v.Int != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, v.Int)
			}
		})
	}
}

func TestIncrementFloat(t *testing.T) {
	fb := newVoidBuilder()

	x := local("x", tFloat, nil)
	fb.CreateVariable(x)

	expectICE(t, "not supported on `float`", func() {
		fb.LowerExpr(unary(ast.OpPostInc, ref(x)))
	})
}

func TestAssignToLiteral(t *testing.T) {
	fb := newVoidBuilder()

	expectICE(t, "addressable", func() {
		fb.LowerExpr(assign(ast.OpNone, intLit(1), intLit(2)))
	})
}

func TestOperandMismatch(t *testing.T) {
	fb := newVoidBuilder()

	expectICE(t, "expected `int`", func() {
		fb.LowerExpr(binary(ast.OpAdd, intLit(1), floatLit(2)))
	})
}

func TestShortCircuit(t *testing.T) {
	tests := []struct {
		name      string
		op        int
		lhs       bool
		wantCalls int
		want      bool
	}{
		{"false && probe()", ast.OpLogAnd, false, 0, false},
		{"true && probe()", ast.OpLogAnd, true, 1, true},
		{"true || probe()", ast.OpLogOr, true, 0, true},
		{"false || probe()", ast.OpLogOr, false, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			probe := function("probe", tBool, nil, nil)
			a := param("a", tBool)

			fd := function("f", tBool, []*ast.ParamDecl{a}, block(
				ret(logical(tt.op, ref(a), call(probe))),
			))

			ctx, fn := buildFunc(t, fd, probe)

			calls := 0
			m := interp.NewMachine(ctx.Mod)
			m.Bind("probe", func([]interp.Value) (interp.Value, error) {
				calls++
				return interp.BoolValue(true), nil
			})

			v := callFunc(t, m, fn, interp.BoolValue(tt.lhs))
			if calls != tt.wantCalls {
				t.Errorf("expected %d calls to probe, got %d", tt.wantCalls, calls)
			}
			if v.Bool() != tt.want {
				t.Errorf("expected %v, got %v", tt.want, v.Bool())
			}
		})
	}
}

func TestShortCircuitPhi(t *testing.T) {
	probe := function("probe", tBool, nil, nil)
	a := param("a", tBool)
	fd := function("f", tBool, []*ast.ParamDecl{a}, block(
		ret(logical(ast.OpLogAnd, ref(a), call(probe))),
	))

	_, fn := buildFunc(t, fd, probe)

	phis := 0
	for _, b := range fn.Blocks {
		phis += countInsts(b, func(inst ir.Instruction) bool {
			phi, ok := inst.(*ir.InstPhi)
			return ok && len(phi.Incs) == 2
		})
	}

	if phis != 1 {
		t.Fatalf("expected 1 two-way phi, got %d", phis)
	}
}

func TestCasts(t *testing.T) {
	apint8 := &typing.APIntType{Bits: 8}

	tests := []struct {
		name     string
		src, dst typing.DataType
		arg      interp.Value
		want     interp.Value
	}{
		{"bool to int", tBool, tInt, interp.BoolValue(true), interp.IntValue(1, 32)},
		{"bit to int", typing.PrimBit, tInt, interp.BoolValue(true), interp.IntValue(1, 32)},
		{"int to apint<8>", tInt, apint8, interp.IntValue(300, 32), interp.IntValue(44, 8)},
		{"negative int to apint<8>", tInt, apint8, interp.IntValue(-1, 32), interp.IntValue(-1, 8)},
		{"apint<8> to int", apint8, tInt, interp.IntValue(-128, 8), interp.IntValue(-128, 32)},
		{"float to int", tFloat, tInt, interp.FloatValue(3.7), interp.IntValue(3, 32)},
		{"negative float to int", tFloat, tInt, interp.FloatValue(-3.7), interp.IntValue(-3, 32)},
		{"int to float", tInt, tFloat, interp.IntValue(-7, 32), interp.FloatValue(-7)},
		{"bool to float", tBool, tFloat, interp.BoolValue(true), interp.FloatValue(1)},
		{"int to int", tInt, tInt, interp.IntValue(9, 32), interp.IntValue(9, 32)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := param("x", tt.src)
			fd := function("f", tt.dst, []*ast.ParamDecl{x}, block(
				ret(cast(tt.dst, ref(x))),
			))

			ctx, fn := buildFunc(t, fd)
			v := callFunc(t, interp.NewMachine(ctx.Mod), fn, tt.arg)
			if v.Kind != tt.want.Kind || v.Int != tt.want.Int || v.Float != tt.want.Float {
				t.Fatalf("expected %+v, got %+v", tt.want, v)
			}
		})
	}
}

func TestCastSameTypeIsFree(t *testing.T) {
	fb := newVoidBuilder()

	if _, err := fb.LowerExpr(cast(tInt, intLit(3))); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if n := len(fb.Block().Insts); n != 0 {
		t.Errorf("expected cast between equal types to emit nothing, got %d instructions", n)
	}
}

func TestNaNComparisons(t *testing.T) {
	tests := []struct {
		op   int
		want bool
	}{
		{ast.OpLT, false},
		{ast.OpLE, false},
		{ast.OpGT, false},
		{ast.OpGE, false},
		{ast.OpEq, false},
		{ast.OpNE, true},
	}

	nan := interp.FloatValue(math.NaN())
	for _, tt := range tests {
		x, y := param("x", tFloat), param("y", tFloat)
		fd := function("f", tBool, []*ast.ParamDecl{x, y}, block(
			ret(relational(tt.op, ref(x), ref(y))),
		))

		ctx, fn := buildFunc(t, fd)
		m := interp.NewMachine(ctx.Mod)

		if v := callFunc(t, m, fn, nan, interp.FloatValue(1)); v.Bool() != tt.want {
			t.Errorf("expected op %d on NaN to yield %v, got %v", tt.op, tt.want, v.Bool())
		}
		if v := callFunc(t, m, fn, nan, nan); v.Bool() != tt.want {
			t.Errorf("expected op %d on two NaNs to yield %v, got %v", tt.op, tt.want, v.Bool())
		}
	}
}

func TestIntegerComparisons(t *testing.T) {
	tests := []struct {
		op   int
		x, y int64
		want bool
	}{
		{ast.OpLT, -1, 1, true},
		{ast.OpLE, 2, 2, true},
		{ast.OpGT, -1, 1, false},
		{ast.OpGE, 1, 2, false},
		{ast.OpEq, 3, 3, true},
		{ast.OpNE, 3, 3, false},
	}

	for _, tt := range tests {
		x, y := param("x", tInt), param("y", tInt)
		fd := function("f", tBool, []*ast.ParamDecl{x, y}, block(
			ret(relational(tt.op, ref(x), ref(y))),
		))

		ctx, fn := buildFunc(t, fd)
		v := callFunc(t, interp.NewMachine(ctx.Mod), fn, interp.IntValue(tt.x, 32), interp.IntValue(tt.y, 32))
		if v.Bool() != tt.want {
			t.Errorf("expected %d op %d %d to yield %v, got %v", tt.x, tt.op, tt.y, tt.want, v.Bool())
		}
	}
}

func TestArrayIndexing(t *testing.T) {
	arrType := &typing.ArrayType{ElemType: tInt, Len: 4}
	arr := local("arr", arrType, &ast.InitList{
		ExprBase: ast.NewExprBase(arrType),
		Elems:    []ast.Expr{intLit(1), intLit(2), intLit(3), intLit(4)},
	})
	i := param("i", tInt)

	// int f(int i) { int arr[4] = {1, 2, 3, 4}; arr[i] += 10; return arr[0] + arr[1] + arr[2] + arr[3]; }
	sum := binary(ast.OpAdd,
		binary(ast.OpAdd, index(ref(arr), intLit(0)), index(ref(arr), intLit(1))),
		binary(ast.OpAdd, index(ref(arr), intLit(2)), index(ref(arr), intLit(3))),
	)
	fd := function("f", tInt, []*ast.ParamDecl{i}, block(
		arr,
		exprStmt(assign(ast.OpAdd, index(ref(arr), ref(i)), intLit(10))),
		ret(sum),
	))

	ctx, fn := buildFunc(t, fd)
	m := interp.NewMachine(ctx.Mod)
	for ndx := int64(0); ndx < 4; ndx++ {
		if v := callFunc(t, m, fn, interp.IntValue(ndx, 32)); v.Int != 20 {
			t.Errorf("expected 20 for index %d, got %d", ndx, v.Int)
		}
	}
}

func TestNestedArray(t *testing.T) {
	inner := &typing.ArrayType{ElemType: tInt, Len: 2}
	outer := &typing.ArrayType{ElemType: inner, Len: 3}
	grid := local("grid", outer, nil)

	// int f() { int grid[3][2]; grid[2][1] = 5; grid[1][0] = 2; return grid[2][1] * grid[1][0]; }
	fd := function("f", tInt, nil, block(
		grid,
		exprStmt(assign(ast.OpNone, index(index(ref(grid), intLit(2)), intLit(1)), intLit(5))),
		exprStmt(assign(ast.OpNone, index(index(ref(grid), intLit(1)), intLit(0)), intLit(2))),
		ret(binary(ast.OpMul, index(index(ref(grid), intLit(2)), intLit(1)), index(index(ref(grid), intLit(1)), intLit(0)))),
	))

	ctx, fn := buildFunc(t, fd)
	if v := callFunc(t, interp.NewMachine(ctx.Mod), fn); v.Int != 10 {
		t.Fatalf("expected 10, got %d", v.Int)
	}
}

func TestCommaAndCalls(t *testing.T) {
	x := param("x", tInt)
	square := function("square", tInt, []*ast.ParamDecl{x}, block(
		ret(binary(ast.OpMul, ref(x), ref(x))),
	))

	y := local("y", tInt, intLit(1))

	// int f() { int y = 1; return (y = 4, square(y)); }
	comma := &ast.Comma{
		ExprBase: ast.NewExprBase(tInt),
		Lhs:      assign(ast.OpNone, ref(y), intLit(4)),
		Rhs:      call(square, ref(y)),
	}
	fd := function("f", tInt, nil, block(y, ret(comma)))

	ctx, fn := buildFunc(t, fd, square)
	if v := callFunc(t, interp.NewMachine(ctx.Mod), fn); v.Int != 16 {
		t.Fatalf("expected 16, got %d", v.Int)
	}
}

func TestCallConflictingDeclaration(t *testing.T) {
	sink := &recordSink{}
	ctx := NewContext("test", sink)
	ctx.Mod.NewFunc("probe", types.I32)

	probe := function("probe", tBool, nil, nil)
	fd := function("f", tBool, nil, block(ret(call(probe))))

	_, err := ctx.GenerateFunction(fd)
	if err == nil {
		t.Fatalf("expected error for conflicting declaration")
	}
	if len(sink.msgs) != 1 {
		t.Fatalf("expected 1 reported error, got %d: %v", len(sink.msgs), sink.msgs)
	}
}

func TestChannelExprsWithoutFragment(t *testing.T) {
	fb := newVoidBuilder()

	expectICE(t, "pop is not available", func() {
		fb.LowerExpr(&ast.Pop{ExprBase: ast.NewExprBase(tInt)})
	})
}
