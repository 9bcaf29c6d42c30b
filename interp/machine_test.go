package interp

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
)

func i32(x int64) *constant.Int {
	return constant.NewInt(types.I32, x)
}

func TestIntegerWrap(t *testing.T) {
	mod := ir.NewModule()
	fn := mod.NewFunc("f", types.I8)
	entry := fn.NewBlock("entry")
	sum := entry.NewAdd(constant.NewInt(types.I8, 100), constant.NewInt(types.I8, 100))
	entry.NewRet(sum)

	v, err := NewMachine(mod).Call(fn)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if v.Int != -56 {
		t.Fatalf("expected -56, got %d", v.Int)
	}
}

func TestDivisionByZero(t *testing.T) {
	mod := ir.NewModule()
	fn := mod.NewFunc("f", types.I32, ir.NewParam("d", types.I32))
	entry := fn.NewBlock("entry")
	entry.NewRet(entry.NewSDiv(i32(1), fn.Params[0]))

	m := NewMachine(mod)
	if _, err := m.Call(fn, IntValue(0, 32)); err == nil || !strings.Contains(err.Error(), "division by zero") {
		t.Fatalf("expected division by zero, got %v", err)
	}

	v, err := m.Call(fn, IntValue(-1, 32))
	if err != nil || v.Int != -1 {
		t.Fatalf("expected -1, got %d (%v)", v.Int, err)
	}
}

func TestUnsignedCompare(t *testing.T) {
	mod := ir.NewModule()
	fn := mod.NewFunc("f", types.I1)
	entry := fn.NewBlock("entry")
	entry.NewRet(entry.NewICmp(enum.IPredULT, constant.NewInt(types.I8, -1), constant.NewInt(types.I8, 1)))

	v, err := NewMachine(mod).Call(fn)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if v.Bool() {
		t.Fatalf("expected 255 <u 1 to be false")
	}
}

func TestExternCalls(t *testing.T) {
	mod := ir.NewModule()
	ext := mod.NewFunc("twice", types.I32, ir.NewParam("x", types.I32))
	fn := mod.NewFunc("f", types.I32)
	entry := fn.NewBlock("entry")
	entry.NewRet(entry.NewCall(ext, i32(21)))

	m := NewMachine(mod)
	if _, err := m.Call(fn); err == nil || !strings.Contains(err.Error(), "unbound external function @twice") {
		t.Fatalf("expected unbound function error, got %v", err)
	}

	m.Bind("twice", func(args []Value) (Value, error) {
		return IntValue(args[0].Int*2, 32), nil
	})

	v, err := m.CallByName("f")
	if err != nil || v.Int != 42 {
		t.Fatalf("expected 42, got %d (%v)", v.Int, err)
	}

	if _, err := m.CallByName("missing"); err == nil {
		t.Errorf("expected error calling a missing function")
	}
	if _, err := m.Call(ext); err == nil {
		t.Errorf("expected error for wrong argument count")
	}
}

func TestStepLimit(t *testing.T) {
	mod := ir.NewModule()
	fn := mod.NewFunc("spin", types.Void)
	loop := fn.NewBlock("loop")
	loop.NewBr(loop)

	m := NewMachine(mod)
	m.StepLimit = 100

	_, err := m.Call(fn)
	if !errors.Is(err, ErrStepLimit) {
		t.Fatalf("expected step limit error, got %v", err)
	}
	if m.Steps() != 101 {
		t.Errorf("expected 101 steps, got %d", m.Steps())
	}
}

func TestPhiAndLoop(t *testing.T) {
	// sum of 1..n
	mod := ir.NewModule()
	fn := mod.NewFunc("sum", types.I32, ir.NewParam("n", types.I32))
	entry, loop, exit := fn.NewBlock("entry"), fn.NewBlock("loop"), fn.NewBlock("exit")
	entry.NewBr(loop)

	i := loop.NewPhi(ir.NewIncoming(i32(1), entry))
	acc := loop.NewPhi(ir.NewIncoming(i32(0), entry))
	nextAcc := loop.NewAdd(acc, i)
	nextI := loop.NewAdd(i, i32(1))
	i.Incs = append(i.Incs, ir.NewIncoming(nextI, loop))
	acc.Incs = append(acc.Incs, ir.NewIncoming(nextAcc, loop))
	loop.NewCondBr(loop.NewICmp(enum.IPredSLT, i, fn.Params[0]), loop, exit)
	exit.NewRet(nextAcc)

	v, err := NewMachine(mod).Call(fn, IntValue(10, 32))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if v.Int != 55 {
		t.Fatalf("expected 55, got %d", v.Int)
	}
}

func TestGlobalsPersist(t *testing.T) {
	mod := ir.NewModule()
	counter := mod.NewGlobalDef("counter", i32(5))

	fn := mod.NewFunc("bump", types.Void)
	entry := fn.NewBlock("entry")
	old := entry.NewLoad(types.I32, counter)
	entry.NewStore(entry.NewAdd(old, i32(1)), counter)
	entry.NewRet(nil)

	m := NewMachine(mod)
	for i := 0; i < 3; i++ {
		if _, err := m.Call(fn); err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
	}

	v, err := m.Global(counter)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if v.Int != 8 {
		t.Fatalf("expected 8, got %d", v.Int)
	}

	// a fresh machine starts from the initializer again
	if v, _ := NewMachine(mod).Global(counter); v.Int != 5 {
		t.Errorf("expected fresh machine to read 5, got %d", v.Int)
	}
}

func TestArrayMemory(t *testing.T) {
	arrType := types.NewArray(2, types.NewArray(3, types.I32))

	mod := ir.NewModule()
	fn := mod.NewFunc("f", types.I32)
	entry := fn.NewBlock("entry")
	arr := entry.NewAlloca(arrType)
	elem := entry.NewGetElementPtr(arrType, arr, i32(0), i32(1), i32(2))
	entry.NewStore(i32(9), elem)
	row := entry.NewGetElementPtr(arrType, arr, i32(0), i32(1))
	entry.NewRet(entry.NewLoad(types.I32, entry.NewGetElementPtr(types.NewArray(3, types.I32), row, i32(0), i32(2))))

	v, err := NewMachine(mod).Call(fn)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if v.Int != 9 {
		t.Fatalf("expected 9, got %d", v.Int)
	}
}

func TestChannels(t *testing.T) {
	// void f(i32* in, i32* out) { *out = in[1]; *out = *in; *out = *in; }
	mod := ir.NewModule()
	in := ir.NewParam("in", types.NewPointer(types.I32))
	out := ir.NewParam("out", types.NewPointer(types.I32))
	fn := mod.NewFunc("f", types.Void, in, out)

	entry := fn.NewBlock("entry")
	peek := entry.NewLoad(types.I32, entry.NewGetElementPtr(types.I32, in, i32(1)))
	entry.NewStore(peek, out)
	entry.NewStore(entry.NewLoad(types.I32, in), out)
	entry.NewStore(entry.NewLoad(types.I32, in), out)
	entry.NewRet(nil)

	inCh := NewChannel(IntValue(4, 32), IntValue(5, 32), IntValue(6, 32))
	outCh := NewChannel()
	if _, err := NewMachine(mod).Call(fn, inCh, outCh); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	var got []int64
	for _, v := range ChannelContents(outCh) {
		got = append(got, v.Int)
	}
	if len(got) != 3 || got[0] != 5 || got[1] != 4 || got[2] != 5 {
		t.Fatalf("expected pushes [5 4 5], got %v", got)
	}
	if n := len(ChannelContents(inCh)); n != 1 {
		t.Errorf("expected 1 element left in the input, got %d", n)
	}

	// reading past the end of a channel fails
	if _, err := NewMachine(mod).Call(fn, NewChannel(IntValue(1, 32)), NewChannel()); err == nil {
		t.Errorf("expected error reading past the end of a channel")
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		v    Value
		t    types.Type
		want string
	}{
		{IntValue(-3, 32), types.I32, "-3"},
		{BoolValue(true), types.I1, "true"},
		{FloatValue(2.5), types.Double, "2.5"},
		{FloatValue(math.NaN()), types.Double, "nan"},
		{Value{Kind: KindAggregate, Elems: []Value{IntValue(1, 8), IntValue(2, 8)}}, types.NewArray(2, types.I8), "{1, 2}"},
		{Value{}, types.Void, "void"},
	}

	for _, tt := range tests {
		if got := Format(tt.v, tt.t); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}

func TestConstants(t *testing.T) {
	arrType := types.NewArray(3, types.I32)

	c, err := ToConstant(Zero(arrType), arrType)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if _, ok := c.(*constant.ZeroInitializer); !ok {
		t.Errorf("expected zero array to become zeroinitializer, got %s", c.Ident())
	}

	c, err = ToConstant(Value{Kind: KindAggregate, Elems: []Value{IntValue(7, 32)}}, arrType)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if c.Ident() != "[i32 7, i32 0, i32 0]" {
		t.Errorf("expected padded array constant, got %s", c.Ident())
	}

	v, err := ConstValue(c)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(v.Elems) != 3 || v.Elems[0].Int != 7 {
		t.Errorf("expected array value starting with 7, got %v", v)
	}

	if _, err := ToConstant(FloatValue(math.NaN()), types.Double); err == nil {
		t.Errorf("expected NaN to have no constant")
	}

	if c, _ := ToConstant(BoolValue(true), types.I1); c.Ident() != "true" {
		t.Errorf("expected `true`, got %s", c.Ident())
	}
}

func TestWrapInt(t *testing.T) {
	tests := []struct {
		x, want int64
		bits    uint64
	}{
		{255, -1, 8},
		{128, -128, 8},
		{127, 127, 8},
		{1, -1, 1},
		{1 << 40, 1 << 40, 64},
	}

	for _, tt := range tests {
		if got := WrapInt(tt.x, tt.bits); got != tt.want {
			t.Errorf("expected WrapInt(%d, %d) = %d, got %d", tt.x, tt.bits, tt.want, got)
		}
	}
}
