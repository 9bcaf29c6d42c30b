package typing

import "testing"

func TestParseRoundTrip(t *testing.T) {
	for _, s := range []string{"void", "bool", "bit", "int", "float", "apint<12>", "int[4]", "float[4][2]", "apint<3>[8]"} {
		dt, err := Parse(s)
		if err != nil {
			t.Fatalf("parse %q: %v", s, err)
		}
		if dt.Repr() != s {
			t.Errorf("Repr() = %q, want %q", dt.Repr(), s)
		}
	}
}

func TestParseArrayNesting(t *testing.T) {
	dt, err := Parse("int[4][2]")
	if err != nil {
		t.Fatal(err)
	}

	outer, ok := dt.(*ArrayType)
	if !ok || outer.Len != 4 {
		t.Fatalf("expected outer array of length 4, got %s", dt.Repr())
	}
	inner, ok := outer.ElemType.(*ArrayType)
	if !ok || inner.Len != 2 || inner.ElemType != PrimInt {
		t.Fatalf("expected inner int[2], got %s", outer.ElemType.Repr())
	}
}

func TestParseErrors(t *testing.T) {
	for _, s := range []string{"", "string", "int[", "int[0]", "int[x]", "apint<>", "apint<0>", "void[2]"} {
		if _, err := Parse(s); err == nil {
			t.Errorf("expected error parsing %q", s)
		}
	}
}

func TestEquiv(t *testing.T) {
	if !(&APIntType{Bits: 7}).Equiv(&APIntType{Bits: 7}) {
		t.Error("apint<7> should be equivalent to itself")
	}
	if PrimInt.Equiv(&APIntType{Bits: 32}) {
		t.Error("int and apint<32> are distinct types")
	}

	a := &ArrayType{ElemType: PrimInt, Len: 3}
	b := &ArrayType{ElemType: PrimInt, Len: 3}
	if !a.Equiv(b) {
		t.Error("structurally equal arrays should be equivalent")
	}

	f := &FuncType{ReturnType: PrimVoid, Params: []DataType{PrimInt}}
	g := &FuncType{ReturnType: PrimVoid, Params: []DataType{PrimFloat}}
	if f.Equiv(g) {
		t.Error("signatures with different params should not be equivalent")
	}
}

func TestBitWidth(t *testing.T) {
	cases := map[DataType]int{
		PrimBool:             1,
		PrimBit:              1,
		PrimInt:              32,
		PrimFloat:            64,
		&APIntType{Bits: 12}: 12,
		PrimVoid:             0,
	}
	for dt, want := range cases {
		if got := BitWidth(dt); got != want {
			t.Errorf("BitWidth(%s) = %d, want %d", dt.Repr(), got, want)
		}
	}
}
