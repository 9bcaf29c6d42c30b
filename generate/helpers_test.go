package generate

import (
	"fmt"
	"strings"
	"testing"

	"streamc/ast"
	"streamc/interp"
	"streamc/report"
	"streamc/typing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// recordSink collects the environment failures reported during a test.
type recordSink struct {
	msgs []string
}

func (rs *recordSink) ReportError(message string, args ...interface{}) {
	rs.msgs = append(rs.msgs, fmt.Sprintf(message, args...))
}

// testFragment accesses channels through calls to `test_pop`, `test_peek` and
// `test_push` so that interpreted code can be observed.
type testFragment struct {
	pop, peek, push *ir.Func
}

func newTestFragment(t *testing.T, ctx *Context) *testFragment {
	t.Helper()

	frag, err := declareTestFragment(ctx)
	if err != nil {
		t.Fatalf("declaring channel functions: %s", err)
	}

	return frag
}

func declareTestFragment(ctx *Context) (*testFragment, error) {
	var err error
	frag := &testFragment{}
	if frag.pop, err = ctx.GetOrInsertFunc("test_pop", types.I32); err != nil {
		return nil, err
	}
	if frag.peek, err = ctx.GetOrInsertFunc("test_peek", types.I32, types.I32); err != nil {
		return nil, err
	}
	if frag.push, err = ctx.GetOrInsertFunc("test_push", types.Void, types.I32); err != nil {
		return nil, err
	}

	return frag, nil
}

// testTarget builds void filter functions that use a testFragment.
type testTarget struct{}

func (testTarget) DeclareFilterFunc(ctx *Context, name string, filter *ast.FilterDecl) (*ir.Func, error) {
	return ctx.GetOrInsertFunc(name, types.Void)
}

func (testTarget) NewFragment(ctx *Context, instance string, fn *ir.Func, filter *ast.FilterDecl) (Fragment, error) {
	frag, err := declareTestFragment(ctx)
	if err != nil {
		return nil, err
	}

	return frag, nil
}

func (tf *testFragment) BuildPop(block *ir.Block) value.Value {
	return block.NewCall(tf.pop)
}

func (tf *testFragment) BuildPeek(block *ir.Block, index value.Value) value.Value {
	return block.NewCall(tf.peek, index)
}

func (tf *testFragment) BuildPush(block *ir.Block, val value.Value) bool {
	block.NewCall(tf.push, val)
	return true
}

// bindTestChannels provides the channel functions of a testFragment over the
// given input and returns a pointer to the values pushed.
func bindTestChannels(m *interp.Machine, input ...int64) *[]int64 {
	var pushed []int64
	m.Bind("test_pop", func([]interp.Value) (interp.Value, error) {
		if len(input) == 0 {
			return interp.Value{}, fmt.Errorf("pop from empty input")
		}

		v := input[0]
		input = input[1:]
		return interp.IntValue(v, 32), nil
	})
	m.Bind("test_peek", func(args []interp.Value) (interp.Value, error) {
		return interp.IntValue(input[args[0].Int], 32), nil
	})
	m.Bind("test_push", func(args []interp.Value) (interp.Value, error) {
		pushed = append(pushed, args[0].Int)
		return interp.Value{}, nil
	})

	return &pushed
}

// expectICE runs f and checks that it raises an internal compiler error whose
// message contains want.
func expectICE(t *testing.T, want string, f func()) {
	t.Helper()

	defer func() {
		t.Helper()

		x := recover()
		if x == nil {
			t.Fatalf("expected internal compiler error containing %q", want)
		}

		ie, ok := x.(*report.InternalError)
		if !ok {
			t.Fatalf("expected internal compiler error, got %v", x)
		}
		if !strings.Contains(ie.Message, want) {
			t.Fatalf("expected internal compiler error containing %q, got %q", want, ie.Message)
		}
	}()

	f()
}

// buildFunc generates fd into a fresh context and checks the result verifies.
func buildFunc(t *testing.T, fd *ast.FuncDecl, extra ...*ast.FuncDecl) (*Context, *ir.Func) {
	t.Helper()

	ctx := NewContext("test", &recordSink{})
	if err := ctx.GenerateFunctions(append(extra, fd)); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if msgs := Verify(ctx.Mod); len(msgs) > 0 {
		t.Fatalf("generated module failed verification: %v\n%s", msgs, ctx.Mod)
	}

	return ctx, ctx.LookupFunc(fd.SymbolName())
}

// callFunc interprets fn in its module.
func callFunc(t *testing.T, m *interp.Machine, fn *ir.Func, args ...interp.Value) interp.Value {
	t.Helper()

	v, err := m.Call(fn, args...)
	if err != nil {
		t.Fatalf("unexpected error calling @%s: %s", fn.Name(), err)
	}

	return v
}

// -----------------------------------------------------------------------------

var (
	tInt   typing.DataType = typing.PrimInt
	tBool  typing.DataType = typing.PrimBool
	tFloat typing.DataType = typing.PrimFloat
)

func intLit(v int64) *ast.IntLit {
	return &ast.IntLit{ExprBase: ast.NewExprBase(tInt), Value: v}
}

func boolLit(b bool) *ast.BoolLit {
	return &ast.BoolLit{ExprBase: ast.NewExprBase(tBool), Value: b}
}

func floatLit(f float64) *ast.FloatLit {
	return &ast.FloatLit{ExprBase: ast.NewExprBase(tFloat), Value: f}
}

func ref(decl ast.Decl) *ast.Identifier {
	return &ast.Identifier{ExprBase: ast.NewExprBase(decl.DeclType()), Name: decl.DeclName(), Decl: decl}
}

func local(name string, dt typing.DataType, init ast.Expr) *ast.VarDecl {
	return &ast.VarDecl{Name: name, Typ: dt, Init: init}
}

func param(name string, dt typing.DataType) *ast.ParamDecl {
	return &ast.ParamDecl{Name: name, Typ: dt}
}

func binary(op int, lhs, rhs ast.Expr) *ast.Binary {
	return &ast.Binary{ExprBase: ast.NewExprBase(lhs.Type()), Op: op, Lhs: lhs, Rhs: rhs}
}

func relational(op int, lhs, rhs ast.Expr) *ast.Relational {
	return &ast.Relational{ExprBase: ast.NewExprBase(tBool), Op: op, Lhs: lhs, Rhs: rhs}
}

func logical(op int, lhs, rhs ast.Expr) *ast.Logical {
	return &ast.Logical{ExprBase: ast.NewExprBase(tBool), Op: op, Lhs: lhs, Rhs: rhs}
}

func assign(op int, lhs, rhs ast.Expr) *ast.Assign {
	return &ast.Assign{ExprBase: ast.NewExprBase(lhs.Type()), Op: op, Lhs: lhs, Rhs: rhs}
}

func unary(op int, operand ast.Expr) *ast.Unary {
	return &ast.Unary{ExprBase: ast.NewExprBase(operand.Type()), Op: op, Operand: operand}
}

func cast(dt typing.DataType, src ast.Expr) *ast.Cast {
	return &ast.Cast{ExprBase: ast.NewExprBase(dt), Src: src}
}

func call(fd *ast.FuncDecl, args ...ast.Expr) *ast.Call {
	return &ast.Call{ExprBase: ast.NewExprBase(fd.Sig.ReturnType), Func: fd, Args: args}
}

func index(arr, ndx ast.Expr) *ast.Index {
	return &ast.Index{ExprBase: ast.NewExprBase(arr.Type().(*typing.ArrayType).ElemType), Array: arr, Index: ndx}
}

func exprStmt(e ast.Expr) *ast.ExprStmt {
	return &ast.ExprStmt{Expr: e}
}

func ret(e ast.Expr) *ast.Return {
	return &ast.Return{Value: e}
}

func block(stmts ...ast.Stmt) *ast.Block {
	return &ast.Block{Stmts: stmts}
}

// function creates a function declaration.  A nil body makes it external.
func function(name string, retType typing.DataType, params []*ast.ParamDecl, body *ast.Block) *ast.FuncDecl {
	sig := &typing.FuncType{ReturnType: retType}
	for _, p := range params {
		sig.Params = append(sig.Params, p.Typ)
	}

	return &ast.FuncDecl{Name: name, Sig: sig, Params: params, Body: body}
}
