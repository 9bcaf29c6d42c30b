package generate

import (
	"fmt"

	"streamc/ast"
	"streamc/report"

	"github.com/llir/llvm/ir"
)

// GenerateFunction generates the body of a source function.  External
// functions are only declared.
func (c *Context) GenerateFunction(fd *ast.FuncDecl) (*ir.Func, error) {
	fn, err := c.DeclareFunc(fd)
	if err != nil {
		return nil, err
	}

	if fd.External() {
		return fn, nil
	}

	if len(fn.Blocks) > 0 {
		return nil, c.errorf("function `%s` is defined more than once", fd.SymbolName())
	}

	for i, param := range fd.Params {
		fn.Params[i].SetName(param.Name)
	}

	fb := NewFuncBuilder(c, fn, NullFragment{}, fd.Sig.ReturnType)
	fb.CreateParameterVariables(fd.Params)

	if err := fb.LowerBlock(fd.Body); err != nil {
		return nil, fmt.Errorf("generating function `%s`: %w", fd.Name, err)
	}

	fb.Finish()
	return fn, nil
}

// GenerateFunctions generates every function of a program.  All prototypes are
// declared first so that functions can call each other in any order.
func (c *Context) GenerateFunctions(funcs []*ast.FuncDecl) error {
	for _, fd := range funcs {
		if _, err := c.DeclareFunc(fd); err != nil {
			return err
		}
	}

	for _, fd := range funcs {
		if _, err := c.GenerateFunction(fd); err != nil {
			return err
		}
	}

	return nil
}

// GenerateBody lowers a statement block into fn using the given fragment.  It
// is the entry point used for filter functions.  Bindings carries the storage
// and constants the body may refer to beyond its own locals.
func (c *Context) GenerateBody(fn *ir.Func, frag Fragment, body *ast.Block, bindings *Bindings) error {
	fb := NewFuncBuilder(c, fn, frag, voidType)
	bindings.apply(fb)

	if body != nil {
		if err := fb.LowerBlock(body); err != nil {
			return fmt.Errorf("generating `%s`: %w", fn.Name(), err)
		}
	}

	fb.Finish()
	report.Assert(len(fn.Blocks) > 0, "empty function body for `%s`", fn.Name())
	return nil
}
